package models

import "time"

// AnalyticsSnapshot is one immutable, timestamped recording of metrics for a
// content item. Snapshots accumulate a time series and are never updated.
type AnalyticsSnapshot struct {
	ID         string    `json:"id" db:"id"`
	ContentID  string    `json:"content_id" db:"content_id"`
	Platform   Platform  `json:"platform" db:"platform"`
	Metrics    Metrics   `json:"metrics" db:"metrics"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// UserContentOverview is one row of the per-user reporting view: content
// counts by status alongside the usage counters.
type UserContentOverview struct {
	UserID             string `json:"user_id" db:"user_id"`
	Email              string `json:"email" db:"email"`
	Tier               Tier   `json:"tier" db:"tier"`
	TotalContent       int    `json:"total_content" db:"total_content"`
	DraftCount         int    `json:"draft_count" db:"draft_count"`
	ScheduledCount     int    `json:"scheduled_count" db:"scheduled_count"`
	PublishedCount     int    `json:"published_count" db:"published_count"`
	FailedCount        int    `json:"failed_count" db:"failed_count"`
	ArchivedCount      int    `json:"archived_count" db:"archived_count"`
	MonthlyGenerations int    `json:"monthly_generations" db:"monthly_generations"`
	MonthlyEngagements int    `json:"monthly_engagements" db:"monthly_engagements"`
}
