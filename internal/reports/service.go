package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/devcrafted/socialflow/pkg/models"
)

// Store defines the persistence operations the reporting service reads from
type Store interface {
	GetContent(ctx context.Context, id string) (*models.Content, error)
	ListContentByUser(ctx context.Context, userID string, status models.ContentStatus, limit, offset int) ([]*models.Content, error)
	ListAnalytics(ctx context.Context, contentID string, limit int) ([]*models.AnalyticsSnapshot, error)
	UserContentOverview(ctx context.Context, userID string) (*models.UserContentOverview, error)
}

// Service aggregates analytics snapshots into performance reports
type Service struct {
	store Store
}

// NewService creates a new reporting service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// viralThresholdMultiplier marks content whose engagement rate exceeds the
// platform baseline by this factor
const viralThresholdMultiplier = 2.0

// maxSnapshotsPerReport bounds the time series read for one report
const maxSnapshotsPerReport = 1000

// ContentPerformance summarizes the snapshot time series for one content item
type ContentPerformance struct {
	ContentID          string    `json:"content_id"`
	Platform           string    `json:"platform"`
	Status             string    `json:"status"`
	SnapshotCount      int       `json:"snapshot_count"`
	FirstRecordedAt    time.Time `json:"first_recorded_at,omitempty"`
	LastRecordedAt     time.Time `json:"last_recorded_at,omitempty"`
	Impressions        int       `json:"impressions"`
	Engagements        int       `json:"engagements"`
	ImpressionGrowth   int       `json:"impression_growth"`
	EngagementGrowth   int       `json:"engagement_growth"`
	EngagementRate     float64   `json:"engagement_rate"`
	PeakEngagementRate float64   `json:"peak_engagement_rate"`
	Viral              bool      `json:"viral"`
}

// UserReport combines a user's overview row with aggregate content performance
type UserReport struct {
	Overview         *models.UserContentOverview `json:"overview"`
	TotalImpressions int                         `json:"total_impressions"`
	TotalEngagements int                         `json:"total_engagements"`
	AvgEngagement    float64                     `json:"avg_engagement_rate"`
	TopContent       []*ContentPerformance       `json:"top_content"`
	ViralCount       int                         `json:"viral_count"`
}

// ContentPerformance builds the performance summary for one content item from
// its snapshot time series
func (s *Service) ContentPerformance(ctx context.Context, contentID string) (*ContentPerformance, error) {
	content, err := s.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.store.ListAnalytics(ctx, contentID, maxSnapshotsPerReport)
	if err != nil {
		return nil, err
	}

	perf := &ContentPerformance{
		ContentID: content.ID,
		Platform:  string(content.Platform),
		Status:    string(content.Status),
	}

	if len(snapshots) == 0 {
		return perf, nil
	}

	first := snapshots[0]
	last := snapshots[len(snapshots)-1]

	perf.SnapshotCount = len(snapshots)
	perf.FirstRecordedAt = first.RecordedAt
	perf.LastRecordedAt = last.RecordedAt
	perf.Impressions = last.Metrics.Impressions
	perf.Engagements = last.Metrics.Engagements
	perf.ImpressionGrowth = last.Metrics.Impressions - first.Metrics.Impressions
	perf.EngagementGrowth = last.Metrics.Engagements - first.Metrics.Engagements
	perf.EngagementRate = last.Metrics.EngagementRate

	for _, snapshot := range snapshots {
		if snapshot.Metrics.EngagementRate > perf.PeakEngagementRate {
			perf.PeakEngagementRate = snapshot.Metrics.EngagementRate
		}
	}

	// Viral detection uses the content's current metrics against the platform
	// baseline
	probe := *content
	probe.Metrics = last.Metrics
	perf.Viral = probe.IsViral(viralThresholdMultiplier)

	return perf, nil
}

// UserReport builds the aggregate report for a user across their published
// content
func (s *Service) UserReport(ctx context.Context, userID string, topN int) (*UserReport, error) {
	overview, err := s.store.UserContentOverview(ctx, userID)
	if err != nil {
		return nil, err
	}

	published, err := s.store.ListContentByUser(ctx, userID, models.ContentStatusPublished, maxSnapshotsPerReport, 0)
	if err != nil {
		return nil, err
	}

	report := &UserReport{Overview: overview}

	var rateSum float64
	var rated int
	for _, content := range published {
		perf, err := s.ContentPerformance(ctx, content.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to build performance for %s: %w", content.ID, err)
		}

		report.TotalImpressions += perf.Impressions
		report.TotalEngagements += perf.Engagements
		if perf.SnapshotCount > 0 {
			rateSum += perf.EngagementRate
			rated++
		}
		if perf.Viral {
			report.ViralCount++
		}

		report.TopContent = insertTop(report.TopContent, perf, topN)
	}

	if rated > 0 {
		report.AvgEngagement = rateSum / float64(rated)
	}

	return report, nil
}

// insertTop keeps the top-n performances ordered by engagement rate
func insertTop(top []*ContentPerformance, perf *ContentPerformance, n int) []*ContentPerformance {
	pos := len(top)
	for i, existing := range top {
		if perf.EngagementRate > existing.EngagementRate {
			pos = i
			break
		}
	}

	top = append(top, nil)
	copy(top[pos+1:], top[pos:])
	top[pos] = perf

	if len(top) > n {
		top = top[:n]
	}
	return top
}
