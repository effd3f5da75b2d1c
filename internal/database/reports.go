package database

import (
	"context"
	"fmt"

	"github.com/devcrafted/socialflow/pkg/models"
)

const overviewColumns = `user_id, email, tier, total_content, draft_count, scheduled_count,
       published_count, failed_count, archived_count, monthly_generations, monthly_engagements`

// UserContentOverview retrieves the per-user reporting row: content counts by
// status alongside the usage counters. Backed by a database view so the
// counts are always consistent with the content table.
func (s *Store) UserContentOverview(ctx context.Context, userID string) (*models.UserContentOverview, error) {
	var overview models.UserContentOverview

	query := `SELECT ` + overviewColumns + ` FROM user_content_overview WHERE user_id = $1`

	err := s.db.Pool.QueryRow(ctx, query, userID).Scan(
		&overview.UserID, &overview.Email, &overview.Tier, &overview.TotalContent,
		&overview.DraftCount, &overview.ScheduledCount, &overview.PublishedCount,
		&overview.FailedCount, &overview.ArchivedCount,
		&overview.MonthlyGenerations, &overview.MonthlyEngagements,
	)
	if err != nil {
		return nil, mapError("failed to get user overview", err)
	}

	return &overview, nil
}

// ListUserOverviews retrieves reporting rows for all users, paginated
func (s *Store) ListUserOverviews(ctx context.Context, limit, offset int) ([]*models.UserContentOverview, error) {
	query := `
		SELECT ` + overviewColumns + `
		FROM user_content_overview
		ORDER BY total_content DESC, user_id
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list user overviews: %w", err)
	}
	defer rows.Close()

	var overviews []*models.UserContentOverview
	for rows.Next() {
		var overview models.UserContentOverview
		err := rows.Scan(
			&overview.UserID, &overview.Email, &overview.Tier, &overview.TotalContent,
			&overview.DraftCount, &overview.ScheduledCount, &overview.PublishedCount,
			&overview.FailedCount, &overview.ArchivedCount,
			&overview.MonthlyGenerations, &overview.MonthlyEngagements,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overview: %w", err)
		}
		overviews = append(overviews, &overview)
	}

	return overviews, nil
}
