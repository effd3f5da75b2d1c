package database

import (
	"context"
	"fmt"
	"time"

	"github.com/devcrafted/socialflow/pkg/models"
	"github.com/google/uuid"
)

// RecordAnalytics appends one immutable metrics snapshot for a content item
// and refreshes the current metrics on the content row in the same
// transaction. Snapshots are never updated or deleted.
func (s *Store) RecordAnalytics(ctx context.Context, snapshot *models.AnalyticsSnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.New().String()
	}
	if snapshot.RecordedAt.IsZero() {
		snapshot.RecordedAt = time.Now()
	}

	snapshot.Metrics.EngagementRate = snapshot.Metrics.CalculateEngagementRate()
	snapshot.Metrics.CTR = snapshot.Metrics.CalculateCTR()

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO analytics (id, content_id, platform, metrics, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(ctx, insert,
		snapshot.ID, snapshot.ContentID, snapshot.Platform,
		snapshot.Metrics, snapshot.RecordedAt,
	)
	if err != nil {
		return mapError("failed to record analytics", err)
	}

	refresh := `UPDATE content SET metrics = $2, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(ctx, refresh, snapshot.ContentID, snapshot.Metrics); err != nil {
		return fmt.Errorf("failed to refresh content metrics: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit analytics: %w", err)
	}

	return nil
}

// ListAnalytics retrieves the snapshot time series for a content item in
// recording order
func (s *Store) ListAnalytics(ctx context.Context, contentID string, limit int) ([]*models.AnalyticsSnapshot, error) {
	query := `
		SELECT id, content_id, platform, metrics, recorded_at
		FROM analytics
		WHERE content_id = $1
		ORDER BY recorded_at ASC
		LIMIT $2
	`

	rows, err := s.db.Pool.Query(ctx, query, contentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.AnalyticsSnapshot
	for rows.Next() {
		var snapshot models.AnalyticsSnapshot
		err := rows.Scan(
			&snapshot.ID, &snapshot.ContentID, &snapshot.Platform,
			&snapshot.Metrics, &snapshot.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &snapshot)
	}

	return snapshots, nil
}

// LatestAnalytics retrieves the most recent snapshot for a content item
func (s *Store) LatestAnalytics(ctx context.Context, contentID string) (*models.AnalyticsSnapshot, error) {
	var snapshot models.AnalyticsSnapshot

	query := `
		SELECT id, content_id, platform, metrics, recorded_at
		FROM analytics
		WHERE content_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	err := s.db.Pool.QueryRow(ctx, query, contentID).Scan(
		&snapshot.ID, &snapshot.ContentID, &snapshot.Platform,
		&snapshot.Metrics, &snapshot.RecordedAt,
	)
	if err != nil {
		return nil, mapError("failed to get latest snapshot", err)
	}

	return &snapshot, nil
}
