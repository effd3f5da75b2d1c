package database

import (
	"context"
	"fmt"
	"time"

	"github.com/devcrafted/socialflow/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const contentColumns = `id, user_id, platform, content_type, status, text, media_urls,
       hashtags, mentions, original_prompt, ai_model, generation_params, variants,
       scheduled_for, published_at, external_id, external_url, metrics,
       created_at, updated_at`

func scanContent(row interface{ Scan(...interface{}) error }, c *models.Content) error {
	return row.Scan(
		&c.ID, &c.UserID, &c.Platform, &c.ContentType, &c.Status, &c.Text,
		&c.MediaURLs, &c.Hashtags, &c.Mentions, &c.OriginalPrompt, &c.AIModel,
		&c.GenerationParams, &c.Variants, &c.ScheduledFor, &c.PublishedAt,
		&c.ExternalID, &c.ExternalURL, &c.Metrics, &c.CreatedAt, &c.UpdatedAt,
	)
}

// CreateContent creates a new content record and charges one generation
// against the owner's monthly quota in the same transaction. The owner row is
// locked first so two concurrent generations cannot both pass the quota check.
func (s *Store) CreateContent(ctx context.Context, content *models.Content) error {
	if content.ID == "" {
		content.ID = uuid.New().String()
	}
	if content.Status == "" {
		content.Status = models.ContentStatusDraft
	}

	if err := content.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var user models.User
	lock := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	if err := scanUser(tx.QueryRow(ctx, lock, content.UserID), &user); err != nil {
		return mapError("failed to get content owner", err)
	}

	if !user.CanGenerateContent() {
		return fmt.Errorf("%w: tier %s", models.ErrInsufficientQuota, user.Tier)
	}

	insert := `
		INSERT INTO content (id, user_id, platform, content_type, status, text,
		                     media_urls, hashtags, mentions, original_prompt, ai_model,
		                     generation_params, variants, scheduled_for, metrics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`

	err = tx.QueryRow(ctx, insert,
		content.ID, content.UserID, content.Platform, content.ContentType,
		content.Status, content.Text, content.MediaURLs, content.Hashtags,
		content.Mentions, content.OriginalPrompt, content.AIModel,
		content.GenerationParams, content.Variants, content.ScheduledFor,
		content.Metrics,
	).Scan(&content.CreatedAt, &content.UpdatedAt)

	if err != nil {
		return mapError("failed to create content", err)
	}

	charge := `
		UPDATE users
		SET monthly_generations = monthly_generations + 1,
		    last_activity = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, charge, content.UserID); err != nil {
		return fmt.Errorf("failed to charge generation quota: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit content creation: %w", err)
	}

	return nil
}

// GetContent retrieves a content item by ID
func (s *Store) GetContent(ctx context.Context, id string) (*models.Content, error) {
	var content models.Content

	query := `SELECT ` + contentColumns + ` FROM content WHERE id = $1`

	if err := scanContent(s.db.Pool.QueryRow(ctx, query, id), &content); err != nil {
		return nil, mapError("failed to get content", err)
	}

	return &content, nil
}

// ListContentByUser retrieves a user's content, optionally filtered by status,
// newest first
func (s *Store) ListContentByUser(ctx context.Context, userID string, status models.ContentStatus, limit, offset int) ([]*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM content WHERE user_id = $1`
	args := []interface{}{userID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()

	var items []*models.Content
	for rows.Next() {
		var content models.Content
		if err := scanContent(rows, &content); err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		items = append(items, &content)
	}

	return items, nil
}

// lockContent reads a content row FOR UPDATE inside a transaction
func lockContent(ctx context.Context, tx pgx.Tx, id string) (*models.Content, error) {
	var content models.Content

	query := `SELECT ` + contentColumns + ` FROM content WHERE id = $1 FOR UPDATE`

	if err := scanContent(tx.QueryRow(ctx, query, id), &content); err != nil {
		return nil, mapError("failed to lock content", err)
	}

	return &content, nil
}

// saveContentState writes back the lifecycle fields after a model transition
func saveContentState(ctx context.Context, tx pgx.Tx, content *models.Content) error {
	query := `
		UPDATE content
		SET status = $2, scheduled_for = $3, published_at = $4, external_id = $5,
		    external_url = $6, generation_params = $7, metrics = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := tx.QueryRow(ctx, query,
		content.ID, content.Status, content.ScheduledFor, content.PublishedAt,
		content.ExternalID, content.ExternalURL, content.GenerationParams,
		content.Metrics,
	).Scan(&content.UpdatedAt)

	if err != nil {
		return mapError("failed to save content state", err)
	}

	return nil
}

// TransitionContent applies one lifecycle transition under a row lock. Illegal
// transitions leave the row untouched and surface ErrInvalidTransition.
func (s *Store) TransitionContent(ctx context.Context, id string, to models.ContentStatus) (*models.Content, error) {
	return s.mutateContent(ctx, id, func(c *models.Content, now time.Time) error {
		return c.TransitionTo(to, now)
	})
}

// ScheduleContent sets a future publication time, moves the content to
// scheduled, and enqueues the publish task in the same transaction.
func (s *Store) ScheduleContent(ctx context.Context, id string, at time.Time) (*models.Content, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	content, err := lockContent(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := content.Schedule(at, time.Now()); err != nil {
		return nil, err
	}

	if err := saveContentState(ctx, tx, content); err != nil {
		return nil, err
	}

	task := &models.ScheduledTask{
		ID:            uuid.New().String(),
		ContentID:     content.ID,
		TaskType:      models.TaskTypePublish,
		Status:        models.TaskStatusPending,
		ScheduledTime: at,
		MaxAttempts:   models.DefaultMaxAttempts,
	}
	if err := insertTask(ctx, tx, task); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit schedule: %w", err)
	}

	return content, nil
}

// PublishContent marks the content published with its external identifiers
func (s *Store) PublishContent(ctx context.Context, id, externalID, externalURL string) (*models.Content, error) {
	return s.mutateContent(ctx, id, func(c *models.Content, now time.Time) error {
		return c.Publish(externalID, externalURL, now)
	})
}

// FailContent marks a scheduled content item as failed with the given reason
func (s *Store) FailContent(ctx context.Context, id, reason string) (*models.Content, error) {
	return s.mutateContent(ctx, id, func(c *models.Content, now time.Time) error {
		return c.FailPublication(reason, now)
	})
}

// UpdateContentMetrics replaces the current metrics snapshot on the content row
func (s *Store) UpdateContentMetrics(ctx context.Context, id string, metrics models.Metrics) (*models.Content, error) {
	return s.mutateContent(ctx, id, func(c *models.Content, now time.Time) error {
		c.UpdateMetrics(metrics, now)
		return nil
	})
}

// AddContentVariant appends an A/B variant to the content item
func (s *Store) AddContentVariant(ctx context.Context, id, text string) (*models.Content, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	content, err := lockContent(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	content.AddVariant(text)

	query := `UPDATE content SET variants = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := tx.QueryRow(ctx, query, content.ID, content.Variants).Scan(&content.UpdatedAt); err != nil {
		return nil, mapError("failed to add variant", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit variant: %w", err)
	}

	return content, nil
}

// AddContentMedia appends a media attachment reference to the content item
func (s *Store) AddContentMedia(ctx context.Context, id, url string) (*models.Content, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	content, err := lockContent(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	content.AddMediaURL(url)

	query := `UPDATE content SET media_urls = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := tx.QueryRow(ctx, query, content.ID, content.MediaURLs).Scan(&content.UpdatedAt); err != nil {
		return nil, mapError("failed to add media", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit media: %w", err)
	}

	return content, nil
}

// mutateContent runs a read-modify-write cycle on one content row under a lock
func (s *Store) mutateContent(ctx context.Context, id string, mutate func(*models.Content, time.Time) error) (*models.Content, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	content, err := lockContent(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := mutate(content, time.Now()); err != nil {
		return nil, err
	}

	if err := saveContentState(ctx, tx, content); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit content update: %w", err)
	}

	return content, nil
}
