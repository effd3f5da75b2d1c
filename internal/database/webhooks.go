package database

import (
	"context"
	"fmt"
	"time"

	"github.com/devcrafted/socialflow/pkg/models"
	"github.com/google/uuid"
)

const webhookColumns = `id, user_id, url, secret, events, is_active, created_at, updated_at`

func scanWebhook(row interface{ Scan(...interface{}) error }, w *models.Webhook) error {
	return row.Scan(
		&w.ID, &w.UserID, &w.URL, &w.Secret, &w.Events, &w.IsActive,
		&w.CreatedAt, &w.UpdatedAt,
	)
}

// CreateWebhook registers a notification endpoint for a user
func (s *Store) CreateWebhook(ctx context.Context, webhook *models.Webhook) error {
	if webhook.ID == "" {
		webhook.ID = uuid.New().String()
	}
	if webhook.URL == "" {
		return fmt.Errorf("%w: webhook URL is required", models.ErrValidation)
	}

	query := `
		INSERT INTO webhooks (id, user_id, url, secret, events, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := s.db.Pool.QueryRow(ctx, query,
		webhook.ID, webhook.UserID, webhook.URL, webhook.Secret,
		webhook.Events, webhook.IsActive,
	).Scan(&webhook.CreatedAt, &webhook.UpdatedAt)

	if err != nil {
		return mapError("failed to create webhook", err)
	}

	return nil
}

// ListWebhooksByUser retrieves a user's registered webhooks
func (s *Store) ListWebhooksByUser(ctx context.Context, userID string) ([]*models.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE user_id = $1 ORDER BY created_at`

	rows, err := s.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []*models.Webhook
	for rows.Next() {
		var webhook models.Webhook
		if err := scanWebhook(rows, &webhook); err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, &webhook)
	}

	return webhooks, nil
}

// GetWebhooksForUserEvent retrieves a user's active webhooks subscribed to the
// given event
func (s *Store) GetWebhooksForUserEvent(ctx context.Context, userID, event string) ([]*models.Webhook, error) {
	webhooks, err := s.ListWebhooksByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var matched []*models.Webhook
	for _, webhook := range webhooks {
		if webhook.IsActive && webhook.SubscribedTo(event) {
			matched = append(matched, webhook)
		}
	}

	return matched, nil
}

// GetWebhook retrieves a webhook by ID
func (s *Store) GetWebhook(ctx context.Context, id string) (*models.Webhook, error) {
	var webhook models.Webhook

	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = $1`

	if err := scanWebhook(s.db.Pool.QueryRow(ctx, query, id), &webhook); err != nil {
		return nil, mapError("failed to get webhook", err)
	}

	return &webhook, nil
}

// DeleteWebhook removes a webhook and its delivery history
func (s *Store) DeleteWebhook(ctx context.Context, id string) error {
	query := `DELETE FROM webhooks WHERE id = $1`

	tag, err := s.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete webhook: %w", models.ErrNotFound)
	}

	return nil
}

// CreateWebhookDelivery records a delivery attempt
func (s *Store) CreateWebhookDelivery(ctx context.Context, delivery *models.WebhookDelivery) error {
	if delivery.ID == "" {
		delivery.ID = uuid.New().String()
	}
	if delivery.Status == "" {
		delivery.Status = models.WebhookDeliveryStatusPending
	}

	query := `
		INSERT INTO webhook_deliveries (id, webhook_id, event, payload, status, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := s.db.Pool.QueryRow(ctx, query,
		delivery.ID, delivery.WebhookID, delivery.Event, delivery.Payload,
		delivery.Status, delivery.RetryCount,
	).Scan(&delivery.CreatedAt)

	if err != nil {
		return mapError("failed to create delivery", err)
	}

	return nil
}

// UpdateWebhookDelivery writes back a delivery attempt's outcome
func (s *Store) UpdateWebhookDelivery(ctx context.Context, delivery *models.WebhookDelivery) error {
	query := `
		UPDATE webhook_deliveries
		SET status = $2, status_code = $3, response_body = $4, retry_count = $5,
		    next_retry_at = $6, completed_at = $7
		WHERE id = $1
	`

	tag, err := s.db.Pool.Exec(ctx, query,
		delivery.ID, delivery.Status, delivery.StatusCode, delivery.ResponseBody,
		delivery.RetryCount, delivery.NextRetryAt, delivery.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update delivery: %w", models.ErrNotFound)
	}

	return nil
}

// PendingWebhookDeliveries retrieves deliveries due for retry
func (s *Store) PendingWebhookDeliveries(ctx context.Context, now time.Time, limit int) ([]*models.WebhookDelivery, error) {
	query := `
		SELECT id, webhook_id, event, payload, status, status_code, response_body,
		       retry_count, next_retry_at, completed_at, created_at
		FROM webhook_deliveries
		WHERE status = $1 AND (next_retry_at IS NULL OR next_retry_at <= $2)
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := s.db.Pool.Query(ctx, query, models.WebhookDeliveryStatusPending, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*models.WebhookDelivery
	for rows.Next() {
		var delivery models.WebhookDelivery
		err := rows.Scan(
			&delivery.ID, &delivery.WebhookID, &delivery.Event, &delivery.Payload,
			&delivery.Status, &delivery.StatusCode, &delivery.ResponseBody,
			&delivery.RetryCount, &delivery.NextRetryAt, &delivery.CompletedAt,
			&delivery.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		deliveries = append(deliveries, &delivery)
	}

	return deliveries, nil
}
