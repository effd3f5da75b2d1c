package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/devcrafted/socialflow/internal/logging"
	"github.com/devcrafted/socialflow/pkg/models"
)

// Service delivers content lifecycle events to user-registered endpoints,
// with HMAC signing and exponential backoff on failure.
type Service struct {
	client *http.Client
	repo   Repository
	logger *logging.Logger
}

// Repository defines the persistence operations for webhook delivery
type Repository interface {
	GetWebhooksForUserEvent(ctx context.Context, userID, event string) ([]*models.Webhook, error)
	GetWebhook(ctx context.Context, id string) (*models.Webhook, error)
	CreateWebhookDelivery(ctx context.Context, delivery *models.WebhookDelivery) error
	UpdateWebhookDelivery(ctx context.Context, delivery *models.WebhookDelivery) error
	PendingWebhookDeliveries(ctx context.Context, now time.Time, limit int) ([]*models.WebhookDelivery, error)
}

// NewService creates a new webhook service
func NewService(repo Repository, logger *logging.Logger) *Service {
	return &Service{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		repo:   repo,
		logger: logger,
	}
}

// Notify posts an event to every active webhook the content owner has
// subscribed to it. Delivery records are persisted before the first attempt
// so retries survive a restart.
func (s *Service) Notify(ctx context.Context, userID, event string, data interface{}) error {
	webhooks, err := s.repo.GetWebhooksForUserEvent(ctx, userID, event)
	if err != nil {
		return fmt.Errorf("failed to get webhooks: %w", err)
	}

	payload := models.WebhookEvent{
		Event:     event,
		Timestamp: time.Now(),
		Data:      data,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	for _, webhook := range webhooks {
		delivery := &models.WebhookDelivery{
			ID:        uuid.New().String(),
			WebhookID: webhook.ID,
			Event:     event,
			Payload:   string(payloadBytes),
			Status:    models.WebhookDeliveryStatusPending,
		}

		if err := s.repo.CreateWebhookDelivery(ctx, delivery); err != nil {
			s.logger.ErrorWithErr("failed to create delivery", err)
			continue
		}

		// Attempt immediate delivery in background
		go s.deliver(context.Background(), webhook, delivery, payloadBytes)
	}

	return nil
}

// NotifyContentScheduled posts a content.scheduled event
func (s *Service) NotifyContentScheduled(ctx context.Context, content *models.Content) error {
	return s.Notify(ctx, content.UserID, models.WebhookEventContentScheduled, content)
}

// NotifyContentPublished posts a content.published event
func (s *Service) NotifyContentPublished(ctx context.Context, content *models.Content) error {
	return s.Notify(ctx, content.UserID, models.WebhookEventContentPublished, content)
}

// NotifyContentFailed posts a content.failed event
func (s *Service) NotifyContentFailed(ctx context.Context, content *models.Content) error {
	return s.Notify(ctx, content.UserID, models.WebhookEventContentFailed, content)
}

// deliver attempts one delivery to the endpoint
func (s *Service) deliver(ctx context.Context, webhook *models.Webhook, delivery *models.WebhookDelivery, payload []byte) {
	req, err := http.NewRequestWithContext(ctx, "POST", webhook.URL, bytes.NewReader(payload))
	if err != nil {
		s.markDeliveryFailed(ctx, delivery, 0, fmt.Sprintf("failed to create request: %v", err))
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "SocialFlow-Webhook/1.0")
	req.Header.Set("X-Webhook-Event", delivery.Event)
	req.Header.Set("X-Webhook-Delivery", delivery.ID)

	// Sign the payload when the endpoint has a shared secret
	if webhook.Secret != "" {
		req.Header.Set("X-Webhook-Signature", s.generateSignature(payload, webhook.Secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.markDeliveryFailed(ctx, delivery, 0, fmt.Sprintf("failed to send request: %v", err))
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		delivery.Status = models.WebhookDeliveryStatusDelivered
		delivery.StatusCode = resp.StatusCode
		delivery.ResponseBody = string(body)
		now := time.Now()
		delivery.CompletedAt = &now

		if err := s.repo.UpdateWebhookDelivery(ctx, delivery); err != nil {
			s.logger.ErrorWithErr("failed to update delivery", err)
		}
		return
	}

	s.markDeliveryFailed(ctx, delivery, resp.StatusCode, string(body))
}

// Retry delays: 1min, 5min, 15min, 1hr, 4hr, 12hr
var retryDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	1 * time.Hour,
	4 * time.Hour,
	12 * time.Hour,
}

// markDeliveryFailed records the failure and schedules the next retry, or
// terminally fails the delivery once the backoff table is exhausted
func (s *Service) markDeliveryFailed(ctx context.Context, delivery *models.WebhookDelivery, statusCode int, responseBody string) {
	delivery.StatusCode = statusCode
	delivery.ResponseBody = responseBody
	delivery.RetryCount++

	if delivery.RetryCount <= len(retryDelays) {
		nextRetry := time.Now().Add(retryDelays[delivery.RetryCount-1])
		delivery.NextRetryAt = &nextRetry
		delivery.Status = models.WebhookDeliveryStatusPending
	} else {
		delivery.Status = models.WebhookDeliveryStatusFailed
		now := time.Now()
		delivery.CompletedAt = &now
	}

	if err := s.repo.UpdateWebhookDelivery(ctx, delivery); err != nil {
		s.logger.ErrorWithErr("failed to update delivery", err)
	}
}

// generateSignature derives the HMAC-SHA256 signature header for a payload
func (s *Service) generateSignature(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// RetryWorker re-attempts pending deliveries until the context is cancelled
func (s *Service) RetryWorker(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.retryPendingDeliveries(ctx)
		}
	}
}

// retryPendingDeliveries re-attempts every delivery whose backoff has elapsed
func (s *Service) retryPendingDeliveries(ctx context.Context) {
	deliveries, err := s.repo.PendingWebhookDeliveries(ctx, time.Now(), 100)
	if err != nil {
		s.logger.ErrorWithErr("failed to get pending deliveries", err)
		return
	}

	for _, delivery := range deliveries {
		webhook, err := s.repo.GetWebhook(ctx, delivery.WebhookID)
		if err != nil {
			s.logger.WithField("delivery_id", delivery.ID).ErrorWithErr("failed to get webhook", err)
			continue
		}

		if !webhook.IsActive {
			continue
		}

		go s.deliver(context.Background(), webhook, delivery, []byte(delivery.Payload))
	}
}
