package models

import "time"

// Webhook event types emitted over the content lifecycle
const (
	WebhookEventContentScheduled = "content.scheduled"
	WebhookEventContentPublished = "content.published"
	WebhookEventContentFailed    = "content.failed"
)

// WebhookDeliveryStatus represents a delivery attempt's state
type WebhookDeliveryStatus string

const (
	WebhookDeliveryStatusPending   WebhookDeliveryStatus = "pending"
	WebhookDeliveryStatusDelivered WebhookDeliveryStatus = "delivered"
	WebhookDeliveryStatusFailed    WebhookDeliveryStatus = "failed"
)

// Webhook is a user-registered endpoint notified on content lifecycle events
type Webhook struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	URL       string     `json:"url" db:"url"`
	Secret    string     `json:"-" db:"secret"`
	Events    StringList `json:"events" db:"events"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// SubscribedTo reports whether the webhook wants the given event. An empty
// event list means every event.
func (w *Webhook) SubscribedTo(event string) bool {
	if len(w.Events) == 0 {
		return true
	}
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

// WebhookDelivery is one delivery record for a webhook event. Failed
// deliveries are retried with exponential backoff until the retry budget runs
// out.
type WebhookDelivery struct {
	ID           string                `json:"id" db:"id"`
	WebhookID    string                `json:"webhook_id" db:"webhook_id"`
	Event        string                `json:"event" db:"event"`
	Payload      string                `json:"payload" db:"payload"`
	Status       WebhookDeliveryStatus `json:"status" db:"status"`
	StatusCode   int                   `json:"status_code" db:"status_code"`
	ResponseBody string                `json:"response_body,omitempty" db:"response_body"`
	RetryCount   int                   `json:"retry_count" db:"retry_count"`
	NextRetryAt  *time.Time            `json:"next_retry_at,omitempty" db:"next_retry_at"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt    time.Time             `json:"created_at" db:"created_at"`
}

// WebhookEvent is the JSON body posted to webhook endpoints
type WebhookEvent struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}
