package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/devcrafted/socialflow/internal/logging"
	"github.com/devcrafted/socialflow/pkg/models"
)

// ExecutorStore defines the store operations task execution needs
type ExecutorStore interface {
	GetContent(ctx context.Context, id string) (*models.Content, error)
	PublishContent(ctx context.Context, id, externalID, externalURL string) (*models.Content, error)
	FailContent(ctx context.Context, id, reason string) (*models.Content, error)
	RecordAnalytics(ctx context.Context, snapshot *models.AnalyticsSnapshot) error
	MarkTaskAttempt(ctx context.Context, id string, success bool, errMsg string) (*models.ScheduledTask, error)
}

// PlatformClient talks to the external social platform
type PlatformClient interface {
	Publish(ctx context.Context, content *models.Content) (externalID, externalURL string, err error)
	CollectMetrics(ctx context.Context, content *models.Content) (models.Metrics, error)
	Engage(ctx context.Context, content *models.Content) error
}

// DeadLetterPublisher receives tasks that exhausted their retries
type DeadLetterPublisher interface {
	PublishDeadTask(ctx context.Context, task *models.ScheduledTask) error
}

// Notifier posts lifecycle events to user-registered webhooks
type Notifier interface {
	NotifyContentPublished(ctx context.Context, content *models.Content) error
	NotifyContentFailed(ctx context.Context, content *models.Content) error
}

// Executor runs claimed tasks on the worker side and records each outcome
// through the store, which owns the retry bookkeeping.
type Executor struct {
	store      ExecutorStore
	platform   PlatformClient
	deadLetter DeadLetterPublisher
	notifier   Notifier
	logger     *logging.Logger
}

// NewExecutor creates a new task executor
func NewExecutor(store ExecutorStore, platform PlatformClient, deadLetter DeadLetterPublisher, logger *logging.Logger) *Executor {
	return &Executor{
		store:      store,
		platform:   platform,
		deadLetter: deadLetter,
		logger:     logger,
	}
}

// WithNotifier attaches a webhook notifier for publish and failure events
func (e *Executor) WithNotifier(notifier Notifier) *Executor {
	e.notifier = notifier
	return e
}

// Execute runs one claimed task end to end. The returned error is nil even
// when the task attempt failed; the failure is recorded in the store and the
// broker message is consumed either way.
func (e *Executor) Execute(ctx context.Context, task *models.ScheduledTask) error {
	log := e.logger.WithTaskID(task.ID).WithContentID(task.ContentID)

	execErr := e.run(ctx, task)

	success := execErr == nil
	errMsg := ""
	if execErr != nil {
		errMsg = execErr.Error()
		log.ErrorWithErr("Task execution failed", execErr)
	}

	recorded, err := e.store.MarkTaskAttempt(ctx, task.ID, success, errMsg)
	if err != nil {
		return fmt.Errorf("failed to record task attempt: %w", err)
	}

	log.LogTaskEvent(recorded.ID, "attempt_recorded", string(recorded.Status), map[string]interface{}{
		"task_type": recorded.TaskType,
		"attempts":  recorded.Attempts,
		"success":   success,
	})

	// A publish task that exhausted its retries takes the content down with it
	if recorded.Status == models.TaskStatusFailed {
		if recorded.TaskType == models.TaskTypePublish {
			failed, err := e.store.FailContent(ctx, recorded.ContentID, recorded.ErrorMsg)
			if err != nil {
				log.ErrorWithErr("Failed to mark content failed", err)
			} else if e.notifier != nil {
				if err := e.notifier.NotifyContentFailed(ctx, failed); err != nil {
					log.ErrorWithErr("Failed to notify content failure", err)
				}
			}
		}
		if err := e.deadLetter.PublishDeadTask(ctx, recorded); err != nil {
			log.ErrorWithErr("Failed to dead-letter task", err)
		}
	}

	return nil
}

// run performs the task-type specific work
func (e *Executor) run(ctx context.Context, task *models.ScheduledTask) error {
	content, err := e.store.GetContent(ctx, task.ContentID)
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}

	switch task.TaskType {
	case models.TaskTypePublish:
		externalID, externalURL, err := e.platform.Publish(ctx, content)
		if err != nil {
			return fmt.Errorf("platform publish failed: %w", err)
		}
		published, err := e.store.PublishContent(ctx, content.ID, externalID, externalURL)
		if err != nil {
			return fmt.Errorf("failed to mark content published: %w", err)
		}
		if e.notifier != nil {
			if err := e.notifier.NotifyContentPublished(ctx, published); err != nil {
				e.logger.WithContentID(content.ID).ErrorWithErr("Failed to notify publication", err)
			}
		}
		return nil

	case models.TaskTypeCollectMetrics:
		metrics, err := e.platform.CollectMetrics(ctx, content)
		if err != nil {
			return fmt.Errorf("metrics collection failed: %w", err)
		}
		snapshot := &models.AnalyticsSnapshot{
			ContentID:  content.ID,
			Platform:   content.Platform,
			Metrics:    metrics,
			RecordedAt: time.Now(),
		}
		if err := e.store.RecordAnalytics(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to record analytics: %w", err)
		}
		return nil

	case models.TaskTypeEngage:
		if err := e.platform.Engage(ctx, content); err != nil {
			return fmt.Errorf("platform engagement failed: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown task type %q", task.TaskType)
	}
}
