package models

import (
	"fmt"
	"time"
)

// TaskType represents a kind of background action
type TaskType string

const (
	TaskTypePublish        TaskType = "publish"
	TaskTypeEngage         TaskType = "engage"
	TaskTypeCollectMetrics TaskType = "collect_metrics"
)

// TaskStatus represents a scheduled task's state
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusRunning TaskStatus = "running"
	TaskStatusDone    TaskStatus = "done"
	TaskStatusFailed  TaskStatus = "failed"
)

// DefaultMaxAttempts bounds retries for a scheduled task
const DefaultMaxAttempts = 3

// ScheduledTask represents one retryable background action against a content item
type ScheduledTask struct {
	ID            string     `json:"id" db:"id"`
	ContentID     string     `json:"content_id" db:"content_id"`
	TaskType      TaskType   `json:"task_type" db:"task_type"`
	Status        TaskStatus `json:"status" db:"status"`
	ScheduledTime time.Time  `json:"scheduled_time" db:"scheduled_time"`
	Attempts      int        `json:"attempts" db:"attempts"`
	MaxAttempts   int        `json:"max_attempts" db:"max_attempts"`
	ErrorMsg      string     `json:"error_msg,omitempty" db:"error_msg"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Validate checks the task's business rules
func (t *ScheduledTask) Validate() error {
	switch t.TaskType {
	case TaskTypePublish, TaskTypeEngage, TaskTypeCollectMetrics:
	default:
		return fmt.Errorf("%w: unknown task type %q", ErrValidation, t.TaskType)
	}
	if t.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max_attempts must be positive", ErrValidation)
	}
	return nil
}

// Terminal reports whether the task can never run again
func (t *ScheduledTask) Terminal() bool {
	return t.Status == TaskStatusDone || t.Status == TaskStatusFailed
}

// Due reports whether the task is ready for dispatch at the given time
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Status == TaskStatusPending && !t.ScheduledTime.After(now)
}

// Start claims a pending task for execution
func (t *ScheduledTask) Start(now time.Time) error {
	if t.Status != TaskStatusPending {
		return fmt.Errorf("%w: task is %s, not pending", ErrInvalidTransition, t.Status)
	}

	t.Status = TaskStatusRunning
	t.UpdatedAt = now
	return nil
}

// RecordAttempt applies one execution outcome. A failed outcome increments
// attempts and requeues the task as pending until max_attempts is reached, at
// which point the task becomes terminally failed. Attempts on a terminal
// failed task are rejected with ErrRetryExhausted.
func (t *ScheduledTask) RecordAttempt(success bool, errMsg string, now time.Time) error {
	switch t.Status {
	case TaskStatusFailed:
		return fmt.Errorf("%w: task %s already failed after %d attempts", ErrRetryExhausted, t.ID, t.Attempts)
	case TaskStatusDone:
		return fmt.Errorf("%w: task %s already completed", ErrInvalidTransition, t.ID)
	}

	if t.Attempts < t.MaxAttempts {
		t.Attempts++
	}
	t.UpdatedAt = now

	if success {
		t.Status = TaskStatusDone
		t.ErrorMsg = ""
		return nil
	}

	t.ErrorMsg = errMsg
	if t.Attempts >= t.MaxAttempts {
		t.Status = TaskStatusFailed
	} else {
		t.Status = TaskStatusPending
	}
	return nil
}
