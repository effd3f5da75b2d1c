package database

import (
	"context"
	"fmt"
	"time"

	"github.com/devcrafted/socialflow/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const taskColumns = `id, content_id, task_type, status, scheduled_time, attempts,
       max_attempts, error_msg, created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }, t *models.ScheduledTask) error {
	return row.Scan(
		&t.ID, &t.ContentID, &t.TaskType, &t.Status, &t.ScheduledTime,
		&t.Attempts, &t.MaxAttempts, &t.ErrorMsg, &t.CreatedAt, &t.UpdatedAt,
	)
}

func insertTask(ctx context.Context, tx pgx.Tx, task *models.ScheduledTask) error {
	query := `
		INSERT INTO scheduled_tasks (id, content_id, task_type, status, scheduled_time, attempts, max_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		task.ID, task.ContentID, task.TaskType, task.Status,
		task.ScheduledTime, task.Attempts, task.MaxAttempts,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return mapError("failed to enqueue task", err)
	}

	return nil
}

// EnqueueTask creates a pending scheduled task for a content item
func (s *Store) EnqueueTask(ctx context.Context, task *models.ScheduledTask) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.MaxAttempts == 0 {
		task.MaxAttempts = models.DefaultMaxAttempts
	}
	if task.ScheduledTime.IsZero() {
		task.ScheduledTime = time.Now()
	}

	if err := task.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertTask(ctx, tx, task); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit task: %w", err)
	}

	return nil
}

// GetTask retrieves a scheduled task by ID
func (s *Store) GetTask(ctx context.Context, id string) (*models.ScheduledTask, error) {
	var task models.ScheduledTask

	query := `SELECT ` + taskColumns + ` FROM scheduled_tasks WHERE id = $1`

	if err := scanTask(s.db.Pool.QueryRow(ctx, query, id), &task); err != nil {
		return nil, mapError("failed to get task", err)
	}

	return &task, nil
}

// DueTasks retrieves pending tasks whose scheduled time has arrived, oldest
// first
func (s *Store) DueTasks(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM scheduled_tasks
		WHERE status = $1 AND scheduled_time <= $2
		ORDER BY scheduled_time ASC
		LIMIT $3
	`

	rows, err := s.db.Pool.Query(ctx, query, models.TaskStatusPending, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.ScheduledTask
	for rows.Next() {
		var task models.ScheduledTask
		if err := scanTask(rows, &task); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}

	return tasks, nil
}

// MarkTaskRunning claims a pending task for execution. SKIP LOCKED makes the
// claim race-free across dispatcher replicas: a task already claimed by
// another transaction is treated as not found.
func (s *Store) MarkTaskRunning(ctx context.Context, id string) (*models.ScheduledTask, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var task models.ScheduledTask
	query := `SELECT ` + taskColumns + ` FROM scheduled_tasks WHERE id = $1 FOR UPDATE SKIP LOCKED`
	if err := scanTask(tx.QueryRow(ctx, query, id), &task); err != nil {
		return nil, mapError("failed to claim task", err)
	}

	if err := task.Start(time.Now()); err != nil {
		return nil, err
	}

	update := `UPDATE scheduled_tasks SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := tx.QueryRow(ctx, update, task.ID, task.Status).Scan(&task.UpdatedAt); err != nil {
		return nil, mapError("failed to mark task running", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit task claim: %w", err)
	}

	return &task, nil
}

// MarkTaskAttempt records one execution outcome. The retry policy lives on
// the model: failures requeue the task until max_attempts, then it terminally
// fails. A successful engage attempt also charges one engagement against the
// content owner's monthly quota, in the same transaction.
func (s *Store) MarkTaskAttempt(ctx context.Context, id string, success bool, errMsg string) (*models.ScheduledTask, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var task models.ScheduledTask
	query := `SELECT ` + taskColumns + ` FROM scheduled_tasks WHERE id = $1 FOR UPDATE`
	if err := scanTask(tx.QueryRow(ctx, query, id), &task); err != nil {
		return nil, mapError("failed to get task for attempt", err)
	}

	if err := task.RecordAttempt(success, errMsg, time.Now()); err != nil {
		return nil, err
	}

	update := `
		UPDATE scheduled_tasks
		SET status = $2, attempts = $3, error_msg = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := tx.QueryRow(ctx, update, task.ID, task.Status, task.Attempts, task.ErrorMsg).Scan(&task.UpdatedAt); err != nil {
		return nil, mapError("failed to record task attempt", err)
	}

	if success && task.TaskType == models.TaskTypeEngage {
		charge := `
			UPDATE users
			SET monthly_engagements = monthly_engagements + 1, updated_at = NOW()
			WHERE id = (SELECT user_id FROM content WHERE id = $1)
		`
		if _, err := tx.Exec(ctx, charge, task.ContentID); err != nil {
			return nil, fmt.Errorf("failed to charge engagement quota: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit task attempt: %w", err)
	}

	return &task, nil
}

// ListTasksByContent retrieves every task for a content item, newest first
func (s *Store) ListTasksByContent(ctx context.Context, contentID string) ([]*models.ScheduledTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM scheduled_tasks
		WHERE content_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.Pool.Query(ctx, query, contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.ScheduledTask
	for rows.Next() {
		var task models.ScheduledTask
		if err := scanTask(rows, &task); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}

	return tasks, nil
}
