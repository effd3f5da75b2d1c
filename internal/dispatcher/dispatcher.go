package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/devcrafted/socialflow/internal/config"
	"github.com/devcrafted/socialflow/internal/logging"
	"github.com/devcrafted/socialflow/pkg/models"
)

// Repository defines the store operations the dispatcher needs
type Repository interface {
	DueTasks(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledTask, error)
	MarkTaskRunning(ctx context.Context, id string) (*models.ScheduledTask, error)
	DeleteExpiredSessions(ctx context.Context) (int64, error)
	ResetMonthlyUsage(ctx context.Context) (int64, error)
}

// TaskPublisher defines the interface for handing tasks to workers
type TaskPublisher interface {
	PublishTask(ctx context.Context, task *models.ScheduledTask) error
}

// Locker serializes maintenance work across dispatcher replicas
type Locker interface {
	AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, resource string) error
}

// Dispatcher polls the store for due scheduled tasks, claims them, and hands
// them to workers over the queue. Claiming happens in the store under a row
// lock, so running several dispatcher replicas is safe.
type Dispatcher struct {
	repo      Repository
	publisher TaskPublisher
	locker    Locker
	logger    *logging.Logger

	pollInterval time.Duration
	batchSize    int

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new dispatcher
func New(repo Repository, publisher TaskPublisher, locker Locker, logger *logging.Logger, cfg config.DispatcherConfig) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		repo:         repo,
		publisher:    publisher,
		locker:       locker,
		logger:       logger,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start begins the polling loops
func (d *Dispatcher) Start() {
	go d.dispatchLoop()
	go d.maintenanceLoop()

	d.logger.Info("Task dispatcher started")
}

// Stop stops the dispatcher
func (d *Dispatcher) Stop() {
	d.cancel()
	d.logger.Info("Task dispatcher stopped")
}

// dispatchLoop is the main polling loop
func (d *Dispatcher) dispatchLoop() {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.DispatchDue(time.Now())
		}
	}
}

// DispatchDue claims and publishes every due task, returning the number
// dispatched
func (d *Dispatcher) DispatchDue(now time.Time) int {
	tasks, err := d.repo.DueTasks(d.ctx, now, d.batchSize)
	if err != nil {
		d.logger.ErrorWithErr("Failed to list due tasks", err)
		return 0
	}

	dispatched := 0
	for _, task := range tasks {
		claimed, err := d.repo.MarkTaskRunning(d.ctx, task.ID)
		if err != nil {
			// Another replica won the claim, or the task moved on
			if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidTransition) {
				continue
			}
			d.logger.WithTaskID(task.ID).ErrorWithErr("Failed to claim task", err)
			continue
		}

		if err := d.publisher.PublishTask(d.ctx, claimed); err != nil {
			d.logger.WithTaskID(task.ID).ErrorWithErr("Failed to publish task", err)
			continue
		}

		d.logger.LogTaskEvent(claimed.ID, "dispatched", string(claimed.Status), map[string]interface{}{
			"task_type": claimed.TaskType,
			"attempts":  claimed.Attempts,
		})
		dispatched++
	}

	return dispatched
}

// Maintenance resources and cadence
const (
	maintenanceInterval = time.Hour
	sessionSweepLock    = "session-sweep"
	monthlyResetLock    = "monthly-reset"
)

// maintenanceLoop runs periodic cleanup: expired session sweeps every hour and
// the usage counter reset at the turn of each month.
func (d *Dispatcher) maintenanceLoop() {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	lastReset := time.Now()

	for {
		select {
		case <-d.ctx.Done():
			return
		case now := <-ticker.C:
			d.sweepSessions()

			if now.Month() != lastReset.Month() || now.Year() != lastReset.Year() {
				if d.resetMonthlyUsage() {
					lastReset = now
				}
			}
		}
	}
}

func (d *Dispatcher) sweepSessions() {
	acquired, err := d.locker.AcquireLock(d.ctx, sessionSweepLock, maintenanceInterval/2)
	if err != nil || !acquired {
		return
	}
	defer d.locker.ReleaseLock(d.ctx, sessionSweepLock)

	deleted, err := d.repo.DeleteExpiredSessions(d.ctx)
	if err != nil {
		d.logger.ErrorWithErr("Failed to sweep expired sessions", err)
		return
	}

	if deleted > 0 {
		d.logger.Infof("Swept %d expired sessions", deleted)
	}
}

func (d *Dispatcher) resetMonthlyUsage() bool {
	acquired, err := d.locker.AcquireLock(d.ctx, monthlyResetLock, 24*time.Hour)
	if err != nil || !acquired {
		return false
	}

	reset, err := d.repo.ResetMonthlyUsage(d.ctx)
	if err != nil {
		d.logger.ErrorWithErr("Failed to reset monthly usage", err)
		d.locker.ReleaseLock(d.ctx, monthlyResetLock)
		return false
	}

	d.logger.Infof("Reset monthly usage for %d users", reset)
	return true
}
