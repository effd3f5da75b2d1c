package dispatcher

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcrafted/socialflow/internal/config"
	"github.com/devcrafted/socialflow/internal/logging"
	"github.com/devcrafted/socialflow/pkg/models"
)

type fakeRepo struct {
	due     []*models.ScheduledTask
	claimed []string
	// claim errors by task ID
	claimErr map[string]error
}

func (f *fakeRepo) DueTasks(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledTask, error) {
	if limit < len(f.due) {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeRepo) MarkTaskRunning(ctx context.Context, id string) (*models.ScheduledTask, error) {
	if err, ok := f.claimErr[id]; ok {
		return nil, err
	}
	f.claimed = append(f.claimed, id)
	for _, task := range f.due {
		if task.ID == id {
			claimed := *task
			claimed.Status = models.TaskStatusRunning
			return &claimed, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeRepo) DeleteExpiredSessions(ctx context.Context) (int64, error) { return 0, nil }
func (f *fakeRepo) ResetMonthlyUsage(ctx context.Context) (int64, error)    { return 0, nil }

type fakePublisher struct {
	published []*models.ScheduledTask
	err       error
}

func (f *fakePublisher) PublishTask(ctx context.Context, task *models.ScheduledTask) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, task)
	return nil
}

type fakeLocker struct{}

func (fakeLocker) AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error) {
	return true, nil
}
func (fakeLocker) ReleaseLock(ctx context.Context, resource string) error { return nil }

func testLogger(t *testing.T) *logging.Logger {
	logger, err := logging.NewDefaultLogger()
	require.NoError(t, err)
	return logger
}

func pendingTask(id string) *models.ScheduledTask {
	return &models.ScheduledTask{
		ID:            id,
		ContentID:     "content-1",
		TaskType:      models.TaskTypePublish,
		Status:        models.TaskStatusPending,
		ScheduledTime: time.Now().Add(-time.Minute),
		MaxAttempts:   models.DefaultMaxAttempts,
	}
}

func TestDispatcher_DispatchDue(t *testing.T) {
	repo := &fakeRepo{
		due: []*models.ScheduledTask{pendingTask("task-1"), pendingTask("task-2")},
	}
	publisher := &fakePublisher{}

	d := New(repo, publisher, fakeLocker{}, testLogger(t), config.DispatcherConfig{
		PollInterval: time.Second,
		BatchSize:    10,
	})
	defer d.Stop()

	dispatched := d.DispatchDue(time.Now())

	assert.Equal(t, 2, dispatched)
	assert.Equal(t, []string{"task-1", "task-2"}, repo.claimed)
	require.Len(t, publisher.published, 2)
	assert.Equal(t, models.TaskStatusRunning, publisher.published[0].Status)
}

func TestDispatcher_SkipsTasksClaimedElsewhere(t *testing.T) {
	repo := &fakeRepo{
		due:      []*models.ScheduledTask{pendingTask("task-1"), pendingTask("task-2")},
		claimErr: map[string]error{"task-1": models.ErrNotFound},
	}
	publisher := &fakePublisher{}

	d := New(repo, publisher, fakeLocker{}, testLogger(t), config.DispatcherConfig{
		PollInterval: time.Second,
		BatchSize:    10,
	})
	defer d.Stop()

	dispatched := d.DispatchDue(time.Now())

	assert.Equal(t, 1, dispatched)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, "task-2", publisher.published[0].ID)
}

func TestDispatcher_PublishFailureDoesNotStopBatch(t *testing.T) {
	repo := &fakeRepo{
		due: []*models.ScheduledTask{pendingTask("task-1")},
	}
	publisher := &fakePublisher{err: fmt.Errorf("broker unavailable")}

	d := New(repo, publisher, fakeLocker{}, testLogger(t), config.DispatcherConfig{
		PollInterval: time.Second,
		BatchSize:    10,
	})
	defer d.Stop()

	dispatched := d.DispatchDue(time.Now())

	assert.Equal(t, 0, dispatched)
	assert.Empty(t, publisher.published)
}
