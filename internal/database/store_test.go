package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcrafted/socialflow/internal/config"
	"github.com/devcrafted/socialflow/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("op", nil))

	err := mapError("get user", pgx.ErrNoRows)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = mapError("create user", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: usersEmailConstraint})
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	// Unique violations on other constraints are not duplicate emails
	err = mapError("create session", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "user_sessions_token_hash_key"})
	assert.NotErrorIs(t, err, models.ErrDuplicateEmail)
	assert.Equal(t, "INTERNAL_ERROR", models.ErrorCode(err))

	err = mapError("create content", &pgconn.PgError{Code: pgForeignKeyViolation})
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Unrecognized errors pass through wrapped
	plain := errors.New("connection reset")
	err = mapError("query", plain)
	assert.ErrorIs(t, err, plain)
	assert.Equal(t, "INTERNAL_ERROR", models.ErrorCode(err))
}

func TestSessionTokenHashing(t *testing.T) {
	token, hash, err := newSessionToken()
	require.NoError(t, err)

	assert.Len(t, token, 64)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, token, hash)
	assert.Equal(t, hash, hashToken(token), "presented token must resolve to the stored hash")

	token2, hash2, err := newSessionToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
	assert.NotEqual(t, hash, hash2)
}

// Integration tests below require a real Postgres database. They document the
// store contract end to end and run when a test database is wired up.

func TestStore_ContentLifecycle(t *testing.T) {
	t.Skip("Skipping integration test - requires database connection")

	ctx := context.Background()

	db, err := New(testDatabaseConfig())
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	user := &models.User{Email: "lifecycle@example.com", Tier: models.TierPro}
	require.NoError(t, store.CreateUser(ctx, user))

	content := &models.Content{
		UserID:   user.ID,
		Platform: models.PlatformTwitter,
		Text:     "hello world",
	}
	require.NoError(t, store.CreateContent(ctx, content))
	assert.Equal(t, models.ContentStatusDraft, content.Status)

	// Creating content charges one generation
	owner, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, owner.MonthlyGenerations)

	// Schedule enqueues the publish task atomically
	scheduled, err := store.ScheduleContent(ctx, content.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusScheduled, scheduled.Status)

	tasks, err := store.ListTasksByContent(ctx, content.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskTypePublish, tasks[0].TaskType)

	// Illegal transitions leave the row untouched
	_, err = store.TransitionContent(ctx, content.ID, models.ContentStatusArchived)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	published, err := store.PublishContent(ctx, content.ID, "ext-1", "https://example.com/p/1")
	require.NoError(t, err)
	assert.NotNil(t, published.PublishedAt)
}

func TestStore_QuotaEnforcement(t *testing.T) {
	t.Skip("Skipping integration test - requires database connection")

	ctx := context.Background()

	db, err := New(testDatabaseConfig())
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	user := &models.User{Email: "quota@example.com", Tier: models.TierFree}
	require.NoError(t, store.CreateUser(ctx, user))

	for i := 0; i < 10; i++ {
		content := &models.Content{UserID: user.ID, Platform: models.PlatformLinkedIn, Text: "post"}
		require.NoError(t, store.CreateContent(ctx, content))
	}

	over := &models.Content{UserID: user.ID, Platform: models.PlatformLinkedIn, Text: "one too many"}
	err = store.CreateContent(ctx, over)
	assert.ErrorIs(t, err, models.ErrInsufficientQuota)
}

func TestStore_TaskRetryFlow(t *testing.T) {
	t.Skip("Skipping integration test - requires database connection")

	ctx := context.Background()

	db, err := New(testDatabaseConfig())
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	task := &models.ScheduledTask{ContentID: "existing-content-id", TaskType: models.TaskTypePublish}
	require.NoError(t, store.EnqueueTask(ctx, task))

	due, err := store.DueTasks(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, due)

	claimed, err := store.MarkTaskRunning(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusRunning, claimed.Status)

	// Failure requeues until max attempts, then terminally fails
	failed, err := store.MarkTaskAttempt(ctx, task.ID, false, "platform unavailable")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, failed.Status)
	assert.Equal(t, 1, failed.Attempts)
}

func testDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "socialflow_test",
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}
}
