package database

import (
	"context"
	"fmt"
	"time"

	"github.com/devcrafted/socialflow/pkg/models"
	"github.com/google/uuid"
)

// Store provides persisted lifecycle operations over the content schema.
// Multi-row invariants (usage counters, status transitions, attempt counts)
// are enforced inside transactions so concurrent callers cannot observe or
// create intermediate states.
type Store struct {
	db *DB
}

// NewStore creates a new store
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Health checks if the backing database is reachable
func (s *Store) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

// Users

const userColumns = `id, email, name, company, tier, status, monthly_generations,
       monthly_engagements, last_activity, preferences, connected_platforms,
       created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }, u *models.User) error {
	return row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Company, &u.Tier, &u.Status,
		&u.MonthlyGenerations, &u.MonthlyEngagements, &u.LastActivity,
		&u.Preferences, &u.ConnectedPlatforms, &u.CreatedAt, &u.UpdatedAt,
	)
}

// CreateUser creates a new user record. Email uniqueness is enforced by the
// database; a duplicate surfaces as ErrDuplicateEmail.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Tier == "" {
		user.Tier = models.TierFree
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}

	if err := user.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, email, name, company, tier, status, preferences, connected_platforms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := s.db.Pool.QueryRow(ctx, query,
		user.ID, user.Email, user.Name, user.Company, user.Tier, user.Status,
		user.Preferences, user.ConnectedPlatforms,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return mapError("failed to create user", err)
	}

	return nil
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := scanUser(s.db.Pool.QueryRow(ctx, query, id), &user)
	if err != nil {
		return nil, mapError("failed to get user", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := scanUser(s.db.Pool.QueryRow(ctx, query, email), &user)
	if err != nil {
		return nil, mapError("failed to get user by email", err)
	}

	return &user, nil
}

// UpdateUser updates a user's mutable profile fields
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE users
		SET name = $2, company = $3, status = $4, preferences = $5,
		    connected_platforms = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := s.db.Pool.QueryRow(ctx, query,
		user.ID, user.Name, user.Company, user.Status,
		user.Preferences, user.ConnectedPlatforms,
	).Scan(&user.UpdatedAt)

	if err != nil {
		return mapError("failed to update user", err)
	}

	return nil
}

// UpgradeUserTier moves a user to a higher tier. The tier ordering rules live
// on the model; the row is locked so concurrent upgrades serialize.
func (s *Store) UpgradeUserTier(ctx context.Context, id string, newTier models.Tier) (*models.User, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	if err := scanUser(tx.QueryRow(ctx, query, id), &user); err != nil {
		return nil, mapError("failed to get user for upgrade", err)
	}

	if err := user.UpgradeTier(newTier); err != nil {
		return nil, err
	}

	update := `UPDATE users SET tier = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := tx.QueryRow(ctx, update, user.ID, user.Tier).Scan(&user.UpdatedAt); err != nil {
		return nil, mapError("failed to upgrade user tier", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit tier upgrade: %w", err)
	}

	return &user, nil
}

// DeleteUser removes a user. Content, sessions, tasks, snapshots and webhooks
// follow through the cascade constraints.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	tag, err := s.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return mapError("failed to delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete user: %w", models.ErrNotFound)
	}

	return nil
}

// ResetMonthlyUsage zeroes every user's monthly counters. Meant to run at the
// start of a billing period.
func (s *Store) ResetMonthlyUsage(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET monthly_generations = 0, monthly_engagements = 0, updated_at = NOW()
		WHERE monthly_generations > 0 OR monthly_engagements > 0
	`

	tag, err := s.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reset monthly usage: %w", err)
	}

	return tag.RowsAffected(), nil
}

// TouchLastActivity stamps the user's last activity time
func (s *Store) TouchLastActivity(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_activity = $2, updated_at = NOW() WHERE id = $1`

	tag, err := s.db.Pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch last activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to touch last activity: %w", models.ErrNotFound)
	}

	return nil
}
