package database

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/devcrafted/socialflow/pkg/models"
	"github.com/google/uuid"
)

// newSessionToken returns a fresh plaintext token and its SHA-256 hash. Only
// the hash is ever persisted.
func newSessionToken() (token, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate session token: %w", err)
	}

	token = hex.EncodeToString(raw)
	sum := sha256.Sum256([]byte(token))
	return token, hex.EncodeToString(sum[:]), nil
}

// hashToken derives the persisted hash for a presented plaintext token
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreateSession opens a new auth session for the user and returns the session
// row together with the plaintext token. The token is not recoverable later.
func (s *Store) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*models.UserSession, string, error) {
	token, tokenHash, err := newSessionToken()
	if err != nil {
		return nil, "", err
	}

	session := &models.UserSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(ttl),
	}

	query := `
		INSERT INTO user_sessions (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err = s.db.Pool.QueryRow(ctx, query,
		session.ID, session.UserID, session.TokenHash, session.ExpiresAt,
	).Scan(&session.CreatedAt)

	if err != nil {
		return nil, "", mapError("failed to create session", err)
	}

	return session, token, nil
}

// GetSessionByToken resolves a plaintext token to its live session. Expired
// sessions are indistinguishable from missing ones.
func (s *Store) GetSessionByToken(ctx context.Context, token string) (*models.UserSession, error) {
	var session models.UserSession

	query := `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM user_sessions
		WHERE token_hash = $1
	`

	err := s.db.Pool.QueryRow(ctx, query, hashToken(token)).Scan(
		&session.ID, &session.UserID, &session.TokenHash,
		&session.ExpiresAt, &session.CreatedAt,
	)
	if err != nil {
		return nil, mapError("failed to get session", err)
	}

	if session.Expired(time.Now()) {
		return nil, fmt.Errorf("session expired: %w", models.ErrNotFound)
	}

	return &session, nil
}

// DeleteSession revokes a session by its plaintext token
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	query := `DELETE FROM user_sessions WHERE token_hash = $1`

	tag, err := s.db.Pool.Exec(ctx, query, hashToken(token))
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete session: %w", models.ErrNotFound)
	}

	return nil
}

// DeleteExpiredSessions removes every session past its expiry and returns the
// number deleted
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	query := `DELETE FROM user_sessions WHERE expires_at <= NOW()`

	tag, err := s.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}
