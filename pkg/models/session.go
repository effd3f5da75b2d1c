package models

import "time"

// UserSession represents an auth session. Only the SHA-256 hash of the token
// is persisted; the plaintext token is returned once at creation.
type UserSession struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	TokenHash string    `json:"-" db:"token_hash"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the session is past its expiry
func (s *UserSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
