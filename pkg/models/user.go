package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tier represents a subscription tier
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

var tierRank = map[Tier]int{
	TierFree:       0,
	TierPro:        1,
	TierEnterprise: 2,
}

// Valid reports whether the tier is one of the known values.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// UserStatus represents an account status
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// Preferences holds free-form user settings stored as JSONB
type Preferences map[string]interface{}

// Value implements driver.Valuer for database storage
func (p Preferences) Value() (driver.Value, error) {
	if p == nil {
		return json.Marshal(Preferences{})
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for database retrieval
func (p *Preferences) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// PlatformList holds connected platform names stored as JSONB
type PlatformList []string

// Value implements driver.Valuer for database storage
func (l PlatformList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(l))
}

// Scan implements sql.Scanner for database retrieval
func (l *PlatformList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, (*[]string)(l))
}

// User represents an account that owns generated content
type User struct {
	ID                 string       `json:"id" db:"id"`
	Email              string       `json:"email" db:"email"`
	Name               *string      `json:"name,omitempty" db:"name"`
	Company            *string      `json:"company,omitempty" db:"company"`
	Tier               Tier         `json:"tier" db:"tier"`
	Status             UserStatus   `json:"status" db:"status"`
	MonthlyGenerations int          `json:"monthly_generations" db:"monthly_generations"`
	MonthlyEngagements int          `json:"monthly_engagements" db:"monthly_engagements"`
	LastActivity       *time.Time   `json:"last_activity,omitempty" db:"last_activity"`
	Preferences        Preferences  `json:"preferences" db:"preferences"`
	ConnectedPlatforms PlatformList `json:"connected_platforms" db:"connected_platforms"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" db:"updated_at"`
}

// Per-tier monthly limits. A negative limit means unlimited.
const unlimited = -1

var generationLimits = map[Tier]int{
	TierFree:       10,
	TierPro:        unlimited,
	TierEnterprise: unlimited,
}

var engagementLimits = map[Tier]int{
	TierFree:       0,
	TierPro:        50,
	TierEnterprise: unlimited,
}

// Validate checks the user's business rules
func (u *User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if !u.Tier.Valid() {
		return fmt.Errorf("%w: unknown tier %q", ErrValidation, u.Tier)
	}
	return nil
}

// CanGenerateContent reports whether the user may generate another content item
func (u *User) CanGenerateContent() bool {
	if u.Status != UserStatusActive {
		return false
	}

	limit := generationLimits[u.Tier]
	return limit == unlimited || u.MonthlyGenerations < limit
}

// CanAutoEngage reports whether the user may run another auto-engagement
func (u *User) CanAutoEngage() bool {
	if u.Status != UserStatusActive {
		return false
	}

	limit := engagementLimits[u.Tier]
	return limit == unlimited || u.MonthlyEngagements < limit
}

// UpgradeTier moves the user to a higher tier. Downgrades are rejected.
func (u *User) UpgradeTier(newTier Tier) error {
	if !newTier.Valid() {
		return fmt.Errorf("%w: unknown tier %q", ErrValidation, newTier)
	}
	if tierRank[newTier] <= tierRank[u.Tier] {
		return fmt.Errorf("%w: cannot downgrade from %s to %s", ErrValidation, u.Tier, newTier)
	}

	u.Tier = newTier
	return nil
}

// ConnectPlatform records a connected social platform
func (u *User) ConnectPlatform(platform string) {
	for _, p := range u.ConnectedPlatforms {
		if p == platform {
			return
		}
	}
	u.ConnectedPlatforms = append(u.ConnectedPlatforms, platform)
}

// DisconnectPlatform removes a connected social platform
func (u *User) DisconnectPlatform(platform string) {
	for i, p := range u.ConnectedPlatforms {
		if p == platform {
			u.ConnectedPlatforms = append(u.ConnectedPlatforms[:i], u.ConnectedPlatforms[i+1:]...)
			return
		}
	}
}
