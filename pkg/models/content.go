package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Platform represents a target social network
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTikTok    Platform = "tiktok"
	PlatformFacebook  Platform = "facebook"
)

// ContentType represents the kind of post
type ContentType string

const (
	ContentTypePost   ContentType = "post"
	ContentTypeThread ContentType = "thread"
	ContentTypeStory  ContentType = "story"
	ContentTypeReel   ContentType = "reel"
	ContentTypeVideo  ContentType = "video"
)

// ContentStatus represents a content lifecycle state
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusScheduled ContentStatus = "scheduled"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusFailed    ContentStatus = "failed"
	ContentStatusArchived  ContentStatus = "archived"
)

// contentTransitions is the canonical transition graph. Resetting to draft is
// allowed from every non-draft state and clears scheduling/publication marks.
var contentTransitions = map[ContentStatus][]ContentStatus{
	ContentStatusDraft:     {ContentStatusScheduled, ContentStatusPublished},
	ContentStatusScheduled: {ContentStatusPublished, ContentStatusFailed, ContentStatusDraft},
	ContentStatusPublished: {ContentStatusArchived, ContentStatusDraft},
	ContentStatusFailed:    {ContentStatusDraft},
	ContentStatusArchived:  {ContentStatusDraft},
}

// CanTransition reports whether a status change is allowed. It is total and
// deterministic over every (from, to) pair.
func CanTransition(from, to ContentStatus) bool {
	for _, next := range contentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Metrics is a performance snapshot for a content item, stored as JSONB
type Metrics struct {
	Impressions    int     `json:"impressions"`
	Engagements    int     `json:"engagements"`
	Likes          int     `json:"likes"`
	Shares         int     `json:"shares"`
	Comments       int     `json:"comments"`
	Clicks         int     `json:"clicks"`
	Saves          int     `json:"saves"`
	Reach          int     `json:"reach"`
	EngagementRate float64 `json:"engagement_rate"`
	CTR            float64 `json:"ctr"`
}

// CalculateEngagementRate derives the engagement rate percentage
func (m *Metrics) CalculateEngagementRate() float64 {
	if m.Impressions == 0 {
		return 0
	}
	return float64(m.Engagements) / float64(m.Impressions) * 100
}

// CalculateCTR derives the click-through rate percentage
func (m *Metrics) CalculateCTR() float64 {
	if m.Impressions == 0 {
		return 0
	}
	return float64(m.Clicks) / float64(m.Impressions) * 100
}

// Value implements driver.Valuer for database storage
func (m Metrics) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for database retrieval
func (m *Metrics) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// StringList is a JSONB-backed list of strings (media URLs, hashtags, mentions)
type StringList []string

// Value implements driver.Valuer for database storage
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(l))
}

// Scan implements sql.Scanner for database retrieval
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, (*[]string)(l))
}

// GenerationParams holds the parameters used for an AI generation, as JSONB
type GenerationParams map[string]interface{}

// Value implements driver.Valuer for database storage
func (g GenerationParams) Value() (driver.Value, error) {
	if g == nil {
		return json.Marshal(GenerationParams{})
	}
	return json.Marshal(g)
}

// Scan implements sql.Scanner for database retrieval
func (g *GenerationParams) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, g)
}

// maxTweetLength is the platform limit enforced for twitter posts
const maxTweetLength = 280

// Content represents a generated social media post
type Content struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"user_id" db:"user_id"`
	Platform    Platform      `json:"platform" db:"platform"`
	ContentType ContentType   `json:"content_type" db:"content_type"`
	Status      ContentStatus `json:"status" db:"status"`

	Text      string     `json:"text" db:"text"`
	MediaURLs StringList `json:"media_urls" db:"media_urls"`
	Hashtags  StringList `json:"hashtags" db:"hashtags"`
	Mentions  StringList `json:"mentions" db:"mentions"`

	OriginalPrompt   string           `json:"original_prompt,omitempty" db:"original_prompt"`
	AIModel          string           `json:"ai_model,omitempty" db:"ai_model"`
	GenerationParams GenerationParams `json:"generation_params" db:"generation_params"`
	Variants         StringList       `json:"variants" db:"variants"`

	ScheduledFor *time.Time `json:"scheduled_for,omitempty" db:"scheduled_for"`
	PublishedAt  *time.Time `json:"published_at,omitempty" db:"published_at"`

	ExternalID  *string `json:"external_id,omitempty" db:"external_id"`
	ExternalURL *string `json:"external_url,omitempty" db:"external_url"`

	Metrics Metrics `json:"metrics" db:"metrics"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the content's business rules
func (c *Content) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: user ID is required", ErrValidation)
	}
	if c.Text == "" && len(c.MediaURLs) == 0 {
		return fmt.Errorf("%w: content must have text or media", ErrValidation)
	}
	if c.Platform == PlatformTwitter && len([]rune(c.Text)) > maxTweetLength {
		return fmt.Errorf("%w: twitter content exceeds %d characters", ErrValidation, maxTweetLength)
	}
	return nil
}

// TransitionTo applies a status change per the canonical transition graph.
// Moving to scheduled requires ScheduledFor to be set beforehand; moving to
// published stamps PublishedAt; resetting to draft clears both marks.
func (c *Content) TransitionTo(status ContentStatus, now time.Time) error {
	if !CanTransition(c.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, status)
	}

	switch status {
	case ContentStatusScheduled:
		if c.ScheduledFor == nil {
			return fmt.Errorf("%w: scheduled_for must be set before scheduling", ErrInvalidTransition)
		}
	case ContentStatusPublished:
		published := now
		c.PublishedAt = &published
	case ContentStatusDraft:
		c.ScheduledFor = nil
		c.PublishedAt = nil
	}

	c.Status = status
	c.UpdatedAt = now
	return nil
}

// Schedule sets the scheduled time and moves the content to scheduled
func (c *Content) Schedule(at time.Time, now time.Time) error {
	if !at.After(now) {
		return fmt.Errorf("%w: scheduled time must be in the future", ErrValidation)
	}

	c.ScheduledFor = &at
	return c.TransitionTo(ContentStatusScheduled, now)
}

// Publish marks the content as published on the external platform
func (c *Content) Publish(externalID, externalURL string, now time.Time) error {
	if err := c.TransitionTo(ContentStatusPublished, now); err != nil {
		return err
	}

	c.ExternalID = &externalID
	c.ExternalURL = &externalURL
	return nil
}

// FailPublication marks the content as failed and records the error
func (c *Content) FailPublication(errMsg string, now time.Time) error {
	if err := c.TransitionTo(ContentStatusFailed, now); err != nil {
		return err
	}

	if c.GenerationParams == nil {
		c.GenerationParams = GenerationParams{}
	}
	c.GenerationParams["error"] = errMsg
	return nil
}

// UpdateMetrics replaces the metrics snapshot and derives the rates
func (c *Content) UpdateMetrics(m Metrics, now time.Time) {
	m.EngagementRate = m.CalculateEngagementRate()
	m.CTR = m.CalculateCTR()
	c.Metrics = m
	c.UpdatedAt = now
}

// AddMediaURL records a media attachment if not already present
func (c *Content) AddMediaURL(url string) {
	for _, existing := range c.MediaURLs {
		if existing == url {
			return
		}
	}
	c.MediaURLs = append(c.MediaURLs, url)
}

// AddVariant records an A/B testing variant if not already present
func (c *Content) AddVariant(text string) {
	for _, v := range c.Variants {
		if v == text {
			return
		}
	}
	c.Variants = append(c.Variants, text)
}

// HashtagString joins the hashtags into a postable string
func (c *Content) HashtagString() string {
	out := ""
	for i, tag := range c.Hashtags {
		if i > 0 {
			out += " "
		}
		out += "#" + tag
	}
	return out
}

// platformAverageEngagement holds baseline engagement rates per platform
var platformAverageEngagement = map[Platform]float64{
	PlatformTwitter:   1.0,
	PlatformInstagram: 1.5,
	PlatformLinkedIn:  2.0,
	PlatformTikTok:    5.0,
	PlatformFacebook:  0.8,
}

// IsViral reports whether engagement exceeds the platform baseline by the
// given multiplier
func (c *Content) IsViral(thresholdMultiplier float64) bool {
	if c.Metrics.Impressions == 0 {
		return false
	}

	average, ok := platformAverageEngagement[c.Platform]
	if !ok {
		average = 1.0
	}
	return c.Metrics.EngagementRate > average*thresholdMultiplier
}
