package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftContent() *Content {
	now := time.Now()
	return &Content{
		ID:        "content-1",
		UserID:    "user-1",
		Platform:  PlatformTwitter,
		Status:    ContentStatusDraft,
		Text:      "hello world",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestContent_DraftScheduledPublished(t *testing.T) {
	c := draftContent()

	t0 := c.UpdatedAt
	t1 := t0.Add(time.Second)
	t2 := t1.Add(time.Second)

	scheduledFor := t1.Add(time.Hour)
	require.NoError(t, c.Schedule(scheduledFor, t1))
	assert.Equal(t, ContentStatusScheduled, c.Status)
	require.NotNil(t, c.ScheduledFor)
	assert.True(t, c.UpdatedAt.After(t0))

	require.NoError(t, c.TransitionTo(ContentStatusPublished, t2))
	assert.Equal(t, ContentStatusPublished, c.Status)
	require.NotNil(t, c.PublishedAt)
	assert.False(t, c.PublishedAt.Before(c.CreatedAt))
	assert.True(t, c.UpdatedAt.After(t1))
}

func TestContent_DirectPublishFromDraft(t *testing.T) {
	c := draftContent()
	now := time.Now()

	require.NoError(t, c.Publish("ext-1", "https://twitter.com/x/status/1", now))
	assert.Equal(t, ContentStatusPublished, c.Status)
	require.NotNil(t, c.ExternalID)
	assert.Equal(t, "ext-1", *c.ExternalID)
	require.NotNil(t, c.PublishedAt)
}

func TestContent_ScheduleRequiresFutureTime(t *testing.T) {
	c := draftContent()
	now := time.Now()

	err := c.Schedule(now.Add(-time.Minute), now)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, ContentStatusDraft, c.Status)
}

func TestContent_ScheduledStatusRequiresScheduledFor(t *testing.T) {
	c := draftContent()

	err := c.TransitionTo(ContentStatusScheduled, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, ContentStatusDraft, c.Status)
}

func TestContent_ResetToDraftClearsMarks(t *testing.T) {
	c := draftContent()
	now := time.Now()

	require.NoError(t, c.Schedule(now.Add(time.Hour), now))
	require.NoError(t, c.TransitionTo(ContentStatusDraft, now.Add(time.Second)))

	assert.Equal(t, ContentStatusDraft, c.Status)
	assert.Nil(t, c.ScheduledFor)
	assert.Nil(t, c.PublishedAt)

	// Reset content can be scheduled again
	require.NoError(t, c.Schedule(now.Add(2*time.Hour), now.Add(2*time.Second)))
	assert.Equal(t, ContentStatusScheduled, c.Status)
}

func TestCanTransition_TotalAndDeterministic(t *testing.T) {
	statuses := []ContentStatus{
		ContentStatusDraft,
		ContentStatusScheduled,
		ContentStatusPublished,
		ContentStatusFailed,
		ContentStatusArchived,
	}

	allowed := map[[2]ContentStatus]bool{
		{ContentStatusDraft, ContentStatusScheduled}:     true,
		{ContentStatusDraft, ContentStatusPublished}:     true,
		{ContentStatusScheduled, ContentStatusPublished}: true,
		{ContentStatusScheduled, ContentStatusFailed}:    true,
		{ContentStatusScheduled, ContentStatusDraft}:     true,
		{ContentStatusPublished, ContentStatusArchived}:  true,
		{ContentStatusPublished, ContentStatusDraft}:     true,
		{ContentStatusFailed, ContentStatusDraft}:        true,
		{ContentStatusArchived, ContentStatusDraft}:      true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			got := CanTransition(from, to)
			want := allowed[[2]ContentStatus{from, to}]
			assert.Equal(t, want, got, "transition %s -> %s", from, to)

			// Deterministic on repeated evaluation
			assert.Equal(t, got, CanTransition(from, to))
		}
	}
}

func TestContent_InvalidTransitionLeavesStateUntouched(t *testing.T) {
	c := draftContent()
	now := time.Now()
	require.NoError(t, c.Publish("ext", "url", now))

	before := *c
	err := c.TransitionTo(ContentStatusScheduled, now.Add(time.Second))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before.Status, c.Status)
	assert.Equal(t, before.UpdatedAt, c.UpdatedAt)
}

func TestContent_FailPublicationRecordsError(t *testing.T) {
	c := draftContent()
	now := time.Now()
	require.NoError(t, c.Schedule(now.Add(time.Hour), now))

	require.NoError(t, c.FailPublication("platform rejected the post", now.Add(time.Second)))
	assert.Equal(t, ContentStatusFailed, c.Status)
	assert.Equal(t, "platform rejected the post", c.GenerationParams["error"])
}

func TestContent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Content)
		wantErr bool
	}{
		{"valid", func(c *Content) {}, false},
		{"missing user", func(c *Content) { c.UserID = "" }, true},
		{"no text or media", func(c *Content) { c.Text = "" }, true},
		{"media only is fine", func(c *Content) {
			c.Text = ""
			c.MediaURLs = StringList{"https://cdn.example.com/a.png"}
		}, false},
		{"tweet too long", func(c *Content) {
			text := make([]rune, maxTweetLength+1)
			for i := range text {
				text[i] = 'a'
			}
			c.Text = string(text)
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := draftContent()
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMetrics_Rates(t *testing.T) {
	m := Metrics{Impressions: 1000, Engagements: 50, Clicks: 20}
	assert.InDelta(t, 5.0, m.CalculateEngagementRate(), 0.001)
	assert.InDelta(t, 2.0, m.CalculateCTR(), 0.001)

	empty := Metrics{}
	assert.Equal(t, 0.0, empty.CalculateEngagementRate())
	assert.Equal(t, 0.0, empty.CalculateCTR())
}

func TestContent_UpdateMetricsDerivesRates(t *testing.T) {
	c := draftContent()
	now := time.Now().Add(time.Second)

	c.UpdateMetrics(Metrics{Impressions: 200, Engagements: 10, Clicks: 4}, now)
	assert.InDelta(t, 5.0, c.Metrics.EngagementRate, 0.001)
	assert.InDelta(t, 2.0, c.Metrics.CTR, 0.001)
	assert.Equal(t, now, c.UpdatedAt)
}

func TestContent_IsViral(t *testing.T) {
	c := draftContent()
	c.Metrics = Metrics{Impressions: 10000, EngagementRate: 8.0}

	// Twitter baseline is 1.0, so 8.0 > 1.0 * 5.0
	assert.True(t, c.IsViral(5.0))

	c.Metrics.EngagementRate = 3.0
	assert.False(t, c.IsViral(5.0))
}

func TestContent_AddVariantDeduplicates(t *testing.T) {
	c := draftContent()
	c.AddVariant("variant a")
	c.AddVariant("variant a")
	c.AddVariant("variant b")

	assert.Len(t, c.Variants, 2)
}
