package platform

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/devcrafted/socialflow/pkg/models"
	"github.com/google/uuid"
)

// Simulator stands in for real social platform APIs. Publishing mints an
// external ID, and metrics collection produces a plausible, monotonically
// growing series per content item.
type Simulator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seen map[string]models.Metrics
}

// NewSimulator creates a simulated platform client
func NewSimulator(seed int64) *Simulator {
	return &Simulator{
		rng:  rand.New(rand.NewSource(seed)),
		seen: make(map[string]models.Metrics),
	}
}

// Publish simulates posting content to the external platform
func (s *Simulator) Publish(ctx context.Context, content *models.Content) (string, string, error) {
	externalID := uuid.New().String()
	externalURL := fmt.Sprintf("https://%s.example.com/posts/%s", content.Platform, externalID)
	return externalID, externalURL, nil
}

// CollectMetrics simulates fetching performance metrics. Counters only ever
// grow between collections for the same content item.
func (s *Simulator) CollectMetrics(ctx context.Context, content *models.Content) (models.Metrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.seen[content.ID]

	m.Impressions += 100 + s.rng.Intn(2000)
	m.Likes += s.rng.Intn(50)
	m.Shares += s.rng.Intn(15)
	m.Comments += s.rng.Intn(10)
	m.Clicks += s.rng.Intn(40)
	m.Saves += s.rng.Intn(8)
	m.Engagements = m.Likes + m.Shares + m.Comments + m.Saves
	m.Reach = m.Impressions * (70 + s.rng.Intn(30)) / 100
	m.EngagementRate = m.CalculateEngagementRate()
	m.CTR = m.CalculateCTR()

	s.seen[content.ID] = m
	return m, nil
}

// Engage simulates one auto-engagement action on behalf of the content owner
func (s *Simulator) Engage(ctx context.Context, content *models.Content) error {
	return nil
}
