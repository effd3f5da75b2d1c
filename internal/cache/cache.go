package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devcrafted/socialflow/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// NewCacheWithClient wraps an existing Redis client. Used by tests.
func NewCacheWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Content Cache Operations

// SetContent caches a content item
func (c *Cache) SetContent(ctx context.Context, content *models.Content, ttl time.Duration) error {
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}

	key := fmt.Sprintf("content:%s", content.ID)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetContent retrieves a content item from cache
func (c *Cache) GetContent(ctx context.Context, contentID string) (*models.Content, error) {
	key := fmt.Sprintf("content:%s", contentID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get content from cache: %w", err)
	}

	var content models.Content
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content: %w", err)
	}

	return &content, nil
}

// DeleteContent removes a content item from cache. Called after every
// lifecycle mutation so stale statuses are never served.
func (c *Cache) DeleteContent(ctx context.Context, contentID string) error {
	key := fmt.Sprintf("content:%s", contentID)
	return c.client.Del(ctx, key).Err()
}

// Session Cache Operations

// SetSession caches a resolved session by its token hash
func (c *Cache) SetSession(ctx context.Context, session *models.UserSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := fmt.Sprintf("session:%s", session.TokenHash)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetSession retrieves a session by its token hash
func (c *Cache) GetSession(ctx context.Context, tokenHash string) (*models.UserSession, error) {
	key := fmt.Sprintf("session:%s", tokenHash)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	var session models.UserSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// DeleteSession removes a session from cache on revocation
func (c *Cache) DeleteSession(ctx context.Context, tokenHash string) error {
	key := fmt.Sprintf("session:%s", tokenHash)
	return c.client.Del(ctx, key).Err()
}

// Overview Cache Operations

// SetUserOverview caches a user's reporting row
func (c *Cache) SetUserOverview(ctx context.Context, overview *models.UserContentOverview, ttl time.Duration) error {
	data, err := json.Marshal(overview)
	if err != nil {
		return fmt.Errorf("failed to marshal overview: %w", err)
	}

	key := fmt.Sprintf("overview:%s", overview.UserID)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetUserOverview retrieves a user's reporting row from cache
func (c *Cache) GetUserOverview(ctx context.Context, userID string) (*models.UserContentOverview, error) {
	key := fmt.Sprintf("overview:%s", userID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get overview from cache: %w", err)
	}

	var overview models.UserContentOverview
	if err := json.Unmarshal(data, &overview); err != nil {
		return nil, fmt.Errorf("failed to unmarshal overview: %w", err)
	}

	return &overview, nil
}

// DeleteUserOverview invalidates a user's reporting row
func (c *Cache) DeleteUserOverview(ctx context.Context, userID string) error {
	key := fmt.Sprintf("overview:%s", userID)
	return c.client.Del(ctx, key).Err()
}

// Stats Cache Operations

// IncrementStat increments a statistic counter
func (c *Cache) IncrementStat(ctx context.Context, stat string) error {
	key := fmt.Sprintf("stats:%s", stat)
	return c.client.Incr(ctx, key).Err()
}

// GetStat retrieves a statistic value
func (c *Cache) GetStat(ctx context.Context, stat string) (int64, error) {
	key := fmt.Sprintf("stats:%s", stat)
	return c.client.Get(ctx, key).Int64()
}

// Rate Limiting Operations

// CheckRateLimit checks if a rate limit has been exceeded
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	rateLimitKey := fmt.Sprintf("ratelimit:%s", key)

	// Increment counter
	count, err := c.client.Incr(ctx, rateLimitKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	// Set expiry on first request
	if count == 1 {
		if err := c.client.Expire(ctx, rateLimitKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set expiry: %w", err)
		}
	}

	// Check if limit exceeded
	return count <= limit, nil
}

// Locking Operations

// AcquireLock attempts to acquire a distributed lock. Used by the dispatcher
// so only one replica runs the monthly usage reset.
func (c *Cache) AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:%s", resource)
	return c.client.SetNX(ctx, key, "locked", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Cache) ReleaseLock(ctx context.Context, resource string) error {
	key := fmt.Sprintf("lock:%s", resource)
	return c.client.Del(ctx, key).Err()
}

// Health check
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
