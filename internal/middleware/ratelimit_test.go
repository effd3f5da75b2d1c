package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/devcrafted/socialflow/pkg/models"
)

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 1 request per second with burst of 2
	rl := NewRateLimiter(1, 2)

	makeRequest := func() int {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		c.Request = req

		RateLimit(rl)(c)
		if !c.IsAborted() {
			c.Status(http.StatusOK)
		}
		return w.Code
	}

	assert.Equal(t, http.StatusOK, makeRequest())
	assert.Equal(t, http.StatusOK, makeRequest())
	assert.Equal(t, http.StatusTooManyRequests, makeRequest())
}

func TestRateLimitPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(1, 1)

	makeRequest := func(userID string) int {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/test", nil)
		c.Set(AuthContextKey, userID)

		RateLimit(rl)(c)
		if !c.IsAborted() {
			c.Status(http.StatusOK)
		}
		return w.Code
	}

	assert.Equal(t, http.StatusOK, makeRequest("user-1"))
	assert.Equal(t, http.StatusTooManyRequests, makeRequest("user-1"))

	// A different user has an independent bucket
	assert.Equal(t, http.StatusOK, makeRequest("user-2"))
}

type fakeQuotaValidator struct {
	users map[string]*models.User
}

func (f *fakeQuotaValidator) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return user, nil
}

func TestGenerationQuota(t *testing.T) {
	gin.SetMode(gin.TestMode)

	validator := &fakeQuotaValidator{
		users: map[string]*models.User{
			"under": {ID: "under", Email: "u@x.com", Tier: models.TierFree, Status: models.UserStatusActive, MonthlyGenerations: 3},
			"over":  {ID: "over", Email: "o@x.com", Tier: models.TierFree, Status: models.UserStatusActive, MonthlyGenerations: 10},
		},
	}

	makeRequest := func(userID string) int {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("POST", "/content", nil)
		c.Set(AuthContextKey, userID)

		GenerationQuota(validator)(c)
		if !c.IsAborted() {
			c.Status(http.StatusCreated)
			c.Writer.WriteHeaderNow()
		}
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, makeRequest("under"))
	assert.Equal(t, http.StatusTooManyRequests, makeRequest("over"))
}
