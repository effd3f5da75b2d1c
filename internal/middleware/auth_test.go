package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/devcrafted/socialflow/pkg/models"
)

func init() {
	SetJWTSecret("test-secret")
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken("test-user-id", "test@example.com", time.Hour)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestJWTAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{
			name:           "Missing authorization header",
			token:          "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid token format",
			token:          "InvalidToken",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Garbage bearer token",
			token:          "Bearer not-a-jwt",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", tt.token)
			}
			c.Request = req

			JWTAuth()(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestJWTAuthWithValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	userID := "test-user-id"
	token, err := GenerateToken(userID, "test@example.com", time.Hour)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c.Request = req

	JWTAuth()(c)

	assert.False(t, c.IsAborted())
	extractedUserID, exists := GetUserID(c)
	assert.True(t, exists)
	assert.Equal(t, userID, extractedUserID)
}

type fakeSessionValidator struct {
	sessions map[string]*models.UserSession
}

func (f *fakeSessionValidator) GetSessionByToken(ctx context.Context, token string) (*models.UserSession, error) {
	session, ok := f.sessions[token]
	if !ok {
		return nil, models.ErrNotFound
	}
	return session, nil
}

func TestSessionAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	validator := &fakeSessionValidator{
		sessions: map[string]*models.UserSession{
			"valid-token": {ID: "session-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}

	t.Run("valid session token", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		c.Request = req

		SessionAuth(validator)(c)

		assert.False(t, c.IsAborted())
		userID, exists := GetUserID(c)
		assert.True(t, exists)
		assert.Equal(t, "user-1", userID)
	})

	t.Run("unknown session token", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer unknown-token")
		c.Request = req

		SessionAuth(validator)(c)

		assert.True(t, c.IsAborted())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalAuthFallsBackToSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	validator := &fakeSessionValidator{
		sessions: map[string]*models.UserSession{
			"session-token": {ID: "session-1", UserID: "user-2", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	c.Request = req

	OptionalAuth(validator)(c)

	assert.False(t, c.IsAborted())
	userID, exists := GetUserID(c)
	assert.True(t, exists)
	assert.Equal(t, "user-2", userID)
}
