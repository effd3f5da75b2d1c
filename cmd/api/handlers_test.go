package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devcrafted/socialflow/internal/cache"
	"github.com/devcrafted/socialflow/internal/logging"
	"github.com/devcrafted/socialflow/internal/middleware"
	"github.com/devcrafted/socialflow/pkg/models"
)

// MockStore is a mock implementation of the Store interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStore) UpgradeUserTier(ctx context.Context, id string, newTier models.Tier) (*models.User, error) {
	args := m.Called(ctx, id, newTier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*models.UserSession, string, error) {
	args := m.Called(ctx, userID, ttl)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.UserSession), args.String(1), args.Error(2)
}

func (m *MockStore) GetSessionByToken(ctx context.Context, token string) (*models.UserSession, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSession), args.Error(1)
}

func (m *MockStore) DeleteSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockStore) CreateContent(ctx context.Context, content *models.Content) error {
	args := m.Called(ctx, content)
	return args.Error(0)
}

func (m *MockStore) GetContent(ctx context.Context, id string) (*models.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *MockStore) ListContentByUser(ctx context.Context, userID string, status models.ContentStatus, limit, offset int) ([]*models.Content, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Content), args.Error(1)
}

func (m *MockStore) ScheduleContent(ctx context.Context, id string, at time.Time) (*models.Content, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *MockStore) TransitionContent(ctx context.Context, id string, to models.ContentStatus) (*models.Content, error) {
	args := m.Called(ctx, id, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *MockStore) AddContentVariant(ctx context.Context, id, text string) (*models.Content, error) {
	args := m.Called(ctx, id, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *MockStore) AddContentMedia(ctx context.Context, id, url string) (*models.Content, error) {
	args := m.Called(ctx, id, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *MockStore) EnqueueTask(ctx context.Context, task *models.ScheduledTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockStore) GetTask(ctx context.Context, id string) (*models.ScheduledTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledTask), args.Error(1)
}

func (m *MockStore) ListTasksByContent(ctx context.Context, contentID string) ([]*models.ScheduledTask, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduledTask), args.Error(1)
}

func (m *MockStore) RecordAnalytics(ctx context.Context, snapshot *models.AnalyticsSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockStore) ListAnalytics(ctx context.Context, contentID string, limit int) ([]*models.AnalyticsSnapshot, error) {
	args := m.Called(ctx, contentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AnalyticsSnapshot), args.Error(1)
}

func (m *MockStore) LatestAnalytics(ctx context.Context, contentID string) (*models.AnalyticsSnapshot, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalyticsSnapshot), args.Error(1)
}

func (m *MockStore) UserContentOverview(ctx context.Context, userID string) (*models.UserContentOverview, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserContentOverview), args.Error(1)
}

func (m *MockStore) ListUserOverviews(ctx context.Context, limit, offset int) ([]*models.UserContentOverview, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserContentOverview), args.Error(1)
}

func (m *MockStore) CreateWebhook(ctx context.Context, webhook *models.Webhook) error {
	args := m.Called(ctx, webhook)
	return args.Error(0)
}

func (m *MockStore) ListWebhooksByUser(ctx context.Context, userID string) ([]*models.Webhook, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Webhook), args.Error(1)
}

func (m *MockStore) GetWebhook(ctx context.Context, id string) (*models.Webhook, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Webhook), args.Error(1)
}

func (m *MockStore) DeleteWebhook(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) GetWebhooksForUserEvent(ctx context.Context, userID, event string) ([]*models.Webhook, error) {
	args := m.Called(ctx, userID, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Webhook), args.Error(1)
}

func (m *MockStore) CreateWebhookDelivery(ctx context.Context, delivery *models.WebhookDelivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func (m *MockStore) UpdateWebhookDelivery(ctx context.Context, delivery *models.WebhookDelivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func (m *MockStore) PendingWebhookDeliveries(ctx context.Context, now time.Time, limit int) ([]*models.WebhookDelivery, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WebhookDelivery), args.Error(1)
}

// fakeMedia is a no-op media storage for handler tests
type fakeMedia struct {
	uploaded []string
}

func (f *fakeMedia) UploadMedia(ctx context.Context, objectName string, reader io.Reader, size int64) error {
	f.uploaded = append(f.uploaded, objectName)
	return nil
}

func (f *fakeMedia) MediaURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	return "https://media.test/" + objectName, nil
}

func setupTestAPI(t *testing.T) (*API, *MockStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger, err := logging.NewDefaultLogger()
	require.NoError(t, err)

	store := new(MockStore)
	api := NewAPI(store, cache.NewCacheWithClient(client), &fakeMedia{}, logger, time.Hour)

	return api, store
}

// setupTestRouter registers the handler routes behind a stub auth middleware
func setupTestRouter(api *API, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	auth := func(c *gin.Context) {
		c.Set(middleware.AuthContextKey, userID)
		c.Next()
	}

	router.GET("/health", api.healthCheck)
	router.POST("/users", api.createUser)
	router.POST("/auth/login", api.login)

	router.GET("/users/me", auth, api.getCurrentUser)
	router.DELETE("/users/me", auth, api.deleteCurrentUser)
	router.POST("/users/me/tier", auth, api.upgradeTier)
	router.POST("/users/me/platforms", auth, api.connectPlatform)
	router.DELETE("/users/me/platforms/:platform", auth, api.disconnectPlatform)
	router.GET("/users/me/overview", auth, api.getUserOverview)
	router.POST("/content", auth, middleware.GenerationQuota(api.store), api.createContent)
	router.GET("/content/:id", auth, api.getContent)
	router.POST("/content/:id/schedule", auth, api.scheduleContent)
	router.POST("/content/:id/transition", auth, api.transitionContent)
	router.POST("/content/:id/analytics", auth, api.recordAnalytics)
	router.POST("/content/:id/tasks", auth, api.enqueueTask)
	router.GET("/tasks/:id", auth, api.getTask)
	router.POST("/webhooks", auth, api.createWebhook)
	router.DELETE("/webhooks/:id", auth, api.deleteWebhook)

	return router
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthCheck(t *testing.T) {
	api, store := setupTestAPI(t)
	store.On("Health", mock.Anything).Return(nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestCreateUser(t *testing.T) {
	api, store := setupTestAPI(t)

	store.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "new@example.com"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = "user-1"
	}).Return(nil)

	router := setupTestRouter(api, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/users", gin.H{"email": "new@example.com"}))

	assert.Equal(t, http.StatusCreated, w.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "user-1", user.ID)
	store.AssertExpectations(t)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	api, store := setupTestAPI(t)
	store.On("CreateUser", mock.Anything, mock.Anything).Return(models.ErrDuplicateEmail)

	router := setupTestRouter(api, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/users", gin.H{"email": "taken@example.com"}))

	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "DUPLICATE_EMAIL", body["code"])
}

func TestLoginIssuesToken(t *testing.T) {
	api, store := setupTestAPI(t)

	user := &models.User{ID: "user-1", Email: "a@example.com", Tier: models.TierFree}
	session := &models.UserSession{
		ID:        "session-1",
		UserID:    "user-1",
		TokenHash: "abc123",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	store.On("GetUserByEmail", mock.Anything, "a@example.com").Return(user, nil)
	store.On("CreateSession", mock.Anything, "user-1", time.Hour).Return(session, "plaintext-token", nil)

	router := setupTestRouter(api, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/auth/login", gin.H{"email": "a@example.com"}))

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "plaintext-token", body["token"])
	store.AssertExpectations(t)
}

func TestLoginUnknownEmail(t *testing.T) {
	api, store := setupTestAPI(t)
	store.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, models.ErrNotFound)

	router := setupTestRouter(api, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/auth/login", gin.H{"email": "nobody@example.com"}))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateContent(t *testing.T) {
	api, store := setupTestAPI(t)

	user := &models.User{ID: "user-1", Email: "a@example.com", Tier: models.TierFree, Status: models.UserStatusActive}
	store.On("GetUser", mock.Anything, "user-1").Return(user, nil)
	store.On("CreateContent", mock.Anything, mock.MatchedBy(func(c *models.Content) bool {
		return c.UserID == "user-1" && c.Platform == models.PlatformTwitter
	})).Return(nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/content", gin.H{
		"platform": "twitter",
		"text":     "hello world",
	}))

	assert.Equal(t, http.StatusCreated, w.Code)
	store.AssertExpectations(t)
}

func TestCreateContentOverQuota(t *testing.T) {
	api, store := setupTestAPI(t)

	// Free tier capped at 10 generations; the middleware rejects before the
	// store is touched
	user := &models.User{
		ID:                 "user-1",
		Email:              "a@example.com",
		Tier:               models.TierFree,
		Status:             models.UserStatusActive,
		MonthlyGenerations: 10,
	}
	store.On("GetUser", mock.Anything, "user-1").Return(user, nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/content", gin.H{
		"platform": "twitter",
		"text":     "over quota",
	}))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	store.AssertNotCalled(t, "CreateContent", mock.Anything, mock.Anything)
}

func TestGetContentOwnership(t *testing.T) {
	api, store := setupTestAPI(t)

	foreign := &models.Content{ID: "content-1", UserID: "someone-else", Status: models.ContentStatusDraft}
	store.On("GetContent", mock.Anything, "content-1").Return(foreign, nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/content/content-1", nil))

	// Foreign content is indistinguishable from missing content
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetContentCached(t *testing.T) {
	api, store := setupTestAPI(t)

	content := &models.Content{ID: "content-1", UserID: "user-1", Status: models.ContentStatusDraft, Text: "hi"}
	require.NoError(t, api.cache.SetContent(context.Background(), content, time.Minute))

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/content/content-1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertNotCalled(t, "GetContent", mock.Anything, mock.Anything)
}

func TestScheduleContentInvalidTransition(t *testing.T) {
	api, store := setupTestAPI(t)

	content := &models.Content{ID: "content-1", UserID: "user-1", Status: models.ContentStatusPublished}
	store.On("GetContent", mock.Anything, "content-1").Return(content, nil)
	store.On("ScheduleContent", mock.Anything, "content-1", mock.Anything).
		Return(nil, models.ErrInvalidTransition)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/content/content-1/schedule", gin.H{
		"scheduled_for": time.Now().Add(time.Hour).Format(time.RFC3339),
	}))

	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_TRANSITION", body["code"])
}

func TestTransitionContent(t *testing.T) {
	api, store := setupTestAPI(t)

	published := &models.Content{ID: "content-1", UserID: "user-1", Status: models.ContentStatusPublished}
	archived := &models.Content{ID: "content-1", UserID: "user-1", Status: models.ContentStatusArchived}

	store.On("GetContent", mock.Anything, "content-1").Return(published, nil)
	store.On("TransitionContent", mock.Anything, "content-1", models.ContentStatusArchived).Return(archived, nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/content/content-1/transition", gin.H{"status": "archived"}))

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestRecordAnalytics(t *testing.T) {
	api, store := setupTestAPI(t)

	content := &models.Content{ID: "content-1", UserID: "user-1", Platform: models.PlatformTwitter, Status: models.ContentStatusPublished}
	store.On("GetContent", mock.Anything, "content-1").Return(content, nil)
	store.On("RecordAnalytics", mock.Anything, mock.MatchedBy(func(s *models.AnalyticsSnapshot) bool {
		return s.ContentID == "content-1" && s.Platform == models.PlatformTwitter
	})).Return(nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/content/content-1/analytics", gin.H{
		"metrics": gin.H{"impressions": 100, "engagements": 5},
	}))

	assert.Equal(t, http.StatusCreated, w.Code)
	store.AssertExpectations(t)
}

func TestEnqueueEngageTaskOverQuota(t *testing.T) {
	api, store := setupTestAPI(t)

	content := &models.Content{ID: "content-1", UserID: "user-1", Status: models.ContentStatusPublished}
	// Free tier has no engagement allowance at all
	user := &models.User{ID: "user-1", Email: "a@example.com", Tier: models.TierFree, Status: models.UserStatusActive}

	store.On("GetContent", mock.Anything, "content-1").Return(content, nil)
	store.On("GetUser", mock.Anything, "user-1").Return(user, nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/content/content-1/tasks", gin.H{"task_type": "engage"}))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	store.AssertNotCalled(t, "EnqueueTask", mock.Anything, mock.Anything)
}

func TestEnqueueCollectMetricsTask(t *testing.T) {
	api, store := setupTestAPI(t)

	content := &models.Content{ID: "content-1", UserID: "user-1", Status: models.ContentStatusPublished}
	store.On("GetContent", mock.Anything, "content-1").Return(content, nil)
	store.On("EnqueueTask", mock.Anything, mock.MatchedBy(func(task *models.ScheduledTask) bool {
		return task.ContentID == "content-1" && task.TaskType == models.TaskTypeCollectMetrics
	})).Return(nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/content/content-1/tasks", gin.H{"task_type": "collect_metrics"}))

	assert.Equal(t, http.StatusCreated, w.Code)
	store.AssertExpectations(t)
}

func TestGetTaskNotFound(t *testing.T) {
	api, store := setupTestAPI(t)
	store.On("GetTask", mock.Anything, "missing").Return(nil, models.ErrNotFound)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/tasks/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpgradeTier(t *testing.T) {
	api, store := setupTestAPI(t)

	upgraded := &models.User{ID: "user-1", Email: "a@example.com", Tier: models.TierPro}
	store.On("UpgradeUserTier", mock.Anything, "user-1", models.TierPro).Return(upgraded, nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/users/me/tier", gin.H{"tier": "pro"}))

	assert.Equal(t, http.StatusOK, w.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, models.TierPro, user.Tier)
}

func TestDeleteCurrentUser(t *testing.T) {
	api, store := setupTestAPI(t)
	store.On("DeleteUser", mock.Anything, "user-1").Return(nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/users/me", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestConnectPlatform(t *testing.T) {
	api, store := setupTestAPI(t)

	user := &models.User{ID: "user-1", Email: "a@example.com", Tier: models.TierFree}
	store.On("GetUser", mock.Anything, "user-1").Return(user, nil)
	store.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return len(u.ConnectedPlatforms) == 1 && u.ConnectedPlatforms[0] == "twitter"
	})).Return(nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/users/me/platforms", gin.H{"platform": "twitter"}))

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestCreateWebhook(t *testing.T) {
	api, store := setupTestAPI(t)

	store.On("CreateWebhook", mock.Anything, mock.MatchedBy(func(w *models.Webhook) bool {
		return w.UserID == "user-1" && w.URL == "https://example.com/hook" && w.IsActive
	})).Return(nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/webhooks", gin.H{
		"url":    "https://example.com/hook",
		"events": []string{models.WebhookEventContentPublished},
	}))

	assert.Equal(t, http.StatusCreated, w.Code)
	store.AssertExpectations(t)
}

func TestDeleteForeignWebhook(t *testing.T) {
	api, store := setupTestAPI(t)

	foreign := &models.Webhook{ID: "webhook-1", UserID: "someone-else", URL: "https://example.com/hook"}
	store.On("GetWebhook", mock.Anything, "webhook-1").Return(foreign, nil)

	router := setupTestRouter(api, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/webhooks/webhook-1", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	store.AssertNotCalled(t, "DeleteWebhook", mock.Anything, mock.Anything)
}

func TestGetUserOverviewCachesResult(t *testing.T) {
	api, store := setupTestAPI(t)

	overview := &models.UserContentOverview{UserID: "user-1", Email: "a@example.com", TotalContent: 3}
	store.On("UserContentOverview", mock.Anything, "user-1").Return(overview, nil).Once()

	router := setupTestRouter(api, "user-1")

	// First request hits the store, second is served from cache
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/users/me/overview", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	store.AssertExpectations(t)
}
