package main

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devcrafted/socialflow/internal/cache"
	"github.com/devcrafted/socialflow/internal/logging"
	"github.com/devcrafted/socialflow/internal/metrics"
	"github.com/devcrafted/socialflow/internal/middleware"
	"github.com/devcrafted/socialflow/internal/reports"
	"github.com/devcrafted/socialflow/internal/storage"
	"github.com/devcrafted/socialflow/internal/webhook"
	"github.com/devcrafted/socialflow/pkg/models"
)

// Store defines the persistence operations the API depends on
type Store interface {
	Health(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpgradeUserTier(ctx context.Context, id string, newTier models.Tier) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateSession(ctx context.Context, userID string, ttl time.Duration) (*models.UserSession, string, error)
	GetSessionByToken(ctx context.Context, token string) (*models.UserSession, error)
	DeleteSession(ctx context.Context, token string) error

	CreateContent(ctx context.Context, content *models.Content) error
	GetContent(ctx context.Context, id string) (*models.Content, error)
	ListContentByUser(ctx context.Context, userID string, status models.ContentStatus, limit, offset int) ([]*models.Content, error)
	ScheduleContent(ctx context.Context, id string, at time.Time) (*models.Content, error)
	TransitionContent(ctx context.Context, id string, to models.ContentStatus) (*models.Content, error)
	AddContentVariant(ctx context.Context, id, text string) (*models.Content, error)
	AddContentMedia(ctx context.Context, id, url string) (*models.Content, error)

	EnqueueTask(ctx context.Context, task *models.ScheduledTask) error
	GetTask(ctx context.Context, id string) (*models.ScheduledTask, error)
	ListTasksByContent(ctx context.Context, contentID string) ([]*models.ScheduledTask, error)

	RecordAnalytics(ctx context.Context, snapshot *models.AnalyticsSnapshot) error
	ListAnalytics(ctx context.Context, contentID string, limit int) ([]*models.AnalyticsSnapshot, error)
	LatestAnalytics(ctx context.Context, contentID string) (*models.AnalyticsSnapshot, error)

	UserContentOverview(ctx context.Context, userID string) (*models.UserContentOverview, error)
	ListUserOverviews(ctx context.Context, limit, offset int) ([]*models.UserContentOverview, error)

	CreateWebhook(ctx context.Context, webhook *models.Webhook) error
	ListWebhooksByUser(ctx context.Context, userID string) ([]*models.Webhook, error)
	GetWebhook(ctx context.Context, id string) (*models.Webhook, error)
	DeleteWebhook(ctx context.Context, id string) error
	GetWebhooksForUserEvent(ctx context.Context, userID, event string) ([]*models.Webhook, error)
	CreateWebhookDelivery(ctx context.Context, delivery *models.WebhookDelivery) error
	UpdateWebhookDelivery(ctx context.Context, delivery *models.WebhookDelivery) error
	PendingWebhookDeliveries(ctx context.Context, now time.Time, limit int) ([]*models.WebhookDelivery, error)
}

// MediaStorage holds media attachments referenced by content rows
type MediaStorage interface {
	UploadMedia(ctx context.Context, objectName string, reader io.Reader, size int64) error
	MediaURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Cache TTLs for read-side caching
const (
	contentCacheTTL  = 5 * time.Minute
	sessionCacheTTL  = 15 * time.Minute
	overviewCacheTTL = time.Minute
	mediaURLExpiry   = time.Hour
)

// API holds the HTTP handler dependencies
type API struct {
	store      Store
	cache      *cache.Cache
	storage    MediaStorage
	reporter   *reports.Service
	notifier   *webhook.Service
	logger     *logging.Logger
	sessionTTL time.Duration
}

// NewAPI creates the API handler set
func NewAPI(store Store, c *cache.Cache, storage MediaStorage, logger *logging.Logger, sessionTTL time.Duration) *API {
	return &API{
		store:      store,
		cache:      c,
		storage:    storage,
		reporter:   reports.NewService(store),
		notifier:   webhook.NewService(store, logger),
		logger:     logger,
		sessionTTL: sessionTTL,
	}
}

// errorStatus maps a store error to its HTTP status
func errorStatus(err error) int {
	switch models.ErrorCode(err) {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "DUPLICATE_EMAIL", "INVALID_TRANSITION", "RETRY_EXHAUSTED":
		return http.StatusConflict
	case "INSUFFICIENT_CREDITS":
		return http.StatusTooManyRequests
	case "VALIDATION_ERROR":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (api *API) respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		api.logger.ErrorWithErr("request failed", err)
		metrics.RecordError("api", "internal")
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  models.ErrorCode(err),
	})
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := api.store.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Users

// Create user endpoint
func (api *API) createUser(c *gin.Context) {
	var req struct {
		Email   string      `json:"email" binding:"required"`
		Name    *string     `json:"name"`
		Company *string     `json:"company"`
		Tier    models.Tier `json:"tier"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		Email:   req.Email,
		Name:    req.Name,
		Company: req.Company,
		Tier:    req.Tier,
	}

	if err := api.store.CreateUser(c.Request.Context(), user); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Get current user endpoint
func (api *API) getCurrentUser(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	user, err := api.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Update current user endpoint
func (api *API) updateCurrentUser(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Name               *string             `json:"name"`
		Company            *string             `json:"company"`
		Preferences        models.Preferences  `json:"preferences"`
		ConnectedPlatforms models.PlatformList `json:"connected_platforms"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := api.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		api.respondError(c, err)
		return
	}

	if req.Name != nil {
		user.Name = req.Name
	}
	if req.Company != nil {
		user.Company = req.Company
	}
	if req.Preferences != nil {
		user.Preferences = req.Preferences
	}
	if req.ConnectedPlatforms != nil {
		user.ConnectedPlatforms = req.ConnectedPlatforms
	}

	if err := api.store.UpdateUser(c.Request.Context(), user); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Upgrade tier endpoint
func (api *API) upgradeTier(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Tier models.Tier `json:"tier" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := api.store.UpgradeUserTier(c.Request.Context(), userID, req.Tier)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Delete current user endpoint
func (api *API) deleteCurrentUser(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := api.store.DeleteUser(c.Request.Context(), userID); err != nil {
		api.respondError(c, err)
		return
	}

	// Sessions are gone from the database through the cascade; drop the cached
	// copy for this request's token so it cannot outlive the row.
	if token, _ := middleware.BearerToken(c); token != "" {
		if err := api.cache.DeleteSession(c.Request.Context(), hashSessionToken(token)); err != nil {
			api.logger.WithError(err).Warn("failed to evict cached session")
		}
	}
	api.invalidateOverview(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

// Connect platform endpoint
func (api *API) connectPlatform(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Platform string `json:"platform" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := api.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		api.respondError(c, err)
		return
	}

	user.ConnectPlatform(req.Platform)
	if err := api.store.UpdateUser(c.Request.Context(), user); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Disconnect platform endpoint
func (api *API) disconnectPlatform(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	user, err := api.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		api.respondError(c, err)
		return
	}

	user.DisconnectPlatform(c.Param("platform"))
	if err := api.store.UpdateUser(c.Request.Context(), user); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Get user overview endpoint
func (api *API) getUserOverview(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	cached, err := api.cache.GetUserOverview(c.Request.Context(), userID)
	if err == nil && cached != nil {
		metrics.RecordCacheAccess("overview", true)
		c.JSON(http.StatusOK, cached)
		return
	}
	metrics.RecordCacheAccess("overview", false)

	overview, err := api.store.UserContentOverview(c.Request.Context(), userID)
	if err != nil {
		api.respondError(c, err)
		return
	}

	if err := api.cache.SetUserOverview(c.Request.Context(), overview, overviewCacheTTL); err != nil {
		api.logger.WithError(err).Warn("failed to cache overview")
	}

	c.JSON(http.StatusOK, overview)
}

// Get user report endpoint
func (api *API) getUserReport(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	topN := queryInt(c, "top", 5)

	report, err := api.reporter.UserReport(c.Request.Context(), userID, topN)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// List user overviews endpoint
func (api *API) listUserOverviews(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	overviews, err := api.store.ListUserOverviews(c.Request.Context(), limit, offset)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"overviews": overviews,
		"limit":     limit,
		"offset":    offset,
	})
}

// Auth

// Login endpoint. Issues an opaque session token; the plaintext is returned
// once and only its hash is persisted.
func (api *API) login(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := api.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		api.respondError(c, err)
		return
	}

	session, token, err := api.store.CreateSession(c.Request.Context(), user.ID, api.sessionTTL)
	if err != nil {
		api.respondError(c, err)
		return
	}

	if err := api.cache.SetSession(c.Request.Context(), session, sessionCacheTTL); err != nil {
		api.logger.WithError(err).Warn("failed to cache session")
	}
	metrics.SessionsCreatedTotal.Inc()

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": session.ExpiresAt,
		"user":       user,
	})
}

// Logout endpoint
func (api *API) logout(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return
	}

	session, err := api.store.GetSessionByToken(c.Request.Context(), token)
	if err != nil {
		api.respondError(c, err)
		return
	}

	if err := api.store.DeleteSession(c.Request.Context(), token); err != nil {
		api.respondError(c, err)
		return
	}

	if err := api.cache.DeleteSession(c.Request.Context(), session.TokenHash); err != nil {
		api.logger.WithError(err).Warn("failed to evict session")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Content

// Create content endpoint. Runs behind the generation quota middleware; the
// store re-checks the quota under a row lock.
func (api *API) createContent(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Platform         models.Platform         `json:"platform" binding:"required"`
		ContentType      models.ContentType      `json:"content_type"`
		Text             string                  `json:"text"`
		MediaURLs        models.StringList       `json:"media_urls"`
		Hashtags         models.StringList       `json:"hashtags"`
		Mentions         models.StringList       `json:"mentions"`
		OriginalPrompt   string                  `json:"original_prompt"`
		AIModel          string                  `json:"ai_model"`
		GenerationParams models.GenerationParams `json:"generation_params"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ContentType == "" {
		req.ContentType = models.ContentTypePost
	}

	content := &models.Content{
		UserID:           userID,
		Platform:         req.Platform,
		ContentType:      req.ContentType,
		Text:             req.Text,
		MediaURLs:        req.MediaURLs,
		Hashtags:         req.Hashtags,
		Mentions:         req.Mentions,
		OriginalPrompt:   req.OriginalPrompt,
		AIModel:          req.AIModel,
		GenerationParams: req.GenerationParams,
	}

	if err := api.store.CreateContent(c.Request.Context(), content); err != nil {
		api.respondError(c, err)
		return
	}

	metrics.RecordContentCreated(string(content.Platform), string(content.ContentType))
	api.invalidateOverview(c.Request.Context(), userID)

	c.JSON(http.StatusCreated, content)
}

// Get content endpoint
func (api *API) getContent(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	contentID := c.Param("id")

	cached, err := api.cache.GetContent(c.Request.Context(), contentID)
	if err == nil && cached != nil {
		metrics.RecordCacheAccess("content", true)
		if cached.UserID != userID {
			api.respondError(c, models.ErrNotFound)
			return
		}
		c.JSON(http.StatusOK, cached)
		return
	}
	metrics.RecordCacheAccess("content", false)

	content, ok := api.ownedContent(c, contentID)
	if !ok {
		return
	}

	if err := api.cache.SetContent(c.Request.Context(), content, contentCacheTTL); err != nil {
		api.logger.WithError(err).Warn("failed to cache content")
	}

	c.JSON(http.StatusOK, content)
}

// List content endpoint
func (api *API) listContent(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	status := models.ContentStatus(c.Query("status"))
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	items, err := api.store.ListContentByUser(c.Request.Context(), userID, status, limit, offset)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content": items,
		"limit":   limit,
		"offset":  offset,
	})
}

// Schedule content endpoint. The publish task is enqueued atomically with the
// status change.
func (api *API) scheduleContent(c *gin.Context) {
	content, ok := api.ownedContent(c, c.Param("id"))
	if !ok {
		return
	}

	var req struct {
		ScheduledFor time.Time `json:"scheduled_for" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scheduled, err := api.store.ScheduleContent(c.Request.Context(), content.ID, req.ScheduledFor)
	if err != nil {
		api.respondError(c, err)
		return
	}

	metrics.RecordContentTransition(string(content.Status), string(scheduled.Status))
	metrics.RecordTaskEnqueued(string(models.TaskTypePublish))
	api.invalidateContent(c.Request.Context(), scheduled)

	if err := api.notifier.NotifyContentScheduled(c.Request.Context(), scheduled); err != nil {
		api.logger.WithError(err).Warn("failed to notify scheduling")
	}

	c.JSON(http.StatusOK, scheduled)
}

// Transition content endpoint
func (api *API) transitionContent(c *gin.Context) {
	content, ok := api.ownedContent(c, c.Param("id"))
	if !ok {
		return
	}

	var req struct {
		Status models.ContentStatus `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := api.store.TransitionContent(c.Request.Context(), content.ID, req.Status)
	if err != nil {
		api.respondError(c, err)
		return
	}

	metrics.RecordContentTransition(string(content.Status), string(updated.Status))
	if updated.Status == models.ContentStatusPublished {
		metrics.RecordContentPublished(string(updated.Platform))
	}
	api.invalidateContent(c.Request.Context(), updated)

	c.JSON(http.StatusOK, updated)
}

// Add variant endpoint
func (api *API) addVariant(c *gin.Context) {
	content, ok := api.ownedContent(c, c.Param("id"))
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := api.store.AddContentVariant(c.Request.Context(), content.ID, req.Text)
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.invalidateContent(c.Request.Context(), updated)

	c.JSON(http.StatusOK, updated)
}

// Upload media endpoint. The object key lands on the content row; the
// response carries a presigned URL for immediate use.
func (api *API) uploadMedia(c *gin.Context) {
	content, ok := api.ownedContent(c, c.Param("id"))
	if !ok {
		return
	}

	file, err := c.FormFile("media")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No media file provided"})
		return
	}

	reader, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open file"})
		return
	}
	defer reader.Close()

	objectName := storage.MediaObjectName(content.UserID, content.ID, file.Filename)

	start := time.Now()
	if err := api.storage.UploadMedia(c.Request.Context(), objectName, reader, file.Size); err != nil {
		metrics.RecordStorageOperation("upload", "error", time.Since(start).Seconds())
		api.respondError(c, err)
		return
	}
	metrics.RecordStorageOperation("upload", "success", time.Since(start).Seconds())

	updated, err := api.store.AddContentMedia(c.Request.Context(), content.ID, objectName)
	if err != nil {
		api.respondError(c, err)
		return
	}

	url, err := api.storage.MediaURL(c.Request.Context(), objectName, mediaURLExpiry)
	if err != nil {
		api.logger.WithError(err).Warn("failed to presign media URL")
	}

	api.invalidateContent(c.Request.Context(), updated)

	c.JSON(http.StatusCreated, gin.H{
		"object":  objectName,
		"url":     url,
		"content": updated,
	})
}

// Analytics

// Record analytics endpoint. Snapshots are append-only.
func (api *API) recordAnalytics(c *gin.Context) {
	content, ok := api.ownedContent(c, c.Param("id"))
	if !ok {
		return
	}

	var req struct {
		Metrics    models.Metrics  `json:"metrics" binding:"required"`
		Platform   models.Platform `json:"platform"`
		RecordedAt time.Time       `json:"recorded_at"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Platform == "" {
		req.Platform = content.Platform
	}

	snapshot := &models.AnalyticsSnapshot{
		ContentID:  content.ID,
		Platform:   req.Platform,
		Metrics:    req.Metrics,
		RecordedAt: req.RecordedAt,
	}

	if err := api.store.RecordAnalytics(c.Request.Context(), snapshot); err != nil {
		api.respondError(c, err)
		return
	}

	metrics.RecordSnapshot(string(snapshot.Platform))
	api.invalidateContent(c.Request.Context(), content)

	c.JSON(http.StatusCreated, snapshot)
}

// List analytics endpoint
func (api *API) listAnalytics(c *gin.Context) {
	content, ok := api.ownedContent(c, c.Param("id"))
	if !ok {
		return
	}

	limit := queryInt(c, "limit", 100)

	snapshots, err := api.store.ListAnalytics(c.Request.Context(), content.ID, limit)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

// Latest analytics endpoint
func (api *API) latestAnalytics(c *gin.Context) {
	content, ok := api.ownedContent(c, c.Param("id"))
	if !ok {
		return
	}

	snapshot, err := api.store.LatestAnalytics(c.Request.Context(), content.ID)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// Content performance endpoint
func (api *API) contentPerformance(c *gin.Context) {
	content, ok := api.ownedContent(c, c.Param("id"))
	if !ok {
		return
	}

	perf, err := api.reporter.ContentPerformance(c.Request.Context(), content.ID)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, perf)
}

// Tasks

// Enqueue task endpoint. Engage tasks are gated by the owner's monthly
// engagement quota.
func (api *API) enqueueTask(c *gin.Context) {
	content, ok := api.ownedContent(c, c.Param("id"))
	if !ok {
		return
	}

	var req struct {
		TaskType      models.TaskType `json:"task_type" binding:"required"`
		ScheduledTime time.Time       `json:"scheduled_time"`
		MaxAttempts   int             `json:"max_attempts"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.TaskType {
	case models.TaskTypePublish, models.TaskTypeEngage, models.TaskTypeCollectMetrics:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown task type"})
		return
	}

	if req.TaskType == models.TaskTypeEngage {
		user, err := api.store.GetUser(c.Request.Context(), content.UserID)
		if err != nil {
			api.respondError(c, err)
			return
		}
		if !user.CanAutoEngage() {
			metrics.RecordQuotaRejection(string(user.Tier), "engagements")
			api.respondError(c, models.ErrInsufficientQuota)
			return
		}
	}

	task := &models.ScheduledTask{
		ContentID:     content.ID,
		TaskType:      req.TaskType,
		ScheduledTime: req.ScheduledTime,
		MaxAttempts:   req.MaxAttempts,
	}

	if err := api.store.EnqueueTask(c.Request.Context(), task); err != nil {
		api.respondError(c, err)
		return
	}

	metrics.RecordTaskEnqueued(string(task.TaskType))

	c.JSON(http.StatusCreated, task)
}

// List content tasks endpoint
func (api *API) listContentTasks(c *gin.Context) {
	content, ok := api.ownedContent(c, c.Param("id"))
	if !ok {
		return
	}

	tasks, err := api.store.ListTasksByContent(c.Request.Context(), content.ID)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// Get task endpoint
func (api *API) getTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	task, err := api.store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.respondError(c, err)
		return
	}

	content, err := api.store.GetContent(c.Request.Context(), task.ContentID)
	if err != nil {
		api.respondError(c, err)
		return
	}
	if content.UserID != userID {
		api.respondError(c, models.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Webhooks

// Create webhook endpoint
func (api *API) createWebhook(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		URL    string            `json:"url" binding:"required"`
		Secret string            `json:"secret"`
		Events models.StringList `json:"events"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hook := &models.Webhook{
		UserID:   userID,
		URL:      req.URL,
		Secret:   req.Secret,
		Events:   req.Events,
		IsActive: true,
	}

	if err := api.store.CreateWebhook(c.Request.Context(), hook); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, hook)
}

// List webhooks endpoint
func (api *API) listWebhooks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	hooks, err := api.store.ListWebhooksByUser(c.Request.Context(), userID)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"webhooks": hooks})
}

// Delete webhook endpoint
func (api *API) deleteWebhook(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	hook, err := api.store.GetWebhook(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	if hook.UserID != userID {
		api.respondError(c, models.ErrNotFound)
		return
	}

	if err := api.store.DeleteWebhook(c.Request.Context(), hook.ID); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Webhook deleted"})
}

// Helpers

// ownedContent fetches a content item and enforces ownership. Foreign content
// is indistinguishable from missing content.
func (api *API) ownedContent(c *gin.Context, id string) (*models.Content, bool) {
	userID, _ := middleware.GetUserID(c)

	content, err := api.store.GetContent(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err)
		return nil, false
	}
	if content.UserID != userID {
		api.respondError(c, models.ErrNotFound)
		return nil, false
	}

	return content, true
}

// invalidateContent evicts cached copies touched by a lifecycle mutation
func (api *API) invalidateContent(ctx context.Context, content *models.Content) {
	if err := api.cache.DeleteContent(ctx, content.ID); err != nil {
		api.logger.WithError(err).Warn("failed to evict content")
	}
	api.invalidateOverview(ctx, content.UserID)
}

func (api *API) invalidateOverview(ctx context.Context, userID string) {
	if err := api.cache.DeleteUserOverview(ctx, userID); err != nil {
		api.logger.WithError(err).Warn("failed to evict overview")
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
