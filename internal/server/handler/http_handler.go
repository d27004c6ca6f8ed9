package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tailtalk/roomsync/internal/domain"
	"github.com/tailtalk/roomsync/internal/server/auth"
	"github.com/tailtalk/roomsync/internal/server/blob"
	"github.com/tailtalk/roomsync/internal/server/store"
	"github.com/tailtalk/roomsync/pkg/log"
	"github.com/tailtalk/roomsync/pkg/response"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// HTTPHandler serves the snapshot REST collaborators: room history, per-post
// reaction aggregates, attachment upload, and dev token minting.
type HTTPHandler struct {
	store  store.Store
	blobs  blob.Store
	tokens *auth.Manager
}

func NewHTTPHandler(st store.Store, blobs blob.Store, tokens *auth.Manager) *HTTPHandler {
	return &HTTPHandler{
		store:  st,
		blobs:  blobs,
		tokens: tokens,
	}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/rooms/:room_id/posts", h.GetHistory)
		api.GET("/posts/:post_id/reactions", h.GetReactions)
		api.POST("/uploads", h.requireAuth(), h.Upload)
		api.POST("/dev/token", h.MintToken)
	}

	r.GET("/health", h.HealthCheck)

	if local, ok := h.blobs.(*blob.Local); ok {
		r.Static("/uploads", local.BasePath())
	}
}

// requireAuth validates the bearer token and stores the actor on the
// context, the same identity the channel uses.
func (h *HTTPHandler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.FromHeader(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		user, err := h.tokens.Verify(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set(log.FieldUserID, user.ID)
		c.Set("user", user)
		c.Next()
	}
}

func (h *HTTPHandler) GetHistory(c *gin.Context) {
	roomID := c.Param("room_id")
	kind := c.DefaultQuery("kind", domain.KindChat.Name)

	if _, err := domain.KindByName(kind); err != nil {
		response.Error(c, http.StatusBadRequest, domain.ErrCodeBadRequest, "unknown post kind")
		return
	}

	limit := defaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			response.Error(c, http.StatusBadRequest, domain.ErrCodeBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
		if limit > maxLimit {
			limit = maxLimit
		}
	}

	posts, err := h.store.History(c.Request.Context(), roomID, kind, limit)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("history query failed")
		response.Error(c, http.StatusInternalServerError, domain.ErrCodeInternalError, "failed to get history")
		return
	}

	response.Success(c, gin.H{"posts": posts})
}

func (h *HTTPHandler) GetReactions(c *gin.Context) {
	postID := c.Param("post_id")

	set, err := h.store.ReactionsForPost(c.Request.Context(), postID)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("reactions query failed")
		response.Error(c, http.StatusInternalServerError, domain.ErrCodeInternalError, "failed to get reactions")
		return
	}

	response.Success(c, gin.H{"reactions": set})
}

// Upload accepts one multipart file and returns its attachment descriptor.
func (h *HTTPHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, domain.ErrCodeBadRequest, "missing file field")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, domain.ErrCodeBadRequest, "unreadable file")
		return
	}
	defer f.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(fileHeader.Filename))
	ctx := c.Request.Context()

	if err := h.blobs.Write(ctx, key, f, fileHeader.Size, contentType); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("blob write failed")
		response.Error(c, http.StatusInternalServerError, domain.ErrCodeInternalError, "failed to store file")
		return
	}

	url, err := h.blobs.URL(ctx, key)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("blob url failed")
		response.Error(c, http.StatusInternalServerError, domain.ErrCodeInternalError, "failed to resolve url")
		return
	}

	response.Created(c, domain.Attachment{
		URL:       url,
		Name:      fileHeader.Filename,
		MimeType:  contentType,
		SizeBytes: fileHeader.Size,
	})
}

// MintToken issues a dev bearer token for the given identity. Development
// convenience only; production credentials come from the auth subsystem.
func (h *HTTPHandler) MintToken(c *gin.Context) {
	var req struct {
		UserID      string `json:"user_id" binding:"required"`
		DisplayName string `json:"display_name" binding:"required"`
		AvatarURL   string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, domain.ErrCodeBadRequest, "user_id and display_name are required")
		return
	}

	token, err := h.tokens.Issue(domain.User{
		ID:          req.UserID,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("token issue failed")
		response.Error(c, http.StatusInternalServerError, domain.ErrCodeInternalError, "failed to issue token")
		return
	}

	response.Success(c, gin.H{"token": token})
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
