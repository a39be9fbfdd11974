package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
	"github.com/mathbuddy/mathbuddy-go/internal/service"
)

const sessionIDKey = "sessionId"

// SessionHandler session gateway handler
type SessionHandler struct {
	store       *service.SessionStore
	tutor       *service.TutorService
	predictor   service.FramePredictor
	feeds       *service.FeedService
	serviceName string
	logger      *zap.Logger
}

// NewSessionHandler creates a session gateway handler.
func NewSessionHandler(store *service.SessionStore, tutor *service.TutorService, predictor service.FramePredictor, feeds *service.FeedService, serviceName string, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		store:       store,
		tutor:       tutor,
		predictor:   predictor,
		feeds:       feeds,
		serviceName: serviceName,
		logger:      logger,
	}
}

// Register mounts the gateway routes and returns the group of session-scoped
// routes, which already validate the session.
func (h *SessionHandler) Register(r gin.IRouter) gin.IRouter {
	r.GET("/api/health", h.Health)
	r.POST("/api/emotion/face", h.ProxyFaceEmotion)
	r.POST("/api/sessions", h.CreateSession)

	sessions := r.Group("/api/sessions/:sessionId", h.ValidateSession)
	sessions.GET("/messages", h.GetMessages)
	sessions.POST("/messages", h.PostMessage)
	sessions.DELETE("/messages", h.DeleteMessages)
	sessions.POST("/faceEmotions", h.PostFaceEmotion)
	return sessions
}

// ValidateSession rejects requests for unknown sessions and marks known ones
// active.
func (h *SessionHandler) ValidateSession(c *gin.Context) {
	id := c.Param(sessionIDKey)
	if id == "" {
		id = c.Query(sessionIDKey)
	}
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid session ID"})
		return
	}

	if err := h.store.Touch(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid session ID"})
			return
		}
		h.logger.Error("validate session failed", zap.String("sessionId", id), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
		return
	}

	c.Set(sessionIDKey, id)
	c.Next()
}

// CreateSession starts a session seeded with the problem greeting.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req model.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == nil || req.UsesEmotion == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing one or more of the required fields userId,usesEmotion"})
		return
	}

	session, _, err := h.store.CreateSession(c.Request.Context(), *req.UserID, req.Condition, *req.UsesEmotion)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCondition) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session data"})
			return
		}
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"sessionId": session.SessionID})
}

// GetMessages lists the session's messages.
func (h *SessionHandler) GetMessages(c *gin.Context) {
	id := c.GetString(sessionIDKey)
	messages, err := h.store.Messages(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list messages failed", zap.String("sessionId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// PostMessage stores a message; a student message is answered by the tutor.
func (h *SessionHandler) PostMessage(c *gin.Context) {
	id := c.GetString(sessionIDKey)

	var req model.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message data"})
		return
	}

	user, reply, err := h.tutor.PostMessage(c.Request.Context(), id, req.Role, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message data"})
			return
		}
		h.logger.Error("post message failed", zap.String("sessionId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
		return
	}

	if reply == nil {
		c.JSON(http.StatusCreated, user)
		return
	}
	c.JSON(http.StatusCreated, model.PostMessageResponse{UserMessage: user, AIResponse: reply})
}

// DeleteMessages clears the conversation.
func (h *SessionHandler) DeleteMessages(c *gin.Context) {
	id := c.GetString(sessionIDKey)
	if err := h.store.ClearMessages(c.Request.Context(), id); err != nil {
		h.logger.Error("clear messages failed", zap.String("sessionId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat successfully deleted"})
}

// PostFaceEmotion stores a face observation reported by the client.
func (h *SessionHandler) PostFaceEmotion(c *gin.Context) {
	id := c.GetString(sessionIDKey)

	var req model.CreateFaceEmotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid face emotion data"})
		return
	}

	face, err := h.tutor.RecordFaceEmotion(c.Request.Context(), id, req.Emotion, req.Confidence)
	if err != nil {
		if errors.Is(err, emotion.ErrUnknownEmotion) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid face emotion data"})
			return
		}
		h.logger.Error("record face emotion failed", zap.String("sessionId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
		return
	}
	c.JSON(http.StatusCreated, face)
}

// ProxyFaceEmotion forwards an uploaded frame to the tutor backend classifier.
func (h *SessionHandler) ProxyFaceEmotion(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	pred, err := h.predictor.PredictFaceEmotion(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("face emotion proxy failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to analyze face emotion"})
		return
	}
	c.JSON(http.StatusCreated, pred)
}

// Health health check
func (h *SessionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "UP",
		"service":    h.serviceName,
		"live_feeds": h.feeds.Count(),
	})
}
