package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/client"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
	"github.com/mathbuddy/mathbuddy-go/internal/tutor"
)

// Fields required by POST /tutor, in the order they are checked.
var requiredTutorFields = []string{"conversation", "useEmotions", "messageEmotions"}

// TutorHandler tutor backend handler
type TutorHandler struct {
	tutor       tutor.Tutor
	serviceName string
	logger      *zap.Logger
}

// NewTutorHandler creates a tutor handler.
func NewTutorHandler(t tutor.Tutor, serviceName string, logger *zap.Logger) *TutorHandler {
	return &TutorHandler{tutor: t, serviceName: serviceName, logger: logger}
}

// Register mounts the tutor backend routes.
func (h *TutorHandler) Register(r gin.IRouter) {
	r.POST("/tutor", h.Tutor)
	r.POST("/faceEmotion", h.FaceEmotion)
	r.GET("/api/health", h.Health)
}

// Tutor drafts the next tutor reply of a conversation.
func (h *TutorHandler) Tutor(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}
	for _, field := range requiredTutorFields {
		if _, ok := fields[field]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("JSON data is missing required '%s' value", field)})
			return
		}
	}

	req := model.TutorRequest{
		SessionID:       looseString(fields["sessionId"]),
		Conversation:    fields["conversation"],
		MessageEmotions: fields["messageEmotions"],
	}
	if err := json.Unmarshal(fields["useEmotions"], &req.UseEmotions); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "useEmotions must be a boolean"})
		return
	}
	useEmotions := req.UseEmotions != nil && *req.UseEmotions

	conversation, err := model.ParseConversation(req.Conversation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	faces, err := model.ParseFaceEmotions(req.MessageEmotions)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("tutor request",
		zap.String("sessionId", req.SessionID),
		zap.Int("messages", len(conversation)),
		zap.Int("faces", len(faces)),
		zap.Bool("useEmotions", useEmotions))

	reply, used, err := h.tutor.GenerateResponse(c.Request.Context(), conversation, useEmotions, faces)
	if err != nil {
		if errors.Is(err, tutor.ErrEmptyConversation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversation has no messages"})
			return
		}
		h.logger.Error("generate response failed", zap.String("sessionId", req.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
		return
	}

	c.JSON(http.StatusOK, model.TutorResponse{Response: reply, UsedInput: used})
}

// looseString reads an optional id that clients send as a string or a number.
func looseString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// FaceEmotion classifies the uploaded "image" frame.
func (h *TutorHandler) FaceEmotion(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		// a part without a filename is parsed as a plain form value
		if form := c.Request.MultipartForm; form != nil && len(form.Value["image"]) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected for uploading"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image part in the request"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected for uploading"})
		return
	}

	e, confidence, err := h.tutor.PredictFaceEmotion(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("face emotion failed", zap.Error(err))
		if errors.Is(err, client.ErrClassifierUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "face emotion classifier unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
		return
	}

	c.JSON(http.StatusOK, model.FaceEmotionResponse{Emotion: e, Confidence: confidence})
}

// Health health check
func (h *TutorHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "UP",
		"service": h.serviceName,
	})
}
