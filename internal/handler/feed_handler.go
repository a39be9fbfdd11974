package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/middleware"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
	"github.com/mathbuddy/mathbuddy-go/internal/service"
)

// FeedHandler webcam feed websocket handler
type FeedHandler struct {
	upgrader websocket.Upgrader
	feeds    *service.FeedService
	logger   *zap.Logger
}

// NewFeedHandler creates a feed handler accepting connections from
// allowedOrigins; an empty list accepts every origin.
func NewFeedHandler(feeds *service.FeedService, allowedOrigins []string, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		upgrader: websocket.Upgrader{CheckOrigin: middleware.OriginAllowed(allowedOrigins)},
		feeds:    feeds,
		logger:   logger,
	}
}

// HandleFeed upgrades to a websocket and classifies the frames it receives.
// Must run after SessionHandler.ValidateSession.
func (h *FeedHandler) HandleFeed(c *gin.Context) {
	sessionID := c.GetString(sessionIDKey)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.String("sessionId", sessionID), zap.Error(err))
		return
	}

	feed := h.feeds.Register(sessionID, conn, c.ClientIP())
	defer h.feeds.Remove(feed.FeedID)

	for {
		var msg model.FeedMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Error("feed read failed", zap.String("feedId", feed.FeedID), zap.Error(err))
			}
			break
		}
		h.handleMessage(c, feed, &msg)
	}

	h.logger.Info("feed disconnected", zap.String("feedId", feed.FeedID), zap.String("sessionId", sessionID))
}

func (h *FeedHandler) handleMessage(c *gin.Context, feed *model.FeedConn, msg *model.FeedMessage) {
	switch msg.Type {
	case model.FeedFrame:
		reply, err := h.feeds.HandleFrame(c.Request.Context(), feed, msg.Image)
		switch {
		case errors.Is(err, service.ErrFrameRateLimited):
			h.logger.Debug("frame dropped", zap.String("feedId", feed.FeedID))
			reply = &model.FeedMessage{Type: model.FeedError, Message: "Too many frames"}
		case err != nil:
			h.logger.Warn("frame classification failed", zap.String("feedId", feed.FeedID), zap.Error(err))
			reply = &model.FeedMessage{Type: model.FeedError, Message: "Failed to analyze frame"}
		}
		if err := feed.WriteMessage(reply); err != nil {
			h.logger.Warn("feed write failed", zap.String("feedId", feed.FeedID), zap.Error(err))
		}

	case model.FeedHeartbeat:
		h.feeds.Heartbeat(feed.FeedID)
		h.logger.Debug("feed heartbeat", zap.String("feedId", feed.FeedID))

	default:
		h.logger.Warn("unknown feed message type",
			zap.String("feedId", feed.FeedID),
			zap.String("type", msg.Type))
	}
}
