package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mathbuddy/mathbuddy-go/internal/metrics"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
)

// ErrFrameRateLimited is returned for frames above the feed's frame rate.
var ErrFrameRateLimited = errors.New("frame rate exceeded")

// FramePredictor classifies a webcam frame.
type FramePredictor interface {
	PredictFaceEmotion(ctx context.Context, filename string, image io.Reader) (*model.FaceEmotionResponse, error)
}

// FeedService tracks live webcam feeds, one per session, and turns their
// frames into stored face observations.
type FeedService struct {
	feeds     map[string]*model.FeedConn // feedId -> feed
	bySession map[string]string          // sessionId -> feedId
	mu        sync.RWMutex

	clock      clockwork.Clock
	interval   time.Duration
	timeout    time.Duration
	frameRate  rate.Limit
	frameBurst int
	predictor  FramePredictor
	tutor      *TutorService
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewFeedService creates a feed registry. A feed that has not sent a heartbeat
// for timeout misses a beat on every check, and is closed after
// model.MaxMissedBeats misses.
func NewFeedService(clock clockwork.Clock, interval, timeout time.Duration, predictor FramePredictor, tutor *TutorService, m *metrics.Metrics, logger *zap.Logger) *FeedService {
	return &FeedService{
		feeds:     make(map[string]*model.FeedConn),
		bySession: make(map[string]string),
		clock:     clock,
		interval:  interval,
		timeout:   timeout,
		predictor: predictor,
		tutor:     tutor,
		metrics:   m,
		logger:    logger,
	}
}

// LimitFrames caps every feed registered afterwards at perSecond frames with
// the given burst. perSecond <= 0 removes the cap.
func (s *FeedService) LimitFrames(perSecond float64, burst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameRate = rate.Limit(perSecond)
	s.frameBurst = max(burst, 1)
}

// Register adds a feed for sessionID, closing the session's previous feed.
func (s *FeedService) Register(sessionID string, conn *websocket.Conn, clientIP string) *model.FeedConn {
	s.mu.Lock()
	defer s.mu.Unlock()

	if oldID, ok := s.bySession[sessionID]; ok {
		if old, ok := s.feeds[oldID]; ok {
			s.logger.Info("session reconnected, closing previous feed",
				zap.String("sessionId", sessionID),
				zap.String("oldFeedId", oldID))
			s.closeLocked(old)
		}
	}

	feed := &model.FeedConn{
		FeedID:        uuid.New().String(),
		SessionID:     sessionID,
		Conn:          conn,
		ClientIP:      clientIP,
		LastHeartbeat: s.clock.Now(),
	}
	if s.frameRate > 0 {
		feed.Frames = rate.NewLimiter(s.frameRate, s.frameBurst)
	}
	s.feeds[feed.FeedID] = feed
	s.bySession[sessionID] = feed.FeedID
	s.metrics.FeedOpened()

	s.logger.Info("feed registered",
		zap.String("sessionId", sessionID),
		zap.String("feedId", feed.FeedID),
		zap.String("clientIp", clientIP))
	return feed
}

// closeLocked drops feed from the registry; s.mu must be held.
func (s *FeedService) closeLocked(feed *model.FeedConn) {
	if feed.Conn != nil {
		_ = feed.Conn.Close()
	}
	delete(s.feeds, feed.FeedID)
	if s.bySession[feed.SessionID] == feed.FeedID {
		delete(s.bySession, feed.SessionID)
	}
	s.metrics.FeedClosed()
}

// Remove closes and drops a feed.
func (s *FeedService) Remove(feedID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if feed, ok := s.feeds[feedID]; ok {
		s.closeLocked(feed)
		s.logger.Info("feed removed", zap.String("feedId", feedID), zap.String("sessionId", feed.SessionID))
	}
}

// Heartbeat records a heartbeat; false when the feed is unknown.
func (s *FeedService) Heartbeat(feedID string) bool {
	s.mu.RLock()
	feed, ok := s.feeds[feedID]
	s.mu.RUnlock()

	if !ok {
		return false
	}
	feed.UpdateHeartbeat(s.clock.Now())
	return true
}

// Count returns the number of live feeds.
func (s *FeedService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feeds)
}

// HandleFrame classifies a frame of feed and stores the observation. Any
// frame also counts as a heartbeat.
func (s *FeedService) HandleFrame(ctx context.Context, feed *model.FeedConn, image []byte) (*model.FeedMessage, error) {
	now := s.clock.Now()
	feed.UpdateHeartbeat(now)
	if feed.Frames != nil && !feed.Frames.AllowN(now, 1) {
		return nil, ErrFrameRateLimited
	}

	pred, err := s.predictor.PredictFaceEmotion(ctx, "frame.jpg", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("classify frame: %w", err)
	}

	face, err := s.tutor.RecordFaceEmotion(ctx, feed.SessionID, pred.Emotion.String(), pred.Confidence)
	if err != nil {
		return nil, err
	}

	return &model.FeedMessage{
		Type:       model.FeedEmotion,
		Emotion:    face.Emotion,
		Confidence: face.Confidence,
		Timestamp:  face.Timestamp,
	}, nil
}

// Run checks heartbeats every interval until ctx is done.
func (s *FeedService) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.CheckHeartbeats()
		}
	}
}

// CheckHeartbeats runs one heartbeat pass.
func (s *FeedService) CheckHeartbeats() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for feedID, feed := range s.feeds {
		if feed.Since(now) <= s.timeout {
			continue
		}

		feed.IncrementMissedBeats()
		if feed.ShouldBeCleaned() {
			s.logger.Info("closing stale feed",
				zap.String("feedId", feedID),
				zap.String("sessionId", feed.SessionID))
			s.closeLocked(feed)
		} else {
			s.logger.Warn("feed heartbeat missed", zap.String("feedId", feedID))
		}
	}
}

// CloseAll closes every feed; used on shutdown.
func (s *FeedService) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, feed := range s.feeds {
		s.closeLocked(feed)
	}
}
