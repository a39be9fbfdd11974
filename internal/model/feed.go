package model

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
)

// Feed message types
const (
	FeedFrame     = "FRAME"
	FeedHeartbeat = "HEARTBEAT"
	FeedEmotion   = "EMOTION"
	FeedError     = "ERROR"
)

// MaxMissedBeats heartbeats a feed may miss before it is closed
const MaxMissedBeats = 3

// FeedMessage a webcam feed websocket message. Image is base64 in JSON.
type FeedMessage struct {
	Type       string          `json:"type"`
	Image      []byte          `json:"image,omitempty"`
	Emotion    emotion.Emotion `json:"emotion,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Message    string          `json:"message,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// FeedConn a live webcam feed bound to a session
type FeedConn struct {
	FeedID        string
	SessionID     string
	Conn          *websocket.Conn
	ClientIP      string
	LastHeartbeat time.Time
	MissedBeats   int
	Frames        *rate.Limiter // nil means unlimited
	mu            sync.RWMutex
}

// UpdateHeartbeat records a heartbeat received at now.
func (f *FeedConn) UpdateHeartbeat(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastHeartbeat = now
	f.MissedBeats = 0
}

// IncrementMissedBeats counts one missed heartbeat.
func (f *FeedConn) IncrementMissedBeats() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MissedBeats++
}

// Since returns the time elapsed between the last heartbeat and now.
func (f *FeedConn) Since(now time.Time) time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return now.Sub(f.LastHeartbeat)
}

// ShouldBeCleaned reports whether the feed missed too many heartbeats.
func (f *FeedConn) ShouldBeCleaned() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.MissedBeats >= MaxMissedBeats
}

// WriteMessage writes message as JSON; safe for concurrent use.
func (f *FeedConn) WriteMessage(message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Conn.WriteJSON(message)
}
