package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrMessageNotFound is returned when updating a message that is not stored.
	ErrMessageNotFound = errors.New("message not found")
)

// SessionStore keeps sessions, their messages and face observations in Redis.
//
// Keys per session:
//
//	session:{id}            hash of the session fields
//	session:{id}:messages   list of message IDs in arrival order
//	session:{id}:message    hash of message ID to JSON
//	session:{id}:faces      sorted set of observations scored by Unix microseconds
//	session:{id}:faceSeq    counter ordering observations that share a score
//
// Every write refreshes the TTL of all five keys.
type SessionStore struct {
	rdb    *redis.Client
	clock  clockwork.Clock
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionStore creates a session store.
func NewSessionStore(rdb *redis.Client, clock clockwork.Clock, ttl time.Duration, logger *zap.Logger) *SessionStore {
	return &SessionStore{rdb: rdb, clock: clock, ttl: ttl, logger: logger}
}

func sessionKey(id string) string     { return "session:" + id }
func messageListKey(id string) string { return "session:" + id + ":messages" }
func messageDataKey(id string) string { return "session:" + id + ":message" }
func facesKey(id string) string       { return "session:" + id + ":faces" }
func faceSeqKey(id string) string     { return "session:" + id + ":faceSeq" }

// faceScore orders observations; microseconds stay exact in a float64 score.
func faceScore(t time.Time) float64 {
	return float64(t.UnixMicro())
}

// storedFace is the sorted-set member. Seq is encoded first and zero-padded so
// members with equal scores sort in arrival order.
type storedFace struct {
	Seq string `json:"seq"`
	emotion.FaceEmotionRating
}

func (s *SessionStore) expire(ctx context.Context, pipe redis.Pipeliner, id string) {
	if s.ttl <= 0 {
		return
	}
	for _, key := range []string{sessionKey(id), messageListKey(id), messageDataKey(id), facesKey(id), faceSeqKey(id)} {
		pipe.Expire(ctx, key, s.ttl)
	}
}

// CreateSession stores a new session and seeds it with the problem greeting.
func (s *SessionStore) CreateSession(ctx context.Context, userID, condition int, usesEmotion bool) (*model.Session, *model.StoredMessage, error) {
	greeting, err := ProblemStatement(userID, condition)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now().UTC()
	session := &model.Session{
		SessionID:   uuid.New().String(),
		UserID:      userID,
		Condition:   condition,
		UsesEmotion: usesEmotion,
		CreatedAt:   now,
		LastActive:  now,
	}

	err = s.rdb.HSet(ctx, sessionKey(session.SessionID), map[string]interface{}{
		"userId":      session.UserID,
		"condition":   session.Condition,
		"usesEmotion": strconv.FormatBool(session.UsesEmotion),
		"createdAt":   now.Format(time.RFC3339Nano),
		"lastActive":  now.Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	msg, err := s.AddMessage(ctx, session.SessionID, model.RoleTutor, greeting)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("session created",
		zap.String("sessionId", session.SessionID),
		zap.Int("userId", userID),
		zap.Int("condition", condition))
	return session, msg, nil
}

// Session loads a session.
func (s *SessionStore) Session(ctx context.Context, id string) (*model.Session, error) {
	fields, err := s.rdb.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}
	return decodeSession(id, fields)
}

func decodeSession(id string, fields map[string]string) (*model.Session, error) {
	userID, err := strconv.Atoi(fields["userId"])
	if err != nil {
		return nil, fmt.Errorf("decode session %s: userId: %w", id, err)
	}
	condition, err := strconv.Atoi(fields["condition"])
	if err != nil {
		return nil, fmt.Errorf("decode session %s: condition: %w", id, err)
	}
	usesEmotion, _ := strconv.ParseBool(fields["usesEmotion"])
	createdAt, _ := time.Parse(time.RFC3339Nano, fields["createdAt"])
	lastActive, _ := time.Parse(time.RFC3339Nano, fields["lastActive"])

	return &model.Session{
		SessionID:   id,
		UserID:      userID,
		Condition:   condition,
		UsesEmotion: usesEmotion,
		CreatedAt:   createdAt,
		LastActive:  lastActive,
	}, nil
}

// Touch marks the session active and refreshes its TTL.
func (s *SessionStore) Touch(ctx context.Context, id string) error {
	n, err := s.rdb.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("touch session %s: %w", id, err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(id), "lastActive", s.clock.Now().UTC().Format(time.RFC3339Nano))
		s.expire(ctx, pipe, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("touch session %s: %w", id, err)
	}
	return nil
}

// AddMessage appends a message to the session.
func (s *SessionStore) AddMessage(ctx context.Context, sessionID string, role model.Role, content string) (*model.StoredMessage, error) {
	msg := &model.StoredMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: s.clock.Now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, messageDataKey(sessionID), msg.ID, data)
		pipe.RPush(ctx, messageListKey(sessionID), msg.ID)
		s.expire(ctx, pipe, sessionID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add message to %s: %w", sessionID, err)
	}
	return msg, nil
}

// UpdateMessage overwrites a stored message, keeping its position.
func (s *SessionStore) UpdateMessage(ctx context.Context, msg *model.StoredMessage) error {
	exists, err := s.rdb.HExists(ctx, messageDataKey(msg.SessionID), msg.ID).Result()
	if err != nil {
		return fmt.Errorf("update message %s: %w", msg.ID, err)
	}
	if !exists {
		return ErrMessageNotFound
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := s.rdb.HSet(ctx, messageDataKey(msg.SessionID), msg.ID, data).Err(); err != nil {
		return fmt.Errorf("update message %s: %w", msg.ID, err)
	}
	return nil
}

// Messages returns the messages of a session in arrival order.
func (s *SessionStore) Messages(ctx context.Context, sessionID string) ([]model.StoredMessage, error) {
	ids, err := s.rdb.LRange(ctx, messageListKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list messages of %s: %w", sessionID, err)
	}
	messages := make([]model.StoredMessage, 0, len(ids))
	if len(ids) == 0 {
		return messages, nil
	}

	values, err := s.rdb.HMGet(ctx, messageDataKey(sessionID), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load messages of %s: %w", sessionID, err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			s.logger.Warn("message data missing", zap.String("sessionId", sessionID), zap.String("messageId", ids[i]))
			continue
		}
		var msg model.StoredMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, fmt.Errorf("decode message %s: %w", ids[i], err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// ClearMessages deletes every message of the session.
func (s *SessionStore) ClearMessages(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, messageListKey(sessionID), messageDataKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear messages of %s: %w", sessionID, err)
	}
	return nil
}

// AddFaceEmotion stores an observation stamped with the current time.
func (s *SessionStore) AddFaceEmotion(ctx context.Context, sessionID string, e emotion.Emotion, confidence float64) (*emotion.FaceEmotionRating, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %q", emotion.ErrUnknownEmotion, string(e))
	}
	seq, err := s.rdb.Incr(ctx, faceSeqKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("add face emotion to %s: %w", sessionID, err)
	}

	face := storedFace{
		Seq: fmt.Sprintf("%020d", seq),
		FaceEmotionRating: emotion.FaceEmotionRating{
			Emotion:    e,
			Confidence: confidence,
			Timestamp:  s.clock.Now().UTC(),
		},
	}
	data, err := json.Marshal(face)
	if err != nil {
		return nil, fmt.Errorf("encode face emotion: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, facesKey(sessionID), redis.Z{Score: faceScore(face.Timestamp), Member: string(data)})
		s.expire(ctx, pipe, sessionID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add face emotion to %s: %w", sessionID, err)
	}
	return &face.FaceEmotionRating, nil
}

// FaceEmotionsSince returns the observations at or after since, ascending by
// timestamp.
func (s *SessionStore) FaceEmotionsSince(ctx context.Context, sessionID string, since time.Time) ([]emotion.FaceEmotionRating, error) {
	members, err := s.rdb.ZRangeByScore(ctx, facesKey(sessionID), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMicro(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list face emotions of %s: %w", sessionID, err)
	}

	faces := make([]emotion.FaceEmotionRating, 0, len(members))
	for _, m := range members {
		var face storedFace
		if err := json.Unmarshal([]byte(m), &face); err != nil {
			return nil, fmt.Errorf("decode face emotion: %w", err)
		}
		faces = append(faces, face.FaceEmotionRating)
	}
	// equal scores come back in seq order
	emotion.SortByTimestamp(faces)
	return faces, nil
}
