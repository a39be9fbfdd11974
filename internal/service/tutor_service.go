package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/metrics"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
)

// BackendFailureReply is stored as the tutor reply when the backend fails.
const BackendFailureReply = "Failed to connect to the backend"

// ErrInvalidMessage is returned for messages with an unknown role or no content.
var ErrInvalidMessage = errors.New("invalid message")

// Responder drafts tutor replies; the gateway uses the tutor backend client.
type Responder interface {
	Respond(ctx context.Context, sessionID string, conversation []model.Message, useEmotions bool, faces []emotion.FaceEmotionRating) (*model.TutorResponse, error)
}

// TutorService routes session messages to the tutor.
type TutorService struct {
	store     *SessionStore
	responder Responder
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewTutorService creates a tutor service.
func NewTutorService(store *SessionStore, responder Responder, m *metrics.Metrics, logger *zap.Logger) *TutorService {
	return &TutorService{store: store, responder: responder, metrics: m, logger: logger}
}

// PostMessage stores a message. A student message is answered: the tutor sees
// the whole conversation and the face observations since the previous
// message, the student message is annotated with the emotion input the tutor
// used, and the reply is stored. reply is nil for other roles.
func (s *TutorService) PostMessage(ctx context.Context, sessionID string, role model.Role, content string) (user, reply *model.StoredMessage, err error) {
	if !role.Valid() || strings.TrimSpace(content) == "" {
		return nil, nil, fmt.Errorf("%w: role %q", ErrInvalidMessage, role)
	}

	user, err = s.store.AddMessage(ctx, sessionID, role, content)
	if err != nil {
		return nil, nil, err
	}
	if role != model.RoleStudent {
		return user, nil, nil
	}

	session, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	stored, err := s.store.Messages(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	since := session.CreatedAt
	if len(stored) >= 2 {
		since = stored[len(stored)-2].Timestamp
	}
	faces, err := s.store.FaceEmotionsSince(ctx, sessionID, since)
	if err != nil {
		return nil, nil, err
	}

	conversation := make([]model.Message, len(stored))
	for i, m := range stored {
		conversation[i] = m.Message()
	}

	resp, err := s.responder.Respond(ctx, sessionID, conversation, session.UsesEmotions(), faces)
	if err != nil {
		s.logger.Error("tutor backend unavailable", zap.String("sessionId", sessionID), zap.Error(err))
		resp = &model.TutorResponse{Response: BackendFailureReply}
	}

	user.Annotate(resp.UsedInput)
	if err := s.store.UpdateMessage(ctx, user); err != nil {
		return nil, nil, err
	}

	reply, err = s.store.AddMessage(ctx, sessionID, model.RoleTutor, resp.Response)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("student message answered",
		zap.String("sessionId", sessionID),
		zap.Int("faces", len(faces)),
		zap.String("mergedSentiment", user.MergedSentiment.String()))
	return user, reply, nil
}

// RecordFaceEmotion validates and stores a face observation.
func (s *TutorService) RecordFaceEmotion(ctx context.Context, sessionID, label string, confidence float64) (*emotion.FaceEmotionRating, error) {
	e, err := emotion.Parse(label)
	if err != nil {
		return nil, err
	}
	face, err := s.store.AddFaceEmotion(ctx, sessionID, e, confidence)
	if err != nil {
		return nil, err
	}
	s.metrics.FaceEmotionReceived()
	return face, nil
}
