package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
)

// Consecutive failures that open the tutor backend breaker.
const breakerTrips = 5

// TutorClient session gateway client of the tutor backend. Calls go through a
// circuit breaker; while it is open they fail fast with gobreaker.ErrOpenState.
type TutorClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewTutorClient creates a tutor backend client.
func NewTutorClient(baseURL string, timeout time.Duration, logger *zap.Logger) *TutorClient {
	return &TutorClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "tutor-backend",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTrips
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
		logger: logger,
	}
}

// call runs fn through the breaker.
func (c *TutorClient) call(fn func() error) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: tutor backend: %w", ErrClassifierUnavailable, err)
	}
	return err
}

type tutorRequest struct {
	SessionID       string                      `json:"sessionId"`
	Conversation    []model.Message             `json:"conversation"`
	UseEmotions     bool                        `json:"useEmotions"`
	MessageEmotions []emotion.FaceEmotionRating `json:"messageEmotions"`
}

// Respond asks the backend for the next tutor reply.
func (c *TutorClient) Respond(ctx context.Context, sessionID string, conversation []model.Message, useEmotions bool, faces []emotion.FaceEmotionRating) (*model.TutorResponse, error) {
	if faces == nil {
		faces = []emotion.FaceEmotionRating{}
	}
	req := tutorRequest{
		SessionID:       sessionID,
		Conversation:    conversation,
		UseEmotions:     useEmotions,
		MessageEmotions: faces,
	}

	var out model.TutorResponse
	err := c.call(func() error {
		return postJSON(ctx, c.httpClient, "tutor", c.baseURL+"/tutor", nil, req, &out)
	})
	if err != nil {
		c.logger.Error("tutor backend request failed", zap.String("sessionId", sessionID), zap.Error(err))
		return nil, err
	}
	out.Response = strings.TrimSpace(out.Response)
	return &out, nil
}

// PredictFaceEmotion forwards a webcam frame to the backend.
func (c *TutorClient) PredictFaceEmotion(ctx context.Context, filename string, image io.Reader) (*model.FaceEmotionResponse, error) {
	var out faceReply
	err := c.call(func() error {
		return postImage(ctx, c.httpClient, "tutor face emotion", c.baseURL+"/faceEmotion", filename, image, &out)
	})
	if err != nil {
		return nil, err
	}
	e, confidence, err := parseFaceReply(out)
	if err != nil {
		return nil, err
	}
	return &model.FaceEmotionResponse{Emotion: e, Confidence: confidence}, nil
}
