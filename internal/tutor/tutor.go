// Package tutor drafts tutor replies from a conversation and the student's
// emotion signals.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"

	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/config"
	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/fusion"
	"github.com/mathbuddy/mathbuddy-go/internal/metrics"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
	"github.com/mathbuddy/mathbuddy-go/internal/prompt"
)

// ErrEmptyConversation is returned when there is no message to answer.
var ErrEmptyConversation = errors.New("empty conversation")

// Tutor variants
const (
	TypeLLM    = "llm"
	TypePrompt = "prompt"
	TypeEcho   = "echo"
	TypeMock   = "mock"
)

// Tutor drafts the next reply of a conversation.
type Tutor interface {
	GenerateResponse(ctx context.Context, conversation []model.Message, useEmotion bool, faces []emotion.FaceEmotionRating) (string, model.UsedInput, error)
	PredictFaceEmotion(ctx context.Context, filename string, image io.Reader) (emotion.Emotion, float64, error)
}

// SentimentAnalyzer rates the text of a message.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (*emotion.SentimentRating, error)
}

// FaceAnalyzer classifies a webcam frame.
type FaceAnalyzer interface {
	Analyze(ctx context.Context, filename string, image io.Reader) (emotion.Emotion, float64, error)
}

// LanguageModel answers a single prompt.
type LanguageModel interface {
	Prompt(ctx context.Context, prompt string) (string, error)
}

// Deps collaborators of the tutors. Nil analyzers and models disable the
// stage they serve.
type Deps struct {
	Generator   *prompt.Generator
	Aggregator  fusion.Aggregator
	Sentiment   SentimentAnalyzer
	Face        FaceAnalyzer
	LLM         LanguageModel
	Description LanguageModel
	QA          LanguageModel
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	// Rand drives the mock tutor; nil seeds from the clock.
	Rand *rand.Rand
}

// New creates the tutor selected by cfg.Type.
func New(cfg config.TutorConfig, deps Deps) (Tutor, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Generator == nil {
		deps.Generator = prompt.NewGenerator()
	}

	switch cfg.Type {
	case TypeLLM, "":
		if deps.LLM == nil {
			return nil, errors.New("llm tutor requires a language model")
		}
		return NewLLMTutor(deps), nil
	case TypePrompt:
		return NewPromptTutor(deps), nil
	case TypeEcho:
		return &EchoTutor{}, nil
	case TypeMock:
		return NewMockTutor(deps.Rand), nil
	default:
		return nil, fmt.Errorf("unknown tutor type %q", cfg.Type)
	}
}

// lastMessage returns the message being answered.
func lastMessage(conversation []model.Message) (model.Message, error) {
	if len(conversation) == 0 {
		return model.Message{}, ErrEmptyConversation
	}
	return conversation[len(conversation)-1], nil
}

// noFaceModel is the classification of tutors without a face model.
func noFaceModel() (emotion.Emotion, float64, error) {
	return emotion.Neutral, 0, nil
}
