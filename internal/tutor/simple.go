package tutor

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
)

// EchoTutor repeats the last message.
type EchoTutor struct{}

func (EchoTutor) GenerateResponse(_ context.Context, conversation []model.Message, _ bool, _ []emotion.FaceEmotionRating) (string, model.UsedInput, error) {
	last, err := lastMessage(conversation)
	if err != nil {
		return "", model.UsedInput{}, err
	}
	return last.Content, model.UsedInput{}, nil
}

func (EchoTutor) PredictFaceEmotion(context.Context, string, io.Reader) (emotion.Emotion, float64, error) {
	return noFaceModel()
}

// MockTutor answers Yes or No at random.
type MockTutor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockTutor creates a mock tutor drawing from rng; nil seeds from the clock.
func NewMockTutor(rng *rand.Rand) *MockTutor {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MockTutor{rng: rng}
}

func (t *MockTutor) GenerateResponse(context.Context, []model.Message, bool, []emotion.FaceEmotionRating) (string, model.UsedInput, error) {
	t.mu.Lock()
	yes := t.rng.Intn(2) == 0
	t.mu.Unlock()

	if yes {
		return "Yes", model.UsedInput{}, nil
	}
	return "No", model.UsedInput{}, nil
}

func (t *MockTutor) PredictFaceEmotion(context.Context, string, io.Reader) (emotion.Emotion, float64, error) {
	return noFaceModel()
}
