package tutor

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/client"
	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/fusion"
	"github.com/mathbuddy/mathbuddy-go/internal/metrics"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
	"github.com/mathbuddy/mathbuddy-go/internal/prompt"
)

// PromptTutor returns the tutor prompt itself instead of a reply.
type PromptTutor struct {
	generator   *prompt.Generator
	aggregator  fusion.Aggregator
	sentiment   SentimentAnalyzer
	face        FaceAnalyzer
	description LanguageModel
	qa          LanguageModel
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewPromptTutor creates a prompt tutor.
func NewPromptTutor(deps Deps) *PromptTutor {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	generator := deps.Generator
	if generator == nil {
		generator = prompt.NewGenerator()
	}
	return &PromptTutor{
		generator:   generator,
		aggregator:  deps.Aggregator,
		sentiment:   deps.Sentiment,
		face:        deps.Face,
		description: deps.Description,
		qa:          deps.QA,
		metrics:     deps.Metrics,
		logger:      logger,
	}
}

// GenerateResponse builds the tutor prompt. With useEmotion and a sentiment
// analyzer, the last message is rated and fused with faces; the merged
// sentiment goes into the prompt and every signal into the used input.
func (t *PromptTutor) GenerateResponse(ctx context.Context, conversation []model.Message, useEmotion bool, faces []emotion.FaceEmotionRating) (string, model.UsedInput, error) {
	last, err := lastMessage(conversation)
	if err != nil {
		return "", model.UsedInput{}, err
	}

	var used model.UsedInput
	in := prompt.TutorInput{Conversation: conversation}

	if useEmotion && t.sentiment != nil {
		rating, err := t.sentiment.Analyze(ctx, last.Content)
		if err != nil {
			// the face signal alone still drives fusion
			t.logger.Warn("text sentiment unavailable", zap.Error(err))
			rating = nil
		}

		a := t.aggregator.Assess(rating, faces)
		t.metrics.ObserveFusion(a)
		t.logger.Debug("sentiment fused",
			zap.String("source", fusion.Source(a.Text, a.Face)),
			zap.String("merged", a.Merged.String()),
			zap.Int("faces", len(faces)),
		)

		used.Sentiment = rating
		if a.Face != nil {
			confidence := a.Face.Confidence
			used.SentimentAggFaceEmotion = a.Face.Sentiment
			used.ConfidenceAggFaceEmotion = &confidence
		}
		used.MergedSentiment = a.Merged
		in.MergedSentiment = a.Merged
	}

	if t.description != nil && t.qa != nil {
		desc, err := t.description.Prompt(ctx, t.generator.DescriptionPrompt(conversation))
		if err != nil {
			return "", model.UsedInput{}, fmt.Errorf("describe notes: %w", err)
		}
		qa, err := t.qa.Prompt(ctx, t.generator.QAPrompt(conversation, desc))
		if err != nil {
			return "", model.UsedInput{}, fmt.Errorf("generate qa pairs: %w", err)
		}
		used.Description = desc
		used.QATuples = qa
		in.QAPairs = qa
	}

	return t.generator.TutorPrompt(in), used, nil
}

// PredictFaceEmotion classifies a webcam frame with the face analyzer.
func (t *PromptTutor) PredictFaceEmotion(ctx context.Context, filename string, image io.Reader) (emotion.Emotion, float64, error) {
	if t.face == nil {
		return "", 0, fmt.Errorf("%w: no face emotion model", client.ErrClassifierUnavailable)
	}
	return t.face.Analyze(ctx, filename, image)
}

// LLMTutor sends the tutor prompt to a language model.
type LLMTutor struct {
	*PromptTutor
	llm LanguageModel
}

// NewLLMTutor creates an LLM tutor; deps.LLM drafts the replies.
func NewLLMTutor(deps Deps) *LLMTutor {
	return &LLMTutor{PromptTutor: NewPromptTutor(deps), llm: deps.LLM}
}

// GenerateResponse drafts the reply for the prompt built by the embedded
// PromptTutor.
func (t *LLMTutor) GenerateResponse(ctx context.Context, conversation []model.Message, useEmotion bool, faces []emotion.FaceEmotionRating) (string, model.UsedInput, error) {
	tutorPrompt, used, err := t.PromptTutor.GenerateResponse(ctx, conversation, useEmotion, faces)
	if err != nil {
		return "", model.UsedInput{}, err
	}

	reply, err := t.llm.Prompt(ctx, tutorPrompt)
	if err != nil {
		return "", model.UsedInput{}, fmt.Errorf("draft tutor reply: %w", err)
	}
	return reply, used, nil
}
