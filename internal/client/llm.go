package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/config"
	"github.com/mathbuddy/mathbuddy-go/internal/metrics"
)

// thoughtsPattern matches reasoning blocks and stray think tags.
var thoughtsPattern = regexp.MustCompile(`<think>([^<]*</think>)?|(<think>[^<]*)?</think>`)

// LLMClient OpenAI-compatible chat completions client
type LLMClient struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewLLMClient creates an LLM client.
func NewLLMClient(cfg config.LLMConfig, logger *zap.Logger, m *metrics.Metrics) *LLMClient {
	return &LLMClient{
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  newHTTPClient(cfg.Timeout),
		logger:      logger,
		metrics:     m,
	}
}

// ChatMessage chat completion message
type ChatMessage struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Chat sends messages and returns the first choice with reasoning removed.
func (c *LLMClient) Chat(ctx context.Context, messages []ChatMessage) (reply string, err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveClassifier("llm", start, err) }()

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	var resp chatResponse
	req := chatRequest{Model: c.model, Messages: messages, Temperature: c.temperature, MaxTokens: c.maxTokens}
	if err := postJSON(ctx, c.httpClient, "llm", c.endpoint, header, req, &resp); err != nil {
		c.logger.Error("LLM request failed", zap.String("model", c.model), zap.Error(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: response has no choices")
	}

	reply = StripThoughts(resp.Choices[0].Message.Content)
	c.logger.Debug("LLM reply",
		zap.String("model", c.model),
		zap.String("finishReason", resp.Choices[0].FinishReason),
		zap.Int("length", len(reply)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return reply, nil
}

// Prompt sends a single user message.
func (c *LLMClient) Prompt(ctx context.Context, prompt string) (string, error) {
	reply, err := c.Chat(ctx, []ChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	return reply, nil
}

// StripThoughts removes <think> reasoning blocks and trims the result.
func StripThoughts(s string) string {
	return strings.TrimSpace(thoughtsPattern.ReplaceAllString(s, ""))
}
