package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/metrics"
)

// SentimentClient text sentiment classifier client
type SentimentClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewSentimentClient creates a text sentiment client. An empty baseURL
// disables classification.
func NewSentimentClient(baseURL string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *SentimentClient {
	return &SentimentClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		logger:     logger,
		metrics:    m,
	}
}

// Enabled reports whether a classifier is configured.
func (c *SentimentClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Analyze rates text. It returns a nil rating and no error when the client is
// disabled.
func (c *SentimentClient) Analyze(ctx context.Context, text string) (rating *emotion.SentimentRating, err error) {
	if !c.Enabled() {
		return nil, nil
	}

	start := time.Now()
	defer func() { c.metrics.ObserveClassifier("text", start, err) }()

	var out emotion.SentimentRating
	if err := postJSON(ctx, c.httpClient, "text sentiment", c.baseURL+"/analyze", nil, analyzeRequest{Text: text}, &out); err != nil {
		c.logger.Warn("text sentiment request failed", zap.Error(err))
		return nil, err
	}

	c.logger.Debug("text sentiment",
		zap.Float64("neutral", out.NeutralConfidence),
		zap.Float64("boredom", out.BoredomConfidence),
		zap.Float64("engagement", out.EngagementConfidence),
	)
	return &out, nil
}
