package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/metrics"
)

// FaceEmotionClient facial expression classifier client
type FaceEmotionClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewFaceEmotionClient creates a face emotion client.
func NewFaceEmotionClient(baseURL string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *FaceEmotionClient {
	return &FaceEmotionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		logger:     logger,
		metrics:    m,
	}
}

// Enabled reports whether a classifier is configured.
func (c *FaceEmotionClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

type faceReply struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}

// Analyze classifies one webcam frame.
func (c *FaceEmotionClient) Analyze(ctx context.Context, filename string, image io.Reader) (e emotion.Emotion, confidence float64, err error) {
	if !c.Enabled() {
		return "", 0, fmt.Errorf("%w: face emotion classifier not configured", ErrClassifierUnavailable)
	}

	start := time.Now()
	defer func() { c.metrics.ObserveClassifier("face", start, err) }()

	var out faceReply
	if err := postImage(ctx, c.httpClient, "face emotion", c.baseURL+"/predict", filename, image, &out); err != nil {
		c.logger.Warn("face emotion request failed", zap.Error(err))
		return "", 0, err
	}
	return parseFaceReply(out)
}

func parseFaceReply(out faceReply) (emotion.Emotion, float64, error) {
	e, err := emotion.Parse(out.Emotion)
	if err != nil {
		return "", 0, fmt.Errorf("face emotion: %w", err)
	}
	return e, out.Confidence, nil
}
