// Package metrics holds the Prometheus collectors of the tutor backend and the
// session gateway. All methods are safe on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mathbuddy/mathbuddy-go/internal/fusion"
)

const namespace = "mathbuddy"

// Metrics domain collectors
type Metrics struct {
	FusedSentimentTotal  *prometheus.CounterVec
	ClassifierDuration   *prometheus.HistogramVec
	FaceEmotionsReceived prometheus.Counter
	LiveFeeds            prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FusedSentimentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fused_sentiment_total",
			Help:      "Fused sentiments by result and by the signals that were available.",
		}, []string{"sentiment", "source"}),
		ClassifierDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_request_duration_seconds",
			Help:      "Duration of requests to the emotion classifiers and the LLM.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"classifier", "status"}),
		FaceEmotionsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "face_emotions_received_total",
			Help:      "Face emotion observations stored by the gateway.",
		}),
		LiveFeeds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_feeds",
			Help:      "Webcam feeds currently connected.",
		}),
	}

	reg.MustRegister(m.FusedSentimentTotal, m.ClassifierDuration, m.FaceEmotionsReceived, m.LiveFeeds)
	return m
}

// ObserveFusion counts one fusion result.
func (m *Metrics) ObserveFusion(a fusion.Assessment) {
	if m == nil {
		return
	}
	m.FusedSentimentTotal.WithLabelValues(string(a.Merged), fusion.Source(a.Text, a.Face)).Inc()
}

// ObserveClassifier records a request to classifier that started at start.
func (m *Metrics) ObserveClassifier(classifier string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ClassifierDuration.WithLabelValues(classifier, status).Observe(time.Since(start).Seconds())
}

// FaceEmotionReceived counts one stored observation.
func (m *Metrics) FaceEmotionReceived() {
	if m == nil {
		return
	}
	m.FaceEmotionsReceived.Inc()
}

// FeedOpened and FeedClosed track live webcam feeds.
func (m *Metrics) FeedOpened() {
	if m == nil {
		return
	}
	m.LiveFeeds.Inc()
}

func (m *Metrics) FeedClosed() {
	if m == nil {
		return
	}
	m.LiveFeeds.Dec()
}
