package emotion

import (
	"fmt"
	"strings"
)

// Sentiment coarse sentiment label
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment accepts the three coarse buckets only.
func ParseSentiment(s string) (Sentiment, error) {
	v := Sentiment(strings.ToLower(strings.TrimSpace(s)))
	if !v.Coarse() {
		return "", fmt.Errorf("unknown sentiment %q", s)
	}
	return v, nil
}

// Coarse reports whether s is one of positive, negative or neutral.
func (s Sentiment) Coarse() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Title returns the capitalised label used in prompts.
func (s Sentiment) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

func (s Sentiment) String() string { return string(s) }

// UnmarshalText rejects labels other than the three coarse buckets.
func (s *Sentiment) UnmarshalText(text []byte) error {
	parsed, err := ParseSentiment(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Scored is a sentiment together with the confidence that produced it.
type Scored struct {
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
}

// SentimentRating text classifier output: a Likert level (0-2) and a
// confidence for each of the neutral, boredom and engagement categories.
type SentimentRating struct {
	Neutral              int     `json:"neutral"`
	NeutralConfidence    float64 `json:"confidenceNeutral"`
	Boredom              int     `json:"boredom"`
	BoredomConfidence    float64 `json:"confidenceBoredom"`
	Engagement           int     `json:"engagement"`
	EngagementConfidence float64 `json:"confidenceEngagement"`
}
