package fusion

import "github.com/mathbuddy/mathbuddy-go/internal/emotion"

// ReduceText picks the strongest of the engagement, neutral and boredom
// confidences. Ties resolve engagement > neutral > boredom; the branch order
// below is what produces that priority.
func ReduceText(r emotion.SentimentRating) emotion.Scored {
	n := r.NeutralConfidence
	b := r.BoredomConfidence
	e := r.EngagementConfidence

	if e > n {
		if e >= b {
			return emotion.Scored{Sentiment: emotion.SentimentPositive, Confidence: e}
		}
		return emotion.Scored{Sentiment: emotion.SentimentNegative, Confidence: b}
	} else if n >= b {
		return emotion.Scored{Sentiment: emotion.SentimentNeutral, Confidence: n}
	}
	return emotion.Scored{Sentiment: emotion.SentimentNegative, Confidence: b}
}
