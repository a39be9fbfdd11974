package fusion

import "github.com/mathbuddy/mathbuddy-go/internal/emotion"

// Fuse merges the text and face signals; nil means the signal is absent.
//
//  1. both absent: neutral
//  2. one present: its sentiment
//  3. equal sentiments: that sentiment
//  4. one side neutral: the other side
//  5. positive against negative: the higher confidence, face on an exact tie
func Fuse(text, face *emotion.Scored) emotion.Sentiment {
	if text == nil {
		if face == nil {
			return emotion.SentimentNeutral
		}
		return face.Sentiment
	}
	if face == nil {
		return text.Sentiment
	}

	switch {
	case text.Sentiment == face.Sentiment:
		return text.Sentiment
	case face.Sentiment == emotion.SentimentNeutral:
		return text.Sentiment
	case text.Sentiment == emotion.SentimentNeutral:
		return face.Sentiment
	case text.Confidence > face.Confidence:
		return text.Sentiment
	default:
		return face.Sentiment
	}
}

// Source labels which signals were available to Fuse.
func Source(text, face *emotion.Scored) string {
	switch {
	case text != nil && face != nil:
		return "both"
	case text != nil:
		return "text"
	case face != nil:
		return "face"
	default:
		return "none"
	}
}

// Assessment is the outcome of one fusion pass.
type Assessment struct {
	Text   *emotion.Scored
	Face   *emotion.Scored
	Merged emotion.Sentiment
}

// Assess runs the text reducer (when a rating is present), the face
// aggregator and Fuse.
func (a Aggregator) Assess(rating *emotion.SentimentRating, faces []emotion.FaceEmotionRating) Assessment {
	var text *emotion.Scored
	if rating != nil {
		s := ReduceText(*rating)
		text = &s
	}
	face := a.Reduce(faces)
	return Assessment{Text: text, Face: face, Merged: Fuse(text, face)}
}
