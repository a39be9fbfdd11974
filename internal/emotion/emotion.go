// Package emotion defines the emotion and sentiment vocabulary shared by the
// classifiers, the fusion engine and the tutoring prompt.
package emotion

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrUnknownEmotion is returned for labels outside the closed Emotion set.
var ErrUnknownEmotion = errors.New("unknown emotion")

// Emotion fine-grained facial or textual emotion label
type Emotion string

const (
	Angry      Emotion = "angry"
	Bored      Emotion = "bored"
	Confused   Emotion = "confused"
	Contempt   Emotion = "contempt"
	Disgusted  Emotion = "disgusted"
	Engaged    Emotion = "engaged"
	Fearful    Emotion = "fearful"
	Frustrated Emotion = "frustrated"
	Happy      Emotion = "happy"
	Negative   Emotion = "negative"
	Neutral    Emotion = "neutral"
	Positive   Emotion = "positive"
	Sad        Emotion = "sad"
	Surprised  Emotion = "surprised"
)

// All lists every Emotion in declaration order.
var All = []Emotion{
	Angry, Bored, Confused, Contempt, Disgusted, Engaged, Fearful,
	Frustrated, Happy, Negative, Neutral, Positive, Sad, Surprised,
}

// partition maps each Emotion to exactly one coarse bucket.
var partition = map[Emotion]Sentiment{
	Happy:    SentimentPositive,
	Positive: SentimentPositive,
	Engaged:  SentimentPositive,

	Neutral:   SentimentNeutral,
	Surprised: SentimentNeutral,

	Angry:      SentimentNegative,
	Bored:      SentimentNegative,
	Confused:   SentimentNegative,
	Contempt:   SentimentNegative,
	Disgusted:  SentimentNegative,
	Fearful:    SentimentNegative,
	Frustrated: SentimentNegative,
	Negative:   SentimentNegative,
	Sad:        SentimentNegative,
}

// Parse validates a wire label.
func Parse(s string) (Emotion, error) {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := partition[e]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEmotion, s)
	}
	return e, nil
}

// Valid reports whether e belongs to the closed set.
func (e Emotion) Valid() bool {
	_, ok := partition[e]
	return ok
}

// SentimentOf returns the coarse bucket of e.
func SentimentOf(e Emotion) (Sentiment, error) {
	s, ok := partition[e]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEmotion, string(e))
	}
	return s, nil
}

// Sentiment returns the coarse bucket of e. It panics for labels outside the
// partition; wire input must go through Parse first.
func (e Emotion) Sentiment() Sentiment {
	s, err := SentimentOf(e)
	if err != nil {
		panic(err)
	}
	return s
}

func (e Emotion) String() string { return string(e) }

// UnmarshalText rejects labels outside the closed set.
func (e *Emotion) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// FaceEmotionRating one facial-expression observation
type FaceEmotionRating struct {
	Emotion    Emotion   `json:"emotion"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// SortByTimestamp sorts observations ascending by timestamp, keeping the
// relative order of equal timestamps.
func SortByTimestamp(obs []FaceEmotionRating) {
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Timestamp.Before(obs[j].Timestamp)
	})
}

// IsSorted reports whether obs is ascending by timestamp.
func IsSorted(obs []FaceEmotionRating) bool {
	return sort.SliceIsSorted(obs, func(i, j int) bool {
		return obs[i].Timestamp.Before(obs[j].Timestamp)
	})
}
