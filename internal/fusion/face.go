package fusion

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
)

const (
	// DefaultHalfLife is the time after which a face observation's weight halves.
	DefaultHalfLife = 120 * time.Second
	// DefaultPersistence is how long the last expression is assumed to hold
	// after its frame was captured.
	DefaultPersistence = 250 * time.Millisecond
)

// Aggregator reduces face observations with exponential time decay.
// Zero fields use the defaults.
type Aggregator struct {
	HalfLife    time.Duration
	Persistence time.Duration
}

// DefaultAggregator returns the aggregator with the default half-life and persistence.
func DefaultAggregator() Aggregator {
	return Aggregator{HalfLife: DefaultHalfLife, Persistence: DefaultPersistence}
}

// ReduceFace reduces obs with the default aggregator.
func ReduceFace(obs []emotion.FaceEmotionRating) *emotion.Scored {
	return DefaultAggregator().Reduce(obs)
}

func (a Aggregator) halfLife() time.Duration {
	if a.HalfLife <= 0 {
		return DefaultHalfLife
	}
	return a.HalfLife
}

func (a Aggregator) persistence() time.Duration {
	if a.Persistence <= 0 {
		return DefaultPersistence
	}
	return a.Persistence
}

// Decay returns the weight of a signal that stopped being observed age ago.
func (a Aggregator) Decay(age time.Duration) float64 {
	return math.Exp(-age.Seconds() * math.Ln2 / a.halfLife().Seconds())
}

// Reduce returns the winning bucket and its softmax probability, or nil when
// obs is empty. Unsorted input is reduced from a sorted copy.
//
// Each observation holds until the next one starts; the last one holds until
// now, which is its timestamp plus the persistence. Held durations are
// weighted by Decay(now - end), summed per bucket and passed through a softmax
// as raw scores. Long turns saturate the softmax towards one-hot output.
func (a Aggregator) Reduce(obs []emotion.FaceEmotionRating) *emotion.Scored {
	if len(obs) == 0 {
		return nil
	}
	if !emotion.IsSorted(obs) {
		obs = append([]emotion.FaceEmotionRating(nil), obs...)
		emotion.SortByTimestamp(obs)
	}

	now := obs[len(obs)-1].Timestamp.Add(a.persistence())

	// buckets keeps first-populated order so ties resolve deterministically.
	var buckets []emotion.Sentiment
	sums := make(map[emotion.Sentiment]float64, 3)

	for i, o := range obs {
		end := now
		if i+1 < len(obs) {
			end = obs[i+1].Timestamp
		}
		duration := end.Sub(o.Timestamp).Seconds()
		weighted := duration * a.Decay(now.Sub(end))

		bucket := o.Emotion.Sentiment()
		if _, ok := sums[bucket]; !ok {
			buckets = append(buckets, bucket)
		}
		sums[bucket] += weighted
	}

	scores := make([]float64, len(buckets))
	for i, b := range buckets {
		scores[i] = sums[b]
	}
	probs := softmax(scores)

	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return &emotion.Scored{Sentiment: buckets[best], Confidence: probs[best]}
}

// softmax subtracts the largest score before exponentiating so large raw
// sums do not overflow.
func softmax(scores []float64) []float64 {
	m := floats.Max(scores)
	out := make([]float64, len(scores))
	for i, v := range scores {
		out[i] = math.Exp(v - m)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
