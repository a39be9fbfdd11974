package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
)

func TestParseConversation(t *testing.T) {
	t.Parallel()

	want := []Message{
		{Role: RoleTutor, Content: "What is 2+2?"},
		{Role: RoleStudent, Content: "4"},
	}

	tests := []struct {
		name string
		raw  string
		want []Message
	}{
		{"array", `[{"role":"tutor","content":"What is 2+2?"},{"role":"student","content":"4"}]`, want},
		{"encoded string", `"[{\"role\":\"tutor\",\"content\":\"What is 2+2?\"},{\"role\":\"student\",\"content\":\"4\"}]"`, want},
		{"single object", `{"role":"student","content":"hi"}`, []Message{{Role: RoleStudent, Content: "hi"}}},
		{"drops incomplete entries", `[{"role":"student"},{"content":"x"},{"role":"tutor","content":""},{"role":"student","content":"4"}]`, []Message{{Role: RoleStudent, Content: "4"}}},
		{"null", `null`, []Message{}},
		{"empty array", `[]`, []Message{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseConversation(json.RawMessage(tt.raw))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseConversation() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseConversationInvalid(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`"not json"`, `42`, `[1,2]`} {
		_, err := ParseConversation(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrInvalidPayload, raw)
	}
}

func TestParseFaceEmotionsSorts(t *testing.T) {
	t.Parallel()

	raw := `[
		{"emotion":"happy","confidence":0.9,"timestamp":"2025-05-12T14:30:02Z"},
		{"emotion":"sad","confidence":0.5,"timestamp":"2025-05-12T14:30:00.500Z"},
		{"emotion":"bored","confidence":null,"timestamp":"2025-05-12T14:30:01Z"},
		{"emotion":"neutral","confidence":0,"timestamp":"2025-05-12T14:30:01"}
	]`
	got, err := ParseFaceEmotions(json.RawMessage(raw))
	require.NoError(t, err)

	base := time.Date(2025, time.May, 12, 14, 30, 0, 0, time.UTC)
	want := []emotion.FaceEmotionRating{
		{Emotion: emotion.Sad, Confidence: 0.5, Timestamp: base.Add(500 * time.Millisecond)},
		{Emotion: emotion.Neutral, Confidence: 0, Timestamp: base.Add(time.Second)},
		{Emotion: emotion.Happy, Confidence: 0.9, Timestamp: base.Add(2 * time.Second)},
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Emotion, got[i].Emotion)
		assert.Equal(t, want[i].Confidence, got[i].Confidence)
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp), "entry %d: %v", i, got[i].Timestamp)
	}
	assert.True(t, emotion.IsSorted(got))
}

func TestParseFaceEmotionsShapes(t *testing.T) {
	t.Parallel()

	single := `{"emotion":"Engaged","confidence":0.7,"timestamp":"2025-05-12T14:30:00+02:00"}`
	got, err := ParseFaceEmotions(json.RawMessage(single))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, emotion.Engaged, got[0].Emotion)

	encoded, err := json.Marshal(single)
	require.NoError(t, err)
	got, err = ParseFaceEmotions(encoded)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = ParseFaceEmotions(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseFaceEmotionsErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseFaceEmotions(json.RawMessage(`[{"emotion":"elated","confidence":0.5,"timestamp":"2025-05-12T14:30:00Z"}]`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.ErrorIs(t, err, emotion.ErrUnknownEmotion)

	_, err = ParseFaceEmotions(json.RawMessage(`[{"emotion":"happy","confidence":0.5}]`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseFaceEmotions(json.RawMessage(`[{"emotion":"happy","confidence":0.5,"timestamp":"yesterday"}]`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseFaceEmotions(json.RawMessage(`{"emotion":`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
