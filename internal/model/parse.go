package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
)

// ErrInvalidPayload is returned when a request field cannot be decoded.
var ErrInvalidPayload = errors.New("invalid payload")

// timestamp layouts accepted besides RFC 3339; zone-less values are UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// entries decodes raw as a list of objects. A single object becomes a list of
// one; a JSON string is decoded again. Null or empty input yields no entries.
func entries(raw json.RawMessage) ([]map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return entries(json.RawMessage(inner))
	}

	if raw[0] == '{' {
		var one map[string]json.RawMessage
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return []map[string]json.RawMessage{one}, nil
	}

	var list []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return list, nil
}

func stringField(entry map[string]json.RawMessage, key string) string {
	var s string
	if v, ok := entry[key]; ok {
		_ = json.Unmarshal(v, &s)
	}
	return s
}

// ParseConversation decodes a conversation, dropping entries without a role
// or content.
func ParseConversation(raw json.RawMessage) ([]Message, error) {
	list, err := entries(raw)
	if err != nil {
		return nil, fmt.Errorf("parse conversation: %w", err)
	}

	result := make([]Message, 0, len(list))
	for _, entry := range list {
		role := stringField(entry, "role")
		content := stringField(entry, "content")
		if role == "" || content == "" {
			continue
		}
		result = append(result, Message{Role: Role(role), Content: content})
	}
	return result, nil
}

// ParseFaceEmotions decodes face observations and returns them ascending by
// timestamp. Entries without a confidence are dropped; an unknown emotion or a
// missing timestamp fails the whole payload.
func ParseFaceEmotions(raw json.RawMessage) ([]emotion.FaceEmotionRating, error) {
	list, err := entries(raw)
	if err != nil {
		return nil, fmt.Errorf("parse face emotions: %w", err)
	}

	result := make([]emotion.FaceEmotionRating, 0, len(list))
	for i, entry := range list {
		e, err := emotion.Parse(stringField(entry, "emotion"))
		if err != nil {
			return nil, fmt.Errorf("parse face emotions: %w: entry %d: %w", ErrInvalidPayload, i, err)
		}

		var confidence *float64
		if v, ok := entry["confidence"]; ok {
			if err := json.Unmarshal(v, &confidence); err != nil {
				return nil, fmt.Errorf("parse face emotions: %w: entry %d: confidence: %v", ErrInvalidPayload, i, err)
			}
		}
		if confidence == nil {
			continue
		}

		ts, err := ParseTimestamp(stringField(entry, "timestamp"))
		if err != nil {
			return nil, fmt.Errorf("parse face emotions: %w: entry %d: %w", ErrInvalidPayload, i, err)
		}

		result = append(result, emotion.FaceEmotionRating{Emotion: e, Confidence: *confidence, Timestamp: ts})
	}

	emotion.SortByTimestamp(result)
	return result, nil
}

// ParseTimestamp parses an ISO 8601 timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
