package model

import (
	"encoding/json"
	"time"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
)

// Role author of a conversation message
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleDean    Role = "dean"
	RoleSystem  Role = "system"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleDean, RoleSystem:
		return true
	}
	return false
}

// Message one turn of a conversation as sent to the tutor
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// StoredMessage a message persisted by the session gateway, with the emotion
// annotations recorded when the tutor answered it.
type StoredMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	UsedInput
}

// Message drops the storage fields.
func (m StoredMessage) Message() Message {
	return Message{Role: m.Role, Content: m.Content}
}

// Annotate copies the emotion fields of used onto m.
func (m *StoredMessage) Annotate(used UsedInput) {
	if used.Sentiment != nil {
		m.Sentiment = used.Sentiment
	}
	if used.SentimentAggFaceEmotion != "" && used.ConfidenceAggFaceEmotion != nil {
		m.SentimentAggFaceEmotion = used.SentimentAggFaceEmotion
		m.ConfidenceAggFaceEmotion = used.ConfidenceAggFaceEmotion
	}
	if used.MergedSentiment != "" {
		m.MergedSentiment = used.MergedSentiment
	}
}

// TutorRequest body of POST /tutor. Conversation and MessageEmotions stay raw
// because clients send an array, a single object or a JSON-encoded string.
type TutorRequest struct {
	SessionID       string          `json:"sessionId,omitempty"`
	Conversation    json.RawMessage `json:"conversation"`
	UseEmotions     *bool           `json:"useEmotions"`
	MessageEmotions json.RawMessage `json:"messageEmotions"`
}

// UsedInput what the tutor fed into its prompt besides the conversation
type UsedInput struct {
	Sentiment                *emotion.SentimentRating `json:"sentiment,omitempty"`
	SentimentAggFaceEmotion  emotion.Sentiment        `json:"sentimentAggFaceEmotion,omitempty"`
	ConfidenceAggFaceEmotion *float64                 `json:"confidenceAggFaceEmotion,omitempty"`
	MergedSentiment          emotion.Sentiment        `json:"mergedSentiment,omitempty"`
	Description              string                   `json:"description,omitempty"`
	QATuples                 string                   `json:"qaTuples,omitempty"`
}

// TutorResponse body returned by POST /tutor
type TutorResponse struct {
	Response string `json:"response"`
	UsedInput
}

// FaceEmotionResponse body returned by POST /faceEmotion
type FaceEmotionResponse struct {
	Emotion    emotion.Emotion `json:"emotion"`
	Confidence float64         `json:"confidence"`
}

// PostMessageResponse gateway reply to a student message
type PostMessageResponse struct {
	UserMessage *StoredMessage `json:"userMessage"`
	AIResponse  *StoredMessage `json:"aiResponse"`
}
