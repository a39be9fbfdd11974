package model

import "time"

// Session a tutoring session of the gateway. Condition selects the problem and
// whether emotions are used: 0 disables them, a negative value starts a free
// conversation without a problem.
type Session struct {
	SessionID   string    `json:"sessionId"`
	UserID      int       `json:"userId"`
	Condition   int       `json:"condition"`
	UsesEmotion bool      `json:"usesEmotion"`
	CreatedAt   time.Time `json:"createdAt"`
	LastActive  time.Time `json:"lastActive"`
}

// UsesEmotions reports whether the tutor should receive emotion signals.
func (s Session) UsesEmotions() bool {
	return s.Condition != 0
}

// CreateSessionRequest body of POST /api/sessions
type CreateSessionRequest struct {
	UserID      *int  `json:"userId"`
	Condition   int   `json:"condition"`
	UsesEmotion *bool `json:"usesEmotion"`
}

// CreateMessageRequest body of POST /api/sessions/:sessionId/messages
type CreateMessageRequest struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CreateFaceEmotionRequest body of POST /api/sessions/:sessionId/faceEmotions
type CreateFaceEmotionRequest struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}
