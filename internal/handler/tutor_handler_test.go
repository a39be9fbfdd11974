package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/client"
	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
	"github.com/mathbuddy/mathbuddy-go/internal/tutor"
)

type fakeTutor struct {
	reply string
	used  model.UsedInput
	err   error

	conversation []model.Message
	useEmotion   bool
	faces        []emotion.FaceEmotionRating

	emotion    emotion.Emotion
	confidence float64
	faceErr    error
	filename   string
	image      []byte
}

func (f *fakeTutor) GenerateResponse(_ context.Context, conversation []model.Message, useEmotion bool, faces []emotion.FaceEmotionRating) (string, model.UsedInput, error) {
	f.conversation = conversation
	f.useEmotion = useEmotion
	f.faces = faces
	return f.reply, f.used, f.err
}

func (f *fakeTutor) PredictFaceEmotion(_ context.Context, filename string, image io.Reader) (emotion.Emotion, float64, error) {
	f.filename = filename
	f.image, _ = io.ReadAll(image)
	return f.emotion, f.confidence, f.faceErr
}

func newTutorRouter(t tutor.Tutor) *gin.Engine {
	r := gin.New()
	NewTutorHandler(t, "tutor-backend", zap.NewNop()).Register(r)
	return r
}

func TestTutorRequiredFields(t *testing.T) {
	r := newTutorRouter(&fakeTutor{})

	tests := []struct {
		body string
		want string
	}{
		{`{"useEmotions":false,"messageEmotions":[]}`, "JSON data is missing required 'conversation' value"},
		{`{"conversation":[],"messageEmotions":[]}`, "JSON data is missing required 'useEmotions' value"},
		{`{"conversation":[],"useEmotions":false}`, "JSON data is missing required 'messageEmotions' value"},
	}
	for _, tt := range tests {
		w := doJSON(t, r, http.MethodPost, "/tutor", tt.body)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body map[string]string
		decode(t, w, &body)
		assert.Equal(t, tt.want, body["error"])
	}
}

func TestTutorRejectsMalformedBodies(t *testing.T) {
	r := newTutorRouter(&fakeTutor{})

	for _, body := range []string{
		`not json`,
		`[1,2]`,
		`{"conversation":[],"useEmotions":"yes","messageEmotions":[]}`,
		`{"conversation":[],"useEmotions":true,"messageEmotions":[{"emotion":"elated","confidence":1,"timestamp":"2025-05-12T14:30:00Z"}]}`,
	} {
		w := doJSON(t, r, http.MethodPost, "/tutor", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestTutorFieldTypes(t *testing.T) {
	r := newTutorRouter(&fakeTutor{reply: "ok"})

	w := doJSON(t, r, http.MethodPost, "/tutor", `{"sessionId":42,"conversation":[],"useEmotions":false,"messageEmotions":[]}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/tutor", `{"sessionId":"s-1","conversation":[],"useEmotions":1,"messageEmotions":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"useEmotions must be a boolean"}`, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/tutor", `{"conversation":42,"useEmotions":true,"messageEmotions":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "useEmotions")
}

func TestLooseString(t *testing.T) {
	assert.Equal(t, "s-1", looseString([]byte(`"s-1"`)))
	assert.Equal(t, "42", looseString([]byte(`42`)))
	assert.Equal(t, "", looseString(nil))
}

func TestTutorReply(t *testing.T) {
	confidence := 0.8
	ft := &fakeTutor{
		reply: "What do you get when you subtract 3 from both sides?",
		used: model.UsedInput{
			Sentiment:                &emotion.SentimentRating{NeutralConfidence: 0.2, BoredomConfidence: 0.1, EngagementConfidence: 0.7},
			SentimentAggFaceEmotion:  emotion.SentimentNegative,
			ConfidenceAggFaceEmotion: &confidence,
			MergedSentiment:          emotion.SentimentNegative,
		},
	}
	r := newTutorRouter(ft)

	body := `{
		"sessionId": "s-1",
		"conversation": [{"role":"tutor","content":"Solve x + 3 = 5"},{"role":"student","content":"no idea"}],
		"useEmotions": true,
		"messageEmotions": [
			{"emotion":"confused","confidence":0.7,"timestamp":"2025-05-12T14:30:05Z"},
			{"emotion":"happy","confidence":0.9,"timestamp":"2025-05-12T14:30:01Z"}
		]
	}`
	w := doJSON(t, r, http.MethodPost, "/tutor", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got map[string]interface{}
	decode(t, w, &got)
	assert.Equal(t, ft.reply, got["response"])
	assert.Equal(t, "negative", got["mergedSentiment"])
	assert.Equal(t, "negative", got["sentimentAggFaceEmotion"])
	assert.Equal(t, 0.8, got["confidenceAggFaceEmotion"])
	assert.NotContains(t, got, "description")

	assert.True(t, ft.useEmotion)
	require.Len(t, ft.conversation, 2)
	assert.Equal(t, model.RoleStudent, ft.conversation[1].Role)
	require.Len(t, ft.faces, 2)
	assert.Equal(t, emotion.Happy, ft.faces[0].Emotion)
	assert.Equal(t, emotion.Confused, ft.faces[1].Emotion)
}

func TestTutorAcceptsEncodedPayloads(t *testing.T) {
	ft := &fakeTutor{reply: "ok"}
	r := newTutorRouter(ft)

	body := `{
		"conversation": "[{\"role\":\"student\",\"content\":\"hi\"}]",
		"useEmotions": false,
		"messageEmotions": "[]"
	}`
	w := doJSON(t, r, http.MethodPost, "/tutor", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []model.Message{{Role: model.RoleStudent, Content: "hi"}}, ft.conversation)
	assert.False(t, ft.useEmotion)
	assert.Empty(t, ft.faces)
}

func TestTutorErrors(t *testing.T) {
	body := `{"conversation":[],"useEmotions":false,"messageEmotions":[]}`

	w := doJSON(t, newTutorRouter(&fakeTutor{err: tutor.ErrEmptyConversation}), http.MethodPost, "/tutor", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, newTutorRouter(&fakeTutor{err: errors.New("llm down")}), http.MethodPost, "/tutor", body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Something went wrong."}`, w.Body.String())
}

func TestFaceEmotionUpload(t *testing.T) {
	ft := &fakeTutor{emotion: emotion.Happy, confidence: 0.93}
	r := newTutorRouter(ft)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, imageRequest(t, "/faceEmotion", "image", "frame.jpg", []byte("jpeg-bytes")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"emotion":"happy","confidence":0.93}`, w.Body.String())
	assert.Equal(t, "frame.jpg", ft.filename)
	assert.Equal(t, []byte("jpeg-bytes"), ft.image)
}

func TestFaceEmotionUploadErrors(t *testing.T) {
	tests := []struct {
		name  string
		tutor *fakeTutor
		req   func(t *testing.T) *http.Request
		code  int
		want  string
	}{
		{
			name:  "no image part",
			tutor: &fakeTutor{},
			req: func(t *testing.T) *http.Request {
				return imageRequest(t, "/faceEmotion", "photo", "frame.jpg", []byte("x"))
			},
			code: http.StatusBadRequest,
			want: "No image part in the request",
		},
		{
			name:  "not multipart",
			tutor: &fakeTutor{},
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/faceEmotion", nil)
			},
			code: http.StatusBadRequest,
			want: "No image part in the request",
		},
		{
			name:  "no file selected",
			tutor: &fakeTutor{},
			req: func(t *testing.T) *http.Request {
				return imageRequest(t, "/faceEmotion", "image", "", []byte("x"))
			},
			code: http.StatusBadRequest,
			want: "No file selected for uploading",
		},
		{
			name:  "classifier unavailable",
			tutor: &fakeTutor{faceErr: client.ErrClassifierUnavailable},
			req: func(t *testing.T) *http.Request {
				return imageRequest(t, "/faceEmotion", "image", "frame.jpg", []byte("x"))
			},
			code: http.StatusServiceUnavailable,
		},
		{
			name:  "classifier failure",
			tutor: &fakeTutor{faceErr: errors.New("boom")},
			req: func(t *testing.T) *http.Request {
				return imageRequest(t, "/faceEmotion", "image", "frame.jpg", []byte("x"))
			},
			code: http.StatusInternalServerError,
			want: "Something went wrong.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newTutorRouter(tt.tutor).ServeHTTP(w, tt.req(t))
			assert.Equal(t, tt.code, w.Code)
			if tt.want != "" {
				var body map[string]string
				decode(t, w, &body)
				assert.Equal(t, tt.want, body["error"])
			}
		})
	}
}

func TestTutorHealth(t *testing.T) {
	w := doJSON(t, newTutorRouter(&fakeTutor{}), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP","service":"tutor-backend"}`, w.Body.String())
}
