package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
	"github.com/mathbuddy/mathbuddy-go/internal/service"
)

var t0 = time.Date(2025, time.May, 12, 14, 30, 0, 0, time.UTC)

type fakeResponder struct {
	resp *model.TutorResponse
	err  error

	conversation []model.Message
	useEmotions  bool
	faces        []emotion.FaceEmotionRating
}

func (f *fakeResponder) Respond(_ context.Context, _ string, conversation []model.Message, useEmotions bool, faces []emotion.FaceEmotionRating) (*model.TutorResponse, error) {
	f.conversation = conversation
	f.useEmotions = useEmotions
	f.faces = faces
	return f.resp, f.err
}

type fakePredictor struct {
	resp *model.FaceEmotionResponse
	err  error
}

func (f *fakePredictor) PredictFaceEmotion(_ context.Context, _ string, image io.Reader) (*model.FaceEmotionResponse, error) {
	_, _ = io.Copy(io.Discard, image)
	return f.resp, f.err
}

type gatewayEnv struct {
	mr        *miniredis.Miniredis
	clock     *clockwork.FakeClock
	store     *service.SessionStore
	responder *fakeResponder
	predictor *fakePredictor
	feeds     *service.FeedService
	router    *gin.Engine
}

func newGatewayEnv(t *testing.T) *gatewayEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := zap.NewNop()
	clock := clockwork.NewFakeClockAt(t0)
	store := service.NewSessionStore(rdb, clock, time.Hour, logger)
	responder := &fakeResponder{resp: &model.TutorResponse{Response: "Let's start with the radius."}}
	predictor := &fakePredictor{resp: &model.FaceEmotionResponse{Emotion: emotion.Happy, Confidence: 0.9}}
	tutor := service.NewTutorService(store, responder, nil, logger)
	feeds := service.NewFeedService(clock, 30*time.Second, 60*time.Second, predictor, tutor, nil, logger)

	r := gin.New()
	sessions := NewSessionHandler(store, tutor, predictor, feeds, "session-gateway", logger).Register(r)
	sessions.GET("/feed", NewFeedHandler(feeds, nil, logger).HandleFeed)

	return &gatewayEnv{
		mr:        mr,
		clock:     clock,
		store:     store,
		responder: responder,
		predictor: predictor,
		feeds:     feeds,
		router:    r,
	}
}

func (e *gatewayEnv) createSession(t *testing.T, body string) string {
	t.Helper()

	w := doJSON(t, e.router, http.MethodPost, "/api/sessions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]string
	decode(t, w, &resp)
	require.NotEmpty(t, resp["sessionId"])
	return resp["sessionId"]
}

func (e *gatewayEnv) messages(t *testing.T, id string) []model.StoredMessage {
	t.Helper()

	w := doJSON(t, e.router, http.MethodGet, "/api/sessions/"+id+"/messages", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var msgs []model.StoredMessage
	decode(t, w, &msgs)
	return msgs
}

func TestCreateSession(t *testing.T) {
	env := newGatewayEnv(t)

	id := env.createSession(t, `{"userId":3,"condition":1,"usesEmotion":true}`)
	assert.True(t, env.mr.Exists("session:"+id))

	msgs := env.messages(t, id)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleTutor, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "MathBuddy tutor")
}

func TestCreateSessionRejectsBadInput(t *testing.T) {
	env := newGatewayEnv(t)

	for _, body := range []string{`{"condition":1,"usesEmotion":true}`, `{"userId":1,"condition":1}`, `{`} {
		w := doJSON(t, env.router, http.MethodPost, "/api/sessions", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"message":"Missing one or more of the required fields userId,usesEmotion"}`, w.Body.String())
	}

	w := doJSON(t, env.router, http.MethodPost, "/api/sessions", `{"userId":1,"condition":2,"usesEmotion":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid session data"}`, w.Body.String())
}

func TestUnknownSessionIsUnauthorized(t *testing.T) {
	env := newGatewayEnv(t)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/sessions/nope/messages", ""},
		{http.MethodPost, "/api/sessions/nope/messages", `{"role":"student","content":"hi"}`},
		{http.MethodDelete, "/api/sessions/nope/messages", ""},
		{http.MethodPost, "/api/sessions/nope/faceEmotions", `{"emotion":"happy","confidence":1}`},
		{http.MethodGet, "/api/sessions/nope/feed", ""},
	} {
		w := doJSON(t, env.router, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
		assert.JSONEq(t, `{"error":"Missing or invalid session ID"}`, w.Body.String())
	}
}

func TestValidateSessionTouchesSession(t *testing.T) {
	env := newGatewayEnv(t)
	id := env.createSession(t, `{"userId":1,"condition":0,"usesEmotion":false}`)

	env.clock.Advance(5 * time.Minute)
	env.messages(t, id)

	session, err := env.store.Session(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, t0.Equal(session.CreatedAt))
	assert.True(t, t0.Add(5*time.Minute).Equal(session.LastActive))
}

func TestPostStudentMessageAnswers(t *testing.T) {
	env := newGatewayEnv(t)
	id := env.createSession(t, `{"userId":0,"condition":1,"usesEmotion":true}`)
	env.responder.resp = &model.TutorResponse{
		Response:  "Good idea, what is the diagonal of the square?",
		UsedInput: model.UsedInput{MergedSentiment: emotion.SentimentPositive},
	}

	env.clock.Advance(time.Second)
	w := doJSON(t, env.router, http.MethodPost, "/api/sessions/"+id+"/faceEmotions", `{"emotion":"happy","confidence":0.8}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env.clock.Advance(time.Second)
	w = doJSON(t, env.router, http.MethodPost, "/api/sessions/"+id+"/messages", `{"role":"student","content":"use the diagonal"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp model.PostMessageResponse
	decode(t, w, &resp)
	require.NotNil(t, resp.UserMessage)
	require.NotNil(t, resp.AIResponse)
	assert.Equal(t, "use the diagonal", resp.UserMessage.Content)
	assert.Equal(t, emotion.SentimentPositive, resp.UserMessage.MergedSentiment)
	assert.Equal(t, model.RoleTutor, resp.AIResponse.Role)
	assert.Equal(t, "Good idea, what is the diagonal of the square?", resp.AIResponse.Content)

	assert.True(t, env.responder.useEmotions)
	assert.Len(t, env.responder.conversation, 2)
	require.Len(t, env.responder.faces, 1)
	assert.Equal(t, emotion.Happy, env.responder.faces[0].Emotion)

	msgs := env.messages(t, id)
	require.Len(t, msgs, 3)
	assert.Equal(t, emotion.SentimentPositive, msgs[1].MergedSentiment)
}

func TestPostMessageBackendFailure(t *testing.T) {
	env := newGatewayEnv(t)
	id := env.createSession(t, `{"userId":0,"condition":0,"usesEmotion":false}`)
	env.responder.err = errors.New("connection refused")

	w := doJSON(t, env.router, http.MethodPost, "/api/sessions/"+id+"/messages", `{"role":"student","content":"hello"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp model.PostMessageResponse
	decode(t, w, &resp)
	require.NotNil(t, resp.AIResponse)
	assert.Equal(t, service.BackendFailureReply, resp.AIResponse.Content)
	assert.False(t, env.responder.useEmotions)
}

func TestPostNonStudentMessage(t *testing.T) {
	env := newGatewayEnv(t)
	id := env.createSession(t, `{"userId":0,"condition":0,"usesEmotion":false}`)

	w := doJSON(t, env.router, http.MethodPost, "/api/sessions/"+id+"/messages", `{"role":"dean","content":"keep going"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var msg model.StoredMessage
	decode(t, w, &msg)
	assert.Equal(t, model.RoleDean, msg.Role)
	assert.Nil(t, env.responder.conversation)
	assert.Len(t, env.messages(t, id), 2)
}

func TestPostMessageRejectsBadInput(t *testing.T) {
	env := newGatewayEnv(t)
	id := env.createSession(t, `{"userId":0,"condition":0,"usesEmotion":false}`)

	for _, body := range []string{`{"role":"teacher","content":"hi"}`, `{"role":"student","content":"  "}`, `{"role":`} {
		w := doJSON(t, env.router, http.MethodPost, "/api/sessions/"+id+"/messages", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"Invalid message data"}`, w.Body.String())
	}
	assert.Len(t, env.messages(t, id), 1)
}

func TestDeleteMessages(t *testing.T) {
	env := newGatewayEnv(t)
	id := env.createSession(t, `{"userId":0,"condition":-1,"usesEmotion":false}`)

	w := doJSON(t, env.router, http.MethodDelete, "/api/sessions/"+id+"/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Chat successfully deleted"}`, w.Body.String())
	assert.Empty(t, env.messages(t, id))
}

func TestPostFaceEmotion(t *testing.T) {
	env := newGatewayEnv(t)
	id := env.createSession(t, `{"userId":0,"condition":1,"usesEmotion":true}`)

	w := doJSON(t, env.router, http.MethodPost, "/api/sessions/"+id+"/faceEmotions", `{"emotion":"Confused","confidence":0.55}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var face emotion.FaceEmotionRating
	decode(t, w, &face)
	assert.Equal(t, emotion.Confused, face.Emotion)
	assert.Equal(t, 0.55, face.Confidence)
	assert.True(t, t0.Equal(face.Timestamp))

	for _, body := range []string{`{"emotion":"elated","confidence":0.5}`, `{"confidence":0.5}`, `[]`} {
		w := doJSON(t, env.router, http.MethodPost, "/api/sessions/"+id+"/faceEmotions", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	faces, err := env.store.FaceEmotionsSince(context.Background(), id, t0)
	require.NoError(t, err)
	assert.Len(t, faces, 1)
}

func TestProxyFaceEmotion(t *testing.T) {
	env := newGatewayEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, imageRequest(t, "/api/emotion/face", "image", "frame.jpg", []byte("jpeg")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"emotion":"happy","confidence":0.9}`, w.Body.String())

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, imageRequest(t, "/api/emotion/face", "file", "frame.jpg", []byte("jpeg")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"No file uploaded"}`, w.Body.String())

	env.predictor.err = errors.New("backend down")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, imageRequest(t, "/api/emotion/face", "image", "frame.jpg", []byte("jpeg")))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGatewayHealth(t *testing.T) {
	env := newGatewayEnv(t)

	w := doJSON(t, env.router, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP","service":"session-gateway","live_feeds":0}`, w.Body.String())
}
