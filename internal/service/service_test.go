package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2025, time.May, 12, 14, 30, 0, 0, time.UTC)

type testEnv struct {
	mr    *miniredis.Miniredis
	rdb   *redis.Client
	clock *clockwork.FakeClock
	store *SessionStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clock := clockwork.NewFakeClockAt(t0)
	return &testEnv{
		mr:    mr,
		rdb:   rdb,
		clock: clock,
		store: NewSessionStore(rdb, clock, time.Hour, zap.NewNop()),
	}
}

func (e *testEnv) createSession(t *testing.T, userID, condition int) string {
	t.Helper()
	session, _, err := e.store.CreateSession(context.Background(), userID, condition, true)
	require.NoError(t, err)
	return session.SessionID
}
