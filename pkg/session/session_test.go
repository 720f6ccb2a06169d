package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorhub/decorhub/pkg/session"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func serve(t *testing.T, opts session.Options, h http.HandlerFunc, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	session.Middleware(opts)(h).ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "decorhub_session" {
			return c
		}
	}
	return nil
}

func TestAnonymousRequestWritesNoCookie(t *testing.T) {
	opts := session.DefaultOptions(session.NewMemoryStore())
	rec := serve(t, opts, func(w http.ResponseWriter, r *http.Request) {
		_, ok := session.FromCtx(r).GetUint(session.UserIDKey)
		assert.False(t, ok)
	})
	assert.Nil(t, sessionCookie(rec))
}

func TestLoginRotatesAndPersists(t *testing.T) {
	store := session.NewMemoryStore()
	opts := session.DefaultOptions(store)

	// Visitor arrives with a pre-existing (attacker-chosen) session.
	require.NoError(t, store.Save(context.Background(), "fixated", map[string]interface{}{}, time.Hour))

	rec := serve(t, opts, func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromCtx(r)
		assert.Equal(t, "fixated", sess.ID())
		sess.Regenerate()
		sess.Set(session.UserIDKey, uint(7))
		require.NoError(t, sess.Save(r.Context(), w))
	}, &http.Cookie{Name: "decorhub_session", Value: "fixated"})

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.NotEqual(t, "fixated", c.Value)
	assert.Len(t, c.Value, 64)
	assert.True(t, c.HttpOnly)

	_, found, _ := store.Load(context.Background(), "fixated")
	assert.False(t, found, "old id must be destroyed")

	serve(t, opts, func(w http.ResponseWriter, r *http.Request) {
		id, ok := session.FromCtx(r).GetUint(session.UserIDKey)
		assert.True(t, ok)
		assert.Equal(t, uint(7), id)
	}, c)
}

func TestInvalidateExpiresCookie(t *testing.T) {
	store := session.NewMemoryStore()
	opts := session.DefaultOptions(store)
	require.NoError(t, store.Save(context.Background(), "abc", map[string]interface{}{session.UserIDKey: float64(1)}, time.Hour))

	rec := serve(t, opts, func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromCtx(r)
		sess.Invalidate()
		require.NoError(t, sess.Save(r.Context(), w))
	}, &http.Cookie{Name: "decorhub_session", Value: "abc"})

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)

	_, found, _ := store.Load(context.Background(), "abc")
	assert.False(t, found)
}

func TestMemoryStoreExpiry(t *testing.T) {
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := session.NewMemoryStore().WithClock(clk.now)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", map[string]interface{}{"k": "v"}, time.Minute))
	require.NoError(t, store.Save(ctx, "s2", map[string]interface{}{"k": "v"}, time.Hour))

	clk.t = clk.t.Add(2 * time.Minute)
	_, found, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)

	store.Sweep()
	data, found, _ := store.Load(ctx, "s2")
	assert.True(t, found)
	assert.Equal(t, "v", data["k"])
}

func TestUnknownCookieStartsFreshSession(t *testing.T) {
	opts := session.DefaultOptions(session.NewMemoryStore())
	serve(t, opts, func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromCtx(r)
		assert.NotEqual(t, "stale", sess.ID())
		_, ok := sess.GetUint(session.UserIDKey)
		assert.False(t, ok)
	}, &http.Cookie{Name: "decorhub_session", Value: "stale"})
}
