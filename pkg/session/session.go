// Package session provides cookie-identified, server-side HTTP sessions.
//
// Usage (middleware):
//
//	r.Use(session.Middleware(opts))
//
// Usage (handler):
//
//	sess := session.FromCtx(r)
//	sess.Regenerate()
//	sess.Set(session.UserIDKey, user.ID)
//	err := sess.Save(r.Context(), w)
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/decorhub/decorhub/pkg/logger"
	"github.com/decorhub/decorhub/pkg/metrics"
)

// UserIDKey holds the authenticated user's id.
const UserIDKey = "user_id"

// ------------------- Options -------------------

// Options configures session behaviour.
type Options struct {
	Store      Store
	CookieName string
	TTL        time.Duration
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

// DefaultOptions returns the cookie settings used by decorhub.
func DefaultOptions(store Store) Options {
	return Options{
		Store:      store,
		CookieName: "decorhub_session",
		TTL:        24 * time.Hour,
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

// ------------------- Session -------------------

type ctxKey struct{}

// Session is the in-request handle. Changes are persisted by Save.
type Session struct {
	id      string
	oldID   string
	data    map[string]interface{}
	opts    Options
	changed bool
	gone    bool
}

// newID generates a cryptographically random 32-byte hex session ID.
func newID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("session: crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

func (s *Session) ID() string { return s.id }

func (s *Session) Set(key string, value interface{}) {
	s.data[key] = value
	s.changed = true
}

func (s *Session) Get(key string) (interface{}, bool) {
	v, ok := s.data[key]
	return v, ok
}

// GetUint reads an id-like value. JSON round trips turn numbers into float64.
func (s *Session) GetUint(key string) (uint, bool) {
	switch n := s.data[key].(type) {
	case float64:
		if n > 0 {
			return uint(n), true
		}
	case uint:
		return n, true
	case int:
		if n > 0 {
			return uint(n), true
		}
	}
	return 0, false
}

func (s *Session) Delete(key string) {
	delete(s.data, key)
	s.changed = true
}

// Regenerate moves the session to a fresh id; the old id is destroyed on
// Save. Call it whenever the privilege level changes (login).
func (s *Session) Regenerate() {
	if s.oldID == "" {
		s.oldID = s.id
	}
	s.id = newID()
	s.changed = true
	s.gone = false
}

// Invalidate destroys the session (logout). Save removes the server-side
// record and expires the cookie.
func (s *Session) Invalidate() {
	s.data = map[string]interface{}{}
	s.gone = true
	s.changed = true
}

// Save persists pending changes and writes the cookie. It must run before
// the response body is written.
func (s *Session) Save(ctx context.Context, w http.ResponseWriter) error {
	if !s.changed {
		return nil
	}
	store := s.opts.Store

	if s.oldID != "" {
		if err := store.Destroy(ctx, s.oldID); err != nil {
			return fmt.Errorf("session: destroy previous: %w", err)
		}
		s.oldID = ""
	}

	if s.gone {
		if err := store.Destroy(ctx, s.id); err != nil {
			return fmt.Errorf("session: destroy: %w", err)
		}
		http.SetCookie(w, s.cookie("", -1))
		s.changed = false
		return nil
	}

	if err := store.Save(ctx, s.id, s.data, s.opts.TTL); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	http.SetCookie(w, s.cookie(s.id, int(s.opts.TTL.Seconds())))
	s.changed = false
	return nil
}

func (s *Session) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    value,
		Path:     s.opts.Path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: s.opts.SameSite,
	}
}

// ------------------- Middleware -------------------

// Middleware loads the session named by the cookie, or starts an empty one,
// and injects it into the request context. Unknown or expired ids start a
// new anonymous session; nothing is written until a handler calls Save.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &Session{opts: opts, data: map[string]interface{}{}}

			if c, err := r.Cookie(opts.CookieName); err == nil && c.Value != "" {
				data, found, err := opts.Store.Load(r.Context(), c.Value)
				switch {
				case err != nil:
					logger.WithCtx(r.Context()).Warn("session: load failed", "error", err)
				case found:
					sess.id = c.Value
					sess.data = data
				}
				result := "miss"
				if found {
					result = "hit"
				}
				metrics.SessionLookups.WithLabelValues(opts.Store.Driver(), result).Inc()
			}
			if sess.id == "" {
				sess.id = newID()
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromCtx returns the request's session. Outside the middleware it returns
// a detached empty session backed by a throwaway memory store.
func FromCtx(r *http.Request) *Session {
	if s, ok := r.Context().Value(ctxKey{}).(*Session); ok {
		return s
	}
	return &Session{id: newID(), data: map[string]interface{}{}, opts: DefaultOptions(NewMemoryStore())}
}
