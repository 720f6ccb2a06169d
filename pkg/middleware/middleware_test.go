package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/middleware"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthRejectsAnonymousBeforeHandler(t *testing.T) {
	called := false
	h := middleware.RequireAuth(func(*http.Request) middleware.AuthState {
		return middleware.AuthState{}
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := do(h, httptest.NewRequest(http.MethodPost, "/api/admin/categories", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
	assert.False(t, called)
}

func TestRequireAuthGuardFailureIs500(t *testing.T) {
	h := middleware.RequireAuth(func(*http.Request) middleware.AuthState {
		return middleware.AuthState{Err: &apperr.StoreUnavailableError{Op: "find user", Err: errors.New("timeout")}}
	})(ok)
	rec := do(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireRole(t *testing.T) {
	guardAs := func(role string) middleware.Guard {
		return func(*http.Request) middleware.AuthState {
			return middleware.AuthState{Principal: &middleware.Principal{ID: 1, Username: "x", Role: role}}
		}
	}
	chain := func(role string) http.Handler {
		return middleware.RequireAuth(guardAs(role))(middleware.RequireRole("admin")(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				p, found := middleware.PrincipalFromCtx(r.Context())
				require.True(t, found)
				assert.Equal(t, "admin", p.Role)
			})))
	}

	assert.Equal(t, http.StatusOK, do(chain("admin"), httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	assert.Equal(t, http.StatusForbidden, do(chain("user"), httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, do(middleware.RequireRole("admin")(ok), httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec := do(h, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))

	rec = do(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(middleware.RequestIDHeader), 16)
}

func TestRecoveryReturnsGeneric500(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := do(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}

func TestRateLimitPerIP(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := middleware.NewMemoryLimiter(2, time.Minute).WithClock(func() time.Time { return now })
	h := middleware.RateLimit("inquiries", l)(ok)

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = ip + ":4000"
		return do(h, req).Code
	}

	assert.Equal(t, 200, from("198.51.100.1"))
	assert.Equal(t, 200, from("198.51.100.1"))
	assert.Equal(t, 429, from("198.51.100.1"))
	assert.Equal(t, 200, from("198.51.100.2"))

	now = now.Add(2 * time.Minute)
	l.Sweep()
	assert.Equal(t, 200, from("198.51.100.1"))
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	l := middleware.NewMemoryLimiter(1, time.Minute)
	h := middleware.RateLimit("login", l)(ok)

	codes := make([]int, 0, 3)
	for _, fwd := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "198.51.100.9:4000"
		req.Header.Set("X-Forwarded-For", fwd)
		codes = append(codes, do(h, req).Code)
	}
	assert.Equal(t, []int{200, 429, 429}, codes)
}

func TestCORS(t *testing.T) {
	h := middleware.CORS(middleware.CORSOptions{
		AllowedOrigins:   []string{"https://decor.example"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowCredentials: true,
	})(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "https://decor.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := do(h, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://decor.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = do(h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
