// Package ctx provides a gin.Context-inspired request context for handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context with helpers for binding, path ids and the JSON
// responses the API speaks:
//
//	func ShowCategory(c *ctx.Context) {
//	    id, ok := c.ParamID("id")
//	    ...
//	    c.JSON(http.StatusOK, category)
//	}
//
//	router.Get("/categories/{id}", "categories.show", ctx.Wrap(ShowCategory))
package ctx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/decorhub/decorhub/config"
	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/bind"
	"github.com/decorhub/decorhub/pkg/logger"
	"github.com/decorhub/decorhub/pkg/session"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// ParamID parses a positive integer path parameter. Anything else (zero,
// negative, non-numeric, overflow) reports false and the caller answers 404.
func (c *Context) ParamID(key string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || n == 0 || n > uint64(^uint(0)) {
		return 0, false
	}
	return uint(n), true
}

// Query returns a query-string value. Returns "" if not present.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// Header returns the value of a request header.
func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// ClientIP returns the client IP, respecting X-Forwarded-For.
func (c *Context) ClientIP() string {
	return ClientIP(c.R)
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Session is the cookie session loaded by session.Middleware.
func (c *Context) Session() *session.Session { return session.FromCtx(c.R) }

// Logger is the request-scoped logger (tagged with request_id).
func (c *Context) Logger() *slog.Logger { return logger.WithCtx(c.R.Context()) }

// Bind decodes the JSON body into dest, normalises and validates it. The
// error is an *apperr.ValidationError and can be handed straight to Fail.
func (c *Context) Bind(dest any) error {
	return bind.JSON(c.R, dest)
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// JSON writes v as the response body with the given status code.
func (c *Context) JSON(code int, v any) {
	c.status = code
	writeJSON(c.W, code, v)
}

// OK writes v with 200.
func (c *Context) OK(v any) { c.JSON(http.StatusOK, v) }

// Created writes v with 201.
func (c *Context) Created(v any) { c.JSON(http.StatusCreated, v) }

// Message writes {"message": msg}.
func (c *Context) Message(code int, msg string) {
	c.JSON(code, Body{Message: msg})
}

// NotFound writes a 404 with the given message.
func (c *Context) NotFound(msg string) { c.Message(http.StatusNotFound, msg) }

// Fail maps err onto its status code and writes the error body.
func (c *Context) Fail(err error) {
	c.status = apperr.Status(err)
	WriteError(c.W, c.R, err)
}

// WrittenStatus returns the status written so far, 0 before any write.
func (c *Context) WrittenStatus() int { return c.status }

// ─── Shared helpers (also used by middleware) ────────────────────────────────

// Body is the error response shape.
type Body struct {
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

// WriteError writes the client view of err. Server-side failures are logged
// with their cause and answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	body := Body{Message: apperr.PublicMessage(err)}

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		body.Errors = ve.Fields
	}
	if status >= http.StatusInternalServerError {
		logger.WithCtx(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, body)
}

// ClientIP returns the address the request came from. X-Forwarded-For and
// X-Real-Ip are only believed when the peer is in TRUSTED_PROXIES; then the
// right-most X-Forwarded-For hop that is not itself a trusted proxy wins.
func ClientIP(r *http.Request) string {
	remote := remoteIP(r.RemoteAddr)
	trusted := config.TrustedProxies()
	if !isTrusted(remote, trusted) {
		return remote
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if i == 0 || !isTrusted(hop, trusted) {
				return hop
			}
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-Ip")); real != "" {
		return real
	}
	return remote
}

func remoteIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}

func isTrusted(ip string, proxies []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
