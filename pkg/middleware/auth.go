package middleware

import (
	"context"
	"net/http"

	"github.com/samber/lo"

	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/ctx"
)

// Principal is the authenticated caller.
type Principal struct {
	ID       uint
	Username string
	Role     string
}

// AuthState is what a Guard learned about a request. A nil Principal with a
// nil Err means anonymous; Err is a lookup failure (answered with 500).
type AuthState struct {
	Principal *Principal
	Err       error
}

// Guard resolves the caller of a request. The auth service provides the
// session-backed implementation.
type Guard func(r *http.Request) AuthState

type principalKey struct{}

// RequireAuth answers 401 before the handler runs unless guard resolves an
// authenticated caller, who is then available through PrincipalFromCtx.
func RequireAuth(guard Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := guard(r)
			if state.Err != nil {
				ctx.WriteError(w, r, state.Err)
				return
			}
			if state.Principal == nil {
				ctx.WriteError(w, r, apperr.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), state.Principal)))
		})
	}
}

// RequireRole answers 403 to callers whose role is not listed. Mount it
// inside RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromCtx(r.Context())
			if !ok {
				ctx.WriteError(w, r, apperr.ErrUnauthenticated)
				return
			}
			if !lo.Contains(roles, p.Role) {
				ctx.WriteError(w, r, &apperr.ForbiddenError{})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithPrincipal stores p in ctx.
func WithPrincipal(c context.Context, p *Principal) context.Context {
	return context.WithValue(c, principalKey{}, p)
}

// PrincipalFromCtx returns the caller set by RequireAuth.
func PrincipalFromCtx(c context.Context) (*Principal, bool) {
	p, ok := c.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
