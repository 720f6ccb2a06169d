// Package kernel assembles the HTTP handler: global middleware, the
// Prometheus endpoint and the API routes.
package kernel

import (
	"net/http"

	"github.com/decorhub/decorhub/app/routes"
	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/ctx"
	"github.com/decorhub/decorhub/pkg/metrics"
	"github.com/decorhub/decorhub/pkg/middleware"
	"github.com/decorhub/decorhub/pkg/router"
	"github.com/decorhub/decorhub/pkg/session"
)

type HTTPKernel struct {
	router *router.Router
}

// NewHTTPKernel builds the router. Global middleware, outermost first:
//
//  1. metrics     total latency per route pattern
//  2. request id  before anything logs
//  3. logger      request logger tagged with request_id
//  4. recovery    panics become a logged 500
//  5. CORS        answers preflights before the session is touched
//  6. session     loads the cookie session
func NewHTTPKernel(deps routes.Deps, sessions session.Options, cors middleware.CORSOptions) *HTTPKernel {
	r := router.New()

	r.Use(metrics.Middleware())
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(cors))
	r.Use(session.Middleware(sessions))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		ctx.WriteError(w, req, apperr.NotFound("Route", 0))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"message":"Method not allowed"}`))
	})

	r.Get("/metrics", "metrics", metrics.Handler())
	routes.RegisterAPI(r, deps)

	return &HTTPKernel{router: r}
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

func (k *HTTPKernel) Router() *router.Router { return k.router }
