package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorhub/decorhub/pkg/router"
)

func TestGroupsApplyMiddlewareInOrder(t *testing.T) {
	var trail []string
	mw := func(tag string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trail = append(trail, tag)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := router.New()
	admin := r.Group("/api").Group("/admin", mw("auth"), mw("role"))
	admin.Delete("/categories/{id}", "admin.categories.destroy", func(w http.ResponseWriter, _ *http.Request) {
		trail = append(trail, "handler")
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/categories/3", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"auth", "role", "handler"}, trail)
}

func TestNamedRoutes(t *testing.T) {
	r := router.New()
	api := r.Group("/api")
	api.Get("/products/{id}", "products.show", func(http.ResponseWriter, *http.Request) {})
	api.Put("/admin/products/{id}", "", func(http.ResponseWriter, *http.Request) {})

	url, err := r.URL("products.show", map[string]string{"id": "5"})
	require.NoError(t, err)
	assert.Equal(t, "/api/products/5", url)

	_, err = r.URL("products.show", nil)
	assert.Error(t, err)

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, router.RouteInfo{Method: "PUT", Path: "/api/admin/products/{id}"}, routes[0])
}

func TestMountStripsPrefix(t *testing.T) {
	r := router.New()
	r.Mount("/storage", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(req.URL.Path))
	}))
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/products/a.jpg", nil))
	assert.Equal(t, "/products/a.jpg", rec.Body.String())
}
