// Package routes declares every HTTP route of the API.
package routes

import (
	"net/http"
	"strings"

	gql "github.com/graphql-go/graphql"

	"github.com/decorhub/decorhub/app/controllers"
	"github.com/decorhub/decorhub/app/graphql"
	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/app/repositories"
	"github.com/decorhub/decorhub/app/services"
	"github.com/decorhub/decorhub/pkg/ctx"
	"github.com/decorhub/decorhub/pkg/middleware"
	"github.com/decorhub/decorhub/pkg/router"
	"github.com/decorhub/decorhub/pkg/storage"
	"github.com/decorhub/decorhub/pkg/ws"
)

// Deps are the collaborators the controllers are built from. Nil limiters
// disable rate limiting; a nil Disk disables uploads.
type Deps struct {
	Store     *repositories.Store
	Auth      *services.AuthService
	Inquiries *services.InquiryService
	Disk      storage.Disk
	Hub       *ws.Hub
	GraphQL   gql.Schema

	InquiryLimiter middleware.Limiter
	LoginLimiter   middleware.Limiter
}

func RegisterAPI(r *router.Router, d Deps) {
	categories := controllers.NewCategoryController(d.Store)
	products := controllers.NewProductController(d.Store)
	contact := controllers.NewContactController(d.Store)
	inquiries := controllers.NewInquiryController(d.Inquiries)
	authc := controllers.NewAuthController(d.Auth)
	users := controllers.NewUserController(d.Store)
	health := controllers.NewHealthController(d.Store)
	live := controllers.NewLiveController(d.Hub)

	r.Get("/healthz", "health", ctx.Wrap(health.Check))
	r.Post("/graphql", "graphql", ctx.Wrap(graphql.Handler(d.GraphQL)))

	api := r.Group("/api")

	// Public catalog
	api.Get("/categories", "categories.index", ctx.Wrap(categories.Index))
	api.Get("/categories/{id}", "categories.show", ctx.Wrap(categories.Show))
	api.Get("/categories/{id}/products", "categories.products", ctx.Wrap(categories.Products))
	api.Get("/products", "products.index", ctx.Wrap(products.Index))
	api.Get("/products/{id}", "products.show", ctx.Wrap(products.Show))
	api.Get("/contact", "contact.show", ctx.Wrap(contact.Show))
	api.Post("/inquiries", "inquiries.store", ctx.Wrap(inquiries.Store), limit("inquiries", d.InquiryLimiter)...)

	// Session
	api.Post("/login", "auth.login", ctx.Wrap(authc.Login), limit("login", d.LoginLimiter)...)
	api.Post("/logout", "auth.logout", ctx.Wrap(authc.Logout))
	api.Get("/user", "auth.user", ctx.Wrap(authc.User))

	// Admin
	admin := api.Group("/admin",
		middleware.RequireAuth(d.Auth.Guard),
		middleware.RequireRole(models.RoleAdmin),
	)
	admin.Get("/categories", "admin.categories.index", ctx.Wrap(categories.Index))
	admin.Post("/categories", "admin.categories.store", ctx.Wrap(categories.Store))
	admin.Put("/categories/{id}", "admin.categories.update", ctx.Wrap(categories.Update))
	admin.Delete("/categories/{id}", "admin.categories.destroy", ctx.Wrap(categories.Destroy))

	admin.Get("/products", "admin.products.index", ctx.Wrap(products.Index))
	admin.Post("/products", "admin.products.store", ctx.Wrap(products.Store))
	admin.Put("/products/{id}", "admin.products.update", ctx.Wrap(products.Update))
	admin.Delete("/products/{id}", "admin.products.destroy", ctx.Wrap(products.Destroy))

	admin.Get("/inquiries", "admin.inquiries.index", ctx.Wrap(inquiries.Index))
	admin.Get("/inquiries/live", "admin.inquiries.live", ctx.Wrap(live.Inquiries))

	admin.Get("/contact", "admin.contact.show", ctx.Wrap(contact.Show))
	admin.Put("/contact", "admin.contact.update", ctx.Wrap(contact.Update))

	admin.Get("/users", "admin.users.index", ctx.Wrap(users.Index))

	if d.Disk != nil {
		uploads := controllers.NewUploadController(d.Disk)
		admin.Post("/uploads", "admin.uploads.store", ctx.Wrap(uploads.Store))
	}
	if local, ok := d.Disk.(*storage.LocalDisk); ok {
		r.Mount("/storage", noListing(http.FileServer(http.Dir(local.Root()))))
	}
}

func limit(name string, l middleware.Limiter) []router.Middleware {
	if l == nil {
		return nil
	}
	return []router.Middleware{middleware.RateLimit(name, l)}
}

// noListing hides directory indexes of the upload tree.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
