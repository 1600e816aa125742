package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/timeledger/internal/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth        *AuthHandler
	Entries     *EntryHandler
	Categories  *CategoryHandler
	Reflections *ReflectionHandler
}

// NewRouter constructs and returns an HTTP handler that serves the time
// ledger API under /api.
//
// Routes:
//
//	GET    /api/health                  → liveness probe
//	POST   /api/auth/signup             → Auth.Signup
//	POST   /api/auth/login              → Auth.Login
//	POST   /api/auth/logout             → Auth.Logout
//	DELETE /api/auth/account            → Auth.DeleteAccount   (session)
//	GET    /api/me                      → Auth.Me              (session)
//	GET    /api/entries/export/json     → Entries.ExportJSON   (session)
//	*      /api/entries[/{id}]          → Entries              (session)
//	*      /api/categories[/{id}]       → Categories           (session)
//	*      /api/reflections[/{id}]      → Reflections          (session)
//
// Middleware chain (applied in order):
//  1. RequestID, Recoverer
//  2. AllowContentType("application/json") rejects non-JSON bodies
//  3. WithRequestLogging(logger)
//  4. RequireSession on the protected group
func NewRouter(h Handlers, sessions middleware.SessionResolver, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) { writeOK(w) })
		r.Post("/auth/signup", h.Auth.Signup)
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/logout", h.Auth.Logout)

		// Protected group: requires a valid session cookie
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(sessions, logger))

			r.Delete("/auth/account", h.Auth.DeleteAccount)
			r.Get("/me", h.Auth.Me)

			r.Route("/entries", func(r chi.Router) {
				r.Get("/", h.Entries.List)
				r.Post("/", h.Entries.Create)
				r.Get("/export/json", h.Entries.ExportJSON)
				r.Put("/{id}", h.Entries.Update)
				r.Delete("/{id}", h.Entries.Delete)
			})
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Categories.List)
				r.Post("/", h.Categories.Create)
				r.Put("/{id}", h.Categories.Update)
				r.Delete("/{id}", h.Categories.Delete)
			})
			r.Route("/reflections", func(r chi.Router) {
				r.Get("/", h.Reflections.List)
				r.Post("/", h.Reflections.Create)
				r.Put("/{id}", h.Reflections.Update)
				r.Delete("/{id}", h.Reflections.Delete)
			})
		})
	})

	return r
}
