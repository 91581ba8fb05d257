package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"

	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/storage"
)

const (
	loginAttempts = 10
	loginWindow   = 15 * time.Minute
)

// setupPublicRoutes mounts the visitor-facing API.
func setupPublicRoutes(r chi.Router, handlers *routeHandlers) {
	r.Get("/healthz", handlers.healthHandler.health())

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", handlers.projectHandler.listPublicProjects())
		r.Post("/contact", handlers.contactHandler.submit())
	})
}

// setupAdminRoutes mounts the admin API. Everything except login and logout
// needs a session.
func setupAdminRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Route("/admin/api", func(r chi.Router) {
		r.With(loginRateLimit()).Post("/login", handlers.authHandler.login())
		r.Post("/logout", handlers.authHandler.logout())
		r.Get("/me", authMiddleware.withSession(handlers.authHandler.me()))

		r.Get("/projects", authMiddleware.withSession(handlers.projectHandler.listAdminProjects()))
		r.Post("/projects", authMiddleware.withSession(handlers.projectHandler.createProject()))
		r.Put("/projects/{id}", authMiddleware.withSession(handlers.projectHandler.updateProject()))
		r.Delete("/projects/{id}", authMiddleware.withSession(handlers.projectHandler.deleteProject()))
		r.Delete("/images/{id}", authMiddleware.withSession(handlers.projectHandler.deleteImage()))
	})
}

// setupStaticRoutes serves stored images and, when configured, the site and
// admin panel assets.
func setupStaticRoutes(r chi.Router, images storage.ImageStore, publicDir, adminDir string) {
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", images.Handler()))

	if adminDir != "" {
		r.Handle("/admin/*", http.StripPrefix("/admin", storage.FileServer(adminDir)))
	}
	if publicDir != "" {
		r.Handle("/*", storage.FileServer(publicDir))
	}
}

// loginRateLimit allows loginAttempts login requests per client address per
// loginWindow, whatever their outcome.
func loginRateLimit() func(http.Handler) http.Handler {
	responder := NewResponder(log.With().Str("handlerName", "loginRateLimit").Logger())
	return httprate.Limit(
		loginAttempts,
		loginWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			responder.WriteError(w, errs.NewRateLimitExceededError(loginWindow))
		}),
	)
}
