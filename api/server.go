package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ediltrentini/site-backend/config"
	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/services"
	"github.com/ediltrentini/site-backend/storage"
)

// Dependencies are the services the HTTP layer is built on. They are
// constructed once at startup.
type Dependencies struct {
	Catalog   *services.CatalogService
	Auth      *services.AuthService
	Inquiries *services.InquiryService
	Images    storage.ImageStore
}

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(deps Dependencies, settings config.Settings) (Server, error) {
	if deps.Catalog == nil || deps.Auth == nil || deps.Inquiries == nil || deps.Images == nil {
		return Server{}, fmt.Errorf("api: all dependencies are required")
	}

	address := fmt.Sprintf("0.0.0.0:%s", settings.Port) // Bind to 0.0.0.0 for external access

	// Capture startup time
	startupTime := time.Now()

	router := newRouter(deps, withSettings(settings), withStartupTime(startupTime))

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  settings.ReadTimeout,  // Timeout for reading the entire request
		WriteTimeout: settings.WriteTimeout, // Timeout for writing the response
		IdleTimeout:  settings.IdleTimeout,  // Timeout for idle connections
	}

	return Server{server, startupTime}, nil
}

type router struct {
	settings    config.Settings
	startupTime time.Time
}

func withSettings(s config.Settings) func(*router) {
	return func(r *router) {
		r.settings = s
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func newRouter(deps Dependencies, opts ...func(*router)) *chi.Mux {
	var router router
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(HTTPLoggingMiddleware(log.With().Str("component", "http").Logger()))

	// CORS only matters when the admin panel or site is served from another origin
	if origins := router.settings.AcceptedOrigins; len(origins) > 0 {
		chiRouter.Use(CORSCheckMiddleware(origins))
		chiRouter.Use(corsMiddleware(origins))
	}

	fallback := NewResponder(log.With().Str("handlerName", "router").Logger())
	chiRouter.NotFound(func(w http.ResponseWriter, r *http.Request) {
		fallback.WriteError(w, errs.NewNotFoundError("route not found"))
	})
	chiRouter.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		fallback.WriteError(w, errs.NewApiErr(http.StatusMethodNotAllowed, "method not allowed"))
	})

	handlers := initializeHandlers(deps, router.settings.CookieSecure, router.startupTime)
	authMiddleware := newAuthMiddleware(deps.Auth)

	setupPublicRoutes(chiRouter, handlers)
	setupAdminRoutes(chiRouter, handlers, authMiddleware)
	setupStaticRoutes(chiRouter, deps.Images, router.settings.PublicDir, router.settings.AdminDir)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
