// Package api provides the HTTP API server and handlers for the Shelfmark application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shelfmarkapp/shelfmark-server/internal/http/response"
	"github.com/shelfmarkapp/shelfmark-server/internal/ratelimit"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

const apiVersion = "1.0.0"

// Services groups the business logic services used by the API server.
type Services struct {
	Auth    *service.AuthService
	Session *service.SessionService
	Book    *service.BookService
	Comment *service.CommentService
}

// Options configures server behaviour that varies by deployment.
type Options struct {
	Name          string
	CORSOrigin    string
	SecureCookies bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store             *store.Store
	services          *Services
	router            *chi.Mux
	api               huma.API
	logger            *slog.Logger
	authRateLimiter   *ratelimit.KeyedRateLimiter
	globalRateLimiter *ratelimit.KeyedRateLimiter
	secureCookies     bool
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	// Coarse per-IP ceiling across the whole surface; the auth endpoints get
	// their own much tighter budget on top of this.
	globalLimiter := NewRateLimiter(600, time.Minute, 120)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(RateLimitMiddleware(globalLimiter, logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(services.Auth, services.Session))

	// Unknown routes get the same envelope shape as everything else.
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "resource not found", logger)
	})

	humaConfig := huma.DefaultConfig(opts.Name+" API", apiVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
		"cookie": {
			Type: "apiKey",
			In:   "cookie",
			Name: sessionCookieName,
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:             st,
		services:          services,
		router:            router,
		api:               api,
		logger:            logger,
		authRateLimiter:   NewRateLimiter(20, time.Minute, 10),
		globalRateLimiter: globalLimiter,
		secureCookies:     opts.SecureCookies,
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerBookRoutes()
	s.registerCommentRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
	s.globalRateLimiter.Stop()
}
