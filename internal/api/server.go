// Package api provides the HTTP API server and handlers for the planetarium application.
package api

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/planetarium/planetarium-server/internal/cache"
	"github.com/planetarium/planetarium-server/internal/config"
	"github.com/planetarium/planetarium-server/internal/logger"
	"github.com/planetarium/planetarium-server/internal/ratelimit"
	"github.com/planetarium/planetarium-server/internal/store/sqlite"
	"github.com/planetarium/planetarium-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *sqlite.Store
	cache           *cache.Cache
	services        *Services
	validator       *validation.Validator
	cfg             *config.Config
	router          *chi.Mux
	api             huma.API
	logger          *logger.Logger
	authRateLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, st *sqlite.Store, ca *cache.Cache, services *Services, log *logger.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:     st,
		cache:     ca,
		services:  services,
		validator: validation.New(),
		cfg:       cfg,
		router:    router,
		logger:    log,
		// 20 auth attempts per minute per IP, small bursts allowed.
		authRateLimiter: ratelimit.New(20.0/60.0, 10),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Planetarium API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerPlanetRoutes()
	s.registerBookRoutes()
	s.registerGoodreadsRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-held resources.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(RateLimitMiddleware(s.authRateLimiter, "/api/v1/auth/", s.logger))
}

// HTTPServer builds the standard library server around the router using
// the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
		// Slowloris protection.
		ReadHeaderTimeout: 5 * time.Second,
	}
}
