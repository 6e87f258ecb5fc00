// Package api provides the HTTP API the editor's display layer talks to.
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

	"github.com/inkwellapp/inkwell-server/internal/metrics"
	"github.com/inkwellapp/inkwell-server/internal/ratelimit"
	"github.com/inkwellapp/inkwell-server/internal/sse"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// Version is reported in the OpenAPI document.
var Version = "dev"

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// ForceCheckBurst and ForceCheckInterval throttle force checks per client.
	ForceCheckBurst    int
	ForceCheckInterval time.Duration
}

func (o *Options) setDefaults() {
	if o.ForceCheckBurst <= 0 {
		o.ForceCheckBurst = DefaultForceCheckBurst
	}
	if o.ForceCheckInterval <= 0 {
		o.ForceCheckInterval = DefaultForceCheckInterval
	}
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store             *store.Store
	services          *Services
	sseManager        *sse.Manager
	sseHandler        *sse.Handler
	router            *chi.Mux
	api               huma.API
	logger            *slog.Logger
	opts              Options
	forceCheckLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
// st and sseManager may be nil; health reports them as not configured.
func NewServer(st *store.Store, services *Services, sseManager *sse.Manager, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	opts.setDefaults()

	s := &Server{
		store:      st,
		services:   services,
		sseManager: sseManager,
		router:     chi.NewRouter(),
		logger:     logger.With("component", "api"),
		opts:       opts,
		forceCheckLimiter: ratelimit.New(
			1/opts.ForceCheckInterval.Seconds(),
			opts.ForceCheckBurst,
		),
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, logger)
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Inkwell API", Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, used by tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.forceCheckLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerWorkspaceRoutes()
	s.registerFilesystemRoutes()

	s.router.Handle("/metrics", metrics.Handler())
	if s.sseHandler != nil {
		s.router.Get(eventStreamPath, s.sseHandler.ServeHTTP)
	}
}
