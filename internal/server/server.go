// Package server provides the HTTP server and routing for kabumemo.
package server

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/kabumemo/kabumemo/internal/config"
	"github.com/kabumemo/kabumemo/internal/di"
	currencyhandlers "github.com/kabumemo/kabumemo/internal/modules/currency/handlers"
	fundshandlers "github.com/kabumemo/kabumemo/internal/modules/funds/handlers"
	portfoliohandlers "github.com/kabumemo/kabumemo/internal/modules/portfolio/handlers"
	quoteshandlers "github.com/kabumemo/kabumemo/internal/modules/quotes/handlers"
	taxhandlers "github.com/kabumemo/kabumemo/internal/modules/tax/handlers"
	tradinghandlers "github.com/kabumemo/kabumemo/internal/modules/trading/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
	Jobs      *di.JobInstances
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	// Register common MIME types to ensure correct Content-Type headers
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".mjs", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")
	_ = mime.AddExtensionType(".woff2", "font/woff2")
	_ = mime.AddExtensionType(".woff", "font/woff")

	var jobs *di.JobInstances
	if cfg.Jobs != nil {
		jobs = cfg.Jobs
	} else {
		jobs = &di.JobInstances{}
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Config,
			cfg.Container.Repository,
			cfg.Container.MirrorDB,
			cfg.Container.Scheduler,
			jobs.All(),
		),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Manual job runs take the operation lock inside the scheduler.
		r.Post("/system/jobs/{name}", s.systemHandlers.HandleTriggerJob)

		r.Group(func(r chi.Router) {
			r.Use(opLockMiddleware(s.container.OpLock))

			r.Get("/system/status", s.systemHandlers.HandleSystemStatus)

			portfoliohandlers.NewHandler(s.container.PortfolioService, s.log).RegisterRoutes(r)
			fundshandlers.NewHandler(s.container.FundsService, s.log).RegisterRoutes(r)
			tradinghandlers.NewHandler(s.container.TradingService, s.log).RegisterRoutes(r)
			taxhandlers.NewHandler(s.container.TaxService, s.log).RegisterRoutes(r)
			currencyhandlers.NewHandler(s.container.CurrencyService, s.log).RegisterRoutes(r)
			quoteshandlers.NewHandler(s.container.QuoteService, s.log).RegisterRoutes(r)
		})
	})

	if s.cfg.DistDir != "" {
		s.router.Handle("/*", newSPAHandler(s.cfg.DistDir, s.log))
		s.log.Info().Str("dir", s.cfg.DistDir).Msg("Serving frontend assets")
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// opLockMiddleware runs each request under the process-wide operation lock.
func opLockMiddleware(lock sync.Locker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lock.Lock()
			defer lock.Unlock()
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		event := s.log.Info()
		if ww.Status() >= http.StatusInternalServerError {
			event = s.log.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
