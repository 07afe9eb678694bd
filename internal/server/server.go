// Package server exposes the render pipeline over HTTP.
//
// Routes:
//
//	GET  /health                          liveness check
//	GET  /api/v1/schemes                  available colour schemes
//	GET  /api/v1/schemes/{name}/preview   PNG swatch of one scheme
//	POST /api/v1/render                   render points, respond with the image
//	POST /api/v1/legend                   render a legend strip
//
// Errors are returned as {"code": "...", "message": "..."} with a status
// derived from the error code.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/heatmap/internal/config"
	"github.com/matzehuels/heatmap/pkg/pipeline"
)

// Server serves the heatmap API.
type Server struct {
	runner  *pipeline.Runner
	cfg     config.Server
	logger  *log.Logger
	limiter *rateLimiter
	router  chi.Router
}

// New builds a server around runner. A zero cfg.RateLimit disables rate
// limiting and a zero cfg.MaxPixels leaves only the renderer's own cap.
func New(runner *pipeline.Runner, cfg config.Server, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
	if cfg.RateLimit > 0 {
		s.limiter = newRateLimiter(cfg.RateLimit, time.Minute)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	if s.cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/schemes", s.handleSchemes)
		r.Get("/schemes/{name}/preview", s.handleSchemePreview)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Use(s.limitBody)
			r.Post("/render", s.handleRender)
			r.Post("/legend", s.handleLegend)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errNotFound(r.URL.Path))
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

// Close stops background work.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.stop()
	}
}
