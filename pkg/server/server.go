// Package server exposes the chat dispatcher and scraper over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/abyan-ai/askme/pkg/chat"
	"github.com/abyan-ai/askme/pkg/config"
	"github.com/abyan-ai/askme/pkg/locale"
	"github.com/abyan-ai/askme/pkg/metrics"
	"github.com/abyan-ai/askme/pkg/models"
)

// Scraper is the subset of scraper.Client the server routes to.
type Scraper interface {
	Wikipedia(ctx context.Context, query string) (models.WikiSummary, error)
	GitHub(ctx context.Context, user string, limit int) (models.GitHubProfile, error)
	Reddit(ctx context.Context, subreddit string, limit int) (models.RedditListing, error)
	HackerNews(ctx context.Context, limit int) (models.HNListing, error)
}

// Sweeper is a limiter store that needs periodic eviction of idle keys.
type Sweeper interface {
	Run(ctx context.Context, interval time.Duration)
}

// Server is the askme HTTP front end.
type Server struct {
	cfg      *config.Config
	chat     *chat.Dispatcher
	scraper  Scraper
	metrics  *metrics.Metrics
	sweeper  Sweeper
	catalog  locale.Catalog
	router   chi.Router
	shutdown time.Duration
}

// Option customizes a Server.
type Option func(*Server)

// WithScraper enables the /api/scrape routes.
func WithScraper(s Scraper) Option {
	return func(srv *Server) { srv.scraper = s }
}

// WithMetrics enables request metrics and the /metrics route.
func WithMetrics(m *metrics.Metrics) Option {
	return func(srv *Server) { srv.metrics = m }
}

// WithSweeper runs the limiter's eviction loop for the server's lifetime.
func WithSweeper(s Sweeper) Option {
	return func(srv *Server) { srv.sweeper = s }
}

// New creates a Server wired with all dependencies.
func New(cfg *config.Config, d *chat.Dispatcher, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		chat:     d,
		catalog:  locale.Lookup(cfg.Locale),
		shutdown: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(requestLogger)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/", s.handleChat)
		r.Get("/quota", s.handleQuota)
	})

	r.Route("/api/scrape", func(r chi.Router) {
		r.Use(s.requireScraper)
		r.Get("/wikipedia", s.handleWikipedia)
		r.Get("/github/{user}", s.handleGitHub)
		r.Get("/reddit/{subreddit}", s.handleReddit)
		r.Get("/hackernews", s.handleHackerNews)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support. The
// limiter sweep loop, if any, stops with ctx.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.sweeper != nil {
		go s.sweeper.Run(ctx, s.cfg.RateLimit.SweepInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.cfg.Listen).Info("askme listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("write response")
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
