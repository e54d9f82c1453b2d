// Package server exposes the analysis pipeline over HTTP and runs the
// background cache sweeper and stats flusher alongside it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/linkguard/internal/model"
	"github.com/ppiankov/linkguard/internal/pipeline"
	"github.com/ppiankov/linkguard/internal/stats"
	"github.com/ppiankov/linkguard/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP surface of the analysis pipeline
type Server struct {
	cfg      *model.Config
	pipeline *pipeline.Pipeline
	store    stats.Store
	flusher  *stats.Flusher
	limiter  *worker.Limiter
	router   chi.Router
	logger   logr.Logger
}

// NewServer wires routes around p. A nil store disables persisted stats.
func NewServer(cfg *model.Config, p *pipeline.Pipeline, store stats.Store, logger logr.Logger) *Server {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	s := &Server{
		cfg:      cfg,
		pipeline: p,
		store:    store,
		limiter:  worker.NewLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst),
		router:   chi.NewRouter(),
		logger:   logger.WithName("server"),
	}
	if store != nil {
		s.flusher = stats.NewFlusher(p.Stats, store)
	}

	s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(rt chi.Router) {
		rt.Use(s.rateLimit)
		rt.Post("/analyze", s.handleAnalyzePost)
		rt.Get("/analyze", s.handleAnalyzeGet)
		rt.Get("/stats", s.handleStats)
		rt.Post("/cache/sweep", s.handleSweep)
	})
}

// Run serves HTTP until ctx is cancelled, sweeping the cache and flushing
// stats on their configured intervals. A final flush runs on the way out.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		s.sweepLoop(gCtx)
		return nil
	})

	if s.flusher != nil {
		g.Go(func() error {
			s.flushLoop(gCtx)
			return nil
		})
	}

	return g.Wait()
}

// sweepLoop sweeps once at start and then on every tick
func (s *Server) sweepLoop(ctx context.Context) {
	s.sweep()

	interval := s.cfg.Cache.SweepInterval
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Server) sweep() {
	s.pipeline.SweepCache(s.pipeline.Now())
	if pruned := s.limiter.Prune(s.cfg.Cache.SweepInterval); pruned > 0 {
		s.logger.V(1).Info("pruned idle clients", "count", pruned)
	}
}

func (s *Server) flushLoop(ctx context.Context) {
	interval := s.cfg.Stats.FlushInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.flush(context.Background())
			return
		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

func (s *Server) flush(ctx context.Context) {
	delta, err := s.flusher.Flush(ctx)
	if err != nil {
		s.logger.Error(err, "stats flush failed")
		return
	}
	if !delta.IsZero() {
		s.logger.V(1).Info("stats flushed", "analyses", delta.Analyses, "dangers", delta.Dangers)
	}
}

// --- HTTP handlers ---

type analyzeBody struct {
	URL string `json:"url"`
}

func (s *Server) handleAnalyzePost(w http.ResponseWriter, r *http.Request) {
	var body analyzeBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.analyze(w, r, body.URL)
}

func (s *Server) handleAnalyzeGet(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, r.URL.Query().Get("url"))
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, url string) {
	resp := s.pipeline.Handle(pipeline.AnalyzeRequest{
		ID:  RequestIDFrom(r.Context()),
		URL: url,
	})
	if resp.Err != nil {
		if errors.Is(resp.Err, pipeline.ErrEmptyURL) {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}
		writeError(w, http.StatusInternalServerError, resp.Err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp.Result)
}

type statsBody struct {
	Session      stats.Counters  `json:"session"`
	Persisted    *stats.Counters `json:"persisted,omitempty"`
	CacheEntries int             `json:"cache_entries"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	body := statsBody{
		Session:      s.pipeline.Stats(),
		CacheEntries: s.pipeline.CacheLen(),
	}

	if s.store != nil {
		persisted, err := s.store.Load(r.Context())
		if err != nil {
			s.logger.Error(err, "loading persisted stats")
			writeError(w, http.StatusInternalServerError, "stats unavailable")
			return
		}
		body.Persisted = &persisted
	}

	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	evicted := s.pipeline.SweepCache(s.pipeline.Now())
	writeJSON(w, http.StatusOK, map[string]int{"evicted": evicted})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
