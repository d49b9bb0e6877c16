package worker

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/medialens/internal/analyze"
	"github.com/thebtf/medialens/internal/cache"
	"github.com/thebtf/medialens/internal/chat"
	"github.com/thebtf/medialens/internal/config"
	"github.com/thebtf/medialens/internal/db"
	"github.com/thebtf/medialens/internal/deletion"
	"github.com/thebtf/medialens/internal/inference"
	"github.com/thebtf/medialens/internal/ingest"
	"github.com/thebtf/medialens/internal/vector"
)

// Dependencies are the external bindings the service is built from.
// Inference and Fetcher may be nil; the endpoints that need them report
// upstream errors instead.
type Dependencies struct {
	Store     db.RelationalStore
	Vectors   vector.Store
	Cache     cache.Store
	Inference inference.Service
	Fetcher   analyze.Fetcher
}

// Service is the HTTP worker. It owns the router and the domain
// components assembled from the injected bindings.
type Service struct {
	config *config.Config
	router *chi.Mux
	server *http.Server

	store     db.RelationalStore
	vectors   vector.Store
	cache     cache.Store
	inference inference.Service

	pipeline *ingest.Pipeline
	resolver *chat.Resolver
	analyzer *analyze.Analyzer
	deleter  *deletion.Manager
}

// NewService assembles the worker from config and bindings.
func NewService(cfg *config.Config, deps Dependencies) *Service {
	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = analyze.NewHTTPFetcher(30 * time.Second)
	}

	s := &Service{
		config:    cfg,
		router:    chi.NewRouter(),
		store:     deps.Store,
		vectors:   deps.Vectors,
		cache:     deps.Cache,
		inference: deps.Inference,
		pipeline:  ingest.NewPipeline(deps.Store, deps.Vectors, deps.Inference, cfg.ChunkSize),
		resolver:  chat.NewResolver(deps.Store, deps.Vectors, deps.Inference),
		analyzer:  analyze.NewAnalyzer(deps.Cache, deps.Inference, fetcher, cfg.AnalysisTTL),
		deleter:   deletion.NewManager(deps.Store, deps.Vectors),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Service) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(120 * time.Second))
	s.router.Use(corsMiddleware)
	s.router.Use(s.authMiddleware)
	s.router.Use(s.rateLimitMiddleware)
}

func (s *Service) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/suggested-questions", s.handleSuggestedQuestions)

	s.router.Route("/media", func(r chi.Router) {
		r.Post("/index-batch", s.handleIndexBatch)
		r.Post("/delete-batch", s.handleDeleteBatch)
		r.Post("/clear-site", s.handleClearSite)
		r.Get("/count", s.handleCount)
		r.Get("/sites", s.handleSites)
	})

	s.router.Post("/chat", s.handleChat)
	s.router.Post("/analyze", s.handleAnalyzeImage)

	s.router.NotFound(s.handleNotFound)
}

// Router exposes the configured handler, mainly for tests.
func (s *Service) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until the listener fails.
func (s *Service) Start() error {
	addr := fmt.Sprintf(":%d", s.config.WorkerPort)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("Worker listening")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Worker shutting down")
	return s.server.Shutdown(ctx)
}
