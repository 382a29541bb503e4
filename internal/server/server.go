// Package server provides the HTTP API for Sift.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/siftd/sift/internal/cache"
	"github.com/siftd/sift/internal/config"
	"github.com/siftd/sift/internal/jobs"
	"github.com/siftd/sift/internal/search"
	"github.com/siftd/sift/internal/storage"
	"github.com/siftd/sift/internal/watcher"
)

// Server is the HTTP server for the Sift API.
type Server struct {
	engine    *search.Engine
	optimizer *search.Optimizer
	queue     *jobs.Queue
	storage   storage.Storage
	results   *cache.ResultCache
	watch     *watcher.Watcher
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. watch may be nil
// when file watching is disabled.
func NewServer(
	engine *search.Engine,
	optimizer *search.Optimizer,
	queue *jobs.Queue,
	storage storage.Storage,
	results *cache.ResultCache,
	watch *watcher.Watcher,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:    engine,
		optimizer: optimizer,
		queue:     queue,
		storage:   storage,
		results:   results,
		watch:     watch,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/jobs", s.handleSubmitJob)
	r.Get("/api/v1/jobs", s.handleListJobs)
	r.Get("/api/v1/jobs/{id}", s.handleGetJob)
	r.Delete("/api/v1/jobs/{id}", s.handleCancelJob)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
