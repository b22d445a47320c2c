// Package server provides the HTTP API for kazoeru.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kazoeru/internal/concordance"
	"github.com/hyperjump/kazoeru/internal/config"
	"github.com/hyperjump/kazoeru/internal/index"
	"github.com/hyperjump/kazoeru/internal/search"
	"github.com/hyperjump/kazoeru/internal/storage"
	"github.com/hyperjump/kazoeru/internal/watcher"
	"github.com/hyperjump/kazoeru/pkg/utils"
	"go.uber.org/zap"
)

// Server is the HTTP server for the frequency and concordance API.
type Server struct {
	engine      *search.Engine
	concordance *concordance.Concordance // nil when the concordance is not built
	store       *index.Store
	storage     storage.Storage
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
	watcher     *watcher.Watcher
}

// NewServer creates a server with the given dependencies. conc may be nil.
func NewServer(
	engine *search.Engine,
	conc *concordance.Concordance,
	store *index.Store,
	st storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:      engine,
		concordance: conc,
		store:       store,
		storage:     st,
		config:      cfg,
		logger:      utils.OrNop(logger),
	}
}

// Router returns the API routes with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/frequency", s.handleFrequency)
	r.Get("/api/v1/frequency", s.handleFrequency)
	r.Get("/api/v1/verses", s.handleVerses)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start serves until Stop is called. When reload_on_change is set, a
// rewritten index artifact is loaded and swapped in without a restart.
func (s *Server) Start(ctx context.Context) error {
	if s.config.Server.ReloadOnChange {
		if err := s.startWatcher(ctx); err != nil {
			return err
		}
	}
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr), zap.Bool("concordance", s.concordance != nil))
	return s.server.ListenAndServe()
}

func (s *Server) startWatcher(ctx context.Context) error {
	files := []string{s.store.Path(), s.store.Path() + index.DigestSuffix}
	s.watcher = watcher.NewWatcher(files, s.reload, watcher.WithLogger(s.logger))
	if err := s.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to watch index: %w", err)
	}
	s.logger.Info("watching index for changes", zap.String("path", s.store.Path()))
	return nil
}

// reload keeps serving the previous index when the new artifact is
// unusable; the store logs the outcome.
func (s *Server) reload(path string) {
	s.logger.Debug("index artifact changed", zap.String("path", path))
	_ = s.store.Reload()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
