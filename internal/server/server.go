// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects storage, repositories,
// services, handlers and middleware, and decides which URL maps to which
// handler.
//
// DEPENDENCY INJECTION FLOW:
//
//	storage.Backend (sqlite or redis)
//	  → storage.Adapter           (JSON ↔ records, defensive loads)
//	  → repository.Context        (in-memory collections, change notifications)
//	  → service.SnippetService    (reference resolution, share links, downloads)
//	  → handler.SnippetHandler    (HTTP ↔ service)
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/codevault/internal/config"
	"github.com/sakif/codevault/internal/handler"
	"github.com/sakif/codevault/internal/middleware"
	"github.com/sakif/codevault/internal/repository"
	"github.com/sakif/codevault/internal/service"
	"github.com/sakif/codevault/internal/storage"
	"github.com/sakif/codevault/internal/storage/redisstore"
	"github.com/sakif/codevault/internal/storage/sqlite"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the storage backend. When the server shuts down we close
// it, which flushes SQLite's WAL or returns Redis connections to the pool.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	backend  storage.Backend
	vault    *repository.Context
	revision *handler.Revision
}

// New builds the server: opens the configured backend, loads the vault and
// registers routes.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	revision := &handler.Revision{}
	vault := repository.Open(ctx, storage.NewAdapter(backend, logger), logger,
		repository.WithListener(revision.Observe),
		repository.WithListener(func(c repository.Change) {
			logger.Debug("vault changed",
				slog.String("kind", string(c.Kind)),
				slog.String("id", c.ID),
				slog.Int("index", c.Index),
			)
		}),
	)

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		backend:  backend,
		vault:    vault,
		revision: revision,
	}

	if err := s.setupRoutes(); err != nil {
		backend.Close() // Clean up the backend if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// openBackend connects to the store named in the config.
func openBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		store, err := redisstore.Dial(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return store, nil

	case config.BackendSQLite:
		// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
		if dir := filepath.Dir(cfg.Storage.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqlite.New(cfg.Storage.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /api/snippets?q=&visibility=   → filtered list + counts + revision
// POST   /api/snippets                  → create
// POST   /api/snippets/quick            → quick save from the editor
// POST   /api/snippets/share            → link carrying unsaved code
// GET    /api/snippets/{ref}            → get (ref = id or position)
// PUT    /api/snippets/{ref}            → update
// DELETE /api/snippets/{ref}            → delete
// GET    /api/snippets/{ref}/download   → code as an attachment
// GET    /api/stats                     → counts only
// GET    /api/profile                   → profile
// PUT    /api/profile                   → merge-update profile
// GET    /view?snippet=<ref>            → share-link page (HTML)
// GET    /view?code=<code>&language=    → same page for unsaved code
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info (reads the request ID)
// 4. Recoverer: catches panics and returns 500 instead of crashing
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	snippetService := service.NewSnippetService(s.vault.Snippets, s.config.Server.ShareBaseURL, s.logger)
	profileService := service.NewProfileService(s.vault.Profile, s.logger)

	snippetHandler := handler.NewSnippetHandler(snippetService, s.revision, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	viewHandler, err := handler.NewViewHandler(snippetService, s.logger)
	if err != nil {
		return fmt.Errorf("creating view handler: %w", err)
	}

	s.router.Get("/view", viewHandler.HandleView)

	s.router.Route("/api", func(r chi.Router) {
		r.Mount("/snippets", snippetHandler.Routes())
		r.Get("/stats", snippetHandler.HandleStats)
		r.Get("/profile", profileHandler.HandleGet)
		r.Put("/profile", profileHandler.HandleUpdate)
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the storage backend
//
// Every mutation has already been written through by the time its request
// returns, so nothing is buffered in memory at shutdown.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", s.config.Server.ShareBaseURL),
			slog.String("backend", s.config.Storage.Backend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close releases the storage backend.
func (s *Server) Close() error {
	if err := s.backend.Close(); err != nil {
		s.logger.Warn("closing storage backend", slog.String("error", err.Error()))
		return err
	}
	return nil
}
