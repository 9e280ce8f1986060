// Package server provides the HTTP API for the Swasth FAQ service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/swasth-ai/swasth/internal/config"
	"github.com/swasth-ai/swasth/internal/engine"
	"github.com/swasth-ai/swasth/internal/importer"
	"github.com/swasth-ai/swasth/internal/keyword"
	"github.com/swasth-ai/swasth/internal/storage"
)

// Server is the HTTP server for the Swasth API.
type Server struct {
	engine   *engine.Engine
	importer *importer.Importer
	storage  storage.Storage
	faqIndex *keyword.FAQIndex
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server

	defaultLimiter *clientLimiter
	queryLimiter   *clientLimiter
	importLimiter  *clientLimiter
}

// NewServer creates a server with the given dependencies.
func NewServer(
	eng *engine.Engine,
	imp *importer.Importer,
	store storage.Storage,
	faqIndex *keyword.FAQIndex,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		engine:   eng,
		importer: imp,
		storage:  store,
		faqIndex: faqIndex,
		config:   cfg,
		logger:   logger,
	}
	if cfg.RateLimit.EnabledOrDefault() {
		s.defaultLimiter = newClientLimiter(
			perMinute(cfg.RateLimit.DefaultPerMinute),
			perHour(cfg.RateLimit.DefaultPerHour),
		)
		s.queryLimiter = newClientLimiter(perMinute(cfg.RateLimit.QueryPerMinute))
		s.importLimiter = newClientLimiter(perHour(cfg.RateLimit.ImportPerHour))
	}
	return s
}

// Router builds the HTTP routes and middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	if s.config.Server.CORSEnabledOrDefault() {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit(s.defaultLimiter))
		r.With(s.rateLimit(s.queryLimiter)).Post("/query", s.handleQuery)
		r.With(s.rateLimit(s.importLimiter)).Post("/faqs/import", s.handleImport)
		r.Get("/faqs", s.handleListFAQs)
		r.Get("/faqs/{id}", s.handleGetFAQ)
		r.Get("/stats", s.handleStats)
	})
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
