// Package api exposes the ledger service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/freelance-ledger/internal/api/handlers"
	"github.com/eshaffer321/freelance-ledger/internal/api/middleware"
	"github.com/eshaffer321/freelance-ledger/internal/application/service"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/config"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8085,
		AllowedOrigins: middleware.DefaultCORSConfig().AllowedOrigins,
	}
}

// ConfigFrom builds the server config from the app's server section.
// An empty origin list keeps the local development defaults.
func ConfigFrom(cfg config.ServerConfig) Config {
	out := DefaultConfig()
	if cfg.Port != 0 {
		out.Port = cfg.Port
	}
	if len(cfg.AllowedOrigins) > 0 {
		out.AllowedOrigins = cfg.AllowedOrigins
	}
	return out
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	service    *service.LedgerService
}

// NewServer creates a new API server.
func NewServer(cfg Config, svc *service.LedgerService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		service: svc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins
	s.router.Use(middleware.CORS(corsConfig))

	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler(s.service.Today)
	s.router.Get("/health", healthHandler.ServeHTTP)

	s.router.Route("/api", func(r chi.Router) {
		// Scheduling
		forecastHandler := handlers.NewForecastHandler(s.service, s.logger)
		r.Get("/forecast", forecastHandler.Get)
		r.Get("/forecast/minimum-needed", forecastHandler.MinimumNeeded)

		occurrencesHandler := handlers.NewOccurrencesHandler(s.service, s.logger)
		r.Get("/occurrences", occurrencesHandler.List)

		rulesHandler := handlers.NewRulesHandler(s.service, s.logger)
		r.Post("/rules", rulesHandler.SaveRule)
		r.Post("/retainers", rulesHandler.SaveRetainer)

		// Reconciliation
		suggestionsHandler := handlers.NewSuggestionsHandler(s.service, s.logger)
		r.Get("/receipts/{id}/suggestions", suggestionsHandler.ForReceipt)
		r.Get("/transactions/{id}/suggestions", suggestionsHandler.ForTransaction)

		vendorsHandler := handlers.NewVendorsHandler(s.service, s.logger)
		r.Get("/vendors", vendorsHandler.List)

		receiptsHandler := handlers.NewReceiptsHandler(s.service, s.logger)
		r.Post("/receipts/{id}/link", receiptsHandler.Link)

		incomeHandler := handlers.NewProjectedIncomeHandler(s.service, s.logger)
		r.Get("/projected-income", incomeHandler.List)
		r.Post("/projected-income/refresh", incomeHandler.Refresh)
		r.Get("/projected-income/{id}", incomeHandler.Get)
		r.Post("/projected-income/{id}/cancel", incomeHandler.Cancel)
		r.Post("/projected-income/{id}/matches", incomeHandler.Match)
		r.Delete("/projected-income/{id}/matches/{transactionID}", incomeHandler.Unmatch)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
