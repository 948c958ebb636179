package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	httpAdapter "github.com/lorrc/ops-console-engine/internal/adapters/primary/http"
	mw "github.com/lorrc/ops-console-engine/internal/adapters/primary/http/middleware"
	"github.com/lorrc/ops-console-engine/internal/adapters/primary/websocket"
	"github.com/lorrc/ops-console-engine/internal/adapters/secondary/restapi"
	"github.com/lorrc/ops-console-engine/internal/adapters/secondary/session"
	"github.com/lorrc/ops-console-engine/internal/config"
	"github.com/lorrc/ops-console-engine/internal/core/services"
	"github.com/lorrc/ops-console-engine/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting engine",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"api_base_url", cfg.API.BaseURL,
	)

	// 3. Backend Gateways (Secondary Adapters)
	tokens := session.NewTokenHolder(cfg.API.Token)
	apiClient := restapi.NewClient(restapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, tokens, logger)
	ticketGateway := restapi.NewTicketGateway(apiClient)
	threadGateway := restapi.NewThreadGateway(apiClient)

	// 4. Change Feed Hub
	hub := websocket.NewHub(logger)
	go hub.Run()

	// 5. Core Engine (Store, Editor, Poller)
	store := services.NewTicketStore(ticketGateway, hub, logger)
	editor := services.NewFieldEditController(ticketGateway, store, logger)
	poller := services.NewReplyPoller(threadGateway, hub, services.ReplyPollerConfig{
		InitialDelay: cfg.Polling.InitialDelay,
		Interval:     cfg.Polling.Interval,
		MaxAttempts:  cfg.Polling.MaxAttempts,
	}, logger)

	// 6. Facade Handlers (Primary Adapters)
	errorHandler := httpAdapter.NewErrorHandler(logger)
	viewHandler := httpAdapter.NewViewHandler(store, errorHandler, logger)
	ticketHandler := httpAdapter.NewTicketHandler(store, editor, errorHandler, logger)
	threadHandler := httpAdapter.NewThreadHandler(poller, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, cfg.Server.AllowedOrigins, logger)
	healthHandler := httpAdapter.NewHealthHandler(cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", mw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.RateLimit.Enabled {
		rlCfg := mw.DefaultRateLimiterConfig()
		rlCfg.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rlCfg.BurstSize = cfg.RateLimit.BurstSize
		r.Use(mw.NewRateLimiter(rlCfg).Middleware)
	}

	// Health check endpoint (outside /api/v1 for standard probe paths)
	r.Get("/health/live", healthHandler.HandleLiveness)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ws", wsHandler.HandleConnection)

		viewHandler.RegisterRoutes(r)
		ticketHandler.RegisterRoutes(r)
		threadHandler.RegisterRoutes(r)
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("facade server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
