// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/codechat-ai/codebase-chat/internal/codebase"
	"github.com/codechat-ai/codebase-chat/internal/config"
	"github.com/codechat-ai/codebase-chat/internal/handler"
	"github.com/codechat-ai/codebase-chat/internal/llm"
	"github.com/codechat-ai/codebase-chat/internal/middleware"
	natsclient "github.com/codechat-ai/codebase-chat/internal/nats"
	"github.com/codechat-ai/codebase-chat/internal/service"
	"github.com/codechat-ai/codebase-chat/pkg/logger"
	"github.com/codechat-ai/codebase-chat/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "codebase-chat", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS when configured; the turn-audit stream is optional.
	var natsConn *natsclient.Client
	var streamManager *natsclient.StreamManager
	if cfg.NATSURL != "" {
		natsConn, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, turn events disabled", zap.Error(err))
		} else {
			defer natsConn.Close()
			streamManager = natsclient.NewStreamManager(natsConn)
			if err := streamManager.EnsureStream(ctx); err != nil {
				log.Warn("failed to ensure stream, turn events disabled", zap.Error(err))
				streamManager = nil
			}
		}
	}

	// Initialize LLM client
	var llmClient llm.Client
	if cfg.Credential() != "" {
		llmClient, err = llm.NewClient(llm.Provider(cfg.DefaultLLM), cfg.Credential())
		if err != nil {
			log.Warn("failed to create LLM client, chat disabled", zap.Error(err))
		}
	} else {
		log.Warn("no API key configured, chat disabled")
	}

	// Initialize scanner and assembler
	scanner := codebase.NewScanner(cfg, log)
	assembler := codebase.NewAssembler(cfg, log)

	// Initialize services. The publisher stays a nil interface when NATS
	// is down so the services skip publishing entirely.
	var publisher service.TurnPublisher
	if streamManager != nil {
		publisher = streamManager
	}
	sessionSvc := service.NewSessionService(publisher, log)
	chatSvc := service.NewChatService(cfg, llmClient, assembler, publisher, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsConn)
	codebaseHandler := handler.NewCodebaseHandler(cfg, scanner, assembler, llmClient, log)
	sessionHandler := handler.NewSessionHandler(sessionSvc, log)
	messageHandler := handler.NewMessageHandler(chatSvc, sessionSvc, log)
	streamHandler := handler.NewStreamHandler(chatSvc, sessionSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Codebase scanning and assembly
		r.Post("/scan", codebaseHandler.Scan)
		r.Post("/scan/validate", codebaseHandler.Validate)
		r.Post("/assemble", codebaseHandler.Assemble)
		r.Get("/models", codebaseHandler.Models)

		// Sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Get("/", sessionHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Delete("/", sessionHandler.Delete)
				r.Post("/clear", sessionHandler.Clear)
				r.Post("/files", sessionHandler.SetFiles)

				// Messages
				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)

				// Streaming
				r.Post("/stream", streamHandler.StreamWithMessage)

				// History export/import
				r.Post("/history/export", sessionHandler.ExportHistory)
				r.Post("/history/import", sessionHandler.ImportHistory)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
