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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eluia/eluia-api/internal/config"
	"github.com/eluia/eluia-api/internal/document"
	"github.com/eluia/eluia-api/internal/handler"
	"github.com/eluia/eluia-api/internal/index"
	"github.com/eluia/eluia-api/internal/llm"
	"github.com/eluia/eluia-api/internal/middleware"
	"github.com/eluia/eluia-api/internal/model"
	natsclient "github.com/eluia/eluia-api/internal/nats"
	"github.com/eluia/eluia-api/internal/schedule"
	"github.com/eluia/eluia-api/internal/service"
	"github.com/eluia/eluia-api/pkg/logger"
	"github.com/eluia/eluia-api/pkg/tracing"
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
		tp, err := tracing.InitTracer(ctx, "eluia-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	// Ensure JetStream stream exists
	streamManager := natsclient.NewStreamManager(natsClient)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", zap.Error(err))
		os.Exit(1)
	}

	// Initialize LLM clients: Anthropic answers, OpenAI embeds and serves as
	// the generation fallback.
	generator, err := llm.NewClient(llm.ProviderAnthropic, cfg.AnthropicAPIKey)
	if err != nil {
		log.Error("failed to create Anthropic client", zap.Error(err))
		os.Exit(1)
	}
	openaiClient, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	if err != nil {
		log.Error("failed to create OpenAI client", zap.Error(err))
		os.Exit(1)
	}

	// Initialize services
	idx := index.New()
	tenantSvc := service.NewTenantService(log)
	quota := service.NewQuotaTracker(cfg.DailyMessageQuota)
	costs := service.NewCostMonitor(cfg.DailyBudgetUSD)
	cache := service.NewAnswerCache(cfg.CacheTTL)
	analytics := service.NewAggregator()

	chunker := document.NewChunker(
		document.WithChunkWords(cfg.ChunkWords),
		document.WithOverlapWords(cfg.OverlapWords),
	)

	ingestSvc, err := service.NewIngestService(tenantSvc, idx, openaiClient, cache, chunker, service.IngestConfig{
		UploadDir:     cfg.UploadDir,
		MaxFileSizeMB: cfg.MaxFileSizeMB,
		MaxPages:      cfg.MaxPages,
		LLMTimeout:    cfg.LLMTimeout,
	}, log)
	if err != nil {
		log.Error("failed to create ingest service", zap.Error(err))
		os.Exit(1)
	}

	chatSvc := service.NewChatService(
		tenantSvc, quota, costs, cache, idx,
		openaiClient, generator, openaiClient,
		analytics, streamManager,
		service.ChatConfig{
			RetrievalK:      cfg.RetrievalK,
			MinSimilarity:   cfg.MinSimilarity,
			AnswerModel:     cfg.AnswerModel,
			FallbackModel:   cfg.FallbackModel,
			MaxAnswerTokens: cfg.MaxAnswerTokens,
			LLMTimeout:      cfg.LLMTimeout,
		}, log)

	// Rebuild analytics from the durable chat log
	replayCtx, cancelReplay := context.WithTimeout(ctx, 60*time.Second)
	if err := streamManager.Replay(replayCtx, analytics.Restore); err != nil {
		log.Warn("failed to replay chat log", zap.Error(err))
	}
	cancelReplay()

	// Schedule the daily ledger sweep
	scheduler := schedule.NewCronScheduler(log)
	sweepJob := schedule.NewSweepJob(map[string]schedule.Sweeper{
		"quota": quota,
		"cost":  costs,
	}, log)
	if err := scheduler.AddJob(sweepJob, "0 0 * * *"); err != nil {
		log.Error("failed to schedule sweep job", zap.Error(err))
		os.Exit(1)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient)
	authHandler := handler.NewAuthHandler(tenantSvc, cfg.JWTSecret, cfg.JWTExpiration, log)
	uploadHandler := handler.NewUploadHandler(ingestSvc, tenantSvc, cfg.MaxFileSizeMB, log)
	agentHandler := handler.NewAgentHandler(tenantSvc, log)
	chatHandler := handler.NewChatHandler(chatSvc, log)
	analyticsHandler := handler.NewAnalyticsHandler(analytics, costs, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Public auth endpoints
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Get("/me", authHandler.Me)
		})
	})

	// Public chat widget endpoints
	r.Route("/api/chat/{slug}", func(r chi.Router) {
		r.Use(middleware.Session())
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/info", chatHandler.Info)
		r.Post("/message", chatHandler.Message)
	})

	// Candidate dashboard endpoints
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.TenantRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/documents", uploadHandler.Status)
		r.Post("/program/upload", uploadHandler.Upload(model.CategoryProgram))
		r.Post("/talking-points/upload", uploadHandler.Upload(model.CategoryTalkingPoints))
		r.Post("/competitive/upload", uploadHandler.Upload(model.CategoryCompetitive))

		r.Get("/agent/config", agentHandler.Get)
		r.Put("/agent/config", agentHandler.Update)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/overview", analyticsHandler.Overview)
			r.Get("/top-questions", analyticsHandler.TopQuestions)
			r.Get("/hourly-activity", analyticsHandler.HourlyActivity)
			r.Get("/conversations", analyticsHandler.Conversations)
			r.Get("/export-csv", analyticsHandler.ExportCSV)
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
