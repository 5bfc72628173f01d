package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/codeclash/arena-backend/internal/config"
	"github.com/codeclash/arena-backend/internal/database"
	"github.com/codeclash/arena-backend/internal/handler"
	"github.com/codeclash/arena-backend/internal/judge"
	"github.com/codeclash/arena-backend/internal/logger"
	"github.com/codeclash/arena-backend/internal/realtime"
	"github.com/codeclash/arena-backend/internal/repository"
	"github.com/codeclash/arena-backend/internal/router"
	"github.com/codeclash/arena-backend/internal/service"
	"github.com/codeclash/arena-backend/internal/validator"
	"github.com/codeclash/arena-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Arena Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	notifier := realtime.NewNotifier(rdb, log)
	judgeClient := judge.NewClient(cfg)

	authService := service.NewAuthService(cfg, userRepo)
	contentService := service.NewContentService(contentRepo)
	settlementService := service.NewSettlementService(pool, cfg, log)
	sessionService := service.NewSessionService(
		sessionRepo, contentService, judgeClient, settlementService, notifier, rdb, log)
	matchmakerService := service.NewMatchmakerService(
		sessionRepo, userRepo, contentService, notifier, log)
	historyService := service.NewHistoryService(historyRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Session: handler.NewSessionHandler(matchmakerService, sessionService),
		History: handler.NewHistoryHandler(historyService),
		WS:      handler.NewWSHandler(notifier, sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	deadlineWorker := worker.NewDeadlineWorker(sessionService, cfg.SweepInterval, log)
	settlementWorker := worker.NewSettlementWorker(settlementService, sessionRepo, rdb, log)

	go deadlineWorker.Start(workerCtx)
	go settlementWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the settlement queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
