package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asoares/lull/internal/config"
	"github.com/asoares/lull/internal/database"
	"github.com/asoares/lull/internal/handler"
	"github.com/asoares/lull/internal/scheduler"
	"github.com/asoares/lull/internal/service"
	"github.com/asoares/lull/internal/timeperiod"
	"github.com/asoares/lull/internal/webhook"
	"github.com/asoares/lull/internal/worker"
	"github.com/asoares/lull/pkg/middleware"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting Lull Downtime Scheduler", "version", version)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to MongoDB
	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			slog.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}()

	// Create indexes
	if err := database.CreateIndexes(ctx, db); err != nil {
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	checkableRepo := database.NewCheckableRepository(db)
	scheduleRepo := database.NewScheduleRepository(db)
	downtimeRepo := database.NewDowntimeRepository(db)
	lockRepo := database.NewLockRepository(db)

	// Initialize webhook dispatcher (disabled when no URL is configured)
	var notifier service.DowntimeNotifier
	if cfg.WebhookURL != "" {
		notifier = webhook.NewDispatcher(cfg.WebhookURL, cfg.WebhookTimeout, webhook.RetryConfig{
			MaxAttempts:    cfg.WebhookMaxAttempts,
			InitialDelayMs: cfg.WebhookInitialDelayMs,
			MaxDelayMs:     cfg.WebhookMaxDelayMs,
			Multiplier:     cfg.WebhookBackoffMultiple,
		})
	}

	// Initialize reconciler
	finder := service.NewSegmentFinder(timeperiod.NewResolver())
	reconciler := service.NewReconciler(scheduleRepo, checkableRepo, downtimeRepo, finder, notifier)

	// Initialize janitor
	janitor, err := scheduler.NewJanitor(downtimeRepo, cfg.JanitorSchedule, cfg.JanitorRetention)
	if err != nil {
		slog.Error("Invalid janitor schedule", "error", err)
		os.Exit(1)
	}

	// Initialize dispatcher
	sched := scheduler.New(scheduleRepo, lockRepo, reconciler.Reconcile, janitor, scheduler.Options{
		Enabled:     cfg.SchedulerEnabled,
		LockTTL:     cfg.SchedulerLockTTL,
		Concurrency: cfg.SchedulerConcurrency,
	})
	sched.Start(ctx)

	// Initialize worker pool and async reconciler, sharing the dispatcher's
	// lock-owner identity
	pool := worker.NewPool(cfg.ReconcileWorkers, cfg.ReconcileQueueSize)
	asyncReconciler := service.NewAsyncReconciler(reconciler, lockRepo, pool, sched.Owner(), cfg.SchedulerLockTTL)
	pool.Start()

	// Initialize services
	checkableService := service.NewCheckableService(checkableRepo)
	scheduleService := service.NewScheduleService(scheduleRepo, checkableRepo, lockRepo, reconciler, sched.Owner(), cfg.SchedulerLockTTL)
	downtimeService := service.NewDowntimeService(downtimeRepo, checkableRepo)

	// Initialize handlers
	checkableHandler := handler.NewCheckableHandler(checkableService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService, reconciler, asyncReconciler)
	downtimeHandler := handler.NewDowntimeHandler(downtimeService)
	healthHandler := handler.NewHealthHandler(db, version)

	// Create CORS config
	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	// Create router
	router := handler.NewRouter(
		checkableHandler,
		scheduleHandler,
		downtimeHandler,
		healthHandler,
		corsConfig,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop dispatcher first (wait for in-flight reconciles, release locks)
	slog.Info("Stopping dispatcher...")
	sched.Stop(shutdownCtx)

	// Shutdown HTTP server before the pool so no handler submits jobs to a
	// stopping pool
	slog.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Drain the async worker pool
	slog.Info("Stopping worker pool...")
	pool.Stop()

	slog.Info("Lull Downtime Scheduler stopped")
}
