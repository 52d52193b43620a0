// Package main provides the budget bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/opendata-tw/budget-linebot-go/internal/bot"
	"github.com/opendata-tw/budget-linebot-go/internal/config"
	"github.com/opendata-tw/budget-linebot-go/internal/knowledge"
	"github.com/opendata-tw/budget-linebot-go/internal/logger"
	"github.com/opendata-tw/budget-linebot-go/internal/matcher"
	"github.com/opendata-tw/budget-linebot-go/internal/metrics"
	"github.com/opendata-tw/budget-linebot-go/internal/modules/stats"
	"github.com/opendata-tw/budget-linebot-go/internal/modules/usage"
	"github.com/opendata-tw/budget-linebot-go/internal/reply"
	"github.com/opendata-tw/budget-linebot-go/internal/resolver"
	"github.com/opendata-tw/budget-linebot-go/internal/sentry"
	"github.com/opendata-tw/budget-linebot-go/internal/storage"
	"github.com/opendata-tw/budget-linebot-go/internal/webhook"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.Info("Starting Budget LineBot Server")

	// Initialize Sentry (disabled when no DSN is configured)
	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     cfg.SentryRelease,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry")
	} else if sentry.IsEnabled() {
		log.Info("Sentry initialized")
	}
	defer sentry.Flush(2 * time.Second)

	// Open the snapshot database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	defer func() { _ = db.Close() }()
	repo := storage.NewSnapshotRepository(db)
	log.WithField("path", cfg.DBPath).Info("Database connected")

	// Create Prometheus registry with standard collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Create the knowledge loader
	fetcher, err := knowledge.NewFetcher(context.Background(), knowledge.S3Config{
		Endpoint:    cfg.S3Endpoint,
		AccessKeyID: cfg.S3AccessKeyID,
		SecretKey:   cfg.S3SecretKey,
	}, cfg.SourceTimeout)
	if err != nil {
		log.WithError(err).Fatal("Failed to create source fetcher")
	}
	loader := knowledge.NewLoader(fetcher, log)

	// Initial load: remote source, then stored snapshot, then empty index.
	idx := loadInitialIndex(context.Background(), loader, repo, cfg, m, log)
	m.SetIndexSize(idx.Len(), idx.ChangeCount())

	store := knowledge.NewStore(idx)
	res := resolver.New(
		store,
		matcher.New(matcher.Thresholds{
			Confident:    cfg.ConfidentThreshold,
			Suggest:      cfg.SuggestThreshold,
			SuggestCount: cfg.SuggestCount,
			MinQueryLen:  cfg.MinQueryLen,
		}),
		reply.NewFormatter(),
		resolver.Limits{
			MaxYearSpan:     cfg.MaxYearSpan,
			MaxListYearSpan: cfg.MaxListYearSpan,
		},
		log,
	)

	// Register bot modules. The stats handler answers everything, so it
	// goes last.
	botRegistry := bot.NewRegistry()
	botRegistry.Register(usage.NewHandler(log))
	botRegistry.Register(stats.NewHandler(res, stats.DefaultFooters(cfg.PortalURL), m, log))

	webhookHandler, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: cfg.LineChannelSecret,
		ChannelToken:  cfg.LineChannelToken,
		Registry:      botRegistry,
		Metrics:       m,
		Logger:        log,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create webhook handler")
	}
	log.Info("Webhook handler created")

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))

	setupRoutes(router, webhookHandler, repo, registry, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Background refresh
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in refresh goroutine")
			}
		}()
		refreshKnowledge(ctx, loader, repo, res, cfg, m, log)
	}()

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	select {
	case <-refreshDone:
	case <-time.After(5 * time.Second):
		log.Warn("Timeout waiting for refresh goroutine to stop")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Drain in-flight webhook events before closing the listener.
	if err := webhookHandler.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Webhook handler shutdown incomplete")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}

// loadInitialIndex loads the knowledge source at startup. When the remote
// source fails, the last stored snapshot is used; when that is also empty,
// the service starts with an empty index and answers apologies until a
// refresh succeeds.
func loadInitialIndex(ctx context.Context, loader *knowledge.Loader, repo *storage.SnapshotRepository, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) *knowledge.Index {
	loadCtx, cancel := context.WithTimeout(ctx, cfg.SourceTimeout)
	defer cancel()

	idx, err := loader.Load(loadCtx, cfg.EntriesSource, cfg.ChangesSource)
	if err == nil {
		m.RecordSourceLoad("success")
		persistSnapshot(ctx, repo, idx, log)
		return idx
	}

	m.RecordSourceLoad("error")
	sentry.CaptureException(err)
	log.WithError(err).Error("Failed to load knowledge source; trying stored snapshot")

	entries, listErr := repo.ListEntries(ctx)
	if listErr != nil || len(entries) == 0 {
		m.RecordSourceLoad("fallback_empty")
		log.Warn("No stored snapshot available; starting with empty index")
		return knowledge.Empty()
	}
	changes, _ := repo.ListChanges(ctx)

	m.RecordSourceLoad("fallback")
	if age, err := repo.SnapshotAge(ctx); err == nil {
		log.WithField("entries", len(entries)).
			WithField("snapshot_age", age.Round(time.Minute).String()).
			Warn("Answering from stored snapshot")
	}
	return knowledge.BuildIndex(entries, changes)
}

// persistSnapshot stores the freshly loaded source so a later restart can
// come up without the remote source.
func persistSnapshot(ctx context.Context, repo *storage.SnapshotRepository, idx *knowledge.Index, log *logger.Logger) {
	if err := repo.ReplaceEntries(ctx, idx.Entries()); err != nil {
		log.WithError(err).Warn("Failed to persist entry snapshot")
		return
	}
	if err := repo.ReplaceChanges(ctx, idx.Changes()); err != nil {
		log.WithError(err).Warn("Failed to persist change snapshot")
	}
}
