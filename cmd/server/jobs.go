// Package main provides the budget bot server entry point.
package main

import (
	"context"
	"time"

	"github.com/opendata-tw/budget-linebot-go/internal/config"
	"github.com/opendata-tw/budget-linebot-go/internal/knowledge"
	"github.com/opendata-tw/budget-linebot-go/internal/logger"
	"github.com/opendata-tw/budget-linebot-go/internal/metrics"
	"github.com/opendata-tw/budget-linebot-go/internal/resolver"
	"github.com/opendata-tw/budget-linebot-go/internal/sentry"
	"github.com/opendata-tw/budget-linebot-go/internal/storage"
)

// refreshKnowledge periodically reloads the knowledge source and swaps the
// resolver's index. A failed reload keeps the current index.
func refreshKnowledge(ctx context.Context, loader *knowledge.Loader, repo *storage.SnapshotRepository, res *resolver.Resolver, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) {
	if cfg.RefreshInterval <= 0 {
		log.Info("Knowledge refresh disabled")
		return
	}

	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			performRefresh(ctx, loader, repo, res, cfg, m, log)
		}
	}
}

// performRefresh executes one reload cycle.
func performRefresh(ctx context.Context, loader *knowledge.Loader, repo *storage.SnapshotRepository, res *resolver.Resolver, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) {
	start := time.Now()
	log.Info("Starting knowledge refresh...")

	loadCtx, cancel := context.WithTimeout(ctx, cfg.SourceTimeout)
	defer cancel()

	idx, err := loader.Load(loadCtx, cfg.EntriesSource, cfg.ChangesSource)
	if err != nil {
		m.RecordSourceLoad("error")
		sentry.CaptureException(err)
		log.WithError(err).Error("Knowledge refresh failed; keeping current index")
		return
	}

	res.SetIndex(idx)
	m.RecordSourceLoad("success")
	m.SetIndexSize(idx.Len(), idx.ChangeCount())
	persistSnapshot(ctx, repo, idx, log)

	log.WithField("entries", idx.Len()).
		WithField("changes", idx.ChangeCount()).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Knowledge refresh complete")
}
