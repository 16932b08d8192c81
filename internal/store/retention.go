package store

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls how long reports are kept.
type RetentionConfig struct {
	MaxAge        time.Duration // Reports older than this are deleted
	BatchSize     int           // Reports per DELETE (default: 500)
	CheckInterval time.Duration // How often to run (default: 24h)
}

// Deleter removes reports older than a cutoff.
type Deleter interface {
	DeleteReportsBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

// StartRetention deletes expired reports immediately and then every
// CheckInterval until ctx is cancelled. Failures are logged and retried on
// the next tick.
func StartRetention(ctx context.Context, d Deleter, cfg RetentionConfig) {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 24 * time.Hour
	}
	slog.Info("report retention started",
		"max_age", cfg.MaxAge.String(),
		"interval", cfg.CheckInterval.String(),
		"batch_size", cfg.BatchSize,
	)

	runRetention(ctx, d, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("report retention stopped")
			return
		case now := <-ticker.C:
			runRetention(ctx, d, cfg, now)
		}
	}
}

// runRetention performs one cleanup pass relative to now.
func runRetention(ctx context.Context, d Deleter, cfg RetentionConfig, now time.Time) (int64, error) {
	start := time.Now()
	cutoff := now.Add(-cfg.MaxAge)

	deleted, err := d.DeleteReportsBefore(ctx, cutoff, cfg.BatchSize)
	if err != nil {
		slog.Error("report retention failed", "error", err, "deleted", deleted)
		return deleted, err
	}
	slog.Info("deleted expired reports",
		"deleted", deleted,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return deleted, nil
}
