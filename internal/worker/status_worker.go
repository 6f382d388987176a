package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/observability/metrics"
)

// StatusSyncer advances session statuses to match the clock
type StatusSyncer interface {
	SyncStatuses(ctx context.Context) (int64, error)
}

// StatusWorker periodically moves sessions between scheduled, ongoing and
// completed
type StatusWorker struct {
	sessions StatusSyncer
	logger   *slog.Logger
	interval time.Duration
}

// NewStatusWorker creates a new status worker. A zero interval disables it.
func NewStatusWorker(sessions StatusSyncer, logger *slog.Logger, interval time.Duration) *StatusWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusWorker{
		sessions: sessions,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the sync loop until ctx is cancelled
func (w *StatusWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("status worker disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("status worker started", slog.Duration("interval", w.interval))

	// catch up with transitions missed while the server was down
	w.sync(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("status worker stopped")
			return
		case <-ticker.C:
			w.sync(ctx)
		}
	}
}

func (w *StatusWorker) sync(ctx context.Context) {
	n, err := w.sessions.SyncStatuses(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.ObserveStatusSync("error", 0)
		w.logger.Error("session status sync failed", slog.String("error", err.Error()))
		return
	}

	metrics.ObserveStatusSync("success", n)
	if n > 0 {
		w.logger.Info("session statuses updated", slog.Int64("sessions", n))
	}
}
