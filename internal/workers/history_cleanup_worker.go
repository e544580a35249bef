package workers

import (
	"context"
	"fmt"
	"time"

	"sysbro/internal/domain"
	"sysbro/internal/logger"
)

type HistoryCleanupWorker struct {
	repo      domain.ProbeRepository
	retention time.Duration
	now       func() time.Time
	log       logger.Logger
}

func NewHistoryCleanupWorker(repo domain.ProbeRepository, retention time.Duration, log logger.Logger) *HistoryCleanupWorker {
	return &HistoryCleanupWorker{
		repo:      repo,
		retention: retention,
		now:       time.Now,
		log:       log,
	}
}

func (w *HistoryCleanupWorker) Name() string {
	return "probe_history_cleanup"
}

func (w *HistoryCleanupWorker) Run(ctx context.Context) error {
	if w.retention <= 0 {
		return nil
	}

	cutoff := w.now().UTC().Add(-w.retention)

	n, err := w.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune probe history: %w", err)
	}

	if n > 0 {
		w.log.Info("pruned probe history", "deleted", n, "cutoff", cutoff)
	}
	return nil
}
