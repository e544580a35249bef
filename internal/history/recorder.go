// Package history keeps finished probes in a repository.
package history

import (
	"context"
	"time"

	"sysbro/internal/domain"
	"sysbro/internal/event"
	"sysbro/internal/logger"
)

const saveTimeout = 5 * time.Second

type Recorder struct {
	repo domain.ProbeRepository
	log  logger.Logger
}

func NewRecorder(repo domain.ProbeRepository, log logger.Logger) *Recorder {
	return &Recorder{repo: repo, log: log}
}

func (r *Recorder) Attach(bus *event.Bus) {
	bus.Subscribe(domain.EventProbeFinished{}, func(e any) {
		r.Save(e.(domain.EventProbeFinished).Record)
	})
}

func (r *Recorder) Save(rec domain.ProbeRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := r.repo.Save(ctx, rec); err != nil {
		r.log.Error("history: failed to save probe", "id", rec.ID, "error", err)
		return
	}
	r.log.Debug("history: probe saved", "id", rec.ID, "state", rec.State)
}

func (r *Recorder) List(ctx context.Context, limit int) ([]domain.ProbeRecord, error) {
	return r.repo.List(ctx, limit)
}
