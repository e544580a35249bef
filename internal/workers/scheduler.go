package workers

import (
	"context"
	"time"

	"sysbro/internal/logger"
)

type Scheduler struct {
	log logger.Logger
}

func NewScheduler(log logger.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// RunByDuration runs worker every dur until ctx is done. With runNow the first
// run happens immediately instead of after one period. It blocks.
func (s *Scheduler) RunByDuration(ctx context.Context, dur time.Duration, runNow bool, worker Worker) {
	if runNow {
		s.runOnce(ctx, worker)
	}

	ticker := time.NewTicker(dur)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("worker canceled", "name", worker.Name())
			return
		case <-ticker.C:
			s.runOnce(ctx, worker)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, worker Worker) {
	start := time.Now()

	if err := worker.Run(ctx); err != nil {
		s.log.Error("worker failed", "name", worker.Name(), "error", err)
	}

	s.log.Debug("worker finished", "name", worker.Name(), "time", time.Since(start))
}
