package probe

import (
	"time"

	"sysbro/internal/domain"
)

// tracker turns progress notifications into speed samples and decides when a
// probe has seen enough. It does no I/O.
type tracker struct {
	maxDuration time.Duration
	samples     []domain.SpeedSample
	received    uint64
}

func newTracker(maxDuration time.Duration) *tracker {
	return &tracker{maxDuration: maxDuration}
}

// observe records one notification. total < 0 means the size is unknown.
// A notification at elapsed 0 yields no sample unless it completes the
// transfer, in which case elapsed is clamped to 1ms.
func (t *tracker) observe(received, total int64, elapsed time.Duration) (sample domain.SpeedSample, recorded, stop bool) {
	if received < 0 {
		received = 0
	}
	t.received = uint64(received)

	complete := total >= 0 && received == total
	stop = complete || elapsed >= t.maxDuration

	ms := elapsed.Milliseconds()
	if ms <= 0 {
		if !complete {
			return domain.SpeedSample{}, false, stop
		}
		ms = 1
	}

	sample = domain.SpeedSample{
		TimestampMs:    uint64(ms),
		BytesPerSecond: uint64(received) * 1000 / uint64(ms),
	}
	t.samples = append(t.samples, sample)

	return sample, true, stop
}

func (t *tracker) peak() uint64 {
	return Peak(t.samples)
}

// Peak returns the fastest sample. Probes report this, not the mean.
func Peak(samples []domain.SpeedSample) uint64 {
	var best uint64
	for _, s := range samples {
		if s.BytesPerSecond > best {
			best = s.BytesPerSecond
		}
	}
	return best
}
