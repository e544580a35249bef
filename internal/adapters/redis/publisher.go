package redis

import (
	"context"
	"time"

	"sysbro/internal/domain"
	"sysbro/internal/event"
	"sysbro/internal/logger"
)

const (
	SnapshotStream = "sysbro:snapshots"
	ProbeStream    = "sysbro:probes"

	snapshotMaxLen = 1000
	probeMaxLen    = 200
	appendTimeout  = 2 * time.Second
)

type appender interface {
	Append(ctx context.Context, stream string, payload any, maxLen int64) (string, error)
}

// StreamPublisher copies bus events into redis streams. Failures are logged
// and dropped.
type StreamPublisher struct {
	registry appender
	log      logger.Logger
}

func NewStreamPublisher(registry appender, log logger.Logger) *StreamPublisher {
	return &StreamPublisher{registry: registry, log: log}
}

func (p *StreamPublisher) Attach(bus *event.Bus) {
	bus.Subscribe(domain.EventSnapshotCollected{}, func(e any) {
		p.append(SnapshotStream, e.(domain.EventSnapshotCollected).Snapshot, snapshotMaxLen)
	})
	bus.Subscribe(domain.EventProbeFinished{}, func(e any) {
		p.append(ProbeStream, e.(domain.EventProbeFinished).Record, probeMaxLen)
	})
}

func (p *StreamPublisher) append(stream string, payload any, maxLen int64) {
	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()

	if _, err := p.registry.Append(ctx, stream, payload, maxLen); err != nil {
		p.log.Warn("redis: failed to append", "stream", stream, "error", err)
	}
}
