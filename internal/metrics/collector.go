// Package metrics
package metrics

import (
	"context"
	"sync"
	"time"

	"sysbro/internal/domain"
	"sysbro/internal/logger"
)

// Sampler is the subset of system.SystemReader the collector polls.
type Sampler interface {
	CPUSample() (domain.CPUSample, error)
	Memory() (domain.MemoryReading, error)
	DiskAggregate(ctx context.Context) (domain.DiskAggregate, error)
	NetworkCounters() (domain.NetworkCounters, error)
}

type Publisher interface {
	Publish(event any)
}

type NetState struct {
	Counters domain.NetworkCounters
	Time     time.Time
}

type Collector struct {
	log     logger.Logger
	sampler Sampler
	bus     Publisher
	now     func() time.Time

	buffer   []domain.Snapshot
	bufferMu sync.RWMutex

	stateMu sync.Mutex

	maxSamples int
	interval   time.Duration

	lastCPU *domain.CPUSample
	lastNet *NetState
}

type Options struct {
	Interval   time.Duration
	MaxSamples int
	Publisher  Publisher
	Now        func() time.Time
}

func NewCollector(log logger.Logger, sampler Sampler, opts Options) *Collector {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 60
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Collector{
		log:     log,
		sampler: sampler,
		bus:     opts.Publisher,
		now:     opts.Now,

		buffer:     make([]domain.Snapshot, 0, opts.MaxSamples),
		maxSamples: opts.MaxSamples,
		interval:   opts.Interval,
	}
}

func (c *Collector) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Prime()
	c.log.Info("metrics collector started", "interval", c.interval)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("metrics collector stopping...")
			return ctx.Err()
		case <-ticker.C:
			c.Collect(ctx)
		}
	}
}

// Prime records baseline CPU and network counters so the first Collect can
// report rates.
func (c *Collector) Prime() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if cpu, err := c.sampler.CPUSample(); err == nil {
		c.lastCPU = &cpu
	}
	if net, err := c.sampler.NetworkCounters(); err == nil {
		c.lastNet = &NetState{Counters: net, Time: c.now()}
	}
}

func (c *Collector) Latest() *domain.Snapshot {
	c.bufferMu.RLock()
	defer c.bufferMu.RUnlock()

	if len(c.buffer) == 0 {
		return nil
	}

	s := c.buffer[len(c.buffer)-1]
	return &s
}

func (c *Collector) History() []domain.Snapshot {
	c.bufferMu.RLock()
	defer c.bufferMu.RUnlock()

	out := make([]domain.Snapshot, len(c.buffer))
	copy(out, c.buffer)
	return out
}

// Collect takes one snapshot. Readings that fail are rendered as
// domain.Unknown and never stop the loop.
func (c *Collector) Collect(ctx context.Context) domain.Snapshot {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	now := c.now()

	snapshot := domain.Snapshot{RecordedAt: now.UTC()}
	snapshot.CPUPercent = c.cpuPercent()
	snapshot.Memory, snapshot.MemoryPercent = c.memory()
	snapshot.Disk, snapshot.DiskPercent = c.disk(ctx)
	snapshot.Download, snapshot.Upload = c.network(now)

	c.bufferMu.Lock()
	if len(c.buffer) >= c.maxSamples {
		c.buffer = c.buffer[1:]
	}
	c.buffer = append(c.buffer, snapshot)
	c.bufferMu.Unlock()

	if c.bus != nil {
		c.bus.Publish(domain.EventSnapshotCollected{Snapshot: snapshot})
	}

	return snapshot
}
