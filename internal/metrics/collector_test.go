package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"sysbro/internal/domain"
	"sysbro/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSampler struct {
	cpu    []domain.CPUSample
	net    []domain.NetworkCounters
	mem    domain.MemoryReading
	disk   domain.DiskAggregate
	memErr error
	cpuErr error
}

func (f *fakeSampler) CPUSample() (domain.CPUSample, error) {
	if f.cpuErr != nil {
		return domain.CPUSample{}, f.cpuErr
	}
	s := f.cpu[0]
	if len(f.cpu) > 1 {
		f.cpu = f.cpu[1:]
	}
	return s, nil
}

func (f *fakeSampler) NetworkCounters() (domain.NetworkCounters, error) {
	n := f.net[0]
	if len(f.net) > 1 {
		f.net = f.net[1:]
	}
	return n, nil
}

func (f *fakeSampler) Memory() (domain.MemoryReading, error) {
	return f.mem, f.memErr
}

func (f *fakeSampler) DiskAggregate(context.Context) (domain.DiskAggregate, error) {
	return f.disk, nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

type captureBus struct {
	events []any
}

func (b *captureBus) Publish(event any) { b.events = append(b.events, event) }

func newFakeSampler() *fakeSampler {
	return &fakeSampler{
		cpu: []domain.CPUSample{
			{WorkTicks: 1000, TotalTicks: 5000},
			{WorkTicks: 1030, TotalTicks: 5100},
		},
		net: []domain.NetworkCounters{
			{RxBytes: 0, TxBytes: 0},
			{RxBytes: 26 << 20, TxBytes: 2048},
		},
		mem:  domain.MemoryReading{TotalBytes: 2 << 30, AvailableBytes: 1536 << 20},
		disk: domain.DiskAggregate{TotalBytes: 100 << 30, FreeBytes: 25 << 30},
	}
}

func TestCollectDerivesRatesFromTwoSnapshots(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	bus := &captureBus{}
	c := NewCollector(logger.Nop(), newFakeSampler(), Options{Publisher: bus, Now: clock.now})

	c.Prime()
	clock.t = clock.t.Add(2 * time.Second)
	s := c.Collect(context.Background())

	assert.InDelta(t, 30.0, s.CPUPercent, 1e-9)
	assert.Equal(t, "512.0MB / 2.0GB", s.Memory)
	assert.InDelta(t, 25.0, s.MemoryPercent, 1e-9)
	assert.Equal(t, "75.0GB / 100.0GB", s.Disk)
	assert.InDelta(t, 75.0, s.DiskPercent, 1e-9)
	assert.Equal(t, "13.0MB/s", s.Download)
	assert.Equal(t, "1.0KB/s", s.Upload)

	require.Len(t, bus.events, 1)
	assert.Equal(t, s, bus.events[0].(domain.EventSnapshotCollected).Snapshot)
}

func TestCollectWithoutBaselineReportsUnknownRates(t *testing.T) {
	c := NewCollector(logger.Nop(), newFakeSampler(), Options{})

	s := c.Collect(context.Background())

	assert.Equal(t, -1.0, s.CPUPercent)
	assert.Equal(t, domain.Unknown, s.Download)
	assert.Equal(t, domain.Unknown, s.Upload)
	assert.Equal(t, "512.0MB / 2.0GB", s.Memory)
}

func TestCollectSubstitutesPlaceholdersOnFailure(t *testing.T) {
	sampler := newFakeSampler()
	sampler.memErr = domain.Errorf(domain.KindParse, "read memory", "MemTotal not found")
	sampler.disk = domain.DiskAggregate{}
	sampler.cpuErr = errors.New("proc unavailable")

	c := NewCollector(logger.Nop(), sampler, Options{})
	c.Prime()

	s := c.Collect(context.Background())

	assert.Equal(t, -1.0, s.CPUPercent)
	assert.Equal(t, domain.Unknown, s.Memory)
	assert.Equal(t, -1.0, s.MemoryPercent)
	assert.Equal(t, domain.Unknown, s.Disk, "zero total disk size must not divide")
	assert.Equal(t, -1.0, s.DiskPercent)
	assert.NotNil(t, c.Latest(), "a bad sample is still recorded")
}

func TestCollectClampsDiskFreeAboveTotal(t *testing.T) {
	sampler := newFakeSampler()
	sampler.disk = domain.DiskAggregate{TotalBytes: 10 << 30, FreeBytes: 11 << 30}

	c := NewCollector(logger.Nop(), sampler, Options{})
	s := c.Collect(context.Background())

	assert.Equal(t, "0.0B / 10.0GB", s.Disk)
	assert.InDelta(t, 0.0, s.DiskPercent, 1e-9)
}

func TestHistoryIsBounded(t *testing.T) {
	c := NewCollector(logger.Nop(), newFakeSampler(), Options{MaxSamples: 3})
	assert.Nil(t, c.Latest())

	for range 5 {
		c.Collect(context.Background())
	}

	history := c.History()
	assert.Len(t, history, 3)
	assert.Equal(t, history[2], *c.Latest())
}

func TestStartStopsOnContextCancel(t *testing.T) {
	c := NewCollector(logger.Nop(), newFakeSampler(), Options{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(c.History()) >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
}
