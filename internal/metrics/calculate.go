package metrics

import (
	"context"
	"time"

	"sysbro/internal/domain"
	"sysbro/internal/system"
	"sysbro/pkg/units"
)

func (c *Collector) cpuPercent() float64 {
	curr, err := c.sampler.CPUSample()
	if err != nil {
		c.log.Debug("failed to sample cpu", "error", err)
		return -1
	}

	last := c.lastCPU
	c.lastCPU = &curr
	if last == nil {
		return -1
	}

	usage, err := system.CPUUsage(*last, curr)
	if err != nil {
		c.log.Debug("failed to compute cpu usage", "error", err)
		return -1
	}
	return usage
}

func (c *Collector) memory() (string, float64) {
	mem, err := c.sampler.Memory()
	if err != nil {
		c.log.Debug("failed to read memory", "error", err)
		return domain.Unknown, -1
	}

	percent, err := mem.Percent()
	if err != nil {
		c.log.Debug("failed to compute memory usage", "error", err)
		return domain.Unknown, -1
	}

	return units.FormatUsage(mem.UsedBytes(), mem.TotalBytes), percent
}

func (c *Collector) disk(ctx context.Context) (string, float64) {
	agg, err := c.sampler.DiskAggregate(ctx)
	if err != nil {
		c.log.Debug("failed to read disks", "error", err)
		return domain.Unknown, -1
	}

	percent, err := agg.Percent()
	if err != nil {
		c.log.Debug("failed to compute disk usage", "error", err)
		return domain.Unknown, -1
	}

	return units.FormatUsage(uint64(agg.UsedBytes()), uint64(agg.TotalBytes)), percent
}

func (c *Collector) network(now time.Time) (download, upload string) {
	curr, err := c.sampler.NetworkCounters()
	if err != nil {
		c.log.Debug("failed to read network counters", "error", err)
		return domain.Unknown, domain.Unknown
	}

	last := c.lastNet
	c.lastNet = &NetState{Counters: curr, Time: now}
	if last == nil {
		return domain.Unknown, domain.Unknown
	}

	rate, err := system.NetworkRate(last.Counters, curr, now.Sub(last.Time))
	if err != nil {
		c.log.Debug("failed to compute network rate", "error", err)
		return domain.Unknown, domain.Unknown
	}

	return units.FormatRate(rate.RxBytesPerSecond), units.FormatRate(rate.TxBytesPerSecond)
}
