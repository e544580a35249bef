// Package observability exports collector and probe state as Prometheus
// metrics.
package observability

import (
	"sysbro/internal/domain"
	"sysbro/internal/event"

	"github.com/prometheus/client_golang/prometheus"
)

type PromMetrics struct {
	snapshots     prometheus.Counter
	unknown       *prometheus.CounterVec
	cpuPercent    prometheus.Gauge
	memoryPercent prometheus.Gauge
	diskPercent   prometheus.Gauge

	probes       *prometheus.CounterVec
	probeSamples prometheus.Counter
	probePeak    prometheus.Gauge
	probeSeconds prometheus.Histogram
}

func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sysbro_snapshots_total",
			Help: "Metric snapshots taken by the collector.",
		}),
		unknown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sysbro_snapshot_unknown_total",
			Help: "Snapshot readings replaced by a placeholder, by reading.",
		}, []string{"reading"}),
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sysbro_cpu_usage_percent",
			Help: "CPU busy percentage over the last collector interval.",
		}),
		memoryPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sysbro_memory_usage_percent",
			Help: "Used memory as a percentage of total.",
		}),
		diskPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sysbro_disk_usage_percent",
			Help: "Used space across distinct mounted devices.",
		}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sysbro_probes_total",
			Help: "Finished bandwidth probes, by terminal state.",
		}, []string{"state"}),
		probeSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sysbro_probe_samples_total",
			Help: "Speed samples recorded across all probes.",
		}),
		probePeak: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sysbro_probe_peak_bytes_per_second",
			Help: "Peak throughput of the last successful probe.",
		}),
		probeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sysbro_probe_duration_seconds",
			Help:    "Wall time of finished probes.",
			Buckets: prometheus.LinearBuckets(1, 2, 8),
		}),
	}

	reg.MustRegister(
		m.snapshots, m.unknown, m.cpuPercent, m.memoryPercent, m.diskPercent,
		m.probes, m.probeSamples, m.probePeak, m.probeSeconds,
	)

	return m
}

func (m *PromMetrics) Attach(bus *event.Bus) {
	bus.Subscribe(domain.EventSnapshotCollected{}, func(e any) {
		m.ObserveSnapshot(e.(domain.EventSnapshotCollected).Snapshot)
	})
	bus.Subscribe(domain.EventProbeSample{}, func(any) {
		m.probeSamples.Inc()
	})
	bus.Subscribe(domain.EventProbeFinished{}, func(e any) {
		m.ObserveProbe(e.(domain.EventProbeFinished).Record)
	})
}

func (m *PromMetrics) ObserveSnapshot(s domain.Snapshot) {
	m.snapshots.Inc()

	setOrCount := func(reading string, g prometheus.Gauge, v float64) {
		if v < 0 {
			m.unknown.WithLabelValues(reading).Inc()
			return
		}
		g.Set(v)
	}

	setOrCount("cpu", m.cpuPercent, s.CPUPercent)
	setOrCount("memory", m.memoryPercent, s.MemoryPercent)
	setOrCount("disk", m.diskPercent, s.DiskPercent)

	if s.Download == domain.Unknown {
		m.unknown.WithLabelValues("network").Inc()
	}
}

func (m *PromMetrics) ObserveProbe(rec domain.ProbeRecord) {
	m.probes.WithLabelValues(rec.State.String()).Inc()
	m.probeSeconds.Observe(rec.Duration.Seconds())

	if rec.State == domain.ProbeSucceeded {
		m.probePeak.Set(float64(rec.PeakBytesPerSecond))
	}
}
