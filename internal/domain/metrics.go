package domain

import "time"

type CPUSample struct {
	WorkTicks  uint64 `json:"work_ticks"`
	TotalTicks uint64 `json:"total_ticks"`
}

type CPUInfo struct {
	Model     string `json:"model"`
	CoreCount uint32 `json:"core_count"`
}

type MemoryReading struct {
	TotalBytes     uint64 `json:"total_bytes"`
	AvailableBytes uint64 `json:"available_bytes"`
}

func (m MemoryReading) UsedBytes() uint64 {
	if m.AvailableBytes > m.TotalBytes {
		return 0
	}
	return m.TotalBytes - m.AvailableBytes
}

func (m MemoryReading) Percent() (float64, error) {
	if m.TotalBytes == 0 {
		return 0, Errorf(KindCompute, "memory percent", "total memory is zero")
	}
	return float64(m.UsedBytes()) / float64(m.TotalBytes) * 100, nil
}

type DiskAggregate struct {
	TotalBytes int64 `json:"total_bytes"`
	FreeBytes  int64 `json:"free_bytes"`
}

func (d DiskAggregate) UsedBytes() int64 {
	if d.FreeBytes > d.TotalBytes {
		return 0
	}
	return d.TotalBytes - d.FreeBytes
}

func (d DiskAggregate) Percent() (float64, error) {
	if d.TotalBytes <= 0 {
		return 0, Errorf(KindCompute, "disk percent", "total disk size is zero")
	}
	return float64(d.UsedBytes()) * 100 / float64(d.TotalBytes), nil
}

type NetworkCounters struct {
	RxBytes uint64 `json:"rx_bytes"`
	TxBytes uint64 `json:"tx_bytes"`
}

type NetworkRate struct {
	RxBytesPerSecond uint64 `json:"rx_bytes_per_second"`
	TxBytesPerSecond uint64 `json:"tx_bytes_per_second"`
}

type HostInfo struct {
	Hostname     string  `json:"hostname"`
	UserName     string  `json:"user_name"`
	Platform     string  `json:"platform"`
	Distribution string  `json:"distribution"`
	Debian       string  `json:"debian_version,omitempty"`
	Kernel       string  `json:"kernel"`
	CPU          CPUInfo `json:"cpu"`
	UptimeSecs   float64 `json:"uptime_seconds"`
}

// Snapshot is one collector tick rendered for display. Percent fields are -1
// and strings are Unknown when the underlying reading failed.
type Snapshot struct {
	CPUPercent    float64   `json:"cpu_percent"`
	Memory        string    `json:"memory"`
	MemoryPercent float64   `json:"memory_percent"`
	Disk          string    `json:"disk"`
	DiskPercent   float64   `json:"disk_percent"`
	Download      string    `json:"download"`
	Upload        string    `json:"upload"`
	RecordedAt    time.Time `json:"recorded_at"`
}

const Unknown = "unknown"
