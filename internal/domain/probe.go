package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProbeState int

const (
	ProbeIdle ProbeState = iota
	ProbeRunning
	ProbeSucceeded
	ProbeAborted
)

func (s ProbeState) String() string {
	switch s {
	case ProbeIdle:
		return "idle"
	case ProbeRunning:
		return "running"
	case ProbeSucceeded:
		return "succeeded"
	case ProbeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

func (s ProbeState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type SpeedSample struct {
	TimestampMs    uint64 `json:"timestamp_ms"`
	BytesPerSecond uint64 `json:"bytes_per_second"`
}

type ProbeResult struct {
	ID                 uuid.UUID     `json:"id"`
	ServerIndex        int           `json:"server_index"`
	URL                string        `json:"url"`
	PeakBytesPerSecond uint64        `json:"peak_bytes_per_second"`
	Formatted          string        `json:"formatted"`
	Samples            int           `json:"samples"`
	BytesReceived      uint64        `json:"bytes_received"`
	Duration           time.Duration `json:"duration"`
	FinishedAt         time.Time     `json:"finished_at"`
}

// ProbeRecord is a finished probe as kept in history. Error is empty for
// successful probes.
type ProbeRecord struct {
	ProbeResult
	State ProbeState `json:"state"`
	Error string     `json:"error,omitempty"`
}

type ProbeRepository interface {
	Save(ctx context.Context, rec ProbeRecord) error
	List(ctx context.Context, limit int) ([]ProbeRecord, error)
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}

func ParseProbeState(s string) ProbeState {
	switch s {
	case "running":
		return ProbeRunning
	case "succeeded":
		return ProbeSucceeded
	case "aborted":
		return ProbeAborted
	default:
		return ProbeIdle
	}
}
