package domain

import "github.com/google/uuid"

type EventSnapshotCollected struct {
	Snapshot Snapshot `json:"snapshot"`
}

type EventProbeStarted struct {
	ID          uuid.UUID `json:"id"`
	ServerIndex int       `json:"server_index"`
	URL         string    `json:"url"`
}

type EventProbeSample struct {
	ID        uuid.UUID   `json:"id"`
	Sample    SpeedSample `json:"sample"`
	Formatted string      `json:"formatted"`
}

type EventProbeFinished struct {
	Record ProbeRecord `json:"record"`
}
