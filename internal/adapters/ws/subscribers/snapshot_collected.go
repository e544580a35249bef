package subscribers

import "sysbro/internal/domain"

type SnapshotCollected struct {
	hub Broadcaster
}

func NewSnapshotCollected(hub Broadcaster) *SnapshotCollected {
	return &SnapshotCollected{hub: hub}
}

func (s *SnapshotCollected) Handle(event any) {
	evt, ok := event.(domain.EventSnapshotCollected)
	if !ok {
		return
	}

	s.hub.Broadcast(&domain.WsServerEvent{
		Channel: domain.WsChannelMetrics,
		Event:   domain.WsEventSnapshot,
		Payload: evt.Snapshot,
	})
}
