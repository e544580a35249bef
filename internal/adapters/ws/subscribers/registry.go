// Package subscribers forwards bus events to websocket channels.
package subscribers

import (
	"sysbro/internal/domain"
	"sysbro/internal/event"
)

type Broadcaster interface {
	Broadcast(event *domain.WsServerEvent)
}

func Register(bus *event.Bus, hub Broadcaster) {
	// Metrics
	snapshotCollected := NewSnapshotCollected(hub)

	bus.Subscribe(domain.EventSnapshotCollected{}, snapshotCollected.Handle)

	// Probe
	probeEvents := NewProbeEvents(hub)

	bus.Subscribe(domain.EventProbeStarted{}, probeEvents.Handle)
	bus.Subscribe(domain.EventProbeSample{}, probeEvents.Handle)
	bus.Subscribe(domain.EventProbeFinished{}, probeEvents.Handle)
}
