package subscribers

import "sysbro/internal/domain"

type ProbeEvents struct {
	hub Broadcaster
}

func NewProbeEvents(hub Broadcaster) *ProbeEvents {
	return &ProbeEvents{hub: hub}
}

func (p *ProbeEvents) Handle(event any) {
	var name string
	var payload any

	switch evt := event.(type) {
	case domain.EventProbeStarted:
		name, payload = domain.WsEventProbeStarted, evt
	case domain.EventProbeSample:
		name, payload = domain.WsEventProbeSample, evt
	case domain.EventProbeFinished:
		name, payload = domain.WsEventProbeFinished, evt.Record
	default:
		return
	}

	p.hub.Broadcast(&domain.WsServerEvent{
		Channel: domain.WsChannelProbe,
		Event:   name,
		Payload: payload,
	})
}
