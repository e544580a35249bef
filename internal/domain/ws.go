package domain

import "encoding/json"

const (
	WsChannelMetrics = "metrics"
	WsChannelProbe   = "probe"

	WsEventSnapshot      = "snapshot"
	WsEventProbeStarted  = "started"
	WsEventProbeSample   = "sample"
	WsEventProbeFinished = "finished"
	WsEventSubscribed    = "subscribed"
	WsEventUnsubscribed  = "unsubscribed"
)

type WsClientMessage struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WsServerEvent struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}
