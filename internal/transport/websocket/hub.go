// Package websocket
package websocket

import (
	"context"
	"encoding/json"

	"sysbro/internal/domain"
	"sysbro/internal/logger"
)

const eventBuffer = 256

type Hub struct {
	ctx    context.Context
	cancel context.CancelFunc

	clients  map[*Client]bool
	channels map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *Subscription
	unsubscribe chan *Subscription

	events chan *domain.WsServerEvent

	log logger.Logger
}

type Subscription struct {
	client  *Client
	channel string
}

func NewHub(parent context.Context, log logger.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)

	return &Hub{
		ctx:    ctx,
		cancel: cancel,

		clients:  make(map[*Client]bool),
		channels: make(map[string]map[*Client]bool),

		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *Subscription),
		unsubscribe: make(chan *Subscription),

		events: make(chan *domain.WsServerEvent, eventBuffer),

		log: log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.log.Info("ws: hub shutting down")
			for client := range h.clients {
				close(client.send)
			}
			h.clients = map[*Client]bool{}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.log.Info("ws: client registered", "id", client.ID, "total_clients", len(h.clients))

		case client := <-h.unregister:
			h.remove(client)

		case sub := <-h.subscribe:
			if !h.clients[sub.client] {
				continue
			}
			if h.channels[sub.channel] == nil {
				h.channels[sub.channel] = make(map[*Client]bool)
			}
			h.channels[sub.channel][sub.client] = true
			h.log.Debug("ws: client subscribed", "client_id", sub.client.ID, "channel", sub.channel)
			h.ack(sub.client, sub.channel, domain.WsEventSubscribed)

		case sub := <-h.unsubscribe:
			if subs, ok := h.channels[sub.channel]; ok && subs[sub.client] {
				delete(subs, sub.client)
				if len(subs) == 0 {
					delete(h.channels, sub.channel)
				}
				h.log.Debug("ws: client unsubscribed", "client_id", sub.client.ID, "channel", sub.channel)
			}
			if h.clients[sub.client] {
				h.ack(sub.client, sub.channel, domain.WsEventUnsubscribed)
			}

		case event := <-h.events:
			h.handleEvent(event)
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

// Broadcast queues event for the clients subscribed to its channel. It never
// blocks; events are dropped while the queue is full.
func (h *Hub) Broadcast(event *domain.WsServerEvent) {
	select {
	case h.events <- event:
	default:
		h.log.Warn("ws: event queue full, dropping event", "channel", event.Channel, "event", event.Event)
	}
}

func (h *Hub) handleEvent(event *domain.WsServerEvent) {
	subs, ok := h.channels[event.Channel]
	if !ok {
		return
	}

	message, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws: failed to marshal server event", "error", err)
		return
	}

	for client := range subs {
		h.deliver(client, message)
	}
}

func (h *Hub) ack(client *Client, channel, event string) {
	message, err := json.Marshal(&domain.WsServerEvent{Channel: channel, Event: event})
	if err != nil {
		return
	}
	h.deliver(client, message)
}

// deliver drops clients whose send buffer is full.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.log.Warn("ws: slow client dropped", "id", client.ID)
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	if !h.clients[client] {
		return
	}

	delete(h.clients, client)
	close(client.send)

	for channel, subs := range h.channels {
		if subs[client] {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.channels, channel)
			}
		}
	}

	h.log.Info("ws: client unregistered", "id", client.ID, "total_clients", len(h.clients))
}
