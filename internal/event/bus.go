// Package event
package event

import (
	"reflect"
	"sync"

	"sysbro/internal/logger"
)

type Handler func(event any)

type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]Handler
	log      logger.Logger
}

func New(log logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]Handler),
		log:      log,
	}
}

// Subscribe registers handler for events of the same dynamic type as event.
func (b *Bus) Subscribe(event any, handler Handler) {
	t := reflect.TypeOf(event)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[t] = append(b.handlers[t], handler)
}

func (b *Bus) Publish(event any) {
	t := reflect.TypeOf(event)

	b.mu.RLock()
	handlers := b.handlers[t]
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Warn(
						"event handler panic",
						"event", t.String(),
						"panic", r,
					)
				}
			}()
			h(event)
		}()
	}
}
