package utils

import (
	"sync"
)

// Event is a tracking-domain notification: something changed for a user.
type Event struct {
	Name   string `json:"name"`
	UserID int64  `json:"user_id"`
}

type Handler func(event Event)

// EventBus decouples the record-writing services from the listeners that
// react to writes (audit logging, stats-cache invalidation). Publish never
// blocks; events are dropped if the buffer is full.
type EventBus struct {
	subscribers map[string][]Handler
	events      chan Event
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]Handler),
		events:      make(chan Event, 100),
	}
}

func (eb *EventBus) Publish(name string, userID int64) {
	e := Event{Name: name, UserID: userID}
	select {
	case eb.events <- e:
	default:
	}
}

func (eb *EventBus) Subscribe(name string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[name] = append(eb.subscribers[name], handler)
}

// Run delivers published events to their subscribers until Close is called.
// Meant to run as a goroutine from bootstrap.
func (eb *EventBus) Run() {
	for e := range eb.events {
		eb.mu.RLock()
		handlers := eb.subscribers[e.Name]
		eb.mu.RUnlock()
		for _, h := range handlers {
			h(e)
		}
	}
}

func (eb *EventBus) Close() {
	close(eb.events)
}
