package api

import (
	"sync"

	"github.com/angristan/deo-tui/internal/models"
)

// EventType represents the kind of change notification
type EventType string

const (
	EventCapabilitiesChanged   EventType = "capabilities_changed"
	EventCanOverrideChanged    EventType = "can_override_changed"
	EventOverrideActiveChanged EventType = "override_active_changed"
)

// Event is a change notification from the override object. Only the field
// matching Type is meaningful.
type Event struct {
	Type         EventType
	Capabilities models.Capabilities
	CanOverride  bool
	Active       bool
}

// EventHandler is called with batches of events, in order
type EventHandler func(events []Event)

// eventHub fans events out to in-process subscribers. Each subscriber has its
// own queue and goroutine so a slow handler never blocks the publisher.
type eventHub struct {
	mu     sync.Mutex
	subs   map[int]*hubSubscription
	nextID int
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[int]*hubSubscription)}
}

// subscribe registers a handler; the returned subscription delivers until stopped
func (h *eventHub) subscribe(handler EventHandler) *hubSubscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &hubSubscription{
		hub:     h,
		id:      h.nextID,
		handler: handler,
		queue:   make(chan []Event, 64),
		done:    make(chan struct{}),
	}
	h.nextID++
	h.subs[sub.id] = sub

	go sub.run()
	return sub
}

// publish queues events for every subscriber
func (h *eventHub) publish(events ...Event) {
	if len(events) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		batch := make([]Event, len(events))
		copy(batch, events)
		select {
		case sub.queue <- batch:
		case <-sub.done:
		}
	}
}

func (h *eventHub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

type hubSubscription struct {
	hub      *eventHub
	id       int
	handler  EventHandler
	queue    chan []Event
	done     chan struct{}
	stopOnce sync.Once
}

func (s *hubSubscription) run() {
	for {
		select {
		case <-s.done:
			return
		case batch := <-s.queue:
			if s.handler != nil {
				s.handler(batch)
			}
		}
	}
}

// Stop unregisters the handler; pending events are dropped
func (s *hubSubscription) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.hub.remove(s.id)
	})
}
