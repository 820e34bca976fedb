package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/angristan/deo-tui/internal/logging"
)

const (
	eventReconnectDelay = 5 * time.Second
	eventReadTimeout    = 60 * time.Second
	eventBatchTimeout   = 50 * time.Millisecond
)

// EventSubscription manages a WebSocket connection to an agent for events
type EventSubscription struct {
	agent   *AgentOverride
	handler EventHandler
	conn    *websocket.Conn
	mu      sync.Mutex
	done    chan struct{}
	running bool

	// Event batching. deliverMu serializes handler calls: a timer that
	// already fired cannot be stopped, so two deliveries may race.
	eventBatch     []Event
	batchMu        sync.Mutex
	deliverMu      sync.Mutex
	batchTimer     *time.Timer
	batchTimeout   time.Duration
	reconnectDelay time.Duration
}

// NewEventSubscription creates a new event subscription
func NewEventSubscription(agent *AgentOverride, handler EventHandler) *EventSubscription {
	return &EventSubscription{
		agent:          agent,
		handler:        handler,
		done:           make(chan struct{}),
		batchTimeout:   eventBatchTimeout,
		reconnectDelay: eventReconnectDelay,
	}
}

// Start begins listening for events
func (s *EventSubscription) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// Stop stops the event subscription. No handler call starts after Stop returns.
func (s *EventSubscription) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	close(s.done)

	if s.conn != nil {
		_ = s.conn.Close()
	}

	s.batchMu.Lock()
	if s.batchTimer != nil {
		s.batchTimer.Stop()
	}
	s.eventBatch = nil
	s.batchMu.Unlock()
}

func (s *EventSubscription) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// run is the main event loop
func (s *EventSubscription) run(ctx context.Context) {
	ctx = logging.WithComponent(ctx, "agent-events")
	log := logging.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		err := s.connect(ctx)
		if err != nil {
			log.Debug().Err(err).Dur("retry_in", s.reconnectDelay).Msg("event stream unavailable")
			select {
			case <-time.After(s.reconnectDelay):
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
			continue
		}
		log.Info().Str("agent", s.agent.Name()).Msg("event stream connected")

		// Notifications may have been missed while disconnected
		s.resync(ctx)

		s.readLoop(ctx)

		// Connection lost, reconnect
		s.mu.Lock()
		if s.conn != nil {
			_ = s.conn.Close()
			s.conn = nil
		}
		s.mu.Unlock()
	}
}

// connect establishes the WebSocket connection
func (s *EventSubscription) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	header := http.Header{}
	header.Set(agentKeyHeader, s.agent.key)

	conn, _, err := dialer.DialContext(ctx, s.agent.eventsURL(), header)
	if err != nil {
		return fmt.Errorf("failed to connect to event stream: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		_ = conn.Close()
		return fmt.Errorf("subscription stopped")
	}
	s.conn = conn

	return nil
}

// resync replays the current state as events
func (s *EventSubscription) resync(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, agentRequestTimeout)
	defer cancel()

	state, err := s.agent.Snapshot(ctx)
	if err != nil {
		return
	}
	s.batchEvents([]Event{
		{Type: EventCapabilitiesChanged, Capabilities: state.Capabilities},
		{Type: EventCanOverrideChanged, CanOverride: state.CanOverride},
		{Type: EventOverrideActiveChanged, Active: state.Active},
	})
}

// readLoop reads events from the WebSocket
func (s *EventSubscription) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()

		if conn == nil {
			return
		}

		if err := conn.SetReadDeadline(time.Now().Add(eventReadTimeout)); err != nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		events := parseMessage(message)
		if len(events) > 0 {
			s.batchEvents(events)
		}
	}
}

// eventResource is the wire form of a single event
type eventResource struct {
	Type         string                `json:"type"`
	Capabilities *capabilitiesResource `json:"capabilities,omitempty"`
	CanOverride  *bool                 `json:"can_override,omitempty"`
	Active       *bool                 `json:"active,omitempty"`
}

// parseMessage parses a WebSocket frame into events. Unknown types and
// events missing their payload are skipped.
func parseMessage(message []byte) []Event {
	var raw []eventResource
	if err := json.Unmarshal(message, &raw); err != nil {
		return nil
	}

	var events []Event
	for _, r := range raw {
		switch EventType(r.Type) {
		case EventCapabilitiesChanged:
			if r.Capabilities == nil {
				continue
			}
			events = append(events, Event{Type: EventCapabilitiesChanged, Capabilities: r.Capabilities.toModel()})
		case EventCanOverrideChanged:
			if r.CanOverride == nil {
				continue
			}
			events = append(events, Event{Type: EventCanOverrideChanged, CanOverride: *r.CanOverride})
		case EventOverrideActiveChanged:
			if r.Active == nil {
				continue
			}
			events = append(events, Event{Type: EventOverrideActiveChanged, Active: *r.Active})
		}
	}

	return events
}

// batchEvents adds events to the batch and schedules delivery
func (s *EventSubscription) batchEvents(events []Event) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	if s.stopped() {
		return
	}

	s.eventBatch = append(s.eventBatch, events...)

	// Cancel existing timer and create new one
	if s.batchTimer != nil {
		s.batchTimer.Stop()
	}

	s.batchTimer = time.AfterFunc(s.batchTimeout, s.deliverBatch)
}

// deliverBatch sends the batched events to the handler. The batch is taken
// under deliverMu so deliveries reach the handler in arrival order.
func (s *EventSubscription) deliverBatch() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.batchMu.Lock()
	batch := s.eventBatch
	s.eventBatch = nil
	s.batchMu.Unlock()

	if len(batch) > 0 && s.handler != nil && !s.stopped() {
		s.handler(batch)
	}
}

// Compile-time check that EventSubscription implements Subscription
var _ Subscription = (*EventSubscription)(nil)
