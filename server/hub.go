package server

import (
	"sync"
	"time"
)

// Event describes one connection that reached the respond step.
type Event struct {
	Time       time.Time     `json:"time"`
	ID         string        `json:"id"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	Status     uint16        `json:"status"`
	Duration   time.Duration `json:"-"`
	DurationMs float64       `json:"duration_ms"`
	RemoteAddr string        `json:"remote_addr,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// EventSink receives connection events. Record is called from connection
// goroutines and must not block.
type EventSink interface {
	Record(ev Event)
}

type multiSink []EventSink

func (ms multiSink) Record(ev Event) {
	for _, s := range ms {
		s.Record(ev)
	}
}

// MultiSink fans an event out to every non-nil sink.
func MultiSink(sinks ...EventSink) EventSink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type EventClient struct {
	Send chan Event
}

// EventHub broadcasts events to subscribed clients, e.g. admin websockets.
type EventHub struct {
	mu      sync.RWMutex
	clients map[*EventClient]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[*EventClient]struct{}),
	}
}

// Subscribe registers a new client.
func (h *EventHub) Subscribe() *EventClient {
	c := &EventClient{
		Send: make(chan Event, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	return c
}

// Unsubscribe removes a client and closes its send channel.
func (h *EventHub) Unsubscribe(c *EventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.Send)
}

func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Record broadcasts ev to all clients.
func (h *EventHub) Record(ev Event) {
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.Send <- ev:

		default:
			// client is slow / buffer full, drop event

		}
	}

	h.mu.RUnlock()
}
