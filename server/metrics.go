package server

import (
	"sync"
	"time"
)

type RouteMetrics struct {
	Count        uint64        `json:"count"`
	TotalLatency time.Duration `json:"total_latency_ns"`
}

// Metrics counts connections and responses. It is safe for concurrent use
// and implements EventSink.
type Metrics struct {
	mu               sync.Mutex
	totalConnections uint64
	totalResponses   uint64
	transportErrors  uint64
	inFlight         uint64
	byStatus         map[uint16]uint64
	byRoute          map[string]*RouteMetrics
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	TotalConnections uint64                   `json:"total_connections"`
	TotalResponses   uint64                   `json:"total_responses"`
	TransportErrors  uint64                   `json:"transport_errors"`
	InFlight         uint64                   `json:"in_flight"`
	ByStatus         map[uint16]uint64        `json:"by_status"`
	ByRoute          map[string]*RouteMetrics `json:"by_route"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		byStatus: make(map[uint16]uint64),
		byRoute:  make(map[string]*RouteMetrics),
	}
}

func (m *Metrics) ConnOpened() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalConnections++
	m.inFlight++
}

func (m *Metrics) ConnClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight > 0 {
		m.inFlight--
	}
}

func (m *Metrics) TransportFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transportErrors++
}

// Record counts a response. Only 200s are tracked per route so arbitrary
// client URIs cannot grow the route table.
func (m *Metrics) Record(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalResponses++
	m.byStatus[ev.Status]++

	if ev.Status != StatusOK {
		return
	}

	rm := m.byRoute[ev.Path]
	if rm == nil {
		rm = &RouteMetrics{}
		m.byRoute[ev.Path] = rm
	}
	rm.Count++
	rm.TotalLatency += ev.Duration
}

func (m *Metrics) InFlight() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		TotalConnections: m.totalConnections,
		TotalResponses:   m.totalResponses,
		TransportErrors:  m.transportErrors,
		InFlight:         m.inFlight,
		ByStatus:         make(map[uint16]uint64, len(m.byStatus)),
		ByRoute:          make(map[string]*RouteMetrics, len(m.byRoute)),
	}

	for status, n := range m.byStatus {
		snap.ByStatus[status] = n
	}
	for route, rm := range m.byRoute {
		rmCopy := *rm
		snap.ByRoute[route] = &rmCopy
	}

	return snap
}
