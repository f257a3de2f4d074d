package observability

import (
	"sync"
	"time"
)

type routeKey struct {
	method string
	path   string
	status int
}

type errorKey struct {
	method string
	path   string
	code   string
}

// Metrics keeps in-process request and error counters. There is no external
// collector in this deployment; the counters back log-based checks.
type Metrics struct {
	mu       sync.Mutex
	requests map[routeKey]int64
	latency  map[routeKey]time.Duration
	errors   map[errorKey]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[routeKey]int64),
		latency:  make(map[routeKey]time.Duration),
		errors:   make(map[errorKey]int64),
	}
}

// RecordRequest counts one handled request and accumulates its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := routeKey{method: method, path: path, status: status}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[key]++
	m.latency[key] += duration
}

// RecordError counts one request rejected with a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := errorKey{method: method, path: path, code: code}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[key]++
}

// RequestCount returns how many requests hit a route with a given status.
func (m *Metrics) RequestCount(method, path string, status int) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[routeKey{method: method, path: path, status: status}]
}

// TotalLatency returns the accumulated latency for a route and status.
func (m *Metrics) TotalLatency(method, path string, status int) time.Duration {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latency[routeKey{method: method, path: path, status: status}]
}

// ErrorCount returns how many times a route failed with a given error code.
func (m *Metrics) ErrorCount(method, path, code string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[errorKey{method: method, path: path, code: code}]
}
