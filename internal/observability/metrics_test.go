package observability

import (
	"testing"
	"time"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/tickets", "POST", 201, 20*time.Millisecond)
	m.RecordRequest("/api/tickets", "POST", 201, 30*time.Millisecond)
	m.RecordRequest("/api/tickets", "POST", 422, 5*time.Millisecond)
	m.RecordError("/api/tickets", "POST", "VALIDATION_FAILED")

	if got := m.RequestCount("POST", "/api/tickets", 201); got != 2 {
		t.Errorf("RequestCount(201) = %d, want 2", got)
	}
	if got := m.RequestCount("POST", "/api/tickets", 422); got != 1 {
		t.Errorf("RequestCount(422) = %d, want 1", got)
	}
	if got := m.TotalLatency("POST", "/api/tickets", 201); got != 50*time.Millisecond {
		t.Errorf("TotalLatency = %v, want 50ms", got)
	}
	if got := m.ErrorCount("POST", "/api/tickets", "VALIDATION_FAILED"); got != 1 {
		t.Errorf("ErrorCount = %d, want 1", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "INTERNAL")
	if m.RequestCount("GET", "/", 200) != 0 || m.ErrorCount("GET", "/", "INTERNAL") != 0 {
		t.Error("nil metrics must read as zero")
	}
}
