package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for outbound backend calls.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	rejections    int64
	staleRejected int64
	totalLatency  time.Duration
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests         map[string]int64 `json:"requests"`
	Errors           map[string]int64 `json:"errors"`
	SessionRejected  int64            `json:"session_rejected"`
	StaleRejections  int64            `json:"stale_rejections"`
	TotalLatencyMsec int64            `json:"total_latency_ms"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.totalLatency += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordRejection counts a 401. Stale rejections did not clear the session.
func (m *Metrics) RecordRejection(stale bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if stale {
		m.staleRejected++
		return
	}
	m.rejections++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{Requests: map[string]int64{}, Errors: map[string]int64{}}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := Snapshot{
		Requests:         make(map[string]int64, len(m.requestCount)),
		Errors:           make(map[string]int64, len(m.errorCount)),
		SessionRejected:  m.rejections,
		StaleRejections:  m.staleRejected,
		TotalLatencyMsec: m.totalLatency.Milliseconds(),
	}
	for k, v := range m.requestCount {
		out.Requests[k] = v
	}
	for k, v := range m.errorCount {
		out.Errors[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
