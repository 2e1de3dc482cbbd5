// Package metrics keeps in-process counters and latency windows for the
// API server, served by the system metrics endpoint.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// ServerMetrics tracks request, deck analysis and Scryfall performance.
type ServerMetrics struct {
	requestLatency  *latencyWindow
	analysisLatency *latencyWindow
	scryfallLatency *latencyWindow

	requests         atomic.Uint64
	clientErrors     atomic.Uint64 // 4xx
	serverErrors     atomic.Uint64 // 5xx
	scryfallRequests atomic.Uint64
	scryfallErrors   atomic.Uint64

	mu        sync.RWMutex
	startTime time.Time
}

// NewServerMetrics creates a collector with empty windows.
func NewServerMetrics() *ServerMetrics {
	return &ServerMetrics{
		requestLatency:  newLatencyWindow(defaultWindowSize),
		analysisLatency: newLatencyWindow(defaultWindowSize),
		scryfallLatency: newLatencyWindow(defaultWindowSize),
		startTime:       time.Now(),
	}
}

// RecordRequest records one served HTTP request and its status code.
func (m *ServerMetrics) RecordRequest(status int, d time.Duration) {
	m.requests.Add(1)
	switch {
	case status >= 500:
		m.serverErrors.Add(1)
	case status >= 400:
		m.clientErrors.Add(1)
	}
	m.requestLatency.observe(d)
}

// RecordAnalysis records the time taken to analyze a deck.
func (m *ServerMetrics) RecordAnalysis(d time.Duration) {
	m.analysisLatency.observe(d)
}

// RecordScryfall records one upstream Scryfall call. Pass a nil err for
// answered lookups, including not-found ones.
func (m *ServerMetrics) RecordScryfall(d time.Duration, err error) {
	m.scryfallRequests.Add(1)
	if err != nil {
		m.scryfallErrors.Add(1)
	}
	m.scryfallLatency.observe(d)
}

// ServerStats is a point-in-time view of the collector.
type ServerStats struct {
	RequestLatency  LatencyStats `json:"request_latency"`
	AnalysisLatency LatencyStats `json:"analysis_latency"`
	ScryfallLatency LatencyStats `json:"scryfall_latency"`

	Requests            uint64  `json:"requests"`
	ClientErrors        uint64  `json:"client_errors"`
	ServerErrors        uint64  `json:"server_errors"`
	ScryfallRequests    uint64  `json:"scryfall_requests"`
	ScryfallErrors      uint64  `json:"scryfall_errors"`
	ScryfallSuccessRate float64 `json:"scryfall_success_rate"` // Percentage

	Uptime string `json:"uptime"`
}

// GetStats returns a snapshot of the current statistics.
func (m *ServerMetrics) GetStats() *ServerStats {
	m.mu.RLock()
	started := m.startTime
	m.mu.RUnlock()

	calls := m.scryfallRequests.Load()
	failed := m.scryfallErrors.Load()
	rate := 0.0
	if calls > 0 {
		rate = float64(calls-failed) / float64(calls) * 100
	}

	return &ServerStats{
		RequestLatency:      m.requestLatency.summary(),
		AnalysisLatency:     m.analysisLatency.summary(),
		ScryfallLatency:     m.scryfallLatency.summary(),
		Requests:            m.requests.Load(),
		ClientErrors:        m.clientErrors.Load(),
		ServerErrors:        m.serverErrors.Load(),
		ScryfallRequests:    calls,
		ScryfallErrors:      failed,
		ScryfallSuccessRate: rate,
		Uptime:              time.Since(started).Round(time.Second).String(),
	}
}

// Reset clears every counter and window and restarts the uptime clock.
func (m *ServerMetrics) Reset() {
	m.requestLatency.reset()
	m.analysisLatency.reset()
	m.scryfallLatency.reset()

	m.requests.Store(0)
	m.clientErrors.Store(0)
	m.serverErrors.Store(0)
	m.scryfallRequests.Store(0)
	m.scryfallErrors.Store(0)

	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}
