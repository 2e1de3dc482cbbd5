package metrics

import (
	"math"
	"slices"
	"sync"
	"time"
)

// defaultWindowSize is how many recent samples each latency window keeps.
const defaultWindowSize = 2048

// LatencyStats summarises one latency window. Durations are in milliseconds.
type LatencyStats struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// latencyWindow keeps the most recent durations of one kind of operation.
// Once full, each new sample overwrites the oldest one.
type latencyWindow struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	full    bool
}

func newLatencyWindow(size int) *latencyWindow {
	if size <= 0 {
		size = defaultWindowSize
	}
	return &latencyWindow{samples: make([]time.Duration, size)}
}

func (w *latencyWindow) observe(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples[w.next] = d
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
}

func (w *latencyWindow) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next = 0
	w.full = false
}

// sorted returns a sorted copy of the retained samples.
func (w *latencyWindow) sorted() []time.Duration {
	w.mu.Lock()
	n := w.next
	if w.full {
		n = len(w.samples)
	}
	out := slices.Clone(w.samples[:n])
	w.mu.Unlock()

	slices.Sort(out)
	return out
}

func (w *latencyWindow) summary() LatencyStats {
	s := w.sorted()
	if len(s) == 0 {
		return LatencyStats{}
	}

	var total time.Duration
	for _, d := range s {
		total += d
	}

	return LatencyStats{
		Mean:  millis(total) / float64(len(s)),
		P50:   percentile(s, 50),
		P95:   percentile(s, 95),
		P99:   percentile(s, 99),
		Min:   millis(s[0]),
		Max:   millis(s[len(s)-1]),
		Count: len(s),
	}
}

// percentile interpolates linearly between the nearest ranks of sorted.
// p is clamped to [0, 100].
func percentile(sorted []time.Duration, p float64) float64 {
	p = math.Max(0, math.Min(100, p))
	rank := p / 100 * float64(len(sorted)-1)
	lo, hi := int(math.Floor(rank)), int(math.Ceil(rank))
	frac := rank - float64(lo)
	return millis(sorted[lo])*(1-frac) + millis(sorted[hi])*frac
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
