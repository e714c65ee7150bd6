package stats

import (
	"math"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// SafeHistogram is a thread-safe wrapper around hdrhistogram
type SafeHistogram struct {
	hist *hdrhistogram.Histogram
	mu   sync.Mutex
}

func NewSafeHistogram() *SafeHistogram {
	// 1us to 1h, 3 significant figures
	h := hdrhistogram.New(1, int64(time.Hour/time.Microsecond), 3)
	return &SafeHistogram{hist: h}
}

// RecordSeconds records an elapsed time given in seconds. Values are stored
// with microsecond resolution and clamped to the trackable range.
func (h *SafeHistogram) RecordSeconds(s float64) error {
	us := int64(math.Round(s * 1e6))
	if us < 1 {
		us = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if us > h.hist.HighestTrackableValue() {
		us = h.hist.HighestTrackableValue()
	}
	return h.hist.RecordValue(us)
}

// QuantileSeconds returns the value at q (0-100) in seconds.
func (h *SafeHistogram) QuantileSeconds(q float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.hist.ValueAtQuantile(q)) / 1e6
}

func (h *SafeHistogram) MinSeconds() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.hist.Min()) / 1e6
}

func (h *SafeHistogram) MaxSeconds() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.hist.Max()) / 1e6
}

func (h *SafeHistogram) TotalCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}
