package sweep

import (
	"time"

	"queuesweep/internal/measure"
)

// Point is the outcome for one candidate capacity. Speedup is only
// meaningful when Measurement is set.
type Point struct {
	Capacity    int                  `json:"capacity"`
	Measurement *measure.Measurement `json:"measurement,omitempty"`
	Speedup     float64              `json:"speedup,omitempty"`
	// Error holds the diagnostic of an absent measurement.
	Error string `json:"error,omitempty"`
}

func (p Point) Present() bool { return p.Measurement != nil }

// Result is everything a sweep produced, in execution order.
type Result struct {
	ID         string               `json:"id"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Plan       Plan                 `json:"plan"`
	Warmup     *measure.Measurement `json:"warmup,omitempty"`
	Baseline   *measure.Measurement `json:"baseline,omitempty"`
	Points     []Point              `json:"points"`
}

// Present returns the points that have a measurement, in sweep order.
func (r *Result) Present() []Point {
	var out []Point
	for _, p := range r.Points {
		if p.Present() {
			out = append(out, p)
		}
	}
	return out
}

// Failed counts candidates without a measurement.
func (r *Result) Failed() int {
	return len(r.Points) - len(r.Present())
}

// Best returns the present point with the highest speedup.
func (r *Result) Best() (Point, bool) {
	var best Point
	found := false
	for _, p := range r.Present() {
		if !found || p.Speedup > best.Speedup {
			best, found = p, true
		}
	}
	return best, found
}
