package sweep

import (
	"queuesweep/internal/measure"
	"queuesweep/internal/proc"
)

type Phase string

const (
	PhaseWarmup   Phase = "warmup"
	PhaseBaseline Phase = "baseline"
	PhaseSweep    Phase = "sweep"
	PhaseDone     Phase = "done"
)

// Event reports progress. A configuration produces one event when it
// starts and one when it has been measured (Measured is true).
type Event struct {
	Phase  Phase
	Step   int
	Steps  int
	Config proc.Config
	// Capacity is zero outside PhaseSweep.
	Capacity int

	Measured    bool
	Measurement *measure.Measurement
	Speedup     float64
	Err         error
}

// EventChan carries progress to an observer such as the dashboard.
type EventChan chan Event
