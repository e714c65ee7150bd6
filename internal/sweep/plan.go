package sweep

import (
	"strconv"

	"queuesweep/internal/proc"
)

// Plan describes which server configurations a sweep visits.
type Plan struct {
	Binary string
	Port   int
	// Path is requested by the load tool, normally "/".
	Path string
	Env  []string

	// PrefixArgs precede the arguments of every configuration.
	PrefixArgs   []string
	BaselineArgs []string
	ParallelMode string
	CapacityFlag string
	// Workers adds "-w <n>" to candidate arguments when positive.
	Workers int

	Capacities []int
	Warmup     bool
}

func DefaultPlan() Plan {
	return Plan{
		Binary:       "./target/debug/server",
		Port:         7878,
		Path:         "/",
		BaselineArgs: []string{"1"},
		ParallelMode: "2",
		CapacityFlag: "-q",
		Capacities:   []int{1, 2, 4, 8, 16, 32, 64},
		Warmup:       true,
	}
}

// Baseline returns the sequential configuration.
func (p Plan) Baseline() proc.Config {
	return p.config(p.BaselineArgs)
}

// Candidate returns the parallel configuration for one queue capacity.
func (p Plan) Candidate(capacity int) proc.Config {
	args := []string{p.ParallelMode, p.CapacityFlag, strconv.Itoa(capacity)}
	if p.Workers > 0 {
		args = append(args, "-w", strconv.Itoa(p.Workers))
	}
	return p.config(args)
}

// Steps is the number of configurations a run of the plan measures.
func (p Plan) Steps() int {
	n := 1 + len(p.Capacities)
	if p.Warmup {
		n++
	}
	return n
}

func (p Plan) config(args []string) proc.Config {
	full := make([]string, 0, len(p.PrefixArgs)+len(args))
	full = append(full, p.PrefixArgs...)
	full = append(full, args...)
	return proc.Config{
		Binary: p.Binary,
		Args:   full,
		Port:   p.Port,
		Env:    p.Env,
	}
}
