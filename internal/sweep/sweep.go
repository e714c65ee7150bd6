// Package sweep measures a sequential baseline and a series of queue
// capacities, one server at a time, and derives the speedup of each.
package sweep

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"queuesweep/internal/measure"
	"queuesweep/internal/proc"
)

var ErrBaselineFailed = errors.New("baseline measurement failed")

// ErrNonPositiveElapsed marks a measurement whose mean time is zero or
// negative. No speedup can be derived from it.
var ErrNonPositiveElapsed = errors.New("non-positive elapsed time")

// Releaser is a running server that must be released once.
type Releaser interface {
	Release() error
}

// Launcher starts servers. *proc.Launcher satisfies it through Processes.
type Launcher interface {
	Acquire(ctx context.Context, cfg proc.Config) (Releaser, error)
}

// Measurer produces a mean duration against a running server.
type Measurer interface {
	Measure(ctx context.Context, target string) (measure.Measurement, error)
}

type processes struct{ l *proc.Launcher }

func (p processes) Acquire(ctx context.Context, cfg proc.Config) (Releaser, error) {
	h, err := p.l.Acquire(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Processes adapts a proc.Launcher to Launcher.
func Processes(l *proc.Launcher) Launcher { return processes{l: l} }

type Controller struct {
	launcher Launcher
	measurer Measurer
	plan     Plan
	events   EventChan
	now      func() time.Time
	log      *log.Entry
}

func NewController(launcher Launcher, measurer Measurer, plan Plan) *Controller {
	return &Controller{
		launcher: launcher,
		measurer: measurer,
		plan:     plan,
		now:      time.Now,
		log:      log.WithField("component", "sweep"),
	}
}

// WithEvents sets the channel progress events are sent to. Sends never
// block; events are dropped when the channel is full.
func (c *Controller) WithEvents(ch EventChan) *Controller {
	c.events = ch
	return c
}

func (c *Controller) Plan() Plan { return c.plan }

// Run executes the warm-up, baseline and sweep phases in order. A failed
// baseline aborts the run with ErrBaselineFailed before any candidate is
// started. Failed candidates are recorded without a measurement. The
// returned Result is non-nil even on error and holds what was measured.
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	res := &Result{
		ID:        id.String(),
		StartedAt: c.now(),
		Plan:      c.plan,
		Points:    make([]Point, 0, len(c.plan.Capacities)),
	}
	defer func() { res.FinishedAt = c.now() }()

	steps := c.plan.Steps()
	step := 0

	if c.plan.Warmup {
		step++
		cfg := c.plan.Baseline()
		c.emit(Event{Phase: PhaseWarmup, Step: step, Steps: steps, Config: cfg})
		m, err := c.measureWith(ctx, cfg)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		if err != nil {
			c.log.WithError(err).Warn("Warm-up failed, continuing")
		} else {
			res.Warmup = m
			c.log.WithField("seconds", m.Mean).Info("Warm-up complete")
		}
		c.emit(Event{Phase: PhaseWarmup, Step: step, Steps: steps, Config: cfg, Measured: true, Measurement: m, Err: err})
	}

	step++
	cfg := c.plan.Baseline()
	c.emit(Event{Phase: PhaseBaseline, Step: step, Steps: steps, Config: cfg})
	baseline, err := c.measureWith(ctx, cfg)
	c.emit(Event{Phase: PhaseBaseline, Step: step, Steps: steps, Config: cfg, Measured: true, Measurement: baseline, Err: err})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	if err != nil {
		c.log.WithError(err).Error("Failed to get sequential baseline")
		return res, errors.Wrap(ErrBaselineFailed, err.Error())
	}
	res.Baseline = baseline
	c.log.WithField("seconds", baseline.Mean).Info("Sequential baseline measured")

	for _, capacity := range c.plan.Capacities {
		step++
		cfg := c.plan.Candidate(capacity)
		c.emit(Event{Phase: PhaseSweep, Step: step, Steps: steps, Config: cfg, Capacity: capacity})

		m, err := c.measureWith(ctx, cfg)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}

		p := Point{Capacity: capacity}
		clog := c.log.WithField("capacity", capacity)
		if err != nil {
			p.Error = err.Error()
			clog.WithError(err).Warn("Failed to measure candidate")
		} else {
			p.Measurement = m
			p.Speedup = Speedup(baseline.Mean, m.Mean)
			clog.WithFields(log.Fields{"seconds": m.Mean, "speedup": p.Speedup}).Info("Candidate measured")
		}
		res.Points = append(res.Points, p)
		c.emit(Event{Phase: PhaseSweep, Step: step, Steps: steps, Config: cfg, Capacity: capacity,
			Measured: true, Measurement: m, Speedup: p.Speedup, Err: err})
	}

	c.emit(Event{Phase: PhaseDone, Step: steps, Steps: steps})
	return res, nil
}

// measureWith scopes one server to one measurement. The server is released
// before returning on every path. A non-positive mean counts as no
// measurement.
func (c *Controller) measureWith(ctx context.Context, cfg proc.Config) (m *measure.Measurement, err error) {
	srv, err := c.launcher.Acquire(ctx, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "starting %s", cfg)
	}
	defer func() {
		if rerr := srv.Release(); rerr != nil {
			c.log.WithError(rerr).WithField("args", cfg.Args).Warn("Server release failed")
		}
	}()

	got, err := c.measurer.Measure(ctx, cfg.URL(c.plan.Path))
	if err != nil {
		return nil, err
	}
	if got.Mean <= 0 {
		return nil, errors.Wrapf(ErrNonPositiveElapsed, "mean %.3fs", got.Mean)
	}
	return &got, nil
}

func (c *Controller) emit(e Event) {
	if c.events == nil {
		return
	}
	select {
	case c.events <- e:
	default:
	}
}

// Speedup is the baseline time divided by the candidate time. It is zero
// when the candidate time is not positive.
func Speedup(baseline, candidate float64) float64 {
	if candidate <= 0 {
		return 0
	}
	return baseline / candidate
}
