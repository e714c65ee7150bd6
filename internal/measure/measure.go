// Package measure repeats trials against one server and averages them.
package measure

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"queuesweep/internal/stats"
	"queuesweep/internal/trial"
)

// ErrTrialFailed marks a measurement abandoned because a trial failed.
var ErrTrialFailed = errors.New("trial failed")

// TrialRunner runs one trial against target.
type TrialRunner interface {
	Run(ctx context.Context, target string) trial.Result
}

// Measurement is the mean elapsed time over all trials of one configuration.
type Measurement struct {
	Mean    float64       `json:"mean"`
	Samples []float64     `json:"samples"`
	Summary stats.Summary `json:"summary"`
}

type Aggregator struct {
	runner TrialRunner
	trials int
	log    *log.Entry
}

// NewAggregator returns an Aggregator running trials trials per measurement.
// trials below one is treated as one.
func NewAggregator(runner TrialRunner, trials int) *Aggregator {
	if trials < 1 {
		trials = 1
	}
	return &Aggregator{
		runner: runner,
		trials: trials,
		log:    log.WithField("component", "measure"),
	}
}

func (a *Aggregator) Trials() int { return a.trials }

// Measure runs the configured number of trials sequentially against target.
// The first failing trial aborts the measurement; no partial mean is
// returned.
func (a *Aggregator) Measure(ctx context.Context, target string) (Measurement, error) {
	samples := make([]float64, 0, a.trials)
	for i := 1; i <= a.trials; i++ {
		if err := ctx.Err(); err != nil {
			return Measurement{}, err
		}

		a.log.WithFields(log.Fields{"trial": i, "of": a.trials}).Info("Running trial")
		res := a.runner.Run(ctx, target)
		if !res.OK() {
			if ctx.Err() != nil {
				return Measurement{}, ctx.Err()
			}
			a.log.WithError(res.Err()).WithField("trial", i).Warn("Trial failed")
			return Measurement{}, errors.Wrapf(ErrTrialFailed, "trial %d of %d: %v", i, a.trials, res.Err())
		}
		a.log.WithFields(log.Fields{"trial": i, "seconds": res.Elapsed}).Debug("Trial complete")
		samples = append(samples, res.Elapsed)
	}

	sum := stats.Summarize(samples)
	return Measurement{Mean: sum.Mean, Samples: samples, Summary: sum}, nil
}
