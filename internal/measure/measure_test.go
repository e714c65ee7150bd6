package measure

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queuesweep/internal/trial"
)

// scriptedRunner returns one canned result per call.
type scriptedRunner struct {
	results []trial.Result
	calls   int
	targets []string
}

func (s *scriptedRunner) Run(_ context.Context, target string) trial.Result {
	s.targets = append(s.targets, target)
	r := s.results[s.calls]
	s.calls++
	return r
}

func ok(v float64) trial.Result { return trial.Result{Elapsed: v} }

func failed() trial.Result {
	return trial.Result{Failure: &trial.Failure{Kind: trial.FailedExit, ExitCode: 1, Detail: "refused"}}
}

func TestMeasure_Mean(t *testing.T) {
	tests := map[string]struct {
		results []trial.Result
		trials  int
		want    float64
	}{
		"identical":      {results: []trial.Result{ok(2), ok(2), ok(2)}, trials: 3, want: 2.0},
		"spread":         {results: []trial.Result{ok(4), ok(5), ok(6)}, trials: 3, want: 5.0},
		"one trial":      {results: []trial.Result{ok(1.5)}, trials: 1, want: 1.5},
		"clamped to one": {results: []trial.Result{ok(3)}, trials: 0, want: 3.0},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			r := &scriptedRunner{results: tc.results}
			m, err := NewAggregator(r, tc.trials).Measure(context.Background(), "http://localhost:7878/")
			require.NoError(t, err)
			assert.InDelta(t, tc.want, m.Mean, 1e-9)
			assert.Len(t, m.Samples, len(tc.results))
			assert.Equal(t, len(tc.results), r.calls)
		})
	}
}

func TestMeasure_StopsAtFirstFailure(t *testing.T) {
	r := &scriptedRunner{results: []trial.Result{ok(2), failed(), ok(2)}}
	m, err := NewAggregator(r, 3).Measure(context.Background(), "http://localhost:7878/")

	assert.True(t, errors.Is(err, ErrTrialFailed))
	assert.Contains(t, err.Error(), "trial 2 of 3")
	assert.Equal(t, Measurement{}, m)
	assert.Equal(t, 2, r.calls)
}

func TestMeasure_TargetsEveryTrial(t *testing.T) {
	r := &scriptedRunner{results: []trial.Result{ok(1), ok(1)}}
	_, err := NewAggregator(r, 2).Measure(context.Background(), "http://localhost:9000/")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:9000/", "http://localhost:9000/"}, r.targets)
}

func TestMeasure_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &scriptedRunner{results: []trial.Result{ok(1)}}
	_, err := NewAggregator(r, 1).Measure(ctx, "http://localhost:7878/")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, r.calls)
}
