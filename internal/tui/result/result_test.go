package result

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"queuesweep/internal/measure"
	"queuesweep/internal/sweep"
)

func TestView_Success(t *testing.T) {
	res := &sweep.Result{
		ID:       "run-1",
		Baseline: &measure.Measurement{Mean: 8},
		Points: []sweep.Point{
			{Capacity: 4, Measurement: &measure.Measurement{Mean: 2}, Speedup: 4},
			{Capacity: 8},
		},
	}
	v := NewModel(res, nil).View()
	assert.Contains(t, v, "Sweep Complete")
	assert.Contains(t, v, "8.000s")
	assert.Contains(t, v, "4 (4.000x)")
	assert.Contains(t, v, "N/A")
}

func TestView_Failure(t *testing.T) {
	v := NewModel(&sweep.Result{ID: "run-2"}, errors.New("baseline measurement failed")).View()
	assert.Contains(t, v, "Sweep Failed")
	assert.Contains(t, v, "baseline measurement failed")
}
