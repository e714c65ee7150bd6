// Package stats summarises repeated elapsed-time samples.
package stats

import (
	"gonum.org/v1/gonum/stat"
)

// Summary describes the spread of a set of trial times, in seconds.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// Summarize computes the summary of samples. Mean and StdDev are exact;
// Min, Median and Max come from a microsecond histogram. StdDev is zero
// for fewer than two samples.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	h := NewSafeHistogram()
	for _, s := range samples {
		_ = h.RecordSeconds(s)
	}

	sum := Summary{
		Count:  len(samples),
		Mean:   stat.Mean(samples, nil),
		Min:    h.MinSeconds(),
		Median: h.QuantileSeconds(50),
		Max:    h.MaxSeconds(),
	}
	if len(samples) > 1 {
		sum.StdDev = stat.StdDev(samples, nil)
	}
	return sum
}
