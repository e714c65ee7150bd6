package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"queuesweep/internal/sweep"
)

var csvHeader = []string{"Capacity", "ParallelTime", "Speedup"}

// WriteCSV writes one row per point, in the given order. Points without a
// measurement are skipped.
func WriteCSV(path string, points []sweep.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range points {
		if !p.Present() {
			continue
		}
		record := []string{
			strconv.Itoa(p.Capacity),
			formatFloat(p.Measurement.Mean),
			formatFloat(p.Speedup),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
