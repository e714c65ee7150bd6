package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"queuesweep/internal/sweep"
)

const na = "N/A"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// PrintSummary prints the sequential time and one row per candidate,
// including those without a measurement.
func PrintSummary(w io.Writer, res *sweep.Result) {
	fmt.Fprintf(w, "\n📊 QUEUE CAPACITY SWEEP RESULTS\n")
	fmt.Fprintf(w, "======================================================================\n")
	if res.Baseline != nil {
		fmt.Fprintf(w, "Sequential time : %.3fs\n", res.Baseline.Mean)
	} else {
		fmt.Fprintf(w, "Sequential time : %s\n", na)
	}
	if res.Warmup != nil {
		fmt.Fprintf(w, "Warm-up time    : %.3fs\n", res.Warmup.Mean)
	}
	if best, ok := res.Best(); ok {
		fmt.Fprintf(w, "Best capacity   : %d (%.3fx)\n", best.Capacity, best.Speedup)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, SummaryTable(res.Points))
	fmt.Fprintf(w, "======================================================================\n")
}

// SummaryTable renders the per-candidate rows.
func SummaryTable(points []sweep.Point) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Queue Capacity", "Parallel Time", "Speedup", "Min", "Max", "StdDev").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle.Align(lipgloss.Right)
		})
	for _, p := range points {
		t.Row(Row(p)...)
	}
	return t.String()
}

// Row formats one point. Absent measurements show N/A.
func Row(p sweep.Point) []string {
	if !p.Present() {
		return []string{strconv.Itoa(p.Capacity), na, na, na, na, na}
	}
	s := p.Measurement.Summary
	return []string{
		strconv.Itoa(p.Capacity),
		fmt.Sprintf("%.3fs", p.Measurement.Mean),
		fmt.Sprintf("%.3fx", p.Speedup),
		fmt.Sprintf("%.3fs", s.Min),
		fmt.Sprintf("%.3fs", s.Max),
		fmt.Sprintf("%.3f", s.StdDev),
	}
}
