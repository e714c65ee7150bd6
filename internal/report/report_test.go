package report

import (
	"bytes"
	"encoding/csv"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queuesweep/internal/measure"
	"queuesweep/internal/stats"
	"queuesweep/internal/sweep"
)

func measured(mean float64) *measure.Measurement {
	samples := []float64{mean, mean, mean}
	return &measure.Measurement{Mean: mean, Samples: samples, Summary: stats.Summarize(samples)}
}

// sampleResult is a sweep over [1, 2, 4] where capacity 2 failed.
func sampleResult() *sweep.Result {
	return &sweep.Result{
		ID:       "run",
		Baseline: measured(8),
		Points: []sweep.Point{
			{Capacity: 1, Measurement: measured(4), Speedup: 2},
			{Capacity: 2, Error: "trial failed"},
			{Capacity: 4, Measurement: measured(2.5), Speedup: 3.2},
		},
	}
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func newTestReporter(t *testing.T, now time.Time) (*Reporter, *bytes.Buffer) {
	var out bytes.Buffer
	r := NewReporter(t.TempDir())
	r.Width, r.Height, r.DPI = 4, 3, 50
	r.Out = &out
	r.Now = fixedClock(now)
	return r, &out
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestReport_WritesPresentPointsOnly(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.Local)
	r, out := newTestReporter(t, now)

	art, err := r.Report(sampleResult())
	require.NoError(t, err)

	assert.Equal(t, "2026-03-14_15-09-26", art.Timestamp)
	assert.Equal(t, filepath.Join(r.Dir, "speedup_data_2026-03-14_15-09-26.csv"), art.CSV)
	assert.Equal(t, filepath.Join(r.Dir, "speedup_plot_2026-03-14_15-09-26.png"), art.Plot)

	assert.Equal(t, [][]string{
		{"Capacity", "ParallelTime", "Speedup"},
		{"1", "4", "2"},
		{"4", "2.5", "3.2"},
	}, readCSV(t, art.CSV))

	f, err := os.Open(art.Plot)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())

	assert.Contains(t, out.String(), "Sequential time : 8.000s")
	assert.Contains(t, out.String(), "Best capacity   : 4 (3.200x)")
}

func TestReport_NoDataWritesNothing(t *testing.T) {
	r, out := newTestReporter(t, time.Now())
	res := &sweep.Result{
		Baseline: measured(8),
		Points:   []sweep.Point{{Capacity: 1, Error: "x"}, {Capacity: 2, Error: "y"}},
	}

	_, err := r.Report(res)
	assert.True(t, errors.Is(err, ErrNoData))

	entries, err := os.ReadDir(r.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, out.String())
}

func TestReport_UnwritableDirectory(t *testing.T) {
	r, _ := newTestReporter(t, time.Now())
	blocker := filepath.Join(r.Dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	r.Dir = blocker

	_, err := r.Report(sampleResult())
	assert.Error(t, err)
}

func TestTimestamp_OneSecondApartDiffers(t *testing.T) {
	a := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := a.Add(time.Second)
	assert.NotEqual(t, CSVName(Timestamp(a)), CSVName(Timestamp(b)))
	assert.NotEqual(t, PlotName(Timestamp(a)), PlotName(Timestamp(b)))
	assert.Equal(t, "2026-01-02_03-04-05", Timestamp(a))
}

func TestWriteCSV_DecimalNotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	points := []sweep.Point{{Capacity: 64, Measurement: measured(0.0000123), Speedup: 1234567.5}}
	require.NoError(t, WriteCSV(path, points))
	rows := readCSV(t, path)
	assert.Equal(t, []string{"64", "0.0000123", "1234567.5"}, rows[1])
}

func TestNewPlot_SortsByCapacity(t *testing.T) {
	points := []sweep.Point{
		{Capacity: 8, Measurement: measured(2), Speedup: 4},
		{Capacity: 2, Measurement: measured(4), Speedup: 2},
		{Capacity: 4},
	}
	p, err := NewPlot(points)
	require.NoError(t, err)
	assert.Equal(t, plotTitle, p.Title.Text)
	assert.Equal(t, plotXLabel, p.X.Label.Text)
	assert.Equal(t, plotYLabel, p.Y.Label.Text)

	ticks := p.X.Tick.Marker.Ticks(0, 10)
	require.Len(t, ticks, 2)
	assert.Equal(t, "2", ticks[0].Label)
	assert.Equal(t, "8", ticks[1].Label)
}

func TestNewPlot_NoData(t *testing.T) {
	_, err := NewPlot([]sweep.Point{{Capacity: 1}})
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestRow(t *testing.T) {
	assert.Equal(t, []string{"2", "N/A", "N/A", "N/A", "N/A", "N/A"}, Row(sweep.Point{Capacity: 2}))

	row := Row(sweep.Point{Capacity: 16, Measurement: measured(1.23456), Speedup: 6.5})
	assert.Equal(t, "16", row[0])
	assert.Equal(t, "1.235s", row[1])
	assert.Equal(t, "6.500x", row[2])
	assert.Equal(t, "0.000", row[5])
}

func TestSummaryTable_ListsEveryCandidate(t *testing.T) {
	s := SummaryTable(sampleResult().Points)
	assert.Contains(t, s, "Queue Capacity")
	assert.Contains(t, s, "N/A")
	assert.Contains(t, s, "3.200x")
	assert.Contains(t, s, "2.000x")
}
