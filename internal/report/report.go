// Package report turns a sweep result into a console table, a CSV file and
// a speedup plot.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"queuesweep/internal/sweep"
)

// ErrNoData is returned when no candidate produced a measurement.
var ErrNoData = errors.New("no valid data to plot")

const timestampLayout = "2006-01-02_15-04-05"

// Timestamp formats t the way artifact names embed it.
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

func CSVName(ts string) string  { return "speedup_data_" + ts + ".csv" }
func PlotName(ts string) string { return "speedup_plot_" + ts + ".png" }

// Artifacts lists the files a report wrote.
type Artifacts struct {
	Timestamp string
	CSV       string
	Plot      string
}

type Reporter struct {
	Dir string
	// Width and Height are the plot size in inches.
	Width  float64
	Height float64
	DPI    int

	Out io.Writer
	Now func() time.Time
}

func NewReporter(dir string) *Reporter {
	return &Reporter{
		Dir:    dir,
		Width:  10,
		Height: 6,
		DPI:    300,
		Out:    os.Stdout,
		Now:    time.Now,
	}
}

// Report writes the CSV and plot for the present points of res and prints
// the summary table. With no present points it returns ErrNoData and writes
// nothing. A failing artifact does not prevent the other from being written;
// all write errors are returned together.
func (r *Reporter) Report(res *sweep.Result) (Artifacts, error) {
	present := res.Present()
	if len(present) == 0 {
		return Artifacts{}, ErrNoData
	}
	if res.Baseline == nil {
		return Artifacts{}, errors.New("result has no baseline")
	}

	ts := Timestamp(r.now())
	art := Artifacts{Timestamp: ts}

	if r.Dir != "" {
		if err := os.MkdirAll(r.Dir, 0o755); err != nil {
			return art, errors.Wrapf(err, "creating output directory %s", r.Dir)
		}
	}

	var result *multierror.Error

	csvPath := filepath.Join(r.Dir, CSVName(ts))
	if err := WriteCSV(csvPath, present); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "writing CSV"))
	} else {
		art.CSV = csvPath
		log.WithField("file", csvPath).Info("Data saved")
	}

	plotPath := filepath.Join(r.Dir, PlotName(ts))
	if err := WritePlot(plotPath, present, PlotOptions{Width: r.Width, Height: r.Height, DPI: r.DPI}); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "writing plot"))
	} else {
		art.Plot = plotPath
		log.WithField("file", plotPath).Info("Plot saved")
	}

	PrintSummary(r.out(), res)
	if art.CSV != "" || art.Plot != "" {
		fmt.Fprintln(r.out())
		if art.CSV != "" {
			fmt.Fprintf(r.out(), "💾 Data saved to %s\n", art.CSV)
		}
		if art.Plot != "" {
			fmt.Fprintf(r.out(), "📈 Plot saved to %s\n", art.Plot)
		}
	}

	return art, result.ErrorOrNil()
}

func (r *Reporter) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Reporter) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}
