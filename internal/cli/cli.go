package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"queuesweep/internal/config"
	"queuesweep/internal/measure"
	"queuesweep/internal/metrics"
	"queuesweep/internal/proc"
	"queuesweep/internal/report"
	"queuesweep/internal/storage"
	"queuesweep/internal/sweep"
	"queuesweep/internal/trial"
)

// Harness wires the sweep components together from one configuration.
type Harness struct {
	Config config.Config
	Out    io.Writer

	Procs    *proc.Launcher
	Runner   *trial.Runner
	Launcher sweep.Launcher
	Measurer sweep.Measurer
	Reporter *report.Reporter

	// OpenStore opens the run history. Nil disables it.
	OpenStore func() (*storage.Store, error)
}

func New(cfg config.Config) *Harness {
	procs := proc.NewLauncher(ProcOptions(cfg.Server))
	runner := trial.NewRunner(Tool(cfg.Load))

	reporter := report.NewReporter(cfg.Output.Dir)
	reporter.Width = cfg.Output.PlotWidth
	reporter.Height = cfg.Output.PlotHeight
	reporter.DPI = cfg.Output.DPI

	h := &Harness{
		Config:   cfg,
		Out:      os.Stdout,
		Procs:    procs,
		Runner:   runner,
		Launcher: sweep.Processes(procs),
		Measurer: measure.NewAggregator(runner, cfg.Sweep.Trials),
		Reporter: reporter,
	}
	if cfg.Store.Enabled {
		h.OpenStore = func() (*storage.Store, error) {
			path, err := storage.ExpandPath(cfg.Store.Path)
			if err != nil {
				return nil, err
			}
			return storage.Open(path)
		}
	}
	return h
}

func ProcOptions(c config.ServerConfig) proc.Options {
	opts := proc.DefaultOptions()
	opts.Warmup = c.Warmup
	opts.StopTimeout = c.StopTimeout
	opts.LogFile = c.LogFile
	opts.Probe = c.Probe
	opts.ProbeAttempts = c.ProbeAttempts
	return opts
}

func Tool(c config.LoadConfig) trial.Tool {
	return trial.Tool{
		Path:        c.Tool,
		Requests:    c.Requests,
		Concurrency: c.Concurrency,
		Timeout:     c.Timeout,
	}
}

// Plan builds the sweep plan from the configuration.
func Plan(c config.Config) sweep.Plan {
	return sweep.Plan{
		Binary:       c.Server.Binary,
		Port:         c.Server.Port,
		Path:         c.Load.Path,
		PrefixArgs:   c.Server.PrefixArgs,
		BaselineArgs: c.Server.BaselineArgs,
		ParallelMode: c.Server.ParallelMode,
		CapacityFlag: c.Server.CapacityFlag,
		Workers:      c.Server.Workers,
		Capacities:   c.Sweep.Capacities,
		Warmup:       c.Sweep.Warmup,
	}
}

// Sweep runs the full sweep headless, printing progress lines, then
// reports the result.
func (h *Harness) Sweep(ctx context.Context) error {
	plan := Plan(h.Config)
	h.printHeader(plan)

	events := make(sweep.EventChan, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.printProgress(events)
	}()

	res, err := sweep.NewController(h.Launcher, h.Measurer, plan).WithEvents(events).Run(ctx)
	close(events)
	wg.Wait()

	_, err = h.Finish(res, err)
	return err
}

// Finish records, reports and exports a finished sweep. Failed runs are
// recorded but produce no artifacts. Cancelled runs are not recorded.
func (h *Harness) Finish(res *sweep.Result, runErr error) (report.Artifacts, error) {
	if res != nil && !isCancelled(runErr) {
		h.save(res)
	}
	if runErr != nil {
		if errors.Is(runErr, sweep.ErrBaselineFailed) {
			fmt.Fprintf(h.out(), "\n❌ Failed to get sequential baseline. Exiting.\n")
		}
		return report.Artifacts{}, runErr
	}

	art, err := h.Reporter.Report(res)
	if err != nil {
		if errors.Is(err, report.ErrNoData) {
			fmt.Fprintf(h.out(), "\n❌ No valid data to plot.\n")
		}
		if art.CSV == "" && art.Plot == "" {
			return art, err
		}
	}

	if path := h.Config.Output.MetricsFile; path != "" {
		if merr := metrics.Export(path, res); merr != nil {
			log.WithError(merr).Warn("Failed to export metrics")
		} else {
			log.WithField("file", path).Info("Metrics exported")
		}
	}
	return art, err
}

func (h *Harness) save(res *sweep.Result) {
	if h.OpenStore == nil {
		return
	}
	store, err := h.OpenStore()
	if err != nil {
		log.WithError(err).Warn("Run history unavailable")
		return
	}
	defer store.Close()
	if err := store.Save(res); err != nil {
		log.WithError(err).Warn("Failed to record run")
		return
	}
	log.WithField("id", res.ID).Debug("Run recorded")
}

// Smoke starts the server once in the parallel mode with the given queue
// capacity, runs a single trial and prints the raw tool output.
func (h *Harness) Smoke(ctx context.Context, capacity int) error {
	cfg := Plan(h.Config).Candidate(capacity)
	fmt.Fprintf(h.out(), "\n🔥 SMOKE TEST\n")
	fmt.Fprintf(h.out(), "======================================================================\n")
	fmt.Fprintf(h.out(), "Server : %s %s\n", cfg.Binary, strings.Join(cfg.Args, " "))
	fmt.Fprintf(h.out(), "Target : %s\n", cfg.URL(h.Config.Load.Path))
	fmt.Fprintf(h.out(), "======================================================================\n\n")

	return proc.WithServer(ctx, h.Procs, cfg, func(_ *proc.Handle) error {
		res := h.Runner.Run(ctx, cfg.URL(h.Config.Load.Path))
		fmt.Fprintln(h.out(), res.Output)
		if !res.OK() {
			return errors.Wrap(res.Err(), "smoke trial failed")
		}
		fmt.Fprintf(h.out(), "✅ Time taken for tests: %.3f seconds\n", res.Elapsed)
		return nil
	})
}

func (h *Harness) printHeader(plan sweep.Plan) {
	w := h.out()
	fmt.Fprintf(w, "\n🚀 STARTING QUEUE CAPACITY SWEEP\n")
	fmt.Fprintf(w, "======================================================================\n")
	fmt.Fprintf(w, "Server     : %s (port %d)\n", plan.Binary, plan.Port)
	fmt.Fprintf(w, "Baseline   : %s\n", strings.Join(plan.Baseline().Args, " "))
	fmt.Fprintf(w, "Capacities : %v\n", plan.Capacities)
	fmt.Fprintf(w, "Load tool  : %s %s\n", h.Config.Load.Tool, strings.Join(Tool(h.Config.Load).Args(plan.Baseline().URL(plan.Path)), " "))
	fmt.Fprintf(w, "Trials     : %d per configuration\n", h.Config.Sweep.Trials)
	fmt.Fprintf(w, "======================================================================\n\n")
}

func (h *Harness) printProgress(events sweep.EventChan) {
	w := h.out()
	var started time.Time
	for e := range events {
		switch {
		case e.Phase == sweep.PhaseDone:
			fmt.Fprintf(w, "%s 100%% | done\n", progressBar(1, 20))
		case !e.Measured:
			started = time.Now()
			pct := float64(e.Step-1) / float64(e.Steps)
			fmt.Fprintf(w, "%s %3.0f%% | %-8s | %s\n", progressBar(pct, 20), pct*100, e.Phase, strings.Join(e.Config.Args, " "))
		case e.Err != nil:
			fmt.Fprintf(w, "   ⚠️  %s failed after %s: %v\n", strings.Join(e.Config.Args, " "), time.Since(started).Round(time.Second), e.Err)
		case e.Phase == sweep.PhaseSweep:
			fmt.Fprintf(w, "   capacity %d: %.3fs (speedup %.3fx)\n", e.Capacity, e.Measurement.Mean, e.Speedup)
		default:
			fmt.Fprintf(w, "   %s: %.3fs\n", e.Phase, e.Measurement.Mean)
		}
	}
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (h *Harness) out() io.Writer {
	if h.Out == nil {
		return os.Stdout
	}
	return h.Out
}
