package cli

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"queuesweep/internal/report"
	"queuesweep/internal/storage"
	"queuesweep/internal/sweep"
	"queuesweep/internal/tui/app"
	"queuesweep/internal/tui/history"
)

// SweepTUI runs the sweep behind the live dashboard. Reporting happens in
// the background once the sweep ends; the summary table is printed after
// the dashboard closes.
func (h *Harness) SweepTUI(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	plan := Plan(h.Config)
	events := make(sweep.EventChan, 64)
	done := make(chan app.DoneMsg, 1)
	final := make(chan app.DoneMsg, 1)

	// the dashboard owns the screen, so the reporter stays silent
	h.Reporter.Out = io.Discard

	go func() {
		res, err := sweep.NewController(h.Launcher, h.Measurer, plan).WithEvents(events).Run(ctx)
		art, err := h.Finish(res, err)
		msg := app.DoneMsg{Result: res, Err: err, Artifacts: art}
		final <- msg
		done <- msg
	}()

	var store *historyStore
	if h.OpenStore != nil {
		store = &historyStore{open: h.OpenStore}
	}
	m := app.NewModel(plan, events, done, cancel, store.lister(), h.export)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		cancel()
		<-final
		return errors.Wrap(err, "running dashboard")
	}

	cancel()
	msg := <-final
	if msg.Result != nil && msg.Result.Baseline != nil {
		report.PrintSummary(h.out(), msg.Result)
		if msg.Artifacts.CSV != "" {
			h.printArtifacts(msg.Artifacts)
		}
	}
	return msg.Err
}

func (h *Harness) export(res *sweep.Result) (report.Artifacts, error) {
	r := *h.Reporter
	r.Out = io.Discard
	return r.Report(res)
}

func (h *Harness) printArtifacts(art report.Artifacts) {
	io.WriteString(h.out(), "\n💾 Data saved to "+art.CSV+"\n")
	if art.Plot != "" {
		io.WriteString(h.out(), "📈 Plot saved to "+art.Plot+"\n")
	}
}

// historyStore opens the bbolt file per read so the sweep goroutine can
// write to it between reads.
type historyStore struct {
	open func() (*storage.Store, error)
}

func (s *historyStore) List(limit int) ([]*sweep.Result, error) {
	store, err := s.open()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.List(limit)
}

func (s *historyStore) lister() history.Lister {
	if s == nil {
		return nil
	}
	return s
}
