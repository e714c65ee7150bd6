package app

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queuesweep/internal/measure"
	"queuesweep/internal/report"
	"queuesweep/internal/sweep"
)

type stubStore struct {
	runs []*sweep.Result
}

func (s *stubStore) List(int) ([]*sweep.Result, error) { return s.runs, nil }

func newTestModel(t *testing.T, store *stubStore) (Model, *bool) {
	t.Helper()
	cancelled := false
	plan := sweep.DefaultPlan()
	plan.Capacities = []int{1}
	m := NewModel(plan, make(sweep.EventChan, 4), make(chan DoneMsg), func() { cancelled = true }, store, nil)
	return m, &cancelled
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func sampleResult() *sweep.Result {
	return &sweep.Result{
		ID:       "run-1",
		Baseline: &measure.Measurement{Mean: 8},
		Points:   []sweep.Point{{Capacity: 1, Measurement: &measure.Measurement{Mean: 4}, Speedup: 2}},
	}
}

func TestQuitWhileRunningCancelsFirst(t *testing.T) {
	m, cancelled := newTestModel(t, &stubStore{})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, *cancelled)
	assert.True(t, m.Quitting)
	assert.Nil(t, cmd)

	_, cmd = update(t, m, DoneMsg{Err: errors.New("context canceled")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestDoneShowsResult(t *testing.T) {
	store := &stubStore{}
	m, _ := newTestModel(t, store)
	store.runs = []*sweep.Result{sampleResult()}

	m, _ = update(t, m, DoneMsg{Result: sampleResult(), Artifacts: report.Artifacts{CSV: "a.csv", Plot: "a.png"}})
	assert.False(t, m.Running)
	assert.Equal(t, ViewResult, m.CurrentView)
	assert.True(t, m.DashView.Done)
	assert.Len(t, m.HistoryView.Runs, 1)
	assert.Contains(t, m.StatusMsg, "a.csv")

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestEventsReachDashboard(t *testing.T) {
	m, _ := newTestModel(t, &stubStore{})
	m, cmd := update(t, m, eventMsg(sweep.Event{Phase: sweep.PhaseBaseline, Step: 2, Steps: 3, Measured: true, Measurement: &measure.Measurement{Mean: 7}}))
	assert.NotNil(t, cmd)
	require.NotNil(t, m.DashView.Baseline)
	assert.Equal(t, 7.0, m.DashView.Baseline.Mean)
}

func TestExportFromHistory(t *testing.T) {
	store := &stubStore{runs: []*sweep.Result{sampleResult()}}
	m, _ := newTestModel(t, store)
	var exported *sweep.Result
	m.Export = func(res *sweep.Result) (report.Artifacts, error) {
		exported = res
		return report.Artifacts{CSV: "x.csv", Plot: "x.png"}, nil
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlH})
	assert.Equal(t, ViewHistory, m.CurrentView)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	require.NotNil(t, cmd)
	msg := cmd()
	require.NotNil(t, exported)
	assert.Equal(t, "run-1", exported.ID)

	m, _ = update(t, m, msg)
	assert.Contains(t, m.StatusMsg, "x.csv")
}
