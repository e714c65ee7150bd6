package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"queuesweep/internal/sweep"
	"queuesweep/internal/tui/styles"
)

// Lister is the part of the run store the history view reads.
type Lister interface {
	List(limit int) ([]*sweep.Result, error)
}

const listLimit = 100

// Model lists past sweeps, newest first.
type Model struct {
	Store Lister
	Table table.Model
	Runs  []*sweep.Result
	Err   error

	// Selected is set when the user picks a run with enter.
	Selected *sweep.Result

	Width  int
	Height int
}

func NewModel(store Lister) Model {
	columns := []table.Column{
		{Title: "Started", Width: 20},
		{Title: "ID", Width: 10},
		{Title: "Baseline", Width: 10},
		{Title: "Best", Width: 16},
		{Title: "Failed", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.ColorPrimary)
	s.Selected = s.Selected.
		Foreground(styles.ColorBg).
		Background(styles.ColorPrimary).
		Bold(true)
	t.SetStyles(s)

	m := Model{
		Store: store,
		Table: t,
	}
	m.Refresh()
	return m
}

func (m *Model) Refresh() {
	if m.Store == nil {
		return
	}
	runs, err := m.Store.List(listLimit)
	m.Err = err
	m.Runs = runs

	rows := make([]table.Row, len(runs))
	for i, run := range runs {
		rows[i] = Row(run)
	}
	m.Table.SetRows(rows)
}

// Row summarises one run.
func Row(run *sweep.Result) table.Row {
	baseline := "N/A"
	if run.Baseline != nil {
		baseline = fmt.Sprintf("%.3fs", run.Baseline.Mean)
	}
	best := "-"
	if p, ok := run.Best(); ok {
		best = fmt.Sprintf("%d (%.2fx)", p.Capacity, p.Speedup)
	}
	return table.Row{
		run.StartedAt.Local().Format("2006-01-02 15:04:05"),
		ShortID(run.ID),
		baseline,
		best,
		fmt.Sprintf("%d/%d", run.Failed(), len(run.Points)),
	}
}

// ShortID is the prefix shown in tables; the store resolves it back.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetWidth(msg.Width - 4)
		if msg.Height > 8 {
			m.Table.SetHeight(msg.Height - 8)
		}

	case tea.KeyMsg:
		if msg.String() == "enter" {
			m.Selected = m.Current()
			return m, nil
		}
	}

	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

// Current returns the highlighted run.
func (m Model) Current() *sweep.Result {
	idx := m.Table.Cursor()
	if idx >= 0 && idx < len(m.Runs) {
		return m.Runs[idx]
	}
	return nil
}

func (m Model) View() string {
	s := strings.Builder{}
	s.WriteString(styles.Title.Render("📜 Past Sweeps"))
	s.WriteString("\n\n")

	switch {
	case m.Err != nil:
		s.WriteString(styles.Error.Render("Could not read history: " + m.Err.Error()))
	case len(m.Runs) == 0:
		s.WriteString(styles.Subtle.Render("No history found.\nRun a sweep to generate data."))
	default:
		s.WriteString(styles.Box.Render(m.Table.View()))
	}
	s.WriteString("\n\n")
	s.WriteString(styles.Subtle.Render("[Enter] Details  [Ctrl+P] Export selected"))
	return s.String()
}
