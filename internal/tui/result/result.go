package result

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"queuesweep/internal/report"
	"queuesweep/internal/sweep"
	"queuesweep/internal/tui/styles"
)

// Model shows one finished sweep.
type Model struct {
	Result *sweep.Result
	Err    error

	Width  int
	Height int
}

func NewModel(res *sweep.Result, err error) Model {
	return Model{Result: res, Err: err}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
	}
	return m, nil
}

func (m Model) View() string {
	s := strings.Builder{}

	title := "📊 Sweep Complete"
	if m.Err != nil {
		title = "❌ Sweep Failed"
	}
	s.WriteString(styles.Title.Render(title))
	s.WriteString("\n\n")

	if m.Err != nil {
		s.WriteString(styles.Error.Render(m.Err.Error()))
		s.WriteString("\n\n")
	}
	if m.Result == nil {
		return s.String()
	}

	s.WriteString(styles.Active.Render("Overview"))
	s.WriteString("\n")
	baseline := "N/A"
	if m.Result.Baseline != nil {
		baseline = fmt.Sprintf("%.3fs", m.Result.Baseline.Mean)
	}
	overview := fmt.Sprintf(
		"Run ID:          %s\nSequential time: %s\nCandidates:      %d\nFailed:          %d",
		m.Result.ID, baseline, len(m.Result.Points), m.Result.Failed(),
	)
	if best, ok := m.Result.Best(); ok {
		overview += "\nBest capacity:   " + styles.Speedup(best.Speedup).Render(
			fmt.Sprintf("%d (%.3fx)", best.Capacity, best.Speedup))
	}
	s.WriteString(styles.Box.Render(overview))
	s.WriteString("\n\n")

	if len(m.Result.Points) > 0 {
		s.WriteString(styles.Active.Render("Candidates"))
		s.WriteString("\n")
		s.WriteString(report.SummaryTable(m.Result.Points))
		s.WriteString("\n\n")
	}

	s.WriteString(styles.Subtle.Render("Press q to quit"))
	return s.String()
}
