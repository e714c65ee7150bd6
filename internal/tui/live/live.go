package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"queuesweep/internal/measure"
	"queuesweep/internal/sweep"
	"queuesweep/internal/tui/components"
	"queuesweep/internal/tui/styles"
)

// Model shows a sweep while it runs: the configuration being measured,
// overall progress, the points so far and a speedup sparkline.
type Model struct {
	Plan     sweep.Plan
	Progress progress.Model
	Spinner  spinner.Model
	Points   table.Model
	Speedups components.Sparkline

	Phase    sweep.Phase
	Current  string
	Step     int
	Steps    int
	Baseline *measure.Measurement
	Warmup   *measure.Measurement
	Failed   int
	LastErr  error

	StartTime time.Time
	StepStart time.Time
	Done      bool
	Width     int
	Height    int
}

func NewModel(plan sweep.Plan) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Active

	columns := []table.Column{
		{Title: "Capacity", Width: 10},
		{Title: "Parallel", Width: 12},
		{Title: "Speedup", Width: 10},
		{Title: "StdDev", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(len(plan.Capacities)+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.ColorPrimary)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)

	now := time.Now()
	return Model{
		Plan:      plan,
		Progress:  progress.New(progress.WithDefaultGradient()),
		Spinner:   sp,
		Points:    t,
		Speedups:  components.NewSparkline(len(plan.Capacities), "Speedup by capacity", styles.Active),
		Steps:     plan.Steps(),
		StartTime: now,
		StepStart: now,
	}
}

func (m Model) Init() tea.Cmd {
	return m.Spinner.Tick
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sweep.Event:
		return m.apply(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 8
		return m, nil

	case spinner.TickMsg:
		if m.Done {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m Model) apply(e sweep.Event) (Model, tea.Cmd) {
	m.Phase = e.Phase
	m.Step = e.Step
	if e.Steps > 0 {
		m.Steps = e.Steps
	}
	if e.Phase == sweep.PhaseDone {
		m.Done = true
		m.Current = ""
		return m, m.Progress.SetPercent(1)
	}
	m.Current = strings.Join(e.Config.Args, " ")

	if !e.Measured {
		m.StepStart = time.Now()
		return m, m.Progress.SetPercent(m.fraction(e.Step - 1))
	}

	m.LastErr = e.Err
	switch e.Phase {
	case sweep.PhaseWarmup:
		m.Warmup = e.Measurement
	case sweep.PhaseBaseline:
		m.Baseline = e.Measurement
	case sweep.PhaseSweep:
		m.Points.SetRows(append(m.Points.Rows(), Row(e)))
		if e.Measurement != nil {
			m.Speedups.Add(e.Speedup)
		} else {
			m.Failed++
		}
	}
	return m, m.Progress.SetPercent(m.fraction(e.Step))
}

func (m Model) fraction(done int) float64 {
	if m.Steps == 0 {
		return 0
	}
	return float64(done) / float64(m.Steps)
}

// Row formats a measured sweep event for the points table.
func Row(e sweep.Event) table.Row {
	if e.Measurement == nil {
		return table.Row{fmt.Sprintf("%d", e.Capacity), "N/A", "N/A", "N/A"}
	}
	return table.Row{
		fmt.Sprintf("%d", e.Capacity),
		fmt.Sprintf("%.3fs", e.Measurement.Mean),
		fmt.Sprintf("%.3fx", e.Speedup),
		fmt.Sprintf("%.3f", e.Measurement.Summary.StdDev),
	}
}

func (m Model) View() string {
	s := strings.Builder{}

	status := m.Spinner.View() + " " + styles.Active.Render(phaseTitle(m.Phase))
	if m.Done {
		status = styles.Success.Render("✔ Sweep complete")
	}
	if m.Current != "" {
		status += styles.Subtle.Render(fmt.Sprintf("  %s %s  (%s)", m.Plan.Binary, m.Current,
			time.Since(m.StepStart).Round(time.Second)))
	}
	s.WriteString(status)
	s.WriteString("\n\n")

	col1 := fmt.Sprintf("STEP: %d/%d\nELAPSED: %s", m.Step, m.Steps, time.Since(m.StartTime).Round(time.Second))
	col2 := fmt.Sprintf("BASELINE: %s\nWARM-UP: %s", seconds(m.Baseline), seconds(m.Warmup))
	failStyle := styles.Active
	if m.Failed > 0 {
		failStyle = styles.Warn
	}
	col3 := failStyle.Render(fmt.Sprintf("FAILED: %d\nOF: %d", m.Failed, len(m.Plan.Capacities)))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(col2),
		styles.Box.Render(col3),
	))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.Points.View()),
		styles.Box.Render(m.Speedups.View()),
	))
	s.WriteString("\n\n")

	if m.LastErr != nil {
		s.WriteString(styles.Error.Render("Last failure: " + m.LastErr.Error()))
		s.WriteString("\n\n")
	}

	s.WriteString(m.Progress.View())
	return s.String()
}

func phaseTitle(p sweep.Phase) string {
	switch p {
	case sweep.PhaseWarmup:
		return "Warming up"
	case sweep.PhaseBaseline:
		return "Measuring sequential baseline"
	case sweep.PhaseSweep:
		return "Sweeping queue capacity"
	case sweep.PhaseDone:
		return "Done"
	}
	return "Starting"
}

func seconds(m *measure.Measurement) string {
	if m == nil {
		return "-"
	}
	return fmt.Sprintf("%.3fs", m.Mean)
}
