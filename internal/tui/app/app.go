package app

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"queuesweep/internal/report"
	"queuesweep/internal/sweep"
	"queuesweep/internal/tui/history"
	"queuesweep/internal/tui/live"
	"queuesweep/internal/tui/result"
	"queuesweep/internal/tui/styles"
)

type ClearStatusMsg struct{}

func clearStatusCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(_ time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// View Enum
type ViewID int

const (
	ViewDashboard ViewID = iota
	ViewResult
	ViewHistory
)

// DoneMsg is sent once the sweep and its reporting have finished. It is
// authoritative: progress events may have been dropped.
type DoneMsg struct {
	Result    *sweep.Result
	Err       error
	Artifacts report.Artifacts
}

type eventMsg sweep.Event

type Model struct {
	Events sweep.EventChan
	Done   <-chan DoneMsg
	Cancel context.CancelFunc
	Export ExportFunc

	Running  bool
	Quitting bool

	Width  int
	Height int

	CurrentView ViewID
	MenuItems   []string

	DashView    live.Model
	ResultView  result.Model
	HistoryView history.Model

	StatusMsg string
}

func NewModel(plan sweep.Plan, events sweep.EventChan, done <-chan DoneMsg, cancel context.CancelFunc, store history.Lister, export ExportFunc) Model {
	return Model{
		Events:      events,
		Done:        done,
		Cancel:      cancel,
		Export:      export,
		Running:     true,
		CurrentView: ViewDashboard,
		MenuItems:   []string{"[1] Sweep", "[2] Result", "[3] History"},
		DashView:    live.NewModel(plan),
		HistoryView: history.NewModel(store),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.DashView.Init(),
		waitForEvent(m.Events),
		waitForDone(m.Done),
	)
}

func waitForEvent(sub sweep.EventChan) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-sub
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

func waitForDone(done <-chan DoneMsg) tea.Cmd {
	return func() tea.Msg {
		return <-done
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ClearStatusMsg:
		m.StatusMsg = ""
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.Running {
				return m, tea.Quit
			}
			// stop between configurations; quit once the sweep reports back
			m.Quitting = true
			if m.Cancel != nil {
				m.Cancel()
			}
			m.StatusMsg = "Stopping sweep, releasing server..."
			return m, nil

		case "ctrl+d":
			m.CurrentView = ViewDashboard
			return m, nil

		case "ctrl+h":
			m.HistoryView.Refresh()
			m.CurrentView = ViewHistory
			return m, nil

		case "ctrl+right":
			m.CurrentView++
			if m.CurrentView > ViewHistory {
				m.CurrentView = ViewDashboard
			}
			return m, nil
		case "ctrl+left":
			m.CurrentView--
			if m.CurrentView < ViewDashboard {
				m.CurrentView = ViewHistory
			}
			return m, nil

		case "ctrl+p":
			if m.CurrentView == ViewHistory && m.Export != nil {
				if res := m.HistoryView.Current(); res != nil {
					m.StatusMsg = "Exporting " + history.ShortID(res.ID) + "..."
					return m, exportCmd(m.Export, res)
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		content := tea.WindowSizeMsg{Width: m.Width, Height: m.Height - 7}

		m.DashView, _ = m.DashView.Update(content)
		m.ResultView, _ = m.ResultView.Update(content)
		m.HistoryView, _ = m.HistoryView.Update(content)
		return m, nil

	case eventMsg:
		var c tea.Cmd
		m.DashView, c = m.DashView.Update(sweep.Event(msg))
		cmds = append(cmds, c, waitForEvent(m.Events))
		return m, tea.Batch(cmds...)

	case DoneMsg:
		m.Running = false
		if m.Quitting {
			return m, tea.Quit
		}
		m.DashView, _ = m.DashView.Update(sweep.Event{Phase: sweep.PhaseDone, Step: m.DashView.Steps, Steps: m.DashView.Steps})
		m.ResultView = result.NewModel(msg.Result, msg.Err)
		m.ResultView.Width, m.ResultView.Height = m.DashView.Width, m.DashView.Height
		m.HistoryView.Refresh()
		m.CurrentView = ViewResult
		if msg.Artifacts.CSV != "" {
			m.StatusMsg = "Saved " + msg.Artifacts.CSV + " and " + msg.Artifacts.Plot
			cmds = append(cmds, clearStatusCmd())
		}
		return m, tea.Batch(cmds...)

	case exportedMsg:
		m.StatusMsg = exportStatus(msg)
		return m, clearStatusCmd()
	}

	var defaultCmd tea.Cmd
	switch m.CurrentView {
	case ViewDashboard:
		m.DashView, defaultCmd = m.DashView.Update(msg)
	case ViewResult:
		m.ResultView, defaultCmd = m.ResultView.Update(msg)
	case ViewHistory:
		m.HistoryView, defaultCmd = m.HistoryView.Update(msg)
		if sel := m.HistoryView.Selected; sel != nil {
			m.HistoryView.Selected = nil
			m.ResultView = result.NewModel(sel, nil)
			m.CurrentView = ViewResult
		}
	}
	// the spinner keeps ticking while another view is shown
	if _, ok := msg.(tea.KeyMsg); !ok && m.CurrentView != ViewDashboard {
		var c tea.Cmd
		m.DashView, c = m.DashView.Update(msg)
		cmds = append(cmds, c)
	}
	cmds = append(cmds, defaultCmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}

	nav := strings.Builder{}
	for i, item := range m.MenuItems {
		if ViewID(i) == m.CurrentView {
			nav.WriteString(styles.TabActive.Render(item))
		} else {
			nav.WriteString(styles.TabBase.Render(item))
		}
	}
	navBar := styles.FooterBase.Width(m.Width).Render(nav.String())

	contentStr := ""
	switch m.CurrentView {
	case ViewDashboard:
		contentStr = m.DashView.View()
	case ViewResult:
		if m.ResultView.Result == nil && m.ResultView.Err == nil {
			contentStr = styles.Subtle.Render("The sweep is still running.")
		} else {
			contentStr = m.ResultView.View()
		}
	case ViewHistory:
		contentStr = m.HistoryView.View()
	}

	content := styles.Panel.Width(m.Width - 2).Height(m.Height - 6).Render(contentStr)

	quit := "Quit"
	if m.Running {
		quit = "Stop"
	}
	keys1 := []string{
		styles.RenderKey("Ctrl+<->", "View"),
		styles.RenderKey("Ctrl+D", "Dash"),
		styles.RenderKey("Ctrl+H", "Hist"),
	}
	keys2 := []string{
		styles.RenderKey("Enter", "Details"),
		styles.RenderKey("Ctrl+P", "Export"),
		styles.RenderKey("Q", quit),
	}

	helpRow1 := styles.FooterBase.Width(m.Width).Render(strings.Join(keys1, "   "))
	helpRow2 := styles.FooterBase.Width(m.Width).Render(strings.Join(keys2, "   "))
	footer := lipgloss.JoinVertical(lipgloss.Left, helpRow1, helpRow2)

	if m.StatusMsg != "" {
		status := styles.Box.BorderForeground(styles.ColorHighlight).Render(m.StatusMsg)
		return lipgloss.JoinVertical(lipgloss.Left, navBar, content, status, footer)
	}

	return lipgloss.JoinVertical(lipgloss.Left, navBar, content, footer)
}
