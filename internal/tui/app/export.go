package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"queuesweep/internal/report"
	"queuesweep/internal/sweep"
)

// ExportFunc writes the artifacts of a stored run.
type ExportFunc func(res *sweep.Result) (report.Artifacts, error)

type exportedMsg struct {
	ID        string
	Artifacts report.Artifacts
	Err       error
}

func exportCmd(export ExportFunc, res *sweep.Result) tea.Cmd {
	return func() tea.Msg {
		art, err := export(res)
		return exportedMsg{ID: res.ID, Artifacts: art, Err: err}
	}
}

func exportStatus(msg exportedMsg) string {
	if msg.Err != nil {
		return fmt.Sprintf("Export Failed: %v", msg.Err)
	}
	return fmt.Sprintf("Exported %s to %s and %s", msg.ID, msg.Artifacts.CSV, msg.Artifacts.Plot)
}
