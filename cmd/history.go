package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"queuesweep/internal/cli"
	"queuesweep/internal/config"
	"queuesweep/internal/report"
	"queuesweep/internal/storage"
	"queuesweep/internal/tui/history"
	"queuesweep/internal/tui/styles"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "List recorded sweeps",
	PreRunE: bindFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, closeLog, err := setup(false)
		if err != nil {
			return err
		}
		defer closeLog()

		store, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.List(limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No recorded sweeps.")
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(styles.ColorSubtle)).
			Headers("Started", "ID", "Baseline", "Best", "Failed")
		for _, run := range runs {
			t.Row(history.Row(run)...)
		}
		fmt.Println(t.Render())
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Print the summary of a recorded sweep",
	Args:    cobra.ExactArgs(1),
	PreRunE: bindFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		regenerate, _ := cmd.Flags().GetBool("report")

		cfg, closeLog, err := setup(false)
		if err != nil {
			return err
		}
		defer closeLog()

		store, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.Get(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run %s started %s\n", run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
		if !regenerate {
			report.PrintSummary(os.Stdout, run)
			return nil
		}

		_, err = cli.New(cfg).Reporter.Report(run)
		return err
	},
}

func init() {
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.PersistentFlags().String("history-db", "", "Run history database (default $HOME/.queuesweep/history.db)")
	historyCmd.Flags().Int("limit", 20, "Number of runs to list")
	historyShowCmd.Flags().Bool("report", false, "Write the CSV and plot for the run again")
	historyShowCmd.Flags().String("out-dir", ".", "Directory for the CSV and plot")
}

func openHistory(cfg config.Config) (*storage.Store, error) {
	path, err := storage.ExpandPath(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening run history")
	}
	return store, nil
}
