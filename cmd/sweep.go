package cmd

import (
	"github.com/spf13/cobra"

	"queuesweep/internal/cli"
)

var sweepCmd = &cobra.Command{
	Use:     "sweep",
	Short:   "Run the baseline and the queue capacity sweep",
	Example: "  queuesweep sweep --binary ./target/release/server --capacities 1,4,16 --trials 5",
	PreRunE: bindFlags,
	RunE:    runSweep,
}

func init() {
	addSweepFlags(sweepCmd.Flags())
}

func runSweep(cmd *cobra.Command, _ []string) error {
	useTUI, _ := cmd.Flags().GetBool("tui")

	cfg, closeLog, err := setup(useTUI)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signalContext()
	defer stop()

	h := cli.New(cfg)
	if useTUI {
		return h.SweepTUI(ctx)
	}
	return h.Sweep(ctx)
}
