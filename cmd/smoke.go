package cmd

import (
	"github.com/spf13/cobra"

	"queuesweep/internal/cli"
)

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Start the server once and run a single trial",
	Long: `Starts the server in the parallel mode with one queue capacity, runs
the load tool once and prints its raw report. Use it to check the binary,
the port and the load tool before a full sweep.`,
	PreRunE: bindFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		capacity, _ := cmd.Flags().GetInt("capacity")

		cfg, closeLog, err := setup(false)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signalContext()
		defer stop()

		return cli.New(cfg).Smoke(ctx, capacity)
	},
}

func init() {
	addServerFlags(smokeCmd.Flags())
	smokeCmd.Flags().Int("capacity", 8, "Queue capacity to start the server with")
}
