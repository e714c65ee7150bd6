package cmd

import (
	"github.com/spf13/cobra"

	"queuesweep/internal/dummy"
)

var dummyCmd = &cobra.Command{
	Use:   "dummy [mode]",
	Short: "Run a stand-in server to sweep against",
	Long: `Runs a small HTTP server with the command line of the benchmarked
server, so a sweep can be tried without it:

  1  sequential, one request at a time
  2  bounded thread pool with a -q request queue
  3  thread pool with a locked, unbounded queue
  4  one goroutine per request

Sweep it with: queuesweep --binary queuesweep --prefix-args dummy`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := dummy.DefaultServerConfig()
		if len(args) == 1 {
			sc.Mode = args[0]
		}
		sc.Workers, _ = cmd.Flags().GetInt("workers")
		sc.Queue, _ = cmd.Flags().GetInt("queue")
		sc.Port, _ = cmd.Flags().GetInt("port")

		_, closeLog, err := setup(false)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signalContext()
		defer stop()

		return dummy.Serve(ctx, sc)
	},
}

func init() {
	def := dummy.DefaultServerConfig()
	f := dummyCmd.Flags()
	f.IntP("workers", "w", def.Workers, "Worker goroutines")
	f.IntP("queue", "q", def.Queue, "Request queue capacity")
	f.Int("port", def.Port, "Port to listen on")
}
