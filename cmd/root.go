package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"queuesweep/internal/banner"
	"queuesweep/internal/config"
	"queuesweep/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "queuesweep",
	Short: "queuesweep - queue capacity benchmark harness",
	Long: `
queuesweep measures how the internal queue capacity of a thread-pooled
HTTP server affects throughput.

It times a sequential baseline, then starts the server once per queue
capacity, drives it with ApacheBench and reports the speedup of each
capacity as a table, a CSV file and a plot.

Without a subcommand it runs the sweep.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE:       bindFlags,
	RunE:          runSweep,
}

func Execute() {
	// Custom Help with Banner
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(sweepCmd, smokeCmd, historyCmd, dummyCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.queuesweep.yaml)")
	pf.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")
	pf.String("log-file", "", "Write logs to this file instead of stderr")

	addSweepFlags(rootCmd.Flags())
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
			v.SetConfigType("yaml")
			v.SetConfigName(".queuesweep")
		}
	}
	v.SetEnvPrefix("QUEUESWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
			os.Exit(1)
		}
	}
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",

	"binary":       "server.binary",
	"port":         "server.port",
	"prefix-args":  "server.prefixArgs",
	"workers":      "server.workers",
	"warmup":       "server.warmup",
	"stop-timeout": "server.stopTimeout",
	"server-log":   "server.logFile",
	"probe":        "server.probe",
	"tool":         "load.tool",
	"requests":     "load.requests",
	"concurrency":  "load.concurrency",
	"timeout":      "load.timeout",
	"path":         "load.path",
	"trials":       "sweep.trials",
	"capacities":   "sweep.capacities",
	"warmup-phase": "sweep.warmup",
	"out-dir":      "output.dir",
	"metrics-file": "output.metricsFile",
	"dpi":          "output.dpi",
	"history-db":   "store.path",
	"record":       "store.enabled",
}

// bindFlags binds the flags of the running command. Binding happens per
// invocation because several commands share flag names.
func bindFlags(cmd *cobra.Command, _ []string) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = viper.BindPFlag(key, f)
	})
	return err
}

func addServerFlags(fs *pflag.FlagSet) {
	fs.String("binary", "./target/debug/server", "Server binary under test")
	fs.Int("port", 7878, "Port the server listens on")
	fs.StringSlice("prefix-args", nil, "Arguments placed before every server configuration")
	fs.Int("workers", 0, "Pass -w <n> to parallel configurations (0 = server default)")
	fs.Duration("warmup", 2*time.Second, "Time to wait after starting the server")
	fs.Duration("stop-timeout", 5*time.Second, "Time to wait for graceful shutdown before killing")
	fs.String("server-log", "", "Append server stdout/stderr to this file")
	fs.Bool("probe", false, "Dial the port after the warm-up and warn if it is closed")

	fs.String("tool", "ab", "Load tool binary")
	fs.Int("requests", 10000, "Requests per trial (-n)")
	fs.Int("concurrency", 10, "Concurrent requests per trial (-c)")
	fs.Duration("timeout", 30*time.Second, "Per-request timeout (-s)")
	fs.String("path", "/", "Request path")
}

func addSweepFlags(fs *pflag.FlagSet) {
	addServerFlags(fs)
	fs.Int("trials", 3, "Trials per configuration")
	fs.IntSlice("capacities", []int{1, 2, 4, 8, 16, 32, 64}, "Queue capacities to sweep, in order")
	fs.Bool("warmup-phase", true, "Run an unrecorded warm-up measurement first")
	fs.String("out-dir", ".", "Directory for the CSV and plot")
	fs.String("metrics-file", "", "Write Prometheus textfile metrics here")
	fs.Int("dpi", 300, "Plot resolution")
	fs.String("history-db", "", "Run history database (default $HOME/.queuesweep/history.db)")
	fs.Bool("record", true, "Record the sweep in the run history")
	fs.Bool("tui", false, "Show the live dashboard")
}

// setup loads the configuration and configures logging.
func setup(quiet bool) (config.Config, func(), error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, nil, err
	}
	closer, err := logging.Configure(cfg.Log, quiet)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, func() { closer.Close() }, nil
}

// signalContext is cancelled on Ctrl-C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
