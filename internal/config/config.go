package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the full harness configuration, bound from defaults, the config
// file, QUEUESWEEP_* environment variables and command-line flags.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Load   LoadConfig   `mapstructure:"load"`
	Sweep  SweepConfig  `mapstructure:"sweep"`
	Output OutputConfig `mapstructure:"output"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Binary        string        `mapstructure:"binary" validate:"required"`
	Port          int           `mapstructure:"port" validate:"min=1,max=65535"`
	PrefixArgs    []string      `mapstructure:"prefixArgs"`
	BaselineArgs  []string      `mapstructure:"baselineArgs" validate:"required,min=1"`
	ParallelMode  string        `mapstructure:"parallelMode" validate:"required"`
	CapacityFlag  string        `mapstructure:"capacityFlag" validate:"required"`
	Workers       int           `mapstructure:"workers" validate:"gte=0"`
	Warmup        time.Duration `mapstructure:"warmup" validate:"gte=0"`
	StopTimeout   time.Duration `mapstructure:"stopTimeout" validate:"gt=0"`
	LogFile       string        `mapstructure:"logFile"`
	Probe         bool          `mapstructure:"probe"`
	ProbeAttempts uint          `mapstructure:"probeAttempts" validate:"gte=1"`
}

type LoadConfig struct {
	Tool        string        `mapstructure:"tool" validate:"required"`
	Requests    int           `mapstructure:"requests" validate:"gt=0"`
	Concurrency int           `mapstructure:"concurrency" validate:"gt=0,ltefield=Requests"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Path        string        `mapstructure:"path" validate:"required,startswith=/"`
}

type SweepConfig struct {
	Trials     int   `mapstructure:"trials" validate:"gt=0"`
	Capacities []int `mapstructure:"capacities" validate:"required,min=1,dive,gt=0"`
	Warmup     bool  `mapstructure:"warmup"`
}

type OutputConfig struct {
	Dir         string  `mapstructure:"dir" validate:"required"`
	MetricsFile string  `mapstructure:"metricsFile"`
	PlotWidth   float64 `mapstructure:"plotWidth" validate:"gt=0"`
	PlotHeight  float64 `mapstructure:"plotHeight" validate:"gt=0"`
	DPI         int     `mapstructure:"dpi" validate:"gt=0"`
}

type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	File   string `mapstructure:"file"`
}

// SetDefaults registers the stock sweep:
// ./target/debug/server on port 7878, ab -n 10000 -c 10 -s 30, three trials
// per configuration and capacities 1..64.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.binary", "./target/debug/server")
	v.SetDefault("server.port", 7878)
	v.SetDefault("server.prefixArgs", []string{})
	v.SetDefault("server.baselineArgs", []string{"1"})
	v.SetDefault("server.parallelMode", "2")
	v.SetDefault("server.capacityFlag", "-q")
	v.SetDefault("server.workers", 0)
	v.SetDefault("server.warmup", 2*time.Second)
	v.SetDefault("server.stopTimeout", 5*time.Second)
	v.SetDefault("server.logFile", "")
	v.SetDefault("server.probe", false)
	v.SetDefault("server.probeAttempts", 20)

	v.SetDefault("load.tool", "ab")
	v.SetDefault("load.requests", 10000)
	v.SetDefault("load.concurrency", 10)
	v.SetDefault("load.timeout", 30*time.Second)
	v.SetDefault("load.path", "/")

	v.SetDefault("sweep.trials", 3)
	v.SetDefault("sweep.capacities", []int{1, 2, 4, 8, 16, 32, 64})
	v.SetDefault("sweep.warmup", true)

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.metricsFile", "")
	v.SetDefault("output.plotWidth", 10.0)
	v.SetDefault("output.plotHeight", 6.0)
	v.SetDefault("output.dpi", 300)

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", defaultStorePath())

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".queuesweep", "history.db")
	}
	return filepath.Join(home, ".queuesweep", "history.db")
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "decoding configuration")
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}
