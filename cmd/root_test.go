package cmd

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queuesweep/internal/config"
)

func loadWithArgs(t *testing.T, args ...string) config.Config {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.SetDefaults(viper.GetViper())

	cmd := &cobra.Command{Use: "test"}
	addSweepFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse(args))
	require.NoError(t, bindFlags(cmd, nil))

	cfg, err := config.Load(viper.GetViper())
	require.NoError(t, err)
	return cfg
}

func TestBindFlags_ChangedFlagsOverrideDefaults(t *testing.T) {
	cfg := loadWithArgs(t,
		"--capacities", "3,5",
		"--trials", "7",
		"--warmup", "250ms",
		"--prefix-args", "dummy",
		"--record=false",
	)

	assert.Equal(t, []int{3, 5}, cfg.Sweep.Capacities)
	assert.Equal(t, 7, cfg.Sweep.Trials)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.Warmup)
	assert.Equal(t, []string{"dummy"}, cfg.Server.PrefixArgs)
	assert.False(t, cfg.Store.Enabled)
}

func TestBindFlags_UnchangedFlagsKeepDefaults(t *testing.T) {
	cfg := loadWithArgs(t)

	assert.Equal(t, 7878, cfg.Server.Port)
	assert.Equal(t, "ab", cfg.Load.Tool)
	assert.Equal(t, 30*time.Second, cfg.Load.Timeout)
	assert.Equal(t, []int{1, 2, 4, 8, 16, 32, 64}, cfg.Sweep.Capacities)
	assert.True(t, cfg.Store.Enabled)
}

func TestBindFlags_InvalidValueFailsValidation(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.SetDefaults(viper.GetViper())

	cmd := &cobra.Command{Use: "test"}
	addSweepFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse([]string{"--trials", "0"}))
	require.NoError(t, bindFlags(cmd, nil))

	_, err := config.Load(viper.GetViper())
	assert.Error(t, err)
}
