//go:build !windows

package proc

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test. It is re-executed by the tests below
// as a stand-in server.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("QUEUESWEEP_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("QUEUESWEEP_HELPER_MODE") {
	case "stubborn":
		signal.Ignore(syscall.SIGTERM)
	case "exit":
		os.Exit(0)
	}
	time.Sleep(time.Minute)
	os.Exit(0)
}

func helperConfig(port int, mode string) Config {
	return Config{
		Binary: os.Args[0],
		Args:   []string{"-test.run=TestHelperProcess", "--"},
		Port:   port,
		Env:    []string{"QUEUESWEEP_HELPER_PROCESS=1", "QUEUESWEEP_HELPER_MODE=" + mode},
	}
}

func fastOptions() Options {
	return Options{
		Warmup:      10 * time.Millisecond,
		StopTimeout: 2 * time.Second,
	}
}

func TestAcquireRelease_Graceful(t *testing.T) {
	l := NewLauncher(fastOptions())

	h, err := l.Acquire(context.Background(), helperConfig(17878, "sleep"))
	require.NoError(t, err)
	assert.NotZero(t, h.PID())
	assert.False(t, h.Started().IsZero())
	assert.Equal(t, 1, l.Live())
	assert.NoError(t, h.ExitErr(), "running server has no exit status")

	require.NoError(t, h.Release())
	assert.Equal(t, OutcomeGraceful, h.Outcome())
	assert.Error(t, h.ExitErr(), "terminated by signal")
	assert.Equal(t, 0, l.Live())
}

func TestRelease_ForcesStubbornServer(t *testing.T) {
	opts := fastOptions()
	opts.StopTimeout = 200 * time.Millisecond
	l := NewLauncher(opts)

	h, err := l.Acquire(context.Background(), helperConfig(17879, "stubborn"))
	require.NoError(t, err)

	// Give the helper time to install its signal handler before the
	// termination request arrives.
	time.Sleep(time.Second)

	require.NoError(t, h.Release())
	assert.Equal(t, OutcomeForced, h.Outcome())
	assert.Error(t, h.ExitErr())
	assert.Equal(t, 0, l.Live())
}

func TestRelease_AlreadyExited(t *testing.T) {
	l := NewLauncher(fastOptions())

	h, err := l.Acquire(context.Background(), helperConfig(17880, "exit"))
	require.NoError(t, err)

	select {
	case <-h.done:
	case <-time.After(10 * time.Second):
		t.Fatal("helper did not exit")
	}

	require.NoError(t, h.Release())
	assert.Equal(t, OutcomeExited, h.Outcome())
	assert.NoError(t, h.ExitErr())
}

func TestRelease_Idempotent(t *testing.T) {
	l := NewLauncher(fastOptions())

	h, err := l.Acquire(context.Background(), helperConfig(17881, "sleep"))
	require.NoError(t, err)

	require.NoError(t, h.Release())
	first := h.Outcome()
	require.NoError(t, h.Release())
	assert.Equal(t, first, h.Outcome())
	assert.Equal(t, 0, l.Live())
}

func TestAcquire_PortInUse(t *testing.T) {
	l := NewLauncher(fastOptions())

	h, err := l.Acquire(context.Background(), helperConfig(17882, "sleep"))
	require.NoError(t, err)
	defer h.Release()

	_, err = l.Acquire(context.Background(), helperConfig(17882, "sleep"))
	assert.True(t, errors.Is(err, ErrPortInUse))
	assert.Equal(t, 1, l.Live())
}

func TestAcquire_MissingBinary(t *testing.T) {
	l := NewLauncher(fastOptions())

	_, err := l.Acquire(context.Background(), Config{Binary: "./definitely-not-a-server", Port: 17883})
	assert.Error(t, err)
	assert.Equal(t, 0, l.Live())
}

func TestAcquire_CancelledDuringWarmup(t *testing.T) {
	opts := fastOptions()
	opts.Warmup = time.Minute
	l := NewLauncher(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := l.Acquire(ctx, helperConfig(17884, "sleep"))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 0, l.Live())
}

func TestWithServer_ReleasesOnError(t *testing.T) {
	l := NewLauncher(fastOptions())
	boom := errors.New("trial failed")

	var seen *Handle
	err := WithServer(context.Background(), l, helperConfig(17885, "sleep"), func(h *Handle) error {
		seen = h
		assert.Equal(t, 1, l.Live())
		return boom
	})

	assert.Equal(t, boom, err)
	require.NotNil(t, seen)
	assert.NotEqual(t, OutcomeNone, seen.Outcome())
	assert.Equal(t, 0, l.Live())
}

func TestWithServer_ReleasesOnPanic(t *testing.T) {
	l := NewLauncher(fastOptions())

	assert.Panics(t, func() {
		_ = WithServer(context.Background(), l, helperConfig(17886, "sleep"), func(h *Handle) error {
			panic("measurement blew up")
		})
	})
	assert.Equal(t, 0, l.Live())
}

func TestAcquire_ProbeDoesNotFailAcquisition(t *testing.T) {
	opts := fastOptions()
	opts.Probe = true
	opts.ProbeAttempts = 2
	opts.ProbeDelay = 10 * time.Millisecond
	l := NewLauncher(opts)

	// The helper never listens, so the probe gives up and only logs.
	h, err := l.Acquire(context.Background(), helperConfig(17887, "sleep"))
	require.NoError(t, err)
	require.NoError(t, h.Release())
}

func TestConfigURL(t *testing.T) {
	c := Config{Port: 7878}
	assert.Equal(t, "http://localhost:7878/", c.URL("/"))
}
