// Package proc starts and stops the server under test.
//
// A Launcher hands out at most one Handle per port. Every Handle must be
// released exactly once; WithServer scopes that so the release happens on
// every exit path.
package proc

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrPortInUse = errors.New("port already held by a running server")

// Config describes one server-under-test invocation. Args are passed through
// unchanged and must not be modified after the config is handed to Acquire.
type Config struct {
	Binary string
	Args   []string
	Port   int
	// Env is appended to the harness environment.
	Env []string
}

// URL returns the address the load tool targets for this server.
func (c Config) URL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", c.Port, path)
}

func (c Config) String() string {
	return fmt.Sprintf("%s %v (port %d)", c.Binary, c.Args, c.Port)
}

// Options tune how servers are started and stopped.
type Options struct {
	// Warmup is slept after spawning, giving the server time to bind.
	Warmup time.Duration
	// StopTimeout bounds the wait after the graceful termination request.
	StopTimeout time.Duration
	// LogFile receives server stdout/stderr. Empty discards them.
	LogFile string
	// Probe dials the port after the warm-up, ProbeAttempts times at most.
	Probe         bool
	ProbeAttempts uint
	ProbeDelay    time.Duration
}

func DefaultOptions() Options {
	return Options{
		Warmup:        2 * time.Second,
		StopTimeout:   5 * time.Second,
		ProbeAttempts: 20,
		ProbeDelay:    100 * time.Millisecond,
	}
}

type Launcher struct {
	opts Options

	mu   sync.Mutex
	held map[int]*Handle
}

func NewLauncher(opts Options) *Launcher {
	if opts.ProbeDelay <= 0 {
		opts.ProbeDelay = 100 * time.Millisecond
	}
	return &Launcher{
		opts: opts,
		held: make(map[int]*Handle),
	}
}

// Acquire spawns the server and blocks for the warm-up interval. It fails if
// another live handle holds cfg.Port or the binary cannot be started. A server
// that starts but never listens is not detected here.
func (l *Launcher) Acquire(ctx context.Context, cfg Config) (*Handle, error) {
	l.mu.Lock()
	if _, busy := l.held[cfg.Port]; busy {
		l.mu.Unlock()
		return nil, errors.Wrapf(ErrPortInUse, "port %d", cfg.Port)
	}
	h := &Handle{
		cfg:         cfg,
		launcher:    l,
		stopTimeout: l.opts.StopTimeout,
		done:        make(chan struct{}),
		log:         log.WithFields(log.Fields{"component": "proc", "args": cfg.Args, "port": cfg.Port}),
	}
	l.held[cfg.Port] = h
	l.mu.Unlock()

	if err := h.start(l.opts.LogFile); err != nil {
		l.forget(h)
		return nil, err
	}
	h.log.WithField("pid", h.PID()).Info("Starting server")

	select {
	case <-ctx.Done():
		h.Release()
		return nil, ctx.Err()
	case <-time.After(l.opts.Warmup):
	}

	if l.opts.Probe {
		l.probe(h)
	}
	return h, nil
}

// probe is advisory: a server that never answers still yields a handle, and
// the trials against it will fail on their own.
func (l *Launcher) probe(h *Handle) {
	addr := net.JoinHostPort("localhost", strconv.Itoa(h.cfg.Port))
	err := retry.Do(
		func() error {
			conn, err := net.DialTimeout("tcp", addr, l.opts.ProbeDelay)
			if err != nil {
				return err
			}
			return conn.Close()
		},
		retry.Attempts(l.opts.ProbeAttempts),
		retry.Delay(l.opts.ProbeDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		h.log.WithError(err).Warn("Server did not accept connections after warm-up")
	}
}

func (l *Launcher) forget(h *Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[h.cfg.Port] == h {
		delete(l.held, h.cfg.Port)
	}
}

// Live reports how many handles are currently unreleased.
func (l *Launcher) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}

// WithServer acquires a server for cfg, runs fn against it and releases the
// server afterwards, also when fn fails or panics.
func WithServer(ctx context.Context, l *Launcher, cfg Config, fn func(h *Handle) error) error {
	h, err := l.Acquire(ctx, cfg)
	if err != nil {
		return err
	}
	defer h.Release()
	return fn(h)
}

func isProcessDone(err error) bool {
	return errors.Is(err, os.ErrProcessDone)
}

func command(cfg Config) *exec.Cmd {
	cmd := exec.Command(cfg.Binary, cfg.Args...)
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	return cmd
}
