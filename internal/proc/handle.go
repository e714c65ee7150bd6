package proc

import (
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type stopState int

const (
	stateGraceful stopState = iota
	stateForced
	stateStopped
)

// Outcome describes how a released server went down.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeGraceful Outcome = "graceful"
	OutcomeForced   Outcome = "forced"
	// OutcomeExited means the server was already gone when released.
	OutcomeExited Outcome = "exited"
)

// Handle is one running server. It is owned by the caller of Acquire.
type Handle struct {
	cfg         Config
	launcher    *Launcher
	stopTimeout time.Duration
	log         *log.Entry

	cmd     *exec.Cmd
	started time.Time
	output  io.Closer

	// done is closed once the process has been reaped.
	done    chan struct{}
	waitErr error

	releaseOnce sync.Once
	releaseErr  error
	outcome     Outcome
}

func (h *Handle) start(logFile string) error {
	cmd := command(h.cfg)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrapf(err, "opening server log %s", logFile)
		}
		cmd.Stdout = f
		cmd.Stderr = f
		h.output = f
	}

	if err := cmd.Start(); err != nil {
		if h.output != nil {
			h.output.Close()
		}
		return errors.Wrapf(err, "starting %s", h.cfg.Binary)
	}
	h.cmd = cmd
	h.started = time.Now()

	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()
	return nil
}

func (h *Handle) PID() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *Handle) Started() time.Time { return h.started }

func (h *Handle) Config() Config { return h.cfg }

// ExitErr is the error returned by waiting on the process, such as the
// signal that ended it. It is nil while the process is running and after a
// clean exit.
func (h *Handle) ExitErr() error {
	if h.cmd == nil {
		return nil
	}
	select {
	case <-h.done:
		return h.waitErr
	default:
		return nil
	}
}

// Outcome is empty until Release has run.
func (h *Handle) Outcome() Outcome { return h.outcome }

// Release stops the server: a graceful termination request, a bounded wait,
// then a forced kill. Only the first call does anything; later calls return
// the first result. A slow shutdown is logged, not returned.
func (h *Handle) Release() error {
	h.releaseOnce.Do(func() {
		h.releaseErr = h.stop()
		if h.output != nil {
			h.output.Close()
		}
		h.launcher.forget(h)
	})
	return h.releaseErr
}

func (h *Handle) stop() error {
	if h.cmd == nil {
		return nil
	}
	h.log.Info("Terminating server")

	state := stateGraceful
	for {
		switch state {
		case stateGraceful:
			state = h.terminate()
		case stateForced:
			h.log.Warn("Server didn't terminate gracefully, forcing")
			if err := h.cmd.Process.Kill(); err != nil && !isProcessDone(err) {
				return errors.Wrapf(err, "killing server pid %d", h.PID())
			}
			<-h.done
			h.outcome = OutcomeForced
			state = stateStopped
		case stateStopped:
			h.log.WithField("outcome", h.outcome).WithField("exit", h.ExitErr()).Debug("Server stopped")
			return nil
		}
	}
}

// terminate sends the graceful signal and waits up to stopTimeout. It returns
// the next state of the stop sequence.
func (h *Handle) terminate() stopState {
	select {
	case <-h.done:
		h.outcome = OutcomeExited
		return stateStopped
	default:
	}

	if err := h.cmd.Process.Signal(terminateSignal); err != nil {
		if isProcessDone(err) {
			<-h.done
			h.outcome = OutcomeExited
			return stateStopped
		}
		h.log.WithError(err).Debug("Graceful termination unavailable")
		return stateForced
	}

	timer := time.NewTimer(h.stopTimeout)
	defer timer.Stop()
	select {
	case <-h.done:
		h.outcome = OutcomeGraceful
		return stateStopped
	case <-timer.C:
		return stateForced
	}
}
