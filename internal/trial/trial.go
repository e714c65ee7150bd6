// Package trial runs the load-generation tool once and classifies the outcome.
package trial

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// excerptLen bounds the output kept on a parse failure.
const excerptLen = 500

// Tool describes the load generator invocation: ab -n <Requests> -c
// <Concurrency> -s <Timeout seconds> <target>.
type Tool struct {
	Path        string
	Requests    int
	Concurrency int
	Timeout     time.Duration
}

func DefaultTool() Tool {
	return Tool{
		Path:        "ab",
		Requests:    10000,
		Concurrency: 10,
		Timeout:     30 * time.Second,
	}
}

// Args returns the tool arguments for one run against target.
func (t Tool) Args(target string) []string {
	return []string{
		"-n", strconv.Itoa(t.Requests),
		"-c", strconv.Itoa(t.Concurrency),
		"-s", strconv.Itoa(t.timeoutSeconds()),
		target,
	}
}

// timeoutSeconds rounds the timeout up so a sub-second value never becomes
// -s 0.
func (t Tool) timeoutSeconds() int {
	return int((t.Timeout + time.Second - 1) / time.Second)
}

type FailureKind string

const (
	FailedStart FailureKind = "start"
	FailedExit  FailureKind = "exit"
	FailedParse FailureKind = "parse"
)

// Failure explains why a trial produced no elapsed time.
type Failure struct {
	Kind     FailureKind
	ExitCode int
	// Detail is stderr for FailedExit and an output excerpt for FailedParse.
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailedExit:
		return fmt.Sprintf("load tool exited with code %d: %s", f.ExitCode, strings.TrimSpace(f.Detail))
	case FailedParse:
		return fmt.Sprintf("could not extract time from output: %q", f.Detail)
	default:
		return fmt.Sprintf("could not run load tool: %v", f.Err)
	}
}

func (f *Failure) Unwrap() error { return f.Err }

// Result is the outcome of one trial. Failure is nil on success.
type Result struct {
	Elapsed float64
	Failure *Failure
	// Output is the captured stdout followed by stderr.
	Output string
}

func (r Result) OK() bool { return r.Failure == nil }

// Err returns the failure as an error, or nil.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

type Runner struct {
	tool    Tool
	command commandFunc
	log     *log.Entry
}

func NewRunner(tool Tool) *Runner {
	return &Runner{
		tool:    tool,
		command: exec.CommandContext,
		log:     log.WithField("component", "trial"),
	}
}

func (r *Runner) Tool() Tool { return r.tool }

// Run invokes the load tool against target and blocks until it exits. It
// never returns an error: every problem is reported as a failed Result.
func (r *Runner) Run(ctx context.Context, target string) Result {
	var stdout, stderr bytes.Buffer
	cmd := r.command(ctx, r.tool.Path, r.tool.Args(target)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.WithField("target", target).Debug("Running benchmark")
	err := cmd.Run()
	output := stdout.String() + stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Output: output, Failure: &Failure{
				Kind:     FailedExit,
				ExitCode: exitErr.ExitCode(),
				Detail:   stderr.String(),
				Err:      err,
			}}
		}
		return Result{Output: output, Failure: &Failure{Kind: FailedStart, ExitCode: -1, Err: err}}
	}

	elapsed, err := ParseElapsed(output)
	if err != nil {
		return Result{Output: output, Failure: &Failure{
			Kind:   FailedParse,
			Detail: excerpt(output),
			Err:    err,
		}}
	}
	return Result{Elapsed: elapsed, Output: output}
}

// excerpt cuts s to at most excerptLen bytes without splitting a rune.
func excerpt(s string) string {
	if len(s) <= excerptLen {
		return s
	}
	n := excerptLen
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
