package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/jo-hoe/scribed/internal/common"
)

// Classification tags how a child process run concluded.
type Classification string

const (
	ClassOK          Classification = "ok"
	ClassNonZeroExit Classification = "nonzero_exit"
	ClassTimeout     Classification = "timeout"
	ClassOverflow    Classification = "output_overflow"
)

// Outcome is the tagged result of running one CommandSpec.
type Outcome struct {
	Class    Classification
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error // start/wait error for non-exit failures
}

// Runner executes commands under a wall-clock timeout and a combined cap
// on captured stdout+stderr.
type Runner struct {
	Timeout    time.Duration
	MaxCapture int64
	Log        *slog.Logger
}

// NewRunner creates a runner; zero values fall back to the policy
// defaults (10 minute timeout, 10 MiB capture).
func NewRunner(timeout time.Duration, maxCapture int64, log *slog.Logger) *Runner {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	if maxCapture <= 0 {
		maxCapture = common.DefaultMaxCaptureBytes
	}
	return &Runner{Timeout: timeout, MaxCapture: maxCapture, Log: log}
}

// Run executes spec as a child process. The timeout is derived from ctx,
// so client disconnects propagate and terminate the child. Exceeding the
// timeout or the capture cap kills the child; neither blocks the caller
// past the bound.
func (r *Runner) Run(ctx context.Context, spec CommandSpec) Outcome {
	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Runtime, spec.Args...)
	capture := &captureState{budget: r.MaxCapture, cancel: cancel}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = capture.writer(&stdout)
	cmd.Stderr = capture.writer(&stderr)
	// Bound the post-kill wait so stuck pipe readers cannot hang Wait.
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()

	out := Outcome{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	switch {
	case capture.overflowed():
		out.Class = ClassOverflow
		out.ExitCode = -1
		out.Err = err
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		out.Class = ClassTimeout
		out.ExitCode = -1
		out.Err = err
	case err == nil:
		out.Class = ClassOK
		if out.Stderr != "" && r.Log != nil {
			// Well-behaved engines report progress on stderr.
			r.Log.Debug("engine stderr on success", "stderr", out.Stderr)
		}
	default:
		out.Class = ClassNonZeroExit
		out.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		}
		out.Err = err
	}
	return out
}

// captureState shares one byte budget between the stdout and stderr
// writers. Exhausting it cancels the run context, killing the child.
type captureState struct {
	mu       sync.Mutex
	budget   int64
	exceeded bool
	cancel   context.CancelFunc
}

func (c *captureState) overflowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exceeded
}

func (c *captureState) writer(buf *bytes.Buffer) *capWriter {
	return &capWriter{state: c, buf: buf}
}

type capWriter struct {
	state *captureState
	buf   *bytes.Buffer
}

// Write stores up to the remaining budget and silently discards the rest
// so the Wait error reflects the kill, not a pipe failure.
func (w *capWriter) Write(p []byte) (int, error) {
	w.state.mu.Lock()
	defer w.state.mu.Unlock()
	n := int64(len(p))
	if w.state.budget >= n {
		w.state.budget -= n
		w.buf.Write(p)
		return len(p), nil
	}
	if w.state.budget > 0 {
		w.buf.Write(p[:w.state.budget])
		w.state.budget = 0
	}
	if !w.state.exceeded {
		w.state.exceeded = true
		w.state.cancel()
	}
	return len(p), nil
}
