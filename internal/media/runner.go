package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultWaitDelay is how long a cancelled ffmpeg gets to exit after SIGINT
// before it is killed.
const DefaultWaitDelay = 5 * time.Second

// maxLineBytes caps a single forwarded line. Longer runs are split.
const maxLineBytes = 1 << 20

// LineFunc receives one line of ffmpeg's combined stdout/stderr.
type LineFunc func(line string)

// Runner executes a built command and blocks until it exits.
type Runner interface {
	// Run returns nil only when the process exits with code 0. Failures are
	// *SpawnError, *ExitError or *InterruptedError.
	Run(ctx context.Context, spec CommandSpec, onLine LineFunc) error
}

// ExecRunner runs commands as child processes via os/exec.
type ExecRunner struct {
	waitDelay time.Duration
}

// RunnerOption configures an ExecRunner.
type RunnerOption func(*ExecRunner)

// WithWaitDelay sets the grace period between SIGINT and SIGKILL on cancellation.
func WithWaitDelay(d time.Duration) RunnerOption {
	return func(r *ExecRunner) {
		if d > 0 {
			r.waitDelay = d
		}
	}
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner(opts ...RunnerOption) *ExecRunner {
	r := &ExecRunner{waitDelay: DefaultWaitDelay}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts spec with stdout and stderr joined into a single pipe. The pipe is
// drained line by line on its own goroutine while Run waits for the process;
// both are joined before returning so a chatty ffmpeg can never block on a
// full pipe.
//
// When ctx ends first, ffmpeg is interrupted, then killed after the wait
// delay. Processes forked by ffmpeg itself are not tracked.
func (r *ExecRunner) Run(ctx context.Context, spec CommandSpec, onLine LineFunc) error {
	// #nosec G204 - binary and args are built by BuildOverlayCommand
	cmd := exec.CommandContext(ctx, spec.Binary, spec.Args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.waitDelay

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		_ = pr.Close()
		if ctx.Err() != nil {
			return &InterruptedError{Cause: ctx.Err()}
		}
		return &SpawnError{Binary: spec.Binary, Err: err}
	}

	var waitErr error
	var g errgroup.Group
	g.Go(func() error {
		drainLines(pr, onLine)
		return nil
	})
	g.Go(func() error {
		waitErr = cmd.Wait()
		// Wait returns only after os/exec has finished copying into pw.
		return pw.Close()
	})
	_ = g.Wait()

	return classifyWait(ctx, spec, waitErr)
}

func classifyWait(ctx context.Context, spec CommandSpec, waitErr error) error {
	if waitErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return &InterruptedError{Cause: ctx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return &ExitError{Args: spec.Argv(), Code: exitErr.ExitCode(), Err: waitErr}
	}
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		// Exit status was 0 but a descendant kept the pipe open.
		return nil
	}
	return &ExitError{Args: spec.Argv(), Code: -1, Err: waitErr}
}

// drainLines forwards every line read from r to onLine until EOF. Anything
// left after a read error is discarded so the writer never blocks.
func drainLines(r io.Reader, onLine LineFunc) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	scanner.Split(scanOutputLines)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || onLine == nil {
			continue
		}
		onLine(line)
	}
	if scanner.Err() != nil {
		_, _ = io.Copy(io.Discard, r)
	}
}

// scanOutputLines splits on '\n' or '\r' (ffmpeg redraws its progress line
// with carriage returns) and emits over-long lines in maxLineBytes pieces.
func scanOutputLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if len(data) >= maxLineBytes {
		return maxLineBytes, data[:maxLineBytes], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
