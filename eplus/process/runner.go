// Package process launches external engine executables and streams their
// output while they run.
package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eplus-sim/eplus-sim/eplus"
)

// Outcome is the result of a process that ran to completion.
// A non-zero ExitCode is a normal outcome, not an error: callers decide
// whether it is fatal.
type Outcome struct {
	ExitCode int // -1 when the process was killed by a signal
	Stderr   string
	Duration time.Duration
	TimedOut bool
}

// Success reports whether the process exited with code 0.
func (o *Outcome) Success() bool { return o.ExitCode == 0 }

// LineFunc receives each stdout line (without the trailing newline) as it
// is produced.
type LineFunc func(line string)

// Runner launches executables in a working directory.
type Runner struct {
	// Timeout kills the process group after the given duration. Zero means
	// no limit. A killed process is reported as a non-zero exit.
	Timeout time.Duration
}

// NewRunner creates a Runner with no timeout.
func NewRunner() *Runner {
	return &Runner{}
}

// Run starts command with args in workDir, forwards stdout lines to onLine,
// captures stderr, and blocks until the process exits.
//
// Errors:
//   - *eplus.LaunchError when the executable cannot be found or started
//   - *eplus.ProcessError when reading the output streams fails
//
// ctx is only consulted before launch; a running tool is never interrupted
// through ctx.
func (r *Runner) Run(ctx context.Context, command string, args []string, workDir string, onLine LineFunc) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if onLine == nil {
		onLine = func(string) {}
	}

	cmd := exec.Command(command, args...)
	cmd.Dir = workDir
	cmd.SysProcAttr = sysProcAttr()

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &eplus.LaunchError{Command: command, Err: err}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &eplus.LaunchError{Command: command, Err: err}
	}
	logrus.Debugf("started %s %v in %s (pid %d)", command, args, workDir, cmd.Process.Pid)

	var timedOut atomic.Bool
	var timer *time.Timer
	if r.Timeout > 0 {
		pid := cmd.Process.Pid
		timer = time.AfterFunc(r.Timeout, func() {
			timedOut.Store(true)
			if kerr := killGroup(pid); kerr != nil {
				logrus.Warnf("killing process group %d: %v", pid, kerr)
			}
		})
	}

	readErr := streamLines(stdout, onLine)
	waitErr := cmd.Wait()
	if timer != nil {
		timer.Stop()
	}

	outcome := &Outcome{
		Stderr:   stderr.String(),
		Duration: time.Since(start),
		TimedOut: timedOut.Load(),
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, &eplus.ProcessError{Command: command, ExitCode: -1, Stderr: outcome.Stderr,
				Reason: "waiting for process", Err: waitErr}
		}
		outcome.ExitCode = exitErr.ExitCode()
	}
	if readErr != nil {
		return nil, &eplus.ProcessError{Command: command, ExitCode: outcome.ExitCode, Stderr: outcome.Stderr,
			Reason: "reading stdout", Err: readErr}
	}
	return outcome, nil
}

// streamLines forwards r line by line until EOF. Lines longer than the
// scanner buffer are an error rather than silently split.
func streamLines(r io.Reader, onLine LineFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		onLine(string(bytes.TrimRight(scanner.Bytes(), "\r")))
	}
	if err := scanner.Err(); err != nil {
		// drain so the child never blocks on a full pipe
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}

// LookPath resolves command the way Run would, returning a LaunchError when
// it cannot be found.
func LookPath(command string) (string, error) {
	path, err := exec.LookPath(command)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return "", &eplus.LaunchError{Command: command, Err: fmt.Errorf("executable not found: %w", err)}
		}
		return "", &eplus.LaunchError{Command: command, Err: err}
	}
	return path, nil
}
