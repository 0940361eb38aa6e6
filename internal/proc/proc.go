// Package proc runs and supervises the external processes the bridge
// depends on: the long-lived lock daemon and watcher, and short-lived
// helper commands used for queries and actions.
package proc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
)

// Runner spawns external processes and logs every invocation.
type Runner struct {
	log *slog.Logger
}

func NewRunner(log *slog.Logger) *Runner {
	return &Runner{log: log}
}

// Invoke runs name with args and waits for it to exit. It returns the
// captured standard output and true for any non-negative exit status,
// or nil and false when the process could not be spawned or was
// terminated by a signal. Failures are logged, never escalated.
func (r *Runner) Invoke(name string, args ...string) ([]byte, bool) {
	r.log.Debug("invoking command", "cmd", name, "args", args)
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() < 0 {
				r.log.Error("command terminated by signal", "cmd", name, "state", exitErr.ProcessState.String())
				return nil, false
			}
			r.log.Debug("command exited", "cmd", name, "exit", exitErr.ExitCode(), "output", strings.TrimSpace(string(out)))
			return out, true
		}
		r.log.Error("cannot invoke command", "cmd", name, "error", err)
		return nil, false
	}
	r.log.Debug("command exited", "cmd", name, "exit", 0, "output", strings.TrimSpace(string(out)))
	return out, true
}

// Start launches a long-lived child process.
func (r *Runner) Start(name string, args ...string) (*Handle, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("cannot start %s: %w", name, err)
	}
	r.log.Debug("started process", "cmd", name, "args", args, "pid", cmd.Process.Pid)
	return newHandle(name, cmd, r.log), nil
}

// StartPiped launches a long-lived child process with its standard
// output captured as a stream.
func (r *Runner) StartPiped(name string, args ...string) (*Handle, io.ReadCloser, error) {
	cmd := exec.Command(name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot pipe %s stdout: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("cannot start %s: %w", name, err)
	}
	r.log.Debug("started process", "cmd", name, "args", args, "pid", cmd.Process.Pid)
	return newHandle(name, cmd, r.log), stdout, nil
}

// Handle is an exclusive reference to a supervised child process.
type Handle struct {
	name string
	cmd  *exec.Cmd
	done chan struct{}
}

func newHandle(name string, cmd *exec.Cmd, log *slog.Logger) *Handle {
	h := &Handle{name: name, cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		log.Debug("process exited", "cmd", name, "pid", cmd.Process.Pid, "error", err)
		close(h.done)
	}()
	return h
}

// Alive reports whether the process has not yet been reaped.
func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Terminate requests termination and returns without waiting.
func (h *Handle) Terminate() {
	if h.Alive() {
		h.cmd.Process.Signal(syscall.SIGTERM)
	}
}
