package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fuzzbridge/echidna-mcp/internal/bus"
)

// ErrNotInstalled is returned when the requested executable cannot be
// found on PATH. Callers surface it as a configuration error rather than
// a run failure.
var ErrNotInstalled = errors.New("executable not installed")

// Spec describes a single subprocess invocation
type Spec struct {
	Command string
	Args    []string
	Dir     string
	Env     map[string]string
	Timeout time.Duration
}

// Result captures everything a caller needs to diagnose a finished run
type Result struct {
	RunID    string        `json:"run_id"`
	Command  string        `json:"command"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration_ns"`
	TimedOut bool          `json:"timed_out"`
}

// CommandLine returns the invocation as a single printable string
func (s Spec) CommandLine() string {
	return strings.Join(append([]string{s.Command}, s.Args...), " ")
}

// Runner spawns bounded subprocesses. Each invocation is independent;
// the runner holds no state between runs.
type Runner struct {
	logger         *logrus.Logger
	eventBus       *bus.EventBus
	defaultTimeout time.Duration
}

// NewRunner creates a subprocess runner. The event bus is optional.
func NewRunner(logger *logrus.Logger, eventBus *bus.EventBus, defaultTimeout time.Duration) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 5 * time.Minute
	}

	return &Runner{
		logger:         logger,
		eventBus:       eventBus,
		defaultTimeout: defaultTimeout,
	}
}

// CheckInstalled verifies the executable exists on PATH
func (r *Runner) CheckInstalled(command string) error {
	if _, err := exec.LookPath(command); err != nil {
		return fmt.Errorf("%w: %s", ErrNotInstalled, command)
	}
	return nil
}

// Run executes the spec and waits for completion or timeout. A non-zero
// exit or a timeout is reported through the Result, not the error; the
// error is reserved for processes that could not be started at all.
func (r *Runner) Run(ctx context.Context, spec Spec) (*Result, error) {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}

	runID := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}

	// Echidna forks crytic-compile and solc, and the capture path forks
	// node. The child gets its own process group and the timeout kills
	// the whole group; otherwise grandchildren survive the kill and hold
	// the output pipes open past the deadline.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if err == syscall.ESRCH {
			return os.ErrProcessDone
		}
		return err
	}
	// Backstop for descendants that left the group via setsid
	cmd.WaitDelay = 5 * time.Second

	cmd.Env = os.Environ()
	for key, value := range spec.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.WithFields(logrus.Fields{
		"runId":   runID,
		"timeout": timeout.String(),
	}).Infof("Running command: %s", spec.CommandLine())

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := &Result{
		RunID:    runID,
		Command:  spec.CommandLine(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
		TimedOut: ctx.Err() == context.DeadlineExceeded,
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case result.TimedOut:
			// The deadline killed the process group; report as timeout
			// with whatever output was captured
			result.ExitCode = -1
			r.logger.WithField("runId", runID).Warnf("Command timed out after %s: %s", timeout, spec.CommandLine())
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
			r.logger.WithField("runId", runID).Infof("Command exited with code %d", result.ExitCode)
		default:
			// The process never started (missing binary, bad dir)
			return nil, fmt.Errorf("failed to start %s: %w", spec.Command, err)
		}
	}

	r.publishOutput(result)

	return result, nil
}

func (r *Runner) publishOutput(result *Result) {
	if r.eventBus == nil {
		return
	}

	if result.Stdout != "" {
		r.eventBus.PublishRunOutput(result.RunID, result.Command, "stdout", result.Stdout)
	}
	if result.Stderr != "" {
		r.eventBus.PublishRunOutput(result.RunID, result.Command, "stderr", result.Stderr)
	}
}
