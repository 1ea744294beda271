// Package runner executes external programs for detectors and the archive
// workflow.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

// ExecRunner implements domain.CommandRunner with os/exec.
type ExecRunner struct {
	logger  *log.Logger
	timeout time.Duration
}

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithLogger logs every command at debug level.
func WithLogger(l *log.Logger) Option {
	return func(r *ExecRunner) { r.logger = l }
}

// WithTimeout bounds every command. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *ExecRunner) { r.timeout = d }
}

func New(opts ...Option) *ExecRunner {
	r := &ExecRunner{}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ExitError carries the stderr of a failed command.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// Run starts cmd and waits for it. Stdout is returned unless cmd.Stdout is
// set.
func (r *ExecRunner) Run(ctx context.Context, c domain.Command) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	cmd.Stderr = &stderr
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}

	if r.logger != nil {
		r.logger.Debug("running command", "cmd", c.String(), "dir", c.Dir)
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, ctxErr)
		}
		exitErr := &ExitError{Command: c.Name, Err: err, Stderr: strings.TrimSpace(stderr.String())}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			exitErr.ExitCode = ee.ExitCode()
		}
		return nil, exitErr
	}
	return stdout.Bytes(), nil
}

// LookPath finds an executable on PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
