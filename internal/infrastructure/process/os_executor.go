package process

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"cpuscale.dev/cli/internal/core/ports"
)

// Executor runs external commands synchronously and captures their output.
// There is no timeout: a hung command blocks until ctx is cancelled.
// Commands inherit the working directory and environment of this process.
type Executor struct {
	logger *zap.Logger
}

// NewExecutor creates a new process executor
func NewExecutor(logger *zap.Logger) *Executor {
	return &Executor{logger: logger}
}

// Run executes name with args and returns its standard output
func (e *Executor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	execCmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	e.logger.Debug("running command", zap.String("command", commandLine(name, args)))

	if err := execCmd.Run(); err != nil {
		return stdout.Bytes(), &CommandError{
			Command:  commandLine(name, args),
			ExitCode: exitCode(err),
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}

	return stdout.Bytes(), nil
}

// CommandError describes a command that failed to start or exited non-zero
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
	if e.Stderr != "" {
		msg += ": " + firstLine(e.Stderr)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func exitCode(err error) int {
	if exitError, ok := err.(*exec.ExitError); ok {
		return exitError.ExitCode()
	}
	return -1
}

func commandLine(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

var _ ports.CommandRunner = (*Executor)(nil)
