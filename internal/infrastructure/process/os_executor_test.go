package process

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecutor_RunCapturesStdout(t *testing.T) {
	requireShell(t)
	executor := NewExecutor(zap.NewNop())

	out, err := executor.Run(context.Background(), "sh", "-c", "printf 'performance powersave\\n'")
	require.NoError(t, err)
	assert.Equal(t, "performance powersave\n", string(out))
}

func TestExecutor_RunReportsExitCodeAndStderr(t *testing.T) {
	requireShell(t)
	executor := NewExecutor(zap.NewNop())

	_, err := executor.Run(context.Background(), "sh", "-c", "echo 'permission denied' >&2; exit 3")
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, "permission denied", cmdErr.Stderr)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Contains(t, err.Error(), "sh -c")
}

func TestExecutor_RunMissingBinary(t *testing.T) {
	executor := NewExecutor(zap.NewNop())

	_, err := executor.Run(context.Background(), "cpuscale-definitely-not-installed")
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, -1, cmdErr.ExitCode)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestExecutor_RunInheritsEnvironment(t *testing.T) {
	requireShell(t)
	t.Setenv("CPUSCALE_TEST_MARKER", "inherited")

	out, err := NewExecutor(zap.NewNop()).Run(context.Background(), "sh", "-c", "printf '%s' \"$CPUSCALE_TEST_MARKER\"")
	require.NoError(t, err)
	assert.Equal(t, "inherited", string(out))
}

func TestCommandError_FirstStderrLineOnly(t *testing.T) {
	err := &CommandError{Command: "cpupower frequency-set -g performance", Stderr: "line one\nline two", Err: errors.New("exit status 1")}
	assert.Equal(t, `command "cpupower frequency-set -g performance" failed: exit status 1: line one`, err.Error())
}
