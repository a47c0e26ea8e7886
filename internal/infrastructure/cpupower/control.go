// Package cpupower drives CPU governors through the cpupower utility, elevated with sudo.
package cpupower

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"cpuscale.dev/cli/internal/core/domain"
	"cpuscale.dev/cli/internal/core/ports"
)

// AvailableGovernorsPath is read to learn which governors the CPU supports
const AvailableGovernorsPath = "/sys/devices/system/cpu/cpu0/cpufreq/scaling_available_governors"

// Options configures how privileged commands are invoked
type Options struct {
	UseSudo       bool
	SudoPath      string
	CpupowerPath  string
	GovernorsPath string
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		UseSudo:       true,
		SudoPath:      "sudo",
		CpupowerPath:  "cpupower",
		GovernorsPath: AvailableGovernorsPath,
	}
}

// Control implements ports.GovernorControl on top of cpupower
type Control struct {
	runner ports.CommandRunner
	opts   Options
}

// NewControl creates a new cpupower backed governor control
func NewControl(runner ports.CommandRunner, opts Options) *Control {
	defaults := DefaultOptions()
	if opts.SudoPath == "" {
		opts.SudoPath = defaults.SudoPath
	}
	if opts.CpupowerPath == "" {
		opts.CpupowerPath = defaults.CpupowerPath
	}
	if opts.GovernorsPath == "" {
		opts.GovernorsPath = defaults.GovernorsPath
	}
	return &Control{runner: runner, opts: opts}
}

// AvailableGovernors reads the first line of scaling_available_governors
func (c *Control) AvailableGovernors(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "cat", c.opts.GovernorsPath)
	if err != nil {
		return nil, err
	}
	return parseAvailableGovernors(out)
}

// CurrentGovernors runs `cpupower frequency-info -o proc` and takes the last
// field of every line after the header
func (c *Control) CurrentGovernors(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, c.opts.CpupowerPath, "frequency-info", "-o", "proc")
	if err != nil {
		return nil, err
	}
	return parseProcOutput(out)
}

// SetGovernor runs `cpupower [--cpu N] frequency-set -g <governor>`.
// AllCores is passed to cpupower as one request.
func (c *Control) SetGovernor(ctx context.Context, governor domain.Governor, scope domain.Scope) error {
	args := []string{}
	if !scope.IsAll() {
		args = append(args, "--cpu", strconv.Itoa(scope.CoreIndex()))
	}
	args = append(args, "frequency-set", "-g", governor.String())

	_, err := c.run(ctx, c.opts.CpupowerPath, args...)
	return err
}

func (c *Control) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if c.opts.UseSudo {
		return c.runner.Run(ctx, c.opts.SudoPath, append([]string{name}, args...)...)
	}
	return c.runner.Run(ctx, name, args...)
}

func parseAvailableGovernors(out []byte) ([]string, error) {
	line, _, _ := strings.Cut(string(out), "\n")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no governors listed in %q", strings.TrimSpace(string(out)))
	}
	return fields, nil
}

// parseProcOutput parses the /proc/cpufreq style table printed by cpupower:
//
//	          minimum CPU frequency  -  maximum CPU frequency  -  governor
//	CPU  0       800000 kHz ( 22 %)  -    3600000 kHz (100 %)  -  powersave
func parseProcOutput(out []byte) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	var governors []string
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		governors = append(governors, fields[len(fields)-1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cpupower output: %w", err)
	}
	return governors, nil
}

var _ ports.GovernorControl = (*Control)(nil)
