package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"cpuscale.dev/cli/internal/core/domain"
)

// StatusFlags holds command-line flags for the status command
type StatusFlags struct {
	Watch       bool
	RefreshRate time.Duration
}

// NewStatusCommand creates the status command
func NewStatusCommand(build Builder, globals *globalFlags) *cobra.Command {
	flags := &StatusFlags{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show supported governors, per-core governors and saved settings",
		Long: `Show the governors this CPU supports, the governor every core currently
runs, and whether settings saved by --disable are available to restore.

Scaling is reported as disabled when every core runs the performance governor.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.RefreshRate <= 0 {
				return fmt.Errorf("%w: --refresh must be positive", domain.ErrUsage)
			}

			container, err := build(globals.buildOptions(cmd))
			if err != nil {
				return err
			}
			defer container.Logger.Sync() //nolint:errcheck

			if flags.Watch {
				return runWatch(cmd, container, flags)
			}

			report, err := collectStatus(cmd.Context(), container)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatus(report))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&flags.Watch, "watch", "w", false, "Keep refreshing in an interactive view")
	cmd.Flags().DurationVar(&flags.RefreshRate, "refresh", 2*time.Second, "Refresh rate for --watch")

	return cmd
}

// statusReport is a point-in-time view of the machine and the saved settings
type statusReport struct {
	Supported     domain.GovernorSet
	Current       domain.Snapshot
	SnapshotPath  string
	Saved         domain.Snapshot
	SnapshotError error
	CollectedAt   time.Time
}

// ScalingDisabled reports whether every core runs the disable governor
func (r statusReport) ScalingDisabled() bool {
	return r.Current.AllAt(domain.DisableGovernor)
}

// collectStatus queries the hardware and the snapshot store
func collectStatus(ctx context.Context, container *CLIContainer) (statusReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	report := statusReport{
		SnapshotPath: container.Controller.SnapshotPath(),
		CollectedAt:  time.Now(),
	}

	supported, err := container.Catalog.SupportedGovernors(ctx)
	if err != nil {
		return report, err
	}
	report.Supported = supported

	current, err := container.Store.ReadCurrent(ctx)
	if err != nil {
		return report, err
	}
	report.Current = current

	saved, err := container.Store.Load(ctx, report.SnapshotPath)
	switch {
	case err == nil:
		report.Saved = saved
	case errors.Is(err, domain.ErrSnapshotNotFound):
	default:
		report.SnapshotError = err
	}

	return report, nil
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	disabledStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	enabledStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// renderStatus renders a status report for the terminal
func renderStatus(r statusReport) string {
	state := enabledStyle.Render("enabled")
	if r.ScalingDisabled() {
		state = disabledStyle.Render(fmt.Sprintf("disabled (all cores at %s)", domain.DisableGovernor))
	}

	supported := make([]string, 0, r.Supported.Len())
	for _, g := range r.Supported.Slice() {
		supported = append(supported, g.String())
	}

	lines := []string{
		titleStyle.Render("CPU scaling status"),
		labelStyle.Render("Scaling:   ") + state,
		labelStyle.Render("Supported: ") + strings.Join(supported, " "),
		labelStyle.Render("Snapshot:  ") + describeSnapshot(r),
		"",
		headerStyle.Render(fmt.Sprintf("%-5s │ %-13s │ %s", "CPU", "GOVERNOR", "SAVED")),
	}

	for core, g := range r.Current {
		saved := "-"
		if core < len(r.Saved) {
			saved = r.Saved[core].String()
		}
		lines = append(lines, fmt.Sprintf("%-5d │ %-13s │ %s", core, g, saved))
	}
	if len(r.Saved) > 0 && len(r.Saved) != len(r.Current) {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("saved settings cover %d cores, machine has %d", len(r.Saved), len(r.Current))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func describeSnapshot(r statusReport) string {
	switch {
	case r.SnapshotError != nil:
		return fmt.Sprintf("%s (unreadable: %v)", r.SnapshotPath, r.SnapshotError)
	case len(r.Saved) == 0:
		return fmt.Sprintf("%s (none saved)", r.SnapshotPath)
	default:
		return fmt.Sprintf("%s (%d cores saved)", r.SnapshotPath, len(r.Saved))
	}
}
