package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cpuscale.dev/cli/internal/application/services"
	"cpuscale.dev/cli/internal/core/domain"
	"cpuscale.dev/cli/internal/infrastructure/config"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// CLIContainer holds all the dependencies for CLI commands
type CLIContainer struct {
	Config     *config.Config
	Logger     *zap.Logger
	Catalog    *services.Catalog
	Store      *services.SettingsStore
	Controller *services.Controller
}

// BuildOptions carries the global flags into container construction.
// Empty strings mean the flag was not set.
type BuildOptions struct {
	ConfigPath   string
	Backend      string
	SnapshotPath string
	LogLevel     string
	Stdout       io.Writer
	Stderr       io.Writer
}

// Builder creates the CLI container once flags are parsed
type Builder func(opts BuildOptions) (*CLIContainer, error)

// globalFlags holds the persistent flags shared by every command
type globalFlags struct {
	configPath   string
	backend      string
	snapshotPath string
	logLevel     string
	debug        bool
}

func (g *globalFlags) buildOptions(cmd *cobra.Command) BuildOptions {
	level := g.logLevel
	if g.debug {
		level = "debug"
	}
	return BuildOptions{
		ConfigPath:   g.configPath,
		Backend:      g.backend,
		SnapshotPath: g.snapshotPath,
		LogLevel:     level,
		Stdout:       cmd.OutOrStdout(),
		Stderr:       cmd.ErrOrStderr(),
	}
}

// NewRootCommand creates the cpuscale command. Run without a subcommand it
// disables or re-enables CPU frequency scaling.
func NewRootCommand(build Builder) *cobra.Command {
	globals := &globalFlags{}
	scaling := &ScalingFlags{}
	mode := &governorFlag{}

	var rootCmd = &cobra.Command{
		Use:   "cpuscale (--disable [--force] | --enable [--mode GOVERNOR])",
		Short: "Disable and re-enable CPU scaling on Linux, for eg: consistent code benchmarking",
		Long: `cpuscale locks every CPU core to the performance governor for benchmarking
and puts the previous per-core governors back afterwards.

--disable saves the current governor of every core next to the executable
(or to --snapshot) and then sets all cores to performance.

--enable restores the saved per-core governors, or with --mode sets every
core to the given governor without reading the saved settings.`,
		Example: `  cpuscale --disable
  cpuscale --enable
  cpuscale --enable --mode schedutil
  cpuscale status --watch`,
		Version:       Version,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			scaling.Mode = mode.value
			action, err := scaling.Action()
			if err != nil {
				return err
			}

			container, err := build(globals.buildOptions(cmd))
			if err != nil {
				return err
			}
			defer container.Logger.Sync() //nolint:errcheck

			return runScaling(cmd.Context(), container, action, scaling)
		},
	}

	// Set custom version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", domain.ErrUsage, err)
	})

	// Scaling flags
	rootCmd.Flags().BoolVar(&scaling.Enable, "enable", false, "Enable CPU scaling")
	rootCmd.Flags().BoolVar(&scaling.Disable, "disable", false, "Disable CPU scaling")
	rootCmd.Flags().Var(mode, "mode", modeUsage())
	rootCmd.Flags().BoolVar(&scaling.Force, "force", false, "With --disable, overwrite saved settings even if all cores already run performance")
	_ = rootCmd.RegisterFlagCompletionFunc("mode", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return domain.GovernorNames(), cobra.ShellCompDirectiveNoFileComp
	})

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&globals.configPath, "config", "", "Config file path (default is $XDG_CONFIG_HOME/cpuscale/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&globals.backend, "backend", "", "Governor control backend: cpupower or sysfs")
	rootCmd.PersistentFlags().StringVar(&globals.snapshotPath, "snapshot", "", "Settings snapshot file (default is previous_cpu_scaling.json next to the executable)")
	rootCmd.PersistentFlags().StringVar(&globals.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&globals.debug, "debug", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(NewStatusCommand(build, globals))

	return rootCmd
}

// noArgs rejects positional arguments as a usage error
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUsage, err)
	}
	return nil
}

// runScaling dispatches the selected workflow to the controller
func runScaling(ctx context.Context, container *CLIContainer, action Action, flags *ScalingFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch action {
	case ActionDisable:
		return container.Controller.Disable(ctx, services.DisableOptions{Force: flags.Force})
	case ActionEnable:
		return container.Controller.Enable(ctx, flags.Mode)
	default:
		return fmt.Errorf("%w: no action selected", domain.ErrUsage)
	}
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// ExitCode maps an error returned by a command to a process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrUsage):
		return 2
	default:
		return 1
	}
}

// Run executes the root command with args and returns the exit status.
// Errors are printed as a single line on stderr.
func Run(ctx context.Context, build Builder, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		// cobra falls back to os.Args for nil
		args = []string{}
	}
	rootCmd := NewRootCommand(build)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return ExitCode(err)
}

// Execute runs the CLI against os.Args and returns the process exit status
func Execute(ctx context.Context, build Builder) int {
	return Run(ctx, build, os.Args[1:], os.Stdout, os.Stderr)
}
