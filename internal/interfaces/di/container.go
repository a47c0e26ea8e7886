package di

import (
	"fmt"

	"go.uber.org/zap"

	"cpuscale.dev/cli/internal/application/services"
	"cpuscale.dev/cli/internal/core/domain"
	"cpuscale.dev/cli/internal/core/ports"
	"cpuscale.dev/cli/internal/infrastructure/config"
	"cpuscale.dev/cli/internal/infrastructure/cpupower"
	"cpuscale.dev/cli/internal/infrastructure/logging"
	"cpuscale.dev/cli/internal/infrastructure/process"
	"cpuscale.dev/cli/internal/infrastructure/snapshot"
	"cpuscale.dev/cli/internal/infrastructure/sysfs"
	"cpuscale.dev/cli/internal/interfaces/cli"
)

// NewCLIContainer loads configuration, applies flag overrides and wires
// every component the CLI commands need
func NewCLIContainer(opts cli.BuildOptions) (*cli.CLIContainer, error) {
	loader := config.NewUnifiedLoader(opts.ConfigPath)

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, opts)

	if err := loader.Validate(cfg); err != nil {
		return nil, err
	}

	return newContainer(cfg, opts)
}

// applyOverrides lets command-line flags win over file and environment values
func applyOverrides(cfg *config.Config, opts cli.BuildOptions) {
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.SnapshotPath != "" {
		cfg.SnapshotPath = opts.SnapshotPath
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
}

func newContainer(cfg *config.Config, opts cli.BuildOptions) (*cli.CLIContainer, error) {
	logger, _, err := logging.NewConsoleLogger(logging.Options{
		Level:  cfg.LogLevel,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}

	control, err := newGovernorControl(cfg, logger)
	if err != nil {
		return nil, err
	}

	snapshotPath := cfg.SnapshotPath
	if snapshotPath == "" {
		snapshotPath, err = snapshot.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
		}
	}

	catalog := services.NewCatalog(control, logger)
	store := services.NewSettingsStore(control, snapshot.NewJSONRepository(), logger)
	controller := services.NewController(catalog, store, control, snapshotPath, logger)

	logger.Debug("container ready",
		zap.String("backend", cfg.Backend),
		zap.String("snapshot", snapshotPath))

	return &cli.CLIContainer{
		Config:     cfg,
		Logger:     logger,
		Catalog:    catalog,
		Store:      store,
		Controller: controller,
	}, nil
}

// newGovernorControl selects the backend that talks to the hardware
func newGovernorControl(cfg *config.Config, logger *zap.Logger) (ports.GovernorControl, error) {
	switch cfg.Backend {
	case config.BackendCpupower:
		return cpupower.NewControl(process.NewExecutor(logger), cpupower.Options{
			UseSudo:      cfg.UseSudo,
			SudoPath:     cfg.SudoPath,
			CpupowerPath: cfg.CpupowerPath,
		}), nil
	case config.BackendSysfs:
		return sysfs.NewControl(cfg.SysfsRoot), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", domain.ErrConfig, cfg.Backend)
	}
}
