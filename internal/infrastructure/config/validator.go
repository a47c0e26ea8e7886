package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cpuscale.dev/cli/internal/core/domain"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// ConfigValidator validates configuration values
type ConfigValidator struct{}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// Validate checks the whole configuration. Errors wrap domain.ErrConfig.
func (v *ConfigValidator) Validate(cfg *Config) error {
	checks := []func(*Config) error{
		func(c *Config) error { return v.ValidateBackend(c.Backend) },
		func(c *Config) error { return v.ValidateLogLevel(c.LogLevel) },
		func(c *Config) error { return v.ValidateSnapshotPath(c.SnapshotPath) },
	}

	switch cfg.Backend {
	case BackendCpupower:
		checks = append(checks, func(c *Config) error { return v.ValidateCommand("cpupower_path", c.CpupowerPath) })
		if cfg.UseSudo {
			checks = append(checks, func(c *Config) error { return v.ValidateCommand("sudo_path", c.SudoPath) })
		}
	case BackendSysfs:
		checks = append(checks, func(c *Config) error { return v.ValidateSysfsRoot(c.SysfsRoot) })
	}

	for _, check := range checks {
		if err := check(cfg); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrConfig, err)
		}
	}
	return nil
}

// ValidateBackend validates the governor control backend name
func (v *ConfigValidator) ValidateBackend(backend string) error {
	switch backend {
	case BackendCpupower, BackendSysfs:
		return nil
	case "":
		return fmt.Errorf("backend cannot be empty")
	default:
		return fmt.Errorf("unsupported backend: %s (must be %s or %s)", backend, BackendCpupower, BackendSysfs)
	}
}

// ValidateLogLevel validates the log level
func (v *ConfigValidator) ValidateLogLevel(level string) error {
	for _, known := range logLevels {
		if level == known {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %q (must be one of: %s)", level, strings.Join(logLevels, ", "))
}

// ValidateSnapshotPath checks that an explicit snapshot path lives in an existing directory
func (v *ConfigValidator) ValidateSnapshotPath(path string) error {
	if path == "" {
		return nil
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("snapshot path %s is a directory", path)
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("snapshot directory does not exist: %s", dir)
		}
		return fmt.Errorf("cannot access snapshot directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot parent is not a directory: %s", dir)
	}
	return nil
}

// ValidateCommand validates a command name or path setting
func (v *ConfigValidator) ValidateCommand(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", key)
	}
	if strings.ContainsAny(value, " \t\n") {
		return fmt.Errorf("%s cannot contain whitespace", key)
	}
	return nil
}

// ValidateSysfsRoot validates the sysfs mount point
func (v *ConfigValidator) ValidateSysfsRoot(root string) error {
	if root == "" {
		return fmt.Errorf("sysfs_root cannot be empty")
	}
	if !filepath.IsAbs(root) {
		return fmt.Errorf("sysfs_root must be an absolute path: %s", root)
	}
	return nil
}
