package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names
const (
	EnvConfigPath   = "CPUSCALE_CONFIG"
	EnvBackend      = "CPUSCALE_BACKEND"
	EnvSnapshotPath = "CPUSCALE_SNAPSHOT_PATH"
	EnvUseSudo      = "CPUSCALE_USE_SUDO"
	EnvSudoPath     = "CPUSCALE_SUDO_PATH"
	EnvCpupowerPath = "CPUSCALE_CPUPOWER_PATH"
	EnvSysfsRoot    = "CPUSCALE_SYSFS_ROOT"
	EnvLogLevel     = "CPUSCALE_LOG_LEVEL"
)

// EnvLoader overlays CPUSCALE_* environment variables onto a configuration
type EnvLoader struct {
	lookup func(string) (string, bool)
}

// NewEnvLoader creates a loader reading the process environment
func NewEnvLoader() *EnvLoader { return &EnvLoader{lookup: os.LookupEnv} }

// Name returns the loader name
func (l *EnvLoader) Name() string { return "env" }

// Apply overrides every key that has a non-empty environment variable
func (l *EnvLoader) Apply(cfg *Config) error {
	setString := func(key string, field *string) {
		if v, ok := l.lookup(key); ok && v != "" {
			*field = v
		}
	}

	setString(EnvBackend, &cfg.Backend)
	setString(EnvSnapshotPath, &cfg.SnapshotPath)
	setString(EnvSudoPath, &cfg.SudoPath)
	setString(EnvCpupowerPath, &cfg.CpupowerPath)
	setString(EnvSysfsRoot, &cfg.SysfsRoot)
	setString(EnvLogLevel, &cfg.LogLevel)

	if v, ok := l.lookup(EnvUseSudo); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvUseSudo, v, err)
		}
		cfg.UseSudo = b
	}

	return nil
}
