package config

import (
	"os"
	"path/filepath"
)

// Backend names
const (
	BackendCpupower = "cpupower"
	BackendSysfs    = "sysfs"
)

// Config holds the tool configuration
type Config struct {
	Backend      string `yaml:"backend"`       // cpupower, sysfs
	SnapshotPath string `yaml:"snapshot_path"` // empty means next to the executable
	UseSudo      bool   `yaml:"use_sudo"`      // cpupower backend only
	SudoPath     string `yaml:"sudo_path"`
	CpupowerPath string `yaml:"cpupower_path"`
	SysfsRoot    string `yaml:"sysfs_root"` // sysfs backend only
	LogLevel     string `yaml:"log_level"`  // debug, info, warn, error
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Backend:      BackendCpupower,
		SnapshotPath: "",
		UseSudo:      true,
		SudoPath:     "sudo",
		CpupowerPath: "cpupower",
		SysfsRoot:    "/sys",
		LogLevel:     "info",
	}
}

// DefaultFilePath returns the user config file location ($XDG_CONFIG_HOME/cpuscale/config.yaml)
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cpuscale", "config.yaml")
}
