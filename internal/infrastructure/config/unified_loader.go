package config

import (
	"fmt"

	"cpuscale.dev/cli/internal/core/domain"
)

// Source overlays one configuration source onto a configuration
type Source interface {
	Name() string
	Apply(cfg *Config) error
}

// UnifiedLoader builds the configuration from defaults, the config file and the
// environment, in increasing priority. CLI flags are applied by the caller.
type UnifiedLoader struct {
	sources   []Source
	validator *ConfigValidator
}

// NewUnifiedLoader creates a loader. An empty path falls back to CPUSCALE_CONFIG
// and then to the user config directory; only an explicit path must exist.
func NewUnifiedLoader(path string) *UnifiedLoader {
	env := NewEnvLoader()
	required := path != ""
	if path == "" {
		if v, ok := env.lookup(EnvConfigPath); ok && v != "" {
			path = v
			required = true
		} else {
			path = DefaultFilePath()
		}
	}

	return NewUnifiedLoaderWithSources(NewFileLoader(path, required), env)
}

// NewUnifiedLoaderWithSources creates a loader with explicit sources, lowest priority first
func NewUnifiedLoaderWithSources(sources ...Source) *UnifiedLoader {
	return &UnifiedLoader{
		sources:   sources,
		validator: NewConfigValidator(),
	}
}

// Load returns the merged configuration. It is not validated yet so that
// flag overrides can still be applied; call Validate afterwards.
func (l *UnifiedLoader) Load() (*Config, error) {
	cfg := Default()
	for _, source := range l.sources {
		if err := source.Apply(cfg); err != nil {
			return nil, fmt.Errorf("%w: %s source: %v", domain.ErrConfig, source.Name(), err)
		}
	}
	return cfg, nil
}

// Validate validates a configuration
func (l *UnifiedLoader) Validate(cfg *Config) error {
	return l.validator.Validate(cfg)
}
