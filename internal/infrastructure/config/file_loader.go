package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// FileLoader overlays a YAML config file onto a configuration
type FileLoader struct {
	path     string
	required bool
}

// NewFileLoader creates a loader for path. A missing file is only an error when required is set.
func NewFileLoader(path string, required bool) *FileLoader {
	return &FileLoader{path: path, required: required}
}

// Name returns the loader name
func (l *FileLoader) Name() string { return "file" }

// Path returns the file the loader reads
func (l *FileLoader) Path() string { return l.path }

// Apply reads the file and overrides every key it sets
func (l *FileLoader) Apply(cfg *Config) error {
	if l.path == "" {
		return nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !l.required {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", l.path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", l.path, err)
	}
	return nil
}
