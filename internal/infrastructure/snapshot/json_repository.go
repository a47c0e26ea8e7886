package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cpuscale.dev/cli/internal/core/domain"
	"cpuscale.dev/cli/internal/core/ports"
)

// DefaultFileName is the snapshot file name placed next to the executable
const DefaultFileName = "previous_cpu_scaling.json"

// JSONRepository stores snapshots as a JSON array of governor names
type JSONRepository struct {
	fileMode os.FileMode
}

// NewJSONRepository creates a new JSON file repository
func NewJSONRepository() *JSONRepository {
	return &JSONRepository{fileMode: 0644}
}

// DefaultPath returns the snapshot path alongside the running executable
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultFileName), nil
}

// Save writes the snapshot to a temporary file, syncs it and renames it over path
func (r *JSONRepository) Save(ctx context.Context, snapshot domain.Snapshot, path string) error {
	data, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Chmod(tmpPath, r.fileMode); err != nil {
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load reads and decodes the snapshot at path
func (r *JSONRepository) Load(ctx context.Context, path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", domain.ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w %s: %v", domain.ErrSnapshotMalformed, path, err)
	}
	if len(snapshot) == 0 {
		return nil, fmt.Errorf("%w %s: no cores recorded", domain.ErrSnapshotMalformed, path)
	}

	return snapshot, nil
}

// Exists reports whether a regular file exists at path
func (r *JSONRepository) Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("snapshot path %s is a directory", path)
	}
	return true, nil
}

var _ ports.SnapshotRepository = (*JSONRepository)(nil)
