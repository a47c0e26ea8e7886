package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cpuscale.dev/cli/internal/core/domain"
	"cpuscale.dev/cli/internal/core/ports"
)

// SettingsStore captures the per-core governor state and persists it as a snapshot
type SettingsStore struct {
	control ports.GovernorControl
	repo    ports.SnapshotRepository
	logger  *zap.Logger
}

// NewSettingsStore creates a new settings store
func NewSettingsStore(control ports.GovernorControl, repo ports.SnapshotRepository, logger *zap.Logger) *SettingsStore {
	return &SettingsStore{
		control: control,
		repo:    repo,
		logger:  logger,
	}
}

// ReadCurrent returns the active governor of every core, ordered by core index
func (s *SettingsStore) ReadCurrent(ctx context.Context) (domain.Snapshot, error) {
	names, err := s.control.CurrentGovernors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInconsistentState, err)
	}

	snapshot, err := domain.NewSnapshot(names)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("read current settings", zap.Int("cores", snapshot.Cores()))
	return snapshot, nil
}

// Save overwrites the snapshot file at path
func (s *SettingsStore) Save(ctx context.Context, snapshot domain.Snapshot, path string) error {
	s.logger.Sugar().Infof("saving current scaling settings to file %s", path)
	if err := s.repo.Save(ctx, snapshot, path); err != nil {
		return fmt.Errorf("failed to save settings to %s: %w", path, err)
	}
	return nil
}

// Load reads the snapshot stored at path. Entries are not checked against
// the supported governors here; that happens per entry when they are applied.
func (s *SettingsStore) Load(ctx context.Context, path string) (domain.Snapshot, error) {
	snapshot, err := s.repo.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded settings snapshot", zap.String("path", path), zap.Int("cores", snapshot.Cores()))
	return snapshot, nil
}

// Exists reports whether a snapshot is stored at path
func (s *SettingsStore) Exists(path string) (bool, error) {
	return s.repo.Exists(path)
}
