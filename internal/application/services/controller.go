package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cpuscale.dev/cli/internal/core/domain"
	"cpuscale.dev/cli/internal/core/ports"
)

// DisableOptions tunes the disable workflow
type DisableOptions struct {
	// Force overwrites an existing snapshot even when every core already
	// runs the disable governor.
	Force bool
}

// Controller orchestrates the disable and enable workflows.
// It assumes a single instance runs against a machine at a time; nothing is locked.
type Controller struct {
	catalog      *Catalog
	store        *SettingsStore
	control      ports.GovernorControl
	snapshotPath string
	logger       *zap.Logger
}

// NewController creates a new governor controller
func NewController(catalog *Catalog, store *SettingsStore, control ports.GovernorControl, snapshotPath string, logger *zap.Logger) *Controller {
	return &Controller{
		catalog:      catalog,
		store:        store,
		control:      control,
		snapshotPath: snapshotPath,
		logger:       logger,
	}
}

// SnapshotPath returns the path the controller snapshots to and restores from
func (c *Controller) SnapshotPath() string {
	return c.snapshotPath
}

// Apply validates governor and sets it on the cores selected by scope
func (c *Controller) Apply(ctx context.Context, governor domain.Governor, scope domain.Scope) error {
	if err := scope.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUsage, err)
	}
	if err := c.catalog.Validate(ctx, governor); err != nil {
		return err
	}

	if scope.IsAll() {
		c.logger.Sugar().Infof("set all CPUs to mode %s", governor)
	} else {
		c.logger.Sugar().Infof("set CPU %d to: %s", scope.CoreIndex(), governor)
	}

	if err := c.control.SetGovernor(ctx, governor, scope); err != nil {
		return fmt.Errorf("%w %s on %s: %v", domain.ErrApply, governor, scope, err)
	}
	return nil
}

// Disable snapshots the current settings and then locks every core to the
// performance governor. The snapshot is written before any core is changed.
func (c *Controller) Disable(ctx context.Context, opts DisableOptions) error {
	c.logger.Info("disabling CPU scaling, locking all cores to max CPU frequency")

	current, err := c.store.ReadCurrent(ctx)
	if err != nil {
		return err
	}

	skip, err := c.keepExistingSnapshot(current, opts)
	if err != nil {
		return err
	}
	if !skip {
		if err := c.store.Save(ctx, current, c.snapshotPath); err != nil {
			return err
		}
	}

	return c.Apply(ctx, domain.DisableGovernor, domain.AllCores)
}

// keepExistingSnapshot guards against a repeated disable replacing the real
// pre-disable settings with an all-performance snapshot.
func (c *Controller) keepExistingSnapshot(current domain.Snapshot, opts DisableOptions) (bool, error) {
	if opts.Force || !current.AllAt(domain.DisableGovernor) {
		return false, nil
	}

	exists, err := c.store.Exists(c.snapshotPath)
	if err != nil {
		return false, fmt.Errorf("failed to check for existing snapshot: %w", err)
	}
	if exists {
		c.logger.Sugar().Warnf("all cores already at %s, keeping existing settings in %s (use --force to overwrite)",
			domain.DisableGovernor, c.snapshotPath)
	}
	return exists, nil
}

// Enable re-enables CPU scaling. With a mode every core is set to it; without
// one the snapshot is replayed core by core.
func (c *Controller) Enable(ctx context.Context, mode *domain.Governor) error {
	c.logger.Info("enabling CPU scaling")

	if mode != nil {
		return c.Apply(ctx, *mode, domain.AllCores)
	}

	c.logger.Info("recalling previous CPU core settings")
	return c.Restore(ctx)
}

// Restore replays the stored snapshot, one core at a time in index order
func (c *Controller) Restore(ctx context.Context) error {
	snapshot, err := c.store.Load(ctx, c.snapshotPath)
	if err != nil {
		return err
	}

	for core, governor := range snapshot {
		if err := c.Apply(ctx, governor, domain.Core(core)); err != nil {
			return err
		}
	}
	return nil
}
