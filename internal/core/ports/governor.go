package ports

import (
	"context"

	"cpuscale.dev/cli/internal/core/domain"
)

// GovernorControl is the privileged capability that talks to the cpufreq subsystem.
// Calls are synchronous and all-or-nothing; implementations must not retry.
type GovernorControl interface {
	// AvailableGovernors returns the governor names the hardware advertises
	AvailableGovernors(ctx context.Context) ([]string, error)

	// CurrentGovernors returns the active governor of every core, in ascending core order
	CurrentGovernors(ctx context.Context) ([]string, error)

	// SetGovernor sets governor on one core, or on all cores in a single request
	SetGovernor(ctx context.Context, governor domain.Governor, scope domain.Scope) error
}

// SnapshotRepository persists settings snapshots
type SnapshotRepository interface {
	// Save overwrites the snapshot at path
	Save(ctx context.Context, snapshot domain.Snapshot, path string) error

	// Load reads the snapshot at path. Returns domain.ErrSnapshotNotFound if absent.
	Load(ctx context.Context, path string) (domain.Snapshot, error)

	// Exists reports whether a snapshot is stored at path
	Exists(path string) (bool, error)
}

// CommandRunner runs an external command to completion and returns its standard output
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
