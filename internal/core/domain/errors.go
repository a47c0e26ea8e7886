package domain

import "errors"

// Error kinds. Every failure is wrapped around one of these and matched with errors.Is.
var (
	ErrUsage               = errors.New("invalid usage")
	ErrConfig              = errors.New("invalid configuration")
	ErrHardwareQuery       = errors.New("failed to query supported governors")
	ErrUnsupportedGovernor = errors.New("governor not supported by CPU")
	ErrInconsistentState   = errors.New("inconsistent per-core governor report")
	ErrSnapshotNotFound    = errors.New("no previous settings found")
	ErrSnapshotMalformed   = errors.New("malformed settings snapshot")
	ErrApply               = errors.New("failed to set governor")
)
