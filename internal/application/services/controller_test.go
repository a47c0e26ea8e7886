package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"pgregory.net/rapid"

	"cpuscale.dev/cli/internal/core/domain"
	"cpuscale.dev/cli/internal/infrastructure/snapshot"
)

var allNames = []string{"performance", "powersave", "userspace", "ondemand", "conservative", "schedutil"}

func snapshotPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), snapshot.DefaultFileName)
}

func writeSnapshot(t *testing.T, path string, s domain.Snapshot) {
	t.Helper()
	require.NoError(t, snapshot.NewJSONRepository().Save(context.Background(), s, path))
}

func readSnapshot(t *testing.T, path string) domain.Snapshot {
	t.Helper()
	s, err := snapshot.NewJSONRepository().Load(context.Background(), path)
	require.NoError(t, err)
	return s
}

// TestController_Apply_ValidationGate tests that unsupported governors never reach the capability
func TestController_Apply_ValidationGate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		supported := rapid.SliceOfNDistinct(rapid.SampledFrom(allNames), 1, 5, rapid.ID[string]).Draw(t, "supported")
		set, _ := domain.ParseGovernorSet(supported)

		var missing []domain.Governor
		for _, g := range domain.AllGovernors() {
			if !set.Contains(g) {
				missing = append(missing, g)
			}
		}
		governor := rapid.SampledFrom(missing).Draw(t, "governor")
		allCores := rapid.Bool().Draw(t, "allCores")
		scope := domain.Core(rapid.IntRange(0, 63).Draw(t, "core"))
		if allCores {
			scope = domain.AllCores
		}

		h := newHarness("/nonexistent/snapshot.json", supported, []string{"powersave"})
		err := h.controller.Apply(context.Background(), governor, scope)

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUnsupportedGovernor))
		assert.Empty(t, h.control.sets, "no set call may be issued")
	})
}

func TestController_Apply_SingleAndAllCores(t *testing.T) {
	h := newHarness(snapshotPath(t), allNames, []string{"powersave", "powersave"})
	ctx := context.Background()

	require.NoError(t, h.controller.Apply(ctx, domain.GovernorOndemand, domain.Core(1)))
	require.NoError(t, h.controller.Apply(ctx, domain.GovernorSchedutil, domain.AllCores))

	assert.Equal(t, []setCall{
		{Governor: domain.GovernorOndemand, Scope: domain.Core(1)},
		{Governor: domain.GovernorSchedutil, Scope: domain.AllCores},
	}, h.control.sets)
	assert.Equal(t, 2, h.control.availableCalls, "support is re-queried on every apply")

	messages := h.logs.FilterMessage("set CPU 1 to: ondemand")
	assert.Equal(t, 1, messages.Len())
	assert.Equal(t, 1, h.logs.FilterMessage("set all CPUs to mode schedutil").Len())
}

func TestController_Apply_CapabilityFailureIsApplyError(t *testing.T) {
	h := newHarness(snapshotPath(t), allNames, []string{"powersave"})
	h.control.setErr = errors.New("sudo: a password is required")

	err := h.controller.Apply(context.Background(), domain.GovernorPerformance, domain.AllCores)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrApply))
	assert.Contains(t, err.Error(), "sudo: a password is required")
	assert.Equal(t, 1, h.log.count("set performance all CPUs"), "no retry")
}

func TestController_Apply_NegativeCore(t *testing.T) {
	h := newHarness(snapshotPath(t), allNames, []string{"powersave"})

	err := h.controller.Apply(context.Background(), domain.GovernorPerformance, domain.Core(-1))

	assert.True(t, errors.Is(err, domain.ErrUsage))
	assert.Zero(t, h.control.availableCalls)
}

func TestController_Apply_HardwareQueryFailure(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		err       error
	}{
		{name: "capability_error", err: errors.New("cat: No such file or directory")},
		{name: "empty_list", available: []string{}},
		{name: "only_vendor_governors", available: []string{"interactive", "sched"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(snapshotPath(t), tt.available, []string{"powersave"})
			h.control.availableErr = tt.err

			err := h.controller.Apply(context.Background(), domain.GovernorPerformance, domain.AllCores)

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrHardwareQuery))
			assert.Empty(t, h.control.sets)
		})
	}
}

// TestController_Disable_SnapshotBeforeApply tests that the snapshot is durable before any core changes
func TestController_Disable_SnapshotBeforeApply(t *testing.T) {
	path := snapshotPath(t)
	h := newHarness(path, allNames, []string{"powersave", "ondemand", "schedutil"})

	require.NoError(t, h.controller.Disable(context.Background(), DisableOptions{}))

	saved := h.log.indexOf("save done")
	applied := h.log.indexOf("set performance all CPUs")
	require.NotEqual(t, -1, saved)
	require.NotEqual(t, -1, applied)
	assert.Less(t, saved, applied)

	assert.Equal(t, domain.Snapshot{domain.GovernorPowersave, domain.GovernorOndemand, domain.GovernorSchedutil}, readSnapshot(t, path))
	assert.Equal(t, []setCall{{Governor: domain.GovernorPerformance, Scope: domain.AllCores}}, h.control.sets)
	assert.Equal(t, 1, h.logs.FilterMessage("saving current scaling settings to file "+path).Len())
}

func TestController_Disable_SaveFailureLeavesCoresAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", snapshot.DefaultFileName)
	h := newHarness(path, allNames, []string{"powersave"})

	err := h.controller.Disable(context.Background(), DisableOptions{})

	require.Error(t, err)
	assert.Empty(t, h.control.sets)
}

func TestController_Disable_InconsistentState(t *testing.T) {
	tests := []struct {
		name    string
		current []string
		err     error
	}{
		{name: "no_cores", current: []string{}},
		{name: "malformed_token", current: []string{"performance", "%)"}},
		{name: "capability_error", err: errors.New("cpupower: command not found")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := snapshotPath(t)
			h := newHarness(path, allNames, tt.current)
			h.control.currentErr = tt.err

			err := h.controller.Disable(context.Background(), DisableOptions{})

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInconsistentState))
			assert.Empty(t, h.control.sets)
			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr), "no snapshot may be written")
		})
	}
}

func TestController_Disable_RepeatKeepsExistingSnapshot(t *testing.T) {
	path := snapshotPath(t)
	original := domain.Snapshot{domain.GovernorPowersave, domain.GovernorOndemand}
	writeSnapshot(t, path, original)
	h := newHarness(path, allNames, []string{"performance", "performance"})

	require.NoError(t, h.controller.Disable(context.Background(), DisableOptions{}))

	assert.Equal(t, original, readSnapshot(t, path))
	assert.Equal(t, -1, h.log.indexOf("save done"))
	assert.Equal(t, []setCall{{Governor: domain.GovernorPerformance, Scope: domain.AllCores}}, h.control.sets)
	warnings := h.logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1, "one warning is logged")
	assert.Equal(t, "all cores already at performance, keeping existing settings in "+path+" (use --force to overwrite)", warnings[0].Message)
}

func TestController_Disable_ForceOverwrites(t *testing.T) {
	path := snapshotPath(t)
	writeSnapshot(t, path, domain.Snapshot{domain.GovernorPowersave, domain.GovernorOndemand})
	h := newHarness(path, allNames, []string{"performance", "performance"})

	require.NoError(t, h.controller.Disable(context.Background(), DisableOptions{Force: true}))

	assert.Equal(t, domain.Snapshot{domain.GovernorPerformance, domain.GovernorPerformance}, readSnapshot(t, path))
}

// TestController_Enable_RestoreFidelity tests that a snapshot is replayed core by core in order
func TestController_Enable_RestoreFidelity(t *testing.T) {
	path := snapshotPath(t)
	writeSnapshot(t, path, domain.Snapshot{domain.GovernorPerformance, domain.GovernorPowersave, domain.GovernorOndemand})
	h := newHarness(path, allNames, []string{"performance", "performance", "performance"})

	require.NoError(t, h.controller.Enable(context.Background(), nil))

	assert.Equal(t, []setCall{
		{Governor: domain.GovernorPerformance, Scope: domain.Core(0)},
		{Governor: domain.GovernorPowersave, Scope: domain.Core(1)},
		{Governor: domain.GovernorOndemand, Scope: domain.Core(2)},
	}, h.control.sets)
	assert.Equal(t, 3, h.control.availableCalls, "every entry is validated when applied")
}

// TestController_Enable_ExplicitModeBypassesSnapshot tests that a mode never reads the snapshot
func TestController_Enable_ExplicitModeBypassesSnapshot(t *testing.T) {
	path := snapshotPath(t)
	writeSnapshot(t, path, domain.Snapshot{domain.GovernorPowersave})
	h := newHarness(path, allNames, []string{"performance"})

	require.NoError(t, h.controller.Enable(context.Background(), governorPtr(domain.GovernorSchedutil)))

	assert.Zero(t, h.repo.loads)
	assert.Equal(t, []setCall{{Governor: domain.GovernorSchedutil, Scope: domain.AllCores}}, h.control.sets)
}

func TestController_Enable_ExplicitModeUnsupported(t *testing.T) {
	h := newHarness(snapshotPath(t), []string{"performance", "powersave"}, []string{"performance"})

	err := h.controller.Enable(context.Background(), governorPtr(domain.GovernorSchedutil))

	assert.True(t, errors.Is(err, domain.ErrUnsupportedGovernor))
	assert.Empty(t, h.control.sets)
}

// TestController_Enable_MissingSnapshot tests that restore without a snapshot applies nothing
func TestController_Enable_MissingSnapshot(t *testing.T) {
	h := newHarness(snapshotPath(t), allNames, []string{"performance"})

	err := h.controller.Enable(context.Background(), nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSnapshotNotFound))
	assert.Empty(t, h.control.sets)
}

func TestController_Enable_RestoreStopsAtUnsupportedEntry(t *testing.T) {
	path := snapshotPath(t)
	writeSnapshot(t, path, domain.Snapshot{domain.GovernorPowersave, domain.GovernorSchedutil, domain.GovernorPowersave})
	h := newHarness(path, []string{"performance", "powersave"}, []string{"performance", "performance", "performance"})

	err := h.controller.Enable(context.Background(), nil)

	assert.True(t, errors.Is(err, domain.ErrUnsupportedGovernor))
	assert.Equal(t, []setCall{{Governor: domain.GovernorPowersave, Scope: domain.Core(0)}}, h.control.sets,
		"cores before the failing entry stay applied, nothing after it is attempted")
}

// TestController_Scenario_DisableThenEnable walks the two-core disable/enable cycle
func TestController_Scenario_DisableThenEnable(t *testing.T) {
	path := snapshotPath(t)
	h := newHarness(path, []string{"performance", "powersave"}, []string{"performance", "performance"})
	ctx := context.Background()

	require.NoError(t, h.controller.Disable(ctx, DisableOptions{}))
	assert.Equal(t, domain.Snapshot{domain.GovernorPerformance, domain.GovernorPerformance}, readSnapshot(t, path))
	assert.Equal(t, []setCall{{Governor: domain.GovernorPerformance, Scope: domain.AllCores}}, h.control.sets)

	h.control.sets = nil
	require.NoError(t, h.controller.Enable(ctx, nil))
	assert.Equal(t, []setCall{
		{Governor: domain.GovernorPerformance, Scope: domain.Core(0)},
		{Governor: domain.GovernorPerformance, Scope: domain.Core(1)},
	}, h.control.sets)
}

// TestController_PropertyBased_DisableEnableRestores tests that enable undoes disable for any starting state
func TestController_PropertyBased_DisableEnableRestores(t *testing.T) {
	dir := t.TempDir()

	rapid.Check(t, func(t *rapid.T) {
		start := rapid.SliceOfN(rapid.SampledFrom(allNames), 1, 64).Draw(t, "start")
		before := append([]string(nil), start...)
		path := filepath.Join(dir, snapshot.DefaultFileName)
		_ = os.Remove(path)

		h := newHarness(path, allNames, start)
		ctx := context.Background()

		require.NoError(t, h.controller.Disable(ctx, DisableOptions{}))
		for _, g := range h.control.current {
			assert.Equal(t, "performance", g)
		}

		require.NoError(t, h.controller.Enable(ctx, nil))
		assert.Equal(t, before, h.control.current)
	})
}
