package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"cpuscale.dev/cli/internal/core/domain"
	"cpuscale.dev/cli/internal/core/ports"
	"cpuscale.dev/cli/internal/infrastructure/snapshot"
)

// callLog records the order of calls across the fake collaborators
type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...interface{}) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) indexOf(call string) int {
	for i, c := range l.calls {
		if c == call {
			return i
		}
	}
	return -1
}

func (l *callLog) count(call string) int {
	n := 0
	for _, c := range l.calls {
		if c == call {
			n++
		}
	}
	return n
}

type setCall struct {
	Governor domain.Governor
	Scope    domain.Scope
}

// fakeControl is a scripted ports.GovernorControl
type fakeControl struct {
	log *callLog

	available    []string
	availableErr error
	current      []string
	currentErr   error
	setErr       error

	availableCalls int
	sets           []setCall
}

func newFakeControl(log *callLog, available []string, current []string) *fakeControl {
	return &fakeControl{log: log, available: available, current: current}
}

func (f *fakeControl) AvailableGovernors(ctx context.Context) ([]string, error) {
	f.availableCalls++
	f.log.add("available")
	return f.available, f.availableErr
}

func (f *fakeControl) CurrentGovernors(ctx context.Context) ([]string, error) {
	f.log.add("current")
	return f.current, f.currentErr
}

func (f *fakeControl) SetGovernor(ctx context.Context, governor domain.Governor, scope domain.Scope) error {
	f.log.add("set %s %s", governor, scope)
	if f.setErr != nil {
		return f.setErr
	}
	f.sets = append(f.sets, setCall{Governor: governor, Scope: scope})
	// keep the fake hardware consistent with what was applied
	if scope.IsAll() {
		for i := range f.current {
			f.current[i] = governor.String()
		}
	} else if scope.CoreIndex() < len(f.current) {
		f.current[scope.CoreIndex()] = governor.String()
	}
	return nil
}

// recordingRepo wraps the real JSON repository and logs each call after it completes
type recordingRepo struct {
	log   *callLog
	inner ports.SnapshotRepository
	loads int
}

func newRecordingRepo(log *callLog) *recordingRepo {
	return &recordingRepo{log: log, inner: snapshot.NewJSONRepository()}
}

func (r *recordingRepo) Save(ctx context.Context, s domain.Snapshot, path string) error {
	err := r.inner.Save(ctx, s, path)
	r.log.add("save done")
	return err
}

func (r *recordingRepo) Load(ctx context.Context, path string) (domain.Snapshot, error) {
	r.loads++
	r.log.add("load")
	return r.inner.Load(ctx, path)
}

func (r *recordingRepo) Exists(path string) (bool, error) {
	r.log.add("exists")
	return r.inner.Exists(path)
}

// harness wires a controller to fakes
type harness struct {
	log        *callLog
	control    *fakeControl
	repo       *recordingRepo
	logs       *observer.ObservedLogs
	controller *Controller
	path       string
}

func newHarness(path string, available []string, current []string) *harness {
	log := &callLog{}
	control := newFakeControl(log, available, current)
	repo := newRecordingRepo(log)
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	catalog := NewCatalog(control, logger)
	store := NewSettingsStore(control, repo, logger)

	return &harness{
		log:        log,
		control:    control,
		repo:       repo,
		logs:       logs,
		controller: NewController(catalog, store, control, path, logger),
		path:       path,
	}
}

func governorPtr(g domain.Governor) *domain.Governor {
	return &g
}
