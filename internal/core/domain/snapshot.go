package domain

import (
	"fmt"
	"strconv"
)

// Snapshot is the governor of every core at one point in time.
// Position i holds the governor of core i.
type Snapshot []Governor

// NewSnapshot parses raw per-core governor names, in ascending core order
func NewSnapshot(names []string) (Snapshot, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no per-core governor entries reported", ErrInconsistentState)
	}

	snapshot := make(Snapshot, len(names))
	for i, name := range names {
		g, err := ParseGovernor(name)
		if err != nil {
			return nil, fmt.Errorf("%w: core %d: %v", ErrInconsistentState, i, err)
		}
		snapshot[i] = g
	}
	return snapshot, nil
}

// Cores returns the number of cores covered by the snapshot
func (s Snapshot) Cores() int {
	return len(s)
}

// AllAt reports whether every core runs governor g. An empty snapshot reports false.
func (s Snapshot) AllAt(g Governor) bool {
	if len(s) == 0 {
		return false
	}
	for _, current := range s {
		if current != g {
			return false
		}
	}
	return true
}

// Equal reports whether both snapshots hold the same governors in the same order
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Scope selects the cores a governor change applies to
type Scope struct {
	core int
	all  bool
}

// AllCores targets every core in a single request
var AllCores = Scope{core: -1, all: true}

// Core targets a single core by zero-based index
func Core(index int) Scope {
	return Scope{core: index}
}

// IsAll reports whether the scope covers every core
func (s Scope) IsAll() bool {
	return s.all
}

// CoreIndex returns the targeted core, or -1 for AllCores
func (s Scope) CoreIndex() int {
	if s.all {
		return -1
	}
	return s.core
}

// Validate checks that a single-core scope names a non-negative core
func (s Scope) Validate() error {
	if !s.all && s.core < 0 {
		return fmt.Errorf("core index must be non-negative, got %d", s.core)
	}
	return nil
}

// String implements the Stringer interface
func (s Scope) String() string {
	if s.all {
		return "all CPUs"
	}
	return "CPU " + strconv.Itoa(s.core)
}
