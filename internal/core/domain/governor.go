package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Governor is a CPU frequency scaling policy a core's cpufreq driver can run under
type Governor string

const (
	GovernorPerformance  Governor = "performance"
	GovernorPowersave    Governor = "powersave"
	GovernorUserspace    Governor = "userspace"
	GovernorOndemand     Governor = "ondemand"
	GovernorConservative Governor = "conservative"
	GovernorSchedutil    Governor = "schedutil"
)

// DisableGovernor is the governor every core is locked to while scaling is disabled
const DisableGovernor = GovernorPerformance

var knownGovernors = []Governor{
	GovernorPerformance,
	GovernorPowersave,
	GovernorUserspace,
	GovernorOndemand,
	GovernorConservative,
	GovernorSchedutil,
}

// AllGovernors returns every governor the tool knows about, in declaration order
func AllGovernors() []Governor {
	out := make([]Governor, len(knownGovernors))
	copy(out, knownGovernors)
	return out
}

// GovernorNames returns the names of all known governors
func GovernorNames() []string {
	names := make([]string, len(knownGovernors))
	for i, g := range knownGovernors {
		names[i] = string(g)
	}
	return names
}

// ParseGovernor creates a Governor with validation
func ParseGovernor(value string) (Governor, error) {
	candidate := Governor(strings.TrimSpace(value))
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("unknown governor %q (expected one of: %s)", value, strings.Join(GovernorNames(), ", "))
}

// IsValid reports whether g is one of the known governors
func (g Governor) IsValid() bool {
	for _, known := range knownGovernors {
		if g == known {
			return true
		}
	}
	return false
}

// String returns the string representation of Governor
func (g Governor) String() string {
	return string(g)
}

// MarshalText implements encoding.TextMarshaler
func (g Governor) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("cannot marshal unknown governor %q", string(g))
	}
	return []byte(g), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (g *Governor) UnmarshalText(text []byte) error {
	parsed, err := ParseGovernor(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// GovernorSet is the subset of governors a machine advertises as supported
type GovernorSet struct {
	members map[Governor]struct{}
}

// NewGovernorSet creates a set holding the given governors
func NewGovernorSet(governors ...Governor) GovernorSet {
	set := GovernorSet{members: make(map[Governor]struct{}, len(governors))}
	for _, g := range governors {
		set.members[g] = struct{}{}
	}
	return set
}

// ParseGovernorSet builds a set from raw governor tokens. Tokens that are not
// known governors (vendor specific policies) are skipped and returned separately.
func ParseGovernorSet(tokens []string) (GovernorSet, []string) {
	set := NewGovernorSet()
	var unknown []string
	for _, token := range tokens {
		g, err := ParseGovernor(token)
		if err != nil {
			unknown = append(unknown, token)
			continue
		}
		set.members[g] = struct{}{}
	}
	return set, unknown
}

// Contains reports whether g is in the set
func (s GovernorSet) Contains(g Governor) bool {
	_, ok := s.members[g]
	return ok
}

// Len returns the number of governors in the set
func (s GovernorSet) Len() int {
	return len(s.members)
}

// Slice returns the members sorted by name
func (s GovernorSet) Slice() []Governor {
	out := make([]Governor, 0, len(s.members))
	for g := range s.members {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String implements the Stringer interface
func (s GovernorSet) String() string {
	names := make([]string, 0, len(s.members))
	for _, g := range s.Slice() {
		names = append(names, string(g))
	}
	return "[" + strings.Join(names, " ") + "]"
}
