// Package sysfs reads and writes CPU governors directly through /sys.
// The process needs write access to the scaling_governor files, usually root.
package sysfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	procsysfs "github.com/prometheus/procfs/sysfs"
	"golang.org/x/sys/unix"

	"cpuscale.dev/cli/internal/core/domain"
	"cpuscale.dev/cli/internal/core/ports"
)

// DefaultRoot is the sysfs mount point
const DefaultRoot = "/sys"

const (
	cpuFreqBasePath = "devices/system/cpu/cpu%d/cpufreq"
	offlinePath     = "devices/system/cpu/offline"
)

// Control implements ports.GovernorControl against sysfs
type Control struct {
	root string
}

// NewControl creates a sysfs governor control rooted at root
func NewControl(root string) *Control {
	if root == "" {
		root = DefaultRoot
	}
	return &Control{root: root}
}

// AvailableGovernors returns the governors advertised by the first core
func (c *Control) AvailableGovernors(ctx context.Context) ([]string, error) {
	stats, err := c.cpufreq()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(stats[0].AvailableGovernors)
	if len(fields) == 0 {
		return nil, fmt.Errorf("cpu%s advertises no governors", stats[0].Name)
	}
	return fields, nil
}

// CurrentGovernors returns the scaling_governor of every core in index order
func (c *Control) CurrentGovernors(ctx context.Context) ([]string, error) {
	stats, err := c.cpufreq()
	if err != nil {
		return nil, err
	}
	governors := make([]string, len(stats))
	for i, s := range stats {
		governors[i] = strings.TrimSpace(s.Governor)
	}
	return governors, nil
}

// SetGovernor writes governor into scaling_governor. For AllCores every target
// is checked for write access before the first write so a permission problem
// leaves all cores untouched.
func (c *Control) SetGovernor(ctx context.Context, governor domain.Governor, scope domain.Scope) error {
	var cores []int
	if scope.IsAll() {
		stats, err := c.cpufreq()
		if err != nil {
			return err
		}
		for i := range stats {
			cores = append(cores, i)
		}
	} else {
		cores = []int{scope.CoreIndex()}
	}

	paths := make([]string, len(cores))
	for i, core := range cores {
		path := c.governorPath(core)
		if err := unix.Access(path, unix.W_OK); err != nil {
			return fmt.Errorf("cannot write governor for cpu %d: %w", core, err)
		}
		paths[i] = path
	}

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(governor.String()), 0644); err != nil {
			return fmt.Errorf("failed to set governor for cpu %d: %w", cores[i], err)
		}
	}
	return nil
}

func (c *Control) governorPath(cpu int) string {
	return filepath.Join(c.root, fmt.Sprintf(cpuFreqBasePath, cpu), "scaling_governor")
}

// cpufreq returns per-core cpufreq stats sorted by core index. Cores without a
// cpufreq directory are dropped; a gap in the numbering is an error.
func (c *Control) cpufreq() ([]procsysfs.SystemCPUCpufreqStats, error) {
	fs, err := procsysfs.NewFS(c.root)
	if err != nil {
		return nil, fmt.Errorf("failed to open sysfs at %s: %w", c.root, err)
	}

	all, err := fs.SystemCpufreq()
	if err != nil {
		return nil, fmt.Errorf("failed to read cpufreq: %w", err)
	}

	type indexed struct {
		index int
		stats procsysfs.SystemCPUCpufreqStats
	}
	var cores []indexed
	for _, s := range all {
		if s.Name == "" {
			continue
		}
		idx, err := strconv.Atoi(s.Name)
		if err != nil {
			return nil, fmt.Errorf("unexpected cpu name %q: %w", s.Name, err)
		}
		cores = append(cores, indexed{index: idx, stats: s})
	}
	if len(cores) == 0 {
		return nil, fmt.Errorf("no cpufreq entries under %s", c.root)
	}

	sort.Slice(cores, func(i, j int) bool { return cores[i].index < cores[j].index })

	out := make([]procsysfs.SystemCPUCpufreqStats, len(cores))
	for i, core := range cores {
		if core.index != i {
			if c.isOffline(i) {
				return nil, fmt.Errorf("cpu %d is offline", i)
			}
			return nil, fmt.Errorf("cpufreq missing for cpu %d", i)
		}
		out[i] = core.stats
	}
	return out, nil
}

// isOffline reports whether cpu is listed in devices/system/cpu/offline,
// a comma separated list of indexes and ranges such as "1,4-7".
func (c *Control) isOffline(cpu int) bool {
	data, err := os.ReadFile(filepath.Join(c.root, offlinePath))
	if err != nil {
		return false
	}
	for _, part := range strings.Split(strings.TrimSpace(string(data)), ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(lo)
		if err != nil {
			continue
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(hi); err != nil {
				continue
			}
		}
		if cpu >= first && cpu <= last {
			return true
		}
	}
	return false
}

var _ ports.GovernorControl = (*Control)(nil)
