package cli

import (
	"fmt"
	"strings"

	"cpuscale.dev/cli/internal/core/domain"
)

// governorFlag is a pflag.Value that only accepts known governor names
type governorFlag struct {
	value *domain.Governor
}

func (f *governorFlag) String() string {
	if f.value == nil {
		return ""
	}
	return f.value.String()
}

func (f *governorFlag) Set(s string) error {
	g, err := domain.ParseGovernor(s)
	if err != nil {
		return err
	}
	f.value = &g
	return nil
}

func (f *governorFlag) Type() string {
	return "governor"
}

// Action is the workflow selected on the command line
type Action int

const (
	ActionNone Action = iota
	ActionEnable
	ActionDisable
)

// ScalingFlags represents the parsed enable/disable flags
type ScalingFlags struct {
	Enable  bool
	Disable bool
	Mode    *domain.Governor
	Force   bool
}

// Action validates the flag combination and returns the selected workflow
func (f ScalingFlags) Action() (Action, error) {
	switch {
	case f.Enable && f.Disable:
		return ActionNone, fmt.Errorf("%w: --enable and --disable are mutually exclusive", domain.ErrUsage)
	case !f.Enable && !f.Disable:
		return ActionNone, fmt.Errorf("%w: one of --enable or --disable is required", domain.ErrUsage)
	case f.Disable && f.Mode != nil:
		return ActionNone, fmt.Errorf("%w: --mode can only be used with --enable", domain.ErrUsage)
	case f.Enable && f.Force:
		return ActionNone, fmt.Errorf("%w: --force can only be used with --disable", domain.ErrUsage)
	case f.Enable:
		return ActionEnable, nil
	default:
		return ActionDisable, nil
	}
}

func modeUsage() string {
	return fmt.Sprintf("CPU frequency governor to use with --enable (%s); leave blank to restore the settings saved by --disable",
		strings.Join(domain.GovernorNames(), ", "))
}
