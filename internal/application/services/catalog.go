package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cpuscale.dev/cli/internal/core/domain"
	"cpuscale.dev/cli/internal/core/ports"
)

// Catalog answers whether a governor is supported by this machine right now
type Catalog struct {
	control ports.GovernorControl
	logger  *zap.Logger
}

// NewCatalog creates a new governor catalog
func NewCatalog(control ports.GovernorControl, logger *zap.Logger) *Catalog {
	return &Catalog{
		control: control,
		logger:  logger,
	}
}

// SupportedGovernors queries the hardware for its supported governors.
// The result is never cached; every call asks the capability again.
func (c *Catalog) SupportedGovernors(ctx context.Context) (domain.GovernorSet, error) {
	tokens, err := c.control.AvailableGovernors(ctx)
	if err != nil {
		return domain.GovernorSet{}, fmt.Errorf("%w: %v", domain.ErrHardwareQuery, err)
	}
	if len(tokens) == 0 {
		return domain.GovernorSet{}, fmt.Errorf("%w: empty governor list", domain.ErrHardwareQuery)
	}

	set, unknown := domain.ParseGovernorSet(tokens)
	if len(unknown) > 0 {
		c.logger.Debug("ignoring unrecognised governors", zap.Strings("governors", unknown))
	}
	if set.Len() == 0 {
		return domain.GovernorSet{}, fmt.Errorf("%w: no recognised governors in %v", domain.ErrHardwareQuery, tokens)
	}

	return set, nil
}

// Validate fails with domain.ErrUnsupportedGovernor when g is not supported
func (c *Catalog) Validate(ctx context.Context, g domain.Governor) error {
	supported, err := c.SupportedGovernors(ctx)
	if err != nil {
		return err
	}
	if !supported.Contains(g) {
		return fmt.Errorf("%w: specified mode %s not supported by CPU (supported: %s)",
			domain.ErrUnsupportedGovernor, g, supported)
	}
	return nil
}
