package keeper

import (
	"context"

	"github.com/vaultfi/omnivault/config"
	"github.com/vaultfi/omnivault/types"
)

// InitGenesis applies a validated configuration to a freshly constructed
// keeper: it registers the configured assets and strategies, installs the
// rate provider, and designates the buffer strategy. Strategy
// implementations are matched to the configuration by address. The vault
// remains paused; unpausing is a separate, deliberate admin action.
func (k *Keeper) InitGenesis(
	ctx context.Context,
	cfg *config.Config,
	provider types.RateProvider,
	strategies []types.YieldStrategy,
) error {
	if cfg == nil {
		return types.ErrInvalidInput.Wrap("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return types.ErrInvalidInput.Wrap(err.Error())
	}

	for _, a := range cfg.Assets {
		if err := k.AddAsset(ctx, k.authority, a.Denom, a.Decimals); err != nil {
			return err
		}
	}

	impls := make(map[string]types.YieldStrategy, len(strategies))
	for _, s := range strategies {
		if s == nil {
			return types.ErrInvalidInput.Wrap("strategy implementation cannot be nil")
		}
		impls[s.Address()] = s
	}
	for _, s := range cfg.Strategies {
		impl, ok := impls[s.Address]
		if !ok {
			return types.ErrInvalidStrategy.Wrapf("no implementation for configured strategy %q", s.Address)
		}
		if err := k.AddStrategy(ctx, k.authority, impl, s.Decimals); err != nil {
			return err
		}
	}

	if provider != nil {
		if err := k.SetRateProvider(ctx, k.authority, provider); err != nil {
			return err
		}
	}
	if cfg.BufferStrategy != "" {
		if err := k.SetBufferStrategy(ctx, k.authority, cfg.BufferStrategy); err != nil {
			return err
		}
	}
	return nil
}
