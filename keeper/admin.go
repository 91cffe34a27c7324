package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/vaultfi/omnivault/types"
	"github.com/vaultfi/omnivault/utils"
)

// SetRateProvider replaces the rate provider used for all valuations.
func (k *Keeper) SetRateProvider(ctx context.Context, authority string, provider types.RateProvider) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()

	if provider == nil {
		return types.ErrInvalidInput.Wrap("rate provider cannot be nil")
	}
	k.provider = provider
	k.emitEvent(ctx, &types.EventRateProviderUpdated{})
	return nil
}

// SetBufferStrategy designates the fallback liquidity source for
// withdrawals. The strategy must already be registered and active and must
// share the vault's primary asset.
func (k *Keeper) SetBufferStrategy(ctx context.Context, authority, address string) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()

	entry, found := k.strategies.get(address)
	if !found {
		return types.ErrInvalidStrategy.Wrapf("strategy %q is not registered", address)
	}
	if !entry.Active {
		return types.ErrInvalidStrategy.Wrapf("strategy %q is inactive", address)
	}
	impl, ok := k.strategies.impl(address)
	if !ok {
		return types.ErrInvalidStrategy.Wrapf("strategy %q has no implementation", address)
	}
	primary, err := k.primaryAsset()
	if err != nil {
		return err
	}
	if impl.AssetDenom() != primary.Denom {
		return types.ErrInvalidStrategy.Wrapf(
			"buffer strategy asset %q must match primary asset %q", impl.AssetDenom(), primary.Denom)
	}

	k.bufferStrategy = address
	k.emitEvent(ctx, types.NewEventBufferStrategyUpdated(address))
	return nil
}

// AddAsset registers a new deposit asset. Append-only: assets are never
// removed, only toggled inactive. The first registered asset is the primary
// asset and fixes the vault's decimals.
func (k *Keeper) AddAsset(ctx context.Context, authority, denom string, decimals uint8) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()

	entry := types.NewAssetEntry(denom, decimals)
	if err := entry.Validate(); err != nil {
		return types.ErrInvalidInput.Wrap(err.Error())
	}
	if k.assets.has(denom) {
		return types.ErrInvalidAsset.Wrapf("asset %q is already registered", denom)
	}
	if len(k.assets.entries) == 0 {
		shareDecimals := int(decimals) + int(k.params.DecimalsOffset)
		if shareDecimals > 255 {
			return types.ErrInvalidInput.Wrapf(
				"share decimals %d (asset %d + offset %d) out of range", shareDecimals, decimals, k.params.DecimalsOffset)
		}
	}

	k.assets.add(entry)
	if len(k.assets.entries) == 1 {
		k.state.Decimals = decimals + k.params.DecimalsOffset
	}
	k.emitEvent(ctx, types.NewEventAssetAdded(denom, decimals))
	return nil
}

// ToggleAsset flips an asset's activity flag. Inactive assets reject new
// deposits but keep counting toward total assets.
func (k *Keeper) ToggleAsset(ctx context.Context, authority, denom string, active bool) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()

	entry, ok := k.assets.mut(denom)
	if !ok {
		return types.ErrInvalidAsset.Wrapf("asset %q is not registered", denom)
	}
	entry.Active = active
	k.emitEvent(ctx, types.NewEventAssetToggled(denom, active))
	return nil
}

// AddStrategy registers a yield strategy implementation. Append-only, like
// assets.
func (k *Keeper) AddStrategy(ctx context.Context, authority string, strategy types.YieldStrategy, decimals uint8) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()

	if strategy == nil {
		return types.ErrInvalidInput.Wrap("strategy cannot be nil")
	}
	entry := types.NewStrategyEntry(strategy.Address(), decimals)
	if err := entry.Validate(); err != nil {
		return types.ErrInvalidInput.Wrap(err.Error())
	}
	if _, found := k.strategies.get(entry.Address); found {
		return types.ErrInvalidStrategy.Wrapf("strategy %q is already registered", entry.Address)
	}

	k.strategies.add(entry, strategy)
	k.emitEvent(ctx, types.NewEventStrategyAdded(entry.Address, decimals))
	return nil
}

// ToggleStrategy flips a strategy's activity flag.
func (k *Keeper) ToggleStrategy(ctx context.Context, authority, address string, active bool) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()

	entry, ok := k.strategies.mut(address)
	if !ok {
		return types.ErrInvalidStrategy.Wrapf("strategy %q is not registered", address)
	}
	entry.Active = active
	k.emitEvent(ctx, types.NewEventStrategyToggled(address, active))
	return nil
}

// SetPaused pauses or unpauses the vault. Unpausing requires the rate
// provider to be set and the buffer strategy to be registered and active, so
// user flows can never run against missing configuration.
func (k *Keeper) SetPaused(ctx context.Context, authority string, paused bool) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()

	if !paused {
		if k.provider == nil {
			return types.ErrInvalidState.Wrap("cannot unpause: rate provider is not set")
		}
		if k.bufferStrategy == "" {
			return types.ErrInvalidState.Wrap("cannot unpause: buffer strategy is not set")
		}
		if entry, found := k.strategies.get(k.bufferStrategy); !found || !entry.Active {
			return types.ErrInvalidState.Wrapf("cannot unpause: buffer strategy %q is not active", k.bufferStrategy)
		}
	}

	k.state.Paused = paused
	k.emitEvent(ctx, types.NewEventPauseChanged(paused))
	return nil
}

// Paused reports whether the vault is paused.
func (k *Keeper) Paused() bool {
	return k.state.Paused
}

// SetBaseWithdrawalFee updates the withdrawal fee rate.
func (k *Keeper) SetBaseWithdrawalFee(ctx context.Context, authority string, feeBps uint64) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()

	if feeBps >= utils.FeeScaleBps {
		return types.ErrInvalidInput.Wrapf("fee rate %d must be below %d", feeBps, utils.FeeScaleBps)
	}
	k.params.BaseWithdrawalFeeBps = feeBps
	k.emitEvent(ctx, types.NewEventWithdrawalFeeUpdated(feeBps))
	return nil
}

// ProcessAllocation executes an administrative allocation batch. Asset
// targets may only be approved for a spender; strategy targets are invoked
// arbitrarily and their idle balance refreshed afterwards. Every target is
// classified before any call runs, so a batch naming an unknown target fails
// whole with no side effects; after that, any call failure aborts the batch.
func (k *Keeper) ProcessAllocation(ctx context.Context, authority string, allocations []types.Allocation) error {
	if err := k.requireAuthority(authority); err != nil {
		return err
	}
	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()

	if len(allocations) == 0 {
		return types.ErrInvalidInput.Wrap("allocation batch cannot be empty")
	}

	// Classification pass: all-or-nothing starts here.
	type step struct {
		alloc    types.Allocation
		asset    *types.AssetEntry
		strategy types.YieldStrategy
	}
	steps := make([]step, 0, len(allocations))
	for _, alloc := range allocations {
		if err := alloc.Validate(); err != nil {
			return types.ErrInvalidInput.Wrap(err.Error())
		}
		if entry, ok := k.assets.mut(alloc.Target); ok {
			if !entry.Active {
				return types.ErrInvalidAsset.Wrapf("asset %q is inactive", alloc.Target)
			}
			if len(alloc.Data) > 0 {
				return types.ErrInvalidInput.Wrapf("asset target %q only permits an approval", alloc.Target)
			}
			if alloc.Spender == "" {
				return types.ErrInvalidInput.Wrapf("asset target %q requires a spender", alloc.Target)
			}
			steps = append(steps, step{alloc: alloc, asset: entry})
			continue
		}
		if entry, ok := k.strategies.get(alloc.Target); ok {
			if !entry.Active {
				return types.ErrInvalidStrategy.Wrapf("strategy %q is inactive", alloc.Target)
			}
			impl, found := k.strategies.impl(entry.Address)
			if !found {
				return types.ErrInvalidStrategy.Wrapf("strategy %q has no implementation", entry.Address)
			}
			steps = append(steps, step{alloc: alloc, strategy: impl})
			continue
		}
		return types.ErrInvalidStrategy.Wrapf("target %q is neither a registered asset nor strategy", alloc.Target)
	}

	// Idle-balance refreshes are staged and committed only once every step
	// has succeeded, so a failed step leaves the registry caches untouched.
	refreshed := make(map[string]sdkmath.Int, len(steps))
	for _, s := range steps {
		if s.asset != nil {
			coin := sdk.NewCoin(s.asset.Denom, s.alloc.Amount)
			if err := k.bank.Approve(ctx, k.vaultAddr, s.alloc.Spender, coin); err != nil {
				return types.ErrExternalCall.Wrapf("approve %s for %q: %s", coin, s.alloc.Spender, err)
			}
			continue
		}
		if err := s.strategy.Invoke(ctx, s.alloc.Amount, s.alloc.Data); err != nil {
			return types.ErrExternalCall.Wrapf("strategy %q call: %s", s.alloc.Target, err)
		}
		balance, err := s.strategy.BalanceOf(ctx, k.vaultAddr)
		if err != nil {
			return types.ErrExternalCall.Wrapf("strategy %q balance refresh: %s", s.alloc.Target, err)
		}
		refreshed[s.alloc.Target] = balance
	}
	for address, balance := range refreshed {
		if entry, ok := k.strategies.mut(address); ok {
			entry.IdleBalance = balance
		}
	}

	k.emitEvent(ctx, types.NewEventAllocationProcessed(len(allocations)))
	return nil
}
