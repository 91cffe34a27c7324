package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultfi/omnivault/types"
	"github.com/vaultfi/omnivault/utils"
)

// ConvertAssetToUnit converts an asset amount into its value in the unit of
// account, using integer floor arithmetic:
//
//	value = amount * rate / 10^assetDecimals
//
// where rate comes from the configured rate provider. Deterministic and free
// of state mutation. Fails if the asset is unknown, the provider is unset, or
// the provider query fails.
func (k *Keeper) ConvertAssetToUnit(ctx context.Context, assetID string, amount sdkmath.Int) (sdkmath.Int, error) {
	entry, found := k.assets.get(assetID)
	if !found {
		return sdkmath.Int{}, types.ErrInvalidAsset.Wrapf("asset %q is not registered", assetID)
	}
	return k.toUnit(ctx, entry.Denom, entry.Decimals, amount)
}

// ConvertUnitToAsset converts a unit-of-account value into an asset amount,
// the inverse of ConvertAssetToUnit, floor-rounded:
//
//	amount = value * 10^assetDecimals / rate
//
// A zero rate fails explicitly rather than returning zero.
func (k *Keeper) ConvertUnitToAsset(ctx context.Context, assetID string, units sdkmath.Int) (sdkmath.Int, error) {
	return k.unitToAsset(ctx, assetID, units, utils.RoundDown)
}

// ConvertToShares converts an asset amount into shares at the current share
// price, rounded in the requested direction:
//
//	shares = toUnit(amount) * (totalSupply + 10^offset) / (totalAssets + 1)
//
// Deposit paths round down so depositors never receive rounding dust.
func (k *Keeper) ConvertToShares(ctx context.Context, assetID string, amount sdkmath.Int, rounding utils.Rounding) (sdkmath.Int, error) {
	units, err := k.ConvertAssetToUnit(ctx, assetID, amount)
	if err != nil {
		return sdkmath.Int{}, err
	}
	totalAssets, err := k.totalAssets(ctx)
	if err != nil {
		return sdkmath.Int{}, err
	}
	shares, err := utils.CalculateSharesFromUnits(units, k.ShareSupply(ctx), totalAssets, k.params.DecimalsOffset, rounding)
	if err != nil {
		return sdkmath.Int{}, types.ErrArithmetic.Wrap(err.Error())
	}
	return shares, nil
}

// ConvertToAssets converts shares into an asset amount, the algebraic inverse
// of ConvertToShares. Redeem and withdraw-preview paths round down (the vault
// pays out); mint and deposit-preview paths round up (the vault charges in).
// The asymmetry keeps rounding dust inside the vault.
func (k *Keeper) ConvertToAssets(ctx context.Context, assetID string, shares sdkmath.Int, rounding utils.Rounding) (sdkmath.Int, error) {
	totalAssets, err := k.totalAssets(ctx)
	if err != nil {
		return sdkmath.Int{}, err
	}
	units, err := utils.CalculateUnitsFromShares(shares, k.ShareSupply(ctx), totalAssets, k.params.DecimalsOffset, rounding)
	if err != nil {
		return sdkmath.Int{}, types.ErrArithmetic.Wrap(err.Error())
	}
	return k.unitToAsset(ctx, assetID, units, rounding)
}

// TotalAssets returns the vault's total value in the unit of account. Serves
// the incremental cache unless AlwaysComputeTotalAssets is set, in which case
// it recomputes from live balances on every read.
func (k *Keeper) TotalAssets(ctx context.Context) (sdkmath.Int, error) {
	return k.totalAssets(ctx)
}

// ShareSupply returns the outstanding share token supply.
func (k *Keeper) ShareSupply(ctx context.Context) sdkmath.Int {
	return k.bank.GetSupply(ctx, k.state.ShareDenom).Amount
}

// RefreshTotalAssets recomputes the cached total assets from every registered
// asset's and strategy's live balance, updating each registry entry's cached
// idle balance along the way. This is the only operation that fully
// resynchronizes the cache with reality. Idempotent and safe to call at any
// time; the only restriction is the non-reentrant guard.
func (k *Keeper) RefreshTotalAssets(ctx context.Context) (sdkmath.Int, error) {
	release, err := k.acquire()
	if err != nil {
		return sdkmath.Int{}, err
	}
	defer release()

	total, err := k.computeTotalAssets(ctx, true)
	if err != nil {
		return sdkmath.Int{}, err
	}
	k.state.TotalAssets = total
	k.emitEvent(ctx, types.NewEventTotalAssetsRefreshed(total))
	return total, nil
}

func (k *Keeper) totalAssets(ctx context.Context) (sdkmath.Int, error) {
	if k.params.AlwaysComputeTotalAssets {
		return k.computeTotalAssets(ctx, false)
	}
	return k.state.TotalAssets, nil
}

// computeTotalAssets sums, in the unit of account, the vault's live balance
// of every registered asset and its position in every registered strategy.
// Inactive entries still count: deactivation stops new deposits, not value.
// Fresh idle balances are staged locally and committed to the registries only
// after the whole sum succeeds, so a failed query mid-loop leaves every cache
// untouched.
func (k *Keeper) computeTotalAssets(ctx context.Context, updateCaches bool) (sdkmath.Int, error) {
	total := sdkmath.ZeroInt()
	assetBalances := make([]sdkmath.Int, len(k.assets.entries))
	strategyBalances := make([]sdkmath.Int, len(k.strategies.entries))

	for i := range k.assets.entries {
		entry := k.assets.entries[i]
		balance := k.bank.GetBalance(ctx, k.vaultAddr, entry.Denom).Amount
		val, err := k.toUnit(ctx, entry.Denom, entry.Decimals, balance)
		if err != nil {
			return sdkmath.Int{}, err
		}
		total = total.Add(val)
		assetBalances[i] = balance
	}

	for i := range k.strategies.entries {
		entry := k.strategies.entries[i]
		impl, ok := k.strategies.impl(entry.Address)
		if !ok {
			return sdkmath.Int{}, types.ErrInvalidStrategy.Wrapf("strategy %q has no implementation", entry.Address)
		}
		balance, err := impl.BalanceOf(ctx, k.vaultAddr)
		if err != nil {
			return sdkmath.Int{}, types.ErrExternalCall.Wrapf("strategy %q balance query: %s", entry.Address, err)
		}
		val, err := k.toUnit(ctx, entry.Address, entry.Decimals, balance)
		if err != nil {
			return sdkmath.Int{}, err
		}
		total = total.Add(val)
		strategyBalances[i] = balance
	}

	// The vault's own unit-of-account balance counts 1:1 when enabled,
	// unless the unit denom is already a registered asset.
	if k.params.CountNativeAsset && !k.assets.has(k.state.UnitDenom) {
		total = total.Add(k.bank.GetBalance(ctx, k.vaultAddr, k.state.UnitDenom).Amount)
	}

	if updateCaches {
		for i := range k.assets.entries {
			k.assets.entries[i].IdleBalance = assetBalances[i]
		}
		for i := range k.strategies.entries {
			k.strategies.entries[i].IdleBalance = strategyBalances[i]
		}
	}

	return total, nil
}

// toUnit values an amount of the identified holding in the unit of account.
// Strategy positions are valued through the same rate provider, keyed by the
// strategy address.
func (k *Keeper) toUnit(ctx context.Context, id string, decimals uint8, amount sdkmath.Int) (sdkmath.Int, error) {
	if amount.IsNil() || amount.IsNegative() {
		return sdkmath.Int{}, types.ErrInvalidAmount.Wrapf("cannot value %s of %q", amount, id)
	}
	if amount.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	rate, err := k.rate(ctx, id)
	if err != nil {
		return sdkmath.Int{}, err
	}
	val, err := utils.MulDiv(amount, rate, utils.Pow10(decimals), utils.RoundDown)
	if err != nil {
		return sdkmath.Int{}, types.ErrArithmetic.Wrap(err.Error())
	}
	return val, nil
}

func (k *Keeper) unitToAsset(ctx context.Context, assetID string, units sdkmath.Int, rounding utils.Rounding) (sdkmath.Int, error) {
	entry, found := k.assets.get(assetID)
	if !found {
		return sdkmath.Int{}, types.ErrInvalidAsset.Wrapf("asset %q is not registered", assetID)
	}
	if units.IsNil() || units.IsNegative() {
		return sdkmath.Int{}, types.ErrInvalidAmount.Wrapf("cannot convert %s units", units)
	}
	rate, err := k.rate(ctx, entry.Denom)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if rate.IsZero() {
		return sdkmath.Int{}, types.ErrRateZero.Wrapf("asset %q", assetID)
	}
	amount, err := utils.MulDiv(units, utils.Pow10(entry.Decimals), rate, rounding)
	if err != nil {
		return sdkmath.Int{}, types.ErrArithmetic.Wrap(err.Error())
	}
	return amount, nil
}

func (k *Keeper) rate(ctx context.Context, id string) (sdkmath.Int, error) {
	if k.provider == nil {
		return sdkmath.Int{}, types.ErrInvalidState.Wrap("rate provider is not set")
	}
	rate, err := k.provider.GetRate(ctx, id)
	if err != nil {
		return sdkmath.Int{}, types.ErrExternalCall.Wrapf("rate query for %q: %s", id, err)
	}
	if rate.IsNil() || rate.IsNegative() {
		return sdkmath.Int{}, types.ErrArithmetic.Wrapf("provider returned invalid rate for %q", id)
	}
	return rate, nil
}
