package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/vaultfi/omnivault/types"
	"github.com/vaultfi/omnivault/utils"
)

// Read-only vault views for reporting layers. All of them are side-effect
// free; none touches the registries or the total-assets cache.

// NAVPerShare returns the net asset value per share in the unit of account.
// Zero if no shares are outstanding.
func (k *Keeper) NAVPerShare(ctx context.Context) (sdkmath.LegacyDec, error) {
	supply := k.ShareSupply(ctx)
	if supply.IsZero() {
		return sdkmath.LegacyZeroDec(), nil
	}
	total, err := k.totalAssets(ctx)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return sdkmath.LegacyNewDecFromInt(total).QuoInt(supply), nil
}

// PreviewDeposit returns the shares a deposit of the given primary-asset
// amount would mint right now, with the deposit flow's floor rounding.
func (k *Keeper) PreviewDeposit(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	primary, err := k.primaryAsset()
	if err != nil {
		return sdkmath.Int{}, err
	}
	return k.ConvertToShares(ctx, primary.Denom, amount, utils.RoundDown)
}

// PreviewMint returns the primary-asset amount a mint of the given share
// amount would charge, with the mint flow's ceiling rounding.
func (k *Keeper) PreviewMint(ctx context.Context, shares sdkmath.Int) (sdkmath.Int, error) {
	primary, err := k.primaryAsset()
	if err != nil {
		return sdkmath.Int{}, err
	}
	return k.ConvertToAssets(ctx, primary.Denom, shares, utils.RoundUp)
}

// PreviewWithdraw returns the shares a withdrawal of the given net
// primary-asset amount would burn, fee included.
func (k *Keeper) PreviewWithdraw(ctx context.Context, assets sdkmath.Int) (sdkmath.Int, error) {
	primary, err := k.primaryAsset()
	if err != nil {
		return sdkmath.Int{}, err
	}
	fee, err := utils.FeeOnRaw(assets, k.params.BaseWithdrawalFeeBps)
	if err != nil {
		return sdkmath.Int{}, types.ErrArithmetic.Wrap(err.Error())
	}
	return k.ConvertToShares(ctx, primary.Denom, assets.Add(fee), utils.RoundUp)
}

// PreviewRedeem returns the primary-asset payout a redemption of the given
// share amount would produce, net of the withdrawal fee.
func (k *Keeper) PreviewRedeem(ctx context.Context, shares sdkmath.Int) (sdkmath.Int, error) {
	primary, err := k.primaryAsset()
	if err != nil {
		return sdkmath.Int{}, err
	}
	gross, err := k.ConvertToAssets(ctx, primary.Denom, shares, utils.RoundDown)
	if err != nil {
		return sdkmath.Int{}, err
	}
	fee, err := utils.FeeOnTotal(gross, k.params.BaseWithdrawalFeeBps)
	if err != nil {
		return sdkmath.Int{}, types.ErrArithmetic.Wrap(err.Error())
	}
	return gross.Sub(fee), nil
}

// MaxDeposit returns the maximum primary-asset deposit currently accepted:
// unbounded unless the vault is paused or the asset is inactive.
func (k *Keeper) MaxDeposit(_ context.Context) sdkmath.Int {
	primary, err := k.primaryAsset()
	if err != nil || k.state.Paused || !primary.Active {
		return sdkmath.ZeroInt()
	}
	return maxSupply()
}

// MaxMint returns the maximum share mint currently accepted.
func (k *Keeper) MaxMint(ctx context.Context) sdkmath.Int {
	return k.MaxDeposit(ctx)
}

// Params returns a copy of the current vault parameters.
func (k *Keeper) Params() types.Params {
	return k.params
}

// State returns a copy of the vault's global state record.
func (k *Keeper) State() types.VaultState {
	return k.state
}

// Decimals returns the vault's share token decimals.
func (k *Keeper) Decimals() uint8 {
	return k.state.Decimals
}

// maxSupply is the practical "unbounded" sentinel for limit views.
func maxSupply() sdkmath.Int {
	return sdkmath.NewIntFromUint64(^uint64(0))
}
