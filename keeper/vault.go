package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/vaultfi/omnivault/types"
	"github.com/vaultfi/omnivault/utils"
)

// Deposit deposits an amount of the primary asset from caller and mints the
// resulting shares to receiver.
//
// Flow: pause and active-asset checks, share computation (floor), pull of the
// asset into vault custody, share mint, then the incremental total-assets and
// idle-balance updates. External calls run before any internal bookkeeping is
// mutated, so a failed call aborts the operation with no partial state.
func (k *Keeper) Deposit(ctx context.Context, caller, receiver string, amount sdkmath.Int) (sdk.Coin, error) {
	release, err := k.acquire()
	if err != nil {
		return sdk.Coin{}, err
	}
	defer release()

	primary, err := k.primaryAsset()
	if err != nil {
		return sdk.Coin{}, err
	}
	return k.depositAsset(ctx, caller, receiver, primary.Denom, amount)
}

// DepositAsset is Deposit for a caller-specified accepted asset.
func (k *Keeper) DepositAsset(ctx context.Context, caller, receiver, assetID string, amount sdkmath.Int) (sdk.Coin, error) {
	release, err := k.acquire()
	if err != nil {
		return sdk.Coin{}, err
	}
	defer release()

	return k.depositAsset(ctx, caller, receiver, assetID, amount)
}

// Mint is the inverse deposit entry point: the caller names the exact share
// amount and the vault charges the assets required for it, rounding up so a
// requested share amount is never under-charged.
func (k *Keeper) Mint(ctx context.Context, caller, receiver string, shares sdkmath.Int) (sdk.Coin, error) {
	release, err := k.acquire()
	if err != nil {
		return sdk.Coin{}, err
	}
	defer release()

	if k.state.Paused {
		return sdk.Coin{}, types.ErrInvalidState.Wrap("vault is paused")
	}
	primary, err := k.primaryAsset()
	if err != nil {
		return sdk.Coin{}, err
	}
	if !primary.Active {
		return sdk.Coin{}, types.ErrInvalidAsset.Wrapf("asset %q is inactive", primary.Denom)
	}
	if err := validatePositive(shares); err != nil {
		return sdk.Coin{}, err
	}

	assets, err := k.ConvertToAssets(ctx, primary.Denom, shares, utils.RoundUp)
	if err != nil {
		return sdk.Coin{}, err
	}
	if err := validatePositive(assets); err != nil {
		return sdk.Coin{}, types.ErrInvalidAmount.Wrapf("%s shares require zero assets", shares)
	}
	units, err := k.ConvertAssetToUnit(ctx, primary.Denom, assets)
	if err != nil {
		return sdk.Coin{}, err
	}

	assetCoin := sdk.NewCoin(primary.Denom, assets)
	shareCoin := sdk.NewCoin(k.state.ShareDenom, shares)

	if err := k.bank.SendCoins(ctx, caller, k.vaultAddr, sdk.NewCoins(assetCoin)); err != nil {
		return sdk.Coin{}, types.ErrExternalCall.Wrapf("asset pull: %s", err)
	}
	if err := k.bank.MintCoin(ctx, receiver, shareCoin); err != nil {
		return sdk.Coin{}, types.ErrExternalCall.Wrapf("share mint: %s", err)
	}

	k.creditDeposit(primary.Denom, assets, units)
	k.emitEvent(ctx, types.NewEventDeposit(caller, receiver, assetCoin, shareCoin))
	return assetCoin, nil
}

// Withdraw pays out an exact amount of the primary asset to receiver, burning
// the owner's shares that cover the amount plus the withdrawal fee. If the
// vault's idle balance cannot cover the payout, the shortfall is pulled from
// the buffer strategy first; if the buffer cannot supply it, the whole
// withdrawal fails and no shares are burned.
func (k *Keeper) Withdraw(ctx context.Context, caller, receiver, owner string, assets sdkmath.Int) (sdk.Coin, error) {
	release, err := k.acquire()
	if err != nil {
		return sdk.Coin{}, err
	}
	defer release()

	if k.state.Paused {
		return sdk.Coin{}, types.ErrInvalidState.Wrap("vault is paused")
	}
	primary, err := k.primaryAsset()
	if err != nil {
		return sdk.Coin{}, err
	}
	if err := validatePositive(assets); err != nil {
		return sdk.Coin{}, err
	}

	max, err := k.maxWithdraw(ctx, owner, primary)
	if err != nil {
		return sdk.Coin{}, err
	}
	if assets.GT(max) {
		return sdk.Coin{}, types.ErrLimitExceeded.Wrapf("withdraw %s exceeds max %s", assets, max)
	}

	// The fee is added on top of the net amount the receiver asked for, so
	// the receiver gets exactly `assets` and the vault keeps the fee value.
	fee, err := utils.FeeOnRaw(assets, k.params.BaseWithdrawalFeeBps)
	if err != nil {
		return sdk.Coin{}, types.ErrArithmetic.Wrap(err.Error())
	}
	gross := assets.Add(fee)

	shares, err := k.ConvertToShares(ctx, primary.Denom, gross, utils.RoundUp)
	if err != nil {
		return sdk.Coin{}, err
	}

	return k.payOut(ctx, caller, receiver, owner, primary, assets, shares, fee)
}

// Redeem burns an exact share amount and pays out its asset value net of the
// withdrawal fee. Symmetric to Withdraw, starting from shares.
func (k *Keeper) Redeem(ctx context.Context, caller, receiver, owner string, shares sdkmath.Int) (sdk.Coin, error) {
	release, err := k.acquire()
	if err != nil {
		return sdk.Coin{}, err
	}
	defer release()

	if k.state.Paused {
		return sdk.Coin{}, types.ErrInvalidState.Wrap("vault is paused")
	}
	primary, err := k.primaryAsset()
	if err != nil {
		return sdk.Coin{}, err
	}
	if err := validatePositive(shares); err != nil {
		return sdk.Coin{}, err
	}

	max, err := k.limiter.MaxRedeem(ctx, owner)
	if err != nil {
		return sdk.Coin{}, err
	}
	if shares.GT(max) {
		return sdk.Coin{}, types.ErrLimitExceeded.Wrapf("redeem %s exceeds max %s", shares, max)
	}

	gross, err := k.ConvertToAssets(ctx, primary.Denom, shares, utils.RoundDown)
	if err != nil {
		return sdk.Coin{}, err
	}
	// The fee is embedded in the gross value the shares are worth; the
	// receiver gets gross - fee and the fee value stays in the vault.
	fee, err := utils.FeeOnTotal(gross, k.params.BaseWithdrawalFeeBps)
	if err != nil {
		return sdk.Coin{}, types.ErrArithmetic.Wrap(err.Error())
	}
	payout := gross.Sub(fee)
	if !payout.IsPositive() {
		return sdk.Coin{}, types.ErrInvalidAmount.Wrapf("%s shares redeem to zero assets", shares)
	}

	return k.payOut(ctx, caller, receiver, owner, primary, payout, shares, fee)
}

// MaxWithdraw returns the maximum primary-asset amount owner can withdraw:
// the owner's asset value capped by reachable liquidity (idle vault balance
// plus what the buffer strategy reports it could supply).
func (k *Keeper) MaxWithdraw(ctx context.Context, owner string) (sdkmath.Int, error) {
	primary, err := k.primaryAsset()
	if err != nil {
		return sdkmath.Int{}, err
	}
	return k.maxWithdraw(ctx, owner, primary)
}

// MaxRedeem returns the maximum share amount owner can redeem, per the
// installed redeem limiter.
func (k *Keeper) MaxRedeem(ctx context.Context, owner string) (sdkmath.Int, error) {
	return k.limiter.MaxRedeem(ctx, owner)
}

// depositAsset runs the deposit flow for one accepted asset. Caller must hold
// the guard.
func (k *Keeper) depositAsset(ctx context.Context, caller, receiver, assetID string, amount sdkmath.Int) (sdk.Coin, error) {
	if k.state.Paused {
		return sdk.Coin{}, types.ErrInvalidState.Wrap("vault is paused")
	}
	entry, found := k.assets.get(assetID)
	if !found {
		return sdk.Coin{}, types.ErrInvalidAsset.Wrapf("asset %q is not registered", assetID)
	}
	if !entry.Active {
		return sdk.Coin{}, types.ErrInvalidAsset.Wrapf("asset %q is inactive", assetID)
	}
	if err := validatePositive(amount); err != nil {
		return sdk.Coin{}, err
	}

	units, err := k.ConvertAssetToUnit(ctx, entry.Denom, amount)
	if err != nil {
		return sdk.Coin{}, err
	}
	totalAssets, err := k.totalAssets(ctx)
	if err != nil {
		return sdk.Coin{}, err
	}
	shares, err := utils.CalculateSharesFromUnits(units, k.ShareSupply(ctx), totalAssets, k.params.DecimalsOffset, utils.RoundDown)
	if err != nil {
		return sdk.Coin{}, types.ErrArithmetic.Wrap(err.Error())
	}
	if shares.IsZero() {
		return sdk.Coin{}, types.ErrInvalidAmount.Wrapf("deposit of %s%s is too small and results in zero shares", amount, assetID)
	}

	assetCoin := sdk.NewCoin(entry.Denom, amount)
	shareCoin := sdk.NewCoin(k.state.ShareDenom, shares)

	if err := k.bank.SendCoins(ctx, caller, k.vaultAddr, sdk.NewCoins(assetCoin)); err != nil {
		return sdk.Coin{}, types.ErrExternalCall.Wrapf("asset pull: %s", err)
	}
	if err := k.bank.MintCoin(ctx, receiver, shareCoin); err != nil {
		return sdk.Coin{}, types.ErrExternalCall.Wrapf("share mint: %s", err)
	}

	k.creditDeposit(entry.Denom, amount, units)
	k.emitEvent(ctx, types.NewEventDeposit(caller, receiver, assetCoin, shareCoin))
	return shareCoin, nil
}

// payOut finishes a withdraw or redeem: allowance spend, buffer shortfall
// pull, payout transfer, share burn, cache updates. Caller must hold the
// guard and have validated amounts and limits.
func (k *Keeper) payOut(
	ctx context.Context,
	caller, receiver, owner string,
	primary types.AssetEntry,
	assets, shares, fee sdkmath.Int,
) (sdk.Coin, error) {
	shareCoin := sdk.NewCoin(k.state.ShareDenom, shares)
	assetCoin := sdk.NewCoin(primary.Denom, assets)

	ownerShares := k.bank.GetBalance(ctx, owner, k.state.ShareDenom).Amount
	if shares.GT(ownerShares) {
		return sdk.Coin{}, types.ErrLimitExceeded.Wrapf("required shares %s exceed owner balance %s", shares, ownerShares)
	}
	if caller != owner {
		if err := k.bank.SpendAllowance(ctx, owner, caller, shareCoin); err != nil {
			return sdk.Coin{}, types.ErrAccessDenied.Wrapf("share allowance: %s", err)
		}
	}

	// Cache decrement is the unit value of what actually leaves the vault;
	// the fee value stays behind for the remaining shareholders.
	units, err := k.ConvertAssetToUnit(ctx, primary.Denom, assets)
	if err != nil {
		return sdk.Coin{}, err
	}

	idle := k.bank.GetBalance(ctx, k.vaultAddr, primary.Denom).Amount
	if assets.GT(idle) {
		if err := k.pullBufferShortfall(ctx, primary, assets.Sub(idle)); err != nil {
			return sdk.Coin{}, err
		}
		if k.bank.GetBalance(ctx, k.vaultAddr, primary.Denom).Amount.LT(assets) {
			return sdk.Coin{}, types.ErrExternalCall.Wrap("buffer strategy could not supply the shortfall")
		}
	}

	if err := k.bank.SendCoins(ctx, k.vaultAddr, receiver, sdk.NewCoins(assetCoin)); err != nil {
		return sdk.Coin{}, types.ErrExternalCall.Wrapf("payout: %s", err)
	}
	if err := k.bank.BurnCoin(ctx, owner, shareCoin); err != nil {
		return sdk.Coin{}, types.ErrExternalCall.Wrapf("share burn: %s", err)
	}

	k.debitWithdrawal(ctx, primary.Denom, units)
	k.emitEvent(ctx, types.NewEventWithdraw(caller, receiver, owner, assetCoin, shareCoin, fee))
	return assetCoin, nil
}

// pullBufferShortfall moves the shortfall from the buffer strategy into vault
// custody and refreshes the buffer's cached idle balance.
func (k *Keeper) pullBufferShortfall(ctx context.Context, primary types.AssetEntry, shortfall sdkmath.Int) error {
	if k.bufferStrategy == "" {
		return types.ErrInvalidState.Wrap("buffer strategy is not set")
	}
	entry, found := k.strategies.get(k.bufferStrategy)
	if !found || !entry.Active {
		return types.ErrInvalidStrategy.Wrapf("buffer strategy %q is not active", k.bufferStrategy)
	}
	impl, ok := k.strategies.impl(entry.Address)
	if !ok {
		return types.ErrInvalidStrategy.Wrapf("strategy %q has no implementation", entry.Address)
	}

	if _, err := impl.Withdraw(ctx, shortfall, k.vaultAddr, k.vaultAddr); err != nil {
		return types.ErrExternalCall.Wrapf("buffer withdraw of %s%s: %s", shortfall, primary.Denom, err)
	}

	if balance, err := impl.BalanceOf(ctx, k.vaultAddr); err == nil {
		if e, ok := k.strategies.mut(entry.Address); ok {
			e.IdleBalance = balance
		}
	} else {
		// Stale cache until the next refresh; the withdrawal itself is done.
		k.logger.Error("buffer balance refresh failed",
			"strategy", entry.Address, "error", err)
	}

	k.emitEvent(ctx, types.NewEventBufferPull(entry.Address, sdk.NewCoin(primary.Denom, shortfall)))
	return nil
}

func (k *Keeper) maxWithdraw(ctx context.Context, owner string, primary types.AssetEntry) (sdkmath.Int, error) {
	ownerShares := k.bank.GetBalance(ctx, owner, k.state.ShareDenom).Amount
	ownerAssets, err := k.ConvertToAssets(ctx, primary.Denom, ownerShares, utils.RoundDown)
	if err != nil {
		return sdkmath.Int{}, err
	}

	available := k.bank.GetBalance(ctx, k.vaultAddr, primary.Denom).Amount
	if k.bufferStrategy != "" {
		if entry, found := k.strategies.get(k.bufferStrategy); found && entry.Active {
			if impl, ok := k.strategies.impl(entry.Address); ok {
				fromBuffer, err := impl.PreviewWithdraw(ctx, ownerAssets)
				if err != nil {
					return sdkmath.Int{}, types.ErrExternalCall.Wrapf("buffer preview: %s", err)
				}
				available = available.Add(fromBuffer)
			}
		}
	}

	return sdkmath.MinInt(ownerAssets, available), nil
}

// creditDeposit applies the incremental bookkeeping of a completed deposit.
func (k *Keeper) creditDeposit(denom string, amount, units sdkmath.Int) {
	k.state.TotalAssets = k.state.TotalAssets.Add(units)
	if entry, ok := k.assets.mut(denom); ok {
		entry.IdleBalance = entry.IdleBalance.Add(amount)
	}
}

// debitWithdrawal applies the incremental bookkeeping of a completed payout.
// The cache is clamped at zero; drift beyond that is corrected by the next
// RefreshTotalAssets.
func (k *Keeper) debitWithdrawal(ctx context.Context, denom string, units sdkmath.Int) {
	if units.GT(k.state.TotalAssets) {
		k.state.TotalAssets = sdkmath.ZeroInt()
	} else {
		k.state.TotalAssets = k.state.TotalAssets.Sub(units)
	}
	if entry, ok := k.assets.mut(denom); ok {
		entry.IdleBalance = k.bank.GetBalance(ctx, k.vaultAddr, denom).Amount
	}
}

func validatePositive(amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrInvalidAmount.Wrapf("amount must be positive, got %s", amount)
	}
	return nil
}

// shareBalanceLimiter is the default redeem limit: the owner's full share
// balance, regardless of withdrawable liquidity.
type shareBalanceLimiter struct {
	k *Keeper
}

func (l shareBalanceLimiter) MaxRedeem(ctx context.Context, owner string) (sdkmath.Int, error) {
	return l.k.bank.GetBalance(ctx, owner, l.k.state.ShareDenom).Amount, nil
}
