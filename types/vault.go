package types

import (
	fmt "fmt"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/vaultfi/omnivault/utils"
)

// AssetEntry describes a deposit asset accepted by the vault.
//
// Entries are append-only: once registered an asset is never removed, only
// toggled inactive, so historical positions in the registry stay stable for
// accounting loops. IdleBalance is the cached amount of the asset sitting at
// the vault's custody address; it is refreshed by RefreshTotalAssets and
// updated incrementally by deposits and withdrawals.
type AssetEntry struct {
	Denom       string
	Decimals    uint8
	Active      bool
	IdleBalance sdkmath.Int
}

// NewAssetEntry creates an active asset entry with a zero idle balance.
func NewAssetEntry(denom string, decimals uint8) AssetEntry {
	return AssetEntry{
		Denom:       denom,
		Decimals:    decimals,
		Active:      true,
		IdleBalance: sdkmath.ZeroInt(),
	}
}

// Validate performs basic validation on the asset entry fields.
func (a AssetEntry) Validate() error {
	if err := sdk.ValidateDenom(a.Denom); err != nil {
		return fmt.Errorf("invalid asset denom: %w", err)
	}
	if a.IdleBalance.IsNil() || a.IdleBalance.IsNegative() {
		return fmt.Errorf("invalid idle balance for asset %s", a.Denom)
	}
	return nil
}

// StrategyEntry describes a registered yield-bearing destination.
//
// A strategy is identified by the address of its implementation. Like assets,
// strategy entries are append-only. IdleBalance caches the vault's position in
// the strategy, denominated in the strategy's own units.
type StrategyEntry struct {
	Address     string
	Decimals    uint8
	Active      bool
	IdleBalance sdkmath.Int
}

// NewStrategyEntry creates an active strategy entry with a zero idle balance.
func NewStrategyEntry(address string, decimals uint8) StrategyEntry {
	return StrategyEntry{
		Address:     address,
		Decimals:    decimals,
		Active:      true,
		IdleBalance: sdkmath.ZeroInt(),
	}
}

// Validate performs basic validation on the strategy entry fields.
func (s StrategyEntry) Validate() error {
	if s.Address == "" {
		return fmt.Errorf("strategy address cannot be empty")
	}
	if s.IdleBalance.IsNil() || s.IdleBalance.IsNegative() {
		return fmt.Errorf("invalid idle balance for strategy %s", s.Address)
	}
	return nil
}

// Params holds the tunable vault parameters.
type Params struct {
	// BaseWithdrawalFeeBps is the withdrawal fee rate against utils.FeeScaleBps.
	BaseWithdrawalFeeBps uint64
	// DecimalsOffset is the virtual decimals offset applied to the share
	// supply in all share-price conversions. The formula is written
	// generically; deployments to date use zero.
	DecimalsOffset uint8
	// CountNativeAsset includes the vault's own unit-of-account balance,
	// valued 1:1, when computing total assets.
	CountNativeAsset bool
	// AlwaysComputeTotalAssets recomputes total assets on every read
	// instead of serving the incremental cache.
	AlwaysComputeTotalAssets bool
}

// DefaultParams returns the default vault parameters.
func DefaultParams() Params {
	return Params{
		BaseWithdrawalFeeBps:     0,
		DecimalsOffset:           0,
		CountNativeAsset:         true,
		AlwaysComputeTotalAssets: false,
	}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.BaseWithdrawalFeeBps >= utils.FeeScaleBps {
		return fmt.Errorf("base withdrawal fee %d must be below %d", p.BaseWithdrawalFeeBps, utils.FeeScaleBps)
	}
	return nil
}

// VaultState is the vault's global mutable state. It is owned exclusively by
// the Keeper; no other component mutates it.
type VaultState struct {
	// ShareDenom is the denom of the fungible share token.
	ShareDenom string
	// UnitDenom is the unit-of-account denom all valuations are expressed in.
	UnitDenom string
	// Decimals mirrors the primary asset's decimals and defines the vault's own.
	Decimals uint8
	// TotalAssets is the cached total value of the vault in the unit of
	// account. It is mutated incrementally on deposit and withdraw and fully
	// recomputed by RefreshTotalAssets; between refreshes it may drift if
	// external balances change out-of-band.
	TotalAssets sdkmath.Int
	// Paused blocks all user flows. Vaults start paused.
	Paused bool
}

// NewVaultState creates the initial, paused vault state.
func NewVaultState(shareDenom, unitDenom string) VaultState {
	return VaultState{
		ShareDenom:  shareDenom,
		UnitDenom:   unitDenom,
		TotalAssets: sdkmath.ZeroInt(),
		Paused:      true,
	}
}

// Validate performs basic validation on the vault state fields.
func (v VaultState) Validate() error {
	if err := sdk.ValidateDenom(v.ShareDenom); err != nil {
		return fmt.Errorf("invalid share denom: %w", err)
	}
	if err := sdk.ValidateDenom(v.UnitDenom); err != nil {
		return fmt.Errorf("invalid unit denom: %w", err)
	}
	if v.TotalAssets.IsNil() || v.TotalAssets.IsNegative() {
		return fmt.Errorf("total assets cannot be negative")
	}
	return nil
}

// Allocation is one instruction of an administrative allocation pass.
//
// If Target is a registered active asset, the only permitted action is an
// approval of Spender for Amount of the asset. If Target is a registered
// active strategy, the strategy is invoked with Amount and Data and its idle
// balance is refreshed afterwards. Any other target fails the whole batch.
type Allocation struct {
	Target  string
	Spender string
	Amount  sdkmath.Int
	Data    []byte
}

// Validate performs basic validation on an allocation instruction.
func (a Allocation) Validate() error {
	if a.Target == "" {
		return fmt.Errorf("allocation target cannot be empty")
	}
	if a.Amount.IsNil() || a.Amount.IsNegative() {
		return fmt.Errorf("allocation amount cannot be negative")
	}
	return nil
}
