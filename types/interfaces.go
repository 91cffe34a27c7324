package types

import (
	context "context"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RateProvider returns the exchange rate of an asset into the unit of
// account. Rates are scaled by 10^decimals of the queried asset, so a rate of
// 10^decimals means 1:1. Implementations may fail; failures propagate to the
// caller unchanged.
type RateProvider interface {
	GetRate(ctx context.Context, assetID string) (sdkmath.Int, error)
}

// YieldStrategy is a yield-bearing destination the vault can allocate funds
// to. The buffer strategy additionally serves as the fallback liquidity
// source for withdrawals and must share the vault's primary asset.
type YieldStrategy interface {
	// Address identifies the strategy in the registry.
	Address() string

	// AssetDenom is the asset the strategy accepts and pays out.
	AssetDenom() string

	// BalanceOf reports the position held by owner, in strategy units.
	BalanceOf(ctx context.Context, owner string) (sdkmath.Int, error)

	// PreviewWithdraw reports how much of the requested asset amount the
	// strategy could currently supply to the vault.
	PreviewWithdraw(ctx context.Context, assets sdkmath.Int) (sdkmath.Int, error)

	// Withdraw moves assets out of the strategy to receiver, reducing
	// owner's position. Returns the strategy units consumed.
	Withdraw(ctx context.Context, assets sdkmath.Int, receiver, owner string) (sdkmath.Int, error)

	// Invoke executes an allocation instruction against the strategy.
	Invoke(ctx context.Context, amount sdkmath.Int, data []byte) error
}

// TokenKeeper defines the fungible-token functionality needed by the vault,
// for the accepted assets and for the vault's own share token. Every call is
// expected to either fully apply or fail without effect.
type TokenKeeper interface {
	SendCoins(ctx context.Context, fromAddr, toAddr string, amt sdk.Coins) error
	GetBalance(ctx context.Context, addr, denom string) sdk.Coin
	GetSupply(ctx context.Context, denom string) sdk.Coin
	MintCoin(ctx context.Context, toAddr string, coin sdk.Coin) error
	BurnCoin(ctx context.Context, fromAddr string, coin sdk.Coin) error
	Approve(ctx context.Context, owner, spender string, coin sdk.Coin) error
	SpendAllowance(ctx context.Context, owner, spender string, coin sdk.Coin) error
}

// EventListener receives the typed events emitted by the vault.
type EventListener interface {
	Handle(event any)
}

// RedeemLimiter computes the maximum share amount an owner may redeem.
//
// The default limiter returns the owner's full share balance regardless of
// actual withdrawable liquidity. This is a known simplification; asynchronous
// withdrawal designs can install a different limiter without touching the
// redeem flow.
type RedeemLimiter interface {
	MaxRedeem(ctx context.Context, owner string) (sdkmath.Int, error)
}
