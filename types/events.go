package types

import (
	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// EventDeposit is emitted when assets are deposited for shares, by both the
// deposit and mint entry points.
type EventDeposit struct {
	Caller       string
	Receiver     string
	AmountIn     string
	SharesMinted string
}

// NewEventDeposit creates a new EventDeposit event.
func NewEventDeposit(caller, receiver string, amountIn, sharesMinted sdk.Coin) *EventDeposit {
	return &EventDeposit{
		Caller:       caller,
		Receiver:     receiver,
		AmountIn:     amountIn.String(),
		SharesMinted: sharesMinted.String(),
	}
}

// EventWithdraw is emitted when assets leave the vault, by both the withdraw
// and redeem entry points.
type EventWithdraw struct {
	Caller       string
	Receiver     string
	Owner        string
	AmountOut    string
	SharesBurned string
	Fee          string
}

// NewEventWithdraw creates a new EventWithdraw event.
func NewEventWithdraw(caller, receiver, owner string, amountOut, sharesBurned sdk.Coin, fee sdkmath.Int) *EventWithdraw {
	return &EventWithdraw{
		Caller:       caller,
		Receiver:     receiver,
		Owner:        owner,
		AmountOut:    amountOut.String(),
		SharesBurned: sharesBurned.String(),
		Fee:          fee.String(),
	}
}

// EventBufferPull is emitted when a withdrawal shortfall is pulled from the
// buffer strategy before payout.
type EventBufferPull struct {
	Strategy  string
	Shortfall string
}

// NewEventBufferPull creates a new EventBufferPull event.
func NewEventBufferPull(strategy string, shortfall sdk.Coin) *EventBufferPull {
	return &EventBufferPull{
		Strategy:  strategy,
		Shortfall: shortfall.String(),
	}
}

// EventAssetAdded is emitted when a new deposit asset is registered.
type EventAssetAdded struct {
	Denom    string
	Decimals uint8
}

// NewEventAssetAdded creates a new EventAssetAdded event.
func NewEventAssetAdded(denom string, decimals uint8) *EventAssetAdded {
	return &EventAssetAdded{Denom: denom, Decimals: decimals}
}

// EventAssetToggled is emitted when an asset's activity flag changes.
type EventAssetToggled struct {
	Denom  string
	Active bool
}

// NewEventAssetToggled creates a new EventAssetToggled event.
func NewEventAssetToggled(denom string, active bool) *EventAssetToggled {
	return &EventAssetToggled{Denom: denom, Active: active}
}

// EventStrategyToggled is emitted when a strategy's activity flag changes.
type EventStrategyToggled struct {
	Address string
	Active  bool
}

// NewEventStrategyToggled creates a new EventStrategyToggled event.
func NewEventStrategyToggled(address string, active bool) *EventStrategyToggled {
	return &EventStrategyToggled{Address: address, Active: active}
}

// EventStrategyAdded is emitted when a new strategy is registered.
type EventStrategyAdded struct {
	Address  string
	Decimals uint8
}

// NewEventStrategyAdded creates a new EventStrategyAdded event.
func NewEventStrategyAdded(address string, decimals uint8) *EventStrategyAdded {
	return &EventStrategyAdded{Address: address, Decimals: decimals}
}

// EventPauseChanged is emitted when the vault is paused or unpaused.
type EventPauseChanged struct {
	Paused bool
}

// NewEventPauseChanged creates a new EventPauseChanged event.
func NewEventPauseChanged(paused bool) *EventPauseChanged {
	return &EventPauseChanged{Paused: paused}
}

// EventRateProviderUpdated is emitted when the rate provider is replaced.
type EventRateProviderUpdated struct{}

// EventBufferStrategyUpdated is emitted when the buffer strategy is replaced.
type EventBufferStrategyUpdated struct {
	Address string
}

// NewEventBufferStrategyUpdated creates a new EventBufferStrategyUpdated event.
func NewEventBufferStrategyUpdated(address string) *EventBufferStrategyUpdated {
	return &EventBufferStrategyUpdated{Address: address}
}

// EventWithdrawalFeeUpdated is emitted when the base withdrawal fee changes.
type EventWithdrawalFeeUpdated struct {
	FeeBps uint64
}

// NewEventWithdrawalFeeUpdated creates a new EventWithdrawalFeeUpdated event.
func NewEventWithdrawalFeeUpdated(feeBps uint64) *EventWithdrawalFeeUpdated {
	return &EventWithdrawalFeeUpdated{FeeBps: feeBps}
}

// EventTotalAssetsRefreshed is emitted after a full accounting resync.
type EventTotalAssetsRefreshed struct {
	TotalAssets string
}

// NewEventTotalAssetsRefreshed creates a new EventTotalAssetsRefreshed event.
func NewEventTotalAssetsRefreshed(totalAssets sdkmath.Int) *EventTotalAssetsRefreshed {
	return &EventTotalAssetsRefreshed{TotalAssets: totalAssets.String()}
}

// EventAllocationProcessed is emitted after a successful allocation batch.
type EventAllocationProcessed struct {
	Targets int
}

// NewEventAllocationProcessed creates a new EventAllocationProcessed event.
func NewEventAllocationProcessed(targets int) *EventAllocationProcessed {
	return &EventAllocationProcessed{Targets: targets}
}
