package types

import "cosmossdk.io/errors"

var (
	// ErrAccessDenied is returned when the caller does not hold the required capability.
	ErrAccessDenied = errors.Register(ModuleName, 2, "access denied")

	// ErrInvalidState is returned when an operation is attempted while the vault is
	// paused, or while required configuration (rate provider, buffer strategy) is unset.
	ErrInvalidState = errors.Register(ModuleName, 3, "invalid vault state")

	// ErrInvalidAsset is returned when an unknown or inactive asset is referenced.
	ErrInvalidAsset = errors.Register(ModuleName, 4, "invalid asset")

	// ErrInvalidStrategy is returned when an unknown or inactive strategy is referenced.
	ErrInvalidStrategy = errors.Register(ModuleName, 5, "invalid strategy")

	// ErrLimitExceeded is returned when a withdraw or redeem request exceeds the
	// computed maximum for the owner.
	ErrLimitExceeded = errors.Register(ModuleName, 6, "limit exceeded")

	// ErrExternalCall is returned when a downstream token transfer, strategy call,
	// or allocation target call fails. The underlying reason is wrapped.
	ErrExternalCall = errors.Register(ModuleName, 7, "external call failed")

	// ErrArithmetic is returned on overflow or an otherwise impossible computation.
	ErrArithmetic = errors.Register(ModuleName, 8, "arithmetic failure")

	// ErrRateZero is returned when a conversion would divide by a zero exchange rate.
	ErrRateZero = errors.Register(ModuleName, 9, "rate is zero")

	// ErrReentrantCall is returned when a mutating entry point is invoked while
	// another one is still executing.
	ErrReentrantCall = errors.Register(ModuleName, 10, "reentrant call")

	// ErrInvalidAmount is returned when an amount argument is zero or negative.
	ErrInvalidAmount = errors.Register(ModuleName, 11, "invalid amount")

	// ErrInvalidInput is returned for malformed identifiers and configuration values.
	ErrInvalidInput = errors.Register(ModuleName, 12, "invalid input")
)
