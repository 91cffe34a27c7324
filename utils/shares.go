package utils

import (
	"fmt"

	"cosmossdk.io/math"
)

// Virtual offsets applied to every share-price conversion.
//
// The share supply is offset by 10^decimalsOffset virtual shares and total
// assets by one virtual unit. Near an empty vault this makes the first
// depositor's effective price slightly worse than raw division, which is the
// standard defense against share-price inflation attacks: an attacker can no
// longer donate assets to an empty vault and round later depositors down to
// zero shares.
//
// IMPORTANT:
//   - The offset is parametric. Deployments to date use zero, which still
//     leaves one virtual share and one virtual asset unit in every ratio.
//   - Both conversions use exact integer arithmetic; the caller chooses the
//     rounding direction per flow.

// VirtualShares returns the share-supply offset, 10^decimalsOffset.
func VirtualShares(decimalsOffset uint8) math.Int {
	return Pow10(decimalsOffset)
}

// CalculateSharesFromUnits converts a unit-of-account value into shares.
//
// Formula (integer, rounded per the caller):
//
//	shares = units * (totalShares + 10^decimalsOffset) / (totalAssets + 1)
//
// With an empty vault (totalShares == 0, totalAssets == 0) the ratio is
// 10^decimalsOffset / 1, so the first deposit never divides by zero.
// Error if any input is negative.
func CalculateSharesFromUnits(
	units math.Int,
	totalShares math.Int,
	totalAssets math.Int,
	decimalsOffset uint8,
	rounding Rounding,
) (math.Int, error) {
	if err := validateTotals(units, totalShares, totalAssets); err != nil {
		return math.Int{}, err
	}
	if units.IsZero() {
		return math.ZeroInt(), nil
	}

	ts := totalShares.Add(VirtualShares(decimalsOffset))
	ta := totalAssets.Add(math.OneInt())
	return MulDiv(units, ts, ta, rounding)
}

// CalculateUnitsFromShares converts a share amount into its unit-of-account
// value, the algebraic inverse direction of CalculateSharesFromUnits:
//
//	units = shares * (totalAssets + 1) / (totalShares + 10^decimalsOffset)
//
// Redeem and withdraw-preview paths round down so floor never creates value;
// mint and deposit-preview paths round up so the vault never under-charges.
// Error if any input is negative.
func CalculateUnitsFromShares(
	shares math.Int,
	totalShares math.Int,
	totalAssets math.Int,
	decimalsOffset uint8,
	rounding Rounding,
) (math.Int, error) {
	if err := validateTotals(shares, totalShares, totalAssets); err != nil {
		return math.Int{}, err
	}
	if shares.IsZero() {
		return math.ZeroInt(), nil
	}

	ta := totalAssets.Add(math.OneInt())
	ts := totalShares.Add(VirtualShares(decimalsOffset))
	return MulDiv(shares, ta, ts, rounding)
}

func validateTotals(amount, totalShares, totalAssets math.Int) error {
	for _, v := range []math.Int{amount, totalShares, totalAssets} {
		if v.IsNil() {
			return fmt.Errorf("invalid input: nil values not allowed")
		}
		if v.IsNegative() {
			return fmt.Errorf("invalid input: negative values not allowed")
		}
	}
	return nil
}
