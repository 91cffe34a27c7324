package utils

import (
	"fmt"

	"cosmossdk.io/math"
)

// FeeScaleBps is the basis-point denominator representing 100%.
const FeeScaleBps uint64 = 100_000_000

// FeeOnRaw computes the fee to add on top of a raw (net) amount, so that
// subtracting the fee from the resulting gross yields exactly the raw amount:
//
//	fee = ceil( amount * feeBps / (FeeScaleBps - feeBps) )
//
// Used on the withdraw path, where the caller names the net amount the
// receiver must get and the vault charges shares for net + fee.
// Error if feeBps >= FeeScaleBps or amount is negative.
func FeeOnRaw(amount math.Int, feeBps uint64) (math.Int, error) {
	if err := validateFeeInputs(amount, feeBps); err != nil {
		return math.Int{}, err
	}
	if feeBps == 0 || amount.IsZero() {
		return math.ZeroInt(), nil
	}
	den := math.NewIntFromUint64(FeeScaleBps - feeBps)
	return MulDiv(amount, math.NewIntFromUint64(feeBps), den, RoundUp)
}

// FeeOnTotal computes the fee already embedded in a gross amount:
//
//	fee = ceil( amount * feeBps / FeeScaleBps )
//
// Used on the redeem path, where shares fix the gross value and the receiver
// gets gross - fee. Not interchangeable with FeeOnRaw: applying FeeOnTotal to
// a net amount under-charges and FeeOnRaw to a gross amount over-charges.
// Error if feeBps >= FeeScaleBps or amount is negative.
func FeeOnTotal(amount math.Int, feeBps uint64) (math.Int, error) {
	if err := validateFeeInputs(amount, feeBps); err != nil {
		return math.Int{}, err
	}
	if feeBps == 0 || amount.IsZero() {
		return math.ZeroInt(), nil
	}
	return MulDiv(amount, math.NewIntFromUint64(feeBps), math.NewIntFromUint64(FeeScaleBps), RoundUp)
}

func validateFeeInputs(amount math.Int, feeBps uint64) error {
	if amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("invalid input: negative values not allowed")
	}
	if feeBps >= FeeScaleBps {
		return fmt.Errorf("fee rate %d must be below %d", feeBps, FeeScaleBps)
	}
	return nil
}
