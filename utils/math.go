package utils

import (
	"fmt"
	"math/big"

	"cosmossdk.io/math"
)

// Rounding selects the direction integer division results are rounded in.
// Every conversion in the accounting core names its direction explicitly;
// floor is used on paths that pay out, ceiling on paths that charge in, so
// rounding dust always favors the vault.
type Rounding int

const (
	RoundDown Rounding = iota
	RoundUp
)

// MulDiv returns a * b / den with the requested rounding direction.
// All inputs must be non-negative and den must be positive. The intermediate
// product runs at arbitrary precision, so only the final quotient is range
// checked; a quotient outside the 256-bit integer range is an error, never a
// panic.
func MulDiv(a, b, den math.Int, rounding Rounding) (math.Int, error) {
	if a.IsNil() || b.IsNil() || den.IsNil() {
		return math.Int{}, fmt.Errorf("invalid input: nil values not allowed")
	}
	if a.IsNegative() || b.IsNegative() || den.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid input: negative values not allowed")
	}
	if den.IsZero() {
		return math.Int{}, fmt.Errorf("invalid input: division by zero")
	}

	prod := new(big.Int).Mul(a.BigInt(), b.BigInt())
	quo, rem := new(big.Int).QuoRem(prod, den.BigInt(), new(big.Int))
	if rounding == RoundUp && rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	if quo.BitLen() > math.MaxBitLen {
		return math.Int{}, fmt.Errorf("invalid result: %s * %s / %s overflows", a, b, den)
	}
	return math.NewIntFromBigInt(quo), nil
}

// Pow10 returns 10^exp as an Int.
func Pow10(exp uint8) math.Int {
	return math.NewIntWithDecimal(1, int(exp))
}
