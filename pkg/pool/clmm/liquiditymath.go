package clmm

import (
	"fmt"
	"math/big"

	cosmath "cosmossdk.io/math"
	"lukechampine.com/uint128"
)

// MulDivFloor computes a*b/denominator rounding toward zero.
func MulDivFloor(a, b, denominator cosmath.Int) cosmath.Int {
	if denominator.IsZero() {
		panic("division by zero")
	}
	return a.Mul(b).Quo(denominator)
}

// MulDivCeil computes a*b/denominator rounding away from zero.
func MulDivCeil(a, b, denominator cosmath.Int) cosmath.Int {
	if denominator.IsZero() {
		panic("division by zero")
	}
	numerator := a.Mul(b).Add(denominator.Sub(cosmath.OneInt()))
	return numerator.Quo(denominator)
}

// TokenAmountA returns the token-0 amount held by liquidity between two
// sqrt prices: L<<64 * (pb - pa) / (pb * pa).
func TokenAmountA(sqrtPriceA, sqrtPriceB, liquidity *big.Int, roundUp bool) *big.Int {
	pa := new(big.Int).Set(sqrtPriceA)
	pb := new(big.Int).Set(sqrtPriceB)
	if pa.Cmp(pb) > 0 {
		pa, pb = pb, pa
	}
	if pa.Sign() <= 0 {
		panic("sqrt price must be greater than 0")
	}

	numerator1 := new(big.Int).Lsh(liquidity, U64Resolution)
	numerator2 := new(big.Int).Sub(pb, pa)

	if roundUp {
		temp := MulDivCeil(
			cosmath.NewIntFromBigInt(numerator1),
			cosmath.NewIntFromBigInt(numerator2),
			cosmath.NewIntFromBigInt(pb),
		)
		return MulDivCeil(temp, cosmath.OneInt(), cosmath.NewIntFromBigInt(pa)).BigInt()
	}
	temp := MulDivFloor(
		cosmath.NewIntFromBigInt(numerator1),
		cosmath.NewIntFromBigInt(numerator2),
		cosmath.NewIntFromBigInt(pb),
	)
	return temp.Quo(cosmath.NewIntFromBigInt(pa)).BigInt()
}

// TokenAmountB returns the token-1 amount held by liquidity between two
// sqrt prices: L * (pb - pa) >> 64.
func TokenAmountB(sqrtPriceA, sqrtPriceB, liquidity *big.Int, roundUp bool) *big.Int {
	pa := new(big.Int).Set(sqrtPriceA)
	pb := new(big.Int).Set(sqrtPriceB)
	if pa.Cmp(pb) > 0 {
		pa, pb = pb, pa
	}
	if pa.Sign() <= 0 {
		panic("sqrt price must be greater than 0")
	}

	diff := new(big.Int).Sub(pb, pa)
	denominator := new(big.Int).Lsh(big.NewInt(1), U64Resolution)

	if roundUp {
		return MulDivCeil(
			cosmath.NewIntFromBigInt(liquidity),
			cosmath.NewIntFromBigInt(diff),
			cosmath.NewIntFromBigInt(denominator),
		).BigInt()
	}
	return MulDivFloor(
		cosmath.NewIntFromBigInt(liquidity),
		cosmath.NewIntFromBigInt(diff),
		cosmath.NewIntFromBigInt(denominator),
	).BigInt()
}

// EstimateStepOutput estimates the output amount of a swap that moves the
// pool price from fromSqrt to toSqrt against constant liquidity. Moving the
// price up pays out token 0; moving it down pays out token 1. The estimate
// ignores tick crossings, which is acceptable for the small excursions a
// candle plan makes inside one liquidity range.
func EstimateStepOutput(liquidity, fromSqrt, toSqrt uint128.Uint128) (cosmath.Int, error) {
	if liquidity.IsZero() {
		return cosmath.Int{}, fmt.Errorf("zero liquidity")
	}
	if fromSqrt.Equals(toSqrt) {
		return cosmath.ZeroInt(), nil
	}

	l := liquidity.Big()
	from := fromSqrt.Big()
	to := toSqrt.Big()

	var out *big.Int
	if toSqrt.Cmp(fromSqrt) > 0 {
		out = TokenAmountA(from, to, l, false)
	} else {
		out = TokenAmountB(to, from, l, false)
	}
	return cosmath.NewIntFromBigInt(out), nil
}

// MinOutputForSlippage converts a slippage tolerance into a minimum-output
// bound: expected * (10000 - bps) / 10000, truncating.
func MinOutputForSlippage(expected cosmath.Int, slippageBps uint16) cosmath.Int {
	return expected.Mul(cosmath.NewInt(10000 - int64(slippageBps))).Quo(cosmath.NewInt(10000))
}
