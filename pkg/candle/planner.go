// Package candle plans the ordered price targets whose execution trace
// draws one OHLC candle: open at the current price, then high, low and
// close reached by successive price-targeted swaps.
package candle

import (
	"fmt"
	"math/big"

	"lukechampine.com/uint128"
)

const bpsDenominator = 10_000

// Shape describes a candle as basis-point offsets from the open price.
type Shape struct {
	HighBps  int64
	LowBps   int64
	CloseBps int64
}

// Validate enforces the bullish shape contract: every offset is
// non-negative so no target undercuts the open, and the high/low/close
// ordering is a well-formed candle.
func (s Shape) Validate() error {
	if s.HighBps < 0 || s.LowBps < 0 || s.CloseBps < 0 {
		return fmt.Errorf("candle shape offsets must be non-negative, got high=%d low=%d close=%d",
			s.HighBps, s.LowBps, s.CloseBps)
	}
	if s.HighBps < s.CloseBps || s.CloseBps < s.LowBps {
		return fmt.Errorf("candle shape must order high >= close >= low, got high=%d low=%d close=%d",
			s.HighBps, s.LowBps, s.CloseBps)
	}
	return nil
}

// CandlePlan is an ordered list of sqrt-price targets. Targets follow the
// wick-first order high, low, close; executing them in sequence sweeps the
// full candle range before settling on the close.
type CandlePlan struct {
	Open    uint128.Uint128
	Targets []uint128.Uint128
}

// Plan computes the targets for a candle of the given shape around the
// current sqrt price. Pure and deterministic.
func Plan(currentSqrtPrice uint128.Uint128, shape Shape) (CandlePlan, error) {
	if err := shape.Validate(); err != nil {
		return CandlePlan{}, err
	}
	return PlanOffsets(currentSqrtPrice, []int64{shape.HighBps, shape.LowBps, shape.CloseBps})
}

// PlanOffsets computes one target per offset, preserving caller order. A
// zero offset yields the open price itself.
func PlanOffsets(currentSqrtPrice uint128.Uint128, offsetsBps []int64) (CandlePlan, error) {
	if currentSqrtPrice.IsZero() {
		return CandlePlan{}, fmt.Errorf("current sqrt price must be non-zero")
	}
	targets := make([]uint128.Uint128, len(offsetsBps))
	for i, bps := range offsetsBps {
		target, err := applyOffset(currentSqrtPrice, bps)
		if err != nil {
			return CandlePlan{}, err
		}
		targets[i] = target
	}
	return CandlePlan{Open: currentSqrtPrice, Targets: targets}, nil
}

// applyOffset scales price by (10000 + bps) / 10000 with truncating
// division over the full 128-bit width.
func applyOffset(price uint128.Uint128, bps int64) (uint128.Uint128, error) {
	factor := bpsDenominator + bps
	if factor <= 0 {
		return uint128.Uint128{}, fmt.Errorf("offset %d bps leaves no price", bps)
	}

	scaled := new(big.Int).Mul(price.Big(), big.NewInt(factor))
	scaled.Quo(scaled, big.NewInt(bpsDenominator))
	if scaled.BitLen() > 128 {
		return uint128.Uint128{}, fmt.Errorf("offset %d bps overflows the price width", bps)
	}
	return uint128.FromBig(scaled), nil
}
