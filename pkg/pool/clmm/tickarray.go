package clmm

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

var logTickBase = math.Log(1.0001)

// TickOffset returns the whole-tick distance from one sqrt price to
// another, floor(2 * log_1.0001(to/from)). Both prices are Q64.64; only
// their ratio matters.
func TickOffset(from, to uint128.Uint128) (int64, error) {
	if from.IsZero() || to.IsZero() {
		return 0, fmt.Errorf("tick offset undefined for zero sqrt price")
	}
	fromF, _ := new(big.Float).SetInt(from.Big()).Float64()
	toF, _ := new(big.Float).SetInt(to.Big()).Float64()
	return int64(math.Floor(2 * math.Log(toF/fromF) / logTickBase)), nil
}

// ticksPerArray returns the tick span one array account covers.
func ticksPerArray(tickSpacing int64) int64 {
	return tickSpacing * TICK_ARRAY_SIZE
}

// TickArrayStartIndex returns the start index of the array containing
// tickIndex, flooring toward negative infinity so negative ticks land in
// the correct array.
func TickArrayStartIndex(tickIndex, tickSpacing int64) int64 {
	span := ticksPerArray(tickSpacing)
	idx := tickIndex / span
	if tickIndex < 0 && tickIndex%span != 0 {
		idx--
	}
	return idx * span
}

// DeriveTickArrayAddress derives the PDA for the tick array starting at
// startIndex: seeds = ["tick_array", pool, startIndex as i32 big-endian].
func DeriveTickArrayAddress(programID, pool solana.PublicKey, startIndex int64) (solana.PublicKey, error) {
	var idxBytes [4]byte
	binary.BigEndian.PutUint32(idxBytes[:], uint32(int32(startIndex)))

	seeds := [][]byte{
		[]byte(TICK_ARRAY_SEED),
		pool.Bytes(),
		idxBytes[:],
	}
	pda, _, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find tick array address: %w", err)
	}
	return pda, nil
}

// DeriveTickArraySequence derives up to count consecutive tick-array PDAs
// in the direction of travel, starting from the array containing
// currentTick. aToB walks toward lower ticks, the other direction toward
// higher ticks. Arrays beyond the protocol tick bounds are skipped.
func DeriveTickArraySequence(programID, pool solana.PublicKey, currentTick, tickSpacing int64, aToB bool, count int) ([]solana.PublicKey, []int64, error) {
	span := ticksPerArray(tickSpacing)
	start := TickArrayStartIndex(currentTick, tickSpacing)

	dir := span
	if aToB {
		dir = -span
	}

	addrs := make([]solana.PublicKey, 0, count)
	starts := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		idx := start + int64(i)*dir
		if idx > MAX_TICK || idx+span < MIN_TICK {
			break
		}
		pda, err := DeriveTickArrayAddress(programID, pool, idx)
		if err != nil {
			return nil, nil, err
		}
		addrs = append(addrs, pda)
		starts = append(starts, idx)
	}
	if len(addrs) == 0 {
		return nil, nil, fmt.Errorf("no tick arrays derivable for tick %d spacing %d", currentTick, tickSpacing)
	}
	return addrs, starts, nil
}

// DeriveExBitmapAddress derives the tick-array bitmap extension PDA:
// seeds = ["pool_tick_array_bitmap_extension", pool].
func DeriveExBitmapAddress(programID, pool solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(EX_BITMAP_SEED),
		pool.Bytes(),
	}
	pda, _, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find bitmap extension address: %w", err)
	}
	return pda, nil
}
