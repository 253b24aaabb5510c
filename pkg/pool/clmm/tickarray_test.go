package clmm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestTickArrayStartIndex(t *testing.T) {
	cases := []struct {
		tick, spacing, want int64
	}{
		{0, 60, 0},
		{1, 60, 0},
		{3599, 60, 0},
		{3600, 60, 3600},
		{-1, 60, -3600},
		{-3600, 60, -3600},
		{-3601, 60, -7200},
		{120, 1, 120},
		{-17, 1, -60},
		{443635, 60, 442800},
	}
	for _, c := range cases {
		require.Equal(t, c.want, TickArrayStartIndex(c.tick, c.spacing),
			"tick=%d spacing=%d", c.tick, c.spacing)
	}
}

func TestDeriveTickArrayAddressDeterministic(t *testing.T) {
	pool := RAYDIUM_CLMM_PROGRAM_ID // any fixed key works as a pool stand-in

	a, err := DeriveTickArrayAddress(RAYDIUM_CLMM_PROGRAM_ID, pool, -3600)
	require.NoError(t, err)
	b, err := DeriveTickArrayAddress(RAYDIUM_CLMM_PROGRAM_ID, pool, -3600)
	require.NoError(t, err)
	require.Equal(t, a, b)

	other, err := DeriveTickArrayAddress(RAYDIUM_CLMM_PROGRAM_ID, pool, 0)
	require.NoError(t, err)
	require.NotEqual(t, a, other)
}

func TestDeriveTickArraySequenceWalksDirection(t *testing.T) {
	pool := RAYDIUM_CLMM_PROGRAM_ID

	_, starts, err := DeriveTickArraySequence(RAYDIUM_CLMM_PROGRAM_ID, pool, 100, 60, false, 3)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 3600, 7200}, starts)

	_, starts, err = DeriveTickArraySequence(RAYDIUM_CLMM_PROGRAM_ID, pool, 100, 60, true, 3)
	require.NoError(t, err)
	require.Equal(t, []int64{0, -3600, -7200}, starts)
}

func TestDeriveTickArraySequenceStopsAtBounds(t *testing.T) {
	pool := RAYDIUM_CLMM_PROGRAM_ID

	addrs, starts, err := DeriveTickArraySequence(RAYDIUM_CLMM_PROGRAM_ID, pool, 443600, 60, false, 5)
	require.NoError(t, err)
	require.Equal(t, len(starts), len(addrs))
	for _, s := range starts {
		require.LessOrEqual(t, s, int64(MAX_TICK))
	}
	require.Less(t, len(addrs), 5)
}

func TestTickOffset(t *testing.T) {
	one := uint128.From64(1).Lsh(64)

	off, err := TickOffset(one, one)
	require.NoError(t, err)
	require.Equal(t, int64(0), off)

	// Ratio 1.9 exactly: 2*ln(1.9)/ln(1.0001) = 12837.72.
	from := uint128.From64(10).Lsh(60)
	to := uint128.From64(19).Lsh(60)

	off, err = TickOffset(from, to)
	require.NoError(t, err)
	require.Equal(t, int64(12837), off)

	off, err = TickOffset(to, from)
	require.NoError(t, err)
	require.Equal(t, int64(-12838), off)

	_, err = TickOffset(uint128.Zero, one)
	require.Error(t, err)
	_, err = TickOffset(one, uint128.Zero)
	require.Error(t, err)
}
