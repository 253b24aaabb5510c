// Package poolstate turns raw concentrated-liquidity pool accounts into
// normalized snapshots the execution engine consumes.
package poolstate

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/tagchart/tagchart/pkg/engine"
	"github.com/tagchart/tagchart/pkg/pool/clmm"
)

// segmentsPerDirection is how many tick-array accounts the raw path derives
// on each side of the current tick. Three arrays per side cover the price
// excursion of a single candle on every mainnet fee tier.
const segmentsPerDirection = 3

// Reader fetches and decodes pool accounts. It holds no mutable state;
// concurrent reads of different pools are safe.
type Reader struct {
	ledger    engine.Ledger
	programID solana.PublicKey
	log       logrus.FieldLogger
}

// NewReader returns a Reader for pools owned by programID.
func NewReader(ledger engine.Ledger, programID solana.PublicKey, log logrus.FieldLogger) *Reader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reader{ledger: ledger, programID: programID, log: log}
}

// ReadPool fetches the pool account and decodes it into a snapshot. The
// range segment list is derived from the pool's tick index, covering
// segmentsPerDirection arrays on each side of the current price.
func (r *Reader) ReadPool(ctx context.Context, poolAddress solana.PublicKey) (*engine.PoolSnapshot, error) {
	data, found, err := r.ledger.GetAccount(ctx, poolAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool %s: %w", poolAddress, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", engine.ErrPoolNotFound, poolAddress)
	}

	var state clmm.PoolState
	if err := state.Decode(data); err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrDeserialization, err)
	}
	if !state.IsSwapEnabled() {
		return nil, fmt.Errorf("pool %s has swapping disabled (status %#x)", poolAddress, state.Status)
	}

	segments, err := r.deriveSegments(poolAddress, int64(state.TickCurrent), int64(state.TickSpacing))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrSegmentsUnavailable, err)
	}

	snapshot := &engine.PoolSnapshot{
		PoolAddress:         poolAddress,
		ConfigAddress:       state.AmmConfig,
		MintA:               state.TokenMint0,
		MintB:               state.TokenMint1,
		VaultA:              state.TokenVault0,
		VaultB:              state.TokenVault1,
		ObservationAddress:  state.ObservationKey,
		CurrentSqrtPrice:    state.SqrtPriceX64,
		Liquidity:           state.Liquidity,
		TickCurrent:         state.TickCurrent,
		TickSpacing:         state.TickSpacing,
		ActiveRangeSegments: segments,
		SegmentsDerived:     true,
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"pool":       poolAddress,
		"sqrt_price": state.SqrtPriceX64.String(),
		"tick":       state.TickCurrent,
		"segments":   len(segments),
	}).Debug("pool snapshot read")
	return snapshot, nil
}

// deriveSegments returns tick-array addresses covering both directions from
// the current tick, deduplicated, nearest first.
func (r *Reader) deriveSegments(pool solana.PublicKey, currentTick, tickSpacing int64) ([]solana.PublicKey, error) {
	up, _, err := clmm.DeriveTickArraySequence(r.programID, pool, currentTick, tickSpacing, false, segmentsPerDirection)
	if err != nil {
		return nil, err
	}
	down, _, err := clmm.DeriveTickArraySequence(r.programID, pool, currentTick, tickSpacing, true, segmentsPerDirection)
	if err != nil {
		return nil, err
	}

	seen := make(map[solana.PublicKey]struct{}, len(up)+len(down))
	segments := make([]solana.PublicKey, 0, len(up)+len(down))
	for _, addr := range append(up, down...) {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		segments = append(segments, addr)
	}
	return segments, nil
}

// IndexedPool is an indexer-shaped pool description, as served by pool SDK
// or HTTP APIs. Field names differ from the on-ledger layout; semantics do
// not.
type IndexedPool struct {
	ID           solana.PublicKey
	AmmConfig    solana.PublicKey
	MintA        solana.PublicKey
	MintB        solana.PublicKey
	VaultA       solana.PublicKey
	VaultB       solana.PublicKey
	Observation  solana.PublicKey
	SqrtPriceX64 uint128.Uint128
	Liquidity    uint128.Uint128
	TickCurrent  int32
	TickSpacing  uint16

	// TickArrays is the indexer-supplied segment list. When empty the
	// normalizer falls back to tick-index derivation.
	TickArrays []solana.PublicKey
}

// NormalizeSnapshot converts an indexer-shaped pool into the same snapshot
// shape ReadPool produces.
func (r *Reader) NormalizeSnapshot(p IndexedPool) (*engine.PoolSnapshot, error) {
	snapshot := &engine.PoolSnapshot{
		PoolAddress:         p.ID,
		ConfigAddress:       p.AmmConfig,
		MintA:               p.MintA,
		MintB:               p.MintB,
		VaultA:              p.VaultA,
		VaultB:              p.VaultB,
		ObservationAddress:  p.Observation,
		CurrentSqrtPrice:    p.SqrtPriceX64,
		Liquidity:           p.Liquidity,
		TickCurrent:         p.TickCurrent,
		TickSpacing:         p.TickSpacing,
		ActiveRangeSegments: p.TickArrays,
	}
	if len(p.TickArrays) == 0 {
		segments, err := r.deriveSegments(p.ID, int64(p.TickCurrent), int64(p.TickSpacing))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", engine.ErrSegmentsUnavailable, err)
		}
		snapshot.ActiveRangeSegments = segments
		snapshot.SegmentsDerived = true
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
