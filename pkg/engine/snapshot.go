package engine

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Validate checks the invariants every consumer of a snapshot relies on.
// It mirrors the pool-state checks the swap programs enforce on-ledger so
// broken pools are rejected before any instruction is built.
func (s *PoolSnapshot) Validate() error {
	if s.PoolAddress.IsZero() {
		return fmt.Errorf("%w: zero pool address", ErrDeserialization)
	}
	if s.MintA.IsZero() || s.MintB.IsZero() {
		return fmt.Errorf("%w: zero token mint", ErrDeserialization)
	}
	if s.VaultA.IsZero() || s.VaultB.IsZero() {
		return fmt.Errorf("%w: zero token vault", ErrDeserialization)
	}
	if s.CurrentSqrtPrice.IsZero() {
		return fmt.Errorf("%w: zero sqrt price", ErrDeserialization)
	}
	if s.TickSpacing == 0 {
		return fmt.Errorf("%w: zero tick spacing", ErrDeserialization)
	}
	return nil
}

// HasSegments reports whether the snapshot can back a swap at all.
func (s *PoolSnapshot) HasSegments() bool {
	return len(s.ActiveRangeSegments) > 0
}

// ContainsSegment reports whether addr is among the active range segments.
func (s *PoolSnapshot) ContainsSegment(addr solana.PublicKey) bool {
	for _, seg := range s.ActiveRangeSegments {
		if seg.Equals(addr) {
			return true
		}
	}
	return false
}
