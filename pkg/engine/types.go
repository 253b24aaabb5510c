package engine

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// PoolSnapshot is a normalized, read-once view of a concentrated-liquidity
// pool account. It is immutable after construction; a new snapshot must be
// read for every execution pass.
type PoolSnapshot struct {
	PoolAddress        solana.PublicKey
	ConfigAddress      solana.PublicKey
	MintA              solana.PublicKey
	MintB              solana.PublicKey
	VaultA             solana.PublicKey
	VaultB             solana.PublicKey
	ObservationAddress solana.PublicKey

	// CurrentSqrtPrice is the pool price in Q64.64 square-root fixed point.
	CurrentSqrtPrice uint128.Uint128
	Liquidity        uint128.Uint128
	TickCurrent      int32
	TickSpacing      uint16

	// ActiveRangeSegments are the tick-array accounts covering the price
	// path a swap may traverse. They must be passed as writable remaining
	// accounts on every swap instruction.
	ActiveRangeSegments []solana.PublicKey

	// SegmentsDerived is true when ActiveRangeSegments was derived from the
	// pool's tick index rather than supplied by an indexer. Derived
	// segments cover the forward direction only; callers planning a wider
	// excursion must supply segments from an authoritative source.
	SegmentsDerived bool
}

// TradingIdentity is the deterministically derived account that holds funds
// for swap execution on behalf of an owner.
type TradingIdentity struct {
	Address solana.PublicKey
	Owner   solana.PublicKey
	Bump    uint8
}

// HoldingAccount associates an owner (a wallet or a trading identity) with
// a token mint. At most one holding account exists per (owner, mint) pair.
type HoldingAccount struct {
	Address solana.PublicKey
	Owner   solana.PublicKey
	Mint    solana.PublicKey
}

// TokenBalance is a raw on-ledger token amount plus the mint's decimals.
type TokenBalance struct {
	RawAmount uint64
	Decimals  uint8
}

// SwapStep is one planned swap operation. MaxInput == 0 means unbounded
// input; MinOutput == 0 means no minimum-output protection.
type SwapStep struct {
	TargetSqrtPrice uint128.Uint128
	MaxInput        uint64
	MinOutput       uint64
	InputMint       solana.PublicKey
	OutputMint      solana.PublicKey
}

// StepState tracks a swap step through its lifecycle.
type StepState int

const (
	StepPending StepState = iota
	StepSubmitted
	StepConfirmed
	StepFailed
)

func (s StepState) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepSubmitted:
		return "submitted"
	case StepConfirmed:
		return "confirmed"
	case StepFailed:
		return "failed"
	}
	return "unknown"
}

// SwapResult is the outcome of one executed step. InputMint and
// OutputMint are zero for steps settled locally without a swap.
type SwapResult struct {
	Step              int
	State             StepState
	TransactionID     solana.Signature
	AchievedSqrtPrice uint128.Uint128
	InputMint         solana.PublicKey
	OutputMint        solana.PublicKey
	Err               error
}

// Ledger is the read side of the ledger collaborator. Implementations must
// distinguish "account absent" (found == false, err == nil) from transport
// failure (err != nil).
type Ledger interface {
	GetAccount(ctx context.Context, addr solana.PublicKey) (data []byte, found bool, err error)
	GetTokenBalance(ctx context.Context, addr solana.PublicKey) (TokenBalance, error)
}

// Submitter batches instructions into one transaction, attaches the
// compute-budget request, signs, submits and waits for a terminal
// confirmation status. A zero computeUnitLimit means the default budget.
type Submitter interface {
	Submit(ctx context.Context, instrs []solana.Instruction, signers []solana.PrivateKey, computeUnitLimit uint32) (solana.Signature, error)
}
