package engine

import (
	"errors"
	"fmt"

	"lukechampine.com/uint128"
)

// Failure taxonomy. Input errors fail fast before any ledger interaction;
// state-precondition errors are surfaced immediately and never retried
// here; transport errors are propagated so retry policy can live with the
// caller.
var (
	ErrMissingConfig = errors.New("missing or malformed configuration")

	ErrPoolNotFound          = errors.New("pool account not found")
	ErrDeserialization       = errors.New("pool account deserialization failed")
	ErrSegmentsUnavailable   = errors.New("active range segments unavailable")
	ErrRangeSegmentMissing   = errors.New("required range segment missing from snapshot")
	ErrInsufficientRentFunds = errors.New("insufficient funds for rent-exempt account creation")
	ErrInsufficientBalance   = errors.New("insufficient token balance")

	ErrTransport        = errors.New("transport failure")
	ErrComputeExhausted = errors.New("compute budget exhausted")
)

// StepError reports a failed swap step with enough context to re-plan: the
// zero-based step index and the last target price a prior step confirmed
// (the open price when no step confirmed).
type StepError struct {
	Step               int
	LastConfirmedPrice uint128.Uint128
	Err                error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("swap step %d failed (last confirmed sqrt price %s): %v",
		e.Step, e.LastConfirmedPrice.String(), e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
