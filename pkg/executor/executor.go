// Package executor drives a candle plan to completion: one price-targeted
// swap per target, strictly ordered, each confirmed before the next is
// submitted.
package executor

import (
	"context"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"lukechampine.com/uint128"

	"github.com/tagchart/tagchart/pkg/candle"
	"github.com/tagchart/tagchart/pkg/chartprog"
	"github.com/tagchart/tagchart/pkg/engine"
	"github.com/tagchart/tagchart/pkg/pool/clmm"
)

// DefaultComputeUnitLimit is the per-transaction compute budget requested
// for swap submissions.
const DefaultComputeUnitLimit = 400_000

// unboundedInput is the on-wire encoding of "no input bound".
const unboundedInput = math.MaxUint64

// Bounds caps what a single step may spend and what it must receive.
// MaxInput == 0 means unbounded input. MinOutput == 0 with a non-zero
// SlippageBps derives the output floor from the pool's liquidity quote.
type Bounds struct {
	MaxInput    uint64
	MinOutput   uint64
	SlippageBps uint16
}

// Session carries the signing wallet and the pre-provisioned accounts one
// execution pass swaps through.
type Session struct {
	Payer                solana.PrivateKey
	Identity             engine.TradingIdentity
	IdentityTokenAccount solana.PublicKey
	IdentityWsolAccount  solana.PublicKey
	AmmProgram           solana.PublicKey
}

// Executor submits swap steps through a Submitter. It is stateless across
// Execute calls; per-pass state lives on the stack.
type Executor struct {
	submitter        engine.Submitter
	log              logrus.FieldLogger
	computeUnitLimit uint32
}

// Option configures an Executor.
type Option func(*Executor)

// WithComputeUnitLimit overrides the per-transaction compute budget.
func WithComputeUnitLimit(limit uint32) Option {
	return func(e *Executor) {
		if limit > 0 {
			e.computeUnitLimit = limit
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

func New(submitter engine.Submitter, opts ...Option) *Executor {
	e := &Executor{
		submitter:        submitter,
		log:              logrus.StandardLogger(),
		computeUnitLimit: DefaultComputeUnitLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the plan one step per transaction. Step N+1 is never
// submitted before step N reaches a terminal state. On a step failure the
// results of all prior confirmed steps plus the failed step are returned
// together with a StepError; no further step is attempted.
func (e *Executor) Execute(ctx context.Context, plan candle.CandlePlan, snapshot *engine.PoolSnapshot, session Session, bounds Bounds) ([]engine.SwapResult, error) {
	if err := validatePass(plan, snapshot); err != nil {
		return nil, err
	}
	accounts := swapAccounts(snapshot, session)

	results := make([]engine.SwapResult, 0, len(plan.Targets))
	lastConfirmed := plan.Open

	for i, target := range plan.Targets {
		prev := plan.Open
		if i > 0 {
			prev = plan.Targets[i-1]
		}

		// A target equal to the step's starting price moves nothing; the
		// step is settled locally without a transaction.
		if target.Equals(prev) {
			e.log.WithField("step", i).Debug("target equals current price, step settled locally")
			results = append(results, engine.SwapResult{
				Step:              i,
				State:             engine.StepConfirmed,
				AchievedSqrtPrice: target,
			})
			lastConfirmed = target
			continue
		}

		step, err := e.resolveStep(snapshot, prev, target, bounds)
		if err == nil {
			err = e.checkSegmentCoverage(snapshot, session.AmmProgram, prev, target)
		}
		if err != nil {
			stepErr := &engine.StepError{Step: i, LastConfirmedPrice: lastConfirmed, Err: err}
			results = append(results, engine.SwapResult{
				Step:  i,
				State: engine.StepFailed,
				Err:   stepErr,
			})
			return results, stepErr
		}

		inst := chartprog.NewSingleTargetInstruction(
			step.TargetSqrtPrice, step.MaxInput, step.MinOutput,
			accounts, snapshot.ActiveRangeSegments)

		e.log.WithFields(logrus.Fields{
			"step":       i,
			"target":     target.String(),
			"input_mint": step.InputMint.String(),
			"state":      engine.StepSubmitted.String(),
		}).Info("submitting swap step")

		sig, err := e.submitter.Submit(ctx, []solana.Instruction{inst}, []solana.PrivateKey{session.Payer}, e.computeUnitLimit)
		if err != nil {
			stepErr := &engine.StepError{Step: i, LastConfirmedPrice: lastConfirmed, Err: err}
			results = append(results, engine.SwapResult{
				Step:          i,
				State:         engine.StepFailed,
				TransactionID: sig,
				InputMint:     step.InputMint,
				OutputMint:    step.OutputMint,
				Err:           stepErr,
			})
			return results, stepErr
		}

		results = append(results, engine.SwapResult{
			Step:              i,
			State:             engine.StepConfirmed,
			TransactionID:     sig,
			AchievedSqrtPrice: target,
			InputMint:         step.InputMint,
			OutputMint:        step.OutputMint,
		})
		lastConfirmed = target
		e.log.WithFields(logrus.Fields{
			"step":      i,
			"target":    target.String(),
			"signature": sig,
		}).Info("swap step confirmed")
	}
	return results, nil
}

// ExecuteBatched runs a three-target plan as a single transaction. All
// steps share one compute budget and confirm or fail together.
func (e *Executor) ExecuteBatched(ctx context.Context, plan candle.CandlePlan, snapshot *engine.PoolSnapshot, session Session, bounds Bounds) ([]engine.SwapResult, error) {
	if err := validatePass(plan, snapshot); err != nil {
		return nil, err
	}
	if len(plan.Targets) != 3 {
		return nil, fmt.Errorf("batched execution requires exactly 3 targets, got %d", len(plan.Targets))
	}
	accounts := swapAccounts(snapshot, session)

	var targets [3]uint128.Uint128
	var maxInputs, minOutputs [3]uint64
	var steps [3]engine.SwapStep
	prev := plan.Open
	for i, target := range plan.Targets {
		step, err := e.resolveStep(snapshot, prev, target, bounds)
		if err == nil {
			err = e.checkSegmentCoverage(snapshot, session.AmmProgram, prev, target)
		}
		if err != nil {
			return nil, &engine.StepError{Step: i, LastConfirmedPrice: plan.Open, Err: err}
		}
		steps[i] = step
		targets[i] = step.TargetSqrtPrice
		maxInputs[i] = step.MaxInput
		minOutputs[i] = step.MinOutput
		prev = target
	}
	inst := chartprog.NewSwapToPricesInstruction(targets, maxInputs, minOutputs,
		accounts, snapshot.ActiveRangeSegments)

	sig, err := e.submitter.Submit(ctx, []solana.Instruction{inst}, []solana.PrivateKey{session.Payer}, e.computeUnitLimit)
	if err != nil {
		stepErr := &engine.StepError{Step: 0, LastConfirmedPrice: plan.Open, Err: err}
		return []engine.SwapResult{{State: engine.StepFailed, TransactionID: sig, Err: stepErr}}, stepErr
	}

	results := make([]engine.SwapResult, len(plan.Targets))
	for i, target := range plan.Targets {
		results[i] = engine.SwapResult{
			Step:              i,
			State:             engine.StepConfirmed,
			TransactionID:     sig,
			AchievedSqrtPrice: target,
			InputMint:         steps[i].InputMint,
			OutputMint:        steps[i].OutputMint,
		}
	}
	return results, nil
}

func validatePass(plan candle.CandlePlan, snapshot *engine.PoolSnapshot) error {
	if len(plan.Targets) == 0 {
		return fmt.Errorf("empty candle plan")
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}
	if !snapshot.HasSegments() {
		return fmt.Errorf("%w: snapshot carries no range segments", engine.ErrSegmentsUnavailable)
	}
	return nil
}

// resolveStep fixes the direction and bounds of one step. Price-up steps
// spend the quote side (mint B), price-down steps spend the base side.
func (e *Executor) resolveStep(snapshot *engine.PoolSnapshot, prev, target uint128.Uint128, bounds Bounds) (engine.SwapStep, error) {
	up := target.Cmp(prev) > 0

	step := engine.SwapStep{
		TargetSqrtPrice: target,
		MaxInput:        bounds.MaxInput,
		MinOutput:       bounds.MinOutput,
	}
	if up {
		step.InputMint, step.OutputMint = snapshot.MintB, snapshot.MintA
	} else {
		step.InputMint, step.OutputMint = snapshot.MintA, snapshot.MintB
	}
	if step.MaxInput == 0 {
		step.MaxInput = unboundedInput
	}

	if step.MinOutput == 0 && bounds.SlippageBps > 0 {
		expected, err := clmm.EstimateStepOutput(snapshot.Liquidity, prev, target)
		if err != nil {
			return engine.SwapStep{}, fmt.Errorf("failed to quote step output: %w", err)
		}
		floor := clmm.MinOutputForSlippage(expected, bounds.SlippageBps).BigInt()
		if !floor.IsUint64() {
			return engine.SwapStep{}, fmt.Errorf("slippage floor %s exceeds uint64 range", floor)
		}
		step.MinOutput = floor.Uint64()
	}
	return step, nil
}

// checkSegmentCoverage verifies every tick array between the step's
// starting price and its target is among the snapshot's range segments.
// Submitting with a gap would fail on-ledger after fees; failing here
// costs nothing. Step prices are anchored to the snapshot's current tick
// through their ratio to the snapshot price.
func (e *Executor) checkSegmentCoverage(snapshot *engine.PoolSnapshot, ammProgram solana.PublicKey, prev, target uint128.Uint128) error {
	fromOffset, err := clmm.TickOffset(snapshot.CurrentSqrtPrice, prev)
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrRangeSegmentMissing, err)
	}
	toOffset, err := clmm.TickOffset(snapshot.CurrentSqrtPrice, target)
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrRangeSegmentMissing, err)
	}

	spacing := int64(snapshot.TickSpacing)
	start := clmm.TickArrayStartIndex(clampTick(int64(snapshot.TickCurrent)+fromOffset), spacing)
	end := clmm.TickArrayStartIndex(clampTick(int64(snapshot.TickCurrent)+toOffset), spacing)
	span := spacing * clmm.TICK_ARRAY_SIZE
	if end < start {
		span = -span
	}

	for idx := start; ; idx += span {
		addr, err := clmm.DeriveTickArrayAddress(ammProgram, snapshot.PoolAddress, idx)
		if err != nil {
			return fmt.Errorf("%w: %v", engine.ErrRangeSegmentMissing, err)
		}
		if !snapshot.ContainsSegment(addr) {
			return fmt.Errorf("%w: tick array %s (start index %d) not in snapshot", engine.ErrRangeSegmentMissing, addr, idx)
		}
		if idx == end {
			return nil
		}
	}
}

func clampTick(tick int64) int64 {
	if tick > clmm.MAX_TICK {
		return clmm.MAX_TICK
	}
	if tick < clmm.MIN_TICK {
		return clmm.MIN_TICK
	}
	return tick
}

func swapAccounts(snapshot *engine.PoolSnapshot, session Session) chartprog.SwapAccounts {
	return chartprog.SwapAccounts{
		Owner:            session.Payer.PublicKey(),
		TradingAccount:   session.Identity.Address,
		AmmProgram:       session.AmmProgram,
		AmmConfig:        snapshot.ConfigAddress,
		PoolState:        snapshot.PoolAddress,
		IdentityTokenAcc: session.IdentityTokenAccount,
		IdentityWsolAcc:  session.IdentityWsolAccount,
		VaultA:           snapshot.VaultA,
		VaultB:           snapshot.VaultB,
		MintA:            snapshot.MintA,
		MintB:            snapshot.MintB,
		Observation:      snapshot.ObservationAddress,
		TokenProgram2022: clmm.TOKEN_2022_PROGRAM_ID,
		MemoProgram:      clmm.MEMO_PROGRAM_ID,
	}
}
