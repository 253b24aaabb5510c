package chartprog

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// NewInitializeInstruction creates the trading account PDA for owner. A
// second initialize for the same owner fails on-ledger; callers check
// existence first.
func NewInitializeInstruction(owner, tradingAccount solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, true, true),
		solana.NewAccountMeta(tradingAccount, true, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, InitializeDiscriminator)
}

// DepositAccounts are the fixed accounts of a deposit or withdraw.
type DepositAccounts struct {
	Owner             solana.PublicKey
	TradingAccount    solana.PublicKey
	OwnerTokenAccount solana.PublicKey
	PDATokenAccount   solana.PublicKey
	TokenMint         solana.PublicKey
}

// NewDepositInstruction moves amount from the owner's holding account into
// the trading identity's holding account.
func NewDepositInstruction(acc DepositAccounts, amount uint64) (solana.Instruction, error) {
	return transferInstruction(DepositDiscriminator, acc, amount)
}

// NewWithdrawInstruction moves amount back from the trading identity's
// holding account to the owner's.
func NewWithdrawInstruction(acc DepositAccounts, amount uint64) (solana.Instruction, error) {
	return transferInstruction(WithdrawDiscriminator, acc, amount)
}

func transferInstruction(discriminator []byte, acc DepositAccounts, amount uint64) (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	buf.Write(discriminator)
	if err := bin.NewBorshEncoder(buf).WriteUint64(amount, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode amount: %w", err)
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(acc.Owner, true, true),
		solana.NewAccountMeta(acc.TradingAccount, true, false),
		solana.NewAccountMeta(acc.OwnerTokenAccount, true, false),
		solana.NewAccountMeta(acc.PDATokenAccount, true, false),
		solana.NewAccountMeta(acc.TokenMint, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.SPLAssociatedTokenAccountProgramID, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, buf.Bytes()), nil
}

// SwapAccounts are the fixed accounts every price-targeted swap
// instruction references. Range segment (tick array) accounts are appended
// separately as writable remaining accounts.
type SwapAccounts struct {
	Owner            solana.PublicKey
	TradingAccount   solana.PublicKey
	AmmProgram       solana.PublicKey
	AmmConfig        solana.PublicKey
	PoolState        solana.PublicKey
	IdentityTokenAcc solana.PublicKey
	IdentityWsolAcc  solana.PublicKey
	VaultA           solana.PublicKey
	VaultB           solana.PublicKey
	MintA            solana.PublicKey
	MintB            solana.PublicKey
	Observation      solana.PublicKey
	TokenProgram2022 solana.PublicKey
	MemoProgram      solana.PublicKey
}

func (acc SwapAccounts) metas(segments []solana.PublicKey) solana.AccountMetaSlice {
	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(acc.Owner, true, true),
		solana.NewAccountMeta(acc.TradingAccount, true, false),
		solana.NewAccountMeta(acc.AmmProgram, false, false),
		solana.NewAccountMeta(acc.AmmConfig, false, false),
		solana.NewAccountMeta(acc.PoolState, true, false),
		solana.NewAccountMeta(acc.IdentityTokenAcc, true, false),
		solana.NewAccountMeta(acc.IdentityWsolAcc, true, false),
		solana.NewAccountMeta(acc.VaultA, true, false),
		solana.NewAccountMeta(acc.VaultB, true, false),
		solana.NewAccountMeta(acc.MintA, false, false),
		solana.NewAccountMeta(acc.MintB, false, false),
		solana.NewAccountMeta(acc.Observation, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(acc.TokenProgram2022, false, false),
		solana.NewAccountMeta(acc.MemoProgram, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}
	for _, seg := range segments {
		metas = append(metas, solana.NewAccountMeta(seg, true, false))
	}
	return metas
}

// NewSingleTargetInstruction drives the pool price to one target through
// the three-slot swap entrypoint, the only swap instruction the program
// exports. The target fills all three slots; the program skips a target
// the pool has already reached, so the repeat slots settle as no-ops and
// carry no output floor.
func NewSingleTargetInstruction(target uint128.Uint128, maxInput, minOutput uint64, accounts SwapAccounts, segments []solana.PublicKey) *SwapToPricesInstruction {
	return NewSwapToPricesInstruction(
		[3]uint128.Uint128{target, target, target},
		[3]uint64{maxInput, maxInput, maxInput},
		[3]uint64{minOutput, 0, 0},
		accounts, segments)
}

// SwapToPricesInstruction executes up to three price targets in a single
// transaction, sharing one compute budget across the steps. Each target
// sqrt price acts as the price limit; the on-chain program computes the
// exact input needed to reach it.
type SwapToPricesInstruction struct {
	TargetSqrtPrices [3]uint128.Uint128
	MaxInputs        [3]uint64
	MinOutputs       [3]uint64

	solana.AccountMetaSlice
}

func NewSwapToPricesInstruction(targets [3]uint128.Uint128, maxInputs, minOutputs [3]uint64, accounts SwapAccounts, segments []solana.PublicKey) *SwapToPricesInstruction {
	return &SwapToPricesInstruction{
		TargetSqrtPrices: targets,
		MaxInputs:        maxInputs,
		MinOutputs:       minOutputs,
		AccountMetaSlice: accounts.metas(segments),
	}
}

func (inst *SwapToPricesInstruction) ProgramID() solana.PublicKey {
	return ProgramID
}

func (inst *SwapToPricesInstruction) Accounts() (out []*solana.AccountMeta) {
	return inst.AccountMetaSlice
}

func (inst *SwapToPricesInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(SwapToPricesDiscriminator)

	enc := bin.NewBorshEncoder(buf)
	for i, target := range inst.TargetSqrtPrices {
		if err := writeUint128(enc, target); err != nil {
			return nil, fmt.Errorf("failed to encode target %d: %w", i, err)
		}
	}
	for i, maxIn := range inst.MaxInputs {
		if err := enc.WriteUint64(maxIn, binary.LittleEndian); err != nil {
			return nil, fmt.Errorf("failed to encode max input %d: %w", i, err)
		}
	}
	for i, minOut := range inst.MinOutputs {
		if err := enc.WriteUint64(minOut, binary.LittleEndian); err != nil {
			return nil, fmt.Errorf("failed to encode min output %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// writeUint128 encodes a u128 as 16 little-endian bytes (borsh layout).
func writeUint128(enc *bin.Encoder, v uint128.Uint128) error {
	if err := enc.WriteUint64(v.Lo, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteUint64(v.Hi, binary.LittleEndian)
}
