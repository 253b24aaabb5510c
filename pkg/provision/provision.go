// Package provision prepares the accounts swap execution depends on: the
// owner's trading identity and one holding account per token mint. All
// operations are idempotent; existing accounts are left untouched.
package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/sirupsen/logrus"

	"github.com/tagchart/tagchart/pkg/chartprog"
	"github.com/tagchart/tagchart/pkg/engine"
)

// DeriveTradingIdentity derives the trading identity for owner. Pure,
// deterministic, no ledger interaction.
func DeriveTradingIdentity(owner solana.PublicKey) (engine.TradingIdentity, error) {
	addr, bump, err := chartprog.DeriveTradingAccount(owner)
	if err != nil {
		return engine.TradingIdentity{}, err
	}
	return engine.TradingIdentity{Address: addr, Owner: owner, Bump: bump}, nil
}

// Provisioner performs existence checks against the ledger and submits
// account-creation transactions.
type Provisioner struct {
	ledger    engine.Ledger
	submitter engine.Submitter
	log       logrus.FieldLogger
}

func NewProvisioner(ledger engine.Ledger, submitter engine.Submitter, log logrus.FieldLogger) *Provisioner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Provisioner{ledger: ledger, submitter: submitter, log: log}
}

// EnsureTradingIdentity creates the trading identity account for the payer
// when it does not exist yet. A present identity is a no-op, not an error.
func (p *Provisioner) EnsureTradingIdentity(ctx context.Context, payer solana.PrivateKey) (engine.TradingIdentity, error) {
	owner := payer.PublicKey()
	identity, err := DeriveTradingIdentity(owner)
	if err != nil {
		return engine.TradingIdentity{}, err
	}

	_, found, err := p.ledger.GetAccount(ctx, identity.Address)
	if err != nil {
		return engine.TradingIdentity{}, fmt.Errorf("failed to look up trading identity: %w", err)
	}
	if found {
		p.log.WithField("identity", identity.Address).Debug("trading identity already exists")
		return identity, nil
	}

	initIx := chartprog.NewInitializeInstruction(owner, identity.Address)
	sig, err := p.submitter.Submit(ctx, []solana.Instruction{initIx}, []solana.PrivateKey{payer}, 0)
	if err != nil {
		return engine.TradingIdentity{}, classifyCreationError(err)
	}
	p.log.WithFields(logrus.Fields{
		"identity":  identity.Address,
		"signature": sig,
	}).Info("trading identity created")
	return identity, nil
}

// EnsureHoldingAccounts guarantees one holding account per mint for owner,
// batching all creations into a single transaction. Calling it again with
// the same inputs emits zero instructions.
func (p *Provisioner) EnsureHoldingAccounts(ctx context.Context, payer solana.PrivateKey, owner solana.PublicKey, mints []solana.PublicKey) (map[solana.PublicKey]engine.HoldingAccount, error) {
	result := make(map[solana.PublicKey]engine.HoldingAccount, len(mints))
	creates := make([]solana.Instruction, 0, len(mints))

	for _, mint := range mints {
		if _, dup := result[mint]; dup {
			continue
		}
		addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
		if err != nil {
			return nil, fmt.Errorf("failed to derive holding account for mint %s: %w", mint, err)
		}
		result[mint] = engine.HoldingAccount{Address: addr, Owner: owner, Mint: mint}

		_, found, err := p.ledger.GetAccount(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("failed to look up holding account %s: %w", addr, err)
		}
		if found {
			continue
		}

		createIx, err := associatedtokenaccount.NewCreateInstruction(
			payer.PublicKey(),
			owner,
			mint,
		).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("failed to build create instruction for mint %s: %w", mint, err)
		}
		creates = append(creates, createIx)
	}

	if len(creates) == 0 {
		return result, nil
	}

	sig, err := p.submitter.Submit(ctx, creates, []solana.PrivateKey{payer}, 0)
	if err != nil {
		return nil, classifyCreationError(err)
	}
	p.log.WithFields(logrus.Fields{
		"owner":     owner,
		"created":   len(creates),
		"signature": sig,
	}).Info("holding accounts created")
	return result, nil
}

// DepositToIdentity moves amount of mint from the payer's holding account
// into the trading identity's. The payer balance is checked first.
func (p *Provisioner) DepositToIdentity(ctx context.Context, payer solana.PrivateKey, mint solana.PublicKey, amount uint64) (solana.Signature, error) {
	return p.transfer(ctx, payer, mint, amount, true)
}

// WithdrawFromIdentity moves amount of mint back from the trading
// identity's holding account to the payer's.
func (p *Provisioner) WithdrawFromIdentity(ctx context.Context, payer solana.PrivateKey, mint solana.PublicKey, amount uint64) (solana.Signature, error) {
	return p.transfer(ctx, payer, mint, amount, false)
}

func (p *Provisioner) transfer(ctx context.Context, payer solana.PrivateKey, mint solana.PublicKey, amount uint64, deposit bool) (solana.Signature, error) {
	owner := payer.PublicKey()
	identity, err := DeriveTradingIdentity(owner)
	if err != nil {
		return solana.Signature{}, err
	}
	ownerAcc, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to derive owner holding account: %w", err)
	}
	identityAcc, _, err := solana.FindAssociatedTokenAddress(identity.Address, mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to derive identity holding account: %w", err)
	}

	source := ownerAcc
	if !deposit {
		source = identityAcc
	}
	balance, err := p.ledger.GetTokenBalance(ctx, source)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to read source balance: %w", err)
	}
	if balance.RawAmount < amount {
		return solana.Signature{}, fmt.Errorf("%w: have %d, need %d", engine.ErrInsufficientBalance, balance.RawAmount, amount)
	}

	accounts := chartprog.DepositAccounts{
		Owner:             owner,
		TradingAccount:    identity.Address,
		OwnerTokenAccount: ownerAcc,
		PDATokenAccount:   identityAcc,
		TokenMint:         mint,
	}
	var ix solana.Instruction
	if deposit {
		ix, err = chartprog.NewDepositInstruction(accounts, amount)
	} else {
		ix, err = chartprog.NewWithdrawInstruction(accounts, amount)
	}
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := p.submitter.Submit(ctx, []solana.Instruction{ix}, []solana.PrivateKey{payer}, 0)
	if err != nil {
		return solana.Signature{}, err
	}
	p.log.WithFields(logrus.Fields{
		"mint":      mint,
		"amount":    amount,
		"deposit":   deposit,
		"signature": sig,
	}).Info("identity funds moved")
	return sig, nil
}

// classifyCreationError maps ledger rent failures onto the engine sentinel
// so callers can distinguish an underfunded payer from transport trouble.
func classifyCreationError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "insufficient lamports") || strings.Contains(msg, "InsufficientFundsForRent") {
		return fmt.Errorf("%w: %v", engine.ErrInsufficientRentFunds, err)
	}
	return err
}
