package provision

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/tagchart/tagchart/pkg/engine"
)

type fakeLedger struct {
	accounts map[solana.PublicKey][]byte
	balances map[solana.PublicKey]engine.TokenBalance
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		accounts: map[solana.PublicKey][]byte{},
		balances: map[solana.PublicKey]engine.TokenBalance{},
	}
}

func (f *fakeLedger) GetAccount(_ context.Context, addr solana.PublicKey) ([]byte, bool, error) {
	data, ok := f.accounts[addr]
	return data, ok, nil
}

func (f *fakeLedger) GetTokenBalance(_ context.Context, addr solana.PublicKey) (engine.TokenBalance, error) {
	return f.balances[addr], nil
}

type recordingSubmitter struct {
	calls [][]solana.Instruction
	err   error
}

func (r *recordingSubmitter) Submit(_ context.Context, instrs []solana.Instruction, _ []solana.PrivateKey, _ uint32) (solana.Signature, error) {
	r.calls = append(r.calls, instrs)
	if r.err != nil {
		return solana.Signature{}, r.err
	}
	return solana.Signature{1}, nil
}

func testMint(tag byte) solana.PublicKey {
	var b [32]byte
	b[0] = 0xAA
	b[31] = tag
	return solana.PublicKeyFromBytes(b[:])
}

func TestDeriveTradingIdentityDeterministic(t *testing.T) {
	owner := solana.NewWallet().PublicKey()

	first, err := DeriveTradingIdentity(owner)
	require.NoError(t, err)
	second, err := DeriveTradingIdentity(owner)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, owner, first.Owner)
	require.False(t, first.Address.IsZero())

	other, err := DeriveTradingIdentity(solana.NewWallet().PublicKey())
	require.NoError(t, err)
	require.NotEqual(t, first.Address, other.Address)
}

func TestEnsureTradingIdentityCreatesOnce(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	ledger := newFakeLedger()
	submitter := &recordingSubmitter{}
	p := NewProvisioner(ledger, submitter, nil)

	identity, err := p.EnsureTradingIdentity(context.Background(), payer)
	require.NoError(t, err)
	require.Len(t, submitter.calls, 1)
	require.Len(t, submitter.calls[0], 1)

	// Once the account exists no further instruction is emitted.
	ledger.accounts[identity.Address] = []byte{1}
	again, err := p.EnsureTradingIdentity(context.Background(), payer)
	require.NoError(t, err)
	require.Equal(t, identity, again)
	require.Len(t, submitter.calls, 1)
}

func TestEnsureHoldingAccountsIdempotent(t *testing.T) {
	for n := 0; n <= 10; n++ {
		t.Run(fmt.Sprintf("mints=%d", n), func(t *testing.T) {
			payer := solana.NewWallet().PrivateKey
			owner := payer.PublicKey()
			ledger := newFakeLedger()
			submitter := &recordingSubmitter{}
			p := NewProvisioner(ledger, submitter, nil)

			mints := make([]solana.PublicKey, n)
			for i := range mints {
				mints[i] = testMint(byte(i + 1))
			}

			accounts, err := p.EnsureHoldingAccounts(context.Background(), payer, owner, mints)
			require.NoError(t, err)
			require.Len(t, accounts, n)

			if n == 0 {
				require.Empty(t, submitter.calls)
			} else {
				// All creations land in one transaction.
				require.Len(t, submitter.calls, 1)
				require.Len(t, submitter.calls[0], n)
			}

			for mint, acc := range accounts {
				require.Equal(t, mint, acc.Mint)
				require.Equal(t, owner, acc.Owner)
				ledger.accounts[acc.Address] = []byte{1}
			}

			// Second call with the same inputs emits zero instructions.
			again, err := p.EnsureHoldingAccounts(context.Background(), payer, owner, mints)
			require.NoError(t, err)
			require.Equal(t, accounts, again)
			if n == 0 {
				require.Empty(t, submitter.calls)
			} else {
				require.Len(t, submitter.calls, 1)
			}
		})
	}
}

func TestEnsureHoldingAccountsRentFailure(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	ledger := newFakeLedger()
	submitter := &recordingSubmitter{err: errors.New("Transaction results in an account (1) with insufficient lamports for rent")}
	p := NewProvisioner(ledger, submitter, nil)

	_, err := p.EnsureHoldingAccounts(context.Background(), payer, payer.PublicKey(), []solana.PublicKey{testMint(1)})
	require.ErrorIs(t, err, engine.ErrInsufficientRentFunds)
}

func TestDepositRequiresBalance(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	ledger := newFakeLedger()
	submitter := &recordingSubmitter{}
	p := NewProvisioner(ledger, submitter, nil)

	_, err := p.DepositToIdentity(context.Background(), payer, testMint(1), 500)
	require.ErrorIs(t, err, engine.ErrInsufficientBalance)
	require.Empty(t, submitter.calls)
}

func TestDepositSubmitsInstruction(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	owner := payer.PublicKey()
	mint := testMint(2)
	ledger := newFakeLedger()
	submitter := &recordingSubmitter{}
	p := NewProvisioner(ledger, submitter, nil)

	ownerAcc, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	ledger.balances[ownerAcc] = engine.TokenBalance{RawAmount: 1_000, Decimals: 6}

	sig, err := p.DepositToIdentity(context.Background(), payer, mint, 500)
	require.NoError(t, err)
	require.NotEqual(t, solana.Signature{}, sig)
	require.Len(t, submitter.calls, 1)
	require.Len(t, submitter.calls[0], 1)
}

func TestWithdrawChecksIdentityBalance(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	mint := testMint(3)
	ledger := newFakeLedger()
	submitter := &recordingSubmitter{}
	p := NewProvisioner(ledger, submitter, nil)

	identity, err := DeriveTradingIdentity(payer.PublicKey())
	require.NoError(t, err)
	identityAcc, _, err := solana.FindAssociatedTokenAddress(identity.Address, mint)
	require.NoError(t, err)
	ledger.balances[identityAcc] = engine.TokenBalance{RawAmount: 100}

	_, err = p.WithdrawFromIdentity(context.Background(), payer, mint, 200)
	require.ErrorIs(t, err, engine.ErrInsufficientBalance)

	_, err = p.WithdrawFromIdentity(context.Background(), payer, mint, 100)
	require.NoError(t, err)
	require.Len(t, submitter.calls, 1)
}
