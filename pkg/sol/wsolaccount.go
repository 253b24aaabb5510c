package sol

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/tagchart/tagchart/pkg/engine"
)

// CoverWsol wraps amount lamports of native SOL into the wallet's WSOL
// associated token account, creating the account when needed.
func (c *Client) CoverWsol(ctx context.Context, privateKey solana.PrivateKey, amount uint64) error {
	signers := []solana.PrivateKey{privateKey}
	allInstrs := make([]solana.Instruction, 0, 3)
	user := privateKey.PublicKey()

	acc, err := c.RpcClient.GetTokenAccountsByOwner(ctx, user,
		&rpc.GetTokenAccountsConfig{Mint: WSOL.ToPointer()},
		&rpc.GetTokenAccountsOpts{
			Encoding: "jsonParsed",
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrTransport, err)
	}
	if len(acc.Value) == 0 {
		createAtaInst, err := associatedtokenaccount.NewCreateInstruction(
			user,
			user,
			WSOL,
		).ValidateAndBuild()
		if err != nil {
			return fmt.Errorf("failed to build create ATA instruction: %w", err)
		}
		allInstrs = append(allInstrs, createAtaInst)
	}

	wsolAccount, _, err := solana.FindAssociatedTokenAddress(user, WSOL)
	if err != nil {
		return fmt.Errorf("failed to derive WSOL account: %w", err)
	}

	transferInst, err := system.NewTransferInstruction(
		amount,
		user,
		wsolAccount,
	).ValidateAndBuild()
	if err != nil {
		return fmt.Errorf("failed to build transfer instruction: %w", err)
	}
	allInstrs = append(allInstrs, transferInst)

	// Add SyncNative instruction for WSOL
	syncNativeInst, err := token.NewSyncNativeInstruction(
		wsolAccount,
	).ValidateAndBuild()
	if err != nil {
		return fmt.Errorf("failed to build sync native instruction: %w", err)
	}
	allInstrs = append(allInstrs, syncNativeInst)

	recent, err := c.RpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("%w: failed to get latest blockhash: %v", engine.ErrTransport, err)
	}
	if _, err := c.SendTx(ctx, recent.Value.Blockhash, signers, allInstrs, false); err != nil {
		return fmt.Errorf("failed to wrap SOL: %w", err)
	}
	c.log.WithField("lamports", amount).Info("wrapped SOL into WSOL account")
	return nil
}

// CloseWsol closes the wallet's WSOL associated token account, returning the
// wrapped lamports and the rent to the wallet.
func (c *Client) CloseWsol(ctx context.Context, privateKey solana.PrivateKey) error {
	signers := []solana.PrivateKey{privateKey}
	user := privateKey.PublicKey()

	wsolAccount, _, err := solana.FindAssociatedTokenAddress(user, WSOL)
	if err != nil {
		return fmt.Errorf("failed to derive WSOL account: %w", err)
	}
	closeInst, err := token.NewCloseAccountInstruction(
		wsolAccount,
		user,
		user,
		[]solana.PublicKey{},
	).ValidateAndBuild()
	if err != nil {
		return fmt.Errorf("failed to build close account instruction: %w", err)
	}

	recent, err := c.RpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("%w: failed to get latest blockhash: %v", engine.ErrTransport, err)
	}
	if _, err := c.SendTx(ctx, recent.Value.Blockhash, signers, []solana.Instruction{closeInst}, false); err != nil {
		return fmt.Errorf("failed to close WSOL account: %w", err)
	}
	c.log.Info("closed WSOL account")
	return nil
}
