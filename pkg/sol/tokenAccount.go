package sol

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/tagchart/tagchart/pkg/engine"
)

// GetAccount fetches the raw account data at addr. An account that does not
// exist is reported with found=false rather than an error.
func (c *Client) GetAccount(ctx context.Context, addr solana.PublicKey) ([]byte, bool, error) {
	res, err := c.RpcClient.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: failed to fetch account %s: %v", engine.ErrTransport, addr, err)
	}
	if res == nil || res.Value == nil {
		return nil, false, nil
	}
	return res.Value.Data.GetBinary(), true, nil
}

// GetTokenBalance reads the raw amount and decimals of a token account.
func (c *Client) GetTokenBalance(ctx context.Context, addr solana.PublicKey) (engine.TokenBalance, error) {
	res, err := c.RpcClient.GetTokenAccountBalance(ctx, addr, rpc.CommitmentConfirmed)
	if err != nil {
		return engine.TokenBalance{}, fmt.Errorf("%w: failed to fetch token balance %s: %v", engine.ErrTransport, addr, err)
	}
	if res == nil || res.Value == nil {
		return engine.TokenBalance{}, fmt.Errorf("%w: empty token balance response for %s", engine.ErrTransport, addr)
	}
	raw, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return engine.TokenBalance{}, fmt.Errorf("failed to parse token amount %q: %w", res.Value.Amount, err)
	}
	return engine.TokenBalance{RawAmount: raw, Decimals: res.Value.Decimals}, nil
}

// SelectOrCreateSPLTokenAccount returns an existing token account of the
// wallet for tokenMint, creating the associated token account when none
// exists.
func (c *Client) SelectOrCreateSPLTokenAccount(ctx context.Context, privateKey solana.PrivateKey, tokenMint solana.PublicKey) (solana.PublicKey, error) {
	user := privateKey.PublicKey()
	acc, err := c.RpcClient.GetTokenAccountsByOwner(ctx, user,
		&rpc.GetTokenAccountsConfig{Mint: tokenMint.ToPointer()},
		&rpc.GetTokenAccountsOpts{
			Encoding: "jsonParsed",
		},
	)
	if err != nil {
		c.log.WithError(err).Error("GetTokenAccountsByOwner failed")
		return solana.PublicKey{}, fmt.Errorf("%w: %v", engine.ErrTransport, err)
	}
	if len(acc.Value) > 0 {
		return acc.Value[0].Pubkey, nil
	}

	// Find ATA address (this will always return a valid PDA)
	ataAddress, _, err := solana.FindAssociatedTokenAddress(user, tokenMint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive associated token address: %w", err)
	}
	createAtaInst, err := associatedtokenaccount.NewCreateInstruction(
		user,
		user,
		tokenMint,
	).ValidateAndBuild()
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to build create ATA instruction: %w", err)
	}

	latestBlockhash, err := c.RpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: failed to get latest blockhash: %v", engine.ErrTransport, err)
	}
	signers := []solana.PrivateKey{privateKey}
	if _, err := c.SendTx(ctx, latestBlockhash.Value.Blockhash, signers, []solana.Instruction{createAtaInst}, false); err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to create token account: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"mint":    tokenMint,
		"account": ataAddress,
	}).Info("created associated token account")
	return ataAddress, nil
}

// GetUserTokenBalance returns the raw balance the wallet holds for mint.
// A wallet with no token account holds zero.
func (c *Client) GetUserTokenBalance(ctx context.Context, user, mint solana.PublicKey) (uint64, error) {
	acc, err := c.RpcClient.GetTokenAccountsByOwner(ctx, user,
		&rpc.GetTokenAccountsConfig{Mint: mint.ToPointer()},
		&rpc.GetTokenAccountsOpts{
			Encoding: "jsonParsed",
		},
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", engine.ErrTransport, err)
	}
	if len(acc.Value) == 0 {
		return 0, nil
	}
	balance, err := c.GetTokenBalance(ctx, acc.Value[0].Pubkey)
	if err != nil {
		return 0, err
	}
	return balance.RawAmount, nil
}
