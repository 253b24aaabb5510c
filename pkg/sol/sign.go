package sol

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/tagchart/tagchart/pkg/engine"
)

const confirmPollInterval = 700 * time.Millisecond

// signTransaction creates and signs a new transaction with the given instructions
func signTransaction(blockhash solana.Hash, signers []solana.PrivateKey, instrs ...solana.Instruction) (*solana.Transaction, error) {
	if len(signers) == 0 {
		return nil, fmt.Errorf("at least one signer is required")
	}

	// Create new transaction with all instructions
	tx, err := solana.NewTransaction(
		instrs,
		blockhash,
		solana.TransactionPayer(signers[0].PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	// Sign the transaction with all provided signers
	_, err = tx.Sign(
		func(key solana.PublicKey) *solana.PrivateKey {
			for _, payer := range signers {
				if payer.PublicKey().Equals(key) {
					return &payer
				}
			}
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}

// SendTx sends or simulates a transaction based on the isSimulate flag
func (c *Client) SendTx(ctx context.Context, blockhash solana.Hash, signers []solana.PrivateKey, insts []solana.Instruction, isSimulate bool) (solana.Signature, error) {
	tx, err := signTransaction(blockhash, signers, insts...)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if isSimulate {
		if _, err := c.RpcClient.SimulateTransaction(ctx, tx); err != nil {
			return solana.Signature{}, fmt.Errorf("failed to simulate transaction: %w", err)
		}
		// Return empty signature for simulation
		return solana.Signature{}, nil
	}

	// Send transaction with optimized options
	sig, err := c.RpcClient.SendTransactionWithOpts(
		ctx, tx,
		rpc.TransactionOpts{
			SkipPreflight:       true,
			PreflightCommitment: rpc.CommitmentProcessed,
		},
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// Submit sends the instructions as one transaction under an elevated compute
// budget and blocks until the cluster confirms or rejects it.
func (c *Client) Submit(ctx context.Context, instrs []solana.Instruction, signers []solana.PrivateKey, computeUnitLimit uint32) (solana.Signature, error) {
	all := make([]solana.Instruction, 0, len(instrs)+1)
	if computeUnitLimit > 0 {
		cuLimitIx, err := computebudget.NewSetComputeUnitLimitInstruction(computeUnitLimit).ValidateAndBuild()
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to build compute unit limit instruction: %w", err)
		}
		all = append(all, cuLimitIx)
	}
	all = append(all, instrs...)

	recent, err := c.RpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: failed to get latest blockhash: %v", engine.ErrTransport, err)
	}

	sig, err := c.SendTx(ctx, recent.Value.Blockhash, signers, all, c.Simulate)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", engine.ErrTransport, err)
	}
	if c.Simulate {
		return sig, nil
	}

	c.log.WithField("signature", sig).Debug("transaction sent, awaiting confirmation")
	if err := c.waitForConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// waitForConfirmation polls signature statuses until the transaction reaches
// confirmed commitment or fails on-ledger.
func (c *Client) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", engine.ErrTransport, ctx.Err())
		case <-ticker.C:
			result, err := c.RpcClient.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				continue
			}
			if len(result.Value) == 0 || result.Value[0] == nil {
				continue
			}
			status := result.Value[0]
			if status.Err != nil {
				return classifyTransactionError(status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}
	}
}

func classifyTransactionError(txErr interface{}) error {
	msg := fmt.Sprintf("%v", txErr)
	if strings.Contains(msg, "ComputeBudget") || strings.Contains(msg, "exceeded") {
		return fmt.Errorf("%w: %s", engine.ErrComputeExhausted, msg)
	}
	return fmt.Errorf("transaction failed: %s", msg)
}
