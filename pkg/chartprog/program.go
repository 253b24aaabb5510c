// Package chartprog contains client bindings for the on-chain candle
// execution program: PDA derivation for trading accounts and borsh-encoded
// instruction builders for initialize, deposit, withdraw and the
// price-targeted swap entrypoint.
package chartprog

import (
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ProgramID is the deployed candle execution program.
var ProgramID = solana.MustPublicKeyFromBase58("47z6kVAxM8LxGqSgFHXyMq3eK4Lq2U7TQXLpV3bjPtdD")

// TradingAccountSeed is the domain-separation label for trading identity
// derivation.
const TradingAccountSeed = "trading_account"

// Instruction discriminators, anchor sighash of "global:<name>".
var (
	InitializeDiscriminator   = anchorInstructionDiscriminator("initialize")
	DepositDiscriminator      = anchorInstructionDiscriminator("deposit")
	WithdrawDiscriminator     = anchorInstructionDiscriminator("withdraw")
	SwapToPricesDiscriminator = anchorInstructionDiscriminator("swap_to_prices")
)

func anchorInstructionDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

// DeriveTradingAccount derives the trading identity PDA for an owner:
// seeds = ["trading_account", owner]. Pure function of its inputs; the
// same owner always yields the same address and bump.
func DeriveTradingAccount(owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(TradingAccountSeed),
		owner.Bytes(),
	}
	pda, bump, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive trading account: %w", err)
	}
	return pda, bump, nil
}
