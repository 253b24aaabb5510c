package clmm

import (
	"crypto/sha256"
	"math/big"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
)

// Program IDs
var (
	RAYDIUM_CLMM_PROGRAM_ID        = solana.MustPublicKeyFromBase58("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK")
	RAYDIUM_CLMM_DEVNET_PROGRAM_ID = solana.MustPublicKeyFromBase58("DRayAUgENGQBKVaX8owNhgzkEDyoHTGVEGHVJT1E9pfH")

	TOKEN_2022_PROGRAM_ID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	MEMO_PROGRAM_ID       = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
)

// Tick array configuration
const (
	TICK_ARRAY_SIZE = 60
	MAX_TICK        = 443636
	MIN_TICK        = -443636
	U64Resolution   = 64

	// PoolState account size including the 8-byte discriminator.
	POOL_STATE_SIZE = 1544
)

// Price bounds, Q64.64 square-root representation.
var (
	MIN_SQRT_PRICE_X64    = math.NewIntFromBigInt(big.NewInt(4295048016))
	MAX_SQRT_PRICE_X64, _ = math.NewIntFromString("79226673521066979257578248091")
)

// Seeds
const (
	TICK_ARRAY_SEED    = "tick_array"
	EX_BITMAP_SEED     = "pool_tick_array_bitmap_extension"
	POOL_STATE_ACCOUNT = "PoolState"
)

// PoolStateDiscriminator is the anchor account discriminator that prefixes
// every PoolState account: sha256("account:PoolState")[0:8].
var PoolStateDiscriminator = anchorAccountDiscriminator(POOL_STATE_ACCOUNT)

func anchorAccountDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("account:" + name))
	return sum[:8]
}
