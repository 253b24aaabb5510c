package clmm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// PoolState maps the head of the Raydium CLMM pool account.
//
// Binary layout contract (account-absolute offsets; the first 8 bytes are
// the anchor discriminator):
//
//	  8  bump                u8
//	  9  ammConfig           32B pubkey
//	 41  owner               32B pubkey
//	 73  tokenMint0          32B pubkey
//	105  tokenMint1          32B pubkey
//	137  tokenVault0         32B pubkey
//	169  tokenVault1         32B pubkey
//	201  observationKey      32B pubkey
//	233  mintDecimals0       u8
//	234  mintDecimals1       u8
//	235  tickSpacing         u16 LE
//	237  liquidity           u128 LE
//	253  sqrtPriceX64        u128 LE
//	269  tickCurrent         i32 LE
//	...  (observation, fee and reward state not consumed here)
//	389  status              u8
//
// All 32-byte fields are raw public keys; 16-byte integers are
// little-endian unsigned 128-bit. The layout is versioned by the account
// discriminator: a discriminator mismatch means the program's account
// format changed and decoding must fail rather than return garbage.
type PoolState struct {
	Bump           uint8
	AmmConfig      solana.PublicKey
	Owner          solana.PublicKey
	TokenMint0     solana.PublicKey
	TokenMint1     solana.PublicKey
	TokenVault0    solana.PublicKey
	TokenVault1    solana.PublicKey
	ObservationKey solana.PublicKey
	MintDecimals0  uint8
	MintDecimals1  uint8
	TickSpacing    uint16
	Liquidity      uint128.Uint128
	SqrtPriceX64   uint128.Uint128
	TickCurrent    int32
	Status         uint8

	PoolId solana.PublicKey
}

const statusOffset = 389

// Decode parses a raw pool account buffer.
func (p *PoolState) Decode(data []byte) error {
	if len(data) < POOL_STATE_SIZE {
		return fmt.Errorf("pool account too short: %d bytes, want %d", len(data), POOL_STATE_SIZE)
	}
	if !bytes.Equal(data[:8], PoolStateDiscriminator) {
		return fmt.Errorf("pool account discriminator mismatch: got %x", data[:8])
	}

	offset := 8

	p.Bump = data[offset]
	offset += 1

	p.AmmConfig = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	p.Owner = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	p.TokenMint0 = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	p.TokenMint1 = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	p.TokenVault0 = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	p.TokenVault1 = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	p.ObservationKey = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	p.MintDecimals0 = data[offset]
	offset += 1

	p.MintDecimals1 = data[offset]
	offset += 1

	p.TickSpacing = binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2

	p.Liquidity = uint128.FromBytes(data[offset : offset+16])
	offset += 16

	p.SqrtPriceX64 = uint128.FromBytes(data[offset : offset+16])
	offset += 16

	p.TickCurrent = int32(binary.LittleEndian.Uint32(data[offset : offset+4]))

	p.Status = data[statusOffset]

	return nil
}

// IsSwapEnabled checks the swap bit of the pool status bitmap. A set bit
// disables swapping.
func (p *PoolState) IsSwapEnabled() bool {
	return (p.Status>>4)&1 == 0
}
