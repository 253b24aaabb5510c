package chartprog

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestInstructionDiscriminators(t *testing.T) {
	// Anchor sighash of "global:initialize", stable across toolchains.
	require.Equal(t, []byte{175, 175, 109, 31, 13, 152, 155, 237}, InitializeDiscriminator)

	all := [][]byte{
		InitializeDiscriminator,
		DepositDiscriminator,
		WithdrawDiscriminator,
		SwapToPricesDiscriminator,
	}
	seen := map[string]bool{}
	for _, d := range all {
		require.Len(t, d, 8)
		require.False(t, seen[string(d)], "duplicate discriminator %x", d)
		seen[string(d)] = true
	}
}

func TestDeriveTradingAccountDeterministic(t *testing.T) {
	owner := solana.NewWallet().PublicKey()

	addr1, bump1, err := DeriveTradingAccount(owner)
	require.NoError(t, err)
	addr2, bump2, err := DeriveTradingAccount(owner)
	require.NoError(t, err)
	require.Equal(t, addr1, addr2)
	require.Equal(t, bump1, bump2)

	other, _, err := DeriveTradingAccount(solana.NewWallet().PublicKey())
	require.NoError(t, err)
	require.NotEqual(t, addr1, other)
}

func testAccounts() SwapAccounts {
	key := func(tag byte) solana.PublicKey {
		var b [32]byte
		b[0] = tag
		return solana.PublicKeyFromBytes(b[:])
	}
	return SwapAccounts{
		Owner:            key(1),
		TradingAccount:   key(2),
		AmmProgram:       key(3),
		AmmConfig:        key(4),
		PoolState:        key(5),
		IdentityTokenAcc: key(6),
		IdentityWsolAcc:  key(7),
		VaultA:           key(8),
		VaultB:           key(9),
		MintA:            key(10),
		MintB:            key(11),
		Observation:      key(12),
		TokenProgram2022: key(13),
		MemoProgram:      key(14),
	}
}

func TestSingleTargetData(t *testing.T) {
	target := uint128.New(0x1122334455667788, 0x99AA)
	inst := NewSingleTargetInstruction(target, 1_000, 900, testAccounts(), nil)

	data, err := inst.Data()
	require.NoError(t, err)
	require.Len(t, data, 8+3*16+3*8+3*8)
	require.Equal(t, SwapToPricesDiscriminator, data[:8])

	// The target fills all three slots; only the first slot enforces the
	// output floor.
	for i := 0; i < 3; i++ {
		require.Equal(t, target, uint128.FromBytes(data[8+16*i:24+16*i]))
		require.Equal(t, uint64(1_000), binary.LittleEndian.Uint64(data[56+8*i:64+8*i]))
	}
	require.Equal(t, uint64(900), binary.LittleEndian.Uint64(data[80:88]))
	require.Equal(t, uint64(0), binary.LittleEndian.Uint64(data[88:96]))
	require.Equal(t, uint64(0), binary.LittleEndian.Uint64(data[96:104]))
}

func TestSwapToPricesData(t *testing.T) {
	inst := NewSwapToPricesInstruction(
		[3]uint128.Uint128{uint128.From64(101), uint128.From64(99), uint128.From64(100)},
		[3]uint64{1, 2, 3},
		[3]uint64{4, 5, 6},
		testAccounts(), nil)

	data, err := inst.Data()
	require.NoError(t, err)
	require.Len(t, data, 8+3*16+3*8+3*8)
	require.Equal(t, SwapToPricesDiscriminator, data[:8])
	for i, want := range []uint64{101, 99, 100} {
		require.Equal(t, uint128.From64(want), uint128.FromBytes(data[8+16*i:24+16*i]))
	}
	for i, want := range []uint64{1, 2, 3} {
		require.Equal(t, want, binary.LittleEndian.Uint64(data[56+8*i:64+8*i]))
	}
	for i, want := range []uint64{4, 5, 6} {
		require.Equal(t, want, binary.LittleEndian.Uint64(data[80+8*i:88+8*i]))
	}
}

func TestSwapAccountOrdering(t *testing.T) {
	accounts := testAccounts()
	segments := []solana.PublicKey{
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
	}
	inst := NewSingleTargetInstruction(uint128.From64(1), 0, 0, accounts, segments)

	metas := inst.Accounts()
	require.Len(t, metas, 16+len(segments))

	require.Equal(t, accounts.Owner, metas[0].PublicKey)
	require.True(t, metas[0].IsSigner)
	require.True(t, metas[0].IsWritable)

	require.Equal(t, accounts.TradingAccount, metas[1].PublicKey)
	require.False(t, metas[1].IsSigner)

	require.Equal(t, solana.SystemProgramID, metas[15].PublicKey)

	// Range segments trail as writable remaining accounts.
	for i, seg := range segments {
		meta := metas[16+i]
		require.Equal(t, seg, meta.PublicKey)
		require.True(t, meta.IsWritable)
		require.False(t, meta.IsSigner)
	}
}

func TestDepositInstructionData(t *testing.T) {
	acc := DepositAccounts{
		Owner:             solana.NewWallet().PublicKey(),
		TradingAccount:    solana.NewWallet().PublicKey(),
		OwnerTokenAccount: solana.NewWallet().PublicKey(),
		PDATokenAccount:   solana.NewWallet().PublicKey(),
		TokenMint:         solana.NewWallet().PublicKey(),
	}

	inst, err := NewDepositInstruction(acc, 123_456)
	require.NoError(t, err)
	data, err := inst.Data()
	require.NoError(t, err)
	require.Equal(t, DepositDiscriminator, data[:8])
	require.Equal(t, uint64(123_456), binary.LittleEndian.Uint64(data[8:16]))

	withdraw, err := NewWithdrawInstruction(acc, 42)
	require.NoError(t, err)
	wdata, err := withdraw.Data()
	require.NoError(t, err)
	require.Equal(t, WithdrawDiscriminator, wdata[:8])
}
