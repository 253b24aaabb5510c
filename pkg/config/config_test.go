package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/tagchart/tagchart/pkg/engine"
	"github.com/tagchart/tagchart/pkg/pool/clmm"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfig = `
rpc_endpoint: http://localhost:8899
ws_endpoint: ws://localhost:8900
pool_address: CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK
candle:
  high_bps: 30
  low_bps: 10
  close_bps: 20
bounds:
  max_input: 1000000
  slippage_bps: 50
compute_unit_limit: 500000
simulate: true
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8899", cfg.RPCEndpoint)
	require.Equal(t, "ws://localhost:8900", cfg.WSEndpoint)
	require.Equal(t, int64(30), cfg.Candle.HighBps)
	require.Equal(t, uint64(1_000_000), cfg.Bounds.MaxInput)
	require.Equal(t, uint16(50), cfg.Bounds.SlippageBps)
	require.Equal(t, uint32(500_000), cfg.ComputeUnitLimit)
	require.True(t, cfg.Simulate)
	require.Equal(t, "WALLET_PRIVATE_KEY", cfg.PrivateKeyEnv)
	require.Equal(t, clmm.RAYDIUM_CLMM_PROGRAM_ID, cfg.AmmProgramID())
	require.False(t, cfg.Pool().IsZero())
}

func TestLoadDefaultsComputeUnitLimit(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
rpc_endpoint: http://localhost:8899
pool_address: CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK
candle: {high_bps: 3, low_bps: 1, close_bps: 2}
`))
	require.NoError(t, err)
	require.Equal(t, uint32(400_000), cfg.ComputeUnitLimit)
}

func TestLoadEnvOverridesEndpoints(t *testing.T) {
	t.Setenv("RPC_ENDPOINT", "http://devnet:8899")
	t.Setenv("POOL_ADDRESS", "DRayAUgENGQBKVaX8owNhgzkEDyoHTGVEGHVJT1E9pfH")

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)
	require.Equal(t, "http://devnet:8899", cfg.RPCEndpoint)
	require.Equal(t, "DRayAUgENGQBKVaX8owNhgzkEDyoHTGVEGHVJT1E9pfH", cfg.PoolAddress)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, engine.ErrMissingConfig)
}

func TestLoadRejectsMissingEndpoint(t *testing.T) {
	t.Setenv("RPC_ENDPOINT", "")
	_, err := Load(writeConfig(t, `
pool_address: CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK
candle: {high_bps: 3, low_bps: 1, close_bps: 2}
`))
	require.ErrorIs(t, err, engine.ErrMissingConfig)
}

func TestLoadRejectsBadPoolAddress(t *testing.T) {
	_, err := Load(writeConfig(t, `
rpc_endpoint: http://localhost:8899
pool_address: not-a-key
candle: {high_bps: 3, low_bps: 1, close_bps: 2}
`))
	require.ErrorIs(t, err, engine.ErrMissingConfig)
}

func TestLoadRejectsBadShape(t *testing.T) {
	_, err := Load(writeConfig(t, `
rpc_endpoint: http://localhost:8899
pool_address: CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK
candle: {high_bps: 1, low_bps: 2, close_bps: 3}
`))
	require.ErrorIs(t, err, engine.ErrMissingConfig)
}

func TestPrivateKeyFromEnv(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	_, err = cfg.PrivateKey()
	require.ErrorIs(t, err, engine.ErrMissingConfig)

	wallet := solana.NewWallet()
	t.Setenv("WALLET_PRIVATE_KEY", wallet.PrivateKey.String())
	key, err := cfg.PrivateKey()
	require.NoError(t, err)
	require.Equal(t, wallet.PublicKey(), key.PublicKey())
}
