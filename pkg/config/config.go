// Package config loads and validates the engine configuration: a YAML file
// with environment overrides. Validation is fail-fast; a malformed
// configuration never reaches the ledger.
package config

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"github.com/tagchart/tagchart/pkg/candle"
	"github.com/tagchart/tagchart/pkg/engine"
	"github.com/tagchart/tagchart/pkg/pool/clmm"
	"github.com/tagchart/tagchart/utils"
)

// CandleConfig is the shape of the candle to draw, in basis points from
// the open price.
type CandleConfig struct {
	HighBps  int64 `yaml:"high_bps"`
	LowBps   int64 `yaml:"low_bps"`
	CloseBps int64 `yaml:"close_bps"`
}

// BoundsConfig caps per-step spend and floor. Zero MaxInput means
// unbounded; the field must be set deliberately in the file, the engine
// never defaults to unbounded silently.
type BoundsConfig struct {
	MaxInput    uint64 `yaml:"max_input"`
	MinOutput   uint64 `yaml:"min_output"`
	SlippageBps uint16 `yaml:"slippage_bps"`
}

type Config struct {
	RPCEndpoint string `yaml:"rpc_endpoint"`
	WSEndpoint  string `yaml:"ws_endpoint"`

	// PrivateKeyEnv names the environment variable holding the base58
	// wallet key. The key itself never lives in the file.
	PrivateKeyEnv string `yaml:"private_key_env"`

	PoolAddress string `yaml:"pool_address"`
	AmmProgram  string `yaml:"amm_program"`

	Candle CandleConfig `yaml:"candle"`
	Bounds BoundsConfig `yaml:"bounds"`

	ComputeUnitLimit uint32 `yaml:"compute_unit_limit"`
	DepositLamports  uint64 `yaml:"deposit_lamports"`
	Batched          bool   `yaml:"batched"`
	Simulate         bool   `yaml:"simulate"`
}

// Load reads the YAML file at path, overlays the environment and
// validates. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	utils.LoadEnv()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", engine.ErrMissingConfig, path, err)
	}
	cfg := &Config{
		PrivateKeyEnv:    "WALLET_PRIVATE_KEY",
		ComputeUnitLimit: 400_000,
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", engine.ErrMissingConfig, path, err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets the environment override endpoints and the pool, so one
// file serves several clusters.
func (c *Config) applyEnv() {
	c.RPCEndpoint = utils.Getenv("RPC_ENDPOINT", c.RPCEndpoint)
	c.WSEndpoint = utils.Getenv("WS_ENDPOINT", c.WSEndpoint)
	c.PoolAddress = utils.Getenv("POOL_ADDRESS", c.PoolAddress)
}

func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("%w: rpc_endpoint is required", engine.ErrMissingConfig)
	}
	if c.PoolAddress == "" {
		return fmt.Errorf("%w: pool_address is required", engine.ErrMissingConfig)
	}
	if _, err := solana.PublicKeyFromBase58(c.PoolAddress); err != nil {
		return fmt.Errorf("%w: pool_address: %v", engine.ErrMissingConfig, err)
	}
	if c.AmmProgram != "" {
		if _, err := solana.PublicKeyFromBase58(c.AmmProgram); err != nil {
			return fmt.Errorf("%w: amm_program: %v", engine.ErrMissingConfig, err)
		}
	}
	if c.PrivateKeyEnv == "" {
		return fmt.Errorf("%w: private_key_env is required", engine.ErrMissingConfig)
	}
	if err := c.Shape().Validate(); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrMissingConfig, err)
	}
	return nil
}

// Shape returns the configured candle shape.
func (c *Config) Shape() candle.Shape {
	return candle.Shape{
		HighBps:  c.Candle.HighBps,
		LowBps:   c.Candle.LowBps,
		CloseBps: c.Candle.CloseBps,
	}
}

// Pool returns the configured pool address.
func (c *Config) Pool() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.PoolAddress)
}

// AmmProgramID returns the configured pool program, defaulting to the
// mainnet CLMM program.
func (c *Config) AmmProgramID() solana.PublicKey {
	if c.AmmProgram == "" {
		return clmm.RAYDIUM_CLMM_PROGRAM_ID
	}
	return solana.MustPublicKeyFromBase58(c.AmmProgram)
}

// PrivateKey resolves the wallet key from the environment.
func (c *Config) PrivateKey() (solana.PrivateKey, error) {
	raw := os.Getenv(c.PrivateKeyEnv)
	if raw == "" {
		return nil, fmt.Errorf("%w: environment variable %s is not set", engine.ErrMissingConfig, c.PrivateKeyEnv)
	}
	key, err := solana.PrivateKeyFromBase58(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", engine.ErrMissingConfig, c.PrivateKeyEnv, err)
	}
	return key, nil
}
