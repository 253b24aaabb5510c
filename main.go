package main

import (
	"context"
	"flag"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/tagchart/tagchart/pkg/candle"
	"github.com/tagchart/tagchart/pkg/config"
	"github.com/tagchart/tagchart/pkg/engine"
	"github.com/tagchart/tagchart/pkg/executor"
	"github.com/tagchart/tagchart/pkg/poolstate"
	"github.com/tagchart/tagchart/pkg/provision"
	"github.com/tagchart/tagchart/pkg/sol"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the engine configuration file")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	privateKey, err := cfg.PrivateKey()
	if err != nil {
		log.WithError(err).Fatal("failed to resolve wallet key")
	}
	log.WithField("wallet", privateKey.PublicKey()).Info("engine starting")

	ctx := context.Background()
	client, err := sol.NewClient(ctx, cfg.RPCEndpoint, cfg.WSEndpoint, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create solana client")
	}
	defer client.Close()
	client.Simulate = cfg.Simulate

	// Read the pool before touching any account: a dead pool means
	// nothing else is worth provisioning.
	reader := poolstate.NewReader(client, cfg.AmmProgramID(), log)
	snapshot, err := reader.ReadPool(ctx, cfg.Pool())
	if err != nil {
		log.WithError(err).Fatal("failed to read pool")
	}
	log.WithFields(logrus.Fields{
		"pool":       snapshot.PoolAddress,
		"sqrt_price": snapshot.CurrentSqrtPrice.String(),
		"tick":       snapshot.TickCurrent,
	}).Info("pool snapshot loaded")

	// Wrap enough SOL for the deposit when the wallet holds none.
	if cfg.DepositLamports > 0 && !cfg.Simulate {
		balance, err := client.GetUserTokenBalance(ctx, privateKey.PublicKey(), sol.WSOL)
		if err != nil {
			log.WithError(err).Fatal("failed to read WSOL balance")
		}
		if balance < cfg.DepositLamports {
			if err := client.CoverWsol(ctx, privateKey, cfg.DepositLamports-balance); err != nil {
				log.WithError(err).Fatal("failed to wrap SOL")
			}
		}
	}

	provisioner := provision.NewProvisioner(client, client, log)
	identity, err := provisioner.EnsureTradingIdentity(ctx, privateKey)
	if err != nil {
		log.WithError(err).Fatal("failed to ensure trading identity")
	}

	mints := []solana.PublicKey{snapshot.MintA, snapshot.MintB}
	holdings, err := provisioner.EnsureHoldingAccounts(ctx, privateKey, identity.Address, mints)
	if err != nil {
		log.WithError(err).Fatal("failed to ensure holding accounts")
	}

	if cfg.DepositLamports > 0 && !cfg.Simulate {
		if _, err := provisioner.DepositToIdentity(ctx, privateKey, sol.WSOL, cfg.DepositLamports); err != nil {
			log.WithError(err).Fatal("failed to deposit")
		}
	}

	plan, err := candle.Plan(snapshot.CurrentSqrtPrice, cfg.Shape())
	if err != nil {
		log.WithError(err).Fatal("failed to plan candle")
	}
	for i, target := range plan.Targets {
		log.WithFields(logrus.Fields{"step": i, "target": target.String()}).Info("planned target")
	}

	session := executor.Session{
		Payer:                privateKey,
		Identity:             identity,
		IdentityTokenAccount: holdingFor(holdings, snapshot, false),
		IdentityWsolAccount:  holdingFor(holdings, snapshot, true),
		AmmProgram:           cfg.AmmProgramID(),
	}
	bounds := executor.Bounds{
		MaxInput:    cfg.Bounds.MaxInput,
		MinOutput:   cfg.Bounds.MinOutput,
		SlippageBps: cfg.Bounds.SlippageBps,
	}
	exec := executor.New(client,
		executor.WithLogger(log),
		executor.WithComputeUnitLimit(cfg.ComputeUnitLimit),
	)

	var results []engine.SwapResult
	if cfg.Batched {
		results, err = exec.ExecuteBatched(ctx, plan, snapshot, session, bounds)
	} else {
		results, err = exec.Execute(ctx, plan, snapshot, session, bounds)
	}
	for _, res := range results {
		entry := log.WithFields(logrus.Fields{
			"step":      res.Step,
			"state":     res.State.String(),
			"signature": res.TransactionID,
		})
		if res.Err != nil {
			entry.WithError(res.Err).Error("step failed")
		} else {
			entry.Info("step done")
		}
	}
	if err != nil {
		log.WithError(err).Error("candle execution incomplete")
		os.Exit(1)
	}
	log.Info("candle execution complete")
}

// holdingFor picks the identity holding account for the pool's WSOL side
// (wsol == true) or the other side.
func holdingFor(holdings map[solana.PublicKey]engine.HoldingAccount, snapshot *engine.PoolSnapshot, wsol bool) solana.PublicKey {
	aIsWsol := snapshot.MintA.Equals(sol.WSOL)
	mint := snapshot.MintB
	if wsol == aIsWsol {
		mint = snapshot.MintA
	}
	return holdings[mint].Address
}
