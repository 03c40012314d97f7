// Continuous clearing auction agent — watches one deployed CCA auction,
// bids into it, exits or claims as its phase advances, and persists the
// bids it's tracking so a restart can resume instead of losing track of
// outstanding on-chain positions.
//
// Architecture:
//
//	main.go                    — entry point: loads config, wires every component, waits for SIGINT/SIGTERM
//	internal/chain/producer.go — block producer: push (eth_subscribe) feed with polling fallback
//	internal/auction/client.go — typed read/write facade over one CCA deployment
//	internal/cache/cache.go    — memoizes upgrade-only auction facts to skip redundant RPCs
//	internal/executor/executor.go — turns one Intent into on-chain effect, never errors to its caller
//	internal/orchestrator/orchestrator.go — per-block loop: phase -> strategy.Evaluate -> execute
//	internal/guard/guard.go    — consecutive-transaction-failure safety breaker
//	internal/strategy/default.go — reference bidding strategy
//	internal/store/store.go    — JSON file persistence for tracked bids (survives restarts)
//	internal/api/server.go     — optional HTTP+WebSocket dashboard
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"cca-agent/internal/api"
	"cca-agent/internal/auction"
	"cca-agent/internal/chain"
	"cca-agent/internal/config"
	"cca-agent/internal/executor"
	"cca-agent/internal/guard"
	"cca-agent/internal/hooks"
	"cca-agent/internal/orchestrator"
	"cca-agent/internal/store"
	"cca-agent/internal/strategy"
	"cca-agent/pkg/types"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("CCA_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(*cfg)

	if cfg.DryRun {
		logger.Warn("DRY-RUN MODE — transactions will be prepared but not sent")
	}

	if err := run(*cfg, logger); err != nil {
		logger.Error("agent exited with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := ethclient.DialContext(ctx, cfg.RPC.HTTPURL)
	if err != nil {
		return fmt.Errorf("dial rpc: %w", err)
	}
	defer client.Close()

	signer, owner, err := newSigner(cfg.Wallet)
	if err != nil {
		return fmt.Errorf("build signer: %w", err)
	}

	dataStore, err := store.Open(cfg.Store.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	tracked, err := dataStore.LoadTrackedBids()
	if err != nil {
		return fmt.Errorf("load tracked bids: %w", err)
	}
	logger.Info("loaded tracked bids from disk", "count", len(tracked))

	rateLimiter := chain.NewRateLimiterFromConfig(
		chain.BucketConfig(cfg.RateLimit.Read),
		chain.BucketConfig(cfg.RateLimit.Multicall),
		chain.BucketConfig(cfg.RateLimit.Write),
	)

	hook, err := buildHook(cfg.Auction.ValidationHook)
	if err != nil {
		return fmt.Errorf("build validation hook: %w", err)
	}

	auctionAddr := common.HexToAddress(cfg.Auction.Address)
	auctionClient, err := auction.NewAuctionClient(
		ctx,
		client,
		auctionAddr,
		owner,
		signer,
		hook,
		tracked,
		rateLimiter,
		auction.Confirmations{
			Submit: cfg.Auction.Confirmations.Submit,
			Exit:   cfg.Auction.Confirmations.Exit,
			Claim:  cfg.Auction.Confirmations.Claim,
		},
		cfg.DryRun,
		logger,
	)
	if err != nil {
		return fmt.Errorf("build auction client: %w", err)
	}

	intentExecutor := executor.NewIntentExecutor(auctionClient, logger)

	g := guard.New(guard.Config{
		FailureThreshold: cfg.Guard.FailureThreshold,
		Window:           cfg.Guard.WindowBlocks,
		Cooldown:         cfg.Guard.CooldownBlocks,
	}, logger)
	go g.Run(ctx)

	strategyCfg, err := buildStrategyConfig(cfg.Strategy)
	if err != nil {
		return fmt.Errorf("build strategy config: %w", err)
	}
	defaultStrategy := strategy.NewDefault(strategyCfg, logger)

	var dash chan api.DashboardEvent
	if cfg.Dashboard.Enabled {
		dash = make(chan api.DashboardEvent, 256)
	}

	orch := orchestrator.New(intentExecutor, defaultStrategy, g, dash, logger)

	var apiServer *api.Server
	if cfg.Dashboard.Enabled {
		cfgSummary := api.ConfigSummary{
			DryRun:         cfg.DryRun,
			MaxPrice:       cfg.Strategy.MaxPrice,
			BidChunk:       cfg.Strategy.BidChunk,
			Target:         cfg.Strategy.Target,
			GuardThreshold: cfg.Guard.FailureThreshold,
			GuardCooldown:  cfg.Guard.CooldownBlocks,
		}
		apiServer = api.NewServer(cfg.Dashboard, orch, cfgSummary, logger)
		go func() {
			if err := apiServer.Start(ctx); err != nil {
				logger.Error("dashboard server failed", "error", err)
			}
		}()
		logger.Info("dashboard started", "url", fmt.Sprintf("http://localhost:%d", cfg.Dashboard.Port))
	}

	producer := chain.NewBlockProducer(client, cfg.RPC.PollInterval, logger)
	go func() {
		if err := producer.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("block producer stopped", "error", err)
		}
	}()

	resultCh := make(chan types.OrchestratorResult, 1)
	go func() {
		resultCh <- orch.Run(ctx, producer.Blocks())
	}()

	logger.Info("agent started",
		"auction", cfg.Auction.Address,
		"owner", owner.Hex(),
		"dry_run", cfg.DryRun,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var result types.OrchestratorResult
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
		result = <-resultCh
	case result = <-resultCh:
		logger.Info("orchestrator finished", "reason", result.Reason.String())
	}

	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			logger.Error("failed to stop dashboard", "error", err)
		}
	}

	if err := dataStore.SaveTrackedBids(auctionClient.TrackedBids()); err != nil {
		logger.Error("failed to persist tracked bids on shutdown", "error", err)
	}

	if result.Reason == types.ReasonError {
		return result.Err
	}
	return nil
}

func newSigner(cfg config.WalletConfig) (*bind.TransactOpts, common.Address, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(cfg.PrivateKey))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("parse private key: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(cfg.ChainID))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("build transactor: %w", err)
	}
	return opts, crypto.PubkeyToAddress(key.PublicKey), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func buildHook(addr string) (hooks.ValidationHook, error) {
	if addr == "" || common.HexToAddress(addr) == (common.Address{}) {
		return hooks.NoOp{}, nil
	}
	// A configured ValidationHook address selects a deployment-specific
	// implementation; none ship with this agent, so an unset address is
	// the only supported path today.
	return hooks.NoOp{}, nil
}

func buildStrategyConfig(cfg config.StrategyConfig) (strategy.Config, error) {
	maxPrice, err := parsePrice(cfg.MaxPrice)
	if err != nil {
		return strategy.Config{}, fmt.Errorf("strategy.max_price: %w", err)
	}
	bidChunk, err := parseCurrencyAmount(cfg.BidChunk)
	if err != nil {
		return strategy.Config{}, fmt.Errorf("strategy.bid_chunk: %w", err)
	}
	target, err := parseCurrencyAmount(cfg.Target)
	if err != nil {
		return strategy.Config{}, fmt.Errorf("strategy.target: %w", err)
	}
	return strategy.Config{
		MaxPrice:                maxPrice,
		BidChunk:                bidChunk,
		Target:                  target,
		PriceTicksAboveClearing: cfg.PriceTicksAboveClearing,
		FlowWindowBlocks:        cfg.FlowWindowBlocks,
		FlowVolatileThreshold:   cfg.FlowVolatileThreshold,
		FlowCooldownBlocks:      cfg.FlowCooldownBlocks,
	}, nil
}

func parsePrice(s string) (types.Price, error) {
	if s == "" {
		return types.Price{}, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return types.Price{}, fmt.Errorf("invalid decimal value %q", s)
	}
	return types.PriceFromBig(v), nil
}

func parseCurrencyAmount(s string) (types.CurrencyAmount, error) {
	if s == "" {
		return types.CurrencyAmount{}, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return types.CurrencyAmount{}, fmt.Errorf("invalid decimal value %q", s)
	}
	return types.CurrencyAmountFromBig(v), nil
}
