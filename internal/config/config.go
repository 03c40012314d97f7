// Package config defines all configuration for the agent. Config is
// loaded from a YAML file (default configs/config.yaml, overridable via
// CCA_CONFIG) with sensitive fields overridable via CCA_* environment
// variables.
// Grounded on internal/config/config.go, two-phase Load/Validate shape
// unchanged, fields re-themed from Polymarket's API/Strategy/Risk/Scanner
// sections to Wallet/RPC/Auction/RateLimit/Guard/Store/Logging/Dashboard.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file.
type Config struct {
	DryRun    bool            `mapstructure:"dry_run"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	RPC       RPCConfig       `mapstructure:"rpc"`
	Auction   AuctionConfig   `mapstructure:"auction"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Guard     GuardConfig     `mapstructure:"guard"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// WalletConfig holds the signing key this agent submits transactions with.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
	ChainID    int64  `mapstructure:"chain_id"`
}

// RPCConfig points at the chain this agent talks to. WSURL is loaded but
// not used: the Block Producer runs over the HTTPURL client, trying a head
// subscription there and falling back to polling when it is rejected.
type RPCConfig struct {
	HTTPURL        string        `mapstructure:"http_url"`
	WSURL          string        `mapstructure:"ws_url"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// AuctionConfig identifies the single auction this agent operates against
// and how many confirmations it waits for before treating a transaction as
// final.
type AuctionConfig struct {
	Address        string              `mapstructure:"address"`
	ValidationHook string              `mapstructure:"validation_hook"`
	Owner          string              `mapstructure:"owner"`
	Confirmations  ConfirmationsConfig `mapstructure:"confirmations"`
}

// ConfirmationsConfig overrides the default confirmation counts (3 for
// submit/exit, 1 for claim) per SPEC_FULL.md's Open Question (c).
type ConfirmationsConfig struct {
	Submit uint64 `mapstructure:"submit"`
	Exit   uint64 `mapstructure:"exit"`
	Claim  uint64 `mapstructure:"claim"`
}

// StrategyConfig tunes the reference Strategy's bid sizing and
// flow-volatility backoff. Prices/amounts are decimal strings (the raw
// on-chain integer, not a human-scaled float) so main.go can parse them
// straight into Price/CurrencyAmount without precision loss.
type StrategyConfig struct {
	MaxPrice                string  `mapstructure:"max_price"`
	BidChunk                string  `mapstructure:"bid_chunk"`
	Target                  string  `mapstructure:"target"`
	PriceTicksAboveClearing uint64  `mapstructure:"price_ticks_above_clearing"`
	FlowWindowBlocks        uint64  `mapstructure:"flow_window_blocks"`
	FlowVolatileThreshold   float64 `mapstructure:"flow_volatile_threshold"`
	FlowCooldownBlocks      uint64  `mapstructure:"flow_cooldown_blocks"`
}

// RateLimitConfig sets capacity/refill-rate pairs per RPC call category.
type RateLimitConfig struct {
	Read      BucketConfig `mapstructure:"read"`
	Multicall BucketConfig `mapstructure:"multicall"`
	Write     BucketConfig `mapstructure:"write"`
}

// BucketConfig is a token-bucket capacity/refill-rate pair.
type BucketConfig struct {
	Capacity        float64 `mapstructure:"capacity"`
	RefillPerSecond float64 `mapstructure:"refill_per_second"`
}

// GuardConfig tunes the consecutive-transaction-failure safety breaker.
type GuardConfig struct {
	FailureThreshold int    `mapstructure:"failure_threshold"`
	WindowBlocks     uint64 `mapstructure:"window_blocks"`
	CooldownBlocks   uint64 `mapstructure:"cooldown_blocks"`
}

// StoreConfig sets where tracked-bid state is persisted.
type StoreConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DashboardConfig controls the optional HTTP+WebSocket observability
// server.
type DashboardConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive fields use env vars: CCA_PRIVATE_KEY, CCA_DRY_RUN.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("CCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if key := os.Getenv("CCA_PRIVATE_KEY"); key != "" {
		cfg.Wallet.PrivateKey = key
	}
	if os.Getenv("CCA_DRY_RUN") == "true" || os.Getenv("CCA_DRY_RUN") == "1" {
		cfg.DryRun = true
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in zero-value fields with the core spec's documented
// defaults, so a minimal config file only needs to set what it overrides.
func (c *Config) applyDefaults() {
	if c.Auction.Confirmations.Submit == 0 {
		c.Auction.Confirmations.Submit = 3
	}
	if c.Auction.Confirmations.Exit == 0 {
		c.Auction.Confirmations.Exit = 3
	}
	if c.Auction.Confirmations.Claim == 0 {
		c.Auction.Confirmations.Claim = 1
	}
	if c.Guard.FailureThreshold == 0 {
		c.Guard.FailureThreshold = 3
	}
	if c.Guard.WindowBlocks == 0 {
		c.Guard.WindowBlocks = 10
	}
	if c.Guard.CooldownBlocks == 0 {
		c.Guard.CooldownBlocks = 50
	}
	if c.RateLimit.Read.Capacity == 0 {
		c.RateLimit.Read = BucketConfig{Capacity: 200, RefillPerSecond: 40}
	}
	if c.RateLimit.Multicall.Capacity == 0 {
		c.RateLimit.Multicall = BucketConfig{Capacity: 50, RefillPerSecond: 10}
	}
	if c.RateLimit.Write.Capacity == 0 {
		c.RateLimit.Write = BucketConfig{Capacity: 20, RefillPerSecond: 4}
	}
	if c.Strategy.FlowWindowBlocks == 0 {
		c.Strategy.FlowWindowBlocks = 20
	}
	if c.Strategy.FlowVolatileThreshold == 0 {
		c.Strategy.FlowVolatileThreshold = 0.05
	}
	if c.Strategy.FlowCooldownBlocks == 0 {
		c.Strategy.FlowCooldownBlocks = 10
	}
	if c.Strategy.PriceTicksAboveClearing == 0 {
		c.Strategy.PriceTicksAboveClearing = 1
	}
	if c.RPC.PollInterval == 0 {
		c.RPC.PollInterval = 2 * time.Second
	}
	if c.RPC.RequestTimeout == 0 {
		c.RPC.RequestTimeout = 10 * time.Second
	}
	if c.Store.DataDir == "" {
		c.Store.DataDir = "data"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Wallet.PrivateKey == "" {
		return fmt.Errorf("wallet.private_key is required (set CCA_PRIVATE_KEY)")
	}
	if c.Wallet.ChainID == 0 {
		return fmt.Errorf("wallet.chain_id is required")
	}
	if c.RPC.HTTPURL == "" {
		return fmt.Errorf("rpc.http_url is required")
	}
	if c.Auction.Address == "" {
		return fmt.Errorf("auction.address is required")
	}
	if c.Auction.Owner == "" {
		return fmt.Errorf("auction.owner is required")
	}
	if !c.DryRun {
		if c.Strategy.MaxPrice == "" {
			return fmt.Errorf("strategy.max_price is required")
		}
		if c.Strategy.BidChunk == "" {
			return fmt.Errorf("strategy.bid_chunk is required")
		}
		if c.Strategy.Target == "" {
			return fmt.Errorf("strategy.target is required")
		}
	}
	if c.Guard.FailureThreshold <= 0 {
		return fmt.Errorf("guard.failure_threshold must be > 0")
	}
	if c.Dashboard.Enabled && c.Dashboard.Port <= 0 {
		return fmt.Errorf("dashboard.port must be > 0 when dashboard.enabled is true")
	}
	return nil
}
