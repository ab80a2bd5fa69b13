package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"parcl-v3-client/pkg/parcl"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	API    APIConfig    `mapstructure:"api"`
	Solana SolanaConfig `mapstructure:"solana"`
	Trade  TradeConfig  `mapstructure:"trade"`
	Keeper KeeperConfig `mapstructure:"keeper"`
}

type AppConfig struct {
	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`
}

type APIConfig struct {
	BaseURL               string        `mapstructure:"base_url"`
	Timeout               time.Duration `mapstructure:"timeout"`
	ExchangeID            string        `mapstructure:"exchange_id"`
	PriorityFeePercentile *uint16       `mapstructure:"priority_fee_percentile"`
}

type SolanaConfig struct {
	RPCURL      string `mapstructure:"rpc_url"`
	WSURL       string `mapstructure:"ws_url"`
	Commitment  string `mapstructure:"commitment"`
	KeypairPath string `mapstructure:"keypair_path"`
	PrivateKey  string `mapstructure:"private_key"`
}

type TradeConfig struct {
	MarginAccountID string  `mapstructure:"margin_account_id"`
	MarketID        uint32  `mapstructure:"market_id"`
	SizeDelta       int64   `mapstructure:"size_delta"`
	SlippageBps     *uint16 `mapstructure:"slippage_bps"`
	AcceptablePrice *uint64 `mapstructure:"acceptable_price"`
	SkipPreflight   bool    `mapstructure:"skip_preflight"`
	Confirm         bool    `mapstructure:"confirm"`
}

type KeeperConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Interval          time.Duration `mapstructure:"interval"`
	LiquidatorAccount string        `mapstructure:"liquidator_account"`
	MaxPerTick        int           `mapstructure:"max_per_tick"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_file", "")
	v.SetDefault("app.log_max_size_mb", 100)
	v.SetDefault("app.log_max_backups", 5)
	v.SetDefault("app.log_max_age_days", 14)

	v.SetDefault("api.base_url", parcl.DefaultBaseURL)
	v.SetDefault("api.timeout", parcl.DefaultTimeout)
	v.SetDefault("api.exchange_id", "0")

	v.SetDefault("solana.rpc_url", rpc.MainNetBeta_RPC)
	v.SetDefault("solana.ws_url", rpc.MainNetBeta_WS)
	v.SetDefault("solana.commitment", string(rpc.CommitmentConfirmed))
	v.SetDefault("solana.keypair_path", "")
	v.SetDefault("solana.private_key", "")

	v.SetDefault("trade.margin_account_id", "0")
	v.SetDefault("trade.market_id", 0)
	v.SetDefault("trade.size_delta", 0)
	v.SetDefault("trade.skip_preflight", false)
	v.SetDefault("trade.confirm", true)

	v.SetDefault("keeper.enabled", false)
	v.SetDefault("keeper.interval", 10*time.Second)
	v.SetDefault("keeper.liquidator_account", "0")
	v.SetDefault("keeper.max_per_tick", 0)
}

// LoadConfig reads config.yaml from path, after loading path/.env into the
// environment if present. Environment variables override file values, with
// "." in keys replaced by "_" (API_BASE_URL overrides api.base_url).
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load .env")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// ClientConfig translates the api section into a parcl client config.
func (c APIConfig) ClientConfig() (parcl.Config, error) {
	exchange, err := parcl.ParseExchangeIdentifier(c.ExchangeID)
	if err != nil {
		return parcl.Config{}, errors.Wrap(err, "api.exchange_id")
	}
	return parcl.Config{
		BaseURL:               c.BaseURL,
		Timeout:               c.Timeout,
		ExchangeID:            &exchange,
		PriorityFeePercentile: c.PriorityFeePercentile,
	}, nil
}

func (c SolanaConfig) CommitmentType() rpc.CommitmentType {
	if c.Commitment == "" {
		return rpc.CommitmentConfirmed
	}
	return rpc.CommitmentType(c.Commitment)
}

// LoadSigner returns the configured signing key. An inline base58 key wins
// over a keypair file.
func (c SolanaConfig) LoadSigner() (solana.PrivateKey, error) {
	switch {
	case c.PrivateKey != "":
		key, err := solana.PrivateKeyFromBase58(c.PrivateKey)
		if err != nil {
			return nil, errors.Wrap(err, "solana.private_key")
		}
		return key, nil
	case c.KeypairPath != "":
		key, err := solana.PrivateKeyFromSolanaKeygenFile(c.KeypairPath)
		if err != nil {
			return nil, errors.Wrapf(err, "solana.keypair_path %s", c.KeypairPath)
		}
		return key, nil
	default:
		return nil, errors.New("no signer configured: set solana.private_key or solana.keypair_path")
	}
}

// Slippage resolves the trade slippage fields. An acceptable price takes
// precedence over a tolerance; neither means no protection.
func (c TradeConfig) Slippage() parcl.SlippageSetting {
	switch {
	case c.AcceptablePrice != nil:
		return parcl.AcceptablePrice(*c.AcceptablePrice)
	case c.SlippageBps != nil:
		return parcl.SlippageToleranceBps(*c.SlippageBps)
	default:
		return parcl.NoSlippageProtection()
	}
}

func (c TradeConfig) MarginAccount() (parcl.MarginAccountIdentifier, error) {
	id, err := parcl.ParseMarginAccountIdentifier(c.MarginAccountID)
	return id, errors.Wrap(err, "trade.margin_account_id")
}

func (c KeeperConfig) Liquidator() (parcl.MarginAccountIdentifier, error) {
	id, err := parcl.ParseMarginAccountIdentifier(c.LiquidatorAccount)
	return id, errors.Wrap(err, "keeper.liquidator_account")
}
