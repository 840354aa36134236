package main

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"

	"github.com/x-xyz/keeper/base/validator"
	"github.com/x-xyz/keeper/domain"
	domainChain "github.com/x-xyz/keeper/domain/chain"
	"github.com/x-xyz/keeper/service/chain"
)

const (
	defaultConfigPath = "infra/configs/keeper/config.yaml"
	envPrefix         = "KEEPER"

	storeMongo  = "mongo"
	storeMemory = "memory"
)

type Config struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"logLevel" validate:"omitempty,oneof=debug info warn error"`

	Server struct {
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
	Context struct {
		Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
	} `mapstructure:"context"`

	Keeper  KeeperConfig                       `mapstructure:"keeper"`
	Chains  map[string]domainChain.ChainConfig `mapstructure:"chains" validate:"required,min=1,dive"`
	Tracker TrackerConfig                      `mapstructure:"tracker"`

	Store struct {
		Driver string `mapstructure:"driver" validate:"oneof=mongo memory"`
	} `mapstructure:"store"`
	Mongo struct {
		Uri        string `mapstructure:"uri"`
		AuthDBName string `mapstructure:"authDBName"`
		DbName     string `mapstructure:"dbName"`
		EnableSSL  bool   `mapstructure:"enableSSL"`
	} `mapstructure:"mongo"`
	Redis struct {
		Uri      string `mapstructure:"uri"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Datadog struct {
		Enabled bool   `mapstructure:"enabled"`
		Host    string `mapstructure:"host" validate:"required_if=Enabled true"`
		Port    int    `mapstructure:"port"`
	} `mapstructure:"datadog"`
	Discord struct {
		BotKey    string `mapstructure:"botKey"`
		ChannelId string `mapstructure:"channelId" validate:"required_with=BotKey"`
	} `mapstructure:"discord"`
	Api struct {
		CacheTTL time.Duration `mapstructure:"cacheTTL"`
	} `mapstructure:"api"`
}

type KeeperConfig struct {
	PrivateKey     string               `mapstructure:"privateKey" validate:"omitempty,hexadecimal"`
	Interval       time.Duration        `mapstructure:"interval" validate:"gte=0"`
	ReceiptTimeout time.Duration        `mapstructure:"receiptTimeout" validate:"gte=0"`
	Workers        int                  `mapstructure:"workers" validate:"gte=0"`
	RefundWorkers  int                  `mapstructure:"refundWorkers" validate:"gte=0"`
	MaxInflight    int                  `mapstructure:"maxInflight" validate:"gte=0"`
	RevertPatterns chain.RevertPatterns `mapstructure:"revertPatterns"`
}

type TrackerConfig struct {
	BackfillBlocks uint64        `mapstructure:"backfillBlocks"`
	FollowDistance uint64        `mapstructure:"followDistance"`
	PollInterval   time.Duration `mapstructure:"pollInterval"`
	ReconnectLimit time.Duration `mapstructure:"reconnectLimit"`
	SeenCacheSize  int           `mapstructure:"seenCacheSize" validate:"gte=0"`
	SeenTTL        time.Duration `mapstructure:"seenTTL"`
}

// loadConfig merges the yaml file at path, KEEPER_* environment variables and flags.
// Nested keys map to env names by replacing dots, e.g. KEEPER_CHAINS_SEPOLIA_RPCURL.
func loadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logLevel", "info")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("context.timeout", 10*time.Second)
	v.SetDefault("keeper.interval", 10*time.Second)
	v.SetDefault("keeper.receiptTimeout", 2*time.Minute)
	v.SetDefault("keeper.workers", 1)
	v.SetDefault("keeper.refundWorkers", 4)
	v.SetDefault("tracker.backfillBlocks", 5000)
	v.SetDefault("tracker.pollInterval", 15*time.Second)
	v.SetDefault("tracker.reconnectLimit", time.Minute)
	v.SetDefault("tracker.seenCacheSize", 100_000)
	v.SetDefault("tracker.seenTTL", 24*time.Hour)
	v.SetDefault("store.driver", storeMongo)
	v.SetDefault("api.cacheTTL", 5*time.Second)

	// the signing key is commonly injected on its own
	_ = v.BindEnv("keeper.privateKey", envPrefix+"_PRIVATEKEY", envPrefix+"_KEEPER_PRIVATEKEY")
	if flags != nil {
		if f := flags.Lookup("debug"); f != nil {
			_ = v.BindPFlag("debug", f)
		}
		if f := flags.Lookup("log-level"); f != nil {
			_ = v.BindPFlag("logLevel", f)
		}
	}

	if path == "" {
		path = defaultConfigPath
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, xerrors.Errorf("%w: read %s: %v", domain.ErrInvalidConfig, path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, xerrors.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	cfg.Keeper.PrivateKey = strings.TrimPrefix(strings.TrimSpace(cfg.Keeper.PrivateKey), "0x")
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return xerrors.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if c.Store.Driver == storeMongo && (c.Mongo.Uri == "" || c.Mongo.DbName == "") {
		return xerrors.Errorf("%w: store.driver mongo needs mongo.uri and mongo.dbName", domain.ErrInvalidConfig)
	}
	return nil
}

// requireSigner is checked by the commands that send transactions.
func (c *Config) requireSigner() error {
	if c.Keeper.PrivateKey == "" {
		return xerrors.Errorf("%w: keeper.privateKey (or %s_PRIVATEKEY) is required", domain.ErrInvalidConfig, envPrefix)
	}
	if len(c.Keeper.PrivateKey) != 64 {
		return xerrors.Errorf("%w: keeper.privateKey must be 32 bytes hex", domain.ErrInvalidConfig)
	}
	return nil
}
