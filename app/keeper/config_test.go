package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/keeper/domain"
)

const baseConfig = `
store:
  driver: memory
chains:
  sepolia:
    chainId: 11155111
    rpcUrl: https://rpc.sepolia.example
    auctionHub: "0x00000000000000000000000000000000000000a1"
    bidManager: "0x00000000000000000000000000000000000000b1"
    tokens:
      "0x1C7D4B196Cb0C7B01d743Fbc6116a902379C7238":
        symbol: USDC
        decimals: 6
  base:
    chainId: 84532
    rpcUrl: https://rpc.base.example
    wsUrl: wss://ws.base.example
    auctionHub: "0x00000000000000000000000000000000000000a2"
    bidManager: "0x00000000000000000000000000000000000000b2"
`

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *ConfigTestSuite) write(content string) string {
	path := filepath.Join(s.dir, "config.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *ConfigTestSuite) flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("keeper", pflag.ContinueOnError)
	fs.Bool("debug", false, "")
	fs.String("log-level", "", "")
	return fs
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := loadConfig(s.write(baseConfig), nil)
	s.Require().NoError(err)

	s.Equal("info", cfg.LogLevel)
	s.Equal(":8080", cfg.Server.Address)
	s.Equal(10*time.Second, cfg.Keeper.Interval)
	s.Equal(2*time.Minute, cfg.Keeper.ReceiptTimeout)
	s.Equal(4, cfg.Keeper.RefundWorkers)
	s.Equal(uint64(5000), cfg.Tracker.BackfillBlocks)
	s.Equal(24*time.Hour, cfg.Tracker.SeenTTL)
	s.Equal(5*time.Second, cfg.Api.CacheTTL)
	s.Equal(storeMemory, cfg.Store.Driver)

	s.Len(cfg.Chains, 2)
	sep := cfg.Chains["sepolia"]
	s.Equal(domain.ChainId(11155111), sep.Id)
	s.Equal("https://rpc.sepolia.example", sep.RpcUrl)
	s.Len(sep.Tokens, 1)
	for _, info := range sep.Tokens {
		s.Equal("USDC", info.Symbol)
		s.Equal(int32(6), info.Decimals)
	}
	s.Equal("wss://ws.base.example", cfg.Chains["base"].WsUrl)
}

func (s *ConfigTestSuite) TestEnvOverrides() {
	s.T().Setenv("KEEPER_PRIVATEKEY", "0x"+strings.Repeat("ab", 32))
	s.T().Setenv("KEEPER_KEEPER_INTERVAL", "30s")
	s.T().Setenv("KEEPER_CHAINS_SEPOLIA_RPCURL", "https://other.sepolia.example")

	cfg, err := loadConfig(s.write(baseConfig), nil)
	s.Require().NoError(err)

	s.Equal(strings.Repeat("ab", 32), cfg.Keeper.PrivateKey)
	s.Equal(30*time.Second, cfg.Keeper.Interval)
	s.Equal("https://other.sepolia.example", cfg.Chains["sepolia"].RpcUrl)
	s.NoError(cfg.requireSigner())
}

func (s *ConfigTestSuite) TestFlagsWin() {
	fs := s.flags()
	s.Require().NoError(fs.Parse([]string{"--debug", "--log-level", "debug"}))

	cfg, err := loadConfig(s.write("logLevel: warn\n"+baseConfig), fs)
	s.Require().NoError(err)
	s.True(cfg.Debug)
	s.Equal("debug", cfg.LogLevel)
}

func (s *ConfigTestSuite) TestUnsetFlagsKeepFileValues() {
	cfg, err := loadConfig(s.write("logLevel: warn\n"+baseConfig), s.flags())
	s.Require().NoError(err)
	s.False(cfg.Debug)
	s.Equal("warn", cfg.LogLevel)
}

func (s *ConfigTestSuite) TestMissingFile() {
	_, err := loadConfig(filepath.Join(s.dir, "absent.yaml"), nil)
	s.True(errors.Is(err, domain.ErrInvalidConfig))
}

func (s *ConfigTestSuite) TestInvalid() {
	tests := []struct {
		name    string
		content string
	}{
		{"no chains", "store:\n  driver: memory\n"},
		{"unknown driver", strings.Replace(baseConfig, "driver: memory", "driver: postgres", 1)},
		{"mongo without uri", strings.Replace(baseConfig, "driver: memory", "driver: mongo", 1)},
		{"bad log level", "logLevel: loud\n" + baseConfig},
		{"bad hub address", strings.Replace(baseConfig, "0x00000000000000000000000000000000000000a1", "0x1234", 1)},
		{"missing rpc", strings.Replace(baseConfig, "rpcUrl: https://rpc.base.example", "", 1)},
		{"bad token address", strings.Replace(baseConfig, "0x1C7D4B196Cb0C7B01d743Fbc6116a902379C7238", "usdc", 1)},
		{"token without symbol", strings.Replace(baseConfig, "symbol: USDC", "symbol: \"\"", 1)},
		{"datadog without host", "datadog:\n  enabled: true\n" + baseConfig},
		{"discord without channel", "discord:\n  botKey: secret\n" + baseConfig},
		{"private key not hex", "keeper:\n  privateKey: nothex\n" + baseConfig},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := loadConfig(s.write(tt.content), nil)
			s.Require().Error(err)
			s.True(errors.Is(err, domain.ErrInvalidConfig), err.Error())
		})
	}
}

func (s *ConfigTestSuite) TestRequireSigner() {
	cfg, err := loadConfig(s.write(baseConfig), nil)
	s.Require().NoError(err)
	s.True(errors.Is(cfg.requireSigner(), domain.ErrInvalidConfig))

	cfg.Keeper.PrivateKey = "abcd"
	s.True(errors.Is(cfg.requireSigner(), domain.ErrInvalidConfig))

	cfg.Keeper.PrivateKey = strings.Repeat("0f", 32)
	s.NoError(cfg.requireSigner())
}

func (s *ConfigTestSuite) TestContractAddrs() {
	addrs := contractAddrs("0x00000000000000000000000000000000000000A1", "0x00000000000000000000000000000000000000b1")
	s.Require().Len(addrs, 2)
	s.Equal("0x00000000000000000000000000000000000000a1", strings.ToLower(addrs[0].Hex()))
	s.Equal("0x00000000000000000000000000000000000000b1", strings.ToLower(addrs[1].Hex()))
}
