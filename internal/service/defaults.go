package service

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 网络名称
const (
	NetMain   = "mainNet"
	NetTest   = "testNet"
	NetCustom = "customNet"
)

// Default values for optional configuration fields.
const (
	EnvPrefix = "PASAR"

	DefaultNetType        = NetTest
	DefaultMainRPCURL     = "https://api.elastos.io/eth"
	DefaultTestRPCURL     = "https://api-testnet.elastos.io/eth"
	DefaultSourceDir      = "../contracts"
	DefaultDemoDir        = "../proxyUpgrader"
	DefaultERC20Source    = "../v2tests/ERC20Token.sol"
	DefaultABIDir         = "../abis"
	DefaultSolc           = "solc"
	DefaultOptimizerRuns  = 200
	DefaultTokenID        = "42"
	DefaultPlatformAddr   = "0xF25F7A31d308ccf52b8EBCf4ee9FabdD8c8C5077"
	DefaultPlatformFee    = "20000"
	DefaultMinFee         = "100000000000000000"
	DefaultAuctionTime    = 120 * time.Second
	DefaultAuctionWait    = 120 * time.Second
	DefaultAuctionWaitV2  = 150 * time.Second
	DefaultCommandTimeout = 10 * time.Minute
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// ErrMissingKey 当前网络没有配置部署私钥
var ErrMissingKey = errors.New("deploy PK is null")

var defaultRPCURLs = map[string]string{
	strings.ToLower(NetMain):   DefaultMainRPCURL,
	strings.ToLower(NetTest):   DefaultTestRPCURL,
	strings.ToLower(NetCustom): DefaultTestRPCURL,
}

// setDefaults 注册所有键，AutomaticEnv 只会覆盖 viper 已知的键
func setDefaults(v *viper.Viper) {
	v.SetDefault("netType", DefaultNetType)
	for name, url := range defaultRPCURLs {
		v.SetDefault("networks."+name+".rpcUrl", url)
		v.SetDefault("networks."+name+".wsUrl", "")
		v.SetDefault("networks."+name+".gasPrice", "")
		v.SetDefault("networks."+name+".deployPK", "")
	}
	for _, key := range []string{"rpcUrl", "wsUrl", "gasPrice", "deployPK"} {
		v.SetDefault(key, "")
	}
	for _, key := range []string{"deployerPK", "creatorPK", "sellerPK", "buyerPK", "bidderPK", "ownerPK"} {
		v.SetDefault("accounts."+key, "")
	}

	v.SetDefault("contracts.sourceDir", DefaultSourceDir)
	v.SetDefault("contracts.demoDir", DefaultDemoDir)
	v.SetDefault("contracts.erc20Source", DefaultERC20Source)
	v.SetDefault("contracts.abiDir", DefaultABIDir)
	v.SetDefault("contracts.solc", DefaultSolc)
	v.SetDefault("contracts.optimizerRuns", DefaultOptimizerRuns)
	for _, key := range []string{
		"stickerAddr", "pasarAddr", "galleriaAddr", "erc20Addr",
		"proxiedNftAddr", "proxiedPasarAddr", "newNftAddr", "newPasarAddr",
	} {
		v.SetDefault("contracts."+key, "")
	}

	v.SetDefault("suite.tokenId", DefaultTokenID)
	v.SetDefault("suite.platformAddr", DefaultPlatformAddr)
	v.SetDefault("suite.platformFeeRate", DefaultPlatformFee)
	v.SetDefault("suite.minFee", DefaultMinFee)
	v.SetDefault("suite.auctionDuration", DefaultAuctionTime)
	v.SetDefault("suite.auctionWait", DefaultAuctionWait)
	v.SetDefault("suite.auctionWaitV2", DefaultAuctionWaitV2)
	v.SetDefault("suite.newPlatformAddr", "")
	v.SetDefault("suite.newMinFee", DefaultMinFee)

	v.SetDefault("rpc.timeout", DefaultCommandTimeout)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}

// applyDefaults 补齐 Unmarshal 之后仍为空的字段
func (c *Config) applyDefaults() {
	if c.NetType == "" {
		c.NetType = DefaultNetType
	}
	if c.Networks == nil {
		c.Networks = make(map[string]NetworkConfig)
	}
	// viper 会把 map 的键转成小写
	normalized := make(map[string]NetworkConfig, len(c.Networks))
	for name, n := range c.Networks {
		normalized[strings.ToLower(name)] = n
	}
	for name, url := range defaultRPCURLs {
		n := normalized[name]
		if n.RPCURL == "" {
			n.RPCURL = url
		}
		normalized[name] = n
	}
	c.Networks = normalized

	if c.Contracts.SourceDir == "" {
		c.Contracts.SourceDir = DefaultSourceDir
	}
	if c.Contracts.DemoDir == "" {
		c.Contracts.DemoDir = DefaultDemoDir
	}
	if c.Contracts.ERC20Source == "" {
		c.Contracts.ERC20Source = DefaultERC20Source
	}
	if c.Contracts.ABIDir == "" {
		c.Contracts.ABIDir = DefaultABIDir
	}
	if c.Contracts.Solc == "" {
		c.Contracts.Solc = DefaultSolc
	}
	if c.Contracts.OptimizerRuns == 0 {
		c.Contracts.OptimizerRuns = DefaultOptimizerRuns
	}

	if c.Suite.TokenID == "" {
		c.Suite.TokenID = DefaultTokenID
	}
	if c.Suite.PlatformAddr == "" {
		c.Suite.PlatformAddr = DefaultPlatformAddr
	}
	if c.Suite.PlatformFeeRate == "" {
		c.Suite.PlatformFeeRate = DefaultPlatformFee
	}
	if c.Suite.MinFee == "" {
		c.Suite.MinFee = DefaultMinFee
	}
	if c.Suite.NewMinFee == "" {
		c.Suite.NewMinFee = DefaultMinFee
	}
	if c.Suite.AuctionDuration == 0 {
		c.Suite.AuctionDuration = DefaultAuctionTime
	}
	if c.Suite.AuctionWait == 0 {
		c.Suite.AuctionWait = DefaultAuctionWait
	}
	if c.Suite.AuctionWaitV2 == 0 {
		c.Suite.AuctionWaitV2 = DefaultAuctionWaitV2
	}

	if c.RPC.Timeout == 0 {
		c.RPC.Timeout = DefaultCommandTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
