// internal/service/config.go
package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 是 pasarctl 的全部配置
type Config struct {
	NetType  string                   `mapstructure:"netType"`
	Networks map[string]NetworkConfig `mapstructure:"networks"`

	// 命令行 / 环境变量覆盖，优先于 Networks 中的同名字段
	RPCURL   string `mapstructure:"rpcUrl"`
	WSURL    string `mapstructure:"wsUrl"`
	GasPrice string `mapstructure:"gasPrice"`
	DeployPK string `mapstructure:"deployPK"`

	Accounts  AccountsConfig  `mapstructure:"accounts"`
	Contracts ContractsConfig `mapstructure:"contracts"`
	Suite     SuiteConfig     `mapstructure:"suite"`
	RPC       RPCConfig       `mapstructure:"rpc"`
	Log       LogConfig       `mapstructure:"log"`
}

// NetworkConfig 定义了单个网络的节点与部署账户
type NetworkConfig struct {
	RPCURL   string `mapstructure:"rpcUrl"`
	WSURL    string `mapstructure:"wsUrl"`
	GasPrice string `mapstructure:"gasPrice"` // 留空则使用节点建议的 gasPrice
	DeployPK string `mapstructure:"deployPK"` // 部署与升级合约的 owner
}

// AccountsConfig 测试流程中各角色的私钥
type AccountsConfig struct {
	DeployerPK string `mapstructure:"deployerPK"`
	CreatorPK  string `mapstructure:"creatorPK"`
	SellerPK   string `mapstructure:"sellerPK"`
	BuyerPK    string `mapstructure:"buyerPK"`
	BidderPK   string `mapstructure:"bidderPK"`
	OwnerPK    string `mapstructure:"ownerPK"`
}

// ContractsConfig 合约源码、ABI 目录和已部署地址
type ContractsConfig struct {
	SourceDir     string `mapstructure:"sourceDir"`
	DemoDir       string `mapstructure:"demoDir"`
	ERC20Source   string `mapstructure:"erc20Source"`
	ABIDir        string `mapstructure:"abiDir"`
	Solc          string `mapstructure:"solc"`
	OptimizerRuns int    `mapstructure:"optimizerRuns"`

	StickerAddr  string `mapstructure:"stickerAddr"`
	PasarAddr    string `mapstructure:"pasarAddr"`
	GalleriaAddr string `mapstructure:"galleriaAddr"`
	ERC20Addr    string `mapstructure:"erc20Addr"`

	// 升级用
	ProxiedNftAddr   string `mapstructure:"proxiedNftAddr"`
	ProxiedPasarAddr string `mapstructure:"proxiedPasarAddr"`
	NewNftAddr       string `mapstructure:"newNftAddr"`
	NewPasarAddr     string `mapstructure:"newPasarAddr"`
}

// SuiteConfig 集成测试参数
type SuiteConfig struct {
	TokenID         string        `mapstructure:"tokenId"`
	PlatformAddr    string        `mapstructure:"platformAddr"`
	PlatformFeeRate string        `mapstructure:"platformFeeRate"`
	MinFee          string        `mapstructure:"minFee"`
	AuctionDuration time.Duration `mapstructure:"auctionDuration"`
	AuctionWait     time.Duration `mapstructure:"auctionWait"`
	AuctionWaitV2   time.Duration `mapstructure:"auctionWaitV2"`
	NewPlatformAddr string        `mapstructure:"newPlatformAddr"`
	NewMinFee       string        `mapstructure:"newMinFee"`
}

// RPCConfig 控制单条命令的总超时
type RPCConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig 日志级别与格式
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig 读取并解析配置文件
// 找不到配置文件时仅使用默认值、环境变量和命令行参数
func LoadConfig(v *viper.Viper, configPath string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Network 返回当前 netType 对应的网络配置，并叠加覆盖项
func (c *Config) Network() NetworkConfig {
	n := c.Networks[strings.ToLower(c.NetType)]
	if c.RPCURL != "" {
		n.RPCURL = c.RPCURL
	}
	if c.WSURL != "" {
		n.WSURL = c.WSURL
	}
	if c.GasPrice != "" {
		n.GasPrice = c.GasPrice
	}
	if c.DeployPK != "" {
		n.DeployPK = c.DeployPK
	}
	return n
}

// RequireDeployKey 部署类命令必须配置 deployPK
func (c *Config) RequireDeployKey() (string, error) {
	pk := c.Network().DeployPK
	if pk == "" {
		return "", fmt.Errorf("%w: current netType is %s", ErrMissingKey, c.NetType)
	}
	return pk, nil
}

// DeployerKey 测试套件的部署账户，未单独配置时回退到网络的 deployPK
func (c *Config) DeployerKey() string {
	if c.Accounts.DeployerPK != "" {
		return c.Accounts.DeployerPK
	}
	return c.Network().DeployPK
}

// OwnerKey 升级和平台参数更新使用的 owner 账户
func (c *Config) OwnerKey() string {
	if c.Accounts.OwnerPK != "" {
		return c.Accounts.OwnerPK
	}
	return c.Network().DeployPK
}
