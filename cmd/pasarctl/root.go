package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"pasar-contract-tools/internal/api"
	"pasar-contract-tools/internal/compiler"
	"pasar-contract-tools/internal/execution"
	"pasar-contract-tools/internal/service"
	"pasar-contract-tools/internal/suite"
)

// app 保存一次命令执行共享的配置与日志
type app struct {
	v         *viper.Viper
	configDir string
	cfg       *service.Config
	logger    *zap.Logger
}

func newApp() *app {
	return &app{v: viper.New(), logger: service.Logger}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pasarctl",
		Short: "Deploy, upgrade and test the Feeds NFT contracts",
		Long: `pasarctl compiles the Feeds NFT contracts (Sticker, Pasar, Galleria and the
upgradeable proxy), deploys them, drives their public methods over JSON-RPC
and checks the resulting on-chain state.

Configuration is read from <config>/config.yaml, PASAR_* environment variables
and the flags below, in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configDir, "config", "config", "directory containing config.yaml")
	flags.String("net", "", "network: mainNet, testNet or customNet")
	flags.String("rpc-url", "", "JSON-RPC endpoint, overrides the network setting")
	flags.String("ws-url", "", "websocket endpoint used to follow new blocks")
	flags.String("gas-price", "", "gas price in wei, empty for node suggested")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: json or console")
	flags.Duration("timeout", 0, "overall command timeout")
	if err := bindFlags(a.v, flags); err != nil {
		panic(err)
	}

	root.AddCommand(
		newDeployCmd(a),
		newUpgradeCmd(a),
		newVersionCmd(a),
		newActivityCmd(a),
		newPlatformCmd(a),
		newABIGenCmd(a),
		newTestCmd(a),
		newDemoCmd(a),
		newStatsCmd(a),
	)
	return root
}

// bindFlags 命令行参数只在显式指定时覆盖配置文件与环境变量
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range map[string]string{
		"netType":     "net",
		"rpcUrl":      "rpc-url",
		"wsUrl":       "ws-url",
		"gasPrice":    "gas-price",
		"log.level":   "log-level",
		"log.format":  "log-format",
		"rpc.timeout": "timeout",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func (a *app) load() error {
	cfg, err := service.LoadConfig(a.v, a.configDir)
	if err != nil {
		return err
	}
	if err := service.InitLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = service.Logger.With(zap.String("net", cfg.NetType))
	return nil
}

// context 带总超时，收到 SIGINT/SIGTERM 时取消
func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, a.cfg.RPC.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// connect 连接节点并创建执行器，返回的函数用于关闭连接
func (a *app) connect(ctx context.Context) (*execution.EthExecutor, func(), error) {
	n := a.cfg.Network()
	gasPrice, err := service.ParseWei(n.GasPrice)
	if err != nil {
		return nil, nil, err
	}
	client, err := execution.Dial(ctx, n.RPCURL)
	if err != nil {
		return nil, nil, err
	}
	exec, err := execution.NewEthExecutor(ctx, client, gasPrice, a.logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return exec, client.Close, nil
}

func (a *app) compiler() *compiler.Compiler {
	return compiler.New(a.cfg.Contracts.Solc, a.cfg.Contracts.OptimizerRuns, a.logger)
}

func (a *app) paths() suite.Paths {
	c := a.cfg.Contracts
	return suite.Paths{SourceDir: c.SourceDir, DemoDir: c.DemoDir, ERC20Source: c.ERC20Source, ABIDir: c.ABIDir}
}

// env 需要等待拍卖且配置了 wsUrl 时按区块时间等待，否则固定等待 wait
func (a *app) env(ctx context.Context, exec execution.Executor, wait time.Duration) (*suite.Env, func(), error) {
	var waiter suite.Waiter = suite.SleepWaiter{D: wait, Logger: a.logger}
	cleanup := func() {}
	if ws := a.cfg.Network().WSURL; ws != "" && wait > 0 {
		w := api.NewHeadWatcher(ws, a.logger)
		if err := w.Start(ctx); err != nil {
			return nil, nil, err
		}
		waiter = w
		cleanup = func() { _ = w.Close() }
	}
	return suite.NewEnv(exec, a.compiler(), a.paths(), waiter, a.logger), cleanup, nil
}

// session 连接节点并创建 Env，返回的函数释放所有资源
func (a *app) session(ctx context.Context, wait time.Duration) (*suite.Env, func(), error) {
	exec, closeClient, err := a.connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	env, closeEnv, err := a.env(ctx, exec, wait)
	if err != nil {
		closeClient()
		return nil, nil, err
	}
	a.logger.Info("Session started", zap.String("run", env.RunID), zap.String("chainId", exec.ChainID().String()))
	return env, func() {
		closeEnv()
		closeClient()
	}, nil
}

// accounts 部署者与 owner 未单独配置时使用网络的 deployPK
func (a *app) accounts() (*suite.Accounts, error) {
	keys := a.cfg.Accounts
	keys.DeployerPK = a.cfg.DeployerKey()
	keys.OwnerPK = a.cfg.OwnerKey()
	return suite.LoadAccounts(keys)
}

// requireKey 角色私钥与网络 deployPK 都为空时报错
func (a *app) requireKey(pk string) error {
	if pk != "" {
		return nil
	}
	_, err := a.cfg.RequireDeployKey()
	return err
}

func (a *app) tokenID() (*big.Int, error) {
	id, err := service.ParseWei(a.cfg.Suite.TokenID)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, fmt.Errorf("suite.tokenId is required")
	}
	return id, nil
}

// optionalAddress 空字符串返回零地址
func optionalAddress(key, s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s is not a valid address: %q", key, s)
	}
	return common.HexToAddress(s), nil
}

// amount 配置已经过 Validate，空值保留默认
func amount(s string, def *big.Int) *big.Int {
	if v, err := service.ParseWei(s); err == nil && v != nil {
		return v
	}
	return def
}

func (a *app) v1Plan() (suite.V1Plan, error) {
	id, err := a.tokenID()
	if err != nil {
		return suite.V1Plan{}, err
	}
	s := a.cfg.Suite
	plan := suite.DefaultV1Plan(id)
	if plan.Deploy.PlatformAddr, err = optionalAddress("suite.platformAddr", s.PlatformAddr); err != nil {
		return plan, err
	}
	plan.Deploy.PlatformFeeRate = amount(s.PlatformFeeRate, plan.Deploy.PlatformFeeRate)
	plan.Deploy.MinFee = amount(s.MinFee, plan.Deploy.MinFee)
	plan.Market.AuctionDuration = s.AuctionDuration
	plan.Galleria.PlatformAddr = plan.Deploy.PlatformAddr
	return plan, nil
}

func (a *app) v2Plan() (suite.V2Plan, error) {
	id, err := a.tokenID()
	if err != nil {
		return suite.V2Plan{}, err
	}
	s := a.cfg.Suite
	plan := suite.DefaultV2Plan(id)
	if plan.Deploy.PlatformAddr, err = optionalAddress("suite.platformAddr", s.PlatformAddr); err != nil {
		return plan, err
	}
	plan.Deploy.PlatformFeeRate = amount(s.PlatformFeeRate, plan.Deploy.PlatformFeeRate)
	plan.Market.AuctionDuration = s.AuctionDuration
	plan.Market.PlatformAddr = plan.Deploy.PlatformAddr
	return plan, nil
}
