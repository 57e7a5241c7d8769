package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pasar-contract-tools/internal/contract"
	"pasar-contract-tools/internal/suite"
)

// suiteSession 单个测试套件需要的公共准备：账户与 Env
func (a *app) suiteSession(ctx context.Context, wait time.Duration) (*suite.Accounts, *suite.Env, func(), error) {
	acc, err := a.accounts()
	if err != nil {
		return nil, nil, nil, err
	}
	env, done, err := a.session(ctx, wait)
	if err != nil {
		return nil, nil, nil, err
	}
	return acc, env, done, nil
}

// requireAddrs 检查已部署合约地址都已配置
func requireAddrs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%s is required", pairs[i])
		}
	}
	return nil
}

func newTestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the contract integration suites",
		Long: `Test drives the public methods of the contracts from the configured creator,
seller, buyer and bidder accounts and checks balances and contract state after
every step. The first failed expectation stops the run.

"test run" deploys a fresh set of contracts and runs every suite on them. The
other subcommands run a single suite against already deployed contracts.`,
	}

	var v2 bool
	run := &cobra.Command{
		Use:   "run",
		Short: "Deploy fresh contracts and run all suites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			if v2 {
				plan, err := a.v2Plan()
				if err != nil {
					return err
				}
				acc, env, done, err := a.suiteSession(ctx, a.cfg.Suite.AuctionWaitV2)
				if err != nil {
					return err
				}
				defer done()
				_, err = suite.RunV2(ctx, env, acc, plan)
				return err
			}
			plan, err := a.v1Plan()
			if err != nil {
				return err
			}
			acc, env, done, err := a.suiteSession(ctx, a.cfg.Suite.AuctionWait)
			if err != nil {
				return err
			}
			defer done()
			_, err = suite.RunV1(ctx, env, acc, plan)
			return err
		},
	}
	run.Flags().BoolVar(&v2, "v2", false, "deploy and test Sticker, PasarV2 and the ERC20 token")

	sticker := &cobra.Command{
		Use:   "sticker",
		Short: "Run the Sticker token suite against contracts.stickerAddr",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Contracts
			if err := requireAddrs("contracts.stickerAddr", c.StickerAddr); err != nil {
				return err
			}
			plan, err := a.v1Plan()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			acc, env, done, err := a.suiteSession(ctx, 0)
			if err != nil {
				return err
			}
			defer done()
			token, err := env.Bind(ctx, suite.StickerName, c.StickerAddr)
			if err != nil {
				return err
			}
			return suite.Sticker(ctx, env, token, acc, plan.Sticker)
		},
	}

	pasar := &cobra.Command{
		Use:   "pasar",
		Short: "Run the Pasar marketplace suite against contracts.pasarAddr",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Contracts
			if err := requireAddrs("contracts.pasarAddr", c.PasarAddr); err != nil {
				return err
			}
			plan, err := a.v1Plan()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			acc, env, done, err := a.suiteSession(ctx, a.cfg.Suite.AuctionWait)
			if err != nil {
				return err
			}
			defer done()
			market, err := env.Bind(ctx, suite.PasarName, c.PasarAddr)
			if err != nil {
				return err
			}
			template, err := env.Template(ctx, suite.StickerName)
			if err != nil {
				return err
			}
			return suite.Pasar(ctx, env, market, template, acc, plan.Market)
		},
	}

	galleria := &cobra.Command{
		Use:   "galleria",
		Short: "Run the Galleria panel suite against contracts.galleriaAddr",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Contracts
			if err := requireAddrs("contracts.galleriaAddr", c.GalleriaAddr); err != nil {
				return err
			}
			plan, err := a.v1Plan()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			acc, env, done, err := a.suiteSession(ctx, 0)
			if err != nil {
				return err
			}
			defer done()
			g, err := env.Bind(ctx, suite.GalleriaName, c.GalleriaAddr)
			if err != nil {
				return err
			}
			template, err := env.Template(ctx, suite.StickerName)
			if err != nil {
				return err
			}
			return suite.Galleria(ctx, env, g, template, acc, plan.Galleria)
		},
	}

	pasarV2 := &cobra.Command{
		Use:   "pasar-v2",
		Short: "Run the PasarV2 suite against contracts.pasarAddr and contracts.erc20Addr",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Contracts
			if err := requireAddrs("contracts.pasarAddr", c.PasarAddr, "contracts.erc20Addr", c.ERC20Addr); err != nil {
				return err
			}
			plan, err := a.v2Plan()
			if err != nil {
				return err
			}
			erc20Addr, err := optionalAddress("contracts.erc20Addr", c.ERC20Addr)
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			acc, env, done, err := a.suiteSession(ctx, a.cfg.Suite.AuctionWaitV2)
			if err != nil {
				return err
			}
			defer done()
			market, err := env.Bind(ctx, suite.PasarV2Name, c.PasarAddr)
			if err != nil {
				return err
			}
			template, err := env.Template(ctx, suite.StickerName)
			if err != nil {
				return err
			}
			erc20 := contract.New(suite.ERC20Name, contract.ERC20ABI, erc20Addr, env.Exec)
			return suite.PasarV2(ctx, env, market, template, erc20, acc, plan.Market)
		},
	}

	cmd.AddCommand(run, sticker, pasar, galleria, pasarV2)
	return cmd
}

func newDemoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Demonstrations against a live node",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "proxy",
		Short: "Deploy Demo1 behind a proxy, upgrade it to Demo2 and check state is kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireKey(a.cfg.OwnerKey()); err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			acc, env, done, err := a.suiteSession(ctx, 0)
			if err != nil {
				return err
			}
			defer done()
			return suite.ProxyDemo(ctx, env, acc)
		},
	})
	return cmd
}
