package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pasar-contract-tools/internal/model"
	"pasar-contract-tools/internal/report"
	"pasar-contract-tools/internal/suite"
)

// defaultDeployOut 文件名与 LoadConfig 读取的文件名一致，所在目录可直接作为 --config
const defaultDeployOut = "deployments/config.yaml"

func newDeployCmd(a *app) *cobra.Command {
	var (
		v2          bool
		galleria    bool
		library     bool
		platformFee bool
		out         string
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Compile and deploy the contracts behind upgradeable proxies",
		Long: `Deploy compiles the contract sources and deploys every logic contract behind
a FeedsContractProxy. With --v2 the PasarV2 marketplace and an ERC20 token are
deployed instead of Pasar and Galleria.

The resulting addresses are written to --out as YAML. The contracts section of
that file uses the same keys as config.yaml. With the default --out the report
is itself a config file, so a following command can load it with
--config deployments; otherwise merge its contracts section into config.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireKey(a.cfg.DeployerKey()); err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			acc, err := a.accounts()
			if err != nil {
				return err
			}
			// 部署不经过拍卖，不需要跟踪区块
			env, done, err := a.session(ctx, 0)
			if err != nil {
				return err
			}
			defer done()

			var d *model.Deployment
			if v2 {
				plan, err := a.v2Plan()
				if err != nil {
					return err
				}
				contracts, err := suite.DeployV2(ctx, env, acc, plan.Deploy)
				if err != nil {
					return fmt.Errorf("deploy contracts: %w", err)
				}
				d = report.New(env.RunID, a.cfg.NetType, env.Exec.ChainID(), acc.Deployer.Address)
				contracts.Record(d)
			} else {
				plan, err := a.v1Plan()
				if err != nil {
					return err
				}
				opts := plan.Deploy
				opts.Galleria = galleria
				opts.Library = library
				opts.PlatformFee = platformFee
				contracts, err := suite.DeployV1(ctx, env, acc, opts)
				if err != nil {
					return fmt.Errorf("deploy contracts: %w", err)
				}
				d = report.New(env.RunID, a.cfg.NetType, env.Exec.ChainID(), acc.Deployer.Address)
				contracts.Record(d)
			}

			if out == "" {
				return nil
			}
			if err := report.Write(out, d); err != nil {
				return err
			}
			a.logger.Info("Deployment report written", zap.String("path", out), zap.Int("contracts", len(d.Contracts)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&v2, "v2", false, "deploy Sticker, PasarV2 and the ERC20 token")
	cmd.Flags().BoolVar(&galleria, "galleria", true, "also deploy Galleria (v1 only)")
	cmd.Flags().BoolVar(&library, "library", true, "deploy and link the Pasar library contract (v1 only)")
	cmd.Flags().BoolVar(&platformFee, "platform-fee", true, "set the Pasar platform fee after deployment (v1 only)")
	cmd.Flags().StringVar(&out, "out", defaultDeployOut, "deployment report path, empty to skip")
	return cmd
}

func newUpgradeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Point the proxied NFT and Pasar contracts at new logic contracts",
		Long: `Upgrade calls updateCodeAddress on each proxy that has both a proxied address
and a new logic address configured (contracts.proxiedNftAddr/newNftAddr and
contracts.proxiedPasarAddr/newPasarAddr). Incomplete pairs are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireKey(a.cfg.OwnerKey()); err != nil {
				return err
			}
			targets, err := upgradeTargets(a)
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			acc, err := a.accounts()
			if err != nil {
				return err
			}
			env, done, err := a.session(ctx, 0)
			if err != nil {
				return err
			}
			defer done()
			return suite.UpgradePair(ctx, env, acc.Owner, targets)
		},
	}
}

func upgradeTargets(a *app) (suite.UpgradeTargets, error) {
	c := a.cfg.Contracts
	var t suite.UpgradeTargets
	for _, item := range []struct {
		key string
		val string
		dst *common.Address
	}{
		{"contracts.proxiedNftAddr", c.ProxiedNftAddr, &t.ProxiedNft},
		{"contracts.newNftAddr", c.NewNftAddr, &t.NewNft},
		{"contracts.proxiedPasarAddr", c.ProxiedPasarAddr, &t.ProxiedPasar},
		{"contracts.newPasarAddr", c.NewPasarAddr, &t.NewPasar},
	} {
		addr, err := optionalAddress(item.key, item.val)
		if err != nil {
			return t, err
		}
		*item.dst = addr
	}
	return t, nil
}
