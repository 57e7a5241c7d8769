package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pasar-contract-tools/internal/abigen"
	"pasar-contract-tools/internal/contract"
	"pasar-contract-tools/internal/service"
	"pasar-contract-tools/internal/suite"
)

// bindConfigured 绑定配置中地址非空的合约，地址为空返回 nil
func bindConfigured(ctx context.Context, env *suite.Env, name, addr string) (*contract.Contract, error) {
	if addr == "" {
		return nil, nil
	}
	return env.Bind(ctx, name, addr)
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version, magic and logic address of the configured contracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Contracts
			if c.StickerAddr == "" && c.PasarAddr == "" && c.GalleriaAddr == "" {
				return errors.New("none of contracts.stickerAddr, pasarAddr, galleriaAddr is set")
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			env, done, err := a.session(ctx, 0)
			if err != nil {
				return err
			}
			defer done()

			for _, item := range []struct {
				name string
				addr string
			}{
				{suite.StickerName, c.StickerAddr},
				{suite.PasarName, c.PasarAddr},
				{suite.GalleriaName, c.GalleriaAddr},
			} {
				bound, err := bindConfigured(ctx, env, item.name, item.addr)
				if err != nil {
					return err
				}
				if bound == nil {
					continue
				}
				if _, err := suite.Version(ctx, env, bound); err != nil {
					return fmt.Errorf("read %s version: %w", item.name, err)
				}
				if item.name == suite.PasarName {
					if _, err := suite.PlatformFee(ctx, env, bound); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

func newActivityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Show NFT supply and Pasar order, buyer and seller counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Contracts
			if c.StickerAddr == "" && c.PasarAddr == "" {
				return errors.New("contracts.stickerAddr or contracts.pasarAddr is required")
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			env, done, err := a.session(ctx, 0)
			if err != nil {
				return err
			}
			defer done()

			nft, err := bindConfigured(ctx, env, suite.StickerName, c.StickerAddr)
			if err != nil {
				return err
			}
			pasar, err := bindConfigured(ctx, env, suite.PasarName, c.PasarAddr)
			if err != nil {
				return err
			}
			_, err = suite.Activity(ctx, env, nft, pasar)
			return err
		},
	}
}

// platformUpdate 校验 platform update 需要的配置
func platformUpdate(cfg *service.Config) (galleria string, platform common.Address, minFee *big.Int, err error) {
	c, s := cfg.Contracts, cfg.Suite
	if c.GalleriaAddr == "" {
		return "", platform, nil, errors.New("contracts.galleriaAddr is required")
	}
	if s.NewPlatformAddr == "" {
		return "", platform, nil, errors.New("suite.newPlatformAddr is required")
	}
	if platform, err = optionalAddress("suite.newPlatformAddr", s.NewPlatformAddr); err != nil {
		return "", platform, nil, err
	}
	if minFee, err = service.ParseWei(s.NewMinFee); err != nil {
		return "", platform, nil, fmt.Errorf("suite.newMinFee: %w", err)
	}
	if minFee == nil {
		return "", platform, nil, errors.New("suite.newMinFee is required")
	}
	return c.GalleriaAddr, platform, minFee, nil
}

func newPlatformCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platform",
		Short: "Galleria platform fee parameters",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the Galleria platform address and minimum fee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Contracts.GalleriaAddr == "" {
				return errors.New("contracts.galleriaAddr is required")
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			env, done, err := a.session(ctx, 0)
			if err != nil {
				return err
			}
			defer done()
			galleria, err := env.Bind(ctx, suite.GalleriaName, a.cfg.Contracts.GalleriaAddr)
			if err != nil {
				return err
			}
			_, err = suite.FeeParams(ctx, env, galleria)
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Set the Galleria platform address and minimum fee",
		Long: `Update sends setFeeParams(suite.newPlatformAddr, suite.newMinFee) to the
Galleria at contracts.galleriaAddr from the owner account, then reads the
parameters back and fails if they were not applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, platform, minFee, err := platformUpdate(a.cfg)
			if err != nil {
				return err
			}
			if err := a.requireKey(a.cfg.OwnerKey()); err != nil {
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
			galleria, err := env.Bind(ctx, suite.GalleriaName, addr)
			if err != nil {
				return err
			}
			_, err = suite.UpdatePlatform(ctx, env, acc.Owner, galleria, platform, minFee)
			return err
		},
	})
	return cmd
}

func newABIGenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "abigen",
		Short: "Compile the contracts and write their ABI files",
		Long: `Abigen compiles Sticker, Pasar, Galleria and the proxy from contracts.sourceDir
and writes <name>.json into contracts.abiDir. No node connection is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			c := a.cfg.Contracts
			written, err := abigen.Generate(ctx, a.compiler(), c.SourceDir, c.ABIDir, suite.ABIContracts, a.logger)
			if err != nil {
				return err
			}
			a.logger.Info("ABI files generated", zap.Int("count", len(written)), zap.String("dir", c.ABIDir))
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate marketplace events",
	}
	var from, to string
	filled := &cobra.Command{
		Use:   "filled",
		Short: "Sum price and royalty of all OrderFilled events of contracts.pasarAddr",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Contracts.PasarAddr == "" {
				return errors.New("contracts.pasarAddr is required")
			}
			fromBlock, err := service.ParseWei(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			toBlock, err := service.ParseWei(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			env, done, err := a.session(ctx, 0)
			if err != nil {
				return err
			}
			defer done()
			pasar, err := env.Bind(ctx, suite.PasarName, a.cfg.Contracts.PasarAddr)
			if err != nil {
				return err
			}
			_, err = suite.FilledTotal(ctx, env, pasar, fromBlock, toBlock)
			return err
		},
	}
	filled.Flags().StringVar(&from, "from", "", "first block, empty for genesis")
	filled.Flags().StringVar(&to, "to", "", "last block, empty for latest")
	cmd.AddCommand(filled)
	return cmd
}
