package suite

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"
)

// V1Plan 一次完整 V1 测试的参数
type V1Plan struct {
	Deploy   DeployOptions
	Sticker  StickerParams
	Market   MarketParams
	Galleria GalleriaParams
}

func DefaultV1Plan(tokenID *big.Int) V1Plan {
	return V1Plan{
		Deploy:   DefaultDeployOptions(),
		Sticker:  DefaultStickerParams(tokenID),
		Market:   DefaultMarketParams(tokenID),
		Galleria: DefaultGalleriaParams(tokenID),
	}
}

// V2Plan 一次完整 V2 测试的参数
type V2Plan struct {
	Deploy V2Params
	Market PasarV2Params
}

func DefaultV2Plan(tokenID *big.Int) V2Plan {
	return V2Plan{
		Deploy: DefaultV2Params(tokenID),
		Market: DefaultPasarV2Params(tokenID),
	}
}

// RunV1 部署后依次运行 Sticker、Pasar、Galleria 测试
// 后面的测试依赖前面测试留下的余额，顺序不能调整
func RunV1(ctx context.Context, env *Env, acc *Accounts, plan V1Plan) (*V1Contracts, error) {
	log := env.Logger
	log.Info("=== Tests start ===")

	log.Info("=== Deploy contracts ===")
	contracts, err := DeployV1(ctx, env, acc, plan.Deploy)
	if err != nil {
		return nil, fmt.Errorf("deploy contracts: %w", err)
	}
	log.Info("=== Contracts deployed ===")

	if err := Sticker(ctx, env, contracts.Sticker, acc, plan.Sticker); err != nil {
		return contracts, fmt.Errorf("sticker token tests: %w", err)
	}
	log.Info("=== Sticker token tests complete ===")

	if err := Pasar(ctx, env, contracts.Pasar, contracts.Sticker, acc, plan.Market); err != nil {
		return contracts, fmt.Errorf("pasar contract tests: %w", err)
	}
	log.Info("=== Pasar contract tests complete ===")

	if contracts.Galleria == nil {
		log.Info("Galleria not deployed, skip galleria tests")
	} else {
		if err := Galleria(ctx, env, contracts.Galleria, contracts.Sticker, acc, plan.Galleria); err != nil {
			return contracts, fmt.Errorf("galleria contract tests: %w", err)
		}
		log.Info("=== Galleria contract tests complete ===")
	}

	log.Info("=== Tests complete ===", zap.String("sticker", contracts.Sticker.Address.Hex()), zap.String("pasar", contracts.Pasar.Address.Hex()))
	return contracts, nil
}

// RunV2 部署 V2 合约并运行 PasarV2 测试
func RunV2(ctx context.Context, env *Env, acc *Accounts, plan V2Plan) (*V2Contracts, error) {
	log := env.Logger
	log.Info("=== Tests start ===")

	log.Info("=== Deploy contracts ===")
	contracts, err := DeployV2(ctx, env, acc, plan.Deploy)
	if err != nil {
		return nil, fmt.Errorf("deploy contracts: %w", err)
	}
	log.Info("=== Contracts deployed ===")

	if err := PasarV2(ctx, env, contracts.PasarV2, contracts.Sticker, contracts.ERC20, acc, plan.Market); err != nil {
		return contracts, fmt.Errorf("pasarV2 contract tests: %w", err)
	}
	log.Info("=== PasarV2 contract tests complete ===")
	log.Info("=== Tests complete ===")
	return contracts, nil
}
