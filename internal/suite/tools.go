package suite

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pasar-contract-tools/internal/check"
	"pasar-contract-tools/internal/contract"
	"pasar-contract-tools/internal/execution"
	"pasar-contract-tools/internal/model"
)

// Version 读取代理合约的版本、魔数和当前逻辑合约地址
func Version(ctx context.Context, env *Env, c *contract.Contract) (model.ContractInfo, error) {
	info := model.ContractInfo{Address: c.Address}
	res, err := c.Call(ctx, "getVersion")
	if err != nil {
		return info, err
	}
	v, err := res.At(0)
	if err != nil {
		return info, err
	}
	info.Version = fmt.Sprint(v)

	if res, err = c.Call(ctx, "getMagic"); err != nil {
		return info, err
	}
	if v, err = res.At(0); err != nil {
		return info, err
	}
	info.Magic = fmt.Sprint(v)

	proxy := contract.New(ProxyName, contract.ProxiableABI, c.Address, env.Exec)
	if info.LogicAddr, err = callAddress(ctx, proxy, "getCodeAddress"); err != nil {
		return info, err
	}
	env.Logger.Info("Contract details",
		zap.String("contract", c.Name),
		zap.String("address", info.Address.Hex()),
		zap.String("version", info.Version),
		zap.String("magic", info.Magic),
		zap.String("logicAddr", info.LogicAddr.Hex()))
	return info, nil
}

// PlatformFee 读取 Pasar 的平台地址与费率
func PlatformFee(ctx context.Context, env *Env, pasar *contract.Contract) (model.PlatformFee, error) {
	fee, err := readPlatformFee(ctx, pasar)
	if err != nil {
		return fee, err
	}
	env.Logger.Info("Platform fee",
		zap.String("platformAddr", fee.PlatformAddr.Hex()),
		zap.String("platformFee", fee.FeeRate.String()))
	return fee, nil
}

// Activity 汇总 NFT 总量与 Pasar 的订单、买卖家数量，nil 的一侧跳过
func Activity(ctx context.Context, env *Env, nft, pasar *contract.Contract) (model.Activity, error) {
	var a model.Activity
	var err error
	if nft != nil {
		if a.TotalSupply, err = callBig(ctx, nft, "totalSupply"); err != nil {
			return a, err
		}
		env.Logger.Info("NFT contract activity",
			zap.String("address", nft.Address.Hex()),
			zap.String("totalSupply", a.TotalSupply.String()))
	}
	if pasar != nil {
		for _, item := range []struct {
			method string
			dst    **big.Int
		}{
			{"getOpenOrderCount", &a.OpenOrderCount},
			{"getBuyerCount", &a.BuyerCount},
			{"getSellerCount", &a.SellerCount},
			{"getOrderCount", &a.OrderCount},
		} {
			if *item.dst, err = callBig(ctx, pasar, item.method); err != nil {
				return a, err
			}
		}
		env.Logger.Info("Pasar contract activity",
			zap.String("address", pasar.Address.Hex()),
			zap.String("openOrders", a.OpenOrderCount.String()),
			zap.String("buyers", a.BuyerCount.String()),
			zap.String("sellers", a.SellerCount.String()),
			zap.String("orders", a.OrderCount.String()))
	}
	return a, nil
}

// FeeParams 读取 Galleria 的平台收费参数
func FeeParams(ctx context.Context, env *Env, galleria *contract.Contract) (model.FeeParams, error) {
	params, err := readFeeParams(ctx, galleria)
	if err != nil {
		return params, err
	}
	env.Logger.Info("Galleria fee params",
		zap.String("platformAddr", params.PlatformAddr.Hex()),
		zap.String("minFee", params.MinFee.String()))
	return params, nil
}

// UpdatePlatform 修改 Galleria 的平台地址和最低展位费，返回修改后的参数
func UpdatePlatform(ctx context.Context, env *Env, owner *execution.Account, galleria *contract.Contract, platform common.Address, minFee *big.Int) (model.FeeParams, error) {
	if owner == nil {
		return model.FeeParams{}, fmt.Errorf("%w: %s", execution.ErrNoKey, RoleOwner)
	}
	log := env.Logger
	log.Info("====>>> Origin Galleria info =====")
	if _, err := Version(ctx, env, galleria); err != nil {
		return model.FeeParams{}, err
	}
	if _, err := FeeParams(ctx, env, galleria); err != nil {
		return model.FeeParams{}, err
	}

	log.Info("Set galleria fee params", zap.String("newPlatformAddr", platform.Hex()), zap.String("newMinFee", minFee.String()))
	if _, err := env.send(ctx, "Set fee params transaction status", galleria, owner, nil, "setFeeParams", platform, minFee); err != nil {
		return model.FeeParams{}, err
	}

	log.Info("====>>> New Galleria info =====")
	if _, err := Version(ctx, env, galleria); err != nil {
		return model.FeeParams{}, err
	}
	params, err := FeeParams(ctx, env, galleria)
	if err != nil {
		return params, err
	}
	return params, check.First(
		check.Equal("Galleria platform address after update", platform, params.PlatformAddr),
		check.BigEqual("Galleria minimum fee after update", minFee, params.MinFee),
	)
}
