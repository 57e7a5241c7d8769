package suite

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pasar-contract-tools/internal/check"
	"pasar-contract-tools/internal/contract"
	"pasar-contract-tools/internal/execution"
)

// Upgrade 把代理合约的逻辑地址切换到 newLogic
func Upgrade(ctx context.Context, env *Env, owner *execution.Account, proxyAddr, newLogic common.Address) error {
	if owner == nil {
		return fmt.Errorf("%w: %s", execution.ErrNoKey, RoleOwner)
	}
	proxy := contract.New(ProxyName, contract.ProxiableABI, proxyAddr, env.Exec)
	desc := fmt.Sprintf("Upgrade logic contract for proxy contract %s transaction status", proxyAddr.Hex())
	if _, err := env.send(ctx, desc, proxy, owner, nil, "updateCodeAddress", newLogic); err != nil {
		return err
	}
	env.Logger.Info("Logic contract upgraded", zap.String("proxy", proxyAddr.Hex()), zap.String("logic", newLogic.Hex()))
	return nil
}

// UpgradeTargets 需要升级的代理地址与新的逻辑合约地址，零地址表示不升级
type UpgradeTargets struct {
	ProxiedNft   common.Address
	NewNft       common.Address
	ProxiedPasar common.Address
	NewPasar     common.Address
}

// UpgradePair 分别升级 NFT 与 Pasar，地址不全的一侧跳过
func UpgradePair(ctx context.Context, env *Env, owner *execution.Account, t UpgradeTargets) error {
	log := env.Logger
	log.Info("=== Start to upgrade contracts ===",
		zap.String("proxiedNft", t.ProxiedNft.Hex()),
		zap.String("newNft", t.NewNft.Hex()),
		zap.String("proxiedPasar", t.ProxiedPasar.Hex()),
		zap.String("newPasar", t.NewPasar.Hex()))

	for _, item := range []struct {
		label       string
		proxy, code common.Address
	}{
		{"NFT", t.ProxiedNft, t.NewNft},
		{"Pasar", t.ProxiedPasar, t.NewPasar},
	} {
		if item.proxy == (common.Address{}) || item.code == (common.Address{}) {
			log.Info("No need to upgrade for logic " + item.label + " contract")
			continue
		}
		if err := Upgrade(ctx, env, owner, item.proxy, item.code); err != nil {
			return fmt.Errorf("upgrade logic %s contract: %w", item.label, err)
		}
		log.Info("Logic " + item.label + " contract successfully has been upgraded")
	}
	log.Info("=== Upgrade contracts finished ===")
	return nil
}

// ProxyDemo 演示代理升级：Demo1 没有 setB，切换到 Demo2 后状态保留且 setB 可用
func ProxyDemo(ctx context.Context, env *Env, acc *Accounts) error {
	if err := acc.Require(RoleOwner); err != nil {
		return err
	}
	owner := acc.Owner
	log := env.Logger.With(zap.String("suite", "proxyDemo"))
	log.Info("=== Demo start ===")

	arts, err := env.compileAll(ctx, [][2]string{
		{env.Paths.source(ProxyName), ProxyName},
		{filepath.Join(env.Paths.DemoDir, Demo1Name+".sol"), Demo1Name},
		{filepath.Join(env.Paths.DemoDir, Demo2Name+".sol"), Demo2Name},
	})
	if err != nil {
		return err
	}
	demo1, err := env.deploy(ctx, owner, arts[Demo1Name], Demo1Name)
	if err != nil {
		return err
	}
	demo2, err := env.deploy(ctx, owner, arts[Demo2Name], Demo2Name)
	if err != nil {
		return err
	}
	proxy, err := env.deploy(ctx, owner, arts[ProxyName], "Proxy", demo1.Address)
	if err != nil {
		return err
	}
	demo := proxy.As("Demo", contract.DemoABI)
	if err := env.initialize(ctx, owner, demo, "demo1"); err != nil {
		return err
	}
	log.Info("=== Demo contracts deployed ===")

	log.Info("=== Test demo contract with demo1 as logic contract ===")
	a, b := big.NewInt(1), big.NewInt(2)
	if _, err := env.send(ctx, "Method setA transaction status", demo, owner, nil, "setA", a); err != nil {
		return err
	}
	got, err := callBig(ctx, demo, "getA")
	if err != nil {
		return err
	}
	if err := check.BigEqual("Method getA return value", a, got); err != nil {
		return err
	}
	log.Info("Variable a is set and read", zap.String("a", got.String()))

	if _, err := demo.Transact(ctx, owner, nil, "setB", b); err == nil {
		return fmt.Errorf("%w: Result of method setB executed with demo1 logic: expected failure", check.ErrExpectation)
	} else {
		log.Info("Method setB correctly failed for now", zap.Error(err))
	}

	log.Info("=== Upgrade logic contract from demo1 to demo2 ===")
	if err := Upgrade(ctx, env, owner, proxy.Address, demo2.Address); err != nil {
		return err
	}

	log.Info("=== Test demo contract with demo2 as logic contract ===")
	if got, err = callBig(ctx, demo, "getA"); err != nil {
		return err
	}
	if err := check.BigEqual("Method getA return value", a, got); err != nil {
		return err
	}
	log.Info("Result of method getA with demo2 logic stays", zap.String("a", got.String()))

	if _, err := env.send(ctx, "Method setB transaction status", demo, owner, nil, "setB", b); err != nil {
		return err
	}
	if got, err = callBig(ctx, demo, "getB"); err != nil {
		return err
	}
	if err := check.BigEqual("Method getB return value", b, got); err != nil {
		return err
	}
	log.Info("Variable b is set and read", zap.String("b", got.String()))
	log.Info("=== Proxied contract upgraded correctly with new code logic ===")
	log.Info("=== Demo end ===")
	return nil
}
