package suite

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"pasar-contract-tools/internal/check"
	"pasar-contract-tools/internal/compiler"
	"pasar-contract-tools/internal/contract"
	"pasar-contract-tools/internal/execution"
	"pasar-contract-tools/internal/model"
	"pasar-contract-tools/internal/service"
)

// send 发送交易，回滚按期望失败处理
func (e *Env) send(ctx context.Context, desc string, c *contract.Contract, from *execution.Account, value *big.Int, method string, args ...interface{}) (*types.Receipt, error) {
	receipt, err := c.Transact(ctx, from, value, method, args...)
	if err != nil && !errors.Is(err, execution.ErrTxReverted) {
		return receipt, err
	}
	if err := check.Status(desc, receipt); err != nil {
		return receipt, err
	}
	return receipt, nil
}

// DeployOptions 控制 V1 部署的可选步骤
type DeployOptions struct {
	Library         bool
	PlatformFee     bool
	Galleria        bool
	PlatformAddr    common.Address
	PlatformFeeRate *big.Int
	MinFee          *big.Int
}

// DefaultDeployOptions 完整的测试部署：库合约、平台费和 Galleria
func DefaultDeployOptions() DeployOptions {
	return DeployOptions{
		Library:         true,
		PlatformFee:     true,
		Galleria:        true,
		PlatformAddr:    common.HexToAddress(service.DefaultPlatformAddr),
		PlatformFeeRate: service.MustBig(service.DefaultPlatformFee),
		MinFee:          service.MustBig(service.DefaultMinFee),
	}
}

// V1Contracts V1 部署结果，Sticker/Pasar/Galleria 都是通过代理访问的句柄
type V1Contracts struct {
	Sticker  *contract.Contract
	Pasar    *contract.Contract
	Galleria *contract.Contract

	StickerLogic  common.Address
	PasarLogic    common.Address
	PasarLibrary  common.Address
	GalleriaLogic common.Address
}

// Record 写入部署报告，键与配置文件的 contracts 段一致
func (c *V1Contracts) Record(d *model.Deployment) {
	d.Set("stickerAddr", c.Sticker.Address)
	d.Set("pasarAddr", c.Pasar.Address)
	d.Set("proxiedNftAddr", c.Sticker.Address)
	d.Set("proxiedPasarAddr", c.Pasar.Address)
	d.Set("stickerLogicAddr", c.StickerLogic)
	d.Set("pasarLogicAddr", c.PasarLogic)
	if c.PasarLibrary != (common.Address{}) {
		d.Set("pasarLibraryAddr", c.PasarLibrary)
	}
	if c.Galleria != nil {
		d.Set("galleriaAddr", c.Galleria.Address)
		d.Set("galleriaLogicAddr", c.GalleriaLogic)
	}
}

type artifacts map[string]*compiler.Artifact

func (e *Env) compileAll(ctx context.Context, items [][2]string) (artifacts, error) {
	arts := make(artifacts, len(items))
	for _, item := range items {
		art, err := e.compile(ctx, item[0], item[1])
		if err != nil {
			return nil, err
		}
		arts[item[1]] = art
	}
	return arts, nil
}

// deployProxied 部署逻辑合约和指向它的代理，返回以逻辑合约 ABI 访问代理的句柄
func (e *Env) deployProxied(ctx context.Context, from *execution.Account, logic, proxy *compiler.Artifact, label string) (*contract.Contract, common.Address, error) {
	logicC, err := e.deploy(ctx, from, logic, label)
	if err != nil {
		return nil, common.Address{}, err
	}
	proxyC, err := e.deploy(ctx, from, proxy, "Proxy "+label, logicC.Address)
	if err != nil {
		return nil, common.Address{}, err
	}
	return proxyC.As(logic.Name, logicC.ABI), logicC.Address, nil
}

func (e *Env) initialize(ctx context.Context, from *execution.Account, c *contract.Contract, label string, args ...interface{}) error {
	if _, err := e.send(ctx, "Proxied "+label+" contract initialize transaction status", c, from, nil, "initialize", args...); err != nil {
		return err
	}
	inited, err := callBool(ctx, c, "initialized")
	if err != nil {
		return err
	}
	return check.True("Proxied "+label+" contract initialized result", inited)
}

func (e *Env) expectTokenAddress(ctx context.Context, c *contract.Contract, label string, want common.Address) error {
	got, err := callAddress(ctx, c, "getTokenAddress")
	if err != nil {
		return err
	}
	return check.Equal("Proxied "+label+" initialized with token address", want, got)
}

func (e *Env) setLibrary(ctx context.Context, from *execution.Account, pasar *contract.Contract, lib common.Address, label string) error {
	if _, err := e.send(ctx, "Proxied "+label+" contract set library transaction status", pasar, from, nil, "setLibraryLogicContract", lib); err != nil {
		return err
	}
	got, err := callAddress(ctx, pasar, "getLibraryLogicContract")
	if err != nil {
		return err
	}
	if err := check.Equal("Proxied "+label+" library logic contract address", lib, got); err != nil {
		return err
	}
	e.Logger.Info("Library logic contract set", zap.String("contract", label), zap.String("library", lib.Hex()))
	return nil
}

func (e *Env) setPlatformFee(ctx context.Context, from *execution.Account, pasar *contract.Contract, platform common.Address, rate *big.Int, label string) error {
	if _, err := e.send(ctx, "Proxied "+label+" set platform fee transaction status", pasar, from, nil, "setPlatformFee", platform, rate); err != nil {
		return err
	}
	fee, err := readPlatformFee(ctx, pasar)
	if err != nil {
		return err
	}
	if err := check.First(
		check.Equal("Proxied "+label+" platform address", platform, fee.PlatformAddr),
		check.BigEqual("Proxied "+label+" platform fee rate", rate, fee.FeeRate),
	); err != nil {
		return err
	}
	e.Logger.Info("Platform fee parameters set",
		zap.String("contract", label),
		zap.String("platformAddr", fee.PlatformAddr.Hex()),
		zap.String("feeRate", fee.FeeRate.String()))
	return nil
}

// DeployV1 编译并部署 Sticker、Pasar、Galleria 及各自的代理，完成初始化
func DeployV1(ctx context.Context, env *Env, acc *Accounts, opts DeployOptions) (*V1Contracts, error) {
	if err := acc.Require(RoleDeployer); err != nil {
		return nil, err
	}
	deployer := acc.Deployer
	p := env.Paths

	items := [][2]string{
		{p.source(StickerName), StickerName},
		{p.source(PasarName), PasarName},
	}
	if opts.Library {
		items = append(items, [2]string{p.source(PasarName), PasarLibName})
	}
	if opts.Galleria {
		items = append(items, [2]string{p.source(GalleriaName), GalleriaName})
	}
	items = append(items, [2]string{p.source(ProxyName), ProxyName})
	arts, err := env.compileAll(ctx, items)
	if err != nil {
		return nil, err
	}
	proxy := arts[ProxyName]

	out := &V1Contracts{}
	if out.Sticker, out.StickerLogic, err = env.deployProxied(ctx, deployer, arts[StickerName], proxy, "Sticker"); err != nil {
		return nil, err
	}
	if out.Pasar, out.PasarLogic, err = env.deployProxied(ctx, deployer, arts[PasarName], proxy, "Pasar"); err != nil {
		return nil, err
	}
	if opts.Library {
		lib, err := env.deploy(ctx, deployer, arts[PasarLibName], "Pasar library")
		if err != nil {
			return nil, err
		}
		out.PasarLibrary = lib.Address
	}
	if opts.Galleria {
		if out.Galleria, out.GalleriaLogic, err = env.deployProxied(ctx, deployer, arts[GalleriaName], proxy, "Galleria"); err != nil {
			return nil, err
		}
	}

	if err := env.initialize(ctx, deployer, out.Sticker, "Sticker"); err != nil {
		return nil, err
	}
	env.Logger.Info("Proxied Sticker contract initialized")

	if err := env.initialize(ctx, deployer, out.Pasar, "Pasar", out.Sticker.Address); err != nil {
		return nil, err
	}
	if err := env.expectTokenAddress(ctx, out.Pasar, "Pasar", out.Sticker.Address); err != nil {
		return nil, err
	}
	env.Logger.Info("Proxied Pasar contract initialized", zap.String("token", out.Sticker.Address.Hex()))

	if opts.Library {
		if err := env.setLibrary(ctx, deployer, out.Pasar, out.PasarLibrary, "Pasar"); err != nil {
			return nil, err
		}
	}
	if opts.PlatformFee {
		if err := env.setPlatformFee(ctx, deployer, out.Pasar, opts.PlatformAddr, opts.PlatformFeeRate, "Pasar"); err != nil {
			return nil, err
		}
	}

	if opts.Galleria {
		g := out.Galleria
		if err := env.initialize(ctx, deployer, g, "Galleria", out.Sticker.Address, opts.PlatformAddr, opts.MinFee); err != nil {
			return nil, err
		}
		if err := env.expectTokenAddress(ctx, g, "Galleria", out.Sticker.Address); err != nil {
			return nil, err
		}
		params, err := readFeeParams(ctx, g)
		if err != nil {
			return nil, err
		}
		if err := check.First(
			check.Equal("Proxied Galleria platform address", opts.PlatformAddr, params.PlatformAddr),
			check.BigEqual("Proxied Galleria minimum fee", opts.MinFee, params.MinFee),
		); err != nil {
			return nil, err
		}
		env.Logger.Info("Proxied Galleria contract initialized",
			zap.String("token", out.Sticker.Address.Hex()),
			zap.String("platformAddr", opts.PlatformAddr.Hex()),
			zap.String("minFee", opts.MinFee.String()))
	}
	return out, nil
}

// V2Contracts V2 部署结果
type V2Contracts struct {
	Sticker *contract.Contract
	PasarV2 *contract.Contract
	ERC20   *contract.Contract

	StickerLogic   common.Address
	PasarV2Logic   common.Address
	PasarV2Library common.Address
}

func (c *V2Contracts) Record(d *model.Deployment) {
	d.Set("stickerAddr", c.Sticker.Address)
	d.Set("pasarAddr", c.PasarV2.Address)
	d.Set("erc20Addr", c.ERC20.Address)
	d.Set("proxiedNftAddr", c.Sticker.Address)
	d.Set("proxiedPasarAddr", c.PasarV2.Address)
	d.Set("stickerLogicAddr", c.StickerLogic)
	d.Set("pasarLogicAddr", c.PasarV2Logic)
	d.Set("pasarLibraryAddr", c.PasarV2Library)
}

// V2Params V2 部署后分发给测试账户的资产
type V2Params struct {
	TokenID         *big.Int
	Supply          *big.Int
	URI             string
	Royalty         *big.Int
	DidURI          string
	SellerShare     *big.Int
	ERC20Share      *big.Int
	PlatformAddr    common.Address
	PlatformFeeRate *big.Int
}

func DefaultV2Params(tokenID *big.Int) V2Params {
	return V2Params{
		TokenID:         tokenID,
		Supply:          big.NewInt(123),
		URI:             "https://github.com/elastos-trinity/feeds-nft-contract#readme",
		Royalty:         big.NewInt(30000),
		DidURI:          "https://github.com/",
		SellerShare:     big.NewInt(60),
		ERC20Share:      service.MustBig("1000000000000000000000000"),
		PlatformAddr:    common.HexToAddress(service.DefaultPlatformAddr),
		PlatformFeeRate: service.MustBig(service.DefaultPlatformFee),
	}
}

// DeployV2 部署 Sticker、PasarV2（含库合约）和 ERC20 代币，并给测试账户分发 NFT 与代币
func DeployV2(ctx context.Context, env *Env, acc *Accounts, params V2Params) (*V2Contracts, error) {
	if err := acc.Require(RoleDeployer, RoleCreator, RoleSeller, RoleBuyer, RoleBidder); err != nil {
		return nil, err
	}
	deployer := acc.Deployer
	p := env.Paths

	arts, err := env.compileAll(ctx, [][2]string{
		{p.source(StickerName), StickerName},
		{p.source(PasarV2Name), PasarV2Name},
		{p.source(PasarV2Name), PasarV2LibName},
		{p.source(ProxyName), ProxyName},
		{p.ERC20Source, ERC20Name},
	})
	if err != nil {
		return nil, err
	}
	proxy := arts[ProxyName]

	out := &V2Contracts{}
	if out.Sticker, out.StickerLogic, err = env.deployProxied(ctx, deployer, arts[StickerName], proxy, "Sticker"); err != nil {
		return nil, err
	}
	if out.PasarV2, out.PasarV2Logic, err = env.deployProxied(ctx, deployer, arts[PasarV2Name], proxy, "PasarV2"); err != nil {
		return nil, err
	}
	lib, err := env.deploy(ctx, deployer, arts[PasarV2LibName], "PasarV2 library")
	if err != nil {
		return nil, err
	}
	out.PasarV2Library = lib.Address

	if err := env.initialize(ctx, deployer, out.Sticker, "Sticker"); err != nil {
		return nil, err
	}
	if err := env.initialize(ctx, deployer, out.PasarV2, "PasarV2", out.Sticker.Address); err != nil {
		return nil, err
	}
	if err := env.expectTokenAddress(ctx, out.PasarV2, "PasarV2", out.Sticker.Address); err != nil {
		return nil, err
	}
	if err := env.setLibrary(ctx, deployer, out.PasarV2, out.PasarV2Library, "PasarV2"); err != nil {
		return nil, err
	}
	if err := env.setPlatformFee(ctx, deployer, out.PasarV2, params.PlatformAddr, params.PlatformFeeRate, "PasarV2"); err != nil {
		return nil, err
	}

	if out.ERC20, err = env.deploy(ctx, deployer, arts[ERC20Name], "ERC20Token"); err != nil {
		return nil, err
	}

	// 代币逻辑已有单独测试，这里只要求交易成功
	if _, err := env.send(ctx, "Mint token transaction status", out.Sticker, acc.Creator, nil,
		"mint", params.TokenID, params.Supply, params.URI, params.Royalty, params.DidURI); err != nil {
		return nil, err
	}
	if _, err := env.send(ctx, "Transfer token transaction status", out.Sticker, acc.Creator, nil,
		"safeTransferFrom", acc.Creator.Address, acc.Seller.Address, params.TokenID, params.SellerShare); err != nil {
		return nil, err
	}
	for _, to := range []*execution.Account{acc.Buyer, acc.Bidder} {
		if _, err := env.send(ctx, fmt.Sprintf("ERC20 transfer to %s transaction status", to), out.ERC20, deployer, nil,
			"transfer", to.Address, params.ERC20Share); err != nil {
			return nil, err
		}
	}
	env.Logger.Info("Tokens distributed to test accounts",
		zap.String("tokenId", params.TokenID.String()),
		zap.String("seller", acc.Seller.String()),
		zap.String("buyer", acc.Buyer.String()),
		zap.String("bidder", acc.Bidder.String()))
	return out, nil
}
