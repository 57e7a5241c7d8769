package suite

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pasar-contract-tools/internal/check"
	"pasar-contract-tools/internal/contract"
	"pasar-contract-tools/internal/model"
	"pasar-contract-tools/internal/service"
)

// GalleriaParams 展位测试参数
type GalleriaParams struct {
	TokenID      *big.Int
	GasBuffer    *big.Int
	ShowAmount   *big.Int
	ShowFee      *big.Int
	DidURI       string
	PlatformAddr common.Address
}

func DefaultGalleriaParams(tokenID *big.Int) GalleriaParams {
	return GalleriaParams{
		TokenID:      tokenID,
		GasBuffer:    service.MustBig("100000000000000000"),
		ShowAmount:   big.NewInt(6),
		ShowFee:      service.MustBig("100000000000000000"),
		DidURI:       "https://github.com/elastos-trinity/pasar-contracts",
		PlatformAddr: common.HexToAddress(service.DefaultPlatformAddr),
	}
}

// Galleria 创建展位并付费，随后撤下展位
func Galleria(ctx context.Context, env *Env, galleria, stickerTemplate *contract.Contract, acc *Accounts, p GalleriaParams) error {
	if err := acc.Require(RoleCreator); err != nil {
		return err
	}
	creator := acc.Creator
	log := env.Logger.With(zap.String("suite", "galleria"))

	tokenAddr, err := callAddress(ctx, galleria, "getTokenAddress")
	if err != nil {
		return err
	}
	sticker := stickerTemplate.At(tokenAddr)
	probes := map[string]Probe{
		"creatorToken": TokenBalance(sticker, creator.Address, p.TokenID),
		"creatorEth":   EthBalance(env.Exec, creator.Address),
		"platformEth":  EthBalance(env.Exec, p.PlatformAddr),
		"activePanels": CallBig(galleria, "getActivePanelCount"),
	}

	pre, err := Take(ctx, probes)
	if err != nil {
		return err
	}
	if err := check.First(
		check.AtLeast(fmt.Sprintf("Creator not enough token balance of id %s before test", p.TokenID), pre["creatorToken"], p.ShowAmount),
		check.AtLeast("Creator not enough ETH balance before test", pre["creatorEth"], sum(p.ShowFee, p.GasBuffer)),
	); err != nil {
		return err
	}
	log.Info("Pre-conditions checked, account has enough balances")

	if err := approveForAll(ctx, env, sticker, creator, galleria, "Galleria is approved by creator"); err != nil {
		return err
	}

	// 付费展出
	before, err := Take(ctx, probes)
	if err != nil {
		return err
	}
	receipt, err := env.send(ctx, "Create panel transaction status", galleria, creator, p.ShowFee,
		"createPanel", p.TokenID, p.ShowAmount, p.DidURI)
	if err != nil {
		return err
	}
	after, err := Take(ctx, probes)
	if err != nil {
		return err
	}
	spent, err := paid(ctx, env, receipt, before["creatorEth"], after["creatorEth"])
	if err != nil {
		return err
	}
	count := after["activePanels"]
	if count.Sign() == 0 {
		return fmt.Errorf("%w: no active panel after createPanel", check.ErrExpectation)
	}
	res, err := galleria.Call(ctx, "getActivePanelByIndex", new(big.Int).Sub(count, big.NewInt(1)))
	if err != nil {
		return err
	}
	panel, err := readPanel(res)
	if err != nil {
		return err
	}
	if err := check.First(
		check.BigEqual("Creator eth balance changed by creating panel", p.ShowFee, spent),
		check.BigEqual("Platform eth balance changed by panel platform fee", p.ShowFee, Delta(before, after, "platformEth")),
		check.BigEqual("Creator token balance changed by creating panel", p.ShowAmount, Delta(after, before, "creatorToken")),
		check.Equal("Creator DID URI recorded in the panel", p.DidURI, panel.DidURI),
		check.BigEqual("State of active panel", big.NewInt(model.PanelStateActive), panel.PanelState),
	); err != nil {
		return err
	}
	log.Info("Panel created", zap.Stringer("creator", creator), zap.String("panelId", panel.PanelID.String()))

	// 撤下展位
	before = after
	if _, err := env.send(ctx, "Remove panel transaction status", galleria, creator, nil, "removePanel", panel.PanelID); err != nil {
		return err
	}
	if after, err = Take(ctx, probes); err != nil {
		return err
	}
	if res, err = galleria.Call(ctx, "getPanelById", panel.PanelID); err != nil {
		return err
	}
	removed, err := readPanel(res)
	if err != nil {
		return err
	}
	if err := check.First(
		check.BigEqual("Creator token balance changed by removing panel", p.ShowAmount, Delta(before, after, "creatorToken")),
		check.BigEqual("Active panel count changed by removing panel", big.NewInt(1), Delta(after, before, "activePanels")),
		check.BigEqual("State of removed panel", big.NewInt(model.PanelStateRemoved), removed.PanelState),
	); err != nil {
		return err
	}
	log.Info("Panel removed", zap.Stringer("creator", creator), zap.String("panelId", panel.PanelID.String()))
	return nil
}
