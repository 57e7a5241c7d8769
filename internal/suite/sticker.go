package suite

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"pasar-contract-tools/internal/check"
	"pasar-contract-tools/internal/contract"
)

// StickerParams NFT 测试的数量参数
type StickerParams struct {
	TokenID        *big.Int
	Supply         *big.Int
	URI            string
	Royalty        *big.Int
	Transfer       *big.Int
	ApprovedAmount *big.Int
	Burn           *big.Int
	ApprovedBurn   *big.Int
}

func DefaultStickerParams(tokenID *big.Int) StickerParams {
	return StickerParams{
		TokenID:        tokenID,
		Supply:         big.NewInt(123),
		URI:            "https://github.com/elastos-trinity/feeds-nft-contract#readme",
		Royalty:        big.NewInt(30000),
		Transfer:       big.NewInt(25),
		ApprovedAmount: big.NewInt(35),
		Burn:           big.NewInt(5),
		ApprovedBurn:   big.NewInt(6),
	}
}

// Sticker 铸造、转账、授权转账与销毁
func Sticker(ctx context.Context, env *Env, sticker *contract.Contract, acc *Accounts, p StickerParams) error {
	if err := acc.Require(RoleCreator, RoleSeller); err != nil {
		return err
	}
	creator, seller := acc.Creator, acc.Seller
	log := env.Logger.With(zap.String("suite", "sticker"))
	balances := map[string]Probe{
		"creator": TokenBalance(sticker, creator.Address, p.TokenID),
		"seller":  TokenBalance(sticker, seller.Address, p.TokenID),
	}
	tokenDesc := fmt.Sprintf("Token balance of id %s", p.TokenID)

	// 铸造
	before, err := Take(ctx, balances)
	if err != nil {
		return err
	}
	if err := check.BigEqual(tokenDesc+" before mint", new(big.Int), before["creator"]); err != nil {
		return err
	}
	if _, err := env.send(ctx, "Mint token transaction status", sticker, creator, nil,
		"mint", p.TokenID, p.Supply, p.URI, p.Royalty); err != nil {
		return err
	}
	after, err := Take(ctx, balances)
	if err != nil {
		return err
	}
	if err := check.BigEqual(tokenDesc+" after mint", p.Supply, after["creator"]); err != nil {
		return err
	}
	log.Info("Token minted", zap.String("tokenId", p.TokenID.String()), zap.String("supply", p.Supply.String()), zap.Stringer("to", creator))

	// creator -> seller
	before = after
	if _, err := env.send(ctx, "Transfer token transaction status", sticker, creator, nil,
		"safeTransferFrom", creator.Address, seller.Address, p.TokenID, p.Transfer); err != nil {
		return err
	}
	if after, err = Take(ctx, balances); err != nil {
		return err
	}
	if err := check.First(
		check.BigEqual("Token transfer balance changed for creator", p.Transfer, Delta(after, before, "creator")),
		check.BigEqual("Token transfer balance changed for seller", p.Transfer, Delta(before, after, "seller")),
	); err != nil {
		return err
	}
	log.Info("Token transferred", zap.Stringer("from", creator), zap.Stringer("to", seller))

	// creator 授权 seller
	if _, err := env.send(ctx, "Approve token transaction status", sticker, creator, nil,
		"setApprovalForAll", seller.Address, true); err != nil {
		return err
	}
	approved, err := callBool(ctx, sticker, "isApprovedForAll", creator.Address, seller.Address)
	if err != nil {
		return err
	}
	if err := check.True("Seller is approved by creator", approved); err != nil {
		return err
	}
	log.Info("Operator approved", zap.Stringer("owner", creator), zap.Stringer("operator", seller))

	// seller 代为转账
	before = after
	if _, err := env.send(ctx, "Approved transfer token transaction status", sticker, seller, nil,
		"safeTransferFrom", creator.Address, seller.Address, p.TokenID, p.ApprovedAmount); err != nil {
		return err
	}
	if after, err = Take(ctx, balances); err != nil {
		return err
	}
	if err := check.First(
		check.BigEqual("Token approved transfer balance changed for creator", p.ApprovedAmount, Delta(after, before, "creator")),
		check.BigEqual("Token approved transfer balance changed for seller", p.ApprovedAmount, Delta(before, after, "seller")),
	); err != nil {
		return err
	}
	log.Info("Token approved transfer", zap.Stringer("from", creator), zap.Stringer("to", seller))

	// 销毁
	before = after
	if _, err := env.send(ctx, "Burn token transaction status", sticker, creator, nil,
		"burn", p.TokenID, p.Burn); err != nil {
		return err
	}
	if after, err = Take(ctx, balances); err != nil {
		return err
	}
	if err := check.BigEqual("Token burn balance change for creator", p.Burn, Delta(after, before, "creator")); err != nil {
		return err
	}
	log.Info("Token burned", zap.Stringer("from", creator))

	// seller 代为销毁
	before = after
	if _, err := env.send(ctx, "Approved burn token transaction status", sticker, seller, nil,
		"burnFrom", creator.Address, p.TokenID, p.ApprovedBurn); err != nil {
		return err
	}
	if after, err = Take(ctx, balances); err != nil {
		return err
	}
	if err := check.BigEqual("Token approved burn balance change for creator", p.ApprovedBurn, Delta(after, before, "creator")); err != nil {
		return err
	}
	log.Info("Token approved burned", zap.Stringer("from", creator), zap.Stringer("by", seller))
	return nil
}
