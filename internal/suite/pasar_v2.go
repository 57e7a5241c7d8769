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
	"pasar-contract-tools/internal/service"
)

// PasarV2Params 在 V1 参数之上增加 ERC20 授权额度、DID URI 与可拆分订单
type PasarV2Params struct {
	MarketParams
	ERC20Approve     *big.Int
	SellerURI        string
	BuyerURI         string
	PlatformAddr     common.Address
	SplittableAmount *big.Int
	SplittablePrice  *big.Int
	PartialAmount    *big.Int
}

func DefaultPasarV2Params(tokenID *big.Int) PasarV2Params {
	return PasarV2Params{
		MarketParams:     DefaultMarketParams(tokenID),
		ERC20Approve:     service.MustBig("1000000000000000000000000"),
		SellerURI:        "https://github.com/elastos-trinity/feeds-nft-contract",
		BuyerURI:         "https://github.com/elastos-trinity/pasarV2-contracts",
		PlatformAddr:     common.HexToAddress(service.DefaultPlatformAddr),
		SplittableAmount: big.NewInt(20),
		SplittablePrice:  service.MustBig("9000000000000000000"),
		PartialAmount:    big.NewInt(12),
	}
}

// PartialPrice 部分购买应支付的金额
func (p PasarV2Params) PartialPrice() *big.Int {
	return model.PartialPrice(p.SplittablePrice, p.PartialAmount, p.SplittableAmount)
}

// settlement 一笔成交后各方的 ERC20 与 NFT 变化
type settlement struct {
	order  model.Order
	extra  model.OrderExtra
	before Snapshot
	after  Snapshot
	prefix string // sale / auction

	// 收到 NFT 的一方
	tokenDesc string
	tokenKey  string
}

func (s settlement) check(p PasarV2Params, amount *big.Int) error {
	earning := model.SellerEarning(s.order.Filled, s.order.RoyaltyFee, s.extra.PlatformFee)
	return check.First(
		check.BigEqual("Creator erc20 balance changed by "+s.prefix+" royalty", s.order.RoyaltyFee, Delta(s.before, s.after, "creatorErc20")),
		check.BigEqual("Platform erc20 balance changed by "+s.prefix+" platform fee", s.extra.PlatformFee, Delta(s.before, s.after, "platformErc20")),
		check.BigEqual("Seller erc20 balance changed by "+s.prefix+" earning", earning, Delta(s.before, s.after, "sellerErc20")),
		check.BigEqual(s.tokenDesc, amount, Delta(s.before, s.after, s.tokenKey)),
		check.Equal("Seller DID URI recorded in the order", p.SellerURI, s.extra.SellerURI),
		check.Equal("Buyer DID URI recorded in the order", p.BuyerURI, s.extra.BuyerURI),
	)
}

// PasarV2 ERC20 支付的市场：一口价、拍卖、改价撤单、可拆分订单
func PasarV2(ctx context.Context, env *Env, pasar, stickerTemplate, erc20 *contract.Contract, acc *Accounts, p PasarV2Params) error {
	if err := acc.Require(RoleCreator, RoleSeller, RoleBuyer, RoleBidder); err != nil {
		return err
	}
	creator, seller, buyer, bidder := acc.Creator, acc.Seller, acc.Buyer, acc.Bidder
	log := env.Logger.With(zap.String("suite", "pasarV2"))

	tokenAddr, err := callAddress(ctx, pasar, "getTokenAddress")
	if err != nil {
		return err
	}
	sticker := stickerTemplate.At(tokenAddr)
	probes := map[string]Probe{
		"creatorErc20":  ERC20Balance(erc20, creator.Address),
		"sellerErc20":   ERC20Balance(erc20, seller.Address),
		"buyerErc20":    ERC20Balance(erc20, buyer.Address),
		"bidderErc20":   ERC20Balance(erc20, bidder.Address),
		"platformErc20": ERC20Balance(erc20, p.PlatformAddr),
		"sellerToken":   TokenBalance(sticker, seller.Address, p.TokenID),
		"buyerToken":    TokenBalance(sticker, buyer.Address, p.TokenID),
		"bidderToken":   TokenBalance(sticker, bidder.Address, p.TokenID),
	}

	pre, err := Take(ctx, probes)
	if err != nil {
		return err
	}
	if err := check.First(
		check.AtLeast(fmt.Sprintf("Seller not enough token balance of id %s before test", p.TokenID),
			pre["sellerToken"], sum(p.SaleAmount, p.AuctionAmount, p.OrderAmount, p.SplittableAmount)),
		check.AtLeast("Buyer not enough ERC20 balance before test", pre["buyerErc20"], sum(p.SalePrice, p.Bid1Price, p.PartialPrice())),
		check.AtLeast("Bidder not enough ERC20 balance before test", pre["bidderErc20"], p.Bid2Price),
	); err != nil {
		return err
	}
	log.Info("Pre-conditions checked, all accounts have enough balances")

	if err := approveForAll(ctx, env, sticker, seller, pasar, "Pasar is approved by seller"); err != nil {
		return err
	}
	for _, who := range []struct {
		role string
		acc  *execution.Account
	}{{"erc20BuyerApprove", buyer}, {"erc20BidderApprove", bidder}} {
		if _, err := env.send(ctx, who.role+" transaction status", erc20, who.acc, nil, "approve", pasar.Address, p.ERC20Approve); err != nil {
			return err
		}
		log.Info("ERC20 approved", zap.Stringer("owner", who.acc), zap.String("spender", pasar.Address.Hex()))
	}

	// 一口价
	saleID, err := placeOrder(ctx, env, pasar, seller, sticker, p.TokenID, p.SaleAmount, "Sale order", true,
		"createOrderForSale", p.TokenID, p.SaleAmount, erc20.Address, p.SalePrice, p.SellerURI)
	if err != nil {
		return err
	}
	before, err := Take(ctx, probes)
	if err != nil {
		return err
	}
	if _, err := env.send(ctx, "Purchase order transaction status", pasar, buyer, nil, "buyOrder", saleID, p.BuyerURI); err != nil {
		return err
	}
	s, err := readSettlement(ctx, pasar, saleID, before, probes)
	if err != nil {
		return err
	}
	s.prefix, s.tokenKey, s.tokenDesc = "sale", "buyerToken", "Buyer token balance changed by purchasing token"
	if err := check.First(
		s.check(p, p.SaleAmount),
		check.BigEqual("Buyer erc20 balance changed by purchasing token", s.order.Filled, Delta(s.after, s.before, "buyerErc20")),
	); err != nil {
		return err
	}
	log.Info("Token purchased from sale", zap.Stringer("buyer", buyer), zap.String("orderId", saleID.String()))

	// 拍卖
	endTime, err := auctionEnd(ctx, env, p.AuctionDuration)
	if err != nil {
		return err
	}
	auctionID, err := placeOrder(ctx, env, pasar, seller, sticker, p.TokenID, p.AuctionAmount, "Auction order", true,
		"createOrderForAuction", p.TokenID, p.AuctionAmount, erc20.Address, p.AuctionPrice, new(big.Int).SetUint64(endTime), p.SellerURI)
	if err != nil {
		return err
	}

	if before, err = Take(ctx, probes); err != nil {
		return err
	}
	if _, err := env.send(ctx, "First bid transaction status", pasar, buyer, nil, "bidForOrder", auctionID, p.Bid1Price, p.BuyerURI); err != nil {
		return err
	}
	after, err := Take(ctx, probes)
	if err != nil {
		return err
	}
	if err := check.BigEqual("Buyer erc20 balance changed by first bid on token", p.Bid1Price, Delta(after, before, "buyerErc20")); err != nil {
		return err
	}
	log.Info("First bid placed", zap.Stringer("bidder", buyer), zap.String("orderId", auctionID.String()))

	before = after
	if _, err := env.send(ctx, "Second bid transaction status", pasar, bidder, nil, "bidForOrder", auctionID, p.Bid2Price, p.BuyerURI); err != nil {
		return err
	}
	if after, err = Take(ctx, probes); err != nil {
		return err
	}
	if err := check.First(
		check.BigEqual("Buyer erc20 balance returned by second bid on token", p.Bid1Price, Delta(before, after, "buyerErc20")),
		check.BigEqual("Bidder erc20 balance changed by second bid on token", p.Bid2Price, Delta(after, before, "bidderErc20")),
	); err != nil {
		return err
	}
	log.Info("Second bid placed", zap.Stringer("bidder", bidder), zap.String("orderId", auctionID.String()))

	if err := env.wait(ctx, endTime); err != nil {
		return err
	}

	if before, err = Take(ctx, probes); err != nil {
		return err
	}
	if _, err := env.send(ctx, "Settle auction order transaction status", pasar, buyer, nil, "settleAuctionOrder", auctionID); err != nil {
		return err
	}
	if s, err = readSettlement(ctx, pasar, auctionID, before, probes); err != nil {
		return err
	}
	s.prefix, s.tokenKey, s.tokenDesc = "auction", "bidderToken", "Bidder token balance changed by winning auction token"
	if err := s.check(p, p.AuctionAmount); err != nil {
		return err
	}
	log.Info("Auction settled", zap.Stringer("winner", bidder), zap.String("orderId", auctionID.String()))

	// 改价与撤单
	orderID, err := placeOrder(ctx, env, pasar, seller, sticker, p.TokenID, p.OrderAmount, "Test order", true,
		"createOrderForSale", p.TokenID, p.OrderAmount, erc20.Address, p.OrderPrice1, p.SellerURI)
	if err != nil {
		return err
	}
	if err := changeAndCancel(ctx, env, pasar, seller, sticker, orderID, p.MarketParams, readOrder, log); err != nil {
		return err
	}

	return splittable(ctx, env, pasar, sticker, erc20, acc, p, probes, log)
}

func readSettlement(ctx context.Context, pasar *contract.Contract, orderID *big.Int, before Snapshot, probes map[string]Probe) (settlement, error) {
	after, err := Take(ctx, probes)
	if err != nil {
		return settlement{}, err
	}
	order, err := readOrder(ctx, pasar, orderID)
	if err != nil {
		return settlement{}, err
	}
	extra, err := readOrderExtra(ctx, pasar, orderID)
	if err != nil {
		return settlement{}, err
	}
	return settlement{order: order, extra: extra, before: before, after: after}, nil
}

// splittable 可拆分订单：部分购买后撤单，剩余数量退回卖家
func splittable(ctx context.Context, env *Env, pasar, sticker, erc20 *contract.Contract, acc *Accounts, p PasarV2Params,
	probes map[string]Probe, log *zap.Logger) error {
	seller, buyer := acc.Seller, acc.Buyer

	orderID, err := placeOrder(ctx, env, pasar, seller, sticker, p.TokenID, p.SplittableAmount, "Splittable order", true,
		"createSplittableOrder", p.TokenID, p.SplittableAmount, erc20.Address, p.SplittablePrice, p.SellerURI)
	if err != nil {
		return err
	}

	before, err := Take(ctx, probes)
	if err != nil {
		return err
	}
	if _, err := env.send(ctx, "Partial purchase order transaction status", pasar, buyer, nil,
		"buySplittableOrder", orderID, p.PartialAmount, p.BuyerURI); err != nil {
		return err
	}
	after, err := Take(ctx, probes)
	if err != nil {
		return err
	}
	extra, err := readOrderExtra(ctx, pasar, orderID)
	if err != nil {
		return err
	}
	fill, ok := extra.LastFill()
	if !ok {
		return fmt.Errorf("%w: no partial fill recorded for order %s", check.ErrExpectation, orderID)
	}
	if err := check.First(
		check.BigEqual("Creator erc20 balance changed by partial order royalty", fill.RoyaltyFee, Delta(before, after, "creatorErc20")),
		check.BigEqual("Platform erc20 balance changed by partial order platform fee", fill.PlatformFee, Delta(before, after, "platformErc20")),
		check.BigEqual("Seller erc20 balance changed by partial order earning",
			model.SellerEarning(fill.Value, fill.RoyaltyFee, fill.PlatformFee), Delta(before, after, "sellerErc20")),
		check.BigEqual("Buyer token balance changed by partial purchase order", fill.Amount, Delta(before, after, "buyerToken")),
		check.BigEqual("Buyer erc20 balance changed by partial purchase order", fill.Value, Delta(after, before, "buyerErc20")),
		check.BigEqual("Order price left after partial purchase order", new(big.Int).Sub(p.SplittablePrice, fill.Value), extra.PriceLeft),
		check.BigEqual("Order amount left after partial purchase order", new(big.Int).Sub(p.SplittableAmount, fill.Amount), extra.AmountLeft),
		check.Equal("Buyer DID URI recorded in the partial order", p.BuyerURI, fill.BuyerURI),
	); err != nil {
		return err
	}
	log.Info("Partial order purchased", zap.Stringer("buyer", buyer), zap.String("orderId", orderID.String()),
		zap.String("amount", fill.Amount.String()), zap.String("value", fill.Value.String()))

	// 撤销剩余部分
	before = after
	if _, err := env.send(ctx, "Cancel splittable order transaction status", pasar, seller, nil, "cancelOrder", orderID); err != nil {
		return err
	}
	if after, err = Take(ctx, probes); err != nil {
		return err
	}
	order, err := readOrder(ctx, pasar, orderID)
	if err != nil {
		return err
	}
	if extra, err = readOrderExtra(ctx, pasar, orderID); err != nil {
		return err
	}
	if err := check.First(
		check.BigEqual("Seller token balance changed canceling splittable order", extra.AmountLeft, Delta(before, after, "sellerToken")),
		check.BigEqual("Splittable order state after getting canceled", big.NewInt(model.OrderStateCanceled), order.OrderState),
	); err != nil {
		return err
	}
	log.Info("Splittable order canceled", zap.Stringer("seller", seller), zap.String("orderId", orderID.String()))
	return nil
}
