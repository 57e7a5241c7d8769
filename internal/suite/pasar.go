package suite

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"pasar-contract-tools/internal/check"
	"pasar-contract-tools/internal/contract"
	"pasar-contract-tools/internal/execution"
	"pasar-contract-tools/internal/model"
	"pasar-contract-tools/internal/service"
)

// MarketParams 市场测试的数量与价格
type MarketParams struct {
	TokenID         *big.Int
	GasBuffer       *big.Int
	SaleAmount      *big.Int
	SalePrice       *big.Int
	AuctionAmount   *big.Int
	AuctionPrice    *big.Int
	Bid1Price       *big.Int
	Bid2Price       *big.Int
	OrderAmount     *big.Int
	OrderPrice1     *big.Int
	OrderPrice2     *big.Int
	AuctionDuration time.Duration
}

func DefaultMarketParams(tokenID *big.Int) MarketParams {
	return MarketParams{
		TokenID:         tokenID,
		GasBuffer:       service.MustBig("100000000000000000"),
		SaleAmount:      big.NewInt(1),
		SalePrice:       service.MustBig("600000000000000000"),
		AuctionAmount:   big.NewInt(3),
		AuctionPrice:    service.MustBig("1500000000000000000"),
		Bid1Price:       service.MustBig("1500000000000000000"),
		Bid2Price:       service.MustBig("1700000000000000000"),
		OrderAmount:     big.NewInt(7),
		OrderPrice1:     service.MustBig("800000000000000000"),
		OrderPrice2:     service.MustBig("1300000000000000000"),
		AuctionDuration: service.DefaultAuctionTime,
	}
}

func sum(vs ...*big.Int) *big.Int {
	total := new(big.Int)
	for _, v := range vs {
		total.Add(total, v)
	}
	return total
}

// auctionEnd 最新区块时间加上拍卖时长
func auctionEnd(ctx context.Context, env *Env, d time.Duration) (uint64, error) {
	head, err := env.Exec.LatestHeader(ctx)
	if err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}
	return head.Time + uint64(d/time.Second), nil
}

// paid 交易发送方的余额变化扣除手续费后的支出
func paid(ctx context.Context, env *Env, receipt *types.Receipt, before, after *big.Int) (*big.Int, error) {
	fee, err := env.GasFee(ctx, receipt)
	if err != nil {
		return nil, err
	}
	out := new(big.Int).Sub(before, after)
	return out.Sub(out, fee), nil
}

// GasFee 交易实际花费的手续费
func (e *Env) GasFee(ctx context.Context, receipt *types.Receipt) (*big.Int, error) {
	return e.Exec.GasFee(ctx, receipt)
}

// Pasar V1 市场（原生币支付）：一口价、拍卖、改价与撤单
func Pasar(ctx context.Context, env *Env, pasar, stickerTemplate *contract.Contract, acc *Accounts, p MarketParams) error {
	if err := acc.Require(RoleCreator, RoleSeller, RoleBuyer, RoleBidder); err != nil {
		return err
	}
	creator, seller, buyer, bidder := acc.Creator, acc.Seller, acc.Buyer, acc.Bidder
	log := env.Logger.With(zap.String("suite", "pasar"))

	tokenAddr, err := callAddress(ctx, pasar, "getTokenAddress")
	if err != nil {
		return err
	}
	sticker := stickerTemplate.At(tokenAddr)
	probes := map[string]Probe{
		"creatorEth":  EthBalance(env.Exec, creator.Address),
		"sellerEth":   EthBalance(env.Exec, seller.Address),
		"buyerEth":    EthBalance(env.Exec, buyer.Address),
		"bidderEth":   EthBalance(env.Exec, bidder.Address),
		"sellerToken": TokenBalance(sticker, seller.Address, p.TokenID),
		"buyerToken":  TokenBalance(sticker, buyer.Address, p.TokenID),
		"bidderToken": TokenBalance(sticker, bidder.Address, p.TokenID),
	}

	// 前置条件
	pre, err := Take(ctx, probes)
	if err != nil {
		return err
	}
	if err := check.First(
		check.AtLeast(fmt.Sprintf("Seller not enough token balance of id %s before test", p.TokenID),
			pre["sellerToken"], sum(p.SaleAmount, p.AuctionAmount, p.OrderAmount)),
		check.AtLeast("Buyer not enough ETH balance before test", pre["buyerEth"], sum(p.SalePrice, p.Bid1Price, p.GasBuffer)),
		check.AtLeast("Bidder not enough ETH balance before test", pre["bidderEth"], sum(p.Bid2Price, p.GasBuffer)),
	); err != nil {
		return err
	}
	log.Info("Pre-conditions checked, all accounts have enough balances")

	if err := approveForAll(ctx, env, sticker, seller, pasar, "Pasar is approved by seller"); err != nil {
		return err
	}

	// 一口价
	saleID, err := placeOrder(ctx, env, pasar, seller, sticker, p.TokenID, p.SaleAmount, "Sale order", false,
		"createOrderForSale", p.TokenID, p.SaleAmount, p.SalePrice)
	if err != nil {
		return err
	}
	before, err := Take(ctx, probes)
	if err != nil {
		return err
	}
	receipt, err := env.send(ctx, "Purchase order transaction status", pasar, buyer, p.SalePrice, "buyOrder", saleID)
	if err != nil {
		return err
	}
	after, err := Take(ctx, probes)
	if err != nil {
		return err
	}
	order, err := readOrderV1(ctx, pasar, saleID)
	if err != nil {
		return err
	}
	spent, err := paid(ctx, env, receipt, before["buyerEth"], after["buyerEth"])
	if err != nil {
		return err
	}
	if err := check.First(
		check.BigEqual("Creator eth balance changed by sale royalty", order.RoyaltyFee, Delta(before, after, "creatorEth")),
		check.BigEqual("Seller eth balance changed by sale earning",
			model.SellerEarning(order.Filled, order.RoyaltyFee, nil), Delta(before, after, "sellerEth")),
		check.BigEqual("Buyer token balance changed by purchasing token", p.SaleAmount, Delta(before, after, "buyerToken")),
		check.BigEqual("Buyer eth balance changed by purchasing token", order.Filled, spent),
	); err != nil {
		return err
	}
	log.Info("Token purchased from sale", zap.Stringer("buyer", buyer), zap.String("orderId", saleID.String()))

	// 拍卖
	endTime, err := auctionEnd(ctx, env, p.AuctionDuration)
	if err != nil {
		return err
	}
	auctionID, err := placeOrder(ctx, env, pasar, seller, sticker, p.TokenID, p.AuctionAmount, "Auction order", false,
		"createOrderForAuction", p.TokenID, p.AuctionAmount, p.AuctionPrice, new(big.Int).SetUint64(endTime))
	if err != nil {
		return err
	}

	if before, err = Take(ctx, probes); err != nil {
		return err
	}
	receipt, err = env.send(ctx, "First bid transaction status", pasar, buyer, p.Bid1Price, "bidForOrder", auctionID)
	if err != nil {
		return err
	}
	if after, err = Take(ctx, probes); err != nil {
		return err
	}
	if spent, err = paid(ctx, env, receipt, before["buyerEth"], after["buyerEth"]); err != nil {
		return err
	}
	if err := check.BigEqual("Buyer eth balance changed by first bid on token", p.Bid1Price, spent); err != nil {
		return err
	}
	log.Info("First bid placed", zap.Stringer("bidder", buyer), zap.String("orderId", auctionID.String()))

	before = after
	receipt, err = env.send(ctx, "Second bid transaction status", pasar, bidder, p.Bid2Price, "bidForOrder", auctionID)
	if err != nil {
		return err
	}
	if after, err = Take(ctx, probes); err != nil {
		return err
	}
	if spent, err = paid(ctx, env, receipt, before["bidderEth"], after["bidderEth"]); err != nil {
		return err
	}
	if err := check.First(
		check.BigEqual("Buyer eth balance returned by second bid on token", p.Bid1Price, Delta(before, after, "buyerEth")),
		check.BigEqual("Bidder eth balance changed by second bid on token", p.Bid2Price, spent),
	); err != nil {
		return err
	}
	log.Info("Second bid placed", zap.Stringer("bidder", bidder), zap.String("orderId", auctionID.String()))

	if err := env.wait(ctx, endTime); err != nil {
		return err
	}

	// 任何人都可以结算已结束的拍卖，这里由 buyer 结算
	if before, err = Take(ctx, probes); err != nil {
		return err
	}
	if _, err := env.send(ctx, "Settle auction order transaction status", pasar, buyer, nil, "settleAuctionOrder", auctionID); err != nil {
		return err
	}
	if after, err = Take(ctx, probes); err != nil {
		return err
	}
	if order, err = readOrderV1(ctx, pasar, auctionID); err != nil {
		return err
	}
	if err := check.First(
		check.BigEqual("Creator eth balance changed by auction royalty", order.RoyaltyFee, Delta(before, after, "creatorEth")),
		check.BigEqual("Seller eth balance changed by auction earning",
			model.SellerEarning(order.Filled, order.RoyaltyFee, nil), Delta(before, after, "sellerEth")),
		check.BigEqual("Bidder token balance changed by winning auction token", p.AuctionAmount, Delta(before, after, "bidderToken")),
	); err != nil {
		return err
	}
	log.Info("Auction settled", zap.Stringer("winner", bidder), zap.String("orderId", auctionID.String()))

	// 改价与撤单
	orderID, err := placeOrder(ctx, env, pasar, seller, sticker, p.TokenID, p.OrderAmount, "Test order", false,
		"createOrderForSale", p.TokenID, p.OrderAmount, p.OrderPrice1)
	if err != nil {
		return err
	}
	return changeAndCancel(ctx, env, pasar, seller, sticker, orderID, p, readOrderV1, log)
}

type orderReader func(ctx context.Context, pasar *contract.Contract, orderID *big.Int) (model.Order, error)

// changeAndCancel 改价后撤单，撤单后 NFT 退回卖家且订单状态为已取消
func changeAndCancel(ctx context.Context, env *Env, pasar *contract.Contract, seller *execution.Account, sticker *contract.Contract,
	orderID *big.Int, p MarketParams, read orderReader, log *zap.Logger) error {
	order, err := read(ctx, pasar, orderID)
	if err != nil {
		return err
	}
	if err := check.BigEqual("Test order price before change", p.OrderPrice1, order.Price); err != nil {
		return err
	}
	if _, err := env.send(ctx, "Test change price transaction status", pasar, seller, nil, "changeOrderPrice", orderID, p.OrderPrice2); err != nil {
		return err
	}
	if order, err = read(ctx, pasar, orderID); err != nil {
		return err
	}
	if err := check.BigEqual("Test order price after change", p.OrderPrice2, order.Price); err != nil {
		return err
	}
	log.Info("Order price changed", zap.String("orderId", orderID.String()), zap.String("price", order.Price.String()))

	tokens := map[string]Probe{"seller": TokenBalance(sticker, seller.Address, p.TokenID)}
	before, err := Take(ctx, tokens)
	if err != nil {
		return err
	}
	if _, err := env.send(ctx, "Test cancel order transaction status", pasar, seller, nil, "cancelOrder", orderID); err != nil {
		return err
	}
	after, err := Take(ctx, tokens)
	if err != nil {
		return err
	}
	if order, err = read(ctx, pasar, orderID); err != nil {
		return err
	}
	if err := check.First(
		check.BigEqual("Seller token balance changed canceling test order", p.OrderAmount, Delta(before, after, "seller")),
		check.BigEqual("Order state after getting canceled", big.NewInt(model.OrderStateCanceled), order.OrderState),
	); err != nil {
		return err
	}
	log.Info("Order canceled", zap.String("orderId", orderID.String()))
	return nil
}

// approveForAll owner 授权 operator 管理全部 NFT
func approveForAll(ctx context.Context, env *Env, sticker *contract.Contract, owner *execution.Account, operator *contract.Contract, desc string) error {
	if _, err := env.send(ctx, "Approve token transaction status", sticker, owner, nil, "setApprovalForAll", operator.Address, true); err != nil {
		return err
	}
	approved, err := callBool(ctx, sticker, "isApprovedForAll", owner.Address, operator.Address)
	if err != nil {
		return err
	}
	if err := check.True(desc, approved); err != nil {
		return err
	}
	env.Logger.Info("Operator approved", zap.Stringer("owner", owner), zap.String("operator", operator.Address.Hex()))
	return nil
}

// placeOrder 卖家挂单，核对 NFT 转入市场合约并返回新订单号
func placeOrder(ctx context.Context, env *Env, pasar *contract.Contract, seller *execution.Account, sticker *contract.Contract,
	tokenID, amount *big.Int, label string, byName bool, method string, args ...interface{}) (*big.Int, error) {
	tokens := map[string]Probe{"seller": TokenBalance(sticker, seller.Address, tokenID)}
	before, err := Take(ctx, tokens)
	if err != nil {
		return nil, err
	}
	if _, err := env.send(ctx, label+" transaction status", pasar, seller, nil, method, args...); err != nil {
		return nil, err
	}
	after, err := Take(ctx, tokens)
	if err != nil {
		return nil, err
	}
	if err := check.BigEqual("Seller token balance changed placing "+strings.ToLower(label), amount, Delta(after, before, "seller")); err != nil {
		return nil, err
	}
	id, err := lastOpenOrderID(ctx, pasar, byName)
	if err != nil {
		return nil, err
	}
	env.Logger.Info("Order placed", zap.String("type", label), zap.Stringer("seller", seller), zap.String("orderId", id.String()))
	return id, nil
}
