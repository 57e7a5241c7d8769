package suite

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"pasar-contract-tools/internal/contract"
	"pasar-contract-tools/internal/model"
)

func callBig(ctx context.Context, c *contract.Contract, method string, args ...interface{}) (*big.Int, error) {
	res, err := c.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return res.BigAt(0)
}

func callBool(ctx context.Context, c *contract.Contract, method string, args ...interface{}) (bool, error) {
	res, err := c.Call(ctx, method, args...)
	if err != nil {
		return false, err
	}
	return res.BoolAt(0)
}

func callString(ctx context.Context, c *contract.Contract, method string, args ...interface{}) (string, error) {
	res, err := c.Call(ctx, method, args...)
	if err != nil {
		return "", err
	}
	return res.StringAt(0)
}

func callAddress(ctx context.Context, c *contract.Contract, method string, args ...interface{}) (common.Address, error) {
	res, err := c.Call(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	return res.AddressAt(0)
}

// fields 依次读取多个字段，记住第一个错误
type fields struct {
	res *contract.Result
	err error
}

func (f *fields) big(name string) *big.Int {
	if f.err != nil {
		return nil
	}
	v, err := f.res.Big(name)
	f.err = err
	return v
}

func (f *fields) bigAt(i int) *big.Int {
	if f.err != nil {
		return nil
	}
	v, err := f.res.BigAt(i)
	f.err = err
	return v
}

func (f *fields) str(name string) string {
	if f.err != nil {
		return ""
	}
	v, err := f.res.String(name)
	f.err = err
	return v
}

func (f *fields) addr(name string) common.Address {
	if f.err != nil {
		return common.Address{}
	}
	v, err := f.res.Address(name)
	f.err = err
	return v
}

// lastOpenOrderID 最新挂出的订单：getOpenOrderByIndex(count-1) 的 orderId
// V1 的订单结构按下标读取，V2 按字段名读取
func lastOpenOrderID(ctx context.Context, pasar *contract.Contract, byName bool) (*big.Int, error) {
	count, err := callBig(ctx, pasar, "getOpenOrderCount")
	if err != nil {
		return nil, err
	}
	if count.Sign() == 0 {
		return nil, fmt.Errorf("%s: no open orders", pasar.Name)
	}
	res, err := pasar.Call(ctx, "getOpenOrderByIndex", new(big.Int).Sub(count, big.NewInt(1)))
	if err != nil {
		return nil, err
	}
	if byName {
		return res.Big("orderId")
	}
	return res.BigAt(0)
}

// V1 订单结构中的字段下标
const (
	v1OrderID    = 0
	v1OrderState = 2
	v1Price      = 5
	v1Filled     = 12
	v1Royalty    = 14
)

func readOrderV1(ctx context.Context, pasar *contract.Contract, orderID *big.Int) (model.Order, error) {
	res, err := pasar.Call(ctx, "getOrderById", orderID)
	if err != nil {
		return model.Order{}, err
	}
	f := fields{res: res}
	o := model.Order{
		OrderID:    f.bigAt(v1OrderID),
		OrderState: f.bigAt(v1OrderState),
		Price:      f.bigAt(v1Price),
		Filled:     f.bigAt(v1Filled),
		RoyaltyFee: f.bigAt(v1Royalty),
	}
	return o, f.err
}

func readOrder(ctx context.Context, pasar *contract.Contract, orderID *big.Int) (model.Order, error) {
	res, err := pasar.Call(ctx, "getOrderById", orderID)
	if err != nil {
		return model.Order{}, err
	}
	f := fields{res: res}
	o := model.Order{
		OrderID:    f.big("orderId"),
		OrderState: f.big("orderState"),
		Price:      f.big("price"),
		Filled:     f.big("filled"),
		RoyaltyFee: f.big("royaltyFee"),
	}
	return o, f.err
}

func readOrderExtra(ctx context.Context, pasar *contract.Contract, orderID *big.Int) (model.OrderExtra, error) {
	res, err := pasar.Call(ctx, "getOrderExtraById", orderID)
	if err != nil {
		return model.OrderExtra{}, err
	}
	f := fields{res: res}
	extra := model.OrderExtra{
		PlatformFee: f.big("platformFee"),
		SellerURI:   f.str("sellerUri"),
		BuyerURI:    f.str("buyerUri"),
		PriceLeft:   f.big("priceLeft"),
		AmountLeft:  f.big("amountLeft"),
	}
	if f.err != nil {
		return extra, f.err
	}
	fills, err := res.Tuples("partialFills")
	if err != nil {
		return extra, err
	}
	for _, item := range fills {
		pf := fields{res: item}
		extra.PartialFills = append(extra.PartialFills, model.PartialFill{
			Value:       pf.big("value"),
			Amount:      pf.big("amount"),
			RoyaltyFee:  pf.big("royaltyFee"),
			PlatformFee: pf.big("platformFee"),
			BuyerURI:    pf.str("buyerUri"),
		})
		if pf.err != nil {
			return extra, pf.err
		}
	}
	return extra, nil
}

func readPanel(res *contract.Result) (model.Panel, error) {
	f := fields{res: res}
	p := model.Panel{
		PanelID:    f.big("panelId"),
		DidURI:     f.str("didUri"),
		PanelState: f.big("panelState"),
	}
	return p, f.err
}

// readPlatformFee Pasar getPlatformFee()
func readPlatformFee(ctx context.Context, pasar *contract.Contract) (model.PlatformFee, error) {
	res, err := pasar.Call(ctx, "getPlatformFee")
	if err != nil {
		return model.PlatformFee{}, err
	}
	f := fields{res: res}
	fee := model.PlatformFee{
		PlatformAddr: f.addr("_platformAddress"),
		FeeRate:      f.big("_platformFeeRate"),
	}
	return fee, f.err
}

// readFeeParams Galleria getFeeParams()
func readFeeParams(ctx context.Context, galleria *contract.Contract) (model.FeeParams, error) {
	res, err := galleria.Call(ctx, "getFeeParams")
	if err != nil {
		return model.FeeParams{}, err
	}
	f := fields{res: res}
	params := model.FeeParams{
		PlatformAddr: f.addr("_platformAddress"),
		MinFee:       f.big("_minFee"),
	}
	return params, f.err
}
