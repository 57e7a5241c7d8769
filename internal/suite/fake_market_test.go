package suite

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"pasar-contract-tools/internal/model"
)

const orderV1Components = `
  {"name":"orderId","type":"uint256"},
  {"name":"orderType","type":"uint256"},
  {"name":"orderState","type":"uint256"},
  {"name":"tokenId","type":"uint256"},
  {"name":"amount","type":"uint256"},
  {"name":"price","type":"uint256"},
  {"name":"endTime","type":"uint256"},
  {"name":"sellerAddr","type":"address"},
  {"name":"buyerAddr","type":"address"},
  {"name":"bids","type":"uint256"},
  {"name":"lastBidder","type":"address"},
  {"name":"lastBid","type":"uint256"},
  {"name":"filled","type":"uint256"},
  {"name":"royaltyOwner","type":"address"},
  {"name":"royaltyFee","type":"uint256"},
  {"name":"createTime","type":"uint256"},
  {"name":"updateTime","type":"uint256"}`

const pasarJSON = `[
  {"inputs":[],"name":"getTokenAddress","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_tokenId","type":"uint256"},{"name":"_amount","type":"uint256"},{"name":"_price","type":"uint256"}],"name":"createOrderForSale","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_tokenId","type":"uint256"},{"name":"_amount","type":"uint256"},{"name":"_minPrice","type":"uint256"},{"name":"_endTime","type":"uint256"}],"name":"createOrderForAuction","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"}],"name":"buyOrder","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"}],"name":"bidForOrder","outputs":[],"stateMutability":"payable","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"}],"name":"settleAuctionOrder","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"},{"name":"_price","type":"uint256"}],"name":"changeOrderPrice","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"}],"name":"cancelOrder","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[],"name":"getOpenOrderCount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_index","type":"uint256"}],"name":"getOpenOrderByIndex","outputs":[{"components":[` + orderV1Components + `],"name":"","type":"tuple"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"}],"name":"getOrderById","outputs":[{"components":[` + orderV1Components + `],"name":"","type":"tuple"}],"stateMutability":"view","type":"function"}
]`

const orderV2Components = `
  {"name":"orderId","type":"uint256"},
  {"name":"orderType","type":"uint256"},
  {"name":"orderState","type":"uint256"},
  {"name":"tokenId","type":"uint256"},
  {"name":"amount","type":"uint256"},
  {"name":"quoteToken","type":"address"},
  {"name":"price","type":"uint256"},
  {"name":"endTime","type":"uint256"},
  {"name":"sellerAddr","type":"address"},
  {"name":"buyerAddr","type":"address"},
  {"name":"bids","type":"uint256"},
  {"name":"lastBidder","type":"address"},
  {"name":"lastBid","type":"uint256"},
  {"name":"filled","type":"uint256"},
  {"name":"royaltyOwner","type":"address"},
  {"name":"royaltyFee","type":"uint256"},
  {"name":"createTime","type":"uint256"},
  {"name":"updateTime","type":"uint256"}`

const orderExtraComponents = `
  {"name":"platformFee","type":"uint256"},
  {"name":"sellerUri","type":"string"},
  {"name":"buyerUri","type":"string"},
  {"name":"priceLeft","type":"uint256"},
  {"name":"amountLeft","type":"uint256"},
  {"name":"partialFills","type":"tuple[]","components":[
    {"name":"value","type":"uint256"},
    {"name":"amount","type":"uint256"},
    {"name":"royaltyFee","type":"uint256"},
    {"name":"platformFee","type":"uint256"},
    {"name":"buyerUri","type":"string"}
  ]}`

const pasarV2JSON = `[
  {"inputs":[],"name":"getTokenAddress","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_tokenId","type":"uint256"},{"name":"_amount","type":"uint256"},{"name":"_quoteToken","type":"address"},{"name":"_price","type":"uint256"},{"name":"_didUri","type":"string"}],"name":"createOrderForSale","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_tokenId","type":"uint256"},{"name":"_amount","type":"uint256"},{"name":"_quoteToken","type":"address"},{"name":"_minPrice","type":"uint256"},{"name":"_endTime","type":"uint256"},{"name":"_didUri","type":"string"}],"name":"createOrderForAuction","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_tokenId","type":"uint256"},{"name":"_amount","type":"uint256"},{"name":"_quoteToken","type":"address"},{"name":"_price","type":"uint256"},{"name":"_didUri","type":"string"}],"name":"createSplittableOrder","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"},{"name":"_didUri","type":"string"}],"name":"buyOrder","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"},{"name":"_amount","type":"uint256"},{"name":"_didUri","type":"string"}],"name":"buySplittableOrder","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"},{"name":"_price","type":"uint256"},{"name":"_didUri","type":"string"}],"name":"bidForOrder","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"}],"name":"settleAuctionOrder","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"},{"name":"_price","type":"uint256"}],"name":"changeOrderPrice","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"}],"name":"cancelOrder","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[],"name":"getOpenOrderCount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_index","type":"uint256"}],"name":"getOpenOrderByIndex","outputs":[{"components":[` + orderV2Components + `],"name":"","type":"tuple"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"}],"name":"getOrderById","outputs":[{"components":[` + orderV2Components + `],"name":"","type":"tuple"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"_orderId","type":"uint256"}],"name":"getOrderExtraById","outputs":[{"components":[` + orderExtraComponents + `],"name":"","type":"tuple"}],"stateMutability":"view","type":"function"}
]`

type orderV1 struct {
	OrderId, OrderType, OrderState, TokenId, Amount, Price, EndTime *big.Int
	SellerAddr, BuyerAddr                                           common.Address
	Bids                                                            *big.Int
	LastBidder                                                      common.Address
	LastBid, Filled                                                 *big.Int
	RoyaltyOwner                                                    common.Address
	RoyaltyFee, CreateTime, UpdateTime                              *big.Int
}

type orderV2 struct {
	OrderId, OrderType, OrderState, TokenId, Amount *big.Int
	QuoteToken                                      common.Address
	Price, EndTime                                  *big.Int
	SellerAddr, BuyerAddr                           common.Address
	Bids                                            *big.Int
	LastBidder                                      common.Address
	LastBid, Filled                                 *big.Int
	RoyaltyOwner                                    common.Address
	RoyaltyFee, CreateTime, UpdateTime              *big.Int
}

type partialFillV2 struct {
	Value, Amount, RoyaltyFee, PlatformFee *big.Int
	BuyerUri                               string
}

type orderExtraV2 struct {
	PlatformFee           *big.Int
	SellerUri, BuyerUri   string
	PriceLeft, AmountLeft *big.Int
	PartialFills          []partialFillV2
}

// 订单类型
const (
	orderSale    = 1
	orderAuction = 2
)

type fakeOrder struct {
	id, tokenID, amount, price, endTime *big.Int
	kind, state                         int64
	splittable                          bool
	seller, buyer, lastBidder           common.Address
	bids                                int64
	lastBid, filled, royalty, fee       *big.Int
	amountLeft, priceLeft               *big.Int
	sellerURI, buyerURI                 string
	fills                               []partialFillV2
	created, updated                    uint64
}

func (o *fakeOrder) v1(royaltyOwner common.Address) orderV1 {
	return orderV1{
		OrderId: o.id, OrderType: big.NewInt(o.kind), OrderState: big.NewInt(o.state),
		TokenId: o.tokenID, Amount: o.amount, Price: o.price, EndTime: o.endTime,
		SellerAddr: o.seller, BuyerAddr: o.buyer, Bids: big.NewInt(o.bids),
		LastBidder: o.lastBidder, LastBid: o.lastBid, Filled: o.filled,
		RoyaltyOwner: royaltyOwner, RoyaltyFee: o.royalty,
		CreateTime: new(big.Int).SetUint64(o.created), UpdateTime: new(big.Int).SetUint64(o.updated),
	}
}

func (o *fakeOrder) v2(royaltyOwner, quote common.Address) orderV2 {
	v := o.v1(royaltyOwner)
	return orderV2{
		OrderId: v.OrderId, OrderType: v.OrderType, OrderState: v.OrderState, TokenId: v.TokenId, Amount: v.Amount,
		QuoteToken: quote, Price: v.Price, EndTime: v.EndTime, SellerAddr: v.SellerAddr, BuyerAddr: v.BuyerAddr,
		Bids: v.Bids, LastBidder: v.LastBidder, LastBid: v.LastBid, Filled: v.Filled,
		RoyaltyOwner: v.RoyaltyOwner, RoyaltyFee: v.RoyaltyFee, CreateTime: v.CreateTime, UpdateTime: v.UpdateTime,
	}
}

func (o *fakeOrder) extra() orderExtraV2 {
	return orderExtraV2{
		PlatformFee: o.fee, SellerUri: o.sellerURI, BuyerUri: o.buyerURI,
		PriceLeft: o.priceLeft, AmountLeft: o.amountLeft,
		PartialFills: append([]partialFillV2{}, o.fills...),
	}
}

// fakeERC20 余额与授权额度
type fakeERC20 struct {
	balances   map[common.Address]*big.Int
	allowances map[[2]common.Address]*big.Int
}

func newFakeERC20() *fakeERC20 {
	return &fakeERC20{
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[[2]common.Address]*big.Int),
	}
}

func (e *fakeERC20) balance(owner common.Address) *big.Int {
	if v, ok := e.balances[owner]; ok {
		return v
	}
	return new(big.Int)
}

func (e *fakeERC20) allowance(owner, spender common.Address) *big.Int {
	if v, ok := e.allowances[[2]common.Address{owner, spender}]; ok {
		return v
	}
	return new(big.Int)
}

func (e *fakeERC20) move(from, to common.Address, v *big.Int) error {
	have := e.balance(from)
	if have.Cmp(v) < 0 {
		return fmt.Errorf("transfer amount exceeds balance: have %v, need %v", have, v)
	}
	e.balances[from] = new(big.Int).Sub(have, v)
	e.balances[to] = new(big.Int).Add(e.balance(to), v)
	return nil
}

func (e *fakeERC20) transferFrom(spender, from, to common.Address, v *big.Int) error {
	allowed := e.allowance(from, spender)
	if allowed.Cmp(v) < 0 {
		return errors.New("transfer amount exceeds allowance")
	}
	if err := e.move(from, to, v); err != nil {
		return err
	}
	e.allowances[[2]common.Address{from, spender}] = new(big.Int).Sub(allowed, v)
	return nil
}

func (e *fakeERC20) handlers() map[string]handler {
	return map[string]handler{
		"balanceOf": func(c *fakeCall) ([]interface{}, error) {
			return []interface{}{new(big.Int).Set(e.balance(c.addr(0)))}, nil
		},
		"allowance": func(c *fakeCall) ([]interface{}, error) {
			return []interface{}{new(big.Int).Set(e.allowance(c.addr(0), c.addr(1)))}, nil
		},
		"approve": func(c *fakeCall) ([]interface{}, error) {
			e.allowances[[2]common.Address{c.From, c.addr(0)}] = new(big.Int).Set(c.big(1))
			return []interface{}{true}, nil
		},
		"transfer": func(c *fakeCall) ([]interface{}, error) {
			return []interface{}{true}, e.move(c.From, c.addr(0), c.big(1))
		},
	}
}

// fakeMarket Pasar 市场：挂单时 NFT 托管在合约地址，成交时按百万分比扣除版税与平台费
// erc20 为空时用原生币支付（V1），否则用 ERC20 支付（V2）
type fakeMarket struct {
	chain    *fakeChain
	sticker  *fakeSticker
	erc20    *fakeERC20
	quote    common.Address
	token    common.Address
	self     common.Address
	creator  common.Address
	platform common.Address

	royaltyRate  int64
	platformRate int64
	// 出价被超过时不退还上一位出价者
	skipRefund bool

	orders []*fakeOrder
	open   []*fakeOrder
}

func (m *fakeMarket) order(id *big.Int) (*fakeOrder, error) {
	if id.Sign() <= 0 || id.Cmp(big.NewInt(int64(len(m.orders)))) > 0 {
		return nil, fmt.Errorf("order %s not found", id)
	}
	return m.orders[id.Int64()-1], nil
}

func (m *fakeMarket) openOrder(id *big.Int) (*fakeOrder, error) {
	o, err := m.order(id)
	if err != nil {
		return nil, err
	}
	if o.state != model.OrderStateOpen {
		return nil, fmt.Errorf("order %s is not open", id)
	}
	return o, nil
}

func (m *fakeMarket) openAt(i *big.Int) (*fakeOrder, error) {
	if i.Sign() < 0 || i.Cmp(big.NewInt(int64(len(m.open)))) >= 0 {
		return nil, errors.New("index out of range")
	}
	return m.open[i.Int64()], nil
}

func (m *fakeMarket) close(o *fakeOrder) {
	for i, x := range m.open {
		if x == o {
			m.open = append(m.open[:i], m.open[i+1:]...)
			return
		}
	}
}

func (m *fakeMarket) cut(v *big.Int, rate int64) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(rate))
	return out.Quo(out, big.NewInt(1_000_000))
}

// collect 买家付款转入合约
func (m *fakeMarket) collect(c *fakeCall, v *big.Int) error {
	if m.erc20 == nil {
		if c.Value.Cmp(v) != 0 {
			return fmt.Errorf("value %s does not match price %s", c.Value, v)
		}
		m.chain.credit(m.self, v)
		return nil
	}
	return m.erc20.transferFrom(m.self, c.From, m.self, v)
}

// pay 合约付款给 to
func (m *fakeMarket) pay(to common.Address, v *big.Int) error {
	if m.erc20 == nil {
		m.chain.credit(m.self, new(big.Int).Neg(v))
		m.chain.credit(to, v)
		return nil
	}
	return m.erc20.move(m.self, to, v)
}

// distribute 成交额分给作者、平台和卖家
func (m *fakeMarket) distribute(o *fakeOrder, value *big.Int) (royalty, fee *big.Int, err error) {
	royalty, fee = m.cut(value, m.royaltyRate), m.cut(value, m.platformRate)
	earning := model.SellerEarning(value, royalty, fee)
	for _, p := range []struct {
		to common.Address
		v  *big.Int
	}{{m.creator, royalty}, {m.platform, fee}, {o.seller, earning}} {
		if err := m.pay(p.to, p.v); err != nil {
			return nil, nil, err
		}
	}
	return royalty, fee, nil
}

func (m *fakeMarket) list(c *fakeCall, kind int64, splittable bool, tokenID, amount, price, endTime *big.Int, uri string) error {
	if !m.sticker.allowed(c.From, m.self) {
		return errors.New("pasar is not approved")
	}
	if err := m.sticker.move(c.From, m.self, tokenID, amount); err != nil {
		return err
	}
	o := &fakeOrder{
		id:         big.NewInt(int64(len(m.orders) + 1)),
		tokenID:    new(big.Int).Set(tokenID),
		amount:     new(big.Int).Set(amount),
		price:      new(big.Int).Set(price),
		endTime:    new(big.Int).Set(endTime),
		kind:       kind,
		state:      model.OrderStateOpen,
		splittable: splittable,
		seller:     c.From,
		lastBid:    new(big.Int),
		filled:     new(big.Int),
		royalty:    new(big.Int),
		fee:        new(big.Int),
		amountLeft: new(big.Int).Set(amount),
		priceLeft:  new(big.Int).Set(price),
		sellerURI:  uri,
		created:    m.chain.now,
		updated:    m.chain.now,
	}
	m.orders = append(m.orders, o)
	m.open = append(m.open, o)
	return nil
}

func (m *fakeMarket) fill(o *fakeOrder, buyer common.Address, value *big.Int, uri string) error {
	royalty, fee, err := m.distribute(o, value)
	if err != nil {
		return err
	}
	if err := m.sticker.move(m.self, buyer, o.tokenID, o.amountLeft); err != nil {
		return err
	}
	o.state = model.OrderStateFilled
	o.buyer, o.buyerURI = buyer, uri
	o.filled, o.royalty, o.fee = new(big.Int).Set(value), royalty, fee
	o.amountLeft, o.priceLeft = new(big.Int), new(big.Int)
	o.updated = m.chain.now
	m.close(o)
	return nil
}

func (m *fakeMarket) buy(c *fakeCall, id *big.Int, uri string) error {
	o, err := m.openOrder(id)
	if err != nil {
		return err
	}
	if o.kind != orderSale || o.splittable {
		return fmt.Errorf("order %s is not a fixed price order", id)
	}
	if err := m.collect(c, o.price); err != nil {
		return err
	}
	return m.fill(o, c.From, o.price, uri)
}

func (m *fakeMarket) bid(c *fakeCall, id, price *big.Int, uri string) error {
	o, err := m.openOrder(id)
	if err != nil {
		return err
	}
	if o.kind != orderAuction {
		return fmt.Errorf("order %s is not an auction", id)
	}
	if m.chain.now >= o.endTime.Uint64() {
		return errors.New("auction ended")
	}
	if price.Cmp(o.price) < 0 || price.Cmp(o.lastBid) <= 0 {
		return errors.New("bid price too low")
	}
	if err := m.collect(c, price); err != nil {
		return err
	}
	if o.lastBidder != (common.Address{}) && !m.skipRefund {
		if err := m.pay(o.lastBidder, o.lastBid); err != nil {
			return err
		}
	}
	o.lastBidder, o.lastBid, o.buyerURI = c.From, new(big.Int).Set(price), uri
	o.bids++
	o.updated = m.chain.now
	return nil
}

func (m *fakeMarket) settle(id *big.Int) error {
	o, err := m.openOrder(id)
	if err != nil {
		return err
	}
	if o.kind != orderAuction {
		return fmt.Errorf("order %s is not an auction", id)
	}
	if m.chain.now < o.endTime.Uint64() {
		return errors.New("auction not ended")
	}
	if o.lastBidder == (common.Address{}) {
		return errors.New("auction has no bids")
	}
	return m.fill(o, o.lastBidder, o.lastBid, o.buyerURI)
}

func (m *fakeMarket) buyPart(c *fakeCall, id, amount *big.Int, uri string) error {
	o, err := m.openOrder(id)
	if err != nil {
		return err
	}
	if !o.splittable {
		return fmt.Errorf("order %s is not splittable", id)
	}
	if amount.Sign() <= 0 || amount.Cmp(o.amountLeft) > 0 {
		return errors.New("invalid amount")
	}
	value := model.PartialPrice(o.price, amount, o.amount)
	if err := m.collect(c, value); err != nil {
		return err
	}
	royalty, fee, err := m.distribute(o, value)
	if err != nil {
		return err
	}
	if err := m.sticker.move(m.self, c.From, o.tokenID, amount); err != nil {
		return err
	}
	o.amountLeft = new(big.Int).Sub(o.amountLeft, amount)
	o.priceLeft = new(big.Int).Sub(o.priceLeft, value)
	o.filled = new(big.Int).Add(o.filled, value)
	o.royalty = new(big.Int).Add(o.royalty, royalty)
	o.fee = new(big.Int).Add(o.fee, fee)
	o.buyer, o.buyerURI = c.From, uri
	o.fills = append(o.fills, partialFillV2{Value: value, Amount: new(big.Int).Set(amount), RoyaltyFee: royalty, PlatformFee: fee, BuyerUri: uri})
	if o.amountLeft.Sign() == 0 {
		o.state = model.OrderStateFilled
		m.close(o)
	}
	return nil
}

func (m *fakeMarket) sellerOrder(c *fakeCall, id *big.Int) (*fakeOrder, error) {
	o, err := m.openOrder(id)
	if err != nil {
		return nil, err
	}
	if o.seller != c.From {
		return nil, errors.New("caller is not the seller")
	}
	return o, nil
}

func (m *fakeMarket) changePrice(c *fakeCall, id, price *big.Int) error {
	o, err := m.sellerOrder(c, id)
	if err != nil {
		return err
	}
	o.price, o.priceLeft = new(big.Int).Set(price), new(big.Int).Set(price)
	o.updated = m.chain.now
	return nil
}

// cancel 剩余数量退回卖家，amountLeft 保留以便查询
func (m *fakeMarket) cancel(c *fakeCall, id *big.Int) error {
	o, err := m.sellerOrder(c, id)
	if err != nil {
		return err
	}
	if o.bids > 0 {
		return errors.New("auction has bids")
	}
	if err := m.sticker.move(m.self, o.seller, o.tokenID, o.amountLeft); err != nil {
		return err
	}
	o.state = model.OrderStateCanceled
	o.updated = m.chain.now
	m.close(o)
	return nil
}

func (m *fakeMarket) baseHandlers() map[string]handler {
	return map[string]handler{
		"getTokenAddress": fixed(m.token),
		"settleAuctionOrder": func(c *fakeCall) ([]interface{}, error) {
			return nil, m.settle(c.big(0))
		},
		"changeOrderPrice": func(c *fakeCall) ([]interface{}, error) {
			return nil, m.changePrice(c, c.big(0), c.big(1))
		},
		"cancelOrder": func(c *fakeCall) ([]interface{}, error) {
			return nil, m.cancel(c, c.big(0))
		},
		"getOpenOrderCount": func(*fakeCall) ([]interface{}, error) {
			return []interface{}{big.NewInt(int64(len(m.open)))}, nil
		},
	}
}

func (m *fakeMarket) handlersV1() map[string]handler {
	h := m.baseHandlers()
	h["createOrderForSale"] = func(c *fakeCall) ([]interface{}, error) {
		return nil, m.list(c, orderSale, false, c.big(0), c.big(1), c.big(2), new(big.Int), "")
	}
	h["createOrderForAuction"] = func(c *fakeCall) ([]interface{}, error) {
		return nil, m.list(c, orderAuction, false, c.big(0), c.big(1), c.big(2), c.big(3), "")
	}
	h["buyOrder"] = func(c *fakeCall) ([]interface{}, error) {
		return nil, m.buy(c, c.big(0), "")
	}
	h["bidForOrder"] = func(c *fakeCall) ([]interface{}, error) {
		return nil, m.bid(c, c.big(0), c.Value, "")
	}
	h["getOpenOrderByIndex"] = func(c *fakeCall) ([]interface{}, error) {
		o, err := m.openAt(c.big(0))
		if err != nil {
			return nil, err
		}
		return []interface{}{o.v1(m.creator)}, nil
	}
	h["getOrderById"] = func(c *fakeCall) ([]interface{}, error) {
		o, err := m.order(c.big(0))
		if err != nil {
			return nil, err
		}
		return []interface{}{o.v1(m.creator)}, nil
	}
	return h
}

func (m *fakeMarket) handlersV2() map[string]handler {
	h := m.baseHandlers()
	quoted := func(c *fakeCall, kind int64, splittable bool, price, endTime *big.Int, uri string) error {
		if c.addr(2) != m.quote {
			return fmt.Errorf("unsupported quote token %s", c.addr(2).Hex())
		}
		return m.list(c, kind, splittable, c.big(0), c.big(1), price, endTime, uri)
	}
	h["createOrderForSale"] = func(c *fakeCall) ([]interface{}, error) {
		return nil, quoted(c, orderSale, false, c.big(3), new(big.Int), c.Args[4].(string))
	}
	h["createOrderForAuction"] = func(c *fakeCall) ([]interface{}, error) {
		return nil, quoted(c, orderAuction, false, c.big(3), c.big(4), c.Args[5].(string))
	}
	h["createSplittableOrder"] = func(c *fakeCall) ([]interface{}, error) {
		return nil, quoted(c, orderSale, true, c.big(3), new(big.Int), c.Args[4].(string))
	}
	h["buyOrder"] = func(c *fakeCall) ([]interface{}, error) {
		return nil, m.buy(c, c.big(0), c.Args[1].(string))
	}
	h["buySplittableOrder"] = func(c *fakeCall) ([]interface{}, error) {
		return nil, m.buyPart(c, c.big(0), c.big(1), c.Args[2].(string))
	}
	h["bidForOrder"] = func(c *fakeCall) ([]interface{}, error) {
		return nil, m.bid(c, c.big(0), c.big(1), c.Args[2].(string))
	}
	h["getOpenOrderByIndex"] = func(c *fakeCall) ([]interface{}, error) {
		o, err := m.openAt(c.big(0))
		if err != nil {
			return nil, err
		}
		return []interface{}{o.v2(m.creator, m.quote)}, nil
	}
	h["getOrderById"] = func(c *fakeCall) ([]interface{}, error) {
		o, err := m.order(c.big(0))
		if err != nil {
			return nil, err
		}
		return []interface{}{o.v2(m.creator, m.quote)}, nil
	}
	h["getOrderExtraById"] = func(c *fakeCall) ([]interface{}, error) {
		o, err := m.order(c.big(0))
		if err != nil {
			return nil, err
		}
		return []interface{}{o.extra()}, nil
	}
	return h
}
