package model

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// 订单状态
const (
	OrderStateOpen     = 1
	OrderStateFilled   = 2
	OrderStateCanceled = 3
)

// 展位状态
const (
	PanelStateActive  = 1
	PanelStateRemoved = 2
)

// Order 市场订单中测试关心的字段
type Order struct {
	OrderID    *big.Int
	OrderState *big.Int
	Price      *big.Int
	Filled     *big.Int
	RoyaltyFee *big.Int
}

func (o Order) String() string {
	return fmt.Sprintf("ORDER [%v] state=%v price=%v filled=%v royalty=%v",
		o.OrderID, o.OrderState, o.Price, o.Filled, o.RoyaltyFee)
}

// OrderExtra V2 订单的附加信息
type OrderExtra struct {
	PlatformFee  *big.Int
	SellerURI    string
	BuyerURI     string
	PriceLeft    *big.Int
	AmountLeft   *big.Int
	PartialFills []PartialFill
}

// LastFill 最近一次部分成交，没有时返回 false
func (e OrderExtra) LastFill() (PartialFill, bool) {
	if len(e.PartialFills) == 0 {
		return PartialFill{}, false
	}
	return e.PartialFills[len(e.PartialFills)-1], true
}

// PartialFill 可拆分订单的一次部分成交
type PartialFill struct {
	Value       *big.Int
	Amount      *big.Int
	RoyaltyFee  *big.Int
	PlatformFee *big.Int
	BuyerURI    string
}

// SellerEarning = 成交额 - 版税 - 平台费
func SellerEarning(filled, royalty, platformFee *big.Int) *big.Int {
	earning := new(big.Int).Sub(filled, royalty)
	if platformFee != nil {
		earning.Sub(earning, platformFee)
	}
	return earning
}

// PartialPrice 按数量折算的部分成交价
func PartialPrice(price, amount, total *big.Int) *big.Int {
	v := new(big.Int).Mul(price, amount)
	return v.Quo(v, total)
}

// Panel Galleria 展位
type Panel struct {
	PanelID    *big.Int
	DidURI     string
	PanelState *big.Int
}

// FeeParams Galleria 的平台收费参数
type FeeParams struct {
	PlatformAddr common.Address
	MinFee       *big.Int
}

// PlatformFee Pasar 的平台费率
type PlatformFee struct {
	PlatformAddr common.Address
	FeeRate      *big.Int
}

// ContractInfo 代理合约的版本信息
type ContractInfo struct {
	Address   common.Address
	Version   string
	Magic     string
	LogicAddr common.Address
}

// Activity NFT 与市场的活跃度统计
type Activity struct {
	TotalSupply    *big.Int
	OpenOrderCount *big.Int
	BuyerCount     *big.Int
	SellerCount    *big.Int
	OrderCount     *big.Int
}

// FilledStats OrderFilled 事件汇总
type FilledStats struct {
	Count        int
	TotalPrice   *big.Int
	TotalRoyalty *big.Int
}

func (s FilledStats) String() string {
	return fmt.Sprintf("filled count: %d total filled: %v total royalty: %v", s.Count, s.TotalPrice, s.TotalRoyalty)
}

// Deployment 一次部署的结果，contracts 的键与配置文件一致
type Deployment struct {
	RunID     string            `yaml:"runId"`
	Network   string            `yaml:"network"`
	ChainID   string            `yaml:"chainId"`
	Deployer  string            `yaml:"deployer"`
	Time      time.Time         `yaml:"time"`
	Contracts map[string]string `yaml:"contracts"`
}

// Set 记录一个合约地址
func (d *Deployment) Set(key string, addr common.Address) {
	if d.Contracts == nil {
		d.Contracts = make(map[string]string)
	}
	d.Contracts[key] = addr.Hex()
}
