package suite

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"pasar-contract-tools/internal/contract"
	"pasar-contract-tools/internal/model"
)

// FilledTotal 汇总 [from, to] 区块内所有 OrderFilled 事件的成交额与版税
// from/to 为 nil 时分别表示最早和最新区块
func FilledTotal(ctx context.Context, env *Env, pasar *contract.Contract, from, to *big.Int) (model.FilledStats, error) {
	stats := model.FilledStats{TotalPrice: new(big.Int), TotalRoyalty: new(big.Int)}
	events, err := pasar.FilterEvents(ctx, "OrderFilled", from, to)
	if err != nil {
		return stats, err
	}
	for _, ev := range events {
		price, err := ev.Fields.Big("_price")
		if err != nil {
			return stats, err
		}
		royalty, err := ev.Fields.Big("_royalty")
		if err != nil {
			return stats, err
		}
		stats.TotalPrice.Add(stats.TotalPrice, price)
		stats.TotalRoyalty.Add(stats.TotalRoyalty, royalty)
	}
	stats.Count = len(events)
	env.Logger.Info(stats.String(), zap.String("pasar", pasar.Address.Hex()))
	return stats, nil
}
