package suite

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"pasar-contract-tools/internal/contract"
	"pasar-contract-tools/internal/execution"
)

// Probe 读取一个链上数值
type Probe func(ctx context.Context) (*big.Int, error)

// Snapshot 一组数值在同一时刻的读数
type Snapshot map[string]*big.Int

// Take 并发执行所有只读探针，任一失败则返回错误
func Take(ctx context.Context, probes map[string]Probe) (Snapshot, error) {
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	snap := make(Snapshot, len(probes))
	for name, probe := range probes {
		g.Go(func() error {
			v, err := probe(gctx)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			mu.Lock()
			snap[name] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Delta 返回 after[key] - before[key]
func Delta(before, after Snapshot, key string) *big.Int {
	return new(big.Int).Sub(value(after, key), value(before, key))
}

func value(s Snapshot, key string) *big.Int {
	if v, ok := s[key]; ok && v != nil {
		return v
	}
	return new(big.Int)
}

// EthBalance 原生币余额
func EthBalance(exec execution.Executor, addr common.Address) Probe {
	return func(ctx context.Context) (*big.Int, error) {
		return exec.Balance(ctx, addr)
	}
}

// TokenBalance NFT 合约 balanceOf(owner, tokenId)
func TokenBalance(sticker *contract.Contract, owner common.Address, tokenID *big.Int) Probe {
	return func(ctx context.Context) (*big.Int, error) {
		return callBig(ctx, sticker, "balanceOf", owner, tokenID)
	}
}

// ERC20Balance ERC20 合约 balanceOf(owner)
func ERC20Balance(token *contract.Contract, owner common.Address) Probe {
	return func(ctx context.Context) (*big.Int, error) {
		return callBig(ctx, token, "balanceOf", owner)
	}
}

// CallBig 任意返回单个整数的只读方法
func CallBig(c *contract.Contract, method string, args ...interface{}) Probe {
	return func(ctx context.Context) (*big.Int, error) {
		return callBig(ctx, c, method, args...)
	}
}
