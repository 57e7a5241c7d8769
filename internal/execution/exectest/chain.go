// Package exectest 提供基于 go-ethereum 模拟链的测试环境
package exectest

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pasar-contract-tools/internal/execution"
)

// 预置合约字节码
var (
	// 部署一个只有 STOP 的合约
	StopCode = hexutil.MustDecode("0x6001600c60003960016000f300")
	// 任意调用都返回 uint256(42)
	ConstCode = hexutil.MustDecode("0x600a600c600039600a6000f3602a60005260206000f3")
	// 任意调用都 revert
	RevertCode = hexutil.MustDecode("0x6005600c60003960056000f360006000fd")
)

// Funds 每个测试账户的初始余额：1000 ETH
var Funds = new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))

// Chain 模拟链与预置资金的账户
type Chain struct {
	Sim      *simulated.Backend
	Client   execution.Backend
	Exec     *execution.EthExecutor
	Accounts []*execution.Account
}

// NewChain 创建 n 个有余额的账户并启动模拟链，每笔交易发送后立即出块
func NewChain(t testing.TB, n int) *Chain {
	t.Helper()

	alloc := types.GenesisAlloc{}
	accounts := make([]*execution.Account, 0, n)
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		acc := execution.AccountFromKey(key)
		alloc[acc.Address] = types.Account{Balance: new(big.Int).Set(Funds)}
		accounts = append(accounts, acc)
	}

	sim := simulated.NewBackend(alloc)
	t.Cleanup(func() { _ = sim.Close() })

	client := &autoCommit{Client: sim.Client(), sim: sim}
	exec, err := execution.NewEthExecutor(context.Background(), client, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	return &Chain{Sim: sim, Client: client, Exec: exec, Accounts: accounts}
}

// Deploy 部署字节码并返回合约地址
func (c *Chain) Deploy(t testing.TB, code []byte) common.Address {
	t.Helper()
	receipt, err := c.Exec.Send(context.Background(), c.Accounts[0], execution.Tx{Data: code})
	require.NoError(t, err)
	return receipt.ContractAddress
}

// Advance 推进链上时间并出一个新块
func (c *Chain) Advance(t testing.TB, d time.Duration) {
	t.Helper()
	require.NoError(t, c.Sim.AdjustTime(d))
	c.Sim.Commit()
}

type autoCommit struct {
	simulated.Client
	sim *simulated.Backend
}

func (c *autoCommit) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	c.sim.Commit()
	return nil
}
