package execution

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrTxReverted 交易已上链但回执 status 为 0
	ErrTxReverted = errors.New("transaction reverted")
	// ErrNoKey 账户私钥为空
	ErrNoKey = errors.New("private key is empty")
)

// Backend 是执行器依赖的节点能力
// *ethclient.Client 与 simulated.Client 都满足该接口
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend

	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
}

// Tx 描述一笔待发送的交易，零值字段由执行器补齐
type Tx struct {
	To       *common.Address // nil 表示部署合约
	Value    *big.Int
	Data     []byte
	GasPrice *big.Int
	Gas      uint64
}

// Executor 是链上执行器的通用接口，负责与节点通信
type Executor interface {
	// Send 签名并广播交易，阻塞到回执返回
	Send(ctx context.Context, from *Account, tx Tx) (*types.Receipt, error)

	// Call 只读调用
	Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)

	// Balance 获取账户原生币余额
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)

	LatestHeader(ctx context.Context) (*types.Header, error)

	// GasFee 计算回执对应交易实际花费的手续费
	GasFee(ctx context.Context, receipt *types.Receipt) (*big.Int, error)

	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)

	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)

	ChainID() *big.Int
}
