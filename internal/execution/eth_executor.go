package execution

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"pasar-contract-tools/internal/service"
)

// GasMultiplier 估算出的 gas 上浮比例
const GasMultiplier = 1.2

// Dial 连接节点的 JSON-RPC 接口
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url is empty")
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return client, nil
}

// EthExecutor 实现了 Executor 接口
type EthExecutor struct {
	backend  Backend
	chainID  *big.Int
	signer   types.Signer
	gasPrice *big.Int // 为 nil 时使用节点建议值
	logger   *zap.Logger

	// 同一进程内串行化 nonce 获取与广播
	sendMu sync.Mutex
}

// NewEthExecutor 初始化执行器，并查询链 ID 用于签名
func NewEthExecutor(ctx context.Context, backend Backend, gasPrice *big.Int, logger *zap.Logger) (*EthExecutor, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	logger = logger.With(zap.String("executor", "Eth"), zap.String("chainID", chainID.String()))
	logger.Debug("Executor initialized", zap.String("gasPrice", bigString(gasPrice)))

	return &EthExecutor{
		backend:  backend,
		chainID:  chainID,
		signer:   types.LatestSignerForChainID(chainID),
		gasPrice: gasPrice,
		logger:   logger,
	}, nil
}

// Send 补齐 gasPrice/gas/nonce，签名、广播并等待回执
func (e *EthExecutor) Send(ctx context.Context, from *Account, tx Tx) (*types.Receipt, error) {
	if from == nil || from.key == nil {
		return nil, ErrNoKey
	}

	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}

	gasPrice := tx.GasPrice
	if gasPrice == nil {
		gasPrice = e.gasPrice
	}
	if gasPrice == nil {
		suggested, err := e.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest gas price: %w", err)
		}
		gasPrice = suggested
	}

	gas := tx.Gas
	if gas == 0 {
		estimated, err := e.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:     from.Address,
			To:       tx.To,
			GasPrice: gasPrice,
			Value:    value,
			Data:     tx.Data,
		})
		if err != nil {
			return nil, fmt.Errorf("estimate gas: %w", err)
		}
		gas = uint64(math.Round(float64(estimated) * GasMultiplier))
	}

	signed, err := e.signAndSend(ctx, from, &types.LegacyTx{
		GasPrice: gasPrice,
		Gas:      gas,
		To:       tx.To,
		Value:    value,
		Data:     tx.Data,
	})
	if err != nil {
		return nil, err
	}

	receipt, err := bind.WaitMined(ctx, e.backend, signed)
	if err != nil {
		return nil, fmt.Errorf("wait for receipt %s: %w", signed.Hash().Hex(), err)
	}

	e.logger.Info("Tx mined",
		zap.String("from", from.Address.Hex()),
		zap.String("to", toString(tx.To, receipt)),
		zap.String("value", value.String()),
		zap.String("tx", signed.Hash().Hex()),
		zap.Uint64("gasUsed", receipt.GasUsed),
		zap.Uint64("status", receipt.Status))

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", ErrTxReverted, signed.Hash().Hex())
	}
	return receipt, nil
}

func (e *EthExecutor) signAndSend(ctx context.Context, from *Account, legacy *types.LegacyTx) (*types.Transaction, error) {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	nonce, err := e.backend.PendingNonceAt(ctx, from.Address)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}
	legacy.Nonce = nonce

	signed, err := types.SignTx(types.NewTx(legacy), e.signer, from.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send tx: %w", err)
	}
	e.logger.Debug("Tx sent",
		zap.String("tx", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", legacy.Gas),
		zap.String("gasPrice", legacy.GasPrice.String()))
	return signed, nil
}

func (e *EthExecutor) Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return e.backend.CallContract(ctx, msg, nil)
}

func (e *EthExecutor) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return e.backend.BalanceAt(ctx, addr, nil)
}

func (e *EthExecutor) LatestHeader(ctx context.Context) (*types.Header, error) {
	return e.backend.HeaderByNumber(ctx, nil)
}

// GasFee = gasUsed * 实际 gasPrice
// 部分节点的回执不带 effectiveGasPrice，此时回查交易本身
func (e *EthExecutor) GasFee(ctx context.Context, receipt *types.Receipt) (*big.Int, error) {
	price := receipt.EffectiveGasPrice
	if price == nil || price.Sign() == 0 {
		tx, _, err := e.backend.TransactionByHash(ctx, receipt.TxHash)
		if err != nil {
			return nil, fmt.Errorf("query tx %s: %w", receipt.TxHash.Hex(), err)
		}
		price = tx.GasPrice()
	}
	return new(big.Int).Mul(price, new(big.Int).SetUint64(receipt.GasUsed)), nil
}

func (e *EthExecutor) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return e.backend.CodeAt(ctx, addr, nil)
}

func (e *EthExecutor) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return e.backend.FilterLogs(ctx, q)
}

func (e *EthExecutor) ChainID() *big.Int {
	return new(big.Int).Set(e.chainID)
}

func toString(to *common.Address, receipt *types.Receipt) string {
	if to != nil {
		return to.Hex()
	}
	return "create:" + receipt.ContractAddress.Hex()
}

func bigString(v *big.Int) string {
	if v == nil {
		return "auto"
	}
	return service.FormatEther(v)
}
