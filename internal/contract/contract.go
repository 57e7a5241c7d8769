// Package contract 把 ABI 与地址绑定，通过执行器完成调用、发送交易和部署
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"pasar-contract-tools/internal/execution"
)

// ErrNoAddress 合约地址未设置
var ErrNoAddress = errors.New("contract address is not set")

// Contract 一个已部署合约的句柄
type Contract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
	exec    execution.Executor
}

func New(name string, parsed abi.ABI, addr common.Address, exec execution.Executor) *Contract {
	return &Contract{Name: name, Address: addr, ABI: parsed, exec: exec}
}

// At 同一 ABI 指向另一个地址
func (c *Contract) At(addr common.Address) *Contract {
	cp := *c
	cp.Address = addr
	return &cp
}

// As 同一地址换用另一套 ABI，例如通过代理地址调用逻辑合约
func (c *Contract) As(name string, parsed abi.ABI) *Contract {
	cp := *c
	cp.Name = name
	cp.ABI = parsed
	return &cp
}

func (c *Contract) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: pack: %w", c.Name, method, err)
	}
	return data, nil
}

// Call 只读调用并解码返回值
func (c *Contract) Call(ctx context.Context, method string, args ...interface{}) (*Result, error) {
	if c.Address == (common.Address{}) {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, ErrNoAddress)
	}
	data, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := c.exec.Call(ctx, ethereum.CallMsg{To: &c.Address, Data: data})
	if err != nil {
		return nil, fmt.Errorf("%s.%s: call: %w", c.Name, method, err)
	}
	res, err := DecodeOutput(c.ABI, method, out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, err)
	}
	return res, nil
}

// Transact 发送交易调用合约方法，value 可为 nil
// 交易回滚时同时返回回执和错误
func (c *Contract) Transact(ctx context.Context, from *execution.Account, value *big.Int, method string, args ...interface{}) (*types.Receipt, error) {
	if c.Address == (common.Address{}) {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, ErrNoAddress)
	}
	data, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	receipt, err := c.exec.Send(ctx, from, execution.Tx{To: &c.Address, Value: value, Data: data})
	if err != nil {
		return receipt, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	return receipt, nil
}

// DeployData 字节码拼接编码后的构造参数
func DeployData(parsed abi.ABI, bytecode []byte, args ...interface{}) ([]byte, error) {
	if len(bytecode) == 0 {
		return nil, errors.New("empty bytecode")
	}
	input, err := parsed.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("pack constructor: %w", err)
	}
	data := make([]byte, 0, len(bytecode)+len(input))
	data = append(data, bytecode...)
	return append(data, input...), nil
}

// Deploy 部署合约，要求回执成功且返回了合约地址
func Deploy(ctx context.Context, exec execution.Executor, from *execution.Account, name string, parsed abi.ABI, bytecode []byte, args ...interface{}) (*Contract, *types.Receipt, error) {
	data, err := DeployData(parsed, bytecode, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("deploy %s: %w", name, err)
	}
	receipt, err := exec.Send(ctx, from, execution.Tx{Data: data})
	if err != nil {
		return nil, receipt, fmt.Errorf("deploy %s: %w", name, err)
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, receipt, fmt.Errorf("deploy %s: receipt has no contract address", name)
	}
	return New(name, parsed, receipt.ContractAddress, exec), receipt, nil
}
