// Package check 在运行时核对链上状态，失败时返回带描述的错误
package check

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
)

// ErrExpectation 链上状态与预期不符
var ErrExpectation = errors.New("expectation failed")

func fail(desc string, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrExpectation, desc, fmt.Sprintf(format, args...))
}

// Equal 比较任意值，*big.Int 按数值比较
func Equal(desc string, want, got interface{}) error {
	wb, wok := want.(*big.Int)
	gb, gok := got.(*big.Int)
	if wok && gok {
		return BigEqual(desc, wb, gb)
	}
	if !assert.ObjectsAreEqual(want, got) {
		return fail(desc, "expected %v, got %v", want, got)
	}
	return nil
}

func BigEqual(desc string, want, got *big.Int) error {
	if want == nil || got == nil {
		if want == got {
			return nil
		}
		return fail(desc, "expected %v, got %v", want, got)
	}
	if want.Cmp(got) != 0 {
		return fail(desc, "expected %s, got %s", want, got)
	}
	return nil
}

func True(desc string, v bool) error {
	if !v {
		return fail(desc, "expected true")
	}
	return nil
}

// AtLeast have >= need
func AtLeast(desc string, have, need *big.Int) error {
	if have == nil || need == nil || have.Cmp(need) < 0 {
		return fail(desc, "have %v, need at least %v", have, need)
	}
	return nil
}

// Status 回执必须成功
func Status(desc string, receipt *types.Receipt) error {
	if receipt == nil {
		return fail(desc, "no receipt")
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fail(desc, "transaction %s status %d", receipt.TxHash.Hex(), receipt.Status)
	}
	return nil
}

// First 返回第一个失败的结果
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
