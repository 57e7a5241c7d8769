package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Event 解码后的合约事件
type Event struct {
	Name   string
	Log    types.Log
	Fields *Result
}

// FilterEvents 扫描 [from, to] 区间内的指定事件，nil 分别表示 earliest / latest
func (c *Contract) FilterEvents(ctx context.Context, name string, from, to *big.Int) ([]Event, error) {
	if c.Address == (common.Address{}) {
		return nil, fmt.Errorf("%s: %w", c.Name, ErrNoAddress)
	}
	ev, ok := c.ABI.Events[name]
	if !ok {
		return nil, fmt.Errorf("%s: event %q not found in abi", c.Name, name)
	}
	logs, err := c.exec.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []common.Address{c.Address},
		Topics:    [][]common.Hash{{ev.ID}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: filter %s: %w", c.Name, name, err)
	}

	events := make([]Event, 0, len(logs))
	for _, lg := range logs {
		fields, err := DecodeEvent(c.ABI, name, lg)
		if err != nil {
			return nil, err
		}
		events = append(events, Event{Name: name, Log: lg, Fields: fields})
	}
	return events, nil
}

// DecodeEvent 同时解码 indexed（topics）和非 indexed（data）参数
func DecodeEvent(parsed abi.ABI, name string, lg types.Log) (*Result, error) {
	ev, ok := parsed.Events[name]
	if !ok {
		return nil, fmt.Errorf("event %q not found in abi", name)
	}
	if len(lg.Topics) == 0 || lg.Topics[0] != ev.ID {
		return nil, fmt.Errorf("log %s is not a %s event", lg.TxHash.Hex(), name)
	}

	m := make(map[string]interface{})
	if len(lg.Data) > 0 {
		if err := ev.Inputs.NonIndexed().UnpackIntoMap(m, lg.Data); err != nil {
			return nil, fmt.Errorf("unpack %s data: %w", name, err)
		}
	}
	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(m, indexed, lg.Topics[1:]); err != nil {
		return nil, fmt.Errorf("parse %s topics: %w", name, err)
	}

	r := &Result{Method: name}
	for _, arg := range ev.Inputs {
		r.names = append(r.names, arg.Name)
		r.values = append(r.values, m[arg.Name])
	}
	return r, nil
}
