// Package suite 实现部署、升级和集成测试流程
// 每个流程都是顺序执行：发送交易、等待回执、读回链上状态、与预期比较
package suite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pasar-contract-tools/internal/compiler"
	"pasar-contract-tools/internal/contract"
	"pasar-contract-tools/internal/execution"
	"pasar-contract-tools/internal/service"
)

// 合约名称，同时也是 abis 目录下的文件名
const (
	StickerName    = "FeedsNFTSticker"
	PasarName      = "FeedsNFTPasar"
	PasarLibName   = "FeedsNFTPasarLibrary"
	GalleriaName   = "FeedsNFTGalleria"
	ProxyName      = "FeedsContractProxy"
	PasarV2Name    = "FeedsNFTPasarV2"
	PasarV2LibName = "FeedsNFTPasarV2Library"
	ERC20Name      = "ERC20Token"
	Demo1Name      = "Demo1"
	Demo2Name      = "Demo2"
)

// ABIContracts abigen 生成 ABI 文件的合约
var ABIContracts = []string{StickerName, PasarName, GalleriaName, ProxyName}

// Paths 合约源码与 ABI 文件的位置
type Paths struct {
	SourceDir   string
	DemoDir     string
	ERC20Source string
	ABIDir      string
}

func (p Paths) source(name string) string {
	return filepath.Join(p.SourceDir, name+".sol")
}

// ABIFile abis 目录下的 ABI 文件
func (p Paths) ABIFile(name string) string {
	return filepath.Join(p.ABIDir, name+".json")
}

// Waiter 等待链上时间越过拍卖结束时间
type Waiter interface {
	WaitUntil(ctx context.Context, timestamp uint64) error
}

// SleepWaiter 固定等待一段时间，不关心区块时间
type SleepWaiter struct {
	D      time.Duration
	Logger *zap.Logger
}

func (w SleepWaiter) WaitUntil(ctx context.Context, _ uint64) error {
	if w.Logger != nil {
		w.Logger.Info("Wait for auction to end...", zap.String("wait", service.FormatWait(w.D)))
	}
	timer := time.NewTimer(w.D)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Env 一次运行共享的执行器、编译器和日志
type Env struct {
	Exec     execution.Executor
	Compiler *compiler.Compiler
	Paths    Paths
	Waiter   Waiter
	Logger   *zap.Logger
	RunID    string
}

func NewEnv(exec execution.Executor, comp *compiler.Compiler, paths Paths, waiter Waiter, logger *zap.Logger) *Env {
	runID := uuid.NewString()
	return &Env{
		Exec:     exec,
		Compiler: comp,
		Paths:    paths,
		Waiter:   waiter,
		Logger:   logger.With(zap.String("run", runID)),
		RunID:    runID,
	}
}

// LoadABI 从 abis 目录读取合约 ABI
func (e *Env) LoadABI(name string) (abi.ABI, error) {
	return contract.LoadABI(e.Paths.ABIFile(name))
}

// ContractABI 优先读取 abis 目录，文件不存在时编译源码获取
func (e *Env) ContractABI(ctx context.Context, name string) (abi.ABI, error) {
	parsed, err := e.LoadABI(name)
	if err == nil || !errors.Is(err, fs.ErrNotExist) || e.Compiler == nil {
		return parsed, err
	}
	art, err := e.compile(ctx, e.Paths.source(name), name)
	if err != nil {
		return abi.ABI{}, err
	}
	return art.ParsedABI()
}

// Bind 绑定已部署的合约
func (e *Env) Bind(ctx context.Context, name string, addr string) (*contract.Contract, error) {
	a, err := parseAddress(name, addr)
	if err != nil {
		return nil, err
	}
	parsed, err := e.ContractABI(ctx, name)
	if err != nil {
		return nil, err
	}
	return contract.New(name, parsed, a, e.Exec), nil
}

// Template 只有 ABI 没有地址的句柄，配合 At 使用
func (e *Env) Template(ctx context.Context, name string) (*contract.Contract, error) {
	parsed, err := e.ContractABI(ctx, name)
	if err != nil {
		return nil, err
	}
	return contract.New(name, parsed, common.Address{}, e.Exec), nil
}

func (e *Env) compile(ctx context.Context, path, name string) (*compiler.Artifact, error) {
	if e.Compiler == nil {
		return nil, fmt.Errorf("compile %s: no compiler configured", name)
	}
	art, err := e.Compiler.Compile(ctx, path, name)
	if err != nil {
		return nil, err
	}
	e.Logger.Info("Contract compiled", zap.String("contract", name))
	return art, nil
}

// deploy 部署编译产物，label 只用于日志
func (e *Env) deploy(ctx context.Context, from *execution.Account, art *compiler.Artifact, label string, args ...interface{}) (*contract.Contract, error) {
	parsed, err := art.ParsedABI()
	if err != nil {
		return nil, err
	}
	c, _, err := contract.Deploy(ctx, e.Exec, from, art.Name, parsed, art.Bytecode, args...)
	if err != nil {
		return nil, err
	}
	e.Logger.Info("Contract deployed", zap.String("contract", label), zap.String("address", c.Address.Hex()))
	return c, nil
}

// wait 等到区块时间不早于 endTime
func (e *Env) wait(ctx context.Context, endTime uint64) error {
	if e.Waiter == nil {
		return fmt.Errorf("no auction waiter configured")
	}
	if err := e.Waiter.WaitUntil(ctx, endTime); err != nil {
		return fmt.Errorf("wait for auction end: %w", err)
	}
	e.Logger.Info("Auction should have ended by now", zap.Uint64("endTime", endTime))
	return nil
}
