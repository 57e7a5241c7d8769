// Package compiler 调用 solc 的 standard-json 接口编译单文件合约
package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pasar-contract-tools/internal/contract"
)

// SourceKey 源码在 standard-json 输入中的键名
const SourceKey = "src.sol"

// Runner 执行 solc 并返回 stdout
type Runner func(ctx context.Context, solc string, input []byte) ([]byte, error)

// Artifact 编译产物
type Artifact struct {
	Name     string
	ABI      json.RawMessage
	Bytecode []byte
}

// ParsedABI 把产物中的 ABI 解析为 go-ethereum 的结构
func (a *Artifact) ParsedABI() (abi.ABI, error) {
	return contract.ParseABI(a.ABI)
}

// IndentedABI 两空格缩进的 ABI，用于写入 abis 目录
func (a *Artifact) IndentedABI() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, a.ABI, "", "  "); err != nil {
		return nil, fmt.Errorf("%s: indent abi: %w", a.Name, err)
	}
	return buf.Bytes(), nil
}

type Compiler struct {
	solc   string
	runs   int
	run    Runner
	logger *zap.Logger
}

func New(solc string, optimizerRuns int, logger *zap.Logger) *Compiler {
	return &Compiler{
		solc:   solc,
		runs:   optimizerRuns,
		run:    execSolc,
		logger: logger.With(zap.String("component", "solc")),
	}
}

// WithRunner 替换 solc 的执行方式
func (c *Compiler) WithRunner(run Runner) *Compiler {
	c.run = run
	return c
}

type input struct {
	Language string                 `json:"language"`
	Sources  map[string]sourceInput `json:"sources"`
	Settings settings               `json:"settings"`
}

type sourceInput struct {
	Content string `json:"content"`
}

type settings struct {
	Optimizer struct {
		Enabled bool `json:"enabled"`
		Runs    int  `json:"runs"`
	} `json:"optimizer"`
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

type output struct {
	Errors []struct {
		Severity         string `json:"severity"`
		FormattedMessage string `json:"formattedMessage"`
		Message          string `json:"message"`
	} `json:"errors"`
	Contracts map[string]map[string]struct {
		ABI json.RawMessage `json:"abi"`
		EVM struct {
			Bytecode struct {
				Object string `json:"object"`
			} `json:"bytecode"`
		} `json:"evm"`
	} `json:"contracts"`
}

// Compile 编译 path 指向的源码，返回名为 name 的合约
func (c *Compiler) Compile(ctx context.Context, path, name string) (*Artifact, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", path, err)
	}
	return c.CompileSource(ctx, string(content), name)
}

// CompileSource 编译源码字符串
func (c *Compiler) CompileSource(ctx context.Context, source, name string) (*Artifact, error) {
	in := input{
		Language: "Solidity",
		Sources:  map[string]sourceInput{SourceKey: {Content: source}},
	}
	in.Settings.Optimizer.Enabled = true
	in.Settings.Optimizer.Runs = c.runs
	in.Settings.OutputSelection = map[string]map[string][]string{
		"*": {"*": {"abi", "evm.bytecode"}},
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Compiling contract", zap.String("contract", name))
	raw, err := c.run(ctx, c.solc, payload)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}

	var out output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("compile %s: decode solc output: %w", name, err)
	}

	var msgs []string
	for _, e := range out.Errors {
		if e.Severity != "error" {
			c.logger.Debug("solc warning", zap.String("contract", name), zap.String("message", e.Message))
			continue
		}
		msg := e.FormattedMessage
		if msg == "" {
			msg = e.Message
		}
		msgs = append(msgs, strings.TrimSpace(msg))
	}
	if len(msgs) > 0 {
		return nil, fmt.Errorf("compile %s: %s", name, strings.Join(msgs, "; "))
	}

	compiled, ok := out.Contracts[SourceKey][name]
	if !ok {
		return nil, fmt.Errorf("compile %s: contract not found in output", name)
	}
	if len(compiled.ABI) == 0 || compiled.ABI[0] != '[' {
		return nil, fmt.Errorf("compile %s: abi is not an array", name)
	}
	object := compiled.EVM.Bytecode.Object
	if object == "" {
		return nil, fmt.Errorf("compile %s: empty bytecode", name)
	}
	if strings.Contains(object, "__") {
		return nil, fmt.Errorf("compile %s: bytecode has unlinked libraries", name)
	}
	return &Artifact{
		Name:     name,
		ABI:      compiled.ABI,
		Bytecode: common.FromHex(object),
	}, nil
}

func execSolc(ctx context.Context, solc string, payload []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, solc, "--standard-json")
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return nil, fmt.Errorf("%s: %w: %s", solc, err, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%s: %w", solc, err)
	}
	return stdout.Bytes(), nil
}
