// Package abigen 编译合约并把 ABI 写入 abis 目录
package abigen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"pasar-contract-tools/internal/compiler"
)

// Generate 依次编译 sourceDir/<name>.sol，写出 abiDir/<name>.json，返回写入的文件
func Generate(ctx context.Context, comp *compiler.Compiler, sourceDir, abiDir string, names []string, logger *zap.Logger) ([]string, error) {
	if err := os.MkdirAll(abiDir, 0o755); err != nil {
		return nil, fmt.Errorf("create abi dir: %w", err)
	}

	written := make([]string, 0, len(names))
	for _, name := range names {
		art, err := comp.Compile(ctx, filepath.Join(sourceDir, name+".sol"), name)
		if err != nil {
			return written, err
		}
		data, err := art.IndentedABI()
		if err != nil {
			return written, err
		}
		path := filepath.Join(abiDir, name+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		logger.Info("ABI generated", zap.String("contract", name), zap.String("path", path))
		written = append(written, path)
	}
	return written, nil
}
