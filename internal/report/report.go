// Package report 读写部署报告
// 报告中的 contracts 段与配置文件的同名段键一致，写成 config.yaml 时所在目录可以直接作为配置目录读回
package report

import (
	"bytes"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"pasar-contract-tools/internal/model"
)

// New 创建一份空的部署报告
func New(runID, network string, chainID *big.Int, deployer common.Address) *model.Deployment {
	d := &model.Deployment{
		RunID:     runID,
		Network:   network,
		Deployer:  deployer.Hex(),
		Time:      time.Now().UTC().Truncate(time.Second),
		Contracts: make(map[string]string),
	}
	if chainID != nil {
		d.ChainID = chainID.String()
	}
	return d
}

// Write 以 YAML 写入 path，目录不存在时创建
func Write(path string, d *model.Deployment) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func Read(path string) (*model.Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	var d model.Deployment
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &d, nil
}
