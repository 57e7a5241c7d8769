// pasarctl 部署、升级并测试 Feeds NFT 合约
package main

import (
	"os"

	"go.uber.org/zap"

	"pasar-contract-tools/internal/service"
)

func main() {
	// 配置加载之前的错误也需要输出
	if err := service.InitLogger(service.DefaultLogLevel, service.DefaultLogFormat); err != nil {
		panic(err)
	}
	if err := newRootCmd(newApp()).Execute(); err != nil {
		service.Logger.Error("Command failed", zap.Error(err))
		_ = service.Logger.Sync()
		os.Exit(1)
	}
}
