package main

import (
	"fmt"
	"os"

	"github.com/reddragonlabs/dragon-signal/internal/app"
	"github.com/reddragonlabs/dragon-signal/pkg/utils"
)

const defaultConfigPath = "./config/config.yaml"

func main() {
	utils.SetEnvPrefix("DRAGON_")

	// 配置路径可用 DRAGON_CONFIG_FILE_PATH 覆盖
	configPath := utils.GetConfigFilePath()
	if configPath == "" {
		configPath = defaultConfigPath
	}

	// 创建应用实例
	application := app.New()

	// 启动应用，致命启动错误以非零状态码退出
	if err := application.Start(configPath); err != nil {
		fmt.Printf("应用启动失败: %v\n", err)
		os.Exit(1)
	}
}
