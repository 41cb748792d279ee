package utils

import (
	"os"
)

const (
	ENV string = "ENV"

	ENV_LOCAL string = "LOCAL"
)

const (
	CONFIG_FILE_PATH string = "CONFIG_FILE_PATH"
)

var envPrefix string

func SetEnvPrefix(prefix string) {
	envPrefix = prefix
}

func GetEnv() string {
	return os.Getenv(envPrefix + ENV)
}

func IsLocalEnv() bool {
	return GetEnv() == ENV_LOCAL
}

// GetConfigFilePath 配置文件路径，可用环境变量覆盖
func GetConfigFilePath() string {
	return os.Getenv(envPrefix + CONFIG_FILE_PATH)
}
