package json

import (
	"os"
	"regexp"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

// ReplaceEnvVars 把配置内容里的 ${VAR} 占位符替换成环境变量值
// 未设置的变量替换为空串，由上层配置校验兜底
func ReplaceEnvVars(data []byte) ([]byte, error) {
	replaced := envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
	return replaced, nil
}
