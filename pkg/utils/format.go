package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

func ConvertToJsonString(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

// GetDisplayWalletAddress 获取用于显示的钱包地址（前6位...后4位）
func GetDisplayWalletAddress(walletAddress string) string {
	// 检查地址长度
	if len(walletAddress) > 10 {
		return fmt.Sprintf("%s...%s", walletAddress[:6], walletAddress[len(walletAddress)-4:])
	}
	// 如果地址不够长，直接返回原始地址
	return walletAddress
}

// FormatTokenAmount 格式化代币数量，大额显示为K/M
func FormatTokenAmount(amount decimal.Decimal) string {
	if amount.IsZero() {
		return "0"
	}

	amountFloat, _ := amount.Float64()

	if amountFloat >= 1000000 {
		return fmt.Sprintf("%.2fM", amountFloat/1000000)
	} else if amountFloat >= 1000 {
		return fmt.Sprintf("%.2fK", amountFloat/1000)
	}

	// 对于小数，保留合适的精度
	if amountFloat < 0.0001 {
		return amount.Truncate(8).String()
	} else if amountFloat < 0.01 {
		return amount.Truncate(6).String()
	} else if amountFloat < 1 {
		return amount.Truncate(4).String()
	}

	return amount.Truncate(2).String()
}

// FormatPrice 格式化价格
func FormatPrice(raw string) string {
	if raw == "" {
		return ""
	}

	// 转成浮点确保合法并去除科学计数等情况
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if val == 0 {
		return "$0"
	}

	// 用足够精度转成字符串
	s := fmt.Sprintf("%.20f", val)
	intPart, decPart := splitOnce(s, ".")

	// 如果小数部分全是0，直接返回整数部分
	if strings.TrimRight(decPart, "0") == "" {
		return fmt.Sprintf("$%s", intPart)
	}

	// 统计前导0个数
	zeroPrefix := 0
	for zeroPrefix < len(decPart) && decPart[zeroPrefix] == '0' {
		zeroPrefix++
	}

	// 取首个非零数字开始的4位十进制数（含0）
	start := zeroPrefix
	end := start + 4
	if end > len(decPart) {
		end = len(decPart)
	}
	digits := decPart[start:end]

	// 拼接小数部分
	var frac string
	if zeroPrefix > 3 {
		frac = fmt.Sprintf("0{%d}%s", zeroPrefix, digits)
	} else {
		frac = strings.Repeat("0", zeroPrefix) + digits
	}

	return fmt.Sprintf("$%s.%s", intPart, frac)
}

// splitOnce 把 s 按第一个 sep 切成两段，若不存在 sep，则 decPart 为空串
func splitOnce(s, sep string) (intPart, decPart string) {
	if idx := strings.Index(s, sep); idx != -1 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}
