package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/reddragonlabs/dragon-signal/internal/model"
)

// Filter 告警噪音过滤器
// USD价值未知的告警与低于阈值的告警同样被丢弃
type Filter struct {
	minUSD decimal.Decimal
}

// NewFilter 创建过滤器，阈值为含边界的最小USD价值
func NewFilter(minUSD decimal.Decimal) *Filter {
	return &Filter{minUSD: minUSD}
}

// Allow 判断告警是否放行，阈值本身放行（>=）
func (f *Filter) Allow(alert *model.Alert) bool {
	if !alert.HasUSD {
		return false
	}
	return alert.AmountUSD.GreaterThanOrEqual(f.minUSD)
}
