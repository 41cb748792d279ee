package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/reddragonlabs/dragon-signal/internal/model"
)

func TestFilter_Allow(t *testing.T) {
	filter := NewFilter(decimal.NewFromInt(1))

	tests := []struct {
		name   string
		usd    string
		hasUSD bool
		want   bool
	}{
		// 价格未知与低于阈值同样被丢弃
		{"价值未知", "0", false, false},
		{"低于阈值", "0.50", true, false},
		{"恰好等于阈值", "1.00", true, true},
		{"高于阈值", "150.00", true, true},
		{"真实的零价值", "0", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := &model.Alert{
				AmountUSD: decimal.RequireFromString(tt.usd),
				HasUSD:    tt.hasUSD,
			}
			assert.Equal(t, tt.want, filter.Allow(alert))
		})
	}
}
