package model

import (
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TokenDecimals 追踪代币的小数位数
const TokenDecimals = 18

// NormalizeAddress 地址统一小写，避免同一合约因大小写不同被重复追踪
func NormalizeAddress(addr string) string {
	return strings.ToLower(addr)
}

// SwapEvent 链上Swap日志解码后的原始事件，处理完即丢弃，不落盘
type SwapEvent struct {
	Pair       string    `json:"pair"`
	Sender     string    `json:"sender"`
	Amount0In  *big.Int  `json:"amount0_in"`
	Amount1In  *big.Int  `json:"amount1_in"`
	Amount0Out *big.Int  `json:"amount0_out"`
	Amount1Out *big.Int  `json:"amount1_out"`
	Recipient  string    `json:"recipient"`
	TxHash     string    `json:"tx_hash"`
	BlockTime  time.Time `json:"block_time,omitempty"`
}

// PairCreatedEvent 工厂合约新建交易对事件
type PairCreatedEvent struct {
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`
	Pair   string `json:"pair"`
}

// PairRecord 已确认涉及追踪代币的交易对，创建后不再修改
// Address/Token0/Token1 均为小写十六进制
type PairRecord struct {
	Address string `json:"address"`
	Token0  string `json:"token0"`
	Token1  string `json:"token1"`
}

// BuyEvent Swap事件被判定为买入后的产物
type BuyEvent struct {
	Pair   string          `json:"pair"`
	Buyer  string          `json:"buyer"`
	Tokens decimal.Decimal `json:"tokens"`
	TxHash string          `json:"tx_hash"`
}

// MediaKind 告警附带的媒体类型
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaImage
	MediaVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	default:
		return "none"
	}
}

// MediaAsset 选中的媒体素材
type MediaAsset struct {
	Kind MediaKind `json:"kind"`
	Path string    `json:"path"`
}

// Alert 最终交付给发布器的买入告警
// HasUSD=false 表示价格查询失败，USD价值未知，不等同于$0
type Alert struct {
	ID        string          `json:"id"`
	Pair      string          `json:"pair"`
	Buyer     string          `json:"buyer"`
	Tokens    decimal.Decimal `json:"tokens"`
	PriceUSD  decimal.Decimal `json:"price_usd"`
	AmountUSD decimal.Decimal `json:"amount_usd"`
	HasUSD    bool            `json:"has_usd"`
	TxHash    string          `json:"tx_hash"`
	Media     MediaAsset      `json:"media"`
	Timestamp time.Time       `json:"timestamp"`
}

// AmountUSDDisplay USD价值的展示字符串，未知时显示"?"
func (a *Alert) AmountUSDDisplay() string {
	if !a.HasUSD {
		return "?"
	}
	return a.AmountUSD.StringFixed(2)
}
