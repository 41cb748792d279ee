package pricer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reddragonlabs/dragon-signal/pkg/logger"
)

const defaultAPIURL = "https://api.dexscreener.com"

// Quoter 按交易对查询追踪代币的美元报价
// ok=false表示价格未知（网络错误、无报价、报价为0），调用方不应视为$0
type Quoter interface {
	Quote(ctx context.Context, pairAddr string) (decimal.Decimal, bool)
}

// pairResponse DexScreener交易对接口返回体，只取priceUsd
type pairResponse struct {
	Pair *struct {
		PriceUsd string `json:"priceUsd"`
	} `json:"pair"`
}

// Client DexScreener报价客户端
type Client struct {
	apiURL string
	chain  string
	hc     *http.Client
}

// NewClient 创建报价客户端；apiURL为空时使用官方端点
func NewClient(apiURL string, chain string) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		apiURL: apiURL,
		chain:  chain,
		hc:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Quote 查询交易对报价；任何失败都降级为"价格未知"而不是报错
func (c *Client) Quote(ctx context.Context, pairAddr string) (decimal.Decimal, bool) {
	url := fmt.Sprintf("%s/latest/dex/pairs/%s/%s", c.apiURL, c.chain, pairAddr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Warn("⚠️ 构建报价请求失败", logger.FieldPair(pairAddr), logger.FieldErr(err))
		return decimal.Zero, false
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		logger.Warn("⚠️ 查询报价失败", logger.FieldPair(pairAddr), logger.FieldErr(err))
		return decimal.Zero, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("⚠️ 报价接口返回异常状态码",
			logger.FieldPair(pairAddr),
			logger.Int("status_code", resp.StatusCode))
		return decimal.Zero, false
	}

	var body pairResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logger.Warn("⚠️ 解析报价返回失败", logger.FieldPair(pairAddr), logger.FieldErr(err))
		return decimal.Zero, false
	}

	if body.Pair == nil || body.Pair.PriceUsd == "" {
		return decimal.Zero, false
	}

	price, err := decimal.NewFromString(body.Pair.PriceUsd)
	if err != nil || price.IsZero() {
		return decimal.Zero, false
	}

	return price, true
}
