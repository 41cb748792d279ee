package publisher

import (
	"fmt"
	"strings"

	"github.com/reddragonlabs/dragon-signal/internal/model"
	"github.com/reddragonlabs/dragon-signal/pkg/utils"
)

// LinkSet 告警附带的固定导航链接
type LinkSet struct {
	DocsURL     string
	ChartURL    string
	TrendingURL string
}

// Formatter 告警文案格式化器
// Telegram走HTML富文本，Webhook走Markdown文本
type Formatter struct {
	tokenSymbol string
	explorerURL string
	links       LinkSet
}

// NewFormatter 创建文案格式化器
func NewFormatter(tokenSymbol string, explorerURL string, links LinkSet) *Formatter {
	return &Formatter{
		tokenSymbol: tokenSymbol,
		explorerURL: strings.TrimRight(explorerURL, "/"),
		links:       links,
	}
}

// Links 固定导航链接
func (f *Formatter) Links() LinkSet {
	return f.links
}

// BuyerURL 买家地址的浏览器链接
func (f *Formatter) BuyerURL(buyer string) string {
	return fmt.Sprintf("%s/address/%s", f.explorerURL, buyer)
}

// TxURL 交易哈希的浏览器链接
func (f *Formatter) TxURL(txHash string) string {
	return fmt.Sprintf("%s/tx/%s", f.explorerURL, txHash)
}

// Caption 生成Telegram HTML格式的买入文案
func (f *Formatter) Caption(alert *model.Alert) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🐉 <b>%s 买入!</b>\n\n", f.tokenSymbol))
	sb.WriteString(fmt.Sprintf("💰 数量: <b>%s %s</b>\n",
		utils.FormatTokenAmount(alert.Tokens), f.tokenSymbol))
	sb.WriteString(fmt.Sprintf("💵 价值: <b>$%s</b>\n", alert.AmountUSDDisplay()))
	if alert.HasUSD {
		sb.WriteString(fmt.Sprintf("📈 价格: <b>%s</b>\n", utils.FormatPrice(alert.PriceUSD.String())))
	}
	sb.WriteString(fmt.Sprintf("👤 买家: <a href=\"%s\">%s</a>\n",
		f.BuyerURL(alert.Buyer), utils.GetDisplayWalletAddress(alert.Buyer)))
	sb.WriteString(fmt.Sprintf("🔗 <a href=\"%s\">查看交易</a>", f.TxURL(alert.TxHash)))

	return sb.String()
}

// MessageText 生成Webhook载荷携带的Markdown格式文案
func (f *Formatter) MessageText(alert *model.Alert) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🐉 *%s 买入告警*\n", f.tokenSymbol))
	sb.WriteString(fmt.Sprintf("💰 %s %s ($%s)\n",
		utils.FormatTokenAmount(alert.Tokens), f.tokenSymbol, alert.AmountUSDDisplay()))
	sb.WriteString(fmt.Sprintf("👤 [%s](%s)\n",
		utils.GetDisplayWalletAddress(alert.Buyer), f.BuyerURL(alert.Buyer)))
	sb.WriteString(fmt.Sprintf("🔗 [交易详情](%s)", f.TxURL(alert.TxHash)))

	return sb.String()
}
