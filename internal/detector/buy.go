package detector

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/reddragonlabs/dragon-signal/internal/model"
)

// BuyClassifier 判定Swap事件是否为追踪代币的买入
// 买入 = 追踪代币出现在输出侧:
//
//	token1为追踪代币: amount0In>0 且 amount1Out>0，买入量 = amount1Out
//	token0为追踪代币: amount1In>0 且 amount0Out>0，买入量 = amount0Out
//
// 其余情况（卖出、两侧均无输入等）一律丢弃，不视为错误
type BuyClassifier struct {
	token string // 追踪代币地址，小写
}

// NewBuyClassifier 创建分类器
func NewBuyClassifier(tokenAddr string) *BuyClassifier {
	return &BuyClassifier{token: model.NormalizeAddress(tokenAddr)}
}

// Classify 分类单个Swap事件；ok=false表示不是买入
func (c *BuyClassifier) Classify(ev *model.SwapEvent, pair *model.PairRecord) (*model.BuyEvent, bool) {
	var raw *big.Int

	switch {
	case pair.Token1 == c.token && isPositive(ev.Amount0In) && isPositive(ev.Amount1Out):
		raw = ev.Amount1Out
	case pair.Token0 == c.token && isPositive(ev.Amount1In) && isPositive(ev.Amount0Out):
		raw = ev.Amount0Out
	default:
		return nil, false
	}

	// 买家取Swap事件的to地址，代币的实际接收方
	return &model.BuyEvent{
		Pair:   pair.Address,
		Buyer:  ev.Recipient,
		Tokens: decimal.NewFromBigInt(raw, 0).Shift(-model.TokenDecimals),
		TxHash: ev.TxHash,
	}, true
}

func isPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
