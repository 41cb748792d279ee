package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/reddragonlabs/dragon-signal/internal/model"
)

// UniswapV2风格的工厂与交易对ABI片段，只保留监听买入所需的部分
const factoryABIJSON = `[
	{"constant":true,"inputs":[],"name":"allPairsLength","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"","type":"uint256"}],"name":"allPairs","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"token0","type":"address"},{"indexed":true,"name":"token1","type":"address"},{"indexed":false,"name":"pair","type":"address"},{"indexed":false,"name":"","type":"uint256"}],"name":"PairCreated","type":"event"}
]`

const pairABIJSON = `[
	{"constant":true,"inputs":[],"name":"token0","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"token1","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"sender","type":"address"},{"indexed":false,"name":"amount0In","type":"uint256"},{"indexed":false,"name":"amount1In","type":"uint256"},{"indexed":false,"name":"amount0Out","type":"uint256"},{"indexed":false,"name":"amount1Out","type":"uint256"},{"indexed":true,"name":"to","type":"address"}],"name":"Swap","type":"event"}
]`

var (
	factoryABI = mustParseABI(factoryABIJSON)
	pairABI    = mustParseABI(pairABIJSON)

	// SwapTopic Swap事件的topic0
	SwapTopic = pairABI.Events["Swap"].ID
	// PairCreatedTopic PairCreated事件的topic0
	PairCreatedTopic = factoryABI.Events["PairCreated"].ID
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// DecodeSwapLog 把原始日志解码为SwapEvent
// topics: [topic0, sender, to]；data: 4个uint256
func DecodeSwapLog(lg types.Log) (*model.SwapEvent, error) {
	if len(lg.Topics) != 3 || lg.Topics[0] != SwapTopic {
		return nil, errors.New("不是Swap事件日志")
	}

	vals, err := pairABI.Unpack("Swap", lg.Data)
	if err != nil {
		return nil, errors.Wrap(err, "解码Swap日志失败")
	}
	if len(vals) != 4 {
		return nil, errors.Errorf("Swap日志字段数异常: %d", len(vals))
	}

	amounts := make([]*big.Int, 4)
	for i, v := range vals {
		amount, ok := v.(*big.Int)
		if !ok {
			return nil, errors.Errorf("Swap日志第%d个字段不是uint256", i)
		}
		amounts[i] = amount
	}

	return &model.SwapEvent{
		Pair:       model.NormalizeAddress(lg.Address.Hex()),
		Sender:     model.NormalizeAddress(common.HexToAddress(lg.Topics[1].Hex()).Hex()),
		Amount0In:  amounts[0],
		Amount1In:  amounts[1],
		Amount0Out: amounts[2],
		Amount1Out: amounts[3],
		Recipient:  model.NormalizeAddress(common.HexToAddress(lg.Topics[2].Hex()).Hex()),
		TxHash:     lg.TxHash.Hex(),
	}, nil
}

// DecodePairCreatedLog 把原始日志解码为PairCreatedEvent
// topics: [topic0, token0, token1]；data: pair地址 + 序号
func DecodePairCreatedLog(lg types.Log) (*model.PairCreatedEvent, error) {
	if len(lg.Topics) != 3 || lg.Topics[0] != PairCreatedTopic {
		return nil, errors.New("不是PairCreated事件日志")
	}

	vals, err := factoryABI.Unpack("PairCreated", lg.Data)
	if err != nil {
		return nil, errors.Wrap(err, "解码PairCreated日志失败")
	}
	if len(vals) < 1 {
		return nil, errors.New("PairCreated日志缺少pair地址")
	}

	pairAddr, ok := vals[0].(common.Address)
	if !ok {
		return nil, errors.New("PairCreated日志pair字段不是address")
	}

	return &model.PairCreatedEvent{
		Token0: model.NormalizeAddress(common.HexToAddress(lg.Topics[1].Hex()).Hex()),
		Token1: model.NormalizeAddress(common.HexToAddress(lg.Topics[2].Hex()).Hex()),
		Pair:   model.NormalizeAddress(pairAddr.Hex()),
	}, nil
}
