package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"github.com/reddragonlabs/dragon-signal/internal/model"
	"github.com/reddragonlabs/dragon-signal/pkg/logger"
)

// Backend 屏蔽ethclient，便于测试注入
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Client 链客户端：合约读调用 + 日志订阅
// 订阅回调在各自协程上投递，允许与其他交易对的处理并发
type Client struct {
	backend Backend
	factory common.Address
	closer  func()
}

// Dial 建立RPC连接并做一次连通性探测，探测失败视为致命启动错误
// 订阅依赖websocket端点
func Dial(ctx context.Context, rawURL string, factoryAddr string) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "连接RPC失败: %s", rawURL)
	}

	num, err := ec.BlockNumber(ctx)
	if err != nil {
		ec.Close()
		return nil, errors.Wrap(err, "RPC连通性探测失败")
	}
	logger.Info("🔗 已连接链RPC", logger.Uint64("current_block", num))

	return &Client{
		backend: ec,
		factory: common.HexToAddress(factoryAddr),
		closer:  ec.Close,
	}, nil
}

// NewClient 用自定义Backend构建客户端（测试用）
func NewClient(backend Backend, factoryAddr string) *Client {
	return &Client{backend: backend, factory: common.HexToAddress(factoryAddr)}
}

// PairCount 工厂中的交易对总数
func (c *Client) PairCount(ctx context.Context) (uint64, error) {
	data, err := factoryABI.Pack("allPairsLength")
	if err != nil {
		return 0, err
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.factory, Data: data}, nil)
	if err != nil {
		return 0, errors.Wrap(err, "查询allPairsLength失败")
	}

	vals, err := factoryABI.Unpack("allPairsLength", out)
	if err != nil {
		return 0, errors.Wrap(err, "解码allPairsLength返回失败")
	}
	return vals[0].(*big.Int).Uint64(), nil
}

// PairAt 按序号取交易对地址（小写）
func (c *Client) PairAt(ctx context.Context, index uint64) (string, error) {
	data, err := factoryABI.Pack("allPairs", new(big.Int).SetUint64(index))
	if err != nil {
		return "", err
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.factory, Data: data}, nil)
	if err != nil {
		return "", errors.Wrapf(err, "查询allPairs(%d)失败", index)
	}

	vals, err := factoryABI.Unpack("allPairs", out)
	if err != nil {
		return "", errors.Wrap(err, "解码allPairs返回失败")
	}
	return model.NormalizeAddress(vals[0].(common.Address).Hex()), nil
}

// TokenPair 查询交易对的两个代币地址（小写）
func (c *Client) TokenPair(ctx context.Context, pairAddr string) (string, string, error) {
	pair := common.HexToAddress(pairAddr)

	token0, err := c.callAddressGetter(ctx, pair, "token0")
	if err != nil {
		return "", "", err
	}
	token1, err := c.callAddressGetter(ctx, pair, "token1")
	if err != nil {
		return "", "", err
	}
	return token0, token1, nil
}

func (c *Client) callAddressGetter(ctx context.Context, contract common.Address, method string) (string, error) {
	data, err := pairABI.Pack(method)
	if err != nil {
		return "", err
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return "", errors.Wrapf(err, "查询%s()失败: %s", method, contract.Hex())
	}

	vals, err := pairABI.Unpack(method, out)
	if err != nil {
		return "", errors.Wrapf(err, "解码%s()返回失败", method)
	}
	return model.NormalizeAddress(vals[0].(common.Address).Hex()), nil
}

// SubscribeSwaps 订阅单个交易对的Swap日志，解码后写入sink
// 单条日志解码失败只丢弃该条，不中断订阅
func (c *Client) SubscribeSwaps(ctx context.Context, pairAddr string, sink chan<- *model.SwapEvent) (ethereum.Subscription, error) {
	logs := make(chan types.Log, 64)
	query := ethereum.FilterQuery{
		Addresses: []common.Address{common.HexToAddress(pairAddr)},
		Topics:    [][]common.Hash{{SwapTopic}},
	}

	sub, err := c.backend.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return nil, errors.Wrapf(err, "订阅Swap日志失败: %s", pairAddr)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case lg, ok := <-logs:
				if !ok {
					return
				}
				ev, err := DecodeSwapLog(lg)
				if err != nil {
					logger.Warn("⚠️ 丢弃无法解码的Swap日志",
						logger.FieldPair(pairAddr),
						logger.FieldErr(err))
					continue
				}
				select {
				case sink <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return sub, nil
}

// SubscribePairCreated 订阅工厂的PairCreated日志
func (c *Client) SubscribePairCreated(ctx context.Context, sink chan<- *model.PairCreatedEvent) (ethereum.Subscription, error) {
	logs := make(chan types.Log, 16)
	query := ethereum.FilterQuery{
		Addresses: []common.Address{c.factory},
		Topics:    [][]common.Hash{{PairCreatedTopic}},
	}

	sub, err := c.backend.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return nil, errors.Wrap(err, "订阅PairCreated日志失败")
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case lg, ok := <-logs:
				if !ok {
					return
				}
				ev, err := DecodePairCreatedLog(lg)
				if err != nil {
					logger.Warn("⚠️ 丢弃无法解码的PairCreated日志", logger.FieldErr(err))
					continue
				}
				select {
				case sink <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return sub, nil
}

// Close 关闭底层连接
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}
