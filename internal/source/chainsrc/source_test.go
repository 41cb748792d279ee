package chainsrc

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reddragonlabs/dragon-signal/internal/chain"
	"github.com/reddragonlabs/dragon-signal/internal/registry"
)

var (
	factoryAddr  = common.HexToAddress("0x70e7000000000000000000000000000000000001")
	trackedToken = common.HexToAddress("0x9f9a000000000000000000000000000000000002")
	otherToken   = common.HexToAddress("0x1111000000000000000000000000000000000003")
	pairA        = common.HexToAddress("0xaaaa000000000000000000000000000000000004")
	pairB        = common.HexToAddress("0xbbbb000000000000000000000000000000000005")
	pairC        = common.HexToAddress("0xcccc000000000000000000000000000000000006")
	buyerAddr    = common.HexToAddress("0x3333000000000000000000000000000000000007")
)

var (
	selAllPairsLength = crypto.Keccak256([]byte("allPairsLength()"))[:4]
	selAllPairs       = crypto.Keccak256([]byte("allPairs(uint256)"))[:4]
	selToken0         = crypto.Keccak256([]byte("token0()"))[:4]
	selToken1         = crypto.Keccak256([]byte("token1()"))[:4]
)

func word(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func addrWord(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), 32)
}

func addrTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addrWord(addr))
}

// fakeSub 测试用订阅
type fakeSub struct {
	errc chan error
	once sync.Once
}

func (s *fakeSub) Unsubscribe() {
	s.once.Do(func() { close(s.errc) })
}

func (s *fakeSub) Err() <-chan error {
	return s.errc
}

// fakeBackend 内存中的链后端，按ABI选择器应答合约调用
type fakeBackend struct {
	mu     sync.Mutex
	pairs  []common.Address
	tokens map[common.Address][2]common.Address

	logChans map[common.Address]chan<- types.Log
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		tokens:   make(map[common.Address][2]common.Address),
		logChans: make(map[common.Address]chan<- types.Log),
	}
}

func (b *fakeBackend) addPair(pair, token0, token1 common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pairs = append(b.pairs, pair)
	b.tokens[pair] = [2]common.Address{token0, token1}
}

func (b *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	return 100, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sel := msg.Data[:4]
	switch {
	case string(sel) == string(selAllPairsLength):
		return word(big.NewInt(int64(len(b.pairs)))), nil
	case string(sel) == string(selAllPairs):
		idx := new(big.Int).SetBytes(msg.Data[4:36]).Int64()
		return addrWord(b.pairs[idx]), nil
	case string(sel) == string(selToken0):
		return addrWord(b.tokens[*msg.To][0]), nil
	case string(sel) == string(selToken1):
		return addrWord(b.tokens[*msg.To][1]), nil
	}
	return nil, nil
}

func (b *fakeBackend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logChans[q.Addresses[0]] = ch
	return &fakeSub{errc: make(chan error)}, nil
}

// hasSubscription 指定地址的日志订阅是否已安装
func (b *fakeBackend) hasSubscription(addr common.Address) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.logChans[addr]
	return ok
}

// emitSwap 向指定交易对的订阅注入一条Swap日志
func (b *fakeBackend) emitSwap(pair common.Address, a0In, a1In, a0Out, a1Out *big.Int) {
	b.mu.Lock()
	ch := b.logChans[pair]
	b.mu.Unlock()

	data := append(word(a0In), word(a1In)...)
	data = append(data, word(a0Out)...)
	data = append(data, word(a1Out)...)

	ch <- types.Log{
		Address: pair,
		Topics:  []common.Hash{chain.SwapTopic, addrTopic(buyerAddr), addrTopic(buyerAddr)},
		Data:    data,
		TxHash:  common.HexToHash("0xdeadbeef"),
	}
}

// emitPairCreated 向工厂订阅注入一条PairCreated日志
func (b *fakeBackend) emitPairCreated(token0, token1, pair common.Address) {
	b.mu.Lock()
	ch := b.logChans[factoryAddr]
	b.mu.Unlock()

	data := append(addrWord(pair), word(big.NewInt(1))...)

	ch <- types.Log{
		Address: factoryAddr,
		Topics:  []common.Hash{chain.PairCreatedTopic, addrTopic(token0), addrTopic(token1)},
		Data:    data,
	}
}

func newTestSource(backend *fakeBackend) (*Source, *registry.Registry) {
	client := chain.NewClient(backend, factoryAddr.Hex())
	reg := registry.New(trackedToken.Hex(), client)
	return NewSource(client, reg, nil), reg
}

// 端到端：静态扫描命中一个交易对，随后PairCreated动态接入第二个
func TestSource_ScanAndDynamicPairs(t *testing.T) {
	backend := newFakeBackend()
	backend.addPair(pairA, otherToken, trackedToken)
	backend.addPair(pairB, otherToken, otherToken)

	src, reg := newTestSource(backend)

	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	// 扫描只追踪了包含追踪代币的pairA
	assert.Equal(t, 1, reg.TrackedCount())
	require.True(t, backend.hasSubscription(pairA))
	assert.False(t, backend.hasSubscription(pairB))

	// pairA上的买入事件被解码并送达事件流
	oneToken, _ := new(big.Int).SetString("1000000000000000000", 10)
	backend.emitSwap(pairA, big.NewInt(500), big.NewInt(0), big.NewInt(0), oneToken)

	select {
	case ev := <-src.Subscribe():
		assert.Equal(t, "0xaaaa000000000000000000000000000000000004", ev.Pair)
		assert.Equal(t, oneToken.String(), ev.Amount1Out.String())
	case <-time.After(2 * time.Second):
		t.Fatal("等待Swap事件超时")
	}

	// 新建交易对pairC动态进入追踪
	backend.addPair(pairC, trackedToken, otherToken)
	backend.emitPairCreated(trackedToken, otherToken, pairC)

	require.Eventually(t, func() bool {
		return reg.TrackedCount() == 2 && backend.hasSubscription(pairC)
	}, 2*time.Second, 10*time.Millisecond)

	backend.emitSwap(pairC, big.NewInt(0), big.NewInt(500), oneToken, big.NewInt(0))

	select {
	case ev := <-src.Subscribe():
		assert.Equal(t, "0xcccc000000000000000000000000000000000006", ev.Pair)
	case <-time.After(2 * time.Second):
		t.Fatal("等待pairC的Swap事件超时")
	}
}

// 扫描结束后零追踪是致命配置错误
func TestSource_NoTrackedPairsIsFatal(t *testing.T) {
	backend := newFakeBackend()
	backend.addPair(pairB, otherToken, otherToken)

	src, _ := newTestSource(backend)

	err := src.Start(context.Background())
	require.ErrorIs(t, err, ErrNoTrackedPairs)
}

// 重复发现同一地址不会重复安装订阅
func TestSource_StaticPairDedup(t *testing.T) {
	backend := newFakeBackend()
	backend.addPair(pairA, otherToken, trackedToken)

	client := chain.NewClient(backend, factoryAddr.Hex())
	reg := registry.New(trackedToken.Hex(), client)

	// 静态配置与工厂扫描指向同一地址（大小写不同）
	src := NewSource(client, reg, []string{"0xAAAA000000000000000000000000000000000004"})

	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	assert.Equal(t, 1, reg.TrackedCount())
}
