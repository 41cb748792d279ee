package pipeline

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reddragonlabs/dragon-signal/internal/detector"
	"github.com/reddragonlabs/dragon-signal/internal/media"
	"github.com/reddragonlabs/dragon-signal/internal/model"
	"github.com/reddragonlabs/dragon-signal/internal/publisher"
	"github.com/reddragonlabs/dragon-signal/internal/registry"
	"github.com/reddragonlabs/dragon-signal/internal/source"
)

const (
	trackedToken = "0x9f9a5b9e0f8c9d3c5a4f2e1d0b8a7c6e5d4f3b2a"
	otherToken   = "0x1111111111111111111111111111111111111111"
	pairAddr     = "0xaaaa000000000000000000000000000000000004"
	buyerAddr    = "0x3333333333333333333333333333333333333333"
)

var oneToken, _ = new(big.Int).SetString("1000000000000000000", 10)

// fakeSwapSource 测试用数据源，由测试代码注入事件
type fakeSwapSource struct {
	evChan  chan *model.SwapEvent
	errChan chan error
}

func newFakeSwapSource() *fakeSwapSource {
	return &fakeSwapSource{
		evChan:  make(chan *model.SwapEvent, 16),
		errChan: make(chan error, 16),
	}
}

func (s *fakeSwapSource) Start(ctx context.Context) error    { return nil }
func (s *fakeSwapSource) Stop() error                        { return nil }
func (s *fakeSwapSource) Subscribe() <-chan *model.SwapEvent { return s.evChan }
func (s *fakeSwapSource) Errors() <-chan error               { return s.errChan }
func (s *fakeSwapSource) String() string                     { return "fake" }

// fakeReader 固定应答的代币查询
type fakeReader struct{}

func (fakeReader) TokenPair(ctx context.Context, pairAddr string) (string, string, error) {
	return otherToken, trackedToken, nil
}

// fakeQuoter 固定报价
type fakeQuoter struct {
	price decimal.Decimal
	ok    bool
}

func (q *fakeQuoter) Quote(ctx context.Context, pairAddr string) (decimal.Decimal, bool) {
	return q.price, q.ok
}

// capturePublisher 收集发布的告警
type capturePublisher struct {
	mu     sync.Mutex
	alerts []*model.Alert
}

func (p *capturePublisher) GetType() string { return "capture" }
func (p *capturePublisher) Close() error    { return nil }

func (p *capturePublisher) Publish(alert *model.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alert)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.alerts)
}

func (p *capturePublisher) last() *model.Alert {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alerts[len(p.alerts)-1]
}

func newSwap(a0In, a1In, a0Out, a1Out *big.Int) *model.SwapEvent {
	return &model.SwapEvent{
		Pair:       pairAddr,
		Sender:     otherToken,
		Amount0In:  a0In,
		Amount1In:  a1In,
		Amount0Out: a0Out,
		Amount1Out: a1Out,
		Recipient:  buyerAddr,
		TxHash:     "0xdeadbeef",
	}
}

func newTestPipeline(t *testing.T, quoter *fakeQuoter) (*Pipeline, *fakeSwapSource, *capturePublisher) {
	t.Helper()

	reg := registry.New(trackedToken, fakeReader{})
	_, _, err := reg.Check(context.Background(), pairAddr)
	require.NoError(t, err)

	src := newFakeSwapSource()
	sourceManager := source.NewManager()
	sourceManager.AddSource(src)

	capture := &capturePublisher{}
	publisherManager := publisher.NewManager()
	publisherManager.AddPublisher(capture)

	p := NewPipeline(
		sourceManager,
		reg,
		detector.NewBuyClassifier(trackedToken),
		quoter,
		NewFilter(decimal.NewFromInt(1)),
		media.NewSelector(t.TempDir(), t.TempDir()),
		publisherManager,
	)

	return p, src, capture
}

// 端到端：买入事件经过分类、报价、过滤后投递为告警
func TestPipeline_BuyToAlert(t *testing.T) {
	quoter := &fakeQuoter{price: decimal.RequireFromString("3.00"), ok: true}
	p, src, capture := newTestPipeline(t, quoter)

	require.NoError(t, p.Start())

	// 1.0个代币的买入，价值$3.00
	src.evChan <- newSwap(big.NewInt(500), big.NewInt(0), big.NewInt(0), oneToken)

	require.Eventually(t, func() bool {
		return capture.count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	alert := capture.last()
	assert.Equal(t, pairAddr, alert.Pair)
	assert.Equal(t, buyerAddr, alert.Buyer)
	assert.Equal(t, "1", alert.Tokens.String())
	assert.True(t, alert.HasUSD)
	assert.Equal(t, "3", alert.PriceUSD.String())
	assert.Equal(t, "3.00", alert.AmountUSD.StringFixed(2))
	assert.Equal(t, model.MediaNone, alert.Media.Kind)
	assert.NotEmpty(t, alert.ID)

	stats := p.GetStats()
	assert.Equal(t, uint64(1), stats.SwapsSeen)
	assert.Equal(t, uint64(1), stats.BuysDetected)
	assert.Equal(t, uint64(1), stats.AlertsPublished)

	require.NoError(t, p.Stop())
}

// 卖出与未知交易对的事件不产生告警
func TestPipeline_NonBuysDiscarded(t *testing.T) {
	quoter := &fakeQuoter{price: decimal.RequireFromString("3.00"), ok: true}
	p, src, capture := newTestPipeline(t, quoter)

	require.NoError(t, p.Start())

	// 卖出：追踪代币在输入侧
	src.evChan <- newSwap(big.NewInt(0), oneToken, big.NewInt(500), big.NewInt(0))

	// 未追踪交易对上的买入
	unknown := newSwap(big.NewInt(500), big.NewInt(0), big.NewInt(0), oneToken)
	unknown.Pair = "0xbbbb000000000000000000000000000000000005"
	src.evChan <- unknown

	require.Eventually(t, func() bool {
		return p.GetStats().SwapsSeen == 2
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, capture.count())
	assert.Equal(t, uint64(0), p.GetStats().BuysDetected)

	require.NoError(t, p.Stop())
}

// 报价失败的买入被过滤器丢弃，不投递
func TestPipeline_UnknownPriceDropped(t *testing.T) {
	quoter := &fakeQuoter{ok: false}
	p, src, capture := newTestPipeline(t, quoter)

	require.NoError(t, p.Start())

	src.evChan <- newSwap(big.NewInt(500), big.NewInt(0), big.NewInt(0), oneToken)

	require.Eventually(t, func() bool {
		return p.GetStats().BuysDetected == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, capture.count())

	require.NoError(t, p.Stop())
}

// 低于$1.00阈值的买入被丢弃
func TestPipeline_DustBuyDropped(t *testing.T) {
	quoter := &fakeQuoter{price: decimal.RequireFromString("3.00"), ok: true}
	p, src, capture := newTestPipeline(t, quoter)

	require.NoError(t, p.Start())

	// 0.1个代币，价值$0.30
	tenth, _ := new(big.Int).SetString("100000000000000000", 10)
	src.evChan <- newSwap(big.NewInt(500), big.NewInt(0), big.NewInt(0), tenth)

	require.Eventually(t, func() bool {
		return p.GetStats().BuysDetected == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, capture.count())

	require.NoError(t, p.Stop())
}
