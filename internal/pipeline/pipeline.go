package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reddragonlabs/dragon-signal/internal/detector"
	"github.com/reddragonlabs/dragon-signal/internal/media"
	"github.com/reddragonlabs/dragon-signal/internal/model"
	"github.com/reddragonlabs/dragon-signal/internal/pricer"
	"github.com/reddragonlabs/dragon-signal/internal/publisher"
	"github.com/reddragonlabs/dragon-signal/internal/registry"
	"github.com/reddragonlabs/dragon-signal/internal/source"
	"github.com/reddragonlabs/dragon-signal/pkg/logger"
	"github.com/reddragonlabs/dragon-signal/pkg/utils"
)

// Pipeline 数据处理管道
// 每个Swap事件独立协程处理，单次慢价格查询或慢投递不会阻塞其他交易对的事件
type Pipeline struct {
	sourceManager    *source.Manager
	registry         *registry.Registry
	classifier       *detector.BuyClassifier
	quoter           pricer.Quoter
	filter           *Filter
	selector         *media.Selector
	publisherManager *publisher.Manager

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	swapsSeen       atomic.Uint64
	buysDetected    atomic.Uint64
	alertsPublished atomic.Uint64
	errorsCount     atomic.Uint64
}

// NewPipeline 创建数据处理管道
func NewPipeline(
	sourceManager *source.Manager,
	reg *registry.Registry,
	classifier *detector.BuyClassifier,
	quoter pricer.Quoter,
	filter *Filter,
	selector *media.Selector,
	publisherManager *publisher.Manager,
) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		sourceManager:    sourceManager,
		registry:         reg,
		classifier:       classifier,
		quoter:           quoter,
		filter:           filter,
		selector:         selector,
		publisherManager: publisherManager,
		ctx:              ctx,
		cancel:           cancel,
	}
}

// Start 启动数据处理管道
func (p *Pipeline) Start() error {
	logger.Info("启动数据处理管道")

	if err := p.publisherManager.Start(); err != nil {
		return err
	}

	if err := p.sourceManager.Start(); err != nil {
		return err
	}

	go p.processSwaps()
	go p.processErrors()

	logger.Info("数据处理管道已启动")
	return nil
}

// Stop 停止数据处理管道
func (p *Pipeline) Stop() error {
	logger.Info("停止数据处理管道")

	p.cancel()

	if err := p.sourceManager.Stop(); err != nil {
		logger.Error("停止数据源管理器失败", logger.FieldErr(err))
	}

	p.wg.Wait()

	if err := p.publisherManager.Stop(); err != nil {
		logger.Error("停止发布管理器失败", logger.FieldErr(err))
	}

	logger.Info("数据处理管道已停止")
	return nil
}

// processSwaps 消费汇聚后的Swap事件流
func (p *Pipeline) processSwaps() {
	evChan := p.sourceManager.Swaps()

	for {
		select {
		case <-p.ctx.Done():
			return
		case ev, ok := <-evChan:
			if !ok {
				return
			}

			p.swapsSeen.Add(1)

			// 每个事件独立协程处理
			p.wg.Add(1)
			go func(ev *model.SwapEvent) {
				defer p.wg.Done()
				p.handleSwap(ev)
			}(ev)
		}
	}
}

// processErrors 消费数据源错误流
func (p *Pipeline) processErrors() {
	errorChan := p.sourceManager.Errors()

	for {
		select {
		case <-p.ctx.Done():
			return
		case err, ok := <-errorChan:
			if !ok {
				return
			}

			p.errorsCount.Add(1)
			logger.Error("数据源错误", logger.FieldErr(err))
		}
	}
}

// handleSwap 处理单个Swap事件：分类 → 报价 → 过滤 → 选素材 → 投递
func (p *Pipeline) handleSwap(ev *model.SwapEvent) {
	pair, ok := p.registry.Get(ev.Pair)
	if !ok {
		return
	}

	buy, ok := p.classifier.Classify(ev, pair)
	if !ok {
		return
	}

	p.buysDetected.Add(1)

	alert := p.enrich(buy)

	if !p.filter.Allow(alert) {
		logger.Debug("🔇 告警低于阈值或价值未知，已丢弃",
			logger.FieldPair(alert.Pair),
			logger.String("tokens", alert.Tokens.String()),
			logger.String("amount_usd", alert.AmountUSDDisplay()))
		return
	}

	alert.Media = p.selector.Pick()

	p.publisherManager.PublishAlert(alert)
	p.alertsPublished.Add(1)
}

// enrich 为买入事件附加USD价值，报价失败时价值置为未知
func (p *Pipeline) enrich(buy *model.BuyEvent) *model.Alert {
	alert := &model.Alert{
		ID:        utils.GenerateAlertID(),
		Pair:      buy.Pair,
		Buyer:     buy.Buyer,
		Tokens:    buy.Tokens,
		TxHash:    buy.TxHash,
		Timestamp: time.Now(),
	}

	price, ok := p.quoter.Quote(p.ctx, buy.Pair)
	if ok {
		alert.PriceUSD = price
		alert.AmountUSD = price.Mul(buy.Tokens).Round(2)
		alert.HasUSD = true
	}

	return alert
}

// Stats 管道统计信息
type Stats struct {
	SwapsSeen       uint64 `json:"swaps_seen"`
	BuysDetected    uint64 `json:"buys_detected"`
	AlertsPublished uint64 `json:"alerts_published"`
	ErrorsCount     uint64 `json:"errors_count"`
}

// GetStats 获取管道统计信息
func (p *Pipeline) GetStats() *Stats {
	return &Stats{
		SwapsSeen:       p.swapsSeen.Load(),
		BuysDetected:    p.buysDetected.Load(),
		AlertsPublished: p.alertsPublished.Load(),
		ErrorsCount:     p.errorsCount.Load(),
	}
}
