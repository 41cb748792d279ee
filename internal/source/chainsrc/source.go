package chainsrc

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/pkg/errors"

	"github.com/reddragonlabs/dragon-signal/internal/chain"
	"github.com/reddragonlabs/dragon-signal/internal/model"
	"github.com/reddragonlabs/dragon-signal/internal/registry"
	"github.com/reddragonlabs/dragon-signal/pkg/logger"
)

// ErrNoTrackedPairs 启动扫描结束后没有任何可追踪的交易对
var ErrNoTrackedPairs = errors.New("工厂扫描完成但没有发现任何包含追踪代币的交易对")

// Source 链上数据源：启动时扫描工厂全部交易对，
// 对命中的交易对安装Swap订阅，并持续监听PairCreated动态接入新交易对
type Source struct {
	client   *chain.Client
	registry *registry.Registry

	// 额外的静态交易对地址，扫描前优先检查
	staticPairs []string

	evChan  chan *model.SwapEvent
	errChan chan error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	subs []ethereum.Subscription
}

// NewSource 创建链上数据源
func NewSource(client *chain.Client, reg *registry.Registry, staticPairs []string) *Source {
	return &Source{
		client:      client,
		registry:    reg,
		staticPairs: staticPairs,
		evChan:      make(chan *model.SwapEvent, 1000),
		errChan:     make(chan error, 100),
	}
}

// Start 启动数据源：静态扫描 → 安装Swap订阅 → 监听PairCreated
func (s *Source) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.scanFactory(s.ctx); err != nil {
		return err
	}

	if s.registry.TrackedCount() == 0 {
		return ErrNoTrackedPairs
	}

	if err := s.watchPairCreated(s.ctx); err != nil {
		return err
	}

	logger.Info("🚀 链上数据源已启动",
		logger.Int("tracked_pairs", s.registry.TrackedCount()))

	return nil
}

// Stop 停止数据源
func (s *Source) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}

	s.mu.Lock()
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	s.mu.Unlock()

	s.wg.Wait()

	logger.Info("🛑 链上数据源已停止")
	return nil
}

// Subscribe 订阅Swap事件流
func (s *Source) Subscribe() <-chan *model.SwapEvent {
	return s.evChan
}

// Errors 错误通道
func (s *Source) Errors() <-chan error {
	return s.errChan
}

// String 数据源名称
func (s *Source) String() string {
	return "chain-source"
}

// scanFactory 遍历工厂已有的全部交易对并逐个检查
// 单个交易对失败只记录日志跳过，不中断整个扫描
func (s *Source) scanFactory(ctx context.Context) error {
	for _, addr := range s.staticPairs {
		s.checkAndTrack(ctx, addr)
	}

	count, err := s.client.PairCount(ctx)
	if err != nil {
		return errors.Wrap(err, "查询工厂交易对总数失败")
	}

	logger.Info("📊 开始扫描工厂交易对", logger.Uint64("total", count))

	for i := uint64(0); i < count; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		addr, err := s.client.PairAt(ctx, i)
		if err != nil {
			logger.Warn("⚠️ 查询交易对地址失败，跳过",
				logger.Uint64("index", i),
				logger.FieldErr(err))
			continue
		}

		s.checkAndTrack(ctx, addr)
	}

	logger.Info("✅ 工厂扫描完成",
		logger.Uint64("scanned", count),
		logger.Int("tracked", s.registry.TrackedCount()))

	return nil
}

// checkAndTrack 让候选地址走注册表状态机，命中后安装Swap订阅
func (s *Source) checkAndTrack(ctx context.Context, pairAddr string) {
	outcome, record, err := s.registry.Check(ctx, pairAddr)
	switch outcome {
	case registry.OutcomeTracked:
		if err := s.subscribeSwaps(ctx, record.Address); err != nil {
			logger.Error("❌ 安装Swap订阅失败",
				logger.FieldPair(record.Address),
				logger.FieldErr(err))
		}
	case registry.OutcomeError:
		logger.Warn("⚠️ 检查交易对失败，等待下次发现时重试",
			logger.FieldPair(pairAddr),
			logger.FieldErr(err))
	}
}

// subscribeSwaps 为单个交易对安装Swap事件订阅
func (s *Source) subscribeSwaps(ctx context.Context, pairAddr string) error {
	sub, err := s.client.SubscribeSwaps(ctx, pairAddr, s.evChan)
	if err != nil {
		return err
	}

	s.trackSub(sub)
	return nil
}

// watchPairCreated 订阅工厂PairCreated事件，动态接入新建交易对
func (s *Source) watchPairCreated(ctx context.Context) error {
	pairChan := make(chan *model.PairCreatedEvent, 16)

	sub, err := s.client.SubscribePairCreated(ctx, pairChan)
	if err != nil {
		return errors.Wrap(err, "订阅PairCreated失败")
	}
	s.trackSub(sub)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-pairChan:
				if !ok {
					return
				}
				logger.Info("🆕 发现新建交易对",
					logger.FieldPair(ev.Pair),
					logger.String("token0", ev.Token0),
					logger.String("token1", ev.Token1))
				s.checkAndTrack(ctx, ev.Pair)
			}
		}
	}()

	return nil
}

// trackSub 记录订阅并监视订阅错误
func (s *Source) trackSub(sub ethereum.Subscription) {
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-s.ctx.Done():
		case err, ok := <-sub.Err():
			if !ok || err == nil {
				return
			}
			select {
			case s.errChan <- err:
			case <-s.ctx.Done():
			}
		}
	}()
}
