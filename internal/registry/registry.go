package registry

import (
	"context"
	"sync"

	"github.com/reddragonlabs/dragon-signal/internal/model"
	"github.com/reddragonlabs/dragon-signal/pkg/logger"
)

// TokenPairReader 查询交易对两侧代币地址的能力
type TokenPairReader interface {
	TokenPair(ctx context.Context, pairAddr string) (string, string, error)
}

// Outcome 候选地址经过状态机后的结果
type Outcome int

const (
	// OutcomeTracked 本次调用完成了Tracked转移，调用方应安装Swap订阅
	OutcomeTracked Outcome = iota
	// OutcomeIgnored 不涉及追踪代币，终态，不再重试
	OutcomeIgnored
	// OutcomeDuplicate 该地址已被其他发现路径认领，无需任何动作
	OutcomeDuplicate
	// OutcomeError 查询代币失败，本次放弃，后续再次发现时可重试
	OutcomeError
)

type status int

const (
	statusChecking status = iota
	statusTracked
	statusIgnored
)

type entry struct {
	status status
	record *model.PairRecord
}

// Registry 已知交易对集合，候选地址状态机:
// Unknown → Checked → {Tracked | Ignored}
// 键为小写地址；认领(check-and-claim)在锁内完成，静态扫描与
// PairCreated事件并发发现同一地址时只会发生一次Tracked转移
type Registry struct {
	token  string // 追踪代币地址，小写
	reader TokenPairReader

	mu    sync.RWMutex
	pairs map[string]*entry
}

// New 创建注册表
func New(tokenAddr string, reader TokenPairReader) *Registry {
	return &Registry{
		token:  model.NormalizeAddress(tokenAddr),
		reader: reader,
		pairs:  make(map[string]*entry),
	}
}

// Token 追踪代币地址（小写）
func (r *Registry) Token() string {
	return r.token
}

// Check 让一个候选地址走完状态机
// RPC查询在锁外进行；查询期间并发到达的同名候选返回OutcomeDuplicate
func (r *Registry) Check(ctx context.Context, pairAddr string) (Outcome, *model.PairRecord, error) {
	addr := model.NormalizeAddress(pairAddr)

	// check-and-claim：首次见到的地址进入Checked
	r.mu.Lock()
	if _, exists := r.pairs[addr]; exists {
		r.mu.Unlock()
		return OutcomeDuplicate, nil, nil
	}
	r.pairs[addr] = &entry{status: statusChecking}
	r.mu.Unlock()

	token0, token1, err := r.reader.TokenPair(ctx, addr)
	if err != nil {
		// 查询失败释放认领，等待下一次发现路径重试
		r.mu.Lock()
		delete(r.pairs, addr)
		r.mu.Unlock()
		return OutcomeError, nil, err
	}

	// 不信任查询实现的大小写，比较前强制规范化
	token0 = model.NormalizeAddress(token0)
	token1 = model.NormalizeAddress(token1)

	if token0 != r.token && token1 != r.token {
		r.mu.Lock()
		r.pairs[addr].status = statusIgnored
		r.mu.Unlock()
		return OutcomeIgnored, nil, nil
	}

	record := &model.PairRecord{
		Address: addr,
		Token0:  token0,
		Token1:  token1,
	}

	r.mu.Lock()
	r.pairs[addr].status = statusTracked
	r.pairs[addr].record = record
	r.mu.Unlock()

	logger.Info("🎯 开始追踪交易对",
		logger.FieldPair(addr),
		logger.String("token0", token0),
		logger.String("token1", token1))

	return OutcomeTracked, record, nil
}

// Get 查询已追踪交易对的记录
func (r *Registry) Get(pairAddr string) (*model.PairRecord, bool) {
	addr := model.NormalizeAddress(pairAddr)

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.pairs[addr]
	if !ok || e.status != statusTracked {
		return nil, false
	}
	return e.record, true
}

// TrackedCount 当前已追踪交易对数量
func (r *Registry) TrackedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.pairs {
		if e.status == statusTracked {
			count++
		}
	}
	return count
}

// Tracked 所有已追踪交易对记录
func (r *Registry) Tracked() []*model.PairRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*model.PairRecord, 0)
	for _, e := range r.pairs {
		if e.status == statusTracked {
			records = append(records, e.record)
		}
	}
	return records
}
