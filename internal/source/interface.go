package source

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/reddragonlabs/dragon-signal/internal/model"
)

// SwapSource Swap事件数据源接口
type SwapSource interface {
	// Start 启动数据源
	Start(ctx context.Context) error

	// Stop 停止数据源
	Stop() error

	// Subscribe 订阅Swap事件流
	Subscribe() <-chan *model.SwapEvent

	// Errors 错误通道
	Errors() <-chan error

	// String 数据源名称
	String() string
}

// Manager 数据源管理器，把多个数据源汇聚成单一事件流
type Manager struct {
	sources []SwapSource
	evChan  chan *model.SwapEvent
	errChan chan error
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager 创建数据源管理器
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sources: make([]SwapSource, 0),
		evChan:  make(chan *model.SwapEvent, 1000),
		errChan: make(chan error, 100),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddSource 添加数据源
func (m *Manager) AddSource(source SwapSource) {
	m.sources = append(m.sources, source)
}

// Start 启动所有数据源
func (m *Manager) Start() error {
	for _, source := range m.sources {
		if err := source.Start(m.ctx); err != nil {
			return err
		}

		// 每个数据源单独起协程汇聚
		m.wg.Add(1)
		go func(source SwapSource) {
			defer m.wg.Done()
			m.listenSource(source)
		}(source)
	}

	return nil
}

// Stop 停止所有数据源，聚合各数据源的关闭错误
// 必须等所有汇聚协程退出后才能关闭通道，否则在途事件会触发
// 向已关闭通道发送的panic
func (m *Manager) Stop() error {
	m.cancel()

	var result *multierror.Error
	for _, source := range m.sources {
		if err := source.Stop(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	m.wg.Wait()

	close(m.evChan)
	close(m.errChan)

	return result.ErrorOrNil()
}

// Swaps 获取汇聚后的Swap事件流
func (m *Manager) Swaps() <-chan *model.SwapEvent {
	return m.evChan
}

// Errors 获取汇聚后的错误流
func (m *Manager) Errors() <-chan error {
	return m.errChan
}

// listenSource 监听单个数据源
func (m *Manager) listenSource(source SwapSource) {
	evChan := source.Subscribe()
	errChan := source.Errors()

	for {
		select {
		case <-m.ctx.Done():
			return
		case ev, ok := <-evChan:
			if !ok {
				return
			}
			select {
			case m.evChan <- ev:
			case <-m.ctx.Done():
				return
			}
		case err, ok := <-errChan:
			if !ok {
				return
			}
			select {
			case m.errChan <- err:
			case <-m.ctx.Done():
				return
			}
		}
	}
}
