package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reddragonlabs/dragon-signal/internal/model"
)

// stubSource 测试用数据源，事件由测试代码预先灌入
type stubSource struct {
	evChan  chan *model.SwapEvent
	errChan chan error
}

func newStubSource(buffer int) *stubSource {
	return &stubSource{
		evChan:  make(chan *model.SwapEvent, buffer),
		errChan: make(chan error, buffer),
	}
}

func (s *stubSource) Start(ctx context.Context) error    { return nil }
func (s *stubSource) Stop() error                        { return nil }
func (s *stubSource) Subscribe() <-chan *model.SwapEvent { return s.evChan }
func (s *stubSource) Errors() <-chan error               { return s.errChan }
func (s *stubSource) String() string                     { return "stub" }

func TestManager_FanIn(t *testing.T) {
	stub := newStubSource(16)

	m := NewManager()
	m.AddSource(stub)
	require.NoError(t, m.Start())

	ev := &model.SwapEvent{Pair: "0xaaaa000000000000000000000000000000000001"}
	stub.evChan <- ev

	got := <-m.Swaps()
	assert.Equal(t, ev, got)

	require.NoError(t, m.Stop())
}

// 关闭时仍有大量在途事件：汇聚协程可能正阻塞在内部发送上，
// Stop必须等它们退出后再关闭通道，任何迭代都不允许panic
func TestManager_StopWithBacklog(t *testing.T) {
	for i := 0; i < 30; i++ {
		stub := newStubSource(2000)

		// 灌入超过管理器缓冲容量的事件，确保汇聚协程阻塞在发送上
		for j := 0; j < 1500; j++ {
			stub.evChan <- &model.SwapEvent{Pair: "0xaaaa000000000000000000000000000000000001"}
		}

		m := NewManager()
		m.AddSource(stub)
		require.NoError(t, m.Start())

		require.NotPanics(t, func() {
			require.NoError(t, m.Stop())
		})
	}
}
