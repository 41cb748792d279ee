package publisher

import (
	"context"
	"sync/atomic"

	"github.com/reddragonlabs/dragon-signal/internal/model"
	"github.com/reddragonlabs/dragon-signal/pkg/logger"
	"github.com/reddragonlabs/dragon-signal/pkg/utils"
)

// Publisher 告警发布器接口
type Publisher interface {
	// Publish 发布告警
	Publish(alert *model.Alert) error

	// GetType 获取发布器类型
	GetType() string

	// Close 关闭发布器
	Close() error
}

// Manager 告警发布管理器
type Manager struct {
	publishers []Publisher
	ctx        context.Context
	cancel     context.CancelFunc

	published atomic.Uint64
	failed    atomic.Uint64
}

// NewManager 创建发布管理器
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		publishers: make([]Publisher, 0),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// AddPublisher 添加发布器
func (m *Manager) AddPublisher(publisher Publisher) {
	m.publishers = append(m.publishers, publisher)
}

// PublishAlert 发布告警到所有发布器
// 单个发布器失败只记录日志计数，不影响其他发布器
func (m *Manager) PublishAlert(alert *model.Alert) {
	for _, publisher := range m.publishers {
		if err := publisher.Publish(alert); err != nil {
			m.failed.Add(1)
			logger.Error("发布告警失败",
				logger.String("publisher", publisher.GetType()),
				logger.String("alert_id", alert.ID),
				logger.FieldErr(err))
		} else {
			m.published.Add(1)
			logger.Info("✅ 告警发布成功",
				logger.String("publisher", publisher.GetType()),
				logger.String("alert_id", alert.ID),
				logger.FieldPair(alert.Pair),
				logger.String("amount_usd", alert.AmountUSDDisplay()))
		}
	}
}

// PublishedCount 成功发布次数
func (m *Manager) PublishedCount() uint64 {
	return m.published.Load()
}

// FailedCount 发布失败次数
func (m *Manager) FailedCount() uint64 {
	return m.failed.Load()
}

// Start 启动发布管理器
func (m *Manager) Start() error {
	for _, publisher := range m.publishers {
		logger.Info("✅ 已加载告警发布器", logger.String("type", publisher.GetType()))
	}

	logger.Info("📡 告警发布管理器已启动")
	return nil
}

// Stop 停止发布管理器
func (m *Manager) Stop() error {
	m.cancel()

	for _, publisher := range m.publishers {
		if err := publisher.Close(); err != nil {
			logger.Error("关闭发布器失败",
				logger.String("type", publisher.GetType()),
				logger.FieldErr(err))
		}
	}

	logger.Info("告警发布管理器已停止")
	return nil
}

// LogPublisher 日志发布器 - 将告警输出到日志
type LogPublisher struct{}

func (p *LogPublisher) GetType() string {
	return "log"
}

func (p *LogPublisher) Publish(alert *model.Alert) error {
	logger.Info("🚨 发现买入告警",
		logger.String("alert_id", alert.ID),
		logger.FieldPair(alert.Pair),
		logger.String("buyer", alert.Buyer),
		logger.String("tokens", alert.Tokens.String()),
		logger.String("amount_usd", alert.AmountUSDDisplay()),
		logger.FieldTx(alert.TxHash),
		logger.String("media", alert.Media.Kind.String()))
	logger.Debug("告警明细", logger.String("alert", utils.ConvertToJsonString(alert)))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
