package config

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/reddragonlabs/dragon-signal/pkg/config"
	"github.com/reddragonlabs/dragon-signal/pkg/config/source"
	"github.com/reddragonlabs/dragon-signal/pkg/config/source/file"
	"github.com/reddragonlabs/dragon-signal/pkg/logger"
	"github.com/reddragonlabs/dragon-signal/pkg/utils"
)

// AppConfig 应用配置结构
type AppConfig struct {
	Logger    LoggerConfig    `yaml:"logger" json:"logger"`
	Chain     ChainConfig     `yaml:"chain" json:"chain"`
	Alert     AlertConfig     `yaml:"alert" json:"alert"`
	Media     MediaConfig     `yaml:"media" json:"media"`
	Publisher PublisherConfig `yaml:"publisher" json:"publisher"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Output     string `yaml:"output" json:"output"`
	Debug      bool   `yaml:"debug" json:"debug"`
	Level      string `yaml:"level" json:"level"`
	AddCaller  bool   `yaml:"add_caller" json:"add_caller"`
	CallerSkip int    `yaml:"caller_skip" json:"caller_skip"`
}

// ChainConfig 链接入配置
type ChainConfig struct {
	RPCURL         string   `yaml:"rpc_url" json:"rpc_url"`
	FactoryAddress string   `yaml:"factory_address" json:"factory_address"`
	TokenAddress   string   `yaml:"token_address" json:"token_address"`
	TokenSymbol    string   `yaml:"token_symbol" json:"token_symbol"`
	StaticPairs    []string `yaml:"static_pairs" json:"static_pairs"`
}

// AlertConfig 告警配置
type AlertConfig struct {
	MinBuyUSD   string `yaml:"min_buy_usd" json:"min_buy_usd"`
	ExplorerURL string `yaml:"explorer_url" json:"explorer_url"`
	PriceAPIURL string `yaml:"price_api_url" json:"price_api_url"`
	PriceChain  string `yaml:"price_chain" json:"price_chain"`
	DocsURL     string `yaml:"docs_url" json:"docs_url"`
	ChartURL    string `yaml:"chart_url" json:"chart_url"`
	TrendingURL string `yaml:"trending_url" json:"trending_url"`
}

// MediaConfig 媒体素材配置
type MediaConfig struct {
	VideoDir string `yaml:"video_dir" json:"video_dir"`
	ImageDir string `yaml:"image_dir" json:"image_dir"`
}

// PublisherConfig 发布器配置
type PublisherConfig struct {
	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook" json:"webhook"`
	Kafka    KafkaConfig    `yaml:"kafka" json:"kafka"`
}

// TelegramConfig Telegram发布器配置
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" json:"bot_token"`
	ChatID   int64  `yaml:"chat_id" json:"chat_id"`
}

// WebhookConfig Webhook发布器配置
type WebhookConfig struct {
	URL string `yaml:"url" json:"url"`
}

// KafkaConfig Kafka发布器配置
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" json:"brokers"`
	Topic   string   `yaml:"topic" json:"topic"`
}

// MinBuyUSDDecimal 解析最小买入USD阈值，缺省$1.00
func (a AlertConfig) MinBuyUSDDecimal() (decimal.Decimal, error) {
	if a.MinBuyUSD == "" {
		return decimal.NewFromInt(1), nil
	}
	return decimal.NewFromString(a.MinBuyUSD)
}

// TelegramEnabled 是否启用Telegram投递
func (p PublisherConfig) TelegramEnabled() bool {
	return p.Telegram.ChatID != 0
}

// WebhookEnabled 是否启用Webhook投递
func (p PublisherConfig) WebhookEnabled() bool {
	return p.Webhook.URL != ""
}

// KafkaEnabled 是否启用Kafka转发
func (p PublisherConfig) KafkaEnabled() bool {
	return len(p.Kafka.Brokers) > 0 && p.Kafka.Topic != ""
}

// Manager 配置管理器
type Manager struct {
	config *AppConfig
}

// NewManager 创建配置管理器
func NewManager() *Manager {
	return &Manager{}
}

// Load 加载配置文件
func (m *Manager) Load(configPath string) error {
	err := config.Load(file.NewSource(
		file.WithPath(configPath),
		source.WithFormat("yaml"),
	))
	if err != nil {
		return err
	}

	var appConfig AppConfig
	err = config.Scan(&appConfig)
	if err != nil {
		return err
	}

	m.config = &appConfig
	return nil
}

// GetAppConfig 获取应用配置
func (m *Manager) GetAppConfig() *AppConfig {
	return m.config
}

// Validate 校验必填项，任何一项缺失都是致命启动错误
func (m *Manager) Validate() error {
	c := m.config
	if c == nil {
		return errors.New("配置未加载")
	}

	if c.Chain.RPCURL == "" {
		return errors.New("chain.rpc_url 未配置")
	}
	if c.Chain.FactoryAddress == "" {
		return errors.New("chain.factory_address 未配置")
	}
	if c.Chain.TokenAddress == "" {
		return errors.New("chain.token_address 未配置")
	}

	if _, err := c.Alert.MinBuyUSDDecimal(); err != nil {
		return errors.Wrap(err, "alert.min_buy_usd 不是合法数值")
	}

	if !c.Publisher.TelegramEnabled() && !c.Publisher.WebhookEnabled() {
		return errors.New("至少需要配置一个投递目标 (telegram 或 webhook)")
	}
	if c.Publisher.TelegramEnabled() && c.Publisher.BotToken() == "" {
		return errors.New("publisher.telegram.bot_token 未配置")
	}

	return nil
}

// BotToken Telegram Bot令牌
func (p PublisherConfig) BotToken() string {
	return p.Telegram.BotToken
}

// InitLogger 初始化日志系统
// 本地环境强制彩色调试输出并关闭Sentry上报
func (m *Manager) InitLogger() error {
	loggerConfig := logger.FromConfig("logger")
	if utils.IsLocalEnv() {
		loggerConfig.Debug = true
		loggerConfig.DisableSentry = true
	}
	loggerInstance := loggerConfig.Build()
	logger.SetDefault(loggerInstance)
	return nil
}
