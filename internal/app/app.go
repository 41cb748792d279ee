package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reddragonlabs/dragon-signal/internal/chain"
	"github.com/reddragonlabs/dragon-signal/internal/config"
	"github.com/reddragonlabs/dragon-signal/internal/detector"
	"github.com/reddragonlabs/dragon-signal/internal/media"
	"github.com/reddragonlabs/dragon-signal/internal/pipeline"
	"github.com/reddragonlabs/dragon-signal/internal/pricer"
	"github.com/reddragonlabs/dragon-signal/internal/publisher"
	"github.com/reddragonlabs/dragon-signal/internal/registry"
	"github.com/reddragonlabs/dragon-signal/internal/source"
	"github.com/reddragonlabs/dragon-signal/internal/source/chainsrc"
	"github.com/reddragonlabs/dragon-signal/pkg/logger"
)

// Application 买入告警监听应用
type Application struct {
	configManager *config.Manager
	chainClient   *chain.Client
	registry      *registry.Registry
	pipeline      *pipeline.Pipeline
}

// New 创建新的买入告警应用实例
func New() *Application {
	return &Application{
		configManager: config.NewManager(),
	}
}

// Initialize 初始化应用
func (app *Application) Initialize(configPath string) error {
	// 1. 加载配置
	if err := app.configManager.Load(configPath); err != nil {
		return err
	}

	// 2. 初始化日志系统
	if err := app.configManager.InitLogger(); err != nil {
		return err
	}
	logger.Info("🚀 买入告警监听服务初始化开始", logger.String("config_path", configPath))

	// 3. 校验配置
	if err := app.configManager.Validate(); err != nil {
		return err
	}

	// 4. 连接链上RPC
	if err := app.connectChain(); err != nil {
		return err
	}

	// 5. 组装处理管道
	if err := app.setupPipeline(); err != nil {
		return err
	}

	logger.Info("✅ 买入告警监听服务初始化完成")
	return nil
}

// connectChain 建立RPC连接并探测连通性
func (app *Application) connectChain() error {
	cfg := app.configManager.GetAppConfig().Chain

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := chain.Dial(ctx, cfg.RPCURL, cfg.FactoryAddress)
	if err != nil {
		return err
	}

	app.chainClient = client
	return nil
}

// setupPipeline 组装数据源、注册表、分类器、发布器与管道
func (app *Application) setupPipeline() error {
	cfg := app.configManager.GetAppConfig()

	app.registry = registry.New(cfg.Chain.TokenAddress, app.chainClient)

	sourceManager := source.NewManager()
	sourceManager.AddSource(chainsrc.NewSource(app.chainClient, app.registry, cfg.Chain.StaticPairs))

	formatter := publisher.NewFormatter(cfg.Chain.TokenSymbol, cfg.Alert.ExplorerURL, publisher.LinkSet{
		DocsURL:     cfg.Alert.DocsURL,
		ChartURL:    cfg.Alert.ChartURL,
		TrendingURL: cfg.Alert.TrendingURL,
	})

	publisherManager := publisher.NewManager()
	publisherManager.AddPublisher(&publisher.LogPublisher{})

	if cfg.Publisher.TelegramEnabled() {
		tg, err := publisher.NewTelegramPublisher(cfg.Publisher.Telegram.BotToken, cfg.Publisher.Telegram.ChatID, formatter)
		if err != nil {
			return err
		}
		publisherManager.AddPublisher(tg)
	}

	if cfg.Publisher.WebhookEnabled() {
		publisherManager.AddPublisher(publisher.NewWebhookPublisher(cfg.Publisher.Webhook.URL, formatter))
	}

	if cfg.Publisher.KafkaEnabled() {
		kp, err := publisher.NewKafkaPublisher(cfg.Publisher.Kafka.Brokers, cfg.Publisher.Kafka.Topic)
		if err != nil {
			return err
		}
		publisherManager.AddPublisher(kp)
	}

	minUSD, err := cfg.Alert.MinBuyUSDDecimal()
	if err != nil {
		return err
	}

	app.pipeline = pipeline.NewPipeline(
		sourceManager,
		app.registry,
		detector.NewBuyClassifier(cfg.Chain.TokenAddress),
		pricer.NewClient(cfg.Alert.PriceAPIURL, cfg.Alert.PriceChain),
		pipeline.NewFilter(minUSD),
		media.NewSelector(cfg.Media.VideoDir, cfg.Media.ImageDir),
		publisherManager,
	)

	return nil
}

// Run 运行应用
func (app *Application) Run() error {
	logger.Info("🎯 启动买入告警处理管道")

	if err := app.pipeline.Start(); err != nil {
		return err
	}

	cfg := app.configManager.GetAppConfig()
	logger.Info("🔥 买入告警监听服务已启动，开始监控DEX交易...",
		logger.String("token", cfg.Chain.TokenSymbol),
		logger.Int("tracked_pairs", app.registry.TrackedCount()),
		logger.String("min_buy_usd", cfg.Alert.MinBuyUSD))

	app.waitForShutdown()
	return nil
}

// waitForShutdown 等待关闭信号
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info("📤 收到终止信号，开始优雅关闭应用...", logger.String("signal", sig.String()))

	app.Shutdown()
}

// Shutdown 优雅关闭应用
func (app *Application) Shutdown() {
	logger.Info("🛑 开始关闭买入告警监听服务...")

	if err := app.pipeline.Stop(); err != nil {
		logger.Error("停止数据处理管道失败", logger.FieldErr(err))
	}

	app.chainClient.Close()

	stats := app.pipeline.GetStats()
	logger.Info("📈 服务运行统计",
		logger.Uint64("swaps_seen", stats.SwapsSeen),
		logger.Uint64("buys_detected", stats.BuysDetected),
		logger.Uint64("alerts_published", stats.AlertsPublished),
		logger.Uint64("errors_count", stats.ErrorsCount),
		logger.Int("tracked_pairs", app.registry.TrackedCount()))

	logger.Info("✨ 买入告警监听服务已成功关闭")
	logger.Close()
}

// Start 启动应用的便捷方法
func (app *Application) Start(configPath string) error {
	if err := app.Initialize(configPath); err != nil {
		logger.Error("❌ 买入告警服务初始化失败", logger.FieldErr(err))
		return err
	}

	if err := app.Run(); err != nil {
		logger.Error("❌ 买入告警服务运行失败", logger.FieldErr(err))
		return err
	}

	return nil
}

// GetPipeline 获取数据处理管道（用于调试和监控）
func (app *Application) GetPipeline() *pipeline.Pipeline {
	return app.pipeline
}

// GetConfigManager 获取配置管理器
func (app *Application) GetConfigManager() *config.Manager {
	return app.configManager
}
