package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Chain: ChainConfig{
			RPCURL:         "wss://rpc.example.com",
			FactoryAddress: "0x70e7000000000000000000000000000000000001",
			TokenAddress:   "0x9f9a000000000000000000000000000000000002",
			TokenSymbol:    "DRAGON",
		},
		Alert: AlertConfig{
			MinBuyUSD:   "1.00",
			ExplorerURL: "https://sonicscan.io",
		},
		Publisher: PublisherConfig{
			Telegram: TelegramConfig{BotToken: "123:abc", ChatID: -100123},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"完整配置", func(c *AppConfig) {}, false},
		{"缺少RPC地址", func(c *AppConfig) { c.Chain.RPCURL = "" }, true},
		{"缺少工厂地址", func(c *AppConfig) { c.Chain.FactoryAddress = "" }, true},
		{"缺少代币地址", func(c *AppConfig) { c.Chain.TokenAddress = "" }, true},
		{"阈值不是数值", func(c *AppConfig) { c.Alert.MinBuyUSD = "abc" }, true},
		{"没有任何投递目标", func(c *AppConfig) { c.Publisher = PublisherConfig{} }, true},
		{"Telegram启用但缺少令牌", func(c *AppConfig) { c.Publisher.Telegram.BotToken = "" }, true},
		{
			"只配置Webhook也合法",
			func(c *AppConfig) {
				c.Publisher = PublisherConfig{Webhook: WebhookConfig{URL: "https://hook.example.com"}}
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			m := &Manager{config: cfg}
			err := m.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_NotLoaded(t *testing.T) {
	m := NewManager()
	assert.Error(t, m.Validate())
}

func TestMinBuyUSDDecimal_Default(t *testing.T) {
	// 未配置阈值时默认$1.00
	min, err := AlertConfig{}.MinBuyUSDDecimal()
	require.NoError(t, err)
	assert.Equal(t, "1", min.String())
}
