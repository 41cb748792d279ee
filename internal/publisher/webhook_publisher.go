package publisher

import (
	"github.com/reddragonlabs/dragon-signal/internal/model"
	"github.com/reddragonlabs/dragon-signal/internal/notifier"
)

// WebhookPayload Webhook投递的告警载荷
type WebhookPayload struct {
	Tokens      string `json:"tokens"`
	AmountUSD   string `json:"amountUsd"`
	Buyer       string `json:"buyer"`
	BuyerURL    string `json:"buyerUrl"`
	TxURL       string `json:"txUrl"`
	MediaPath   string `json:"mediaPath"`
	MessageText string `json:"messageText"`
}

// WebhookPublisher Webhook发布器，把告警POST到下游中继
type WebhookPublisher struct {
	webhookURL string
	formatter  *Formatter
}

// NewWebhookPublisher 创建Webhook发布器
func NewWebhookPublisher(webhookURL string, formatter *Formatter) *WebhookPublisher {
	return &WebhookPublisher{
		webhookURL: webhookURL,
		formatter:  formatter,
	}
}

func (p *WebhookPublisher) GetType() string {
	return "webhook"
}

func (p *WebhookPublisher) Publish(alert *model.Alert) error {
	payload := p.buildPayload(alert)
	return notifier.SendToWebhook(payload, p.webhookURL)
}

func (p *WebhookPublisher) Close() error {
	return nil
}

// buildPayload 组装Webhook载荷
func (p *WebhookPublisher) buildPayload(alert *model.Alert) *WebhookPayload {
	return &WebhookPayload{
		Tokens:      alert.Tokens.String(),
		AmountUSD:   alert.AmountUSDDisplay(),
		Buyer:       alert.Buyer,
		BuyerURL:    p.formatter.BuyerURL(alert.Buyer),
		TxURL:       p.formatter.TxURL(alert.TxHash),
		MediaPath:   alert.Media.Path,
		MessageText: p.formatter.MessageText(alert),
	}
}
