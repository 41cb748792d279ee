package publisher

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/reddragonlabs/dragon-signal/internal/model"
	"github.com/reddragonlabs/dragon-signal/pkg/logger"
)

// deliveryResult 单个投递层级的结果
// Unavailable表示该层级缺少素材无法尝试，才允许降级到下一层级；
// Failed表示已尝试但投递失败，不降级、不重试
type deliveryResult int

const (
	resultSent deliveryResult = iota
	resultUnavailable
	resultFailed
)

// botSender Telegram发送能力，便于测试替换
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramPublisher Telegram发布器
// 按 视频 → 图片 → 纯文本 的层级投递，层级由素材可用性驱动
type TelegramPublisher struct {
	bot       botSender
	chatID    int64
	formatter *Formatter
}

// NewTelegramPublisher 创建Telegram发布器
func NewTelegramPublisher(botToken string, chatID int64, formatter *Formatter) (*TelegramPublisher, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, errors.Wrap(err, "初始化Telegram Bot失败")
	}

	logger.Info("🤖 Telegram Bot已连接", logger.String("username", bot.Self.UserName))

	return &TelegramPublisher{
		bot:       bot,
		chatID:    chatID,
		formatter: formatter,
	}, nil
}

// newTelegramPublisherWithSender 测试用构造器
func newTelegramPublisherWithSender(bot botSender, chatID int64, formatter *Formatter) *TelegramPublisher {
	return &TelegramPublisher{bot: bot, chatID: chatID, formatter: formatter}
}

func (p *TelegramPublisher) GetType() string {
	return "telegram"
}

func (p *TelegramPublisher) Close() error {
	return nil
}

// Publish 按层级投递告警
// 素材缺失才降级；投递失败直接返回错误，绝不晋升到下一层级
func (p *TelegramPublisher) Publish(alert *model.Alert) error {
	caption := p.formatter.Caption(alert)

	tiers := []struct {
		name string
		send func(*model.Alert, string) (deliveryResult, error)
	}{
		{"video", p.sendVideo},
		{"photo", p.sendPhoto},
		{"text", p.sendText},
	}

	for _, tier := range tiers {
		result, err := tier.send(alert, caption)
		switch result {
		case resultSent:
			logger.Info("📨 Telegram告警已投递",
				logger.String("tier", tier.name),
				logger.String("alert_id", alert.ID))
			return nil
		case resultFailed:
			return errors.Wrapf(err, "Telegram %s 投递失败", tier.name)
		case resultUnavailable:
			// 素材不可用，尝试下一层级
		}
	}

	return errors.New("所有Telegram投递层级均不可用")
}

// sendVideo 视频消息层级
func (p *TelegramPublisher) sendVideo(alert *model.Alert, caption string) (deliveryResult, error) {
	if alert.Media.Kind != model.MediaVideo {
		return resultUnavailable, nil
	}

	msg := tgbotapi.NewVideo(p.chatID, tgbotapi.FilePath(alert.Media.Path))
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML
	p.attachKeyboard(&msg.BaseChat)

	if _, err := p.bot.Send(msg); err != nil {
		return resultFailed, err
	}
	return resultSent, nil
}

// sendPhoto 图片消息层级
func (p *TelegramPublisher) sendPhoto(alert *model.Alert, caption string) (deliveryResult, error) {
	if alert.Media.Kind != model.MediaImage {
		return resultUnavailable, nil
	}

	msg := tgbotapi.NewPhoto(p.chatID, tgbotapi.FilePath(alert.Media.Path))
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML
	p.attachKeyboard(&msg.BaseChat)

	if _, err := p.bot.Send(msg); err != nil {
		return resultFailed, err
	}
	return resultSent, nil
}

// sendText 纯文本兜底层级，总是可尝试
func (p *TelegramPublisher) sendText(alert *model.Alert, caption string) (deliveryResult, error) {
	msg := tgbotapi.NewMessage(p.chatID, caption)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	p.attachKeyboard(&msg.BaseChat)

	if _, err := p.bot.Send(msg); err != nil {
		return resultFailed, err
	}
	return resultSent, nil
}

// attachKeyboard 给每条消息附加固定的导航按钮行
func (p *TelegramPublisher) attachKeyboard(chat *tgbotapi.BaseChat) {
	links := p.formatter.Links()

	row := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	if links.DocsURL != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL("📖 文档", links.DocsURL))
	}
	if links.ChartURL != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL("📊 行情", links.ChartURL))
	}
	if links.TrendingURL != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL("🔥 热榜", links.TrendingURL))
	}

	if len(row) > 0 {
		chat.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	}
}
