package kafka

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"

	"github.com/reddragonlabs/dragon-signal/pkg/logger"
)

// ProducerConfig Kafka生产者配置
type ProducerConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	RequiredAcks int    `yaml:"required_acks" json:"required_acks"`
	Retries      int    `yaml:"retries" json:"retries"`
	// 发送超时（毫秒）
	TimeoutMs int `yaml:"timeout_ms" json:"timeout_ms"`
}

// Producer 同步Kafka生产者封装
type Producer struct {
	sp sarama.SyncProducer
}

func newSaramaConfig(cfg ProducerConfig) *sarama.Config {
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	conf.Producer.RequiredAcks = sarama.WaitForLocal
	conf.Producer.Retry.Max = 3
	conf.Producer.Retry.Backoff = 1 * time.Second
	conf.Producer.Compression = sarama.CompressionSnappy

	if cfg.ClientID != "" {
		conf.ClientID = cfg.ClientID
	}
	if cfg.RequiredAcks != 0 {
		conf.Producer.RequiredAcks = sarama.RequiredAcks(cfg.RequiredAcks)
	}
	if cfg.Retries != 0 {
		conf.Producer.Retry.Max = cfg.Retries
	}
	if cfg.TimeoutMs != 0 {
		conf.Producer.Timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}

	return conf
}

// NewProducer 创建同步生产者
func NewProducer(brokers []string, cfg ProducerConfig) (*Producer, error) {
	sp, err := sarama.NewSyncProducer(brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "创建Kafka生产者失败")
	}

	logger.Info("✅ Kafka生产者已就绪", logger.Any("brokers", brokers))
	return &Producer{sp: sp}, nil
}

// Send 发送一条消息
func (p *Producer) Send(topic string, key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	partition, offset, err := p.sp.SendMessage(msg)
	if err != nil {
		return errors.Wrapf(err, "发送Kafka消息失败: topic=%s", topic)
	}

	logger.Debug("📨 Kafka消息已发送",
		logger.String("topic", topic),
		logger.Int32("partition", partition),
		logger.Int64("offset", offset))
	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	return p.sp.Close()
}
