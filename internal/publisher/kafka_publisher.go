package publisher

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/reddragonlabs/dragon-signal/internal/model"
	"github.com/reddragonlabs/dragon-signal/pkg/mq/kafka"
)

// KafkaPublisher Kafka发布器，把告警JSON转发到下游消费方
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaPublisher 创建Kafka发布器
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(brokers, kafka.ProducerConfig{
		ClientID: "dragon-signal",
	})
	if err != nil {
		return nil, errors.Wrap(err, "创建Kafka生产者失败")
	}

	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
	}, nil
}

func (p *KafkaPublisher) GetType() string {
	return "kafka"
}

func (p *KafkaPublisher) Publish(alert *model.Alert) error {
	value, err := json.Marshal(alert)
	if err != nil {
		return errors.Wrap(err, "序列化告警失败")
	}

	// 以交易对地址为key，同一交易对的告警保序
	return p.producer.Send(p.topic, alert.Pair, value)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
