package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"comms-middleware/internal/config"
	"comms-middleware/internal/infra/mq"
)

type KafkaProducer struct {
	writer   *kafka.Writer
	logger   *zap.Logger
	topic    string
	encoding string
}

// Ensure KafkaProducer implements mq.Producer
var _ mq.Producer = (*KafkaProducer)(nil)

func NewKafkaProducer(cfg config.KafkaConfig, encoding string, logger *zap.Logger) (*KafkaProducer, error) {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{}, // partition by vehicle id
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  true, // Async writing for better performance
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Async Kafka write failed", zap.Error(err), zap.Int("messages", len(messages)))
			}
		},
	}

	logger.Info("Initialized Kafka producer",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.String("encoding", encoding))

	return &KafkaProducer{
		writer:   w,
		logger:   logger,
		topic:    cfg.Topic,
		encoding: encoding,
	}, nil
}

const headerContentType = "content-type"

// buildMessage 编码消息体; topic 为空时使用 kafka.topic
func (p *KafkaProducer) buildMessage(topic, key string, data interface{}) (kafka.Message, error) {
	body, contentType, err := mq.Marshal(p.encoding, data)
	if err != nil {
		return kafka.Message{}, err
	}

	targetTopic := p.topic
	if topic != "" {
		targetTopic = topic
	}

	return kafka.Message{
		Topic:   targetTopic,
		Key:     []byte(key),
		Value:   body,
		Headers: []kafka.Header{{Key: headerContentType, Value: []byte(contentType)}},
	}, nil
}

func (p *KafkaProducer) Produce(ctx context.Context, topic string, key string, data interface{}) error {
	msg, err := p.buildMessage(topic, key, data)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to produce message to Kafka", zap.Error(err), zap.String("topic", msg.Topic))
		return err
	}

	p.logger.Debug("Produced message to Kafka", zap.String("topic", msg.Topic), zap.String("key", key))
	return nil
}

func (p *KafkaProducer) Close() {
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
