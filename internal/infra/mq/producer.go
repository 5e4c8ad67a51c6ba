package mq

import (
	"context"

	"go.uber.org/zap"
)

// Producer 由各消息队列实现, Produce 需可被多个 worker 并发调用
type Producer interface {
	Produce(ctx context.Context, topic string, key string, data interface{}) error
	Close()
}

// LogProducer 在未启用消息队列时使用, 只把每条消息写入日志
type LogProducer struct {
	logger *zap.Logger
}

func NewLogProducer(logger *zap.Logger) *LogProducer {
	return &LogProducer{logger: logger}
}

func (p *LogProducer) Produce(ctx context.Context, topic string, key string, data interface{}) error {
	p.logger.Info("Message queue disabled, logging message",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.Any("data", data))
	return nil
}

func (p *LogProducer) Close() {}
