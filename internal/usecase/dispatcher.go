package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Keyed 由需要指定消息 key 的载荷实现 (Kafka 分区 / RabbitMQ routing key)
type Keyed interface {
	MessageKey() string
}

type DataDispatcher struct {
	dataChan    chan interface{}
	producer    DataProducer
	topic       string
	logger      *zap.Logger
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

var _ Dispatcher = (*DataDispatcher)(nil)

// NewDataDispatcher 创建一个新的数据分发器
func NewDataDispatcher(producer DataProducer, topic string, workerCount, bufferSize int, logger *zap.Logger) *DataDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &DataDispatcher{
		dataChan:    make(chan interface{}, bufferSize), // 带缓冲 Channel，防止阻塞
		producer:    producer,
		topic:       topic,
		workerCount: workerCount,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start 启动 worker 协程池
func (d *DataDispatcher) Start() {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("DataDispatcher started", zap.Int("workers", d.workerCount), zap.String("topic", d.topic))
}

// Stop 停止分发器并等待所有 worker 退出
func (d *DataDispatcher) Stop() {
	d.cancel() // 通知 worker 退出
	d.wg.Wait()
	d.logger.Info("DataDispatcher stopped", zap.Int("pending", len(d.dataChan)))
}

// Dispatch 将数据投递到缓冲通道 (非阻塞，如果满则丢弃并记录)
func (d *DataDispatcher) Dispatch(data interface{}) {
	select {
	case d.dataChan <- data:
		// 成功投递
	default:
		d.logger.Warn("DataDispatcher channel full, dropping data")
	}
}

func (d *DataDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case data := <-d.dataChan:
			d.process(data)
		}
	}
}

func (d *DataDispatcher) process(data interface{}) {
	var key string
	if k, ok := data.(Keyed); ok {
		key = k.MessageKey()
	}
	if err := d.producer.Produce(d.ctx, d.topic, key, data); err != nil {
		d.logger.Error("DataDispatcher failed to send data", zap.Error(err), zap.String("key", key))
	}
}
