package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"comms-middleware/internal/config"
	"comms-middleware/internal/infra/kafka"
	"comms-middleware/internal/infra/mq"
	"comms-middleware/internal/infra/rabbitmq"
	"comms-middleware/internal/logging"
	"comms-middleware/internal/server"
	"comms-middleware/internal/usecase"
	"comms-middleware/internal/usecase/telemetry"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// 1. 配置加载
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.Log)
	defer logger.Sync()

	kind, err := cfg.Vehicle.Kind()
	if err != nil {
		logger.Fatal("Invalid vehicle type", zap.Error(err))
	}

	// 2. 基础设施层 (消息队列)
	producer := newProducer(cfg.MessageQueue, logger)
	defer producer.Close()

	// 3. 业务逻辑层 (分发器 & 处理器 & 连接管理)
	mqCfg := cfg.MessageQueue
	dispatcher := usecase.NewDataDispatcher(producer, mqCfg.Topic, mqCfg.Workers, mqCfg.Buffer, logger)
	dispatcher.Start()
	defer dispatcher.Stop()

	registry := telemetry.NewConnRegistry(logger)
	h := telemetry.NewHandler(kind, cfg.Vehicle.ID, registry, dispatcher, logger)

	// 4. 服务层
	srv := server.NewTCPServer(cfg, logger, h)

	// 5. 启动服务
	go func() {
		if err := srv.Start(context.Background()); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stopIdle := make(chan struct{})
	if cfg.Server.IdleTimeout > 0 {
		go watchIdle(registry, cfg.Server.IdleTimeout, stopIdle)
	}

	// 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	close(stopIdle)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Warn("Server stop failed", zap.Error(err))
	}
}

// newProducer 按配置选择消息队列实现, 未启用时返回只写日志的 LogProducer
func newProducer(cfg config.MessageQueueConfig, logger *zap.Logger) mq.Producer {
	if !cfg.Enabled {
		logger.Info("Message queue disabled, frames are written to the log")
		return mq.NewLogProducer(logger)
	}

	switch cfg.Type {
	case config.QueueKafka:
		p, err := kafka.NewKafkaProducer(cfg.Kafka, cfg.Encoding, logger)
		if err != nil {
			logger.Error("Failed to initialize Kafka producer", zap.Error(err))
			return mq.NewLogProducer(logger)
		}
		return p
	default:
		// With lazy connection, this error should be rare (only if config is invalid maybe)
		p, err := rabbitmq.NewRabbitMQProducer(cfg.RabbitMQ, cfg.Encoding, logger)
		if err != nil {
			logger.Error("Failed to initialize RabbitMQ producer structure", zap.Error(err))
			return mq.NewLogProducer(logger)
		}
		return p
	}
}

func watchIdle(registry *telemetry.ConnRegistry, timeout time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(timeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			registry.CheckIdle(timeout)
		}
	}
}
