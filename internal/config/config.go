package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"comms-middleware/internal/protocol/carframe"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Vehicle      VehicleConfig      `mapstructure:"vehicle"`
	MessageQueue MessageQueueConfig `mapstructure:"message_queue"`
}

type MessageQueueConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Type     string         `mapstructure:"type"`
	Encoding string         `mapstructure:"encoding"` // json | cbor
	Topic    string         `mapstructure:"topic"`
	Workers  int            `mapstructure:"workers"`
	Buffer   int            `mapstructure:"buffer"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

type RabbitMQConfig struct {
	URL         string `mapstructure:"url"`
	VirtualHost string `mapstructure:"virtual_host"`
	Exchange    string `mapstructure:"exchange"`
	RoutingKey  string `mapstructure:"routing_key"`
	QueueName   string `mapstructure:"queue_name"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type ServerConfig struct {
	Port        int           `mapstructure:"port"`
	Host        string        `mapstructure:"host"`
	Multicore   bool          `mapstructure:"multicore"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// VehicleConfig 描述接入总线的车辆, 帧类型由此决定
type VehicleConfig struct {
	ID   string `mapstructure:"id"`
	Type string `mapstructure:"type"` // fuel | electric
}

// Kind 返回配置对应的帧类型
func (v VehicleConfig) Kind() (carframe.Kind, error) {
	return carframe.ParseKind(v.Type)
}

const (
	QueueRabbitMQ = "rabbitmq"
	QueueKafka    = "kafka"

	EncodingJSON = "json"
	EncodingCBOR = "cbor"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 9000)
	v.SetDefault("server.multicore", true)
	v.SetDefault("server.idle_timeout", "2m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)

	v.SetDefault("vehicle.type", "fuel")

	v.SetDefault("message_queue.type", QueueRabbitMQ)
	v.SetDefault("message_queue.encoding", EncodingJSON)
	v.SetDefault("message_queue.topic", "vehicle_data")
	v.SetDefault("message_queue.workers", 4)
	v.SetDefault("message_queue.buffer", 10000)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 检查配置的合法性, 不修改配置
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if _, err := cfg.Vehicle.Kind(); err != nil {
		return fmt.Errorf("vehicle.type: %w", err)
	}

	if cfg.Server.IdleTimeout < 0 || (cfg.Server.IdleTimeout > 0 && cfg.Server.IdleTimeout < time.Second) {
		return fmt.Errorf("server.idle_timeout must be 0 (disabled) or at least 1s, got %s", cfg.Server.IdleTimeout)
	}

	// 分发器无论是否启用队列都会创建
	mq := cfg.MessageQueue
	if mq.Workers <= 0 {
		return fmt.Errorf("message_queue.workers must be positive, got %d", mq.Workers)
	}
	if mq.Buffer < 0 {
		return fmt.Errorf("message_queue.buffer must not be negative, got %d", mq.Buffer)
	}
	if !mq.Enabled {
		return nil
	}
	switch mq.Type {
	case QueueRabbitMQ, QueueKafka:
	default:
		return fmt.Errorf("message_queue.type: unsupported %q", mq.Type)
	}
	switch mq.Encoding {
	case EncodingJSON, EncodingCBOR:
	default:
		return fmt.Errorf("message_queue.encoding: unsupported %q", mq.Encoding)
	}
	if mq.Type == QueueKafka && len(mq.Kafka.Brokers) == 0 {
		return fmt.Errorf("message_queue.kafka.brokers is empty")
	}
	return nil
}
