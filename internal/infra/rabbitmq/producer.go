package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"comms-middleware/internal/config"
	"comms-middleware/internal/infra/mq"
)

var (
	ErrClosed       = errors.New("connection is closed")
	ErrNotConnected = errors.New("RabbitMQ not connected")
)

const reconnectDelay = 5 * time.Second

type RabbitMQProducer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	cfg        config.RabbitMQConfig
	encoding   string
	logger     *zap.Logger
	mu         sync.Mutex
	isClosed   bool
	reconnectC chan struct{}
}

// Ensure RabbitMQProducer implements mq.Producer
var _ mq.Producer = (*RabbitMQProducer)(nil)

func NewRabbitMQProducer(cfg config.RabbitMQConfig, encoding string, logger *zap.Logger) (*RabbitMQProducer, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is empty")
	}
	p := &RabbitMQProducer{
		cfg:        cfg,
		encoding:   encoding,
		logger:     logger,
		reconnectC: make(chan struct{}, 1),
	}

	// Try to connect initially in background to avoid blocking
	// If it fails, Produce will try again
	go func() {
		p.logger.Info("Attempting initial RabbitMQ connection", zap.String("url", maskURL(cfg.URL)))
		if err := p.connect(); err != nil {
			p.logger.Warn("Initial RabbitMQ connection failed (will retry on produce)", zap.Error(err))
			p.signalReconnect()
		}
	}()

	// Start reconnection loop immediately to handle background retries
	go p.handleReconnect()

	return p, nil
}

// buildURL appends the virtual host to the broker URL, escaping a leading "/".
// e.g. "/dev" -> "%2fdev"
func buildURL(base, vhost string) string {
	if vhost == "" {
		return base
	}
	if strings.HasPrefix(vhost, "/") {
		vhost = "%2f" + vhost[1:]
	}

	// scheme://host[:port] has exactly two slashes before the path
	parts := strings.SplitN(base, "/", 4)
	if len(parts) < 3 {
		return strings.TrimSuffix(base, "/") + "/" + vhost
	}
	return strings.Join(parts[:3], "/") + "/" + vhost
}

func maskURL(raw string) string {
	u, err := amqp.ParseURI(raw)
	if err != nil {
		return raw
	}
	u.Password = "******"
	return u.String()
}

func (p *RabbitMQProducer) connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed {
		return ErrClosed
	}

	connURL := buildURL(p.cfg.URL, p.cfg.VirtualHost)
	p.logger.Debug("Connecting to RabbitMQ", zap.String("url", maskURL(connURL)))
	conn, err := amqp.Dial(connURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	// Declare exchange (idempotent)
	err = ch.ExchangeDeclare(
		p.cfg.Exchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Declare Queue if configured
	if p.cfg.QueueName != "" {
		_, err = ch.QueueDeclare(
			p.cfg.QueueName, // name
			true,            // durable
			false,           // delete when unused
			false,           // exclusive
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return fmt.Errorf("failed to declare queue: %w", err)
		}

		p.logger.Debug("Binding RabbitMQ queue to exchange",
			zap.String("queue", p.cfg.QueueName),
			zap.String("exchange", p.cfg.Exchange),
			zap.String("routing_key", p.cfg.RoutingKey))

		err = ch.QueueBind(
			p.cfg.QueueName,  // queue name
			p.cfg.RoutingKey, // routing key
			p.cfg.Exchange,   // exchange
			false,
			nil,
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return fmt.Errorf("failed to bind queue: %w", err)
		}
	}

	p.conn = conn
	p.ch = ch

	// Monitor connection close
	go func() {
		<-conn.NotifyClose(make(chan *amqp.Error, 1))
		p.signalReconnect()
	}()

	p.logger.Info("Connected to RabbitMQ", zap.String("url", maskURL(connURL)))
	return nil
}

func (p *RabbitMQProducer) signalReconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isClosed {
		select {
		case p.reconnectC <- struct{}{}:
		default:
		}
	}
}

func (p *RabbitMQProducer) handleReconnect() {
	for range p.reconnectC {
		p.logger.Warn("RabbitMQ connection lost, attempting to reconnect...")
		for {
			err := p.connect()
			if err == nil {
				p.logger.Info("Reconnected to RabbitMQ")
				break
			}
			if errors.Is(err, ErrClosed) {
				return
			}
			p.logger.Error("Failed to reconnect to RabbitMQ", zap.Error(err))
			time.Sleep(reconnectDelay)
		}
	}
}

// Produce sends data to the exchange
func (p *RabbitMQProducer) Produce(ctx context.Context, topic string, key string, data interface{}) error {
	p.mu.Lock()
	if p.isClosed {
		p.mu.Unlock()
		return ErrClosed
	}

	// Check connection
	if p.ch == nil || p.ch.IsClosed() {
		p.mu.Unlock()
		// Trigger reconnect if not already trying
		p.signalReconnect()
		p.logger.Warn("RabbitMQ not connected, triggering reconnect")
		return ErrNotConnected
	}

	ch := p.ch
	p.mu.Unlock()

	body, contentType, err := mq.Marshal(p.encoding, data)
	if err != nil {
		return err
	}

	routingKey := p.cfg.RoutingKey
	if key != "" {
		routingKey = key
	}

	err = ch.PublishWithContext(ctx,
		p.cfg.Exchange, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType: contentType,
			Type:        topic,
			Body:        body,
			Timestamp:   time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("Published message to RabbitMQ",
		zap.String("exchange", p.cfg.Exchange),
		zap.String("routing_key", routingKey))
	return nil
}

func (p *RabbitMQProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed {
		return
	}
	p.isClosed = true
	close(p.reconnectC)
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
