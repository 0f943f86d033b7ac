package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn   *amqp.Connection
	pool   *ChannelPool
	config RabbitMQConfig
	logger *slog.Logger
}

func (c *Client) Config() RabbitMQConfig { return c.config }

func NewClient(ctx context.Context, config RabbitMQConfig, logger *slog.Logger) (*Client, error) {
	const op = "rabbitmq.NewClient"

	if config.URL == "" {
		return nil, fmt.Errorf("rabbitmq URL is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	host := ""
	if u, _ := url.Parse(config.URL); u != nil {
		host = u.Host
	}
	logger.With("op", op).Info("connecting to rabbitmq", slog.String("host", host))

	timeoutSec := config.ConnTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 30
	}
	dialCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()

	dial := config.Dialer
	if dial == nil {
		dial = func(ctx context.Context, u string) (*amqp.Connection, error) {
			return DialWithRetry(ctx, ConnectionOptions{
				URL:           u,
				RetryAttempts: config.RetryAttempts,
				Delay:         config.RetryDelay,
				DialTimeout:   Dsec(timeoutSec, 30),
				Logger:        logger,
			})
		}
	}
	conn, err := dial(dialCtx, config.URL)
	if err != nil {
		logger.With("op", op).Error("dial failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	// Declare exchanges once on a throwaway channel
	tempCh, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	client := &Client{
		conn:   conn,
		config: config,
		logger: logger,
	}
	if err := client.setupExchanges(tempCh); err != nil {
		_ = SafeClose(tempCh)
		_ = client.Close()
		return nil, err
	}
	_ = SafeClose(tempCh)

	client.pool = NewChannelPool(conn, config.PublishPoolSize)

	logger.With("op", op).Info("client ready")
	return client, nil
}

func (c *Client) setupExchanges(ch *amqp.Channel) error {
	for _, ex := range c.config.Exchanges {
		if ex == "" {
			continue
		}
		if err := ch.ExchangeDeclare(ex, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %q: %w", ex, err)
		}
	}
	return nil
}

// Close closes the pool and connection.
func (c *Client) Close() error {
	if c.pool != nil {
		c.pool.Close()
	}
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn.Close()
	}
	return nil
}
