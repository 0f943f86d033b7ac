package pubsub

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConfig defines client config and topology defaults.
type RabbitMQConfig struct {
	URL string
	// Exchanges are declared (topic, durable) when the client connects.
	Exchanges          []string
	Producer           string
	PublishPoolSize    int
	ConnTimeoutSeconds int
	PoolRetryDelayMs   int
	// Dial attempts before NewClient gives up; delay doubles per attempt.
	RetryAttempts int
	RetryDelay    time.Duration
	Dialer        func(ctx context.Context, url string) (*amqp.Connection, error)
}
