package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/roboricindustries/raycon-publisher/pkg/schemas/common"
)

// ErrNacked is returned when the broker negatively confirms a publish.
var ErrNacked = errors.New("broker nacked publish")

type Publisher interface {
	Publish(ctx context.Context, em common.EventMeta, env common.Envelope) error
	Close() error
}

var _ Publisher = (*Client)(nil)

// Publish sends env as persistent JSON to em's exchange and waits for the
// broker confirm.
func (c *Client) Publish(ctx context.Context, em common.EventMeta, env common.Envelope) error {
	if env.Meta.ID == "" {
		return fmt.Errorf("envelope.Meta.ID is required")
	}
	if env.Meta.CorrelationID == "" {
		env.Meta.CorrelationID = env.Meta.ID
	}
	if env.Meta.Time.IsZero() {
		env.Meta.Time = time.Now().UTC()
	}
	if env.Meta.Producer == "" {
		env.Meta.Producer = c.config.Producer
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	ch, err := c.pool.Borrow(ctx, c.config.PoolRetryDelayMs)
	if err != nil {
		return fmt.Errorf("borrow channel: %w", err)
	}
	defer c.pool.Return(ch)

	dc, err := ch.PublishWithDeferredConfirmWithContext(ctx, em.Exchange, em.RoutingKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		DeliveryMode:  amqp.Persistent,
		MessageId:     env.Meta.ID,
		CorrelationId: env.Meta.CorrelationID,
		Type:          FirstNonEmpty(env.Meta.Type, em.EventType),
		Timestamp:     env.Meta.Time,
		AppId:         FirstNonEmpty(env.Meta.Producer, c.config.Producer),
	})
	if err != nil {
		return fmt.Errorf("publish %s/%s: %w", em.Exchange, em.RoutingKey, err)
	}
	ack, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm: %w", err)
	}
	if !ack {
		return fmt.Errorf("%w: %s/%s", ErrNacked, em.Exchange, em.RoutingKey)
	}
	return nil
}
