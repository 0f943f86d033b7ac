package pubsub

import (
	"context"
	"log/slog"

	"github.com/roboricindustries/raycon-publisher/pkg/schemas/common"
)

// FallbackPublisher stands in when no broker is reachable; it logs and drops.
type FallbackPublisher struct {
	log *slog.Logger
}

func (p *FallbackPublisher) Publish(ctx context.Context, em common.EventMeta, env common.Envelope) error {
	p.log.Warn("FallbackPublisher: skipped publish",
		slog.String("exchange", em.Exchange),
		slog.String("routing_key", em.RoutingKey),
		slog.String("id", env.Meta.ID),
	)
	return nil
}

func (p *FallbackPublisher) Close() error {
	return nil
}

func NewFallback(logger *slog.Logger) Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FallbackPublisher{
		log: logger,
	}
}
