package publish

import (
	"context"
	"log/slog"
	"time"

	"github.com/roboricindustries/raycon-publisher/pkg/destination"
	"github.com/roboricindustries/raycon-publisher/pkg/transport"
)

// Resolver picks the transport for a destination kind.
type Resolver interface {
	For(kind destination.Kind) transport.Transport
}

type Options struct {
	Logger      *slog.Logger
	SendTimeout time.Duration
	Sink        Sink
}

// Service wires the publisher to transports and outcome sinks.
type Service struct {
	pub      *Publisher
	resolver Resolver
	sink     Sink
	log      *slog.Logger
}

func NewService(resolver Resolver, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sink := opts.Sink
	if sink == nil {
		sink = NewLogSink(logger)
	}
	return &Service{
		pub:      NewPublisher(logger, opts.SendTimeout),
		resolver: resolver,
		sink:     sink,
		log:      logger,
	}
}

// PublishOne publishes req to d and hands the outcome to the sink.
func (s *Service) PublishOne(ctx context.Context, d destination.Destination, req Request) Outcome {
	rec := s.pub.Publish(ctx, s.resolver.For(d.Kind()), d, req)
	if err := s.sink.Emit(ctx, rec); err != nil {
		s.log.Error("emit outcome record",
			slog.String("destination", rec.Destination),
			slog.Any("error", err),
		)
	}
	return rec
}

// PublishAll publishes req to each destination in order, one at a time.
// Delivery failures never stop the run. If ctx is cancelled the remaining
// destinations are skipped and the records produced so far are returned
// together with the context error.
func (s *Service) PublishAll(ctx context.Context, dests []destination.Destination, req Request) ([]Outcome, error) {
	out := make([]Outcome, 0, len(dests))
	for _, d := range dests {
		if err := ctx.Err(); err != nil {
			s.log.Warn("publish interrupted",
				slog.Int("published", len(out)),
				slog.Int("skipped", len(dests)-len(out)),
			)
			return out, err
		}
		out = append(out, s.PublishOne(ctx, d, req))
	}
	return out, nil
}

// SyncAll lists the sync-all destinations in dispatch order. The issue is
// included only when issue is non-nil.
func SyncAll(chat destination.Chat, object destination.ObjectStore, file destination.RepoFile, issue *destination.RepoIssue) []destination.Destination {
	dests := []destination.Destination{chat, object, file}
	if issue != nil {
		dests = append(dests, *issue)
	}
	return dests
}
