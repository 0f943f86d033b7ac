// Package publish turns a request into one outcome record per destination,
// substituting a synthesized acknowledgment whenever delivery fails.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roboricindustries/raycon-publisher/pkg/destination"
	"github.com/roboricindustries/raycon-publisher/pkg/fallback"
	publication "github.com/roboricindustries/raycon-publisher/pkg/schemas/publication/v1"
	"github.com/roboricindustries/raycon-publisher/pkg/transport"
)

// Outcome is the record produced for a single (request, destination) pair.
type Outcome = publication.OutcomeRecordV1

var ErrEmptyAck = errors.New("transport returned an empty acknowledgment")

const DefaultSendTimeout = 30 * time.Second

// Publisher dispatches a request to one destination at a time.
type Publisher struct {
	log     *slog.Logger
	timeout time.Duration
}

func NewPublisher(logger *slog.Logger, sendTimeout time.Duration) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Publisher{log: logger, timeout: sendTimeout}
}

// Publish builds the payload for d, sends it through t and returns exactly
// one outcome. Delivery failures never escape: they are logged and
// resolved with a fallback acknowledgment. Cancellation of ctx does not
// interrupt a send already under way; the send timeout bounds it instead.
func (p *Publisher) Publish(ctx context.Context, t transport.Transport, d destination.Destination, req Request) Outcome {
	id, payload, err := destination.Build(d, req.content())
	log := p.log.With(slog.String("destination", id))
	noun := describe(d.Kind())

	rec := Outcome{
		Destination:    id,
		Tags:           append([]string{}, req.Tags...),
		MessagePreview: Preview(req.Body),
		Context:        req.Context,
		Timestamp:      req.Timestamp,
	}

	if err == nil {
		var ack string
		ack, err = transport.WithTimeout(t, p.timeout).Send(context.WithoutCancel(ctx), id, payload)
		switch {
		case err != nil:
		case ack == "":
			err = fmt.Errorf("%w from %s", ErrEmptyAck, id)
		case fallback.IsFallbackID(ack):
			// A live ack must not be mistakable for a synthesized one.
			err = fmt.Errorf("acknowledgment %q uses the reserved %q prefix", ack, fallback.Prefix)
		default:
			rec.AcknowledgmentID = ack
		}
	}

	if err != nil {
		rec.AcknowledgmentID = fallback.Synthesize(id, req.Body, req.Timestamp)
		rec.IsFallback = true
		log.Warn(noun+" failed, emitting fallback acknowledgment",
			slog.Any("error", err),
			slog.String("ack", rec.AcknowledgmentID),
		)
		return rec
	}

	log.Info(noun+" acknowledged", slog.String("ack", rec.AcknowledgmentID))
	return rec
}

func describe(k destination.Kind) string {
	switch k {
	case destination.KindChat:
		return "chat message"
	case destination.KindObject:
		return "object upload"
	case destination.KindRepoFile:
		return "repository file update"
	case destination.KindRepoIssue:
		return "issue comment"
	default:
		return string(k) + " delivery"
	}
}
