// Package relay hands payloads to a message broker instead of delivering
// them directly.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roboricindustries/raycon-publisher/pkg/pubsub"
	"github.com/roboricindustries/raycon-publisher/pkg/schemas/common"
	publication "github.com/roboricindustries/raycon-publisher/pkg/schemas/publication/v1"
)

const AckPrefix = "amqp-"

var ErrBadDestination = errors.New("relay: destination id has no kind prefix")

// Message is the envelope data carried to the relay exchange.
type Message struct {
	Destination string          `json:"destination"`
	Payload     json.RawMessage `json:"payload"`
}

type Transport struct {
	pub      pubsub.Publisher
	producer string
	now      func() time.Time
}

func New(pub pubsub.Publisher, producer string) *Transport {
	return &Transport{pub: pub, producer: producer, now: time.Now}
}

// Send publishes payload routed by the destination kind and returns once
// the broker confirms it.
func (t *Transport) Send(ctx context.Context, destinationID string, payload []byte) (string, error) {
	kind, _, ok := strings.Cut(destinationID, ":")
	if !ok || kind == "" {
		return "", fmt.Errorf("%w: %q", ErrBadDestination, destinationID)
	}
	if !json.Valid(payload) {
		return "", fmt.Errorf("relay %s: payload is not valid JSON", destinationID)
	}

	em := publication.RelayMeta(kind)
	env := common.NewEnvelope(em, t.producer, Message{
		Destination: destinationID,
		Payload:     json.RawMessage(payload),
	}, t.now())

	if err := t.pub.Publish(ctx, em, env); err != nil {
		return "", fmt.Errorf("relay %s: %w", destinationID, err)
	}
	return AckPrefix + env.Meta.ID, nil
}

func (t *Transport) Close() error {
	return t.pub.Close()
}
