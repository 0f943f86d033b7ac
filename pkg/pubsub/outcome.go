package pubsub

import (
	"context"
	"time"

	"github.com/roboricindustries/raycon-publisher/pkg/schemas/common"
	publication "github.com/roboricindustries/raycon-publisher/pkg/schemas/publication/v1"
)

// OutcomeSink forwards publication records to the events exchange, routed by
// whether the acknowledgment is live or a fallback.
type OutcomeSink struct {
	pub      Publisher
	producer string
	now      func() time.Time
}

func NewOutcomeSink(pub Publisher, producer string) *OutcomeSink {
	return &OutcomeSink{pub: pub, producer: producer, now: time.Now}
}

func (s *OutcomeSink) Emit(ctx context.Context, rec publication.OutcomeRecordV1) error {
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	em := publication.OutcomeMeta(rec.IsFallback)
	env := common.NewEnvelope(em, s.producer, rec, s.now())
	return s.pub.Publish(ctx, em, env)
}

func (s *OutcomeSink) Close() error {
	return s.pub.Close()
}
