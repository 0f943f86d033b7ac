package common

import (
	"time"

	"github.com/google/uuid"
)

type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

type GenericEnvelope[T any] struct {
	Meta Meta `json:"meta"`
	Data T    `json:"data"`
}

// NewEnvelope wraps data with a fresh event id stamped at now.
func NewEnvelope(em EventMeta, producer string, data any, now time.Time) Envelope {
	id := uuid.NewString()
	return Envelope{
		Meta: Meta{
			ID:            id,
			CorrelationID: id,
			Producer:      producer,
			Time:          now.UTC(),
			Type:          em.EventType,
		},
		Data: data,
	}
}
