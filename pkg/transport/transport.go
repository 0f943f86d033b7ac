// Package transport defines the delivery capability used by the publisher
// and the small in-process implementations of it.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

var (
	ErrStubTransport = errors.New("stub transport: delivery skipped")
	ErrNoTransport   = errors.New("no transport configured")
)

// Transport delivers an opaque payload to a destination and returns the
// acknowledgment id issued by the far side.
//
// Implementations must not block indefinitely and must collapse every
// failure into a single error carrying a human-readable cause.
type Transport interface {
	Send(ctx context.Context, destinationID string, payload []byte) (string, error)
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, destinationID string, payload []byte) (string, error)

func (f Func) Send(ctx context.Context, destinationID string, payload []byte) (string, error) {
	return f(ctx, destinationID, payload)
}

// Static always acknowledges with id.
func Static(id string) Transport {
	return Func(func(context.Context, string, []byte) (string, error) { return id, nil })
}

// Failing always fails with err.
func Failing(err error) Transport {
	return Func(func(_ context.Context, destinationID string, _ []byte) (string, error) {
		return "", fmt.Errorf("deliver to %s: %w", destinationID, err)
	})
}

// Unavailable fails every send with the reason the real transport could
// not be built.
func Unavailable(cause error) Transport {
	return Func(func(_ context.Context, destinationID string, _ []byte) (string, error) {
		return "", fmt.Errorf("transport unavailable for %s: %w", destinationID, cause)
	})
}

// Stub never delivers. Every publish through it resolves to a fallback
// acknowledgment.
type Stub struct{}

func (Stub) Send(_ context.Context, destinationID string, _ []byte) (string, error) {
	return "", fmt.Errorf("%w for %s", ErrStubTransport, destinationID)
}

// Sequence simulates a network transport. Acknowledgments are numbered
// from a counter owned by the instance.
type Sequence struct {
	label string
	fail  bool
	seq   atomic.Uint64
}

func NewSequence(label string, fail bool) *Sequence {
	return &Sequence{label: label, fail: fail}
}

func (s *Sequence) Send(_ context.Context, destinationID string, payload []byte) (string, error) {
	if s.fail {
		return "", fmt.Errorf("simulated %s transport failure delivering to %s with payload %d",
			s.label, destinationID, len(payload))
	}
	n := s.seq.Add(1)
	return fmt.Sprintf("%s-delivery-%d", strings.ToLower(s.label), n), nil
}

type result struct {
	id  string
	err error
}

// WithTimeout bounds every send of t by d. A send still running at the
// deadline is abandoned and reported as a failure.
func WithTimeout(t Transport, d time.Duration) Transport {
	if d <= 0 {
		return t
	}
	return Func(func(ctx context.Context, destinationID string, payload []byte) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		done := make(chan result, 1)
		go func() {
			id, err := t.Send(ctx, destinationID, payload)
			done <- result{id: id, err: err}
		}()

		select {
		case r := <-done:
			return r.id, r.err
		case <-ctx.Done():
			return "", fmt.Errorf("send to %s after %s: %w", destinationID, d, ctx.Err())
		}
	})
}
