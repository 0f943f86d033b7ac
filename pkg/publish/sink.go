package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Sink receives every outcome record as soon as it is produced.
type Sink interface {
	Emit(ctx context.Context, rec Outcome) error
}

type SinkFunc func(ctx context.Context, rec Outcome) error

func (f SinkFunc) Emit(ctx context.Context, rec Outcome) error { return f(ctx, rec) }

// LogSink writes records to the operator log. Fallback records go out at
// WARN so a single severity finds every synthetic acknowledgment.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{log: logger}
}

func (s *LogSink) Emit(ctx context.Context, rec Outcome) error {
	payload, err := rec.Marshal()
	if err != nil {
		return fmt.Errorf("marshal outcome for %s: %w", rec.Destination, err)
	}
	if rec.IsFallback {
		s.log.WarnContext(ctx, "fallback publication record", slog.String("record", string(payload)))
	} else {
		s.log.InfoContext(ctx, "publication record", slog.String("record", string(payload)))
	}
	return nil
}

// JSONLinesSink writes one JSON document per record.
type JSONLinesSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{w: w}
}

func (s *JSONLinesSink) Emit(_ context.Context, rec Outcome) error {
	payload, err := rec.Marshal()
	if err != nil {
		return fmt.Errorf("marshal outcome for %s: %w", rec.Destination, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(payload, '\n'))
	return err
}

// MultiSink emits to every sink, even after one fails.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, rec Outcome) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Emit(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
