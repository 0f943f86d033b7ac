package publish

import (
	"errors"
	"fmt"
	"strings"
	"time"

	publication "github.com/roboricindustries/raycon-publisher/pkg/schemas/publication/v1"
)

var ErrClockBeforeEpoch = errors.New("clock reports a time before the unix epoch")

// Request is the message being published. It is built once per invocation
// and shared read-only by every destination.
type Request struct {
	Body      string
	Tags      []string
	Context   *string
	Timestamp int64 // epoch milliseconds
}

// NewRequest copies tags and context so later changes by the caller do not
// leak into records.
func NewRequest(body string, tags []string, context *string, timestamp int64) Request {
	r := Request{
		Body:      body,
		Tags:      append([]string{}, tags...),
		Timestamp: timestamp,
	}
	if context != nil {
		c := *context
		r.Context = &c
	}
	return r
}

func (r Request) content() publication.Content {
	return publication.Content{
		Tags:      r.Tags,
		Body:      r.Body,
		Context:   r.Context,
		Timestamp: r.Timestamp,
	}
}

// Timestamp converts now to epoch milliseconds.
func Timestamp(now time.Time) (int64, error) {
	ms := now.UnixMilli()
	if ms < 0 {
		return 0, fmt.Errorf("%w: %s", ErrClockBeforeEpoch, now.UTC().Format(time.RFC3339))
	}
	return ms, nil
}

// Preview returns the first line of body without its line terminator.
func Preview(body string) string {
	line, _, _ := strings.Cut(body, "\n")
	return strings.TrimSuffix(line, "\r")
}
