package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roboricindustries/raycon-publisher/pkg/destination"
	publication "github.com/roboricindustries/raycon-publisher/pkg/schemas/publication/v1"
	"github.com/roboricindustries/raycon-publisher/pkg/transport"
)

type collectSink struct{ recs []Outcome }

func (c *collectSink) Emit(_ context.Context, rec Outcome) error {
	c.recs = append(c.recs, rec)
	return nil
}

func syncAllFixture(issue *destination.RepoIssue) []destination.Destination {
	return SyncAll(
		destination.Chat{ChannelID: "C1"},
		destination.ObjectStore{Bucket: "bucket", Key: "comment.json"},
		destination.RepoFile{Repo: "org/name", Path: "docs/comment.md"},
		issue,
	)
}

func TestPublishAll_WithoutIssueYieldsThreeOrderedRecords(t *testing.T) {
	router := transport.NewRouter().
		Handle(destination.KindChat, transport.Static("chat-1")).
		Handle(destination.KindObject, transport.Static("object-1")).
		Handle(destination.KindRepoFile, transport.Static("file-1"))
	sink := &collectSink{}
	svc := NewService(router, Options{Sink: sink, SendTimeout: time.Second})

	recs, err := svc.PublishAll(context.Background(), syncAllFixture(nil), NewRequest("body", []string{"t"}, nil, 5))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "chat:C1", recs[0].Destination)
	assert.Equal(t, "object:bucket/comment.json", recs[1].Destination)
	assert.Equal(t, "repofile:org/name:docs/comment.md", recs[2].Destination)
	for _, r := range recs {
		assert.False(t, r.IsFallback)
		assert.False(t, strings.HasPrefix(r.Destination, "issue:"))
		assert.Equal(t, int64(5), r.Timestamp)
	}
	assert.Equal(t, recs, sink.recs)
}

func TestPublishAll_IssueIncludedLast(t *testing.T) {
	svc := NewService(transport.NewRouter(), Options{Sink: &collectSink{}})
	recs, err := svc.PublishAll(context.Background(),
		syncAllFixture(&destination.RepoIssue{Repo: "org/name", IssueNumber: 9}),
		NewRequest("body", nil, nil, 5))
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, "issue:org/name#9", recs[3].Destination)
}

func TestPublishAll_FailuresDoNotAbortSiblings(t *testing.T) {
	router := transport.NewRouter().
		Handle(destination.KindChat, transport.Failing(errors.New("chat down"))).
		Handle(destination.KindObject, transport.Static("object-1")).
		Handle(destination.KindRepoFile, transport.Stub{}).
		Handle(destination.KindRepoIssue, transport.Static("issue-1"))
	svc := NewService(router, Options{Sink: &collectSink{}})

	recs, err := svc.PublishAll(context.Background(),
		syncAllFixture(&destination.RepoIssue{Repo: "org/name", IssueNumber: 1}),
		NewRequest("body", nil, nil, 5))
	require.NoError(t, err)
	require.Len(t, recs, 4)

	assert.Equal(t, []bool{true, false, true, false},
		[]bool{recs[0].IsFallback, recs[1].IsFallback, recs[2].IsFallback, recs[3].IsFallback})
	for _, r := range recs {
		require.NoError(t, r.Validate())
	}
}

func TestPublishAll_StopsBetweenDestinationsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	cancelAfterFirst := transport.Func(func(context.Context, string, []byte) (string, error) {
		calls++
		cancel()
		return "ack", nil
	})
	router := transport.NewRouter()
	for _, k := range destination.Kinds() {
		router.Handle(k, cancelAfterFirst)
	}
	sink := &collectSink{}
	svc := NewService(router, Options{Sink: sink})

	recs, err := svc.PublishAll(ctx, syncAllFixture(nil), NewRequest("body", nil, nil, 5))
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, calls)
	assert.False(t, recs[0].IsFallback)
	assert.Len(t, sink.recs, 1)
}

func TestPublishOne_SinkErrorIsContained(t *testing.T) {
	var buf bytes.Buffer
	failing := SinkFunc(func(context.Context, Outcome) error { return errors.New("sink down") })
	svc := NewService(transport.NewRouter().Handle(destination.KindChat, transport.Static("a")),
		Options{Sink: failing, Logger: captureLogger(&buf)})

	rec := svc.PublishOne(context.Background(), destination.Chat{ChannelID: "C1"}, NewRequest("b", nil, nil, 1))
	assert.Equal(t, "a", rec.AcknowledgmentID)
	assert.Contains(t, buf.String(), "sink down")
}

func TestPublishOne_DefaultSinkLogsRecord(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(transport.NewRouter(), Options{Logger: captureLogger(&buf)})

	rec := svc.PublishOne(context.Background(), destination.Chat{ChannelID: "C1"}, NewRequest("b", nil, nil, 1))
	assert.True(t, rec.IsFallback)

	var sawRecord bool
	for _, l := range logLines(t, &buf) {
		if l.Msg == "fallback publication record" {
			sawRecord = true
			assert.Equal(t, "WARN", l.Level)
		}
	}
	assert.True(t, sawRecord)
}

func TestLogSink_Levels(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(captureLogger(&buf))

	require.NoError(t, sink.Emit(context.Background(), Outcome{Destination: "chat:C1", AcknowledgmentID: "a"}))
	require.NoError(t, sink.Emit(context.Background(), Outcome{Destination: "chat:C1", AcknowledgmentID: "hallucinated-x-0", IsFallback: true}))

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "INFO", lines[0].Level)
	assert.Equal(t, "publication record", lines[0].Msg)
	assert.Equal(t, "WARN", lines[1].Level)
	assert.Equal(t, "fallback publication record", lines[1].Msg)
}

func TestJSONLinesSink_FieldNames(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLinesSink(&buf)
	require.NoError(t, sink.Emit(context.Background(), Outcome{
		Destination: "chat:C1", MessagePreview: "p", Timestamp: 3, AcknowledgmentID: "a",
	}))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.ElementsMatch(t,
		[]string{"destination", "tags", "message_preview", "context", "timestamp", "acknowledgment_id", "is_fallback"},
		keys(raw))
	assert.Equal(t, []any{}, raw["tags"])
	assert.Nil(t, raw["context"])

	rec, err := publication.UnmarshalOutcomeRecord(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "chat:C1", rec.Destination)
}

func TestMultiSink_EmitsToAllAndJoinsErrors(t *testing.T) {
	a, b := &collectSink{}, &collectSink{}
	bad := SinkFunc(func(context.Context, Outcome) error { return errors.New("bad") })
	err := MultiSink{a, bad, nil, b}.Emit(context.Background(), Outcome{Destination: "chat:C1"})
	assert.EqualError(t, err, "bad")
	assert.Len(t, a.recs, 1)
	assert.Len(t, b.recs, 1)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
