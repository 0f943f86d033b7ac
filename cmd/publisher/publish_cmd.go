package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/roboricindustries/raycon-publisher/internal/config"
	"github.com/roboricindustries/raycon-publisher/internal/logging"
	"github.com/roboricindustries/raycon-publisher/pkg/destination"
	"github.com/roboricindustries/raycon-publisher/pkg/publish"
)

// tagList collects a repeatable --tag flag.
type tagList []string

func (t *tagList) String() string { return strings.Join(*t, ",") }

func (t *tagList) Set(v string) error {
	*t = append(*t, v)
	return nil
}

type commonFlags struct {
	body   string
	tags   tagList
	config string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.body, "body", "", "Path to the UTF-8 message body (REQUIRED)")
	fs.Var(&c.tags, "tag", "Tag attached to the message (repeatable)")
	fs.StringVar(&c.config, "config", "", "Path to a YAML config file")
}

type destFlags struct {
	channel string
	bucket  string
	key     string
	repo    string
	path    string
	issue   uint64
}

func runPublishCmd(ctx context.Context, kind string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("publish "+kind, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		common commonFlags
		df     destFlags
	)
	common.register(fs)

	switch kind {
	case "chat":
		fs.StringVar(&df.channel, "channel", "", "Chat channel id (REQUIRED)")
	case "object":
		fs.StringVar(&df.bucket, "bucket", "", "Bucket name (REQUIRED)")
		fs.StringVar(&df.key, "key", "", "Object key (REQUIRED)")
	case "repo-file":
		fs.StringVar(&df.repo, "repo", "", "Repository as owner/name (REQUIRED)")
		fs.StringVar(&df.path, "path", "", "File path inside the repository (REQUIRED)")
	case "repo-issue":
		fs.StringVar(&df.repo, "repo", "", "Repository as owner/name (REQUIRED)")
		fs.Uint64Var(&df.issue, "issue", 0, "Issue number (REQUIRED)")
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown destination: %s\n", kind)
		return 2
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	var d destination.Destination
	switch kind {
	case "chat":
		d = destination.Chat{ChannelID: df.channel}
	case "object":
		d = destination.ObjectStore{Bucket: df.bucket, Key: df.key}
	case "repo-file":
		d = destination.RepoFile{Repo: df.repo, Path: df.path}
	case "repo-issue":
		d = destination.RepoIssue{Repo: df.repo, IssueNumber: df.issue}
	}

	return run(ctx, common, []destination.Destination{d}, stdout, stderr)
}

func runSyncAllCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sync-all", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		common commonFlags
		df     destFlags
	)
	common.register(fs)
	fs.StringVar(&df.channel, "channel", "", "Chat channel id (REQUIRED)")
	fs.StringVar(&df.bucket, "bucket", "", "Bucket name (REQUIRED)")
	fs.StringVar(&df.key, "key", "", "Object key (REQUIRED)")
	fs.StringVar(&df.repo, "repo", "", "Repository as owner/name (REQUIRED)")
	fs.StringVar(&df.path, "path", "", "File path inside the repository (REQUIRED)")
	fs.Uint64Var(&df.issue, "issue", 0, "Issue number; the issue is skipped when unset")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	var issue *destination.RepoIssue
	if df.issue != 0 {
		issue = &destination.RepoIssue{Repo: df.repo, IssueNumber: df.issue}
	}
	dests := publish.SyncAll(
		destination.Chat{ChannelID: df.channel},
		destination.ObjectStore{Bucket: df.bucket, Key: df.key},
		destination.RepoFile{Repo: df.repo, Path: df.path},
		issue,
	)
	return run(ctx, common, dests, stdout, stderr)
}

// run validates input, reads the body and stamps the request once, then
// publishes to dests in order.
func run(ctx context.Context, common commonFlags, dests []destination.Destination, stdout, stderr io.Writer) int {
	if common.body == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --body is required")
		return 2
	}
	for _, d := range dests {
		if err := destination.Validate(d); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	}

	cfg, err := config.Load(common.config, nil)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger, err := logging.New(stderr, cfg.Log.Level, cfg.Log.Format, "publisher")
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger.Debug("config loaded", cfg.Summary()...)

	req, err := buildRequest(common, cfg, time.Now())
	if err != nil {
		logger.Error("invalid input", slog.Any("error", err))
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	w := wire(ctx, cfg, logger)
	defer func() {
		if err := w.Close(); err != nil {
			logger.Warn("close transports", slog.Any("error", err))
		}
	}()

	sink := publish.MultiSink{publish.NewLogSink(logger), publish.NewJSONLinesSink(stdout)}
	if w.outcomes != nil {
		sink = append(sink, w.outcomes)
	}
	svc := publish.NewService(w.router, publish.Options{
		Logger:      logger,
		SendTimeout: cfg.SendTimeout,
		Sink:        sink,
	})

	records, err := svc.PublishAll(ctx, dests, req)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Interrupted after %d of %d destinations: %v\n", len(records), len(dests), err)
		return 1
	}
	return 0
}

func buildRequest(common commonFlags, cfg *config.Config, now time.Time) (publish.Request, error) {
	raw, err := os.ReadFile(common.body)
	if err != nil {
		return publish.Request{}, fmt.Errorf("read body: %w", err)
	}
	if !utf8.Valid(raw) {
		return publish.Request{}, errors.New("read body: " + common.body + " is not valid UTF-8")
	}
	ts, err := publish.Timestamp(now)
	if err != nil {
		return publish.Request{}, err
	}
	var ctxValue *string
	if v, ok := os.LookupEnv(cfg.ContextEnv); ok {
		ctxValue = &v
	}
	return publish.NewRequest(string(raw), common.tags, ctxValue, ts), nil
}
