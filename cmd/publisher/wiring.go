package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roboricindustries/raycon-publisher/internal/config"
	"github.com/roboricindustries/raycon-publisher/pkg/destination"
	"github.com/roboricindustries/raycon-publisher/pkg/publish"
	"github.com/roboricindustries/raycon-publisher/pkg/pubsub"
	publication "github.com/roboricindustries/raycon-publisher/pkg/schemas/publication/v1"
	"github.com/roboricindustries/raycon-publisher/pkg/transport"
	"github.com/roboricindustries/raycon-publisher/pkg/transport/github"
	"github.com/roboricindustries/raycon-publisher/pkg/transport/objectstore"
	"github.com/roboricindustries/raycon-publisher/pkg/transport/relay"
	"github.com/roboricindustries/raycon-publisher/pkg/transport/telegram"
)

// wiring holds the transports and optional broker resources for one run.
type wiring struct {
	router   *transport.Router
	outcomes publish.Sink
	broker   pubsub.Publisher
}

func (w *wiring) Close() error {
	errs := []error{w.router.Close()}
	if w.broker != nil {
		errs = append(errs, w.broker.Close())
	}
	return errors.Join(errs...)
}

// wire builds one transport per destination kind. A transport that cannot
// be built is replaced by one that always fails, so its destinations still
// produce fallback records.
func wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) *wiring {
	w := &wiring{router: transport.NewRouter()}

	var (
		gh      *github.Client
		ghErr   error
		ghBuilt bool
		rl      *relay.Transport
	)

	var brokerErr error
	if cfg.UsesAMQP() {
		w.broker, brokerErr = connectBroker(ctx, cfg, logger)
		if brokerErr == nil {
			rl = relay.New(w.broker, cfg.AMQP.Producer)
		} else {
			logger.Warn("broker unavailable", slog.Any("error", brokerErr))
			w.broker = pubsub.NewFallback(logger)
		}
		if cfg.AMQP.PublishOutcomes {
			w.outcomes = pubsub.NewOutcomeSink(w.broker, cfg.AMQP.Producer)
		}
	}

	for _, kind := range destination.Kinds() {
		mode := cfg.Mode(kind)
		var (
			t   transport.Transport
			err error
		)
		switch mode {
		case config.ModeMock:
			t = transport.NewSequence(kind.String(), cfg.Simulated(kind))
		case config.ModeStub:
			t = transport.Stub{}
		case config.ModeTelegram:
			t, err = telegram.New(telegram.Config{
				Token:      cfg.Telegram.Token,
				APIURL:     cfg.Telegram.APIURL,
				Timeout:    cfg.Telegram.Timeout,
				RatePerSec: cfg.Telegram.RatePerSec,
			})
		case config.ModeS3:
			t, err = objectstore.NewS3(ctx, objectstore.S3Config{
				Region:    cfg.S3.Region,
				Endpoint:  cfg.S3.Endpoint,
				PathStyle: cfg.S3.PathStyle,
			})
		case config.ModeGCS:
			t, err = objectstore.NewGCS(ctx)
		case config.ModeGitHub:
			if !ghBuilt {
				gh, ghErr = github.NewClient(github.Config{
					Token:      cfg.GitHub.Token,
					BaseURL:    cfg.GitHub.BaseURL,
					Branch:     cfg.GitHub.Branch,
					Timeout:    cfg.GitHub.Timeout,
					RatePerSec: cfg.GitHub.RatePerSec,
				})
				ghBuilt = true
			}
			err = ghErr
			if err == nil {
				if kind == destination.KindRepoIssue {
					t = github.NewIssues(gh)
				} else {
					t = github.NewFiles(gh)
				}
			}
		case config.ModeAMQP:
			t, err = rl, brokerErr
		default:
			err = fmt.Errorf("unsupported transport mode %q", mode)
		}

		if err != nil {
			logger.Warn("transport unavailable, destinations will fall back",
				slog.String("kind", kind.String()),
				slog.String("mode", string(mode)),
				slog.Any("error", err),
			)
			t = transport.Unavailable(err)
		}
		w.router.Handle(kind, t)
	}
	return w
}

func connectBroker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pubsub.Publisher, error) {
	client, err := pubsub.NewClient(ctx, pubsub.RabbitMQConfig{
		URL:                cfg.AMQP.URL,
		Exchanges:          []string{publication.RelayExchange, publication.EventsExchange},
		Producer:           cfg.AMQP.Producer,
		PublishPoolSize:    cfg.AMQP.PoolSize,
		ConnTimeoutSeconds: cfg.AMQP.ConnTimeoutSeconds,
		RetryAttempts:      cfg.AMQP.RetryAttempts,
		RetryDelay:         cfg.AMQP.RetryDelay,
	}, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}
