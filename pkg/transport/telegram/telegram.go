// Package telegram delivers chat payloads as Telegram bot messages.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	publication "github.com/roboricindustries/raycon-publisher/pkg/schemas/publication/v1"
)

const DefaultAPIURL = "https://api.telegram.org"

type Config struct {
	Token string
	// APIURL overrides the Bot API base, e.g. for a local bot server.
	APIURL     string
	Timeout    time.Duration
	RatePerSec int
}

type Transport struct {
	bot     *tele.Bot
	limiter *rate.Limiter
}

// channel is a chat recipient addressed by its raw id or @username.
type channel string

func (c channel) Recipient() string { return string(c) }

func New(cfg Config) (*Transport, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   strings.TrimSpace(cfg.Token),
		URL:     strings.TrimRight(cfg.APIURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Transport{
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

func (t *Transport) Send(ctx context.Context, destinationID string, payload []byte) (string, error) {
	p, err := publication.UnmarshalPayload[publication.ChatPayloadV1](payload)
	if err != nil {
		return "", fmt.Errorf("decode chat payload for %s: %w", destinationID, err)
	}
	if p.Channel == "" {
		return "", fmt.Errorf("chat payload for %s has no channel", destinationID)
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}

	msg, err := t.bot.Send(channel(p.Channel), Text(p.Body, p.Tags), &tele.SendOptions{
		DisableWebPagePreview: true,
	})
	if err != nil {
		return "", fmt.Errorf("telegram sendMessage to %s: %w", p.Channel, err)
	}
	if msg == nil {
		return "", fmt.Errorf("telegram sendMessage to %s: empty result", p.Channel)
	}
	return fmt.Sprintf("telegram-%s-%d", p.Channel, msg.ID), nil
}

// Text renders the message body followed by a hashtag line when tags exist.
func Text(body string, tags []string) string {
	if len(tags) == 0 {
		return body
	}
	hashtags := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.Join(strings.Fields(tag), "_")
		if tag == "" {
			continue
		}
		hashtags = append(hashtags, "#"+tag)
	}
	if len(hashtags) == 0 {
		return body
	}
	return body + "\n\n" + strings.Join(hashtags, " ")
}
