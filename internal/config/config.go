// Package config loads the publisher configuration from an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roboricindustries/raycon-publisher/pkg/destination"
)

var ErrInvalidConfig = errors.New("invalid config")

// Mode selects how a destination kind is delivered.
type Mode string

const (
	ModeMock     Mode = "mock"
	ModeStub     Mode = "stub"
	ModeTelegram Mode = "telegram"
	ModeS3       Mode = "s3"
	ModeGCS      Mode = "gcs"
	ModeGitHub   Mode = "github"
	ModeAMQP     Mode = "amqp"
)

const (
	DefaultContextEnv  = "PARENTDIRECTORY_SYMLINK"
	DefaultSendTimeout = 30 * time.Second
)

type Config struct {
	Log LogConfig `yaml:"log"`
	// ContextEnv names the environment variable whose value becomes the
	// context of every record.
	ContextEnv      string        `yaml:"context_env"`
	SendTimeout     time.Duration `yaml:"send_timeout" validate:"gte=0"`
	Transports      Transports    `yaml:"transports"`
	SimulateFailure PerKind       `yaml:"simulate_failure"`
	Telegram        Telegram      `yaml:"telegram"`
	S3              S3            `yaml:"s3"`
	GitHub          GitHub        `yaml:"github"`
	AMQP            AMQP          `yaml:"amqp"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type Transports struct {
	Chat      Mode `yaml:"chat" validate:"oneof=mock stub telegram amqp"`
	Object    Mode `yaml:"object" validate:"oneof=mock stub s3 gcs amqp"`
	RepoFile  Mode `yaml:"repofile" validate:"oneof=mock stub github amqp"`
	RepoIssue Mode `yaml:"issue" validate:"oneof=mock stub github amqp"`
}

type PerKind struct {
	Chat      bool `yaml:"chat"`
	Object    bool `yaml:"object"`
	RepoFile  bool `yaml:"repofile"`
	RepoIssue bool `yaml:"issue"`
}

type Telegram struct {
	Token      string        `yaml:"token"`
	APIURL     string        `yaml:"api_url" validate:"omitempty,url"`
	Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`
	RatePerSec int           `yaml:"rate_per_sec" validate:"gte=0"`
}

type S3 struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint" validate:"omitempty,url"`
	PathStyle bool   `yaml:"path_style"`
}

type GitHub struct {
	Token      string        `yaml:"token"`
	BaseURL    string        `yaml:"base_url" validate:"omitempty,url"`
	Branch     string        `yaml:"branch"`
	Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`
	RatePerSec int           `yaml:"rate_per_sec" validate:"gte=0"`
}

type AMQP struct {
	URL      string `yaml:"url"`
	Producer string `yaml:"producer"`
	// PublishOutcomes also sends every record to the events exchange.
	PublishOutcomes    bool          `yaml:"publish_outcomes"`
	PoolSize           int           `yaml:"pool_size" validate:"gte=0"`
	ConnTimeoutSeconds int           `yaml:"conn_timeout_seconds" validate:"gte=0"`
	RetryAttempts      int           `yaml:"retry_attempts" validate:"gte=0"`
	RetryDelay         time.Duration `yaml:"retry_delay" validate:"gte=0"`
}

// Mode returns the delivery mode configured for kind.
func (c *Config) Mode(kind destination.Kind) Mode {
	switch kind {
	case destination.KindChat:
		return c.Transports.Chat
	case destination.KindObject:
		return c.Transports.Object
	case destination.KindRepoFile:
		return c.Transports.RepoFile
	case destination.KindRepoIssue:
		return c.Transports.RepoIssue
	}
	return ModeStub
}

// Simulated reports whether the mock transport for kind should fail.
func (c *Config) Simulated(kind destination.Kind) bool {
	switch kind {
	case destination.KindChat:
		return c.SimulateFailure.Chat
	case destination.KindObject:
		return c.SimulateFailure.Object
	case destination.KindRepoFile:
		return c.SimulateFailure.RepoFile
	case destination.KindRepoIssue:
		return c.SimulateFailure.RepoIssue
	}
	return false
}

// UsesAMQP reports whether any component needs a broker connection.
func (c *Config) UsesAMQP() bool {
	if c.AMQP.PublishOutcomes {
		return true
	}
	for _, k := range destination.Kinds() {
		if c.Mode(k) == ModeAMQP {
			return true
		}
	}
	return false
}

func Default() Config {
	return Config{
		Log:         LogConfig{Level: "info", Format: "text"},
		ContextEnv:  DefaultContextEnv,
		SendTimeout: DefaultSendTimeout,
		Transports: Transports{
			Chat:      ModeMock,
			Object:    ModeMock,
			RepoFile:  ModeMock,
			RepoIssue: ModeMock,
		},
		AMQP: AMQP{Producer: "publisher"},
	}
}

// Load reads path (or $PUBLISHER_CONFIG when path is empty), applies
// environment overrides from getenv and validates the result. A nil getenv
// reads the process environment.
func Load(path string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	if path == "" {
		path = getenv("PUBLISHER_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// simulateAliases are the older per-service switch names. The per-kind name
// takes precedence when both are set.
var simulateAliases = map[destination.Kind]string{
	destination.KindChat:      "SIMULATE_DISCORD_FAILURE",
	destination.KindObject:    "SIMULATE_S3_FAILURE",
	destination.KindRepoFile:  "SIMULATE_GITHUB_FILE_FAILURE",
	destination.KindRepoIssue: "SIMULATE_GITHUB_ISSUE_FAILURE",
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setString(&cfg.Log.Level, "PUBLISHER_LOG_LEVEL")
	setString(&cfg.Log.Format, "PUBLISHER_LOG_FORMAT")
	setString(&cfg.ContextEnv, "PUBLISHER_CONTEXT_ENV")
	setString(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Telegram.APIURL, "TELEGRAM_API_URL")
	setString(&cfg.S3.Region, "AWS_REGION")
	setString(&cfg.S3.Endpoint, "S3_ENDPOINT")
	setString(&cfg.GitHub.Token, "GITHUB_TOKEN")
	setString(&cfg.GitHub.BaseURL, "GITHUB_API_URL")
	setString(&cfg.AMQP.URL, "AMQP_URL")

	if v := strings.TrimSpace(getenv("PUBLISHER_SEND_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: PUBLISHER_SEND_TIMEOUT: %v", ErrInvalidConfig, err)
		}
		cfg.SendTimeout = d
	}
	if v := strings.TrimSpace(getenv("PUBLISHER_PUBLISH_OUTCOMES")); v != "" {
		cfg.AMQP.PublishOutcomes = Truthy(v)
	}

	modes := map[destination.Kind]*Mode{
		destination.KindChat:      &cfg.Transports.Chat,
		destination.KindObject:    &cfg.Transports.Object,
		destination.KindRepoFile:  &cfg.Transports.RepoFile,
		destination.KindRepoIssue: &cfg.Transports.RepoIssue,
	}
	sims := map[destination.Kind]*bool{
		destination.KindChat:      &cfg.SimulateFailure.Chat,
		destination.KindObject:    &cfg.SimulateFailure.Object,
		destination.KindRepoFile:  &cfg.SimulateFailure.RepoFile,
		destination.KindRepoIssue: &cfg.SimulateFailure.RepoIssue,
	}
	for _, k := range destination.Kinds() {
		label := strings.ToUpper(k.String())
		if v := strings.TrimSpace(getenv("PUBLISHER_" + label + "_TRANSPORT")); v != "" {
			*modes[k] = Mode(strings.ToLower(v))
		}
		v := strings.TrimSpace(getenv("SIMULATE_" + label + "_FAILURE"))
		if v == "" {
			v = strings.TrimSpace(getenv(simulateAliases[k]))
		}
		if v != "" {
			*sims[k] = Truthy(v)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	if cfg.ContextEnv == "" {
		cfg.ContextEnv = def.ContextEnv
	}
	if cfg.SendTimeout == 0 {
		cfg.SendTimeout = def.SendTimeout
	}
	for _, m := range []*Mode{&cfg.Transports.Chat, &cfg.Transports.Object, &cfg.Transports.RepoFile, &cfg.Transports.RepoIssue} {
		if *m == "" {
			*m = ModeMock
		}
	}
	if cfg.AMQP.Producer == "" {
		cfg.AMQP.Producer = def.AMQP.Producer
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Namespace() + ": " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Truthy accepts 1, true and yes in any case.
func Truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Summary returns log attributes describing c without any secret values.
func (c *Config) Summary() []any {
	return []any{
		"log_level", c.Log.Level,
		"context_env", c.ContextEnv,
		"send_timeout", c.SendTimeout.String(),
		"chat", string(c.Transports.Chat),
		"object", string(c.Transports.Object),
		"repofile", string(c.Transports.RepoFile),
		"issue", string(c.Transports.RepoIssue),
		"simulate_failure", simulated(c),
		"telegram_token_set", c.Telegram.Token != "",
		"github_token_set", c.GitHub.Token != "",
		"amqp", redactURL(c.AMQP.URL),
		"publish_outcomes", c.AMQP.PublishOutcomes,
	}
}

func simulated(c *Config) string {
	var kinds []string
	for _, k := range destination.Kinds() {
		if c.Simulated(k) {
			kinds = append(kinds, k.String())
		}
	}
	return strings.Join(kinds, ",")
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.Redacted()
}
