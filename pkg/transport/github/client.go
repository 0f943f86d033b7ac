// Package github publishes repository file and issue comment payloads
// through the GitHub REST API.
package github

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.github.com/"

type Config struct {
	Token      string
	BaseURL    string
	Timeout    time.Duration
	RatePerSec int
	// Branch is the target ref for file commits; empty means the default branch.
	Branch string
}

type Client struct {
	api     *gh.Client
	branch  string
	limiter *rate.Limiter
}

// limitedTransport waits on the limiter before every request.
type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("github token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}

	limiter := rate.NewLimiter(rate.Limit(rps), rps)
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &limitedTransport{base: http.DefaultTransport, limiter: limiter},
	}
	api := gh.NewClient(httpClient).WithAuthToken(token)

	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		u, err := url.Parse(strings.TrimRight(base, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
		api.BaseURL = u
	}
	return &Client{api: api, branch: cfg.Branch, limiter: limiter}, nil
}

// splitRepo validates an owner/name pair.
func splitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository %q is not owner/name", repo)
	}
	return owner, name, nil
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var er *gh.ErrorResponse
	return errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusNotFound
}
