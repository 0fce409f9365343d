// Package accountlookup fetches identity-provider account creation dates by
// public handle.
package accountlookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultGitLabURL    = "https://gitlab.com"
	DefaultGitHubAPIURL = "https://api.github.com"
	userAgent           = "skillhub"
	defaultTimeout      = 10 * time.Second
)

// Client resolves when a provider account was created.
type Client interface {
	CreatedAt(ctx context.Context, provider, handle string) (time.Time, error)
}

type Config struct {
	GitLabURL    string
	GitHubAPIURL string
	Timeout      time.Duration
}

// LookupError reports a failed or inconclusive lookup.
type LookupError struct {
	Provider   string
	Handle     string
	StatusCode int
	Reason     string
	Cause      error
}

func (e *LookupError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s lookup for %q: %s (status=%d)", e.Provider, e.Handle, e.Reason, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s lookup for %q: %s: %v", e.Provider, e.Handle, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s lookup for %q: %s", e.Provider, e.Handle, e.Reason)
}

func (e *LookupError) Unwrap() error { return e.Cause }

type HTTPClient struct {
	http      *resty.Client
	gitlabURL string
	githubURL string
}

var _ Client = (*HTTPClient)(nil)

func New(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	gitlab := strings.TrimRight(strings.TrimSpace(cfg.GitLabURL), "/")
	if gitlab == "" {
		gitlab = DefaultGitLabURL
	}
	github := strings.TrimRight(strings.TrimSpace(cfg.GitHubAPIURL), "/")
	if github == "" {
		github = DefaultGitHubAPIURL
	}
	return &HTTPClient{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/json"),
		gitlabURL: gitlab,
		githubURL: github,
	}
}

func (c *HTTPClient) CreatedAt(ctx context.Context, provider, handle string) (time.Time, error) {
	switch provider {
	case "gitlab":
		return c.gitlabCreatedAt(ctx, handle)
	case "github":
		return c.githubCreatedAt(ctx, handle)
	default:
		return time.Time{}, &LookupError{Provider: provider, Handle: handle, Reason: "unsupported provider"}
	}
}

type accountRecord struct {
	CreatedAt string `json:"created_at"`
}

func (c *HTTPClient) gitlabCreatedAt(ctx context.Context, handle string) (time.Time, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("username", handle).
		Get(c.gitlabURL + "/api/v4/users")
	if err != nil {
		return time.Time{}, &LookupError{Provider: "gitlab", Handle: handle, Reason: "request failed", Cause: err}
	}
	if !resp.IsSuccess() {
		return time.Time{}, &LookupError{Provider: "gitlab", Handle: handle, Reason: "unexpected response", StatusCode: resp.StatusCode()}
	}
	var users []accountRecord
	if err := json.Unmarshal(resp.Body(), &users); err != nil {
		return time.Time{}, &LookupError{Provider: "gitlab", Handle: handle, Reason: "decode failed", Cause: err}
	}
	if len(users) == 0 {
		return time.Time{}, &LookupError{Provider: "gitlab", Handle: handle, Reason: "account not found"}
	}
	return parseCreatedAt("gitlab", handle, users[0].CreatedAt)
}

func (c *HTTPClient) githubCreatedAt(ctx context.Context, handle string) (time.Time, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.githubURL + "/users/" + url.PathEscape(handle))
	if err != nil {
		return time.Time{}, &LookupError{Provider: "github", Handle: handle, Reason: "request failed", Cause: err}
	}
	if !resp.IsSuccess() {
		return time.Time{}, &LookupError{Provider: "github", Handle: handle, Reason: "unexpected response", StatusCode: resp.StatusCode()}
	}
	var rec accountRecord
	if err := json.Unmarshal(resp.Body(), &rec); err != nil {
		return time.Time{}, &LookupError{Provider: "github", Handle: handle, Reason: "decode failed", Cause: err}
	}
	return parseCreatedAt("github", handle, rec.CreatedAt)
}

func parseCreatedAt(provider, handle, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &LookupError{Provider: provider, Handle: handle, Reason: "missing created_at"}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &LookupError{Provider: provider, Handle: handle, Reason: "invalid created_at", Cause: err}
	}
	return t.UTC(), nil
}
