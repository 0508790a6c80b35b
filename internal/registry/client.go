// Package registry fetches Avro schema text from a Confluent-compatible
// schema registry.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// LatestVersion selects the newest registered version of a subject.
const LatestVersion = "latest"

const (
	defaultTimeout = 10 * time.Second
	acceptHeader   = "application/vnd.schemaregistry.v1+json, application/json"

	// retry interval while waiting for a rate limiter token
	limitPoll = 10 * time.Millisecond
)

// ErrInvalidVersion is returned for a version that is neither "latest" nor a
// positive integer.
var ErrInvalidVersion = errors.New("registry: version must be \"latest\" or a positive integer")

// Config holds the registry connection settings.
type Config struct {
	// URL is the registry endpoint, e.g. "http://localhost:8081".
	URL string

	// Username and Password enable basic auth when Username is set.
	Username string
	Password string

	// Timeout bounds each HTTP request. Zero means 10s.
	Timeout time.Duration

	// RequestsPerSecond caps the request rate. Zero disables limiting.
	RequestsPerSecond int

	Logger *zap.Logger
}

// Client is a read-only schema registry client.
type Client struct {
	url        string
	username   string
	password   string
	httpClient *http.Client
	limiter    limiter
	log        *zap.Logger
}

type limiter interface {
	Allow(ctx context.Context, key string) bool
}

// NewClient creates a registry client.
func NewClient(config Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(config.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("schema registry URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid schema registry URL %q: %w", config.URL, err)
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	c := &Client{
		url:        base,
		username:   config.Username,
		password:   config.Password,
		httpClient: &http.Client{Timeout: config.Timeout},
		log:        config.Logger,
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if config.RequestsPerSecond > 0 {
		c.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     config.RequestsPerSecond,
			Burst:    config.RequestsPerSecond,
			Interval: time.Second,
		})
	}
	return c, nil
}

// URL returns the registry base URL without a trailing slash.
func (c *Client) URL() string {
	return c.url
}

// FetchSchema returns the raw schema text registered under subject at
// version ("latest" or a positive integer).
func (c *Client) FetchSchema(ctx context.Context, subject, version string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	version, err := normalizeVersion(version)
	if err != nil {
		return "", err
	}

	if err := c.wait(ctx); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/subjects/%s/versions/%s/schema", c.url, url.PathEscape(subject), version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", acceptHeader)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch schema %s/%s: %w", subject, version, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("registry request",
		zap.String("subject", subject),
		zap.String("version", version),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return "", newStatusError(resp.StatusCode, subject, version, body)
	}
	return string(body), nil
}

// wait blocks until the limiter grants a token or ctx is done.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	for !c.limiter.Allow(ctx, c.url) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for rate limiter: %w", ctx.Err())
		case <-time.After(limitPoll):
		}
	}
	return nil
}

func normalizeVersion(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, LatestVersion) {
		return LatestVersion, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return strconv.Itoa(n), nil
}

// StatusError is a non-200 registry response.
type StatusError struct {
	StatusCode int
	Subject    string
	Version    string

	// ErrorCode and Message come from the registry's JSON error body when
	// it has one; Body holds the raw body otherwise.
	ErrorCode int
	Message   string
	Body      string
}

func newStatusError(status int, subject, version string, body []byte) *StatusError {
	e := &StatusError{StatusCode: status, Subject: subject, Version: version}
	var payload struct {
		ErrorCode int    `json:"error_code"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		e.ErrorCode = payload.ErrorCode
		e.Message = payload.Message
	} else {
		e.Body = strings.TrimSpace(string(body))
	}
	return e
}

func (e *StatusError) Error() string {
	detail := e.Body
	if e.Message != "" {
		detail = fmt.Sprintf("%s (error code %d)", e.Message, e.ErrorCode)
	}
	msg := fmt.Sprintf("schema registry returned status %d for %s/%s", e.StatusCode, e.Subject, e.Version)
	if detail != "" {
		msg += ": " + detail
	}
	return msg
}

// NotFound reports whether the subject or version does not exist.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
