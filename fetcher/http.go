package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxBytes  = 10 * 1024 * 1024
	DefaultUserAgent = "syndian/1.0"
)

var ErrTooLarge = errors.New("response body too large")

// Config tunes the HTTP fetcher. Zero values fall back to defaults.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	// MaxRetries is the number of extra attempts after a transient failure.
	// Zero disables retrying.
	MaxRetries    int
	RetryInterval time.Duration
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 500 * time.Millisecond
	}
}

// HTTPFetcher downloads feeds over HTTP(S)
type HTTPFetcher struct {
	client *http.Client
	config Config
	log    *slog.Logger
}

// NewHTTPFetcher creates a fetcher. A nil logger means slog.Default().
func NewHTTPFetcher(cfg Config, log *slog.Logger) *HTTPFetcher {
	cfg.defaults()
	if log == nil {
		log = slog.Default()
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
		log:    log,
	}
}

// Fetch returns the response body of a GET request to url.
// Transport errors and 5xx/429 answers are retried up to MaxRetries times.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	log := f.log.With(slog.String("url", url))

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		b, err := f.fetchOnce(ctx, url)
		if err == nil {
			body = b
			return nil
		}
		if ctx.Err() != nil || errors.Is(err, ErrTooLarge) {
			return backoff.Permanent(err)
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return backoff.Permanent(err)
		}
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.config.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(f.config.MaxRetries)), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		log.Warn("fetch failed, retrying", "attempt", attempt, "retry_after", wait, "error", err)
	})
	if err != nil {
		log.Debug("fetch failed", "attempts", attempt, "error", err)
		return nil, err
	}

	log.Debug("fetched feed document", "bytes", len(body), "attempts", attempt)
	return body, nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for url %s with %w", url, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/rdf+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url %s with %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body of %s with %w", url, err)
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, fmt.Errorf("response body of %s exceeds %d bytes: %w", url, f.config.MaxBytes, ErrTooLarge)
	}
	return body, nil
}
