package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Mux dispatches a fetch to the fetcher registered for the URL scheme
type Mux struct {
	fetchers map[string]Fetcher
}

// New creates a Mux serving http, https and file URLs
func New(cfg Config, log *slog.Logger) *Mux {
	h := NewHTTPFetcher(cfg, log)
	return &Mux{
		fetchers: map[string]Fetcher{
			"http":  h,
			"https": h,
			"file":  NewFileFetcher(),
		},
	}
}

// Handle registers f for scheme, replacing any previous fetcher
func (m *Mux) Handle(scheme string, f Fetcher) {
	m.fetchers[strings.ToLower(scheme)] = f
}

// Fetch implements Fetcher
func (m *Mux) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url '%s' with %w", rawURL, err)
	}
	f, ok := m.fetchers[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("unsupported url scheme %q in %s", u.Scheme, rawURL)
	}
	return f.Fetch(ctx, rawURL)
}
