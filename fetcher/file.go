package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"os"
)

// FileFetcher reads feed documents from file:// URLs
type FileFetcher struct{}

// NewFileFetcher creates a new file fetcher
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{}
}

// Fetch reads the file addressed by a file:// URL
func (f *FileFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url '%s' with %w", rawURL, err)
	}
	if u.Scheme != "file" {
		return nil, fmt.Errorf("not a file url: %s", rawURL)
	}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s' with %w", path, err)
	}
	return data, nil
}
