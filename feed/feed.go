// Package feed fetches RSS 2.0, RSS 1.0 (RDF) and Atom documents and
// normalizes them into a single Feed/Article model.
//
// A Feed is not safe for concurrent use: callers that refresh the same
// Feed from several goroutines must serialize the calls themselves.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/scipunch/syndian/fetcher"
	"github.com/scipunch/syndian/htmltext"
	"github.com/scipunch/syndian/xmltree"
)

// Feed is a normalized syndication feed
type Feed struct {
	url         string
	dialect     Dialect
	title       string
	description string
	articles    []Article
	replaced    bool

	fetcher fetcher.Fetcher
	html    HTMLText
	log     *slog.Logger
}

// Option configures a Feed
type Option func(*Feed)

// WithFetcher replaces the default http/https/file fetcher
func WithFetcher(f fetcher.Fetcher) Option {
	return func(feed *Feed) { feed.fetcher = f }
}

// WithHTMLText replaces the HTML-to-text extractor
func WithHTMLText(h HTMLText) Option {
	return func(feed *Feed) { feed.html = h }
}

// WithLogger sets the logger, slog.Default() otherwise
func WithLogger(l *slog.Logger) Option {
	return func(feed *Feed) { feed.log = l }
}

// New builds a Feed and performs the first refresh
func New(ctx context.Context, url string, dialect Dialect, opts ...Option) (*Feed, error) {
	f := &Feed{articles: []Article{}}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = slog.Default()
	}
	if f.fetcher == nil {
		f.fetcher = fetcher.New(fetcher.Config{}, f.log)
	}
	if f.html == nil {
		f.html = htmltext.Extractor{}
	}

	if err := f.RefreshFrom(ctx, url, dialect); err != nil {
		return nil, err
	}
	return f, nil
}

// Refresh re-fetches the feed using the last successful url and dialect
func (f *Feed) Refresh(ctx context.Context) error {
	if f.url == "" {
		return errors.New("feed has never been refreshed")
	}
	return f.RefreshFrom(ctx, f.url, f.dialect)
}

// RefreshFrom fetches url, parses it and commits the result.
// On error the Feed is left exactly as it was.
func (f *Feed) RefreshFrom(ctx context.Context, url string, requested Dialect) error {
	start := time.Now()
	log := f.log.With(slog.String("url", url), slog.String("requested", requested.String()))

	raw, err := f.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Error("feed fetch failed", "error", err)
		return fmt.Errorf("%w: fetching '%s' failed with %w", ErrUnreachableSource, url, err)
	}

	doc, err := xmltree.Parse(bytes.NewReader(raw))
	if err != nil {
		log.Error("feed parse failed", "error", err)
		return fmt.Errorf("%w: parsing '%s' failed with %w", ErrMalformedDocument, url, err)
	}

	container, resolved, err := locateContainer(doc, requested)
	if err != nil {
		return fmt.Errorf("'%s': %w", url, err)
	}
	if resolved == Infer {
		return fmt.Errorf("'%s' has no rss, rdf:RDF or feed element: %w", url, ErrNoDialect)
	}
	log.Debug("feed dialect resolved", "dialect", resolved)

	ex := extractor{html: f.html}
	title, err := ex.getProperty("title", container, resolved)
	if err != nil {
		return err
	}
	description, err := ex.getProperty("description", container, resolved)
	if err != nil {
		return err
	}
	articles, err := ex.extractArticles(container, resolved)
	if err != nil {
		return fmt.Errorf("failed to extract articles of '%s' with %w", url, err)
	}

	f.url = url
	f.dialect = resolved
	f.title = strings.TrimSpace(title)
	f.description = strings.TrimSpace(description)
	// Only the first article is compared; reordering or changes further
	// down the list go unnoticed while the head stays the same.
	if len(f.articles) != 0 && len(articles) != 0 && f.articles[0].Equal(articles[0]) {
		f.replaced = false
	} else {
		f.articles = articles
		f.replaced = true
	}

	log.Info("feed refreshed",
		"dialect", resolved,
		"articles", len(f.articles),
		"replaced", f.replaced,
		"duration", time.Since(start))
	return nil
}

func (f *Feed) URL() string         { return f.url }
func (f *Feed) Dialect() Dialect    { return f.dialect }
func (f *Feed) Title() string       { return f.title }
func (f *Feed) Description() string { return f.description }

// Replaced reports whether the last refresh swapped in a new article list
func (f *Feed) Replaced() bool { return f.replaced }

// Len returns the number of articles
func (f *Feed) Len() int { return len(f.articles) }

// Article returns the i-th article
func (f *Feed) Article(i int) Article { return f.articles[i] }

// Articles returns a copy of the article list
func (f *Feed) Articles() []Article {
	return slices.Clone(f.articles)
}

// All iterates over the articles without copying them
func (f *Feed) All() iter.Seq2[int, Article] {
	return slices.All(f.articles)
}
