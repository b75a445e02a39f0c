package main

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/template"
	"time"

	"github.com/samber/lo"

	"github.com/scipunch/syndian/archive"
	"github.com/scipunch/syndian/config"
	"github.com/scipunch/syndian/feed"
	"github.com/scipunch/syndian/fetcher"
	"github.com/scipunch/syndian/filter"
)

//go:embed templates/feed.tmpl
var feedTemplate string

var tmpl = template.Must(template.New("feed").Parse(feedTemplate))

type Report struct {
	Feeds []FeedView
}

type FeedView struct {
	Title       string
	Description string
	URL         string
	Dialect     string
	Articles    []ArticleView
}

type ArticleView struct {
	ID          string // Short hash of the link, stable across runs
	Title       string
	Description string
	URL         string
}

// target is a single feed to read
type target struct {
	URL         string
	Dialect     feed.Dialect
	FilterNames []string
}

type options struct {
	dialect string
	refresh bool
	archive bool
}

func main() {
	var (
		cfgPath string
		opts    options
		history bool
		clean   bool
		debug   bool
	)
	flag.StringVar(&cfgPath, "config", config.DefaultPath(), "path to a TOML config")
	flag.StringVar(&opts.dialect, "dialect", "", "force a dialect: rss2, rss1, atom or infer")
	flag.BoolVar(&opts.refresh, "refresh", false, "refresh every feed once more after loading it")
	flag.BoolVar(&opts.archive, "archive", false, "record a snapshot of every feed")
	flag.BoolVar(&history, "history", false, "print archive statistics and exit")
	flag.BoolVar(&clean, "clean", false, "remove all archived snapshots")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	if debug || os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	// Read config and create if default is missing
	conf, err := config.Read(cfgPath)
	if errors.Is(err, os.ErrNotExist) && cfgPath == config.DefaultPath() {
		if err := config.Write(cfgPath, conf); err != nil {
			log.Fatalf("failed to write default config with %s", err)
		}
	} else if err != nil {
		log.Fatalf("failed to read config with %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var arch *archive.Archive
	if opts.archive || history || clean {
		dbPath := conf.DatabasePath
		if dbPath == "" {
			dbPath = archive.DefaultPath()
		}
		arch, err = archive.Open(dbPath)
		if err != nil {
			log.Fatalf("failed to open archive with %s", err)
		}
		defer arch.Close()
	}

	switch {
	case clean:
		if err := arch.Clear(); err != nil {
			log.Fatalf("failed to clear archive with %s", err)
		}
		slog.Info("archive cleared successfully")
		return
	case history:
		stats, err := arch.Stats()
		if err != nil {
			log.Fatalf("failed to read archive stats with %s", err)
		}
		printStats(os.Stdout, stats)
		return
	}

	if err := run(ctx, conf, flag.Args(), opts, arch, os.Stdout); err != nil {
		stop()
		slog.Error("some feeds failed", "errors", err)
		os.Exit(1)
	}
}

// run reads every target, renders the report into out and returns the joined per-feed errors
func run(ctx context.Context, conf config.Config, args []string, opts options, arch *archive.Archive, out io.Writer) error {
	forced, err := feed.ParseDialect(opts.dialect)
	if err != nil {
		return err
	}

	pipeline, err := filter.NewFilterPipeline(conf.Filters)
	if err != nil {
		return fmt.Errorf("failed to initialize filters with %w", err)
	}
	if len(conf.Filters) > 0 {
		slog.Info("initialized filters", "count", len(conf.Filters))
	}

	targets, err := collectTargets(conf, args, forced)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		slog.Warn("nothing to read, pass feed urls or add feeds to the config")
		return nil
	}

	timeout, err := conf.Fetch.TimeoutDuration()
	if err != nil {
		return err
	}
	src := fetcher.New(fetcher.Config{
		Timeout:    timeout,
		UserAgent:  conf.Fetch.UserAgent,
		MaxRetries: conf.Fetch.MaxRetries,
		MaxBytes:   conf.Fetch.MaxBytes,
	}, slog.Default())

	var (
		errs   []error
		report Report
	)
	for _, t := range targets {
		// Check for cancellation before fetching
		select {
		case <-ctx.Done():
			slog.Info("interrupted by user, exiting gracefully")
			return errors.Join(append(errs, ctx.Err())...)
		default:
		}

		f, err := load(ctx, t, src, opts.refresh)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if arch != nil {
			if _, err := arch.Record(ctx, f); err != nil {
				errs = append(errs, fmt.Errorf("'%s' archive failed with %w", t.URL, err))
			}
		}

		articles := pipeline.Apply(f.Articles(), t.FilterNames)
		report.Feeds = append(report.Feeds, newFeedView(f, articles))
	}

	slog.Info("feeds read", "amount", len(report.Feeds), "failed", len(errs))
	if err := tmpl.Execute(out, report); err != nil {
		errs = append(errs, fmt.Errorf("failed to render report with %w", err))
	}
	return errors.Join(errs...)
}

func load(ctx context.Context, t target, src fetcher.Fetcher, refresh bool) (*feed.Feed, error) {
	start := time.Now()
	f, err := feed.New(ctx, t.URL, t.Dialect, feed.WithFetcher(src))
	if err != nil {
		return nil, fmt.Errorf("'%s' read failed with %w", t.URL, err)
	}
	if refresh {
		if err := f.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("'%s' refresh failed with %w", t.URL, err)
		}
	}
	slog.Debug("feed loaded", "url", t.URL, "articles", f.Len(), "took", time.Since(start))
	return f, nil
}

// collectTargets prefers command line urls over the configured feeds.
// A forced dialect overrides the per-feed one.
func collectTargets(conf config.Config, args []string, forced feed.Dialect) ([]target, error) {
	var targets []target
	if len(args) > 0 {
		for _, u := range args {
			targets = append(targets, target{URL: u, Dialect: forced})
		}
		return lo.UniqBy(targets, func(t target) string { return t.URL }), nil
	}

	for _, fc := range conf.Feeds {
		if !fc.IsEnabled() {
			slog.Debug("skipping disabled feed", "url", fc.URL)
			continue
		}
		d := forced
		if d == feed.Infer {
			parsed, err := feed.ParseDialect(fc.Dialect)
			if err != nil {
				return nil, fmt.Errorf("feed '%s' has %w", fc.URL, err)
			}
			d = parsed
		}
		targets = append(targets, target{URL: fc.URL, Dialect: d, FilterNames: fc.FilterNames})
	}
	return lo.UniqBy(targets, func(t target) string { return t.URL }), nil
}

func newFeedView(f *feed.Feed, articles []feed.Article) FeedView {
	return FeedView{
		Title:       f.Title(),
		Description: f.Description(),
		URL:         f.URL(),
		Dialect:     f.Dialect().String(),
		Articles: lo.Map(articles, func(a feed.Article, _ int) ArticleView {
			return ArticleView{
				ID:          articleID(a.Link()),
				Title:       a.Title(),
				Description: a.Description(),
				URL:         a.Link(),
			}
		}),
	}
}

func articleID(link string) string {
	hash := sha256.Sum256([]byte(link))
	return hex.EncodeToString(hash[:4])
}

func printStats(w io.Writer, stats archive.Stats) {
	fmt.Fprintf(w, "feeds: %d\nsnapshots: %d\narticles: %d\n", stats.Feeds, stats.Snapshots, stats.Articles)
	if !stats.OldestSnapshot.IsZero() {
		fmt.Fprintf(w, "oldest: %s\n", stats.OldestSnapshot.Format(time.RFC3339))
	}
}
