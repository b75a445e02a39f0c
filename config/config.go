package config

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/BurntSushi/toml"
)

const baseCfgPath = "syndian/config.toml"

type Config struct {
	Feeds        []FeedConfig      `toml:"feeds"`
	DatabasePath string            `toml:"database_path"` // Snapshot archive written with -archive
	Fetch        FetchConfig       `toml:"fetch"`
	Filters      map[string]Filter `toml:"filters"` // Named filters that can be referenced by feeds
}

type FeedConfig struct {
	URL         string   `toml:"url"`
	Dialect     string   `toml:"dialect"` // rss2, rss1, atom or infer (default)
	Enabled     *bool    `toml:"enabled"` // Whether this feed is read (defaults to true if not set)
	FilterNames []string `toml:"filters"` // Names of filters to apply (pipeline)
}

// FetchConfig tunes the HTTP fetcher
type FetchConfig struct {
	Timeout    string `toml:"timeout"` // Go duration, e.g. "20s"
	UserAgent  string `toml:"user_agent"`
	MaxRetries int    `toml:"max_retries"`
	MaxBytes   int64  `toml:"max_bytes"`
}

// Filter defines rules for filtering articles
type Filter struct {
	MinLength           int      `toml:"min_length"`            // Minimum character count (0 = no limit)
	MinWords            int      `toml:"min_words"`             // Minimum word count (0 = no limit)
	ExcludePatterns     []string `toml:"exclude_patterns"`      // Regex patterns to exclude
	RequireParagraphs   bool     `toml:"require_paragraphs"`    // Must have multiple lines/paragraphs
	RequireLink         bool     `toml:"require_link"`          // Drop articles without a link
	RequireVariables    []string `toml:"require_variables"`     // Child elements an article must carry, e.g. "pubDate"
	ExcludeLinkPatterns []string `toml:"exclude_link_patterns"` // Regex patterns matched against the link
}

// IsEnabled returns true if the feed is enabled (defaults to true if not explicitly set)
func (f FeedConfig) IsEnabled() bool {
	if f.Enabled == nil {
		return true
	}
	return *f.Enabled
}

// TimeoutDuration parses Timeout, returning 0 when it is unset
func (f FetchConfig) TimeoutDuration() (time.Duration, error) {
	if f.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid fetch timeout '%s' with %w", f.Timeout, err)
	}
	return d, nil
}

func Read(path string) (Config, error) {
	conf := Default()
	dat, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	_, err = toml.Decode(string(dat), &conf)
	if err != nil {
		return conf, fmt.Errorf("failed to decode config at %s with %w", path, err)
	}
	if _, err := conf.Fetch.TimeoutDuration(); err != nil {
		return conf, err
	}
	return conf, nil
}

func Write(cfgPath string, cfg Config) error {
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config with %w", err)
	}
	basePath := path.Dir(cfgPath)
	err = os.MkdirAll(basePath, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create base config directory at '%s' with %w", basePath, err)
	}
	err = os.WriteFile(cfgPath, blob, 0644)
	if err != nil {
		return fmt.Errorf("failed to write into config file at '%s' with %w", cfgPath, err)
	}
	slog.Info("config written", "at", cfgPath)
	return nil
}

func Default() Config {
	var dbBase = path.Join(os.Getenv("HOME"), ".local/share/syndian")
	return Config{
		DatabasePath: path.Join(dbBase, "archive.db"),
		Fetch: FetchConfig{
			Timeout: "30s",
		},
		Feeds:   []FeedConfig{},
		Filters: map[string]Filter{},
	}
}

func DefaultPath() string {
	var xdgHome = os.Getenv("XDG_CONFIG_HOME")
	if xdgHome != "" {
		return path.Join(xdgHome, baseCfgPath)
	}

	var home = os.Getenv("HOME")
	if home != "" {
		return path.Join(home, ".config", baseCfgPath)
	}

	panic("unclear where to search for the config file")
}
