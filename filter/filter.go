package filter

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/scipunch/syndian/config"
	"github.com/scipunch/syndian/feed"
)

// FilterPipeline applies a series of named filters to articles
type FilterPipeline struct {
	filters map[string]*CompiledFilter
}

// CompiledFilter is the ordered list of rules built from a config.Filter
type CompiledFilter struct {
	rules []rule
}

// rule returns a non-empty reason when it rejects the article
type rule func(a feed.Article) string

// NewFilterPipeline creates a new filter pipeline from config.
// Invalid regular expressions are skipped with a warning.
func NewFilterPipeline(filtersConfig map[string]config.Filter) (*FilterPipeline, error) {
	compiled := make(map[string]*CompiledFilter, len(filtersConfig))
	for name, filterCfg := range filtersConfig {
		compiled[name] = compile(name, filterCfg)
	}
	return &FilterPipeline{filters: compiled}, nil
}

func compile(name string, cfg config.Filter) *CompiledFilter {
	cf := &CompiledFilter{}
	add := func(r rule) { cf.rules = append(cf.rules, r) }

	if cfg.RequireLink {
		add(func(a feed.Article) string {
			if a.Link() == "" {
				return "require_link"
			}
			return ""
		})
	}

	for _, variable := range cfg.RequireVariables {
		add(func(a feed.Article) string {
			n, ok := a.Variable(variable)
			// <enclosure url="..."/> counts, an empty <pubDate/> does not
			if !ok || (strings.TrimSpace(n.InnerText()) == "" && len(n.Attrs) == 0) {
				return "require_variable[" + variable + "]"
			}
			return ""
		})
	}

	for _, re := range compilePatterns(name, cfg.ExcludeLinkPatterns) {
		add(func(a feed.Article) string {
			if a.Link() != "" && re.MatchString(a.Link()) {
				return "exclude_link[" + re.String() + "]"
			}
			return ""
		})
	}

	if cfg.MinLength > 0 {
		add(func(a feed.Article) string {
			if len(articleText(a)) < cfg.MinLength {
				return "min_length"
			}
			return ""
		})
	}

	if cfg.MinWords > 0 {
		add(func(a feed.Article) string {
			if countWords(articleText(a)) < cfg.MinWords {
				return "min_words"
			}
			return ""
		})
	}

	for _, re := range compilePatterns(name, cfg.ExcludePatterns) {
		add(func(a feed.Article) string {
			if re.MatchString(articleText(a)) {
				return "exclude_pattern[" + re.String() + "]"
			}
			return ""
		})
	}

	if cfg.RequireParagraphs {
		add(func(a feed.Article) string {
			if !hasMultipleParagraphs(a.Description()) {
				return "require_paragraphs"
			}
			return ""
		})
	}

	return cf
}

func compilePatterns(filterName string, patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			slog.Warn("invalid regex pattern in filter", "filter", filterName, "pattern", pattern, "error", err)
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

// ShouldInclude returns true if the article passes all filters in the pipeline
// filterNames is a list of filter names to apply in order
func (fp *FilterPipeline) ShouldInclude(article feed.Article, filterNames []string) (bool, string) {
	if len(filterNames) == 0 {
		return true, "" // No filters = include everything
	}

	for _, filterName := range filterNames {
		filter, exists := fp.filters[filterName]
		if !exists {
			slog.Warn("filter not found, skipping", "filter_name", filterName)
			continue
		}

		for _, r := range filter.rules {
			if reason := r(article); reason != "" {
				return false, filterName + ":" + reason
			}
		}
	}

	return true, ""
}

// Apply keeps the articles that pass every named filter, preserving order
func (fp *FilterPipeline) Apply(articles []feed.Article, filterNames []string) []feed.Article {
	if len(filterNames) == 0 {
		return articles
	}
	return lo.Filter(articles, func(a feed.Article, _ int) bool {
		include, reason := fp.ShouldInclude(a, filterNames)
		if !include {
			slog.Debug("article filtered out", "title", a.Title(), "reason", reason, "url", a.Link())
		}
		return include
	})
}

// articleText is what the length, word and pattern rules look at
func articleText(a feed.Article) string {
	return a.Title() + " " + a.Description()
}

// countWords counts the number of words in text
func countWords(text string) int {
	words := 0
	inWord := false

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if !inWord {
				words++
				inWord = true
			}
		} else {
			inWord = false
		}
	}

	return words
}

// hasMultipleParagraphs checks if text has at least two non-blank lines
func hasMultipleParagraphs(text string) bool {
	nonEmptyLines := 0
	for line := range strings.Lines(text) {
		if strings.TrimSpace(line) != "" {
			nonEmptyLines++
		}
	}
	return nonEmptyLines >= 2
}
