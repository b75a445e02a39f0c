package filter

import (
	"strings"
	"testing"

	"github.com/scipunch/syndian/config"
	"github.com/scipunch/syndian/feed"
	"github.com/scipunch/syndian/xmltree"
)

func article(title, link, description string) feed.Article {
	return feed.NewArticle(title, link, description, nil)
}

// itemArticle builds an article whose variables are the children of an <item>
func itemArticle(t *testing.T, item string) feed.Article {
	t.Helper()
	doc, err := xmltree.Parse(strings.NewReader(item))
	if err != nil {
		t.Fatalf("failed to parse item: %v", err)
	}
	vars := make(map[string]*xmltree.Node)
	for _, child := range doc.Root.Elements() {
		if _, seen := vars[child.Name]; !seen {
			vars[child.Name] = child
		}
	}
	return feed.NewArticle("Title", "https://example.com/a", "Body", vars)
}

func TestFilterPipeline_MinLength(t *testing.T) {
	filters := map[string]config.Filter{
		"short": {
			MinLength: 50,
		},
	}

	pipeline, err := NewFilterPipeline(filters)
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	tests := []struct {
		name          string
		item          feed.Article
		filterNames   []string
		shouldInclude bool
	}{
		{
			name:          "long enough",
			item:          article("Test Title", "", "This is a long enough description that should pass the filter"),
			filterNames:   []string{"short"},
			shouldInclude: true,
		},
		{
			name:          "too short",
			item:          article("Short", "", "Too short"),
			filterNames:   []string{"short"},
			shouldInclude: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			include, _ := pipeline.ShouldInclude(tt.item, tt.filterNames)
			if include != tt.shouldInclude {
				t.Errorf("Expected shouldInclude=%v, got %v", tt.shouldInclude, include)
			}
		})
	}
}

func TestFilterPipeline_MinWords(t *testing.T) {
	filters := map[string]config.Filter{
		"word_count": {
			MinWords: 10,
		},
	}

	pipeline, err := NewFilterPipeline(filters)
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	tests := []struct {
		name          string
		item          feed.Article
		shouldInclude bool
	}{
		{
			name:          "enough words",
			item:          article("Test Article", "", "This is a description with enough words to pass the filter test successfully"),
			shouldInclude: true,
		},
		{
			name:          "too few words",
			item:          article("Short", "", "Not enough words"),
			shouldInclude: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			include, _ := pipeline.ShouldInclude(tt.item, []string{"word_count"})
			if include != tt.shouldInclude {
				t.Errorf("Expected shouldInclude=%v, got %v", tt.shouldInclude, include)
			}
		})
	}
}

func TestFilterPipeline_ExcludePatterns(t *testing.T) {
	filters := map[string]config.Filter{
		"announcements": {
			ExcludePatterns: []string{
				"^[Ss]ponsored.*",
				"^[Ww]eekly digest.*",
				"(", // invalid, skipped with a warning
			},
		},
	}

	pipeline, err := NewFilterPipeline(filters)
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	tests := []struct {
		name          string
		item          feed.Article
		shouldInclude bool
		reason        string
	}{
		{
			name:          "sponsored post",
			item:          article("Sponsored: buy this", "", "A word from our partners"),
			shouldInclude: false,
			reason:        "announcements:exclude_pattern[^[Ss]ponsored.*]",
		},
		{
			name:          "weekly digest",
			item:          article("Weekly digest #12", "", "Links from the week"),
			shouldInclude: false,
			reason:        "announcements:exclude_pattern[^[Ww]eekly digest.*]",
		},
		{
			name:          "regular article",
			item:          article("Parsing RSS 1.0", "", "Items live next to the channel"),
			shouldInclude: true,
		},
		{
			name:          "pattern only at start",
			item:          article("Not sponsored at all", "", "Honest review"),
			shouldInclude: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			include, reason := pipeline.ShouldInclude(tt.item, []string{"announcements"})
			if include != tt.shouldInclude {
				t.Errorf("Expected shouldInclude=%v, got %v (reason: %s)", tt.shouldInclude, include, reason)
			}
			if reason != tt.reason {
				t.Errorf("Expected reason %q, got %q", tt.reason, reason)
			}
		})
	}
}

func TestFilterPipeline_RequireParagraphs(t *testing.T) {
	filters := map[string]config.Filter{
		"paragraphs": {
			RequireParagraphs: true,
		},
	}

	pipeline, err := NewFilterPipeline(filters)
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	tests := []struct {
		name          string
		item          feed.Article
		shouldInclude bool
	}{
		{
			name:          "multiple paragraphs",
			item:          article("Title", "", "First paragraph.\n\nSecond paragraph."),
			shouldInclude: true,
		},
		{
			name:          "single line",
			item:          article("Title", "", "Only one line here"),
			shouldInclude: false,
		},
		{
			name:          "blank lines do not count",
			item:          article("Title", "", "One line\n\n   \n"),
			shouldInclude: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			include, _ := pipeline.ShouldInclude(tt.item, []string{"paragraphs"})
			if include != tt.shouldInclude {
				t.Errorf("Expected shouldInclude=%v, got %v", tt.shouldInclude, include)
			}
		})
	}
}

func TestFilterPipeline_RequireLink(t *testing.T) {
	pipeline, err := NewFilterPipeline(map[string]config.Filter{
		"linked": {RequireLink: true},
	})
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	include, reason := pipeline.ShouldInclude(article("Title", "", "Body"), []string{"linked"})
	if include || reason != "linked:require_link" {
		t.Errorf("expected rejection with require_link, got %v %q", include, reason)
	}

	include, _ = pipeline.ShouldInclude(article("Title", "https://example.com/a", "Body"), []string{"linked"})
	if !include {
		t.Error("article with a link should pass")
	}
}

func TestFilterPipeline_Pipeline(t *testing.T) {
	filters := map[string]config.Filter{
		"length": {
			MinLength: 20,
		},
		"words": {
			MinWords: 5,
		},
	}

	pipeline, err := NewFilterPipeline(filters)
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	// Passes length, fails words
	item := article("Title", "", "Short words here")
	include, reason := pipeline.ShouldInclude(item, []string{"length", "words"})
	if include {
		t.Error("Expected item to be filtered out")
	}
	if reason != "words:min_words" {
		t.Errorf("Expected reason 'words:min_words', got %q", reason)
	}

	// The first failing filter wins
	item = article("A", "", "b")
	_, reason = pipeline.ShouldInclude(item, []string{"length", "words"})
	if reason != "length:min_length" {
		t.Errorf("Expected reason 'length:min_length', got %q", reason)
	}

	// Unknown filters are skipped
	include, _ = pipeline.ShouldInclude(item, []string{"missing"})
	if !include {
		t.Error("unknown filter names must not reject articles")
	}
}

func TestFilterPipeline_NoFilters(t *testing.T) {
	pipeline, err := NewFilterPipeline(map[string]config.Filter{})
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	include, reason := pipeline.ShouldInclude(article("", "", ""), nil)
	if !include {
		t.Error("Expected item to be included when no filters specified")
	}
	if reason != "" {
		t.Errorf("Expected empty reason, got %q", reason)
	}
}

func TestFilterPipeline_Apply(t *testing.T) {
	pipeline, err := NewFilterPipeline(map[string]config.Filter{
		"linked": {RequireLink: true},
	})
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	articles := []feed.Article{
		article("first", "https://example.com/1", ""),
		article("second", "", ""),
		article("third", "https://example.com/3", ""),
	}

	got := pipeline.Apply(articles, []string{"linked"})
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if got[0].Title() != "first" || got[1].Title() != "third" {
		t.Errorf("order not preserved: %q, %q", got[0].Title(), got[1].Title())
	}

	if all := pipeline.Apply(articles, nil); len(all) != 3 {
		t.Errorf("Apply without names should keep every article, got %d", len(all))
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"one two, three!", 3},
		{"  spaced   out  ", 2},
		{"Привет мир 2024", 3},
	}
	for _, tt := range tests {
		if got := countWords(tt.text); got != tt.want {
			t.Errorf("countWords(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestFilterPipeline_RequireVariables(t *testing.T) {
	pipeline, err := NewFilterPipeline(map[string]config.Filter{
		"dated": {RequireVariables: []string{"pubDate", "enclosure"}},
	})
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	tests := []struct {
		name   string
		item   string
		reason string
	}{
		{
			name: "both present",
			item: `<item><pubDate>Mon, 06 Jan 2025 10:00:00 GMT</pubDate><enclosure url="https://example.com/a.mp3"/></item>`,
		},
		{
			name:   "missing pubDate",
			item:   `<item><enclosure url="https://example.com/a.mp3"/></item>`,
			reason: "dated:require_variable[pubDate]",
		},
		{
			name:   "empty pubDate",
			item:   `<item><pubDate>  </pubDate><enclosure url="https://example.com/a.mp3"/></item>`,
			reason: "dated:require_variable[pubDate]",
		},
		{
			name:   "missing enclosure",
			item:   `<item><pubDate>today</pubDate></item>`,
			reason: "dated:require_variable[enclosure]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			include, reason := pipeline.ShouldInclude(itemArticle(t, tt.item), []string{"dated"})
			if include != (tt.reason == "") {
				t.Errorf("Expected shouldInclude=%v, got %v", tt.reason == "", include)
			}
			if reason != tt.reason {
				t.Errorf("Expected reason %q, got %q", tt.reason, reason)
			}
		})
	}
}

func TestFilterPipeline_ExcludeLinkPatterns(t *testing.T) {
	pipeline, err := NewFilterPipeline(map[string]config.Filter{
		"no_ads": {ExcludeLinkPatterns: []string{`^https://ads\.`, "utm_source="}},
	})
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	tests := []struct {
		link   string
		reason string
	}{
		{link: "https://example.com/post"},
		{link: ""},
		{link: "https://ads.example.com/x", reason: `no_ads:exclude_link[^https://ads\.]`},
		{link: "https://example.com/p?utm_source=rss", reason: "no_ads:exclude_link[utm_source=]"},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			_, reason := pipeline.ShouldInclude(article("Title", tt.link, "Body"), []string{"no_ads"})
			if reason != tt.reason {
				t.Errorf("Expected reason %q, got %q", tt.reason, reason)
			}
		})
	}
}
