package htmltext

import (
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text",
			input:    "Hello world",
			expected: "Hello world",
		},
		{
			name:     "inline markup",
			input:    "<p>Hello <b>bold</b> world</p>",
			expected: "Hello bold world",
		},
		{
			name:     "entities decoded",
			input:    "<p>Fish &amp; chips</p>",
			expected: "Fish & chips",
		},
		{
			name:     "script dropped",
			input:    "<p>visible</p><script>alert('x')</script>",
			expected: "visible",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Text(tt.input)
			if err != nil {
				t.Fatalf("Text() failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Text() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFindFirst(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		found    bool
	}{
		{name: "first of two", input: "<pre>first</pre><pre>second</pre>", expected: "first", found: true},
		{name: "after other nodes", input: "intro <p>text</p><pre>code</pre>", expected: "code", found: true},
		{name: "nested is ignored", input: "<div><p>intro</p><pre>code</pre></div>", found: false},
		{name: "absent", input: "<p>no pre here</p>", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok, err := FindFirst(tt.input, "pre")
			if err != nil {
				t.Fatalf("FindFirst() failed: %v", err)
			}
			if ok != tt.found {
				t.Fatalf("FindFirst() found = %v, want %v", ok, tt.found)
			}
			if text != tt.expected {
				t.Errorf("FindFirst() = %q, want %q", text, tt.expected)
			}
		})
	}
}

func TestPreferredText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "pre wins",
			input:    "<p>intro</p><pre>raw text</pre>",
			expected: "raw text",
		},
		{
			name:     "only pre",
			input:    "<pre>raw text</pre>",
			expected: "raw text",
		},
		{
			name:     "nested pre falls back to all text",
			input:    "<div><p>intro</p><pre>code</pre></div>",
			expected: "introcode",
		},
		{
			name:     "no pre falls back to all text",
			input:    "<p>raw <i>text</i></p>",
			expected: "raw text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PreferredText(tt.input)
			if err != nil {
				t.Fatalf("PreferredText() failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("PreferredText() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractor(t *testing.T) {
	var e Extractor
	got, err := e.Text("<em>x</em>")
	if err != nil || got != "x" {
		t.Errorf("Extractor.Text() = %q, %v", got, err)
	}
	got, err = e.PreferredText("<p>x</p><pre>y</pre>")
	if err != nil || got != "y" {
		t.Errorf("Extractor.PreferredText() = %q, %v", got, err)
	}
}
