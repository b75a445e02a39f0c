package feed

import (
	"fmt"
	"strings"
)

// Dialect is one of the syndication formats understood by the extractor
type Dialect int

const (
	// Infer asks for the dialect to be detected from the document.
	// It is only valid as a request and never describes a populated Feed.
	Infer Dialect = iota
	RSS2
	RSS1
	Atom
)

// inferenceOrder is the probing priority used by Infer
var inferenceOrder = []Dialect{RSS2, RSS1, Atom}

func (d Dialect) String() string {
	switch d {
	case Infer:
		return "infer"
	case RSS2:
		return "rss2"
	case RSS1:
		return "rss1"
	case Atom:
		return "atom"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// label is the human readable name used in error messages
func (d Dialect) label() string {
	switch d {
	case RSS2:
		return "RSS2"
	case RSS1:
		return "RSS1"
	case Atom:
		return "Atom"
	default:
		return d.String()
	}
}

// ParseDialect maps a configuration value to a Dialect. An empty string means Infer.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "infer", "auto":
		return Infer, nil
	case "rss2", "rss", "rss 2.0":
		return RSS2, nil
	case "rss1", "rdf", "rss 1.0":
		return RSS1, nil
	case "atom":
		return Atom, nil
	default:
		return Infer, fmt.Errorf("unknown feed dialect %q", s)
	}
}
