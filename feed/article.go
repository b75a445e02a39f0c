package feed

import (
	"maps"
	"strings"

	"github.com/scipunch/syndian/xmltree"
)

// Article is one item or entry of a feed.
// It is immutable once built: accessors hand out copies.
type Article struct {
	title       string
	link        string
	description string
	variables   map[string]*xmltree.Node
}

// NewArticle builds an Article out of already extracted values.
// Strings are trimmed and the variables map is copied.
func NewArticle(title, link, description string, variables map[string]*xmltree.Node) Article {
	vars := maps.Clone(variables)
	if vars == nil {
		vars = map[string]*xmltree.Node{}
	}
	return Article{
		title:       strings.TrimSpace(title),
		link:        strings.TrimSpace(link),
		description: strings.TrimSpace(description),
		variables:   vars,
	}
}

func (a Article) Title() string       { return a.title }
func (a Article) Link() string        { return a.link }
func (a Article) Description() string { return a.description }

// Variables returns every direct child element of the article keyed by name.
// When a name repeats, the first element wins. The nodes are deep copies,
// so changing them does not affect the article.
func (a Article) Variables() map[string]*xmltree.Node {
	vars := make(map[string]*xmltree.Node, len(a.variables))
	for name, n := range a.variables {
		vars[name] = n.Clone()
	}
	return vars
}

// Variable returns a copy of a single child element by name
func (a Article) Variable(name string) (*xmltree.Node, bool) {
	n, ok := a.variables[name]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Equal compares the extracted fields and the markup of every variable
func (a Article) Equal(b Article) bool {
	if a.title != b.title || a.link != b.link || a.description != b.description {
		return false
	}
	if len(a.variables) != len(b.variables) {
		return false
	}
	for name, n := range a.variables {
		m, ok := b.variables[name]
		if !ok {
			return false
		}
		if n != m && n.OuterXML() != m.OuterXML() {
			return false
		}
	}
	return true
}
