package feed

import (
	"fmt"
	"strings"

	"github.com/scipunch/syndian/xmltree"
)

// HTMLText turns HTML fragments into plain text
type HTMLText interface {
	Text(fragment string) (string, error)
	// PreferredText returns the text of the first top level <pre>, or Text when there is none
	PreferredText(fragment string) (string, error)
}

// dialectStrategy holds the tag rules of a single dialect
type dialectStrategy interface {
	// rootName is the qualified name of the container element
	rootName() string
	// property returns the inner markup of the first metadata element called name
	property(container *xmltree.Node, name string) (string, bool)
	// items returns the article nodes in document order
	items(container *xmltree.Node) []*xmltree.Node
}

func strategyFor(d Dialect) (dialectStrategy, error) {
	switch d {
	case RSS2:
		return rss2{}, nil
	case RSS1:
		return rss1{}, nil
	case Atom:
		return atom{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFeedType, d)
	}
}

// channelProperty scans the grandchildren of the container, i.e. the
// children of <channel> and its siblings.
func channelProperty(container *xmltree.Node, name string) (string, bool) {
	for _, channel := range container.Elements() {
		for _, child := range channel.Elements() {
			if child.Name == name {
				return child.InnerXML(), true
			}
		}
	}
	return "", false
}

func childrenNamed(parent *xmltree.Node, name string) []*xmltree.Node {
	var found []*xmltree.Node
	for _, child := range parent.Elements() {
		if child.Name == name {
			found = append(found, child)
		}
	}
	return found
}

type rss2 struct{}

func (rss2) rootName() string { return "rss" }

func (rss2) property(container *xmltree.Node, name string) (string, bool) {
	return channelProperty(container, name)
}

// items are grandchildren: <rss><channel><item>
func (rss2) items(container *xmltree.Node) []*xmltree.Node {
	var found []*xmltree.Node
	for _, channel := range container.Elements() {
		found = append(found, childrenNamed(channel, "item")...)
	}
	return found
}

type rss1 struct{}

func (rss1) rootName() string { return "rdf:RDF" }

func (rss1) property(container *xmltree.Node, name string) (string, bool) {
	return channelProperty(container, name)
}

// items are siblings of <channel>: <rdf:RDF><item>
func (rss1) items(container *xmltree.Node) []*xmltree.Node {
	return childrenNamed(container, "item")
}

type atom struct{}

func (atom) rootName() string { return "feed" }

func (atom) property(container *xmltree.Node, name string) (string, bool) {
	for _, child := range container.Elements() {
		if child.Name == name {
			return child.InnerXML(), true
		}
	}
	return "", false
}

func (atom) items(container *xmltree.Node) []*xmltree.Node {
	return childrenNamed(container, "entry")
}

// locateContainer finds the container elements of doc.
// With Infer the first dialect whose root element exists wins. When none
// exists the returned dialect stays Infer and the node list is empty.
func locateContainer(doc *xmltree.Document, requested Dialect) ([]*xmltree.Node, Dialect, error) {
	if requested == Infer {
		for _, d := range inferenceOrder {
			s, _ := strategyFor(d)
			if nodes := doc.ElementsByTagName(s.rootName()); len(nodes) != 0 {
				return nodes, d, nil
			}
		}
		return nil, Infer, nil
	}

	s, err := strategyFor(requested)
	if err != nil {
		return nil, requested, err
	}
	nodes := doc.ElementsByTagName(s.rootName())
	if len(nodes) == 0 {
		return nil, requested, fmt.Errorf("invalid %s feed: %w", requested.label(), ErrInvalidFeedFormat)
	}
	return nodes, requested, nil
}

// extractor builds properties and articles out of located containers
type extractor struct {
	html HTMLText
}

// getProperty returns the inner markup of a top level property, or "" when the feed omits it
func (e extractor) getProperty(name string, container []*xmltree.Node, d Dialect) (string, error) {
	s, err := strategyFor(d)
	if err != nil {
		return "", err
	}
	if len(container) == 0 {
		return "", nil
	}
	value, _ := s.property(container[0], name)
	return value, nil
}

// extractArticles builds one Article per item or entry, in document order
func (e extractor) extractArticles(container []*xmltree.Node, d Dialect) ([]Article, error) {
	s, err := strategyFor(d)
	if err != nil {
		return nil, err
	}
	if len(container) == 0 {
		return []Article{}, nil
	}
	nodes := s.items(container[0])
	articles := make([]Article, 0, len(nodes))
	for _, n := range nodes {
		a, err := e.buildArticle(n)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// buildArticle applies the same field rules to every dialect since the tag names overlap
func (e extractor) buildArticle(node *xmltree.Node) (Article, error) {
	variables := make(map[string]*xmltree.Node)
	var title, link, description string

	for _, child := range node.Elements() {
		switch child.Name {
		case "title":
			title = trimLines(child.InnerText())
		case "link":
			if href, ok := child.Attr("href"); ok {
				link = href
			} else {
				link = child.InnerText()
			}
		case "summary", "content", "description":
			d, err := e.description(child)
			if err != nil {
				return Article{}, fmt.Errorf("failed to extract <%s> with %w", child.Name, err)
			}
			description = d
		}

		if _, seen := variables[child.Name]; !seen {
			variables[child.Name] = child
		}
	}

	return NewArticle(title, link, description, variables), nil
}

// description strips markup from type="html" bodies, preferring a <pre> block when present
func (e extractor) description(n *xmltree.Node) (string, error) {
	text := trimLines(n.InnerText())
	if typ, ok := n.Attr("type"); !ok || typ != "html" {
		return text, nil
	}
	return e.html.PreferredText(text)
}

// trimLines strips carriage returns, line feeds and spaces from both ends, nothing else
func trimLines(s string) string {
	return strings.Trim(s, "\r\n ")
}
