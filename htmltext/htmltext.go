// Package htmltext turns HTML fragments into plain text
package htmltext

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor exposes the package functions as a value for callers that take an interface
type Extractor struct{}

func (Extractor) Text(fragment string) (string, error) {
	return Text(fragment)
}

func (Extractor) PreferredText(fragment string) (string, error) {
	return PreferredText(fragment)
}

// Text returns the visible text of an HTML fragment.
// Script and style contents are not part of it.
func Text(fragment string) (string, error) {
	doc, err := load(fragment)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, template").Remove()
	return doc.Text(), nil
}

// FindFirst returns the text of the first top level element named tag.
// Elements nested inside other elements are not considered.
// The boolean is false when the fragment has no such element.
func FindFirst(fragment, tag string) (string, bool, error) {
	doc, err := load(fragment)
	if err != nil {
		return "", false, err
	}
	sel := topLevel(doc, tag)
	if sel.Length() == 0 {
		return "", false, nil
	}
	return sel.Text(), true, nil
}

// PreferredText returns the text of the first top level <pre> element,
// falling back to the text of the whole fragment
func PreferredText(fragment string) (string, error) {
	text, ok, err := FindFirst(fragment, "pre")
	if err != nil {
		return "", err
	}
	if ok {
		return text, nil
	}
	return Text(fragment)
}

// topLevel selects the first element named tag among the fragment's own nodes.
// The parser wraps fragments in <html><body>, so those are the body children.
func topLevel(doc *goquery.Document, tag string) *goquery.Selection {
	return doc.Find("body").First().ChildrenFiltered(tag).First()
}

func load(fragment string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html fragment with %w", err)
	}
	return doc, nil
}
