// Package xmltree parses an XML document into a navigable tree of nodes.
//
// Element and attribute names are kept exactly as written in the source,
// including their prefix ("rdf:RDF", "content:encoded"), so lookups match
// qualified names rather than resolved namespaces.
package xmltree

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Kind identifies the type of a Node
type Kind int

const (
	ElementNode Kind = iota
	TextNode
	CommentNode
	ProcInstNode
)

// Attr is a single attribute of an element
type Attr struct {
	Name  string
	Value string
}

// Node is an element, a run of character data, a comment or a processing instruction
type Node struct {
	Kind     Kind
	Name     string // qualified name for elements, target for processing instructions
	Attrs    []Attr
	Data     string // character data, comment text or instruction body
	Parent   *Node
	Children []*Node
}

// Document is a parsed XML document
type Document struct {
	Root *Node
	// Prolog holds comments and processing instructions outside the root element
	Prolog []*Node
}

// SyntaxError reports a document that is not well-formed
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("xml syntax error on line %d: %s", e.Line, e.Msg)
}

// Parse reads a whole document from r.
// Tags must nest properly and there must be exactly one root element.
// A leading UTF-8 byte order mark is skipped and encodings other than
// UTF-8 are converted according to the XML declaration.
func Parse(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	d := xml.NewDecoder(br)
	d.CharsetReader = charset.NewReaderLabel
	doc := &Document{}

	var stack []*Node
	appendNode := func(n *Node) {
		parent := stack[len(stack)-1]
		n.Parent = parent
		parent.Children = append(parent.Children, n)
	}

	for {
		// RawToken keeps prefixes untouched
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var se *xml.SyntaxError
			if errors.As(err, &se) {
				return nil, &SyntaxError{Line: se.Line, Msg: se.Msg}
			}
			return nil, fmt.Errorf("failed to read xml token with %w", err)
		}

		line, _ := d.InputPos()

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Kind: ElementNode, Name: qualified(t.Name)}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, &SyntaxError{Line: line, Msg: "multiple root elements"}
				}
				doc.Root = n
			} else {
				appendNode(n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			name := qualified(t.Name)
			if len(stack) == 0 {
				return nil, &SyntaxError{Line: line, Msg: fmt.Sprintf("unexpected end element </%s>", name)}
			}
			if open := stack[len(stack)-1]; open.Name != name {
				return nil, &SyntaxError{Line: line, Msg: fmt.Sprintf("element <%s> closed by </%s>", open.Name, name)}
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) != 0 {
					return nil, &SyntaxError{Line: line, Msg: "character data outside the root element"}
				}
				continue
			}
			appendNode(&Node{Kind: TextNode, Data: string(t)})

		case xml.Comment:
			n := &Node{Kind: CommentNode, Data: string(t)}
			if len(stack) == 0 {
				doc.Prolog = append(doc.Prolog, n)
				continue
			}
			appendNode(n)

		case xml.ProcInst:
			n := &Node{Kind: ProcInstNode, Name: t.Target, Data: string(t.Inst)}
			if len(stack) == 0 {
				doc.Prolog = append(doc.Prolog, n)
				continue
			}
			appendNode(n)
		}
	}

	if len(stack) != 0 {
		line, _ := d.InputPos()
		return nil, &SyntaxError{Line: line, Msg: fmt.Sprintf("element <%s> is never closed", stack[len(stack)-1].Name)}
	}
	if doc.Root == nil {
		return nil, &SyntaxError{Line: 1, Msg: "no root element"}
	}
	return doc, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// ElementsByTagName returns every element with the given qualified name in document order
func (d *Document) ElementsByTagName(name string) []*Node {
	if d == nil || d.Root == nil {
		return nil
	}
	var found []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		if n.Kind != ElementNode {
			return
		}
		if n.Name == name {
			found = append(found, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(d.Root)
	return found
}

// Elements returns the element children of n in document order
func (n *Node) Elements() []*Node {
	var elems []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			elems = append(elems, c)
		}
	}
	return elems
}

// Clone returns a deep copy of the subtree rooted at n.
// The copy has no parent.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Kind: n.Kind, Name: n.Name, Data: n.Data}
	if n.Attrs != nil {
		c.Attrs = slices.Clone(n.Attrs)
	}
	for _, child := range n.Children {
		cc := child.Clone()
		cc.Parent = c
		c.Children = append(c.Children, cc)
	}
	return c
}

// Attr looks up an attribute by its qualified name
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// InnerText concatenates the character data of the whole subtree.
// Entities are decoded and CDATA sections contribute their raw content.
func (n *Node) InnerText() string {
	if n.Kind == TextNode {
		return n.Data
	}
	var sb strings.Builder
	var walk func(*Node)
	walk = func(c *Node) {
		switch c.Kind {
		case TextNode:
			sb.WriteString(c.Data)
		case ElementNode:
			for _, gc := range c.Children {
				walk(gc)
			}
		}
	}
	walk(n)
	return sb.String()
}

// InnerXML serializes the children of n
func (n *Node) InnerXML() string {
	var buf bytes.Buffer
	for _, c := range n.Children {
		c.write(&buf)
	}
	return buf.String()
}

// OuterXML serializes n including its own tag
func (n *Node) OuterXML() string {
	var buf bytes.Buffer
	n.write(&buf)
	return buf.String()
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

func (n *Node) write(buf *bytes.Buffer) {
	switch n.Kind {
	case TextNode:
		buf.WriteString(textEscaper.Replace(n.Data))
	case CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->")
	case ProcInstNode:
		buf.WriteString("<?")
		buf.WriteString(n.Name)
		if n.Data != "" {
			buf.WriteByte(' ')
			buf.WriteString(n.Data)
		}
		buf.WriteString("?>")
	case ElementNode:
		buf.WriteByte('<')
		buf.WriteString(n.Name)
		for _, a := range n.Attrs {
			buf.WriteByte(' ')
			buf.WriteString(a.Name)
			buf.WriteString(`="`)
			buf.WriteString(attrEscaper.Replace(a.Value))
			buf.WriteByte('"')
		}
		if len(n.Children) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for _, c := range n.Children {
			c.write(buf)
		}
		buf.WriteString("</")
		buf.WriteString(n.Name)
		buf.WriteByte('>')
	}
}
