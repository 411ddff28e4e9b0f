// Package xml wraps xmlquery to give the renderers and their tests a small
// parse/query/format surface over the emitted markup.
package xml

import (
	"bytes"
	"fmt"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node represents an XML node.
type Node struct {
	node *xmlquery.Node
}

// Parse parses XML data and returns a Document.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// XPath evaluates an XPath expression and returns all matching nodes.
func (d *Document) XPath(expr string) ([]*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid XPath expression %q: %w", expr, err)
	}
	matches := xmlquery.Find(d.root, expr)
	nodes := make([]*Node, len(matches))
	for i, m := range matches {
		nodes[i] = &Node{node: m}
	}
	return nodes, nil
}

// XPathFirst evaluates an XPath expression and returns the first match, or
// nil when nothing matches.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	nodes, err := d.XPath(expr)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}

// Name returns the element name of the node.
func (n *Node) Name() string {
	return n.node.Data
}

// InnerText returns the concatenated text content of the node and its
// descendants.
func (n *Node) InnerText() string {
	return n.node.InnerText()
}

// Attr returns the value of the named attribute, or the empty string.
func (n *Node) Attr(name string) string {
	return n.node.SelectAttr(name)
}

// Children returns the element children of the node.
func (n *Node) Children() []*Node {
	var children []*Node
	for c := n.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			children = append(children, &Node{node: c})
		}
	}
	return children
}

// Format reindents XML data: one line per element, nested elements indented
// by the given string. Text content stays inline with its element.
func Format(data []byte, indent string) ([]byte, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for c := doc.root.FirstChild; c != nil; c = c.NextSibling {
		formatNode(&buf, c, 0, indent)
	}
	return buf.Bytes(), nil
}

func formatNode(buf *bytes.Buffer, n *xmlquery.Node, depth int, indent string) {
	switch n.Type {
	case xmlquery.ElementNode:
		for i := 0; i < depth; i++ {
			buf.WriteString(indent)
		}
		if mixedContent(n) {
			// Elements with text content serialize inline so no
			// whitespace is introduced into the text.
			buf.WriteString(n.OutputXML(true))
			buf.WriteString("\n")
			return
		}
		buf.WriteString("<" + n.Data)
		for _, a := range n.Attr {
			buf.WriteString(fmt.Sprintf(" %s=%q", a.Name.Local, a.Value))
		}
		if n.FirstChild == nil {
			buf.WriteString("/>\n")
			return
		}
		buf.WriteString(">\n")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			formatNode(buf, c, depth+1, indent)
		}
		for i := 0; i < depth; i++ {
			buf.WriteString(indent)
		}
		buf.WriteString("</" + n.Data + ">\n")
	case xmlquery.DeclarationNode:
		for i := 0; i < depth; i++ {
			buf.WriteString(indent)
		}
		buf.WriteString(n.OutputXML(true))
		buf.WriteString("\n")
	}
}

// mixedContent reports whether an element directly contains non-blank text.
func mixedContent(n *xmlquery.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.TextNode && len(bytes.TrimSpace([]byte(c.Data))) > 0 {
			return true
		}
	}
	return false
}
