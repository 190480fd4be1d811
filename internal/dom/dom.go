// Package dom holds small helpers over golang.org/x/net/html node trees.
package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses an HTML document
func Parse(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

// ParseString parses an HTML document from a string
func ParseString(htmlContent string) (*html.Node, error) {
	return html.Parse(strings.NewReader(htmlContent))
}

// Render serializes a node tree back to HTML
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// IsElement reports whether n is an element with the given tag name
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// HasClass checks if a node has a specific CSS class
func HasClass(n *html.Node, className string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}

	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, class := range strings.Fields(attr.Val) {
				if class == className {
					return true
				}
			}
		}
	}
	return false
}

// GetAttribute gets an attribute value from a node
func GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// SetAttribute sets or replaces an attribute on a node
func SetAttribute(n *html.Node, attrKey, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == attrKey {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: attrKey, Val: val})
}

// FindAll finds all nodes matching a predicate, in document order
func FindAll(n *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if predicate(node) {
			results = append(results, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return results
}

// FindFirst finds the first node matching a predicate
func FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}

// Body returns the <body> element, or n itself when there is none
func Body(n *html.Node) *html.Node {
	if body := FindFirst(n, func(c *html.Node) bool { return IsElement(c, "body") }); body != nil {
		return body
	}
	return n
}

// ElementByID finds the element with the given id attribute
func ElementByID(n *html.Node, id string) *html.Node {
	return FindFirst(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && GetAttribute(c, "id") == id
	})
}

// Closest walks n's ancestors (n excluded) and returns the first element matching predicate
func Closest(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && predicate(p) {
			return p
		}
	}
	return nil
}

// TextContent concatenates all descendant text
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		buf.WriteString(TextContent(c))
	}
	return buf.String()
}

// NewElement creates a detached element
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
		Attr:     attrs,
	}
}

// NewText creates a detached text node
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// RemoveChildren detaches every child of n
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// ReplaceWith replaces old in its parent with the given nodes, in order.
// It returns false when old has no parent.
func ReplaceWith(old *html.Node, nodes ...*html.Node) bool {
	parent := old.Parent
	if parent == nil {
		return false
	}
	for _, n := range nodes {
		parent.InsertBefore(n, old)
	}
	parent.RemoveChild(old)
	return true
}
