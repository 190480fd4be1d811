package highlight

import (
	"strings"

	"github.com/ppiankov/factlens/internal/dom"
	"golang.org/x/net/html"
)

// Segment is one text node eligible for matching
type Segment struct {
	Node *html.Node
	Text string
}

// Collector gathers text segments in document order
type Collector struct {
	skipTags map[string]bool
	skipIDs  map[string]bool
	class    string
}

// NewCollector creates a collector that rejects text under skipTags, under
// elements carrying highlightClass, and under elements with any of skipIDs
func NewCollector(skipTags []string, highlightClass string, skipIDs ...string) *Collector {
	c := &Collector{
		skipTags: make(map[string]bool, len(skipTags)),
		skipIDs:  make(map[string]bool, len(skipIDs)),
		class:    highlightClass,
	}
	for _, tag := range skipTags {
		c.skipTags[strings.ToLower(tag)] = true
	}
	for _, id := range skipIDs {
		if id != "" {
			c.skipIDs[id] = true
		}
	}
	return c
}

// Collect returns every eligible text segment under root. The slice is fully
// built before the caller mutates the tree.
func (c *Collector) Collect(root *html.Node) []Segment {
	var segments []Segment

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && c.rejects(n) {
			return
		}

		if n.Type == html.TextNode {
			if strings.TrimSpace(n.Data) != "" {
				segments = append(segments, Segment{Node: n, Text: n.Data})
			}
			return
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	// root itself may sit inside a rejected region
	if dom.Closest(root, c.rejects) != nil {
		return nil
	}
	walk(root)

	return segments
}

func (c *Collector) rejects(n *html.Node) bool {
	if c.skipTags[n.Data] {
		return true
	}
	if c.class != "" && dom.HasClass(n, c.class) {
		return true
	}
	if len(c.skipIDs) > 0 && c.skipIDs[dom.GetAttribute(n, "id")] {
		return true
	}
	return false
}
