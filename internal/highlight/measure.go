package highlight

import (
	"strings"

	"github.com/ppiankov/factlens/internal/dom"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/net/html"
)

// Box is a rendered size in CSS pixels
type Box struct {
	Width  int
	Height int
}

// Measurer reports the rendered size of an element after its content is set
type Measurer interface {
	Measure(n *html.Node) Box
}

// FontMeasurer lays out an element's text with a fixed font face. Lines break
// at <br> elements and, when MaxWidth is set, wrap at word boundaries.
type FontMeasurer struct {
	Face     font.Face
	Padding  int
	Border   int
	MaxWidth int
}

// NewFontMeasurer uses the 7x13 basic font face
func NewFontMeasurer(padding, border, maxWidth int) *FontMeasurer {
	return &FontMeasurer{
		Face:     basicfont.Face7x13,
		Padding:  padding,
		Border:   border,
		MaxWidth: maxWidth,
	}
}

// Measure returns the border box of n
func (m *FontMeasurer) Measure(n *html.Node) Box {
	chrome := 2 * (m.Padding + m.Border)
	contentMax := 0
	if m.MaxWidth > 0 {
		contentMax = m.MaxWidth - chrome
	}

	var lines []string
	for _, line := range renderedLines(n) {
		lines = append(lines, m.wrap(line, contentMax)...)
	}

	width := 0
	for _, line := range lines {
		if w := m.width(line); w > width {
			width = w
		}
	}
	if contentMax > 0 && width > contentMax {
		width = contentMax
	}

	lineHeight := m.Face.Metrics().Height.Ceil()
	return Box{
		Width:  width + chrome,
		Height: len(lines)*lineHeight + chrome,
	}
}

func (m *FontMeasurer) width(s string) int {
	return font.MeasureString(m.Face, s).Ceil()
}

// wrap breaks line greedily so each piece fits within maxWidth where possible.
// A single word wider than maxWidth stays on its own line.
func (m *FontMeasurer) wrap(line string, maxWidth int) []string {
	if maxWidth <= 0 || m.width(line) <= maxWidth {
		return []string{line}
	}

	var out []string
	var current string
	for _, word := range strings.Fields(line) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if current != "" && m.width(candidate) > maxWidth {
			out = append(out, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

// renderedLines flattens an element's text into lines split at <br>
func renderedLines(n *html.Node) []string {
	var lines []string
	var current strings.Builder

	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch {
		case c.Type == html.TextNode:
			current.WriteString(c.Data)
		case dom.IsElement(c, "br"):
			lines = append(lines, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			for child := c.FirstChild; child != nil; child = child.NextSibling {
				walk(child)
			}
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child)
	}
	if last := strings.TrimSpace(current.String()); last != "" || len(lines) == 0 {
		lines = append(lines, last)
	}
	return lines
}
