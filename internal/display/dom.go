package display

import (
	"strings"

	"golang.org/x/net/html"
)

// Class names emitted by the listing plugin.
const (
	classValue        = "es-property-field__value"
	classArea         = "es-property-field--area"
	classLotSize      = "es-entity-field--lot_size"
	classListAgent    = "es-entity-field--list-agent"
	classBuilder      = "es-entity-field--builder"
	classSubdivision  = "es-entity-field--subdivision"
	classSection      = "es-property_section"
	classVideoSection = "es-property_section--video"
	classAreaEntity   = "es-entity-field--area"
)

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// classContains reports whether n is an element whose class attribute
// contains fragment. Matching is by substring, like the plugin's own
// selectors.
func classContains(n *html.Node, fragment string) bool {
	return n != nil && n.Type == html.ElementNode && strings.Contains(getAttr(n, "class"), fragment)
}

func isElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// walk visits n and its descendants depth first.
func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// valueSpans returns the value spans that are direct children of <li>
// elements whose class contains any of the given fragments.
func valueSpans(root *html.Node, liClasses ...string) []*html.Node {
	var spans []*html.Node
	walk(root, func(n *html.Node) {
		if !isElement(n, "li") {
			return
		}
		matched := false
		for _, c := range liClasses {
			if classContains(n, c) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if isElement(c, "span") && classContains(c, classValue) {
				spans = append(spans, c)
			}
		}
	})
	return spans
}

// textContent concatenates the text of n's descendants.
func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

// setText replaces the children of n with a single text node.
func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// rewriteText applies fn to the text of n and stores the result when it changed.
func rewriteText(n *html.Node, fn func(string) string) {
	text := textContent(n)
	if out := fn(text); out != text {
		setText(n, out)
	}
}

// insideRaw reports whether n sits in an element whose text is not page copy.
func insideRaw(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if isElement(p, "iframe") || isElement(p, "script") || isElement(p, "style") {
			return true
		}
	}
	return false
}
