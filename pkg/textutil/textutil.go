// Package textutil turns feed markup into short plain-text snippets.
package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"svg": true, "iframe": true, "head": true,
}

// Snippet converts an HTML (or plain text) fragment into a single line of
// text: tags are dropped, entities decoded and whitespace runs collapsed.
func Snippet(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return collapseSpace(fragment)
	}

	var sb strings.Builder
	extractTextFromNode(doc, &sb)
	return collapseSpace(sb.String())
}

func extractTextFromNode(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && skipTags[n.Data] {
		return
	}

	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractTextFromNode(c, sb)
	}

	// Block elements separate words that would otherwise run together.
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
			sb.WriteString(" ")
		}
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most max characters (runes, not bytes).
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	i := 0
	for pos := range s {
		if i == max {
			return s[:pos]
		}
		i++
	}
	return s
}
