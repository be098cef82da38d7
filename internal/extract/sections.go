package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Sections segments the paragraphs under root into labeled sections.
//
// Paragraphs are visited in document order. One whose first non-blank child is
// <strong> or <b> opens a section named by the bold text; the text of the node
// right after the bold element seeds its value. Other paragraphs are appended
// to the open section, one per line, or dropped when no section is open yet.
func Sections(root *html.Node) map[string]string {
	out := map[string]string{}
	if root == nil {
		return out
	}
	current := ""
	for _, p := range findAll(root, "p") {
		if first := firstNonBlankChild(p); first != nil && isBold(first) {
			current = cleanLabel(nodeText(first))
			if current == "" {
				continue
			}
			value := ""
			if first.NextSibling != nil {
				value = strings.TrimLeft(collapse(nodeText(first.NextSibling)), ": ")
			}
			out[current] = value
			continue
		}
		if current == "" {
			continue
		}
		text := collapse(nodeText(p))
		if text == "" {
			continue
		}
		if out[current] == "" {
			out[current] = text
		} else {
			out[current] += "\n" + text
		}
	}
	return out
}

func isBold(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.Data == "strong" || n.Data == "b")
}

// cleanLabel trims whitespace and trailing separators from a bold heading.
func cleanLabel(s string) string {
	return strings.TrimRight(collapse(s), " :.-–—")
}
