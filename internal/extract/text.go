package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// findAll returns every element named tag under n in document order.
func findAll(n *html.Node, tag string) []*html.Node {
	var res []*html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = append(res, cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return res
}

// nodeText concatenates all text under n. <br> counts as a space.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		switch cur.Type {
		case html.TextNode:
			b.WriteString(cur.Data)
			return
		case html.ElementNode:
			switch cur.Data {
			case "script", "style":
				return
			case "br":
				b.WriteByte(' ')
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func firstNonBlankChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if c.Type == html.CommentNode {
			continue
		}
		return c
	}
	return nil
}

// collapse trims s and folds whitespace runs, including non-breaking spaces,
// into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
