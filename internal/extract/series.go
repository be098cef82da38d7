package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ParseSeries reads a series index page into identifier → display name.
// Each list item links to its page ("/scp-173"); the name is the text after
// the last " - " separator. Items without a numbered link are skipped.
func ParseSeries(doc *html.Node) map[int]string {
	out := map[int]string{}
	if doc == nil {
		return out
	}
	goquery.NewDocumentFromNode(doc).Find("div#page-content li").Each(func(_ int, li *goquery.Selection) {
		a := firstNonBlankChild(li.Nodes[0])
		if a == nil || a.Type != html.ElementNode || a.Data != "a" {
			return
		}
		m := firstNumber.FindString(attr(a, "href"))
		if m == "" {
			return
		}
		id, err := strconv.Atoi(m)
		if err != nil {
			return
		}
		if _, seen := out[id]; seen {
			return
		}
		parts := strings.Split(collapse(li.Text()), " - ")
		out[id] = strings.TrimSpace(parts[len(parts)-1])
	})
	return out
}
