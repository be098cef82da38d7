package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// placeholderSignature is the rendered content block the wiki serves for
// pages that have not been written yet. Matching is exact after whitespace
// folding, so a template change on the site will stop it from matching.
const placeholderSignature = `<div id="page-content">
<p>This page doesn&#39;t exist yet! If you want to create it, please follow the <a href="/how-to-write-an-scp">guide</a> first.</p>
</div>`

var placeholder = collapse(placeholderSignature)

// ContentHTML renders the page content container of doc.
func ContentHTML(doc *html.Node) (string, error) {
	if doc == nil {
		return "", ErrNoDocument
	}
	content := goquery.NewDocumentFromNode(doc).Find("div#page-content").First()
	if content.Length() == 0 {
		return "", &MissingError{Element: "div#page-content"}
	}
	return goquery.OuterHtml(content)
}

// LooksEmpty reports whether a rendered content block is the placeholder page
// or carries no text at all.
func LooksEmpty(block string) bool {
	if collapse(block) == placeholder {
		return true
	}
	doc, err := html.Parse(strings.NewReader(block))
	if err != nil {
		return false
	}
	return collapse(nodeText(doc)) == ""
}
