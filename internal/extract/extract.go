// Package extract turns parsed wiki pages into records.
//
// The wiki has no semantic markup for page sections. A section starts at a
// paragraph whose first child is bold text ("Description:", "Special
// Containment Procedures:") and runs until the next such paragraph.
package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hyperifyio/scpscraper/internal/record"
)

// ErrNoDocument is returned when there is no parse tree, usually because the
// fetch already failed.
var ErrNoDocument = errors.New("no document")

// ErrMissingElement is matched by errors.Is for every MissingError.
var ErrMissingElement = errors.New("missing element")

// MissingError names a required element that was absent or malformed.
type MissingError struct {
	Element string
}

func (e *MissingError) Error() string { return "missing element: " + e.Element }

func (e *MissingError) Is(target error) bool { return target == ErrMissingElement }

// DefaultOrigin prefixes the relative discussion link.
const DefaultOrigin = "http://www.scp-wiki.net"

var firstNumber = regexp.MustCompile(`[0-9]+`)

// Extractor builds records from parsed pages. It holds no state between calls.
type Extractor struct {
	// Origin is prepended to relative links. Empty means DefaultOrigin.
	Origin string
}

// Extract produces the record for id from doc.
//
// Rating, image and tags degrade to zero values when absent. The content
// container, page info and discussion link are required; their absence
// returns an error wrapping ErrMissingElement.
func (x Extractor) Extract(doc *html.Node, id int) (*record.Record, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	d := goquery.NewDocumentFromNode(doc)
	content := d.Find("div#page-content").First()
	if content.Length() == 0 {
		return nil, &MissingError{Element: "div#page-content"}
	}
	rec := &record.Record{
		ID:      id,
		Rating:  rating(d.Selection),
		Image:   image(content),
		Content: Sections(content.Nodes[0]),
		Tags:    tags(d.Selection),
	}
	var err error
	if rec.Revision, rec.LastEdited, err = pageInfo(d.Selection); err != nil {
		return nil, err
	}
	if rec.Discussion, err = x.discussion(d.Selection); err != nil {
		return nil, err
	}
	return rec, nil
}

func rating(d *goquery.Selection) int {
	num := d.Find("span.rate-points").First().Children().First()
	if num.Length() == 0 {
		return 0
	}
	s := strings.TrimPrefix(strings.TrimSpace(num.Text()), "+")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func image(content *goquery.Selection) record.Image {
	var img record.Image
	block := content.Find("div.scp-image-block").First()
	if block.Length() == 0 {
		return img
	}
	first := block.Children().First()
	if src, ok := first.Attr("src"); ok && strings.TrimSpace(src) != "" {
		img.Src = &src
	}
	caption := first.Next()
	if caption.Length() == 0 {
		return img
	}
	text := collapse(caption.Children().First().Text())
	if text == "" {
		text = collapse(caption.Text())
	}
	if text != "" {
		img.Caption = &text
	}
	return img
}

func pageInfo(d *goquery.Selection) (int, int64, error) {
	info := d.Find("div#page-info").First()
	if info.Length() == 0 {
		return 0, 0, &MissingError{Element: "div#page-info"}
	}
	lead := info.Nodes[0].FirstChild
	if lead == nil || lead.Type != html.TextNode {
		return 0, 0, &MissingError{Element: "div#page-info revision"}
	}
	m := firstNumber.FindString(lead.Data)
	if m == "" {
		return 0, 0, &MissingError{Element: "div#page-info revision"}
	}
	revision, err := strconv.Atoi(m)
	if err != nil {
		return 0, 0, &MissingError{Element: "div#page-info revision"}
	}
	class, _ := info.Find("span").First().Attr("class")
	for _, tok := range strings.Fields(class) {
		if !strings.HasPrefix(tok, "time_") {
			continue
		}
		ts, err := strconv.ParseInt(strings.TrimPrefix(tok, "time_"), 10, 64)
		if err != nil {
			break
		}
		return revision, ts, nil
	}
	return 0, 0, &MissingError{Element: "div#page-info span.time_*"}
}

// Tags returns the page's tag list in document order, empty when the page
// has none.
func Tags(doc *html.Node) []string {
	if doc == nil {
		return []string{}
	}
	return tags(goquery.NewDocumentFromNode(doc).Selection)
}

func tags(d *goquery.Selection) []string {
	out := []string{}
	list := d.Find("div.page-tags").First().Find("span").First()
	if list.Length() == 0 {
		return out
	}
	for c := list.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if t := strings.TrimSpace(nodeText(c)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (x Extractor) discussion(d *goquery.Selection) (string, error) {
	href, ok := d.Find("a#discuss-button").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", &MissingError{Element: "a#discuss-button"}
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href, nil
	}
	origin := x.Origin
	if origin == "" {
		origin = DefaultOrigin
	}
	return strings.TrimRight(origin, "/") + href, nil
}
