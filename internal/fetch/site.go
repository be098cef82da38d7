package fetch

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/scpscraper/internal/record"
)

// DefaultBaseURL is the wiki origin used for page and series URLs.
const DefaultBaseURL = "http://www.scp-wiki.net"

// Getter is the minimal fetch surface Site needs; *Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Site fetches and parses wiki pages for a fixed origin.
type Site struct {
	Client  Getter
	BaseURL string
}

func (s *Site) base() string {
	if s.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(s.BaseURL, "/")
}

// Origin returns the site origin used to absolutize relative links.
func (s *Site) Origin() string { return s.base() }

// PageURL returns the address of the page for id, e.g. /scp-002.
func (s *Site) PageURL(id int) string {
	return s.base() + "/scp-" + record.PadID(id)
}

// IndexURL returns the series index page for a thousand-block. Block 0 is
// /scp-series; block n lists 1000n..1000n+999 on /scp-series-(n+1).
func (s *Site) IndexURL(block int) string {
	if block <= 0 {
		return s.base() + "/scp-series"
	}
	return s.base() + "/scp-series-" + strconv.Itoa(block+1)
}

// Page fetches and parses the page for id.
func (s *Site) Page(ctx context.Context, id int) (*html.Node, error) {
	return s.parse(ctx, s.PageURL(id))
}

// Index fetches and parses the series index page for block. A missing page
// yields an error matching ErrNotFound.
func (s *Site) Index(ctx context.Context, block int) (*html.Node, error) {
	return s.parse(ctx, s.IndexURL(block))
}

func (s *Site) parse(ctx context.Context, url string) (*html.Node, error) {
	if s.Client == nil {
		return nil, fmt.Errorf("fetch client not configured")
	}
	body, _, err := s.Client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}
