// Package robots fetches and evaluates the wiki's robots.txt for one run.
package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hyperifyio/scpscraper/internal/cache"
)

// Source tells where rules came from.
type Source int

const (
	SourceNetwork Source = iota
	SourceCache304
	SourceAbsent
)

func (s Source) String() string {
	switch s {
	case SourceCache304:
		return "cache"
	case SourceAbsent:
		return "absent"
	default:
		return "network"
	}
}

// Rules is a parsed robots.txt.
type Rules struct {
	Groups []Group
}

// Group is one User-agent block.
type Group struct {
	Agents     []string
	Allow      []string
	Disallow   []string
	CrawlDelay *time.Duration
}

// Fetcher loads robots.txt once per run, revalidating against the page cache
// when one is configured.
type Fetcher struct {
	HTTPClient *http.Client
	Cache      *cache.PageCache
	UserAgent  string
}

// URL returns the robots.txt address for origin.
func URL(origin string) string {
	return strings.TrimRight(origin, "/") + "/robots.txt"
}

// Get fetches the rules at robotsURL. A 404 or 410 yields empty rules and
// SourceAbsent, which allow everything.
func (f *Fetcher) Get(ctx context.Context, robotsURL string) (Rules, Source, error) {
	var etag, lastMod string
	if f.Cache != nil {
		if meta, err := f.Cache.Meta(ctx, robotsURL); err == nil && meta != nil && !meta.NotFound() {
			etag, lastMod = meta.ETag, meta.LastModified
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, SourceNetwork, fmt.Errorf("new request: %w", err)
	}
	if !strings.HasPrefix(req.URL.Scheme, "http") {
		return Rules{}, SourceNetwork, fmt.Errorf("unsupported url scheme: %q", robotsURL)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
	client := f.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, SourceNetwork, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && f.Cache != nil:
		body, err := f.Cache.Body(ctx, robotsURL)
		if err != nil {
			return Rules{}, SourceCache304, fmt.Errorf("load cached robots: %w", err)
		}
		return Parse(string(body)), SourceCache304, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return Rules{}, SourceAbsent, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Rules{}, SourceNetwork, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return Rules{}, SourceNetwork, fmt.Errorf("read robots: %w", err)
	}
	if f.Cache != nil {
		_ = f.Cache.Save(ctx, cache.Entry{
			URL:          robotsURL,
			Status:       resp.StatusCode,
			ContentType:  resp.Header.Get("Content-Type"),
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}, data)
	}
	return Parse(string(data)), SourceNetwork, nil
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	cur := Group{}
	hasRules := func() bool {
		return len(cur.Allow) > 0 || len(cur.Disallow) > 0 || cur.CrawlDelay != nil
	}
	flush := func() {
		if len(cur.Agents) == 0 && !hasRules() {
			return
		}
		groups = append(groups, cur)
		cur = Group{}
	}
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "user-agent", "useragent":
			if len(cur.Agents) > 0 && hasRules() {
				flush()
			}
			cur.Agents = append(cur.Agents, strings.ToLower(val))
		case "allow":
			cur.Allow = append(cur.Allow, val)
		case "disallow":
			cur.Disallow = append(cur.Disallow, val)
		case "crawl-delay", "crawldelay":
			if d, err := time.ParseDuration(val + "s"); err == nil && d >= 0 {
				cur.CrawlDelay = &d
			}
		}
	}
	flush()
	return Rules{Groups: groups}
}

// Allowed reports whether path may be fetched by userAgent. The longest
// matching pattern in the best agent group wins; Allow wins ties. No match
// means allowed.
func (r Rules) Allowed(userAgent, path string) bool {
	g := r.group(userAgent)
	if g == nil {
		return true
	}
	best, allow := -1, true
	check := func(patterns []string, isAllow bool) {
		for _, p := range patterns {
			if p == "" || !matches(p, path) {
				continue
			}
			score := specificity(p)
			if score > best || (score == best && isAllow && !allow) {
				best, allow = score, isAllow
			}
		}
	}
	check(g.Disallow, false)
	check(g.Allow, true)
	return best == -1 || allow
}

// CrawlDelay returns the delay for the best agent group, or zero.
func (r Rules) CrawlDelay(userAgent string) time.Duration {
	if g := r.group(userAgent); g != nil && g.CrawlDelay != nil {
		return *g.CrawlDelay
	}
	return 0
}

// Limit returns the stricter of limit and the crawl delay for userAgent.
func (r Rules) Limit(userAgent string, limit rate.Limit) rate.Limit {
	d := r.CrawlDelay(userAgent)
	if d <= 0 {
		return limit
	}
	if every := rate.Every(d); every < limit {
		return every
	}
	return limit
}

// group picks the longest agent token contained in userAgent, with "*" as the
// weakest match. First group wins ties.
func (r Rules) group(userAgent string) *Group {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	idx, best := -1, -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			score := -1
			switch {
			case a == "":
			case a == "*":
				score = 0
			case strings.Contains(ua, a):
				score = len(a)
			}
			if score > best {
				idx, best = i, score
			}
		}
	}
	if idx < 0 {
		return nil
	}
	return &r.Groups[idx]
}

// matches anchors pattern at the start of path. '*' matches any run and a
// trailing '$' anchors the end.
func matches(pattern, path string) bool {
	end := strings.HasSuffix(pattern, "$")
	pattern = strings.TrimSuffix(pattern, "$")
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	expr := "^" + strings.Join(parts, ".*")
	if end {
		expr += "$"
	}
	re, err := regexp.Compile(expr)
	return err == nil && re.MatchString(path)
}

func specificity(pattern string) int {
	return len(strings.ReplaceAll(strings.TrimSuffix(pattern, "$"), "*", ""))
}
