// Package names resolves display names from the series index pages.
package names

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"

	"github.com/hyperifyio/scpscraper/internal/extract"
	"github.com/hyperifyio/scpscraper/internal/fetch"
	"github.com/hyperifyio/scpscraper/internal/record"
)

// BlockSize is the number of identifiers listed on one series page.
const BlockSize = 1000

// IndexFetcher returns the parsed series page for a block.
type IndexFetcher interface {
	Index(ctx context.Context, block int) (*html.Node, error)
}

// Resolver looks up display names. Each block's index page is fetched at most
// once per Resolver, including failed fetches, so a long run over one block
// costs a single request. It is safe for concurrent use.
type Resolver struct {
	Fetcher IndexFetcher

	mu     sync.Mutex
	blocks map[int]map[int]string
	group  singleflight.Group
}

// Name returns the display name for id. ok is false when the block page is
// missing, the lookup failed, the id is not listed, or the entry is access
// denied.
func (r *Resolver) Name(ctx context.Context, id int) (string, bool) {
	if id < 0 {
		return "", false
	}
	listing := r.block(ctx, id/BlockSize)
	name, ok := listing[id]
	if !ok || name == "" || strings.Contains(name, record.AccessDenied) {
		return "", false
	}
	return name, true
}

func (r *Resolver) block(ctx context.Context, block int) map[int]string {
	r.mu.Lock()
	if listing, ok := r.blocks[block]; ok {
		r.mu.Unlock()
		return listing
	}
	r.mu.Unlock()

	v, _, _ := r.group.Do(strconv.Itoa(block), func() (any, error) {
		r.mu.Lock()
		if listing, ok := r.blocks[block]; ok {
			r.mu.Unlock()
			return listing, nil
		}
		r.mu.Unlock()
		listing := r.load(ctx, block)
		if ctx.Err() != nil {
			// do not memoize a lookup cut short by cancellation
			return listing, nil
		}
		r.mu.Lock()
		if r.blocks == nil {
			r.blocks = make(map[int]map[int]string)
		}
		r.blocks[block] = listing
		r.mu.Unlock()
		return listing, nil
	})
	listing, _ := v.(map[int]string)
	return listing
}

func (r *Resolver) load(ctx context.Context, block int) map[int]string {
	if r.Fetcher == nil {
		return map[int]string{}
	}
	doc, err := r.Fetcher.Index(ctx, block)
	switch {
	case errors.Is(err, fetch.ErrNotFound):
		log.Warn().Int("block", block).Msg("series page unavailable")
		return map[int]string{}
	case err != nil:
		log.Warn().Err(err).Int("block", block).Msg("series page fetch failed")
		return map[int]string{}
	}
	listing := extract.ParseSeries(doc)
	log.Debug().Int("block", block).Int("entries", len(listing)).Msg("series page loaded")
	return listing
}
