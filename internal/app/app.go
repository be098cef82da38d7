package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/scpscraper/internal/aggregate"
	"github.com/hyperifyio/scpscraper/internal/cache"
	"github.com/hyperifyio/scpscraper/internal/drive"
	"github.com/hyperifyio/scpscraper/internal/extract"
	"github.com/hyperifyio/scpscraper/internal/fetch"
	"github.com/hyperifyio/scpscraper/internal/names"
	"github.com/hyperifyio/scpscraper/internal/record"
	"github.com/hyperifyio/scpscraper/internal/robots"
	"github.com/hyperifyio/scpscraper/internal/store"
)

// ErrDisallowed marks identifiers skipped because robots.txt forbids them.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Range is a half-open identifier interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len is the number of identifiers in r.
func (r Range) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Result is the outcome for one identifier.
type Result struct {
	ID     int
	Record *record.Record
	HTML   string
	Tags   []string
	Err    error
}

// App scrapes one wiki origin with a shared fetch client, name resolver and
// optional record store.
type App struct {
	cfg      Config
	client   *fetch.Client
	site     *fetch.Site
	names    *names.Resolver
	rules    robots.Rules
	store    *store.Store
	drive    *drive.Drive
	progress int
}

// New wires the fetch stack, the optional record store and remote drive. An
// unmounted drive is a hard error when remote copy is requested.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	a := &App{cfg: cfg, progress: 100}

	if cfg.DriveCopy {
		a.drive = &drive.Drive{Mount: cfg.DriveMount}
		if err := a.drive.Mounted(); err != nil {
			return nil, err
		}
	}

	var pc *cache.PageCache
	if !cfg.NoCache && cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		pc = &cache.PageCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	a.client = &fetch.Client{
		HTTPClient:        newHTTPClient(cfg.Timeout),
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       cfg.MaxAttempts,
		PerRequestTimeout: cfg.Timeout,
		Cache:             pc,
		CacheNotFound:     true,
		MaxConcurrent:     cfg.Concurrency,
		Limiter:           rate.NewLimiter(limit, 1),
	}
	a.site = &fetch.Site{Client: a.client, BaseURL: cfg.BaseURL}
	a.names = &names.Resolver{Fetcher: a.site}

	if !cfg.IgnoreRobots {
		a.loadRobots(ctx, pc)
	}

	if cfg.DBPath != "" {
		s, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.store = s
	}
	return a, nil
}

// Close releases the record store.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// loadRobots fetches robots.txt once. Any failure allows everything.
func (a *App) loadRobots(ctx context.Context, pc *cache.PageCache) {
	f := &robots.Fetcher{HTTPClient: a.client.HTTPClient, Cache: pc, UserAgent: a.cfg.UserAgent}
	rules, src, err := f.Get(ctx, robots.URL(a.site.Origin()))
	if err != nil {
		log.Warn().Err(err).Msg("robots.txt unavailable; allowing all")
		return
	}
	a.rules = rules
	lim := a.client.Limiter.Limit()
	if next := rules.Limit(a.cfg.UserAgent, lim); next != lim {
		a.client.Limiter.SetLimit(next)
		log.Info().Dur("crawl_delay", rules.CrawlDelay(a.cfg.UserAgent)).Msg("rate limited by robots.txt")
	}
	log.Debug().Stringer("source", src).Int("groups", len(rules.Groups)).Msg("robots.txt loaded")
}

func (a *App) allowed(id int) bool {
	path := strings.TrimPrefix(a.site.PageURL(id), a.site.Origin())
	return a.rules.Allowed(a.cfg.UserAgent, path)
}

func (a *App) extractor() *extract.Extractor {
	return &extract.Extractor{Origin: a.site.Origin()}
}

// Get fetches, extracts and names a single record.
func (a *App) Get(ctx context.Context, id int) (*record.Record, error) {
	if !a.allowed(id) {
		return nil, fmt.Errorf("scp-%s: %w", record.PadID(id), ErrDisallowed)
	}
	doc, err := a.site.Page(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := a.extractor().Extract(doc, id)
	if err != nil {
		return nil, fmt.Errorf("extract scp-%s: %w", record.PadID(id), err)
	}
	if name, ok := a.names.Name(ctx, id); ok {
		rec.Name = &name
	}
	return rec, nil
}

// Name returns the series name for id.
func (a *App) Name(ctx context.Context, id int) (string, bool) {
	return a.names.Name(ctx, id)
}

func (a *App) scrapeOne(ctx context.Context, id int) Result {
	rec, err := a.Get(ctx, id)
	return Result{ID: id, Record: rec, Err: err}
}

func (a *App) captureOne(ctx context.Context, id int) Result {
	if !a.allowed(id) {
		return Result{ID: id, Err: ErrDisallowed}
	}
	doc, err := a.site.Page(ctx, id)
	if err != nil {
		return Result{ID: id, Err: err}
	}
	block, err := extract.ContentHTML(doc)
	if err != nil {
		return Result{ID: id, Err: err}
	}
	return Result{ID: id, HTML: block, Tags: extract.Tags(doc)}
}

// collect runs work over r on a bounded pool and returns results in
// identifier order. Slots never scheduled because ctx ended stay nil.
func (a *App) collect(ctx context.Context, r Range, work func(context.Context, int) Result) []*Result {
	results := make([]*Result, r.Len())
	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)
	for i := range results {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res := work(ctx, r.Start+i)
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *App) newReport(mode string, r Range) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Version:   BuildVersion,
		Commit:    BuildCommit,
		Mode:      mode,
		BaseURL:   a.site.Origin(),
		Start:     r.Start,
		End:       r.End,
		Dataset:   a.cfg.Dataset,
		Tags:      a.cfg.Tags,
		StartedAt: time.Now().UTC(),
	}
}

func (a *App) options() aggregate.Options {
	return aggregate.Options{Tags: a.cfg.Tags, Dataset: a.cfg.Dataset, Markdown: a.cfg.Markdown}
}

// tally records a failed result. It reports whether res carried an error.
func (a *App) tally(rep *Report, res *Result) bool {
	switch {
	case res.Err == nil:
		return false
	case errors.Is(res.Err, ErrDisallowed):
		rep.Skipped++
		log.Debug().Int("id", res.ID).Msg("skipped by robots.txt")
	case errors.Is(res.Err, context.Canceled):
		rep.Canceled = true
	default:
		rep.Failed++
		rep.FailedIDs = append(rep.FailedIDs, res.ID)
		log.Warn().Int("id", res.ID).Err(res.Err).Msg("scrape failed")
	}
	return true
}

func (a *App) logProgress(i, total int) {
	if a.progress > 0 && (i+1)%a.progress == 0 {
		log.Info().Int("done", i+1).Int("total", total).Msg("progress")
	}
}

// Scrape extracts sections for every identifier in r into the four stream
// files. Per-identifier failures are logged and counted; only output errors
// and cancellation are returned. A canceled run still flushes what it
// collected and returns the context error alongside the report.
func (a *App) Scrape(ctx context.Context, r Range) (*Report, error) {
	if a.drive != nil {
		if err := a.drive.Mounted(); err != nil {
			return nil, err
		}
	}
	dir := a.cfg.OutputDir
	if err := aggregate.Reset(dir, aggregate.Sections...); err != nil {
		return nil, err
	}
	rep := a.newReport("sections", r)
	acc := aggregate.New(a.options())
	log.Info().Int("start", r.Start).Int("end", r.End).Int("concurrency", a.cfg.Concurrency).Msg("scrape started")

	results := a.collect(ctx, r, a.scrapeOne)
	for i, res := range results {
		if res == nil {
			rep.Canceled = true
			continue
		}
		a.logProgress(i, len(results))
		if a.tally(rep, res) {
			continue
		}
		rep.Processed++
		if !acc.Accept(res.Record) {
			rep.Filtered++
			continue
		}
		if a.store != nil {
			if err := a.store.Save(context.WithoutCancel(ctx), res.Record); err != nil {
				return rep, err
			}
		}
		acc.Add(res.Record)
		rep.Written++
	}
	return a.finish(ctx, rep, acc, aggregate.Sections)
}

// ScrapeHTML captures the raw content block of every identifier in r into
// scp-html.txt.
func (a *App) ScrapeHTML(ctx context.Context, r Range) (*Report, error) {
	if a.drive != nil {
		if err := a.drive.Mounted(); err != nil {
			return nil, err
		}
	}
	dir := a.cfg.OutputDir
	if err := aggregate.Reset(dir, aggregate.HTML); err != nil {
		return nil, err
	}
	rep := a.newReport("html", r)
	acc := aggregate.New(a.options())
	log.Info().Int("start", r.Start).Int("end", r.End).Msg("raw capture started")

	results := a.collect(ctx, r, a.captureOne)
	for i, res := range results {
		if res == nil {
			rep.Canceled = true
			continue
		}
		a.logProgress(i, len(results))
		if a.tally(rep, res) {
			continue
		}
		rep.Processed++
		ok, err := acc.AddHTML(res.ID, res.Tags, res.HTML)
		if err != nil {
			rep.Failed++
			rep.FailedIDs = append(rep.FailedIDs, res.ID)
			log.Warn().Int("id", res.ID).Err(err).Msg("render failed")
			continue
		}
		if !ok {
			rep.Filtered++
			continue
		}
		rep.Written++
	}
	return a.finish(ctx, rep, acc, []aggregate.Stream{aggregate.HTML})
}

// finish flushes, dedups and digests the streams, writes the manifest and
// summary, then copies everything to the drive unless the run was canceled.
func (a *App) finish(ctx context.Context, rep *Report, acc *aggregate.Accumulator, streams []aggregate.Stream) (*Report, error) {
	dir := a.cfg.OutputDir
	if err := acc.Flush(dir); err != nil {
		return rep, err
	}
	var outputs []string
	for _, s := range streams {
		path := filepath.Join(dir, s.FileName())
		n, err := aggregate.Dedup(path, "", aggregate.Delimiter)
		if err != nil {
			return rep, fmt.Errorf("dedup %s: %w", s.FileName(), err)
		}
		rep.Removed += n
		d, err := digestFile(path)
		if err != nil {
			return rep, fmt.Errorf("digest %s: %w", s.FileName(), err)
		}
		rep.Files = append(rep.Files, d)
		outputs = append(outputs, path)
	}
	if ctx.Err() != nil {
		rep.Canceled = true
	}
	rep.FinishedAt = time.Now().UTC()
	mpath, err := writeManifest(dir, rep)
	if err != nil {
		return rep, err
	}
	spath, err := writeSummary(dir, rep)
	if err != nil {
		return rep, err
	}
	outputs = append(outputs, mpath, spath)

	log.Info().
		Str("run", rep.RunID).
		Int("processed", rep.Processed).
		Int("written", rep.Written).
		Int("failed", rep.Failed).
		Int("filtered", rep.Filtered).
		Bool("canceled", rep.Canceled).
		Msg("scrape finished")

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	if a.drive != nil {
		if err := a.drive.Mounted(); err != nil {
			return rep, err
		}
		for _, p := range outputs {
			if err := a.drive.Copy(p); err != nil {
				return rep, err
			}
		}
	}
	return rep, nil
}
