package musebrowse

import (
	"context"
	"fmt"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/musebrowse/musebrowse/pkg/artworks"
	"github.com/musebrowse/musebrowse/pkg/errors"
	"github.com/musebrowse/musebrowse/pkg/filter"
	"github.com/musebrowse/musebrowse/pkg/logging"
	"github.com/musebrowse/musebrowse/pkg/paging"
	"github.com/musebrowse/musebrowse/pkg/query"
	"github.com/musebrowse/musebrowse/pkg/sources"
)

// LoadPage returns the requested display page, fetching the backing batch
// page from every enabled provider whose contribution is not already cached.
//
// Provider fetches fan out concurrently, but all merges happen on the calling
// goroutine afterwards, in registry order: one provider's full result set
// always precedes the other's, so repeated loads interleave records
// deterministically. A provider failure never discards the other provider's
// results; it is reported in Result.Failures and that provider's cache entry
// stays unmarked so a retry re-attempts it without forceRefresh.
func (s *session) LoadPage(ctx context.Context, filters query.Filters, displayPage int, forceRefresh bool) (*Result, error) {
	filters = filters.Normalized()
	if filters.Source != artworks.SourceAll && !filters.Source.IsValid() {
		return nil, errors.NewUnknownSourceError("", string(filters.Source))
	}

	batchPage, err := paging.BatchPage(displayPage, s.config.displayPageSize, s.config.batchPageSize)
	if err != nil {
		return nil, err
	}

	fp := filters.Fingerprint()
	s.setActive(fp)

	// Decide which providers need a network call. A miss is the normal
	// signal to fetch, never an error.
	var pending []sources.Catalog
	for _, c := range s.registry.Enabled(filters.Source) {
		if forceRefresh || !s.fetches.Fetched(fp, batchPage, c.Source()) {
			pending = append(pending, c)
		}
	}

	type outcome struct {
		source artworks.Source
		result *sources.ListResult
		err    error
	}

	// Fan out; outcomes land by index so the merge below runs in registry
	// order regardless of completion order.
	outcomes := make([]outcome, len(pending))
	var wg sync.WaitGroup
	for i, c := range pending {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.fetchBatch(ctx, c, filters, fp, batchPage)
			outcomes[i] = outcome{source: c.Source(), result: result, err: err}
		}()
	}
	wg.Wait()

	// Single-writer merge on this goroutine, never inside provider
	// callbacks.
	failures := make(map[artworks.Source]error)
	for _, out := range outcomes {
		if out.err != nil {
			failures[out.source] = out.err
			logging.Ctx(ctx).Warn().
				Err(out.err).
				Str("source", out.source.String()).
				Int("batch_page", batchPage).
				Msg("Provider fetch failed; rendering partial results")
			continue
		}

		added := s.collection.Merge(out.result.Artworks)
		s.fetches.MarkFetched(fp, batchPage, out.source)
		if out.result.TotalHint > 0 {
			s.recordTotal(fp, out.source, out.result.TotalHint)
		}

		logging.Ctx(ctx).Debug().
			Str("source", out.source.String()).
			Int("batch_page", batchPage).
			Int("received", len(out.result.Artworks)).
			Int("added", added).
			Msg("Merged batch page")
	}

	// The visible page is always recomputed from the full merged
	// collection; provider-reported totals are estimates only.
	page, err := filter.SelectPage(s.collection, filters, displayPage, s.config.displayPageSize)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Page:         page,
		SourceTotals: s.snapshotTotals(),
	}
	if len(failures) > 0 {
		result.Failures = failures
	}
	return result, nil
}

// LoadDetail returns the detail-level record for an artwork, promoting it
// into the merged collection on first fetch.
func (s *session) LoadDetail(ctx context.Context, id artworks.ID) (*artworks.Artwork, error) {
	source, localID, err := id.Parse()
	if err != nil {
		return nil, err
	}

	catalog, ok := s.registry.Get(source)
	if !ok {
		return nil, errors.NewUnknownSourceError(string(id), string(source))
	}

	if cached, found := s.details.Get(id.String()); found {
		return cached.(*artworks.Artwork), nil
	}

	if art, found := s.collection.Get(id); found && art.Detailed() {
		s.details.Set(id.String(), art, gocache.DefaultExpiration)
		return art, nil
	}

	v, err, _ := s.flight.Do("detail|"+id.String(), func() (any, error) {
		return catalog.Detail(ctx, localID)
	})
	if err != nil {
		return nil, err
	}

	art := v.(*artworks.Artwork)
	s.collection.Promote(art)
	s.details.Set(id.String(), art, gocache.DefaultExpiration)

	logging.Ctx(ctx).Debug().
		Str("artwork_id", id.String()).
		Msg("Promoted artwork to detail")
	return art, nil
}

// fetchBatch issues one provider list call, deduplicated by
// fingerprint+batchPage+source: a second load for the same batch while the
// first is in flight awaits the existing call instead of duplicating it.
func (s *session) fetchBatch(ctx context.Context, c sources.Catalog, filters query.Filters, fp query.Fingerprint, batchPage int) (*sources.ListResult, error) {
	key := fmt.Sprintf("%s|%d|%s", fp, batchPage, c.Source())

	v, err, _ := s.flight.Do(key, func() (any, error) {
		return c.List(ctx, sources.Query{
			Text:      filters.Text,
			Artist:    filters.Artist,
			Medium:    filters.Medium,
			DateFrom:  filters.DateFrom,
			DateTo:    filters.DateTo,
			BatchPage: batchPage,
			BatchSize: s.config.batchPageSize,
		})
	})
	if err != nil {
		return nil, err
	}
	return v.(*sources.ListResult), nil
}

// setActive records the fingerprint of the most recent load request.
func (s *session) setActive(fp query.Fingerprint) {
	s.mu.Lock()
	s.activeFP = fp
	s.mu.Unlock()
}

// recordTotal updates a per-source total estimate, but only while the
// fetch's fingerprint is still the active query: a stale fetch's records
// merge (valid data), its pagination state does not.
func (s *session) recordTotal(fp query.Fingerprint, source artworks.Source, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fp != s.activeFP {
		return
	}
	s.totals[source] = total
}

// snapshotTotals copies the current per-source estimates.
func (s *session) snapshotTotals() map[artworks.Source]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[artworks.Source]int, len(s.totals))
	for source, n := range s.totals {
		totals[source] = n
	}
	return totals
}
