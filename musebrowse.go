// Package musebrowse aggregates artwork records from multiple museum catalog
// APIs into a single paginated, filterable browsing session.
//
// A Session owns the merged collection, the fetch-deduplication cache, and
// the pagination mapping between the small display pages shown to the user
// and the larger batch pages requested from providers. Catalog providers are
// external collaborators behind the sources.Catalog interface.
//
// Example usage:
//
//	session, err := musebrowse.New(musebrowse.WithDefaultCatalogs())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := session.LoadPage(ctx, query.Filters{Text: "rembrandt"}, 1, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, art := range result.Items {
//	    fmt.Println(art.ID, art.Title)
//	}
package musebrowse

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/musebrowse/musebrowse/internal/sources/aic"
	"github.com/musebrowse/musebrowse/internal/sources/met"
	"github.com/musebrowse/musebrowse/pkg/artworks"
	"github.com/musebrowse/musebrowse/pkg/errors"
	"github.com/musebrowse/musebrowse/pkg/fetchcache"
	"github.com/musebrowse/musebrowse/pkg/filter"
	"github.com/musebrowse/musebrowse/pkg/query"
	"github.com/musebrowse/musebrowse/pkg/sources"
)

// Result is one display page of the merged collection, plus any non-fatal
// per-provider failures from the fan-out fetch that produced it. A result
// with failures still renders: the surviving providers' records are on the
// page, and the failed providers stay re-fetchable on retry.
type Result struct {
	filter.Page

	// Failures holds the providers that could not be fetched for this
	// request, keyed by source. Empty on a fully successful load.
	Failures map[artworks.Source]error

	// SourceTotals is the session's current per-source total estimate for
	// the active query, from provider hints. Display pagination does not
	// depend on it; TotalItems/TotalPages are recomputed from the merged
	// collection.
	SourceTotals map[artworks.Source]int
}

// Err aggregates the per-provider failures into a single error, or returns
// nil when every provider succeeded. The error unwraps to the individual
// provider errors, so errors.Is sees through it to ErrRateLimited and
// friends.
func (r *Result) Err() error {
	failures := make(map[string]error, len(r.Failures))
	for source, err := range r.Failures {
		failures[source.String()] = err
	}
	if fetchErr := errors.NewFetchError(failures); fetchErr != nil {
		return fetchErr
	}
	return nil
}

// EstimatedTotal returns the combined provider-reported total estimate.
func (r *Result) EstimatedTotal() int {
	total := 0
	for _, n := range r.SourceTotals {
		total += n
	}
	return total
}

// Session is a single logical browsing session over the configured catalogs.
// All mutations of the merged collection and the fetch cache happen through
// one Session; create one per browsing context and reset it explicitly.
type Session interface {
	// LoadPage returns the requested display page for the filter set,
	// fetching missing batch pages from the enabled providers first.
	// forceRefresh bypasses the fetch cache unconditionally.
	LoadPage(ctx context.Context, filters query.Filters, displayPage int, forceRefresh bool) (*Result, error)

	// LoadDetail returns the detail-level record for an artwork identity,
	// consulting the detail cache and the merged collection before
	// dispatching to the owning provider.
	LoadDetail(ctx context.Context, id artworks.ID) (*artworks.Artwork, error)

	// Invalidate clears the merged collection and every cache, starting a
	// fresh session.
	Invalidate()

	// Collection returns the session's merged collection.
	Collection() *artworks.Collection

	// SaveTo writes a snapshot of the merged collection to path.
	SaveTo(path string) error

	// LoadFrom merges a previously saved snapshot into the collection.
	LoadFrom(path string) error
}

// session is the internal implementation of the Session interface.
type session struct {
	config *config

	registry   *sources.Registry
	collection *artworks.Collection
	fetches    *fetchcache.Cache
	details    *gocache.Cache
	flight     singleflight.Group

	// mu guards the pagination estimates; merges are serialized per fetch
	// on the calling goroutine, not inside provider callbacks.
	mu       sync.Mutex
	activeFP query.Fingerprint
	totals   map[artworks.Source]int
}

// New creates a browsing session with the given options.
func New(opts ...Option) (Session, error) {
	cfg := defaultConfig()

	s := &session{
		config:     cfg,
		registry:   sources.NewRegistry(),
		collection: artworks.NewCollection(),
		fetches:    fetchcache.New(),
		totals:     make(map[artworks.Source]int),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, errors.WrapValidation("option", err)
		}
	}

	if cfg.defaultCatalogs {
		s.registry.Set(aic.NewClient())
		s.registry.Set(met.NewClient())
	}

	s.details = gocache.New(cfg.detailTTL, 2*cfg.detailTTL)

	if cfg.snapshotPath != "" {
		if err := s.LoadFrom(cfg.snapshotPath); err != nil && !errors.IsNotFound(err) {
			return nil, err
		}
	}

	return s, nil
}

// Collection returns the session's merged collection.
func (s *session) Collection() *artworks.Collection {
	return s.collection
}

// Invalidate clears all session state: the merged collection, the fetch
// cache, the detail cache, and the pagination estimates.
func (s *session) Invalidate() {
	s.collection.Clear()
	s.fetches.Invalidate()
	s.details.Flush()

	s.mu.Lock()
	s.activeFP = ""
	s.totals = make(map[artworks.Source]int)
	s.mu.Unlock()
}

// detailTTLDefault is how long promoted detail records stay in the TTL cache.
const detailTTLDefault = 30 * time.Minute
