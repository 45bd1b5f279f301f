package musebrowse_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musebrowse/musebrowse"
	"github.com/musebrowse/musebrowse/pkg/artworks"
	pkgerrors "github.com/musebrowse/musebrowse/pkg/errors"
	"github.com/musebrowse/musebrowse/pkg/query"
	"github.com/musebrowse/musebrowse/pkg/sources"
)

// fakeCatalog is an in-memory catalog with a fixed number of records. It
// counts calls so tests can assert on fetch deduplication, and can be made
// to fail or block on demand.
type fakeCatalog struct {
	source artworks.Source
	total  int

	// totalsByText overrides the reported total per query text.
	totalsByText map[string]int

	mu        sync.Mutex
	listErr   error
	block     chan struct{}
	blockOnce chan struct{}

	listCalls   atomic.Int64
	detailCalls atomic.Int64
}

func newFakeCatalog(source artworks.Source, total int) *fakeCatalog {
	return &fakeCatalog{source: source, total: total}
}

func (f *fakeCatalog) Source() artworks.Source { return f.source }

func (f *fakeCatalog) failWith(err error) {
	f.mu.Lock()
	f.listErr = err
	f.mu.Unlock()
}

func (f *fakeCatalog) List(_ context.Context, q sources.Query) (*sources.ListResult, error) {
	f.listCalls.Add(1)

	f.mu.Lock()
	err := f.listErr
	block := f.block
	if block == nil {
		block = f.blockOnce
		f.blockOnce = nil
	}
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}

	total := f.total
	if t, ok := f.totalsByText[q.Text]; ok {
		total = t
	}

	var items []*artworks.Artwork
	start := (q.BatchPage - 1) * q.BatchSize
	for i := start; i < start+q.BatchSize && i < f.total; i++ {
		items = append(items, f.artwork(i))
	}
	return &sources.ListResult{Artworks: items, TotalHint: total}, nil
}

func (f *fakeCatalog) Detail(_ context.Context, localID string) (*artworks.Artwork, error) {
	f.detailCalls.Add(1)

	i, err := strconv.Atoi(localID)
	if err != nil || i < 1 || i > f.total {
		return nil, pkgerrors.NewNotFoundError("artwork", localID)
	}

	art := f.artwork(i - 1)
	art.Detail = &artworks.Detail{Provenance: "acquired 1950"}
	return art, nil
}

func (f *fakeCatalog) artwork(i int) *artworks.Artwork {
	localID := strconv.Itoa(i + 1)
	return &artworks.Artwork{
		ID:            artworks.NewID(f.source, localID),
		Source:        f.source,
		SourceLocalID: localID,
		Title:         fmt.Sprintf("%s artwork %s", f.source, localID),
		Artist:        "Test Artist",
	}
}

func newTestSession(t *testing.T, displaySize, batchSize int, catalogs ...sources.Catalog) musebrowse.Session {
	t.Helper()

	opts := []musebrowse.Option{musebrowse.WithPageSizes(displaySize, batchSize)}
	for _, c := range catalogs {
		opts = append(opts, musebrowse.WithCatalog(c))
	}

	session, err := musebrowse.New(opts...)
	require.NoError(t, err)
	return session
}

func TestLoadPage_FreshQueryFetchesOneBatchPerProvider(t *testing.T) {
	aic := newFakeCatalog(artworks.SourceAIC, 30)
	met := newFakeCatalog(artworks.SourceMet, 30)
	session := newTestSession(t, 2, 10, aic, met)

	result, err := session.LoadPage(context.Background(), query.Filters{}, 1, false)
	require.NoError(t, err)

	assert.EqualValues(t, 1, aic.listCalls.Load())
	assert.EqualValues(t, 1, met.listCalls.Load())
	assert.Len(t, result.Items, 2)
	assert.Equal(t, 20, result.TotalItems, "one batch page from each catalog")
	assert.Empty(t, result.Failures)
	assert.NoError(t, result.Err())
}

func TestLoadPage_PagesWithinBatchHitCache(t *testing.T) {
	aic := newFakeCatalog(artworks.SourceAIC, 30)
	met := newFakeCatalog(artworks.SourceMet, 30)
	session := newTestSession(t, 2, 10, aic, met)

	ctx := context.Background()
	_, err := session.LoadPage(ctx, query.Filters{}, 1, false)
	require.NoError(t, err)

	// Display pages 2 through 5 live inside batch page 1: no new fetches.
	for page := 2; page <= 5; page++ {
		result, err := session.LoadPage(ctx, query.Filters{}, page, false)
		require.NoError(t, err)
		assert.Len(t, result.Items, 2)
	}
	assert.EqualValues(t, 1, aic.listCalls.Load())
	assert.EqualValues(t, 1, met.listCalls.Load())

	// Display page 6 crosses into batch page 2.
	_, err = session.LoadPage(ctx, query.Filters{}, 6, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, aic.listCalls.Load())
	assert.EqualValues(t, 2, met.listCalls.Load())
}

func TestLoadPage_DistinctFiltersFetchSeparately(t *testing.T) {
	aic := newFakeCatalog(artworks.SourceAIC, 30)
	session := newTestSession(t, 2, 10, aic)

	ctx := context.Background()
	_, err := session.LoadPage(ctx, query.Filters{Text: "monet"}, 1, false)
	require.NoError(t, err)
	_, err = session.LoadPage(ctx, query.Filters{Text: "degas"}, 1, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, aic.listCalls.Load())

	// Same filters modulo case and whitespace share a fingerprint.
	_, err = session.LoadPage(ctx, query.Filters{Text: "  MONET "}, 1, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, aic.listCalls.Load())
}

func TestLoadPage_SourceFilterQueriesOnlyThatCatalog(t *testing.T) {
	aic := newFakeCatalog(artworks.SourceAIC, 30)
	met := newFakeCatalog(artworks.SourceMet, 30)
	session := newTestSession(t, 2, 10, aic, met)

	result, err := session.LoadPage(context.Background(), query.Filters{Source: artworks.SourceMet}, 1, false)
	require.NoError(t, err)

	assert.EqualValues(t, 0, aic.listCalls.Load())
	assert.EqualValues(t, 1, met.listCalls.Load())
	for _, art := range result.Items {
		assert.Equal(t, artworks.SourceMet, art.Source)
	}
}

func TestLoadPage_UnknownSourceRejected(t *testing.T) {
	session := newTestSession(t, 2, 10, newFakeCatalog(artworks.SourceAIC, 10))

	_, err := session.LoadPage(context.Background(), query.Filters{Source: "louvre"}, 1, false)
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownSource)
}

func TestLoadPage_InvalidPageRejected(t *testing.T) {
	session := newTestSession(t, 2, 10, newFakeCatalog(artworks.SourceAIC, 10))

	_, err := session.LoadPage(context.Background(), query.Filters{}, 0, false)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)

	_, err = session.LoadPage(context.Background(), query.Filters{}, -3, false)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
}

func TestLoadPage_PartialProviderFailure(t *testing.T) {
	aic := newFakeCatalog(artworks.SourceAIC, 30)
	met := newFakeCatalog(artworks.SourceMet, 30)
	met.failWith(pkgerrors.NewAPIError("met", 503, "upstream down"))
	session := newTestSession(t, 2, 10, aic, met)

	ctx := context.Background()
	result, err := session.LoadPage(ctx, query.Filters{}, 1, false)
	require.NoError(t, err, "partial failure still renders")

	assert.Equal(t, 10, result.TotalItems, "surviving catalog's records render")
	require.Contains(t, result.Failures, artworks.SourceMet)
	assert.ErrorIs(t, result.Err(), pkgerrors.ErrProviderUnavailable)

	// The failed catalog stays re-fetchable without forceRefresh; the
	// successful one stays cached.
	met.failWith(nil)
	result, err = session.LoadPage(ctx, query.Filters{}, 1, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, aic.listCalls.Load())
	assert.EqualValues(t, 2, met.listCalls.Load())
	assert.Empty(t, result.Failures)
	assert.Equal(t, 20, result.TotalItems)
}

func TestLoadPage_ForceRefreshBypassesCache(t *testing.T) {
	aic := newFakeCatalog(artworks.SourceAIC, 30)
	session := newTestSession(t, 2, 10, aic)

	ctx := context.Background()
	_, err := session.LoadPage(ctx, query.Filters{}, 1, false)
	require.NoError(t, err)
	result, err := session.LoadPage(ctx, query.Filters{}, 1, true)
	require.NoError(t, err)

	assert.EqualValues(t, 2, aic.listCalls.Load())
	assert.Equal(t, 10, result.TotalItems, "refetch merges idempotently")
}

func TestLoadPage_ConcurrentLoadsShareOneFetch(t *testing.T) {
	aic := newFakeCatalog(artworks.SourceAIC, 30)
	release := make(chan struct{})
	aic.block = release
	session := newTestSession(t, 2, 10, aic)

	ctx := context.Background()
	var wg sync.WaitGroup
	for n := 0; n < 2; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := session.LoadPage(ctx, query.Filters{}, 1, false)
			assert.NoError(t, err)
			assert.Len(t, result.Items, 2)
		}()
	}

	// Let both loads reach the in-flight fetch before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, aic.listCalls.Load(), "concurrent identical loads share one provider call")
}

func TestLoadPage_DeterministicMergeOrder(t *testing.T) {
	aic := newFakeCatalog(artworks.SourceAIC, 3)
	met := newFakeCatalog(artworks.SourceMet, 3)
	session := newTestSession(t, 10, 10, aic, met)

	result, err := session.LoadPage(context.Background(), query.Filters{}, 1, false)
	require.NoError(t, err)
	require.Len(t, result.Items, 6)

	for i, art := range result.Items {
		want := artworks.SourceAIC
		if i >= 3 {
			want = artworks.SourceMet
		}
		assert.Equal(t, want, art.Source, "item %d", i)
	}
}

func TestLoadPage_StaleFetchKeepsRecordsButDropsTotals(t *testing.T) {
	aic := newFakeCatalog(artworks.SourceAIC, 30)
	aic.totalsByText = map[string]int{"monet": 500, "degas": 70}
	release := make(chan struct{})
	aic.blockOnce = release
	session := newTestSession(t, 2, 10, aic)

	ctx := context.Background()

	// First load stalls inside the provider call.
	done := make(chan *musebrowse.Result, 1)
	go func() {
		result, err := session.LoadPage(ctx, query.Filters{Text: "monet"}, 1, false)
		assert.NoError(t, err)
		done <- result
	}()
	require.Eventually(t, func() bool {
		aic.mu.Lock()
		defer aic.mu.Unlock()
		return aic.blockOnce == nil
	}, time.Second, time.Millisecond, "stalled load reaches the provider")

	// A new query supersedes it and completes first.
	result, err := session.LoadPage(ctx, query.Filters{Text: "degas"}, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 70, result.SourceTotals[artworks.SourceAIC])

	// The stale fetch resolves: its records merge, its total hint must not
	// clobber the active query's estimate.
	close(release)
	stale := <-done
	assert.Equal(t, 10, session.Collection().Len(), "stale results still merge")
	assert.NotEqual(t, 500, stale.SourceTotals[artworks.SourceAIC])

	result, err = session.LoadPage(ctx, query.Filters{Text: "degas"}, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 70, result.SourceTotals[artworks.SourceAIC])
}

func TestLoadPage_EstimatedTotal(t *testing.T) {
	aic := newFakeCatalog(artworks.SourceAIC, 120)
	met := newFakeCatalog(artworks.SourceMet, 80)
	session := newTestSession(t, 2, 10, aic, met)

	result, err := session.LoadPage(context.Background(), query.Filters{}, 1, false)
	require.NoError(t, err)

	assert.Equal(t, 200, result.EstimatedTotal())
	assert.Equal(t, 20, result.TotalItems, "display totals come from the merged collection, not the hints")
}

func TestInvalidate(t *testing.T) {
	aic := newFakeCatalog(artworks.SourceAIC, 30)
	session := newTestSession(t, 2, 10, aic)

	ctx := context.Background()
	_, err := session.LoadPage(ctx, query.Filters{}, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 10, session.Collection().Len())

	session.Invalidate()
	assert.Equal(t, 0, session.Collection().Len())

	result, err := session.LoadPage(ctx, query.Filters{}, 1, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, aic.listCalls.Load(), "invalidate forgets fetched batches")
	assert.Equal(t, 10, result.TotalItems)
}

func TestLoadDetail_PromotesAndCaches(t *testing.T) {
	aic := newFakeCatalog(artworks.SourceAIC, 30)
	session := newTestSession(t, 2, 10, aic)

	ctx := context.Background()
	_, err := session.LoadPage(ctx, query.Filters{}, 1, false)
	require.NoError(t, err)

	id := artworks.NewID(artworks.SourceAIC, "1")
	art, err := session.LoadDetail(ctx, id)
	require.NoError(t, err)
	assert.True(t, art.Detailed())
	assert.EqualValues(t, 1, aic.detailCalls.Load())

	// Promotion replaced the summary record in place.
	inCollection, found := session.Collection().Get(id)
	require.True(t, found)
	assert.True(t, inCollection.Detailed())

	// Second lookup hits the detail cache.
	_, err = session.LoadDetail(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, aic.detailCalls.Load())
}

func TestLoadDetail_NotFound(t *testing.T) {
	session := newTestSession(t, 2, 10, newFakeCatalog(artworks.SourceAIC, 5))

	_, err := session.LoadDetail(context.Background(), artworks.NewID(artworks.SourceAIC, "999"))
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestLoadDetail_UnknownSource(t *testing.T) {
	session := newTestSession(t, 2, 10, newFakeCatalog(artworks.SourceAIC, 5))

	_, err := session.LoadDetail(context.Background(), artworks.ID("louvre:42"))
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownSource)

	// A valid source with no registered catalog is equally terminal.
	_, err = session.LoadDetail(context.Background(), artworks.NewID(artworks.SourceMet, "42"))
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownSource)
}
