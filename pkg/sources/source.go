// Package sources defines the uniform interface the browsing core uses to
// query heterogeneous museum catalog APIs, and a registry for the configured
// catalogs.
//
// Each catalog client normalizes its museum's records into artworks.Artwork;
// field mapping, year extraction, and medium cleanup live in the clients, not
// in the core.
package sources

import (
	"context"
	"sort"
	"sync"

	"github.com/musebrowse/musebrowse/pkg/artworks"
)

// Query is a normalized list request sent to a catalog. Batch pages are the
// large provider-side pages; display paging is a core concern the catalogs
// never see.
type Query struct {
	Text     string
	Artist   string
	Medium   string
	DateFrom *int
	DateTo   *int

	BatchPage int // 1-based
	BatchSize int
}

// ListResult carries one batch page of normalized records plus the
// provider's estimate of the total matching records, when it reports one.
// A zero TotalHint means the provider gave no estimate.
type ListResult struct {
	Artworks  []*artworks.Artwork
	TotalHint int
}

// Catalog is a museum catalog API behind a uniform query interface.
type Catalog interface {
	// Source returns the catalog's source identifier.
	Source() artworks.Source

	// List fetches one batch page of normalized artwork summaries.
	// Transport and HTTP failures surface as *errors.APIError.
	List(ctx context.Context, q Query) (*ListResult, error)

	// Detail fetches the full record for a source-local identifier.
	// Unknown identifiers surface as errors.ErrNotFound.
	Detail(ctx context.Context, localID string) (*artworks.Artwork, error)
}

// Registry is a thread-safe container for the configured catalogs.
type Registry struct {
	mu       sync.RWMutex
	catalogs map[artworks.Source]Catalog
}

// NewRegistry creates an empty catalog registry.
func NewRegistry() *Registry {
	return &Registry{
		catalogs: make(map[artworks.Source]Catalog),
	}
}

// Get returns the catalog registered for a source.
func (r *Registry) Get(source artworks.Source) (Catalog, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, found := r.catalogs[source]
	return c, found
}

// Set registers a catalog under its own source identifier.
func (r *Registry) Set(c Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalogs[c.Source()] = c
}

// Delete removes the catalog for a source.
func (r *Registry) Delete(source artworks.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.catalogs, source)
}

// Len returns the number of registered catalogs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.catalogs)
}

// List returns the registered catalogs sorted by source identifier.
// The sort order is what makes fan-out merges deterministic: one catalog's
// full result set always precedes the other's.
func (r *Registry) List() []Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Catalog, 0, len(r.catalogs))
	for _, c := range r.catalogs {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Source() < list[j].Source()
	})
	return list
}

// Enabled returns the catalogs a filter's source dimension selects: the one
// named catalog, or every registered catalog for SourceAll.
func (r *Registry) Enabled(source artworks.Source) []Catalog {
	if source == artworks.SourceAll || source == "" {
		return r.List()
	}
	if c, ok := r.Get(source); ok {
		return []Catalog{c}
	}
	return nil
}
