// Package fetchcache records which batch pages have already been fetched for
// a given filter fingerprint, so a browsing session never re-issues a network
// call for data it already holds.
//
// Entries are marked per source: when a fan-out fetch partially fails, the
// surviving provider's contribution is cached while the failed provider stays
// re-fetchable without a forced refresh.
package fetchcache

import (
	"sync"

	"github.com/musebrowse/musebrowse/pkg/artworks"
	"github.com/musebrowse/musebrowse/pkg/query"
)

// Key identifies one cacheable fetch unit: a canonical filter fingerprint
// plus the batch page number.
type Key struct {
	Fingerprint query.Fingerprint
	BatchPage   int
}

// Cache tracks fetched batch pages per source. It grows monotonically and is
// cleared only by Invalidate. A miss is not an error; it is the normal
// signal to fetch.
type Cache struct {
	mu      sync.RWMutex
	fetched map[Key]map[artworks.Source]bool
}

// New creates an empty fetch cache.
func New() *Cache {
	return &Cache{
		fetched: make(map[Key]map[artworks.Source]bool),
	}
}

// Fetched reports whether the batch page has been fetched from the source.
func (c *Cache) Fetched(fp query.Fingerprint, batchPage int, source artworks.Source) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetched[Key{fp, batchPage}][source]
}

// MarkFetched records a successful fetch. Idempotent: repeat calls with the
// same arguments are no-ops beyond the first.
func (c *Cache) MarkFetched(fp query.Fingerprint, batchPage int, source artworks.Source) {
	key := Key{fp, batchPage}

	c.mu.Lock()
	defer c.mu.Unlock()

	sources, ok := c.fetched[key]
	if !ok {
		sources = make(map[artworks.Source]bool)
		c.fetched[key] = sources
	}
	sources[source] = true
}

// Len returns the number of distinct (fingerprint, batchPage) keys recorded.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.fetched)
}

// Invalidate clears every record. Equivalent to starting a fresh session.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.fetched {
		delete(c.fetched, key)
	}
}
