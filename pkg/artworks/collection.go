package artworks

import (
	"sync"
)

// Collection is the merged, ordered set of artworks accumulated over a
// browsing session. Records are unique by ID: list-level merges append
// unknown identities in the order received and never overwrite known ones.
// Promotion is the single replacement path.
//
// The map index makes existence checks O(1); the slice preserves insertion
// order for pagination.
type Collection struct {
	mu    sync.RWMutex
	order []ID
	byID  map[ID]*Artwork
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		byID: make(map[ID]*Artwork),
	}
}

// Merge appends incoming records whose IDs are not yet present, preserving
// the incoming order. Records with known IDs are skipped, not overwritten.
// Returns the number of records added.
func (c *Collection) Merge(incoming []*Artwork) int {
	if len(incoming) == 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, art := range incoming {
		if art == nil || art.ID == "" {
			continue
		}
		if _, exists := c.byID[art.ID]; exists {
			continue
		}
		c.byID[art.ID] = art
		c.order = append(c.order, art.ID)
		added++
	}
	return added
}

// Promote replaces the record stored at the artwork's ID with the given
// detail-level record, keeping its position in the collection. If the ID is
// unknown the record is appended instead.
func (c *Collection) Promote(detail *Artwork) {
	if detail == nil || detail.ID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[detail.ID]; exists {
		c.byID[detail.ID] = detail
		return
	}
	c.byID[detail.ID] = detail
	c.order = append(c.order, detail.ID)
}

// Get returns the record stored at id and whether it exists.
func (c *Collection) Get(id ID) (*Artwork, bool) {
	c.mu.RLock()
	art, ok := c.byID[id]
	c.mu.RUnlock()
	return art, ok
}

// Exists checks if a record exists without returning it.
func (c *Collection) Exists(id ID) bool {
	c.mu.RLock()
	_, exists := c.byID[id]
	c.mu.RUnlock()
	return exists
}

// Len returns the number of records.
func (c *Collection) Len() int {
	c.mu.RLock()
	length := len(c.order)
	c.mu.RUnlock()
	return length
}

// List returns all records in insertion order.
func (c *Collection) List() []*Artwork {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]*Artwork, 0, len(c.order))
	for _, id := range c.order {
		list = append(list, c.byID[id])
	}
	return list
}

// Clear removes all records.
func (c *Collection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = c.order[:0]
	for id := range c.byID {
		delete(c.byID, id)
	}
}
