// Package query defines the filter dimensions a browsing request carries and
// their canonical cache fingerprint.
//
// Every dimension that affects provider results is a field on Filters, and
// Fingerprint() writes every field in a fixed key order. Keeping the two in
// one place (guarded by a reflection test) prevents the cache-key drift where
// a forgotten dimension causes false cache hits.
package query

import (
	"fmt"
	"strings"

	"github.com/musebrowse/musebrowse/pkg/artworks"
)

// Filters enumerates every filter dimension of a browsing request.
// Pagination is deliberately absent: page numbers are part of the fetch
// cache key, not the fingerprint.
type Filters struct {
	// Text is a free-text keyword matched against title, artist, and
	// description.
	Text string
	// Artist is matched against the artist field only.
	Artist string
	// Medium is matched against the medium field only.
	Medium string
	// DateFrom and DateTo bound the artwork year, inclusive. A nil bound
	// is unbounded on that side.
	DateFrom *int
	DateTo   *int
	// Source restricts results to one catalog, or SourceAll for every
	// catalog.
	Source artworks.Source
}

// Fingerprint is the canonical, order-independent encoding of a filter set.
// Two requests with equal fingerprints are the same cacheable unit.
type Fingerprint string

// String returns the string representation of a fingerprint.
func (f Fingerprint) String() string {
	return string(f)
}

// Normalized returns a copy with text dimensions lowercased and trimmed and
// an empty source coerced to SourceAll, so that equivalent requests share a
// fingerprint.
func (f Filters) Normalized() Filters {
	f.Text = strings.ToLower(strings.TrimSpace(f.Text))
	f.Artist = strings.ToLower(strings.TrimSpace(f.Artist))
	f.Medium = strings.ToLower(strings.TrimSpace(f.Medium))
	if f.Source == "" {
		f.Source = artworks.SourceAll
	}
	return f
}

// Fingerprint encodes every filter dimension in a fixed key order.
//
// The encoding lists each field explicitly; the TestFingerprintCoversAllFields
// reflection test fails compilation-adjacent when a dimension is added to
// Filters without extending this encoding.
func (f Filters) Fingerprint() Fingerprint {
	n := f.Normalized()

	var b strings.Builder
	b.WriteString("artist=")
	b.WriteString(n.Artist)
	b.WriteString("|from=")
	b.WriteString(encodeBound(n.DateFrom))
	b.WriteString("|medium=")
	b.WriteString(n.Medium)
	b.WriteString("|source=")
	b.WriteString(string(n.Source))
	b.WriteString("|text=")
	b.WriteString(n.Text)
	b.WriteString("|to=")
	b.WriteString(encodeBound(n.DateTo))
	return Fingerprint(b.String())
}

// IsZero reports whether no filter dimension is set.
func (f Filters) IsZero() bool {
	n := f.Normalized()
	return n.Text == "" && n.Artist == "" && n.Medium == "" &&
		n.DateFrom == nil && n.DateTo == nil && n.Source == artworks.SourceAll
}

// encodeBound renders an optional year bound; nil means unbounded.
func encodeBound(bound *int) string {
	if bound == nil {
		return ""
	}
	return fmt.Sprintf("%d", *bound)
}
