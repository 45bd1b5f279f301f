// Package filter computes the user-visible display page from the full merged
// collection and the current filter state. It always recomputes totals from
// the collection rather than trusting provider-reported counts, which keeps
// pagination resilient to partial fetches.
package filter

import (
	"strings"

	"github.com/musebrowse/musebrowse/pkg/artworks"
	"github.com/musebrowse/musebrowse/pkg/paging"
	"github.com/musebrowse/musebrowse/pkg/query"
)

// Page is one display page of filtered results.
type Page struct {
	Items      []*artworks.Artwork
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// SelectPage applies the filters to the collection as a conjunction and
// slices out the requested 1-based display page. Out-of-range pages yield an
// empty page, not an error.
func SelectPage(collection *artworks.Collection, filters query.Filters, displayPage, displayPageSize int) (Page, error) {
	// Reuse the batch mapper's validation so display page errors are
	// rejected identically everywhere.
	if _, err := paging.BatchPage(displayPage, displayPageSize, displayPageSize); err != nil {
		return Page{}, err
	}

	matched := Apply(collection.List(), filters)

	start, end := paging.PageBounds(displayPage, displayPageSize, len(matched))
	return Page{
		Items:      matched[start:end],
		Page:       displayPage,
		PageSize:   displayPageSize,
		TotalItems: len(matched),
		TotalPages: paging.TotalPages(len(matched), displayPageSize),
	}, nil
}

// Apply returns the records matching the filter conjunction, in collection
// order.
func Apply(records []*artworks.Artwork, filters query.Filters) []*artworks.Artwork {
	n := filters.Normalized()

	matched := make([]*artworks.Artwork, 0, len(records))
	for _, art := range records {
		if matches(art, n) {
			matched = append(matched, art)
		}
	}
	return matched
}

// matches checks a record against normalized filters. All predicates are
// AND-ed; each unset dimension passes.
func matches(art *artworks.Artwork, n query.Filters) bool {
	return matchesSource(art, n) &&
		matchesText(art, n) &&
		matchesArtist(art, n) &&
		matchesMedium(art, n) &&
		matchesDateRange(art, n)
}

// matchesSource keeps records from the requested catalog, or all of them.
func matchesSource(art *artworks.Artwork, n query.Filters) bool {
	if n.Source == artworks.SourceAll {
		return true
	}
	return art.Source == n.Source
}

// matchesText is a case-insensitive substring match over title OR artist OR
// description; any field containing the text matches.
func matchesText(art *artworks.Artwork, n query.Filters) bool {
	if n.Text == "" {
		return true
	}
	return containsFold(art.Title, n.Text) ||
		containsFold(art.Artist, n.Text) ||
		containsFold(art.Description, n.Text)
}

// matchesArtist is a case-insensitive substring match on the artist field.
func matchesArtist(art *artworks.Artwork, n query.Filters) bool {
	if n.Artist == "" {
		return true
	}
	return containsFold(art.Artist, n.Artist)
}

// matchesMedium is a case-insensitive substring match on the medium field.
func matchesMedium(art *artworks.Artwork, n query.Filters) bool {
	if n.Medium == "" {
		return true
	}
	return containsFold(art.Medium, n.Medium)
}

// matchesDateRange checks the year against [DateFrom, DateTo] inclusive.
// A record with no year fails whenever any bound is set; fuzzy year
// extraction belongs to the provider adapters, not here.
func matchesDateRange(art *artworks.Artwork, n query.Filters) bool {
	if n.DateFrom == nil && n.DateTo == nil {
		return true
	}
	if art.Year == nil {
		return false
	}
	if n.DateFrom != nil && *art.Year < *n.DateFrom {
		return false
	}
	if n.DateTo != nil && *art.Year > *n.DateTo {
		return false
	}
	return true
}

// containsFold reports whether s contains substr, case-insensitively.
// substr is already lowercased by Filters.Normalized.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
