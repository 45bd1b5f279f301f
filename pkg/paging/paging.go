// Package paging converts between the small display pages shown to the user
// and the larger batch pages requested from catalog providers, and computes
// total-page counts. All functions are pure.
package paging

import (
	"github.com/musebrowse/musebrowse/pkg/errors"
)

// Default page sizes. The batch size must be a multiple of the display size
// so that every display page maps onto exactly one batch page.
const (
	DisplayPageSize = 20
	BatchPageSize   = 100
)

// BatchPage maps a 1-based display page onto the 1-based batch page that
// contains it: ceil(displayPage*displaySize/batchSize).
func BatchPage(displayPage, displaySize, batchSize int) (int, error) {
	if displayPage < 1 {
		return 0, errors.NewValidationError("displayPage", displayPage, "must be >= 1")
	}
	if displaySize < 1 {
		return 0, errors.NewValidationError("displayPageSize", displaySize, "must be >= 1")
	}
	if batchSize < displaySize || batchSize%displaySize != 0 {
		return 0, errors.NewValidationError("batchPageSize", batchSize, "must be a positive multiple of the display page size")
	}
	return (displayPage*displaySize + batchSize - 1) / batchSize, nil
}

// TotalPages returns ceil(totalItems/pageSize). The convention throughout
// musebrowse is 0 pages for an empty collection, for the combined view and
// per-source views alike.
func TotalPages(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize < 1 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// PageBounds returns the clamped [start, end) slice bounds for a 1-based
// page over n items. Out-of-range pages yield an empty window.
func PageBounds(page, pageSize, n int) (start, end int) {
	if page < 1 || pageSize < 1 || n <= 0 {
		return 0, 0
	}
	start = (page - 1) * pageSize
	if start >= n {
		return n, n
	}
	end = start + pageSize
	if end > n {
		end = n
	}
	return start, end
}
