// Package artworks defines the normalized artwork records shared by every
// catalog source, and the merged collection they accumulate into.
package artworks

import (
	"strings"

	"github.com/musebrowse/musebrowse/pkg/errors"
)

// Source identifies the museum catalog an artwork originates from.
type Source string

// Known catalog sources.
const (
	// SourceAIC is the Art Institute of Chicago.
	SourceAIC Source = "aic"
	// SourceMet is the Metropolitan Museum of Art.
	SourceMet Source = "met"
	// SourceAll is a filter-only pseudo-source matching every catalog.
	// It is never a valid record source.
	SourceAll Source = "all"
)

// String returns the string representation of a source.
func (s Source) String() string {
	return string(s)
}

// Sources returns the catalog sources records can originate from.
// SourceAll is excluded: it exists only as a filter value.
func Sources() []Source {
	return []Source{SourceAIC, SourceMet}
}

// IsValid returns true if the source is a real catalog source.
func (s Source) IsValid() bool {
	for _, known := range Sources() {
		if s == known {
			return true
		}
	}
	return false
}

// idSeparator joins the source prefix and the source-local identifier.
const idSeparator = ":"

// ID is a globally unique artwork identity of the form "<source>:<localID>".
// The source prefix routes detail lookups to the owning catalog.
type ID string

// NewID builds an artwork ID from a source and its local identifier.
func NewID(source Source, localID string) ID {
	return ID(string(source) + idSeparator + localID)
}

// String returns the string representation of an ID.
func (id ID) String() string {
	return string(id)
}

// Parse splits the ID into its source and source-local identifier.
// It returns an UnknownSourceError if the prefix names no known catalog.
func (id ID) Parse() (Source, string, error) {
	prefix, local, found := strings.Cut(string(id), idSeparator)
	if !found || local == "" {
		return "", "", errors.NewUnknownSourceError(string(id), prefix)
	}
	source := Source(prefix)
	if !source.IsValid() {
		return "", "", errors.NewUnknownSourceError(string(id), prefix)
	}
	return source, local, nil
}

// Artwork is a normalized artwork record. List endpoints produce summary
// fields only; a record is promoted by replacement once its detail endpoint
// has been fetched. Records are immutable once constructed.
type Artwork struct {
	ID            ID     `json:"id" yaml:"id"`
	Source        Source `json:"source" yaml:"source"`
	SourceLocalID string `json:"source_local_id" yaml:"source_local_id"`

	Title       string `json:"title" yaml:"title"`
	Artist      string `json:"artist,omitempty" yaml:"artist,omitempty"`
	Year        *int   `json:"year,omitempty" yaml:"year,omitempty"`
	Medium      string `json:"medium,omitempty" yaml:"medium,omitempty"`
	ImageURL    string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	ThumbURL    string `json:"thumb_url,omitempty" yaml:"thumb_url,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Detail is nil until the record has been promoted.
	Detail *Detail `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Detail holds the enrichment fields a catalog's detail endpoint provides
// beyond the list summary.
type Detail struct {
	Provenance        string   `json:"provenance,omitempty" yaml:"provenance,omitempty"`
	Techniques        []string `json:"techniques,omitempty" yaml:"techniques,omitempty"`
	Materials         []string `json:"materials,omitempty" yaml:"materials,omitempty"`
	Colors            []string `json:"colors,omitempty" yaml:"colors,omitempty"`
	ExhibitionHistory []string `json:"exhibition_history,omitempty" yaml:"exhibition_history,omitempty"`
}

// Detailed reports whether the record has been promoted to detail level.
func (a *Artwork) Detailed() bool {
	return a != nil && a.Detail != nil
}
