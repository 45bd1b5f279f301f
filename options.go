package musebrowse

import (
	"time"

	"github.com/musebrowse/musebrowse/pkg/errors"
	"github.com/musebrowse/musebrowse/pkg/paging"
	"github.com/musebrowse/musebrowse/pkg/sources"
)

// Option is a function that configures a Session.
type Option func(*session) error

// config holds session configuration assembled from options.
type config struct {
	displayPageSize int
	batchPageSize   int
	detailTTL       time.Duration
	defaultCatalogs bool
	snapshotPath    string
}

// defaultConfig returns the built-in configuration.
func defaultConfig() *config {
	return &config{
		displayPageSize: paging.DisplayPageSize,
		batchPageSize:   paging.BatchPageSize,
		detailTTL:       detailTTLDefault,
	}
}

// WithCatalog registers a catalog provider with the session.
func WithCatalog(c sources.Catalog) Option {
	return func(s *session) error {
		if c == nil {
			return errors.New("catalog cannot be nil")
		}
		s.registry.Set(c)
		return nil
	}
}

// WithDefaultCatalogs registers the built-in museum catalogs
// (Art Institute of Chicago and Metropolitan Museum of Art).
func WithDefaultCatalogs() Option {
	return func(s *session) error {
		s.config.defaultCatalogs = true
		return nil
	}
}

// WithPageSizes overrides the display and batch page sizes. The batch size
// must be a positive multiple of the display size.
func WithPageSizes(displaySize, batchSize int) Option {
	return func(s *session) error {
		if _, err := paging.BatchPage(1, displaySize, batchSize); err != nil {
			return err
		}
		s.config.displayPageSize = displaySize
		s.config.batchPageSize = batchSize
		return nil
	}
}

// WithDetailTTL overrides how long detail records stay cached.
func WithDetailTTL(ttl time.Duration) Option {
	return func(s *session) error {
		if ttl <= 0 {
			return errors.NewValidationError("detailTTL", ttl, "must be positive")
		}
		s.config.detailTTL = ttl
		return nil
	}
}

// WithSnapshot loads the merged collection from path at session start when
// the file exists, and makes it the default target for Session.SaveTo.
func WithSnapshot(path string) Option {
	return func(s *session) error {
		if path == "" {
			return errors.NewValidationError("snapshot", path, "path cannot be empty")
		}
		s.config.snapshotPath = path
		return nil
	}
}
