package musebrowse

import (
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/musebrowse/musebrowse/pkg/artworks"
	"github.com/musebrowse/musebrowse/pkg/errors"
	"github.com/musebrowse/musebrowse/pkg/logging"
)

// snapshot is the on-disk form of a saved collection.
type snapshot struct {
	Version  string              `yaml:"version"`
	SavedAt  time.Time           `yaml:"saved_at"`
	Artworks []*artworks.Artwork `yaml:"artworks"`
}

const snapshotVersion = "1"

// SaveTo writes the merged collection to path as YAML. An empty path falls
// back to the session's configured snapshot path.
func (s *session) SaveTo(path string) error {
	if path == "" {
		path = s.config.snapshotPath
	}
	if path == "" {
		return errors.NewValidationError("path", path, "no snapshot path configured")
	}

	snap := snapshot{
		Version:  snapshotVersion,
		SavedAt:  time.Now().UTC(),
		Artworks: s.collection.List(),
	}

	data, err := yaml.Marshal(snap)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}

	// Write to a temp file and rename so a crash never leaves a torn
	// snapshot behind.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.WrapIO("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapIO("write", path, err)
	}

	logging.Default().Debug().
		Str("path", path).
		Int("artworks", len(snap.Artworks)).
		Msg("Saved collection snapshot")
	return nil
}

// LoadFrom reads a snapshot and merges it into the collection. Records
// already present keep their first-seen data; detail-level snapshot records
// for known identities are promoted.
func (s *session) LoadFrom(path string) error {
	if path == "" {
		path = s.config.snapshotPath
	}
	if path == "" {
		return errors.NewValidationError("path", path, "no snapshot path configured")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.NewNotFoundError("snapshot", path)
	}
	if err != nil {
		return errors.WrapIO("read", path, err)
	}

	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return errors.WrapParse("yaml", path, err)
	}

	var merged, promoted int
	for _, art := range snap.Artworks {
		if art == nil {
			continue
		}
		if _, _, err := art.ID.Parse(); err != nil {
			return err
		}
		if added := s.collection.Merge([]*artworks.Artwork{art}); added == 1 {
			merged++
			continue
		}
		if art.Detailed() {
			s.collection.Promote(art)
			promoted++
		}
	}

	logging.Default().Debug().
		Str("path", path).
		Int("merged", merged).
		Int("promoted", promoted).
		Msg("Loaded collection snapshot")
	return nil
}
