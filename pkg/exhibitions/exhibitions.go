// Package exhibitions persists user-defined named collections of artwork
// identities. The store is independent of the browsing core: it consumes
// artwork IDs and has no cache or pagination concerns of its own.
package exhibitions

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/musebrowse/musebrowse/pkg/artworks"
	"github.com/musebrowse/musebrowse/pkg/errors"
)

// Exhibition is a named, user-curated list of artwork identities.
type Exhibition struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	ArtworkIDs  []artworks.ID `json:"artworkIds"`
}

// Contains reports whether the exhibition references the artwork.
func (e *Exhibition) Contains(id artworks.ID) bool {
	for _, existing := range e.ArtworkIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// Store persists exhibitions in a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the exhibitions database at path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, errors.WrapIO("create", path, err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exhibitions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		artwork_ids TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_exhibitions_updated ON exhibitions(updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Create adds a new exhibition and returns it.
func (s *Store) Create(title, description string) (*Exhibition, error) {
	if title == "" {
		return nil, errors.NewValidationError("title", title, "cannot be empty")
	}

	now := time.Now().UTC()
	ex := &Exhibition{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		ArtworkIDs:  []artworks.ID{},
	}

	if err := s.write(ex, true); err != nil {
		return nil, err
	}
	return ex, nil
}

// Get returns the exhibition with the given id.
func (s *Store) Get(id string) (*Exhibition, error) {
	row := s.db.QueryRow(`
		SELECT id, title, description, created_at, updated_at, artwork_ids
		FROM exhibitions WHERE id = ?
	`, id)

	ex, err := scan(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("exhibition", id)
	}
	if err != nil {
		return nil, errors.WrapIO("read", "exhibitions", err)
	}
	return ex, nil
}

// List returns all exhibitions, most recently updated first.
func (s *Store) List() ([]*Exhibition, error) {
	rows, err := s.db.Query(`
		SELECT id, title, description, created_at, updated_at, artwork_ids
		FROM exhibitions ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, errors.WrapIO("read", "exhibitions", err)
	}
	defer func() { _ = rows.Close() }()

	var list []*Exhibition
	for rows.Next() {
		ex, err := scan(rows)
		if err != nil {
			return nil, errors.WrapIO("read", "exhibitions", err)
		}
		list = append(list, ex)
	}
	return list, rows.Err()
}

// Update rewrites an exhibition's title and description.
func (s *Store) Update(id, title, description string) (*Exhibition, error) {
	ex, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if title != "" {
		ex.Title = title
	}
	ex.Description = description
	ex.UpdatedAt = time.Now().UTC()

	if err := s.write(ex, false); err != nil {
		return nil, err
	}
	return ex, nil
}

// Delete removes an exhibition.
func (s *Store) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM exhibitions WHERE id = ?`, id)
	if err != nil {
		return errors.WrapIO("delete", "exhibitions", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("exhibition", id)
	}
	return nil
}

// AddArtwork appends an artwork identity. Idempotent: adding an identity
// already present is a no-op.
func (s *Store) AddArtwork(id string, artworkID artworks.ID) (*Exhibition, error) {
	if _, _, err := artworkID.Parse(); err != nil {
		return nil, err
	}

	ex, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if ex.Contains(artworkID) {
		return ex, nil
	}

	ex.ArtworkIDs = append(ex.ArtworkIDs, artworkID)
	ex.UpdatedAt = time.Now().UTC()
	if err := s.write(ex, false); err != nil {
		return nil, err
	}
	return ex, nil
}

// RemoveArtwork drops an artwork identity if present.
func (s *Store) RemoveArtwork(id string, artworkID artworks.ID) (*Exhibition, error) {
	ex, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	kept := ex.ArtworkIDs[:0]
	for _, existing := range ex.ArtworkIDs {
		if existing != artworkID {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(ex.ArtworkIDs) {
		return ex, nil
	}

	ex.ArtworkIDs = kept
	ex.UpdatedAt = time.Now().UTC()
	if err := s.write(ex, false); err != nil {
		return nil, err
	}
	return ex, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// write upserts an exhibition row, serializing the artwork ids as JSON.
func (s *Store) write(ex *Exhibition, create bool) error {
	ids, err := json.Marshal(ex.ArtworkIDs)
	if err != nil {
		return errors.WrapParse("json", "artwork_ids", err)
	}

	if create {
		_, err = s.db.Exec(`
			INSERT INTO exhibitions (id, title, description, created_at, updated_at, artwork_ids)
			VALUES (?, ?, ?, ?, ?, ?)
		`, ex.ID, ex.Title, ex.Description, ex.CreatedAt, ex.UpdatedAt, string(ids))
	} else {
		_, err = s.db.Exec(`
			UPDATE exhibitions SET title = ?, description = ?, updated_at = ?, artwork_ids = ?
			WHERE id = ?
		`, ex.Title, ex.Description, ex.UpdatedAt, string(ids), ex.ID)
	}
	if err != nil {
		return errors.WrapIO("write", "exhibitions", err)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scan.
type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*Exhibition, error) {
	var ex Exhibition
	var description sql.NullString
	var ids string

	if err := row.Scan(&ex.ID, &ex.Title, &description, &ex.CreatedAt, &ex.UpdatedAt, &ids); err != nil {
		return nil, err
	}
	ex.Description = description.String

	if err := json.Unmarshal([]byte(ids), &ex.ArtworkIDs); err != nil {
		return nil, err
	}
	if ex.ArtworkIDs == nil {
		ex.ArtworkIDs = []artworks.ID{}
	}
	return &ex, nil
}
