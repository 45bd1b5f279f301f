package musebrowse_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musebrowse/musebrowse"
	"github.com/musebrowse/musebrowse/pkg/artworks"
	pkgerrors "github.com/musebrowse/musebrowse/pkg/errors"
	"github.com/musebrowse/musebrowse/pkg/query"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.yaml")
	ctx := context.Background()

	aic := newFakeCatalog(artworks.SourceAIC, 5)
	session := newTestSession(t, 2, 10, aic)

	_, err := session.LoadPage(ctx, query.Filters{}, 1, false)
	require.NoError(t, err)
	_, err = session.LoadDetail(ctx, artworks.NewID(artworks.SourceAIC, "1"))
	require.NoError(t, err)
	require.NoError(t, session.SaveTo(path))

	// A fresh session with no catalogs serves the saved records.
	restored, err := musebrowse.New(musebrowse.WithSnapshot(path))
	require.NoError(t, err)

	assert.Equal(t, 5, restored.Collection().Len())
	art, found := restored.Collection().Get(artworks.NewID(artworks.SourceAIC, "1"))
	require.True(t, found)
	assert.True(t, art.Detailed(), "detail promotion survives the round trip")
	assert.Equal(t, "acquired 1950", art.Detail.Provenance)
}

func TestSnapshot_MergePreservesFirstSeen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.yaml")

	saved := newTestSession(t, 2, 10, newFakeCatalog(artworks.SourceAIC, 3))
	_, err := saved.LoadPage(context.Background(), query.Filters{}, 1, false)
	require.NoError(t, err)
	require.NoError(t, saved.SaveTo(path))

	// Load into a session that already holds one of the identities.
	session := newTestSession(t, 2, 10)
	existing := &artworks.Artwork{
		ID:            artworks.NewID(artworks.SourceAIC, "1"),
		Source:        artworks.SourceAIC,
		SourceLocalID: "1",
		Title:         "Already here",
	}
	session.Collection().Merge([]*artworks.Artwork{existing})

	require.NoError(t, session.LoadFrom(path))
	assert.Equal(t, 3, session.Collection().Len())

	got, found := session.Collection().Get(existing.ID)
	require.True(t, found)
	assert.Equal(t, "Already here", got.Title, "summary snapshot records never overwrite")
}

func TestSnapshot_MissingFile(t *testing.T) {
	session := newTestSession(t, 2, 10)

	err := session.LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	// New tolerates a configured snapshot that does not exist yet.
	_, err = musebrowse.New(musebrowse.WithSnapshot(filepath.Join(t.TempDir(), "fresh.yaml")))
	assert.NoError(t, err)
}

func TestSnapshot_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{unclosed: ["), 0o644))

	session := newTestSession(t, 2, 10)
	err := session.LoadFrom(path)
	require.Error(t, err)

	var parseErr *pkgerrors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestSnapshot_NoPathConfigured(t *testing.T) {
	session := newTestSession(t, 2, 10)

	assert.ErrorIs(t, session.SaveTo(""), pkgerrors.ErrInvalidArgument)
	assert.ErrorIs(t, session.LoadFrom(""), pkgerrors.ErrInvalidArgument)
}
