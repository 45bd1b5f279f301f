package artworks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musebrowse/musebrowse/pkg/artworks"
	pkgerrors "github.com/musebrowse/musebrowse/pkg/errors"
)

func TestID_Parse(t *testing.T) {
	id := artworks.NewID(artworks.SourceAIC, "27992")
	assert.Equal(t, artworks.ID("aic:27992"), id)

	source, local, err := id.Parse()
	require.NoError(t, err)
	assert.Equal(t, artworks.SourceAIC, source)
	assert.Equal(t, "27992", local)
}

func TestID_ParseKeepsSeparatorsInLocalID(t *testing.T) {
	source, local, err := artworks.ID("met:obj:42").Parse()
	require.NoError(t, err)
	assert.Equal(t, artworks.SourceMet, source)
	assert.Equal(t, "obj:42", local)
}

func TestID_ParseRejectsMalformed(t *testing.T) {
	for _, id := range []artworks.ID{"", "27992", "aic:", "louvre:42", "all:42"} {
		_, _, err := id.Parse()
		assert.ErrorIs(t, err, pkgerrors.ErrUnknownSource, "id %q", id)
	}
}

func TestSource_IsValid(t *testing.T) {
	assert.True(t, artworks.SourceAIC.IsValid())
	assert.True(t, artworks.SourceMet.IsValid())
	assert.False(t, artworks.SourceAll.IsValid(), "all is filter-only")
	assert.False(t, artworks.Source("louvre").IsValid())
}

func TestArtwork_Detailed(t *testing.T) {
	var nilArt *artworks.Artwork
	assert.False(t, nilArt.Detailed())

	summary := &artworks.Artwork{ID: "aic:1"}
	assert.False(t, summary.Detailed())

	promoted := &artworks.Artwork{ID: "aic:1", Detail: &artworks.Detail{}}
	assert.True(t, promoted.Detailed())
}
