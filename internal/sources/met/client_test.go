package met

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musebrowse/musebrowse/pkg/artworks"
	pkgerrors "github.com/musebrowse/musebrowse/pkg/errors"
	"github.com/musebrowse/musebrowse/pkg/sources"
)

// newServer fakes the Met API: a search endpoint returning ids 1..n and an
// objects endpoint synthesizing a payload per id.
func newServer(t *testing.T, total int, searchCalls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/search":
			if searchCalls != nil {
				searchCalls.Add(1)
			}
			ids := make([]string, total)
			for i := range ids {
				ids[i] = fmt.Sprintf("%d", i+1)
			}
			fmt.Fprintf(w, `{"total": %d, "objectIDs": [%s]}`, total, strings.Join(ids, ","))
		case strings.HasPrefix(r.URL.Path, "/objects/"):
			var id int
			_, err := fmt.Sscanf(r.URL.Path, "/objects/%d", &id)
			require.NoError(t, err)
			if id > total {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message": "ObjectID not found"}`)
				return
			}
			fmt.Fprintf(w, `{
				"objectID": %d,
				"title": "Object %d",
				"artistDisplayName": "Artist %d",
				"objectBeginDate": %d,
				"objectDate": "ca. %d",
				"medium": "Oil on canvas",
				"primaryImage": "https://images.metmuseum.org/full/%d.jpg",
				"primaryImageSmall": "https://images.metmuseum.org/small/%d.jpg",
				"creditLine": "Bequest, 1929",
				"classification": "Paintings",
				"culture": "French"
			}`, id, id, id, 1800+id, 1800+id, id, id)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestClient_List(t *testing.T) {
	server := newServer(t, 12, nil)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	t.Run("first batch page", func(t *testing.T) {
		result, err := client.List(context.Background(), sources.Query{
			Text:      "monet",
			BatchPage: 1,
			BatchSize: 5,
		})
		require.NoError(t, err)

		assert.Equal(t, 12, result.TotalHint, "total comes from the object id list")
		require.Len(t, result.Artworks, 5)
		assert.Equal(t, artworks.ID("met:1"), result.Artworks[0].ID, "id-list order preserved")
		assert.Equal(t, artworks.ID("met:5"), result.Artworks[4].ID)
		require.NotNil(t, result.Artworks[0].Year)
		assert.Equal(t, 1801, *result.Artworks[0].Year)
	})

	t.Run("last partial batch page", func(t *testing.T) {
		result, err := client.List(context.Background(), sources.Query{
			Text:      "monet",
			BatchPage: 3,
			BatchSize: 5,
		})
		require.NoError(t, err)
		assert.Len(t, result.Artworks, 2)
	})

	t.Run("page beyond the id list is empty", func(t *testing.T) {
		result, err := client.List(context.Background(), sources.Query{
			Text:      "monet",
			BatchPage: 9,
			BatchSize: 5,
		})
		require.NoError(t, err)
		assert.Empty(t, result.Artworks)
		assert.Equal(t, 12, result.TotalHint)
	})
}

func TestClient_SearchCaching(t *testing.T) {
	var searchCalls atomic.Int64
	server := newServer(t, 12, &searchCalls)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	for page := 1; page <= 3; page++ {
		_, err := client.List(context.Background(), sources.Query{
			Text:      "monet",
			BatchPage: page,
			BatchSize: 5,
		})
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), searchCalls.Load(), "consecutive batch pages reuse one search")

	// A different query misses the search cache.
	_, err := client.List(context.Background(), sources.Query{
		Text:      "vermeer",
		BatchPage: 1,
		BatchSize: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), searchCalls.Load())
}

func TestClient_Detail(t *testing.T) {
	server := newServer(t, 12, nil)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	art, err := client.Detail(context.Background(), "3")
	require.NoError(t, err)

	require.True(t, art.Detailed())
	assert.Equal(t, "Bequest, 1929", art.Detail.Provenance)
	assert.Equal(t, []string{"Paintings"}, art.Detail.Techniques)
	assert.Equal(t, []string{"Oil on canvas"}, art.Detail.Materials)
}

func TestClient_DetailNotFound(t *testing.T) {
	server := newServer(t, 2, nil)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.Detail(context.Background(), "99")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	_, err = client.Detail(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	// A numeric prefix with trailing garbage must not resolve to the
	// prefix's object.
	_, err = client.Detail(context.Background(), "1abc")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	_, err = client.Detail(context.Background(), "-3")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestSearchTerm(t *testing.T) {
	assert.Equal(t, `""`, searchTerm(sources.Query{}))
	assert.Equal(t, "monet", searchTerm(sources.Query{Text: "monet"}))
	assert.Equal(t, "haystacks monet", searchTerm(sources.Query{Text: "haystacks", Artist: "monet"}))
}
