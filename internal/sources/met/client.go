// Package met provides a catalog client for the Metropolitan Museum of Art
// public collection API.
//
// The Met API has no server-side pagination: a search returns the complete
// list of matching object IDs, and each object is fetched individually. The
// client slices the ID list into batch-page windows and fans the object
// fetches out with bounded concurrency. Search results are cached briefly so
// consecutive batch pages of the same query reuse one search call.
package met

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/musebrowse/musebrowse/internal/transport"
	"github.com/musebrowse/musebrowse/pkg/artworks"
	"github.com/musebrowse/musebrowse/pkg/errors"
	"github.com/musebrowse/musebrowse/pkg/logging"
	"github.com/musebrowse/musebrowse/pkg/sources"
)

// DefaultBaseURL is the public API endpoint. No API key is required.
const DefaultBaseURL = "https://collectionapi.metmuseum.org/public/collection/v1"

const (
	// objectFetchConcurrency bounds the per-batch object fan-out.
	objectFetchConcurrency = 8

	// searchCacheTTL keeps object-ID lists around long enough for a user
	// paging through one query.
	searchCacheTTL = 5 * time.Minute
)

// Response structures for the Met API.
type searchResponse struct {
	Total     int   `json:"total"`
	ObjectIDs []int `json:"objectIDs"`
}

type objectResponse struct {
	ObjectID          int    `json:"objectID"`
	Title             string `json:"title"`
	ArtistDisplayName string `json:"artistDisplayName"`
	ObjectBeginDate   int    `json:"objectBeginDate"`
	ObjectDate        string `json:"objectDate"`
	Medium            string `json:"medium"`
	PrimaryImage      string `json:"primaryImage"`
	PrimaryImageSmall string `json:"primaryImageSmall"`
	CreditLine        string `json:"creditLine"`
	Culture           string `json:"culture"`
	Period            string `json:"period"`
	Classification    string `json:"classification"`
	Department        string `json:"department"`
	Message           string `json:"message"`
}

// Client implements sources.Catalog for the Metropolitan Museum of Art.
type Client struct {
	baseURL   string
	transport *transport.Client
	searches  *gocache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTransport replaces the transport client.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// NewClient creates a Met catalog client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		transport: transport.New(transport.WithRateLimit(rate.Limit(10), 10)),
		searches:  gocache.New(searchCacheTTL, 2*searchCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the Met source identifier.
func (c *Client) Source() artworks.Source {
	return artworks.SourceMet
}

// List fetches one batch page: search for the object IDs, slice the window
// for the requested page, and fetch those objects concurrently.
func (c *Client) List(ctx context.Context, q sources.Query) (*sources.ListResult, error) {
	ids, err := c.search(ctx, q)
	if err != nil {
		return nil, err
	}

	start := (q.BatchPage - 1) * q.BatchSize
	if start < 0 || start >= len(ids) {
		return &sources.ListResult{TotalHint: len(ids)}, nil
	}
	end := start + q.BatchSize
	if end > len(ids) {
		end = len(ids)
	}
	window := ids[start:end]

	records := make([]*artworks.Artwork, len(window))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(objectFetchConcurrency)

	for i, id := range window {
		i, id := i, id
		g.Go(func() error {
			art, err := c.object(gctx, id)
			if err != nil {
				// Individual objects go missing from the Met index
				// regularly; skip them rather than failing the batch.
				if errors.IsNotFound(err) {
					logging.Ctx(gctx).Debug().Int("object_id", id).Msg("Met object vanished from index")
					return nil
				}
				return err
			}
			records[i] = art
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Compact the skipped slots, preserving ID-list order.
	compacted := records[:0]
	for _, art := range records {
		if art != nil {
			compacted = append(compacted, art)
		}
	}

	return &sources.ListResult{
		Artworks:  compacted,
		TotalHint: len(ids),
	}, nil
}

// Detail fetches the full record for one object id. The Met's object payload
// is the same for list and detail, so detail is one fetch with enrichment
// fields mapped.
func (c *Client) Detail(ctx context.Context, localID string) (*artworks.Artwork, error) {
	id, err := strconv.Atoi(localID)
	if err != nil || id < 1 {
		return nil, errors.NewNotFoundError("artwork", localID)
	}

	resp, err := c.objectRaw(ctx, id)
	if err != nil {
		return nil, err
	}

	art := convert(resp)
	art.Detail = &artworks.Detail{
		Provenance: resp.CreditLine,
	}
	if resp.Classification != "" {
		art.Detail.Techniques = []string{resp.Classification}
	}
	if resp.Medium != "" {
		art.Detail.Materials = []string{resp.Medium}
	}
	if resp.Period != "" || resp.Culture != "" {
		history := strings.TrimSpace(strings.Join(nonEmpty(resp.Culture, resp.Period, resp.Department), ", "))
		if history != "" {
			art.Detail.ExhibitionHistory = []string{history}
		}
	}
	return art, nil
}

// search returns the matching object IDs, from cache when possible.
func (c *Client) search(ctx context.Context, q sources.Query) ([]int, error) {
	params := url.Values{}
	params.Set("q", searchTerm(q))
	params.Set("hasImages", "true")
	if q.Medium != "" {
		params.Set("medium", q.Medium)
	}
	if q.DateFrom != nil && q.DateTo != nil {
		// The Met API requires both bounds when either is given.
		params.Set("dateBegin", fmt.Sprintf("%d", *q.DateFrom))
		params.Set("dateEnd", fmt.Sprintf("%d", *q.DateTo))
	}

	cacheKey := params.Encode()
	if cached, found := c.searches.Get(cacheKey); found {
		return cached.([]int), nil
	}

	endpoint := c.baseURL + "/search?" + cacheKey
	resp, err := c.transport.Get(ctx, endpoint)
	if err != nil {
		return nil, &errors.APIError{
			Provider: string(artworks.SourceMet),
			Endpoint: endpoint,
			Message:  "request failed",
			Err:      err,
		}
	}

	var result searchResponse
	if err := transport.DecodeResponse(string(artworks.SourceMet), resp, &result); err != nil {
		return nil, err
	}

	c.searches.Set(cacheKey, result.ObjectIDs, gocache.DefaultExpiration)
	return result.ObjectIDs, nil
}

// object fetches and normalizes a single object.
func (c *Client) object(ctx context.Context, id int) (*artworks.Artwork, error) {
	resp, err := c.objectRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return convert(resp), nil
}

// objectRaw fetches one object payload.
func (c *Client) objectRaw(ctx context.Context, id int) (*objectResponse, error) {
	endpoint := fmt.Sprintf("%s/objects/%d", c.baseURL, id)
	resp, err := c.transport.Get(ctx, endpoint)
	if err != nil {
		return nil, &errors.APIError{
			Provider: string(artworks.SourceMet),
			Endpoint: endpoint,
			Message:  "request failed",
			Err:      err,
		}
	}

	var result objectResponse
	if err := transport.DecodeResponse(string(artworks.SourceMet), resp, &result); err != nil {
		return nil, err
	}
	if result.ObjectID == 0 {
		return nil, errors.NewNotFoundError("artwork", fmt.Sprintf("met:%d", id))
	}
	return &result, nil
}

// searchTerm folds text and artist into the q parameter. An empty query
// matches nothing on the Met API, so fall back to a broad wildcard-ish term.
func searchTerm(q sources.Query) string {
	terms := nonEmpty(q.Text, q.Artist)
	if len(terms) == 0 {
		return "\"\""
	}
	return strings.Join(terms, " ")
}

// convert normalizes a Met object payload to a summary record.
func convert(o *objectResponse) *artworks.Artwork {
	art := &artworks.Artwork{
		ID:            artworks.NewID(artworks.SourceMet, fmt.Sprintf("%d", o.ObjectID)),
		Source:        artworks.SourceMet,
		SourceLocalID: fmt.Sprintf("%d", o.ObjectID),
		Title:         o.Title,
		Artist:        o.ArtistDisplayName,
		Medium:        o.Medium,
		ImageURL:      o.PrimaryImage,
		ThumbURL:      o.PrimaryImageSmall,
		Description:   o.ObjectDate,
	}
	if o.ObjectBeginDate != 0 {
		year := o.ObjectBeginDate
		art.Year = &year
	}
	return art
}

// nonEmpty filters out blank strings.
func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
