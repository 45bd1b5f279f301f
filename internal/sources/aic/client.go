// Package aic provides a catalog client for the Art Institute of Chicago
// public API.
package aic

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/musebrowse/musebrowse/internal/transport"
	"github.com/musebrowse/musebrowse/pkg/artworks"
	"github.com/musebrowse/musebrowse/pkg/errors"
	"github.com/musebrowse/musebrowse/pkg/sources"
)

// DefaultBaseURL is the public API endpoint. No API key is required.
const DefaultBaseURL = "https://api.artic.edu/api/v1"

// listFields keeps list payloads small; the API returns every field otherwise.
const listFields = "id,title,artist_display,date_start,date_display,medium_display,image_id,thumbnail"

// detailFields adds the enrichment fields the detail view shows.
const detailFields = listFields + ",provenance_text,technique_titles,material_titles,color,exhibition_history,description"

// Response structures for the AIC API.
type searchResponse struct {
	Pagination paginationInfo `json:"pagination"`
	Data       []artworkData  `json:"data"`
	Config     configInfo     `json:"config"`
}

type objectResponse struct {
	Data   artworkData `json:"data"`
	Config configInfo  `json:"config"`
}

type paginationInfo struct {
	Total       int `json:"total"`
	Limit       int `json:"limit"`
	CurrentPage int `json:"current_page"`
}

type configInfo struct {
	IIIFURL string `json:"iiif_url"`
}

type artworkData struct {
	ID                int      `json:"id"`
	Title             string   `json:"title"`
	ArtistDisplay     string   `json:"artist_display"`
	DateStart         int      `json:"date_start"`
	DateDisplay       string   `json:"date_display"`
	MediumDisplay     string   `json:"medium_display"`
	ImageID           string   `json:"image_id"`
	Description       string   `json:"description"`
	ProvenanceText    string   `json:"provenance_text"`
	TechniqueTitles   []string `json:"technique_titles"`
	MaterialTitles    []string `json:"material_titles"`
	Color             *color   `json:"color"`
	ExhibitionHistory string   `json:"exhibition_history"`
	Thumbnail         *thumb   `json:"thumbnail"`
}

type color struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

type thumb struct {
	AltText string `json:"alt_text"`
}

// Client implements sources.Catalog for the Art Institute of Chicago.
type Client struct {
	baseURL   string
	transport *transport.Client
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

// NewClient creates an AIC catalog client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		transport: transport.New(transport.WithRateLimit(rate.Limit(5), 5)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the AIC source identifier.
func (c *Client) Source() artworks.Source {
	return artworks.SourceAIC
}

// List fetches one batch page from the search endpoint. AIC paginates server
// side and reports an exact total.
func (c *Client) List(ctx context.Context, q sources.Query) (*sources.ListResult, error) {
	params := url.Values{}
	params.Set("q", searchTerms(q))
	params.Set("page", fmt.Sprintf("%d", q.BatchPage))
	params.Set("limit", fmt.Sprintf("%d", q.BatchSize))
	params.Set("fields", listFields)

	endpoint := c.baseURL + "/artworks/search?" + params.Encode()
	resp, err := c.transport.Get(ctx, endpoint)
	if err != nil {
		return nil, &errors.APIError{
			Provider: string(artworks.SourceAIC),
			Endpoint: endpoint,
			Message:  "request failed",
			Err:      err,
		}
	}

	var result searchResponse
	if err := transport.DecodeResponse(string(artworks.SourceAIC), resp, &result); err != nil {
		return nil, err
	}

	records := make([]*artworks.Artwork, 0, len(result.Data))
	for _, d := range result.Data {
		records = append(records, convert(d, result.Config.IIIFURL, false))
	}

	return &sources.ListResult{
		Artworks:  records,
		TotalHint: result.Pagination.Total,
	}, nil
}

// Detail fetches the full record for one artwork id.
func (c *Client) Detail(ctx context.Context, localID string) (*artworks.Artwork, error) {
	params := url.Values{}
	params.Set("fields", detailFields)

	endpoint := c.baseURL + "/artworks/" + url.PathEscape(localID) + "?" + params.Encode()
	resp, err := c.transport.Get(ctx, endpoint)
	if err != nil {
		return nil, &errors.APIError{
			Provider: string(artworks.SourceAIC),
			Endpoint: endpoint,
			Message:  "request failed",
			Err:      err,
		}
	}

	var result objectResponse
	if err := transport.DecodeResponse(string(artworks.SourceAIC), resp, &result); err != nil {
		return nil, err
	}

	return convert(result.Data, result.Config.IIIFURL, true), nil
}

// searchTerms folds the filter dimensions into one full-text query. The AIC
// search endpoint has no dedicated artist or medium parameters; its scoring
// handles the combined terms well enough for browsing.
func searchTerms(q sources.Query) string {
	terms := make([]string, 0, 3)
	for _, t := range []string{q.Text, q.Artist, q.Medium} {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return strings.Join(terms, " ")
}

// convert normalizes an AIC record. The IIIF image service builds URLs from
// the image id.
func convert(d artworkData, iiifURL string, detailed bool) *artworks.Artwork {
	art := &artworks.Artwork{
		ID:            artworks.NewID(artworks.SourceAIC, fmt.Sprintf("%d", d.ID)),
		Source:        artworks.SourceAIC,
		SourceLocalID: fmt.Sprintf("%d", d.ID),
		Title:         d.Title,
		Artist:        primaryArtist(d.ArtistDisplay),
		Medium:        d.MediumDisplay,
		Description:   stripTags(d.Description),
	}

	if d.DateStart != 0 {
		year := d.DateStart
		art.Year = &year
	}

	if d.ImageID != "" && iiifURL != "" {
		base := strings.TrimRight(iiifURL, "/") + "/" + d.ImageID
		art.ImageURL = base + "/full/843,/0/default.jpg"
		art.ThumbURL = base + "/full/200,/0/default.jpg"
	}

	if art.Description == "" && d.Thumbnail != nil {
		art.Description = d.Thumbnail.AltText
	}

	if detailed {
		art.Detail = &artworks.Detail{
			Provenance: d.ProvenanceText,
			Techniques: d.TechniqueTitles,
			Materials:  d.MaterialTitles,
		}
		if d.Color != nil {
			art.Detail.Colors = []string{fmt.Sprintf("hsl(%d,%d%%,%d%%)", d.Color.H, d.Color.S, d.Color.L)}
		}
		if h := strings.TrimSpace(d.ExhibitionHistory); h != "" {
			art.Detail.ExhibitionHistory = splitHistory(h)
		}
	}

	return art
}

// primaryArtist takes the first line of AIC's multi-line artist_display,
// which appends nationality and dates on following lines.
func primaryArtist(display string) string {
	line, _, _ := strings.Cut(display, "\n")
	return strings.TrimSpace(line)
}

// splitHistory breaks AIC's newline-separated exhibition history into entries.
func splitHistory(h string) []string {
	parts := strings.Split(h, "\n")
	entries := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			entries = append(entries, p)
		}
	}
	return entries
}

// stripTags removes the HTML markup AIC wraps descriptions in. Good enough
// for plain-text display; not a general HTML parser.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
