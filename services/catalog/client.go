// Package catalog wraps the remote phimapi.com movie catalog: it builds the
// outbound queries and absorbs the API's heterogeneous response shapes so the
// rest of the application only ever sees normalized models.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"phimtoc/models"
)

const (
	defaultBaseURL = "https://phimapi.com"

	// maxPageSize is the documented remote cap; larger requests are clamped.
	maxPageSize = 64
)

// ErrNotFound reports that the remote item no longer exists.
var ErrNotFound = errors.New("catalog item not found")

// NetworkError wraps transport and non-2xx failures from the catalog API.
type NetworkError struct {
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog request %s failed: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("catalog request %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ListParams carries pagination and filter options for list/search queries.
type ListParams struct {
	Page          int
	PageSize      int
	SortField     string // "_id" | "year" | "modified.time"
	SortDirection string // "asc" | "desc"
	SortLang      string // "vietsub" | "thuyet-minh" | "long-tieng"
	GenreSlug     string
	CountrySlug   string
	Year          int
}

// Client is a read-only client of the remote catalog service.
type Client struct {
	baseURL string
	httpc   *http.Client

	// Rate limiting, same discipline as any shared public API.
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// NewClient returns a catalog client with a default HTTP client when one is
// not provided. An empty baseURL selects the public phimapi endpoint.
func NewClient(baseURL string, httpc *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpc:       httpc,
		minInterval: 50 * time.Millisecond,
	}
}

// BaseURL exposes the configured endpoint, mainly for handlers building
// user-facing links.
func (c *Client) BaseURL() string { return c.baseURL }

// doGET performs a rate-limited GET and decodes the JSON body into v.
// Transport errors, 429 and 5xx get one immediate retry; other 4xx are
// returned as-is.
func (c *Client) doGET(ctx context.Context, endpoint string, v any) error {
	return retry.Do(
		func() error {
			c.throttleMu.Lock()
			since := time.Since(c.lastRequest)
			if since < c.minInterval {
				time.Sleep(c.minInterval - since)
			}
			c.lastRequest = time.Now()
			c.throttleMu.Unlock()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpc.Do(req)
			if err != nil {
				return &NetworkError{URL: endpoint, Err: err}
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return retry.Unrecoverable(ErrNotFound)
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return &NetworkError{URL: endpoint, Status: resp.StatusCode}
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(&NetworkError{URL: endpoint, Status: resp.StatusCode})
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(&NetworkError{URL: endpoint, Err: err})
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

func (p ListParams) encode() url.Values {
	q := url.Values{}
	page := p.Page
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	if p.PageSize > 0 {
		size := p.PageSize
		if size > maxPageSize {
			size = maxPageSize
		}
		q.Set("limit", strconv.Itoa(size))
	}
	if p.SortField != "" {
		q.Set("sort_field", p.SortField)
	}
	if p.SortDirection != "" {
		q.Set("sort_type", p.SortDirection)
	}
	if p.SortLang != "" {
		q.Set("sort_lang", p.SortLang)
	}
	if p.GenreSlug != "" {
		q.Set("category", p.GenreSlug)
	}
	if p.CountrySlug != "" {
		q.Set("country", p.CountrySlug)
	}
	if p.Year > 0 {
		q.Set("year", strconv.Itoa(p.Year))
	}
	return q
}

func (c *Client) list(ctx context.Context, path string, params ListParams) ([]models.CatalogItem, error) {
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.encode().Encode())

	var payload listEnvelope
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return c.mapItems(payload.allItems()), nil
}

// ListByCategory fetches one page of an aggregated list such as "phim-le"
// (single movies) or "phim-bo" (series). A zero-item page is a valid empty
// result, not an error.
func (c *Client) ListByCategory(ctx context.Context, category string, params ListParams) ([]models.CatalogItem, error) {
	return c.list(ctx, "/v1/api/danh-sach/"+url.PathEscape(category), params)
}

// Search performs a free-text keyword search. A blank keyword short-circuits
// to an empty result without touching the network; incremental typing is
// debounced by the Searcher before it gets here.
func (c *Client) Search(ctx context.Context, keyword string, params ListParams) ([]models.CatalogItem, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}

	q := params.encode()
	q.Set("keyword", keyword)
	endpoint := fmt.Sprintf("%s/v1/api/tim-kiem?%s", c.baseURL, q.Encode())

	var payload listEnvelope
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return c.mapItems(payload.allItems()), nil
}

// ListByGenre fetches one page of a genre taxonomy list.
func (c *Client) ListByGenre(ctx context.Context, genreSlug string, params ListParams) ([]models.CatalogItem, error) {
	params.GenreSlug = ""
	return c.list(ctx, "/v1/api/the-loai/"+url.PathEscape(genreSlug), params)
}

// ListByCountry fetches one page of a country taxonomy list.
func (c *Client) ListByCountry(ctx context.Context, countrySlug string, params ListParams) ([]models.CatalogItem, error) {
	params.CountrySlug = ""
	return c.list(ctx, "/v1/api/quoc-gia/"+url.PathEscape(countrySlug), params)
}

// ListByYear fetches one page of a year-bucketed list.
func (c *Client) ListByYear(ctx context.Context, year int, params ListParams) ([]models.CatalogItem, error) {
	params.Year = 0
	return c.list(ctx, "/v1/api/nam/"+url.PathEscape(strconv.Itoa(year)), params)
}

// NewlyUpdated fetches the most recently updated titles. The richer v3
// endpoint is preferred; on failure the stable v1 endpoint serves as
// fallback, mirroring how the upstream API is actually consumed.
func (c *Client) NewlyUpdated(ctx context.Context, page int) ([]models.CatalogItem, error) {
	if page < 1 {
		page = 1
	}

	items, err := c.newlyUpdatedVersion(ctx, "/danh-sach/phim-moi-cap-nhat-v3", page)
	if err == nil {
		return items, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	return c.newlyUpdatedVersion(ctx, "/danh-sach/phim-moi-cap-nhat", page)
}

func (c *Client) newlyUpdatedVersion(ctx context.Context, path string, page int) ([]models.CatalogItem, error) {
	endpoint := fmt.Sprintf("%s%s?page=%d", c.baseURL, path, page)

	var payload listEnvelope
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return c.mapItems(payload.allItems()), nil
}

// GetDetail fetches the full record for one item, including its
// server/episode source tree. Fails with ErrNotFound when the remote item no
// longer exists.
func (c *Client) GetDetail(ctx context.Context, id string) (*models.CatalogDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	endpoint := fmt.Sprintf("%s/phim/%s", c.baseURL, url.PathEscape(id))

	var payload detailEnvelope
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if payload.Movie == nil || !payload.Status {
		return nil, ErrNotFound
	}
	return c.mapDetail(payload), nil
}

// Genres returns the remote genre taxonomy.
func (c *Client) Genres(ctx context.Context) ([]models.Genre, error) {
	var payload []wireTag
	if err := c.doGET(ctx, c.baseURL+"/the-loai", &payload); err != nil {
		return nil, err
	}
	genres := make([]models.Genre, 0, len(payload))
	for _, tag := range payload {
		if strings.TrimSpace(tag.Name) == "" {
			continue
		}
		genres = append(genres, models.Genre{Name: tag.Name, Slug: tag.Slug})
	}
	return genres, nil
}

// Countries returns the remote country taxonomy.
func (c *Client) Countries(ctx context.Context) ([]models.Country, error) {
	var payload []wireTag
	if err := c.doGET(ctx, c.baseURL+"/quoc-gia", &payload); err != nil {
		return nil, err
	}
	countries := make([]models.Country, 0, len(payload))
	for _, tag := range payload {
		if strings.TrimSpace(tag.Name) == "" {
			continue
		}
		countries = append(countries, models.Country{Name: tag.Name, Slug: tag.Slug})
	}
	return countries, nil
}
