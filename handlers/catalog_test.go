package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phimtoc/models"
	"phimtoc/services/catalog"
)

// fakeCatalog is a scriptable catalogService.
type fakeCatalog struct {
	items      []models.CatalogItem
	detail     *models.CatalogDetail
	err        error
	lastParams catalog.ListParams
	lastPath   string
}

func (f *fakeCatalog) ListByCategory(_ context.Context, category string, params catalog.ListParams) ([]models.CatalogItem, error) {
	f.lastPath, f.lastParams = "category/"+category, params
	return f.items, f.err
}

func (f *fakeCatalog) Search(_ context.Context, keyword string, params catalog.ListParams) ([]models.CatalogItem, error) {
	f.lastPath, f.lastParams = "search/"+keyword, params
	if keyword == "" {
		return nil, nil
	}
	return f.items, f.err
}

func (f *fakeCatalog) GetDetail(_ context.Context, id string) (*models.CatalogDetail, error) {
	f.lastPath = "detail/" + id
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakeCatalog) NewlyUpdated(_ context.Context, page int) ([]models.CatalogItem, error) {
	f.lastPath = "new"
	return f.items, f.err
}

func (f *fakeCatalog) Genres(_ context.Context) ([]models.Genre, error) {
	return []models.Genre{{Name: "Hành Động", Slug: "hanh-dong"}}, f.err
}

func (f *fakeCatalog) Countries(_ context.Context) ([]models.Country, error) {
	return []models.Country{{Name: "Mỹ", Slug: "my"}}, f.err
}

func (f *fakeCatalog) ListByGenre(_ context.Context, slug string, params catalog.ListParams) ([]models.CatalogItem, error) {
	f.lastPath, f.lastParams = "genre/"+slug, params
	return f.items, f.err
}

func (f *fakeCatalog) ListByCountry(_ context.Context, slug string, params catalog.ListParams) ([]models.CatalogItem, error) {
	f.lastPath, f.lastParams = "country/"+slug, params
	return f.items, f.err
}

func (f *fakeCatalog) ListByYear(_ context.Context, year int, params catalog.ListParams) ([]models.CatalogItem, error) {
	f.lastPath, f.lastParams = "year", params
	return f.items, f.err
}

func newCatalogRouter(f *fakeCatalog) *mux.Router {
	h := NewCatalogHandler(f, 24)
	r := mux.NewRouter()
	r.HandleFunc("/api/catalog/{category}", h.ListCategory).Methods(http.MethodGet)
	r.HandleFunc("/api/search", h.Search).Methods(http.MethodGet)
	r.HandleFunc("/api/movies/{id}", h.Detail).Methods(http.MethodGet)
	r.HandleFunc("/api/years/{year}", h.ListYear).Methods(http.MethodGet)
	return r
}

func TestListCategoryParsesQuery(t *testing.T) {
	fake := &fakeCatalog{items: []models.CatalogItem{{ID: "a"}, {ID: "b"}}}
	r := newCatalogRouter(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/phim-le?page=2&limit=10&sort_field=modified.time&sort_type=desc", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "category/phim-le", fake.lastPath)
	assert.Equal(t, 2, fake.lastParams.Page)
	assert.Equal(t, 10, fake.lastParams.PageSize)
	assert.Equal(t, "modified.time", fake.lastParams.SortField)
	assert.JSONEq(t, `{"items":[{"id":"a","title":""},{"id":"b","title":""}],"page":2}`, rec.Body.String())
}

func TestListCategoryEmptyResultIsOK(t *testing.T) {
	fake := &fakeCatalog{}
	r := newCatalogRouter(fake)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/phim-le", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"page":1}`, rec.Body.String())
}

func TestDetailNotFoundMapsTo404(t *testing.T) {
	fake := &fakeCatalog{err: catalog.ErrNotFound}
	r := newCatalogRouter(fake)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movies/gone", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpstreamFailureMapsTo502(t *testing.T) {
	fake := &fakeCatalog{err: &catalog.NetworkError{URL: "https://phimapi.com", Status: 503}}
	r := newCatalogRouter(fake)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/phim-le", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestInvalidYearIsRejected(t *testing.T) {
	fake := &fakeCatalog{}
	r := newCatalogRouter(fake)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/years/banana", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
