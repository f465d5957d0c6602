package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"phimtoc/models"
	"phimtoc/services/catalog"
)

type catalogService interface {
	ListByCategory(ctx context.Context, category string, params catalog.ListParams) ([]models.CatalogItem, error)
	Search(ctx context.Context, keyword string, params catalog.ListParams) ([]models.CatalogItem, error)
	GetDetail(ctx context.Context, id string) (*models.CatalogDetail, error)
	NewlyUpdated(ctx context.Context, page int) ([]models.CatalogItem, error)
	Genres(ctx context.Context) ([]models.Genre, error)
	Countries(ctx context.Context) ([]models.Country, error)
	ListByGenre(ctx context.Context, genreSlug string, params catalog.ListParams) ([]models.CatalogItem, error)
	ListByCountry(ctx context.Context, countrySlug string, params catalog.ListParams) ([]models.CatalogItem, error)
	ListByYear(ctx context.Context, year int, params catalog.ListParams) ([]models.CatalogItem, error)
}

var _ catalogService = (*catalog.Client)(nil)

type CatalogHandler struct {
	Service         catalogService
	DefaultPageSize int
}

func NewCatalogHandler(s catalogService, defaultPageSize int) *CatalogHandler {
	if defaultPageSize <= 0 {
		defaultPageSize = 24
	}
	return &CatalogHandler{Service: s, DefaultPageSize: defaultPageSize}
}

// ListResponse is the uniform shape for every listing endpoint. A zero-item
// result is a valid response, not an error.
type ListResponse struct {
	Items []models.CatalogItem `json:"items"`
	Page  int                  `json:"page"`
}

func (h *CatalogHandler) listParams(r *http.Request) catalog.ListParams {
	q := r.URL.Query()
	params := catalog.ListParams{
		Page:          1,
		PageSize:      h.DefaultPageSize,
		SortField:     q.Get("sort_field"),
		SortDirection: q.Get("sort_type"),
		SortLang:      q.Get("sort_lang"),
		GenreSlug:     q.Get("genre"),
		CountrySlug:   q.Get("country"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page >= 1 {
		params.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		params.PageSize = limit
	}
	if year, err := strconv.Atoi(q.Get("year")); err == nil && year > 0 {
		params.Year = year
	}
	return params
}

func (h *CatalogHandler) writeList(w http.ResponseWriter, items []models.CatalogItem, page int, err error) {
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if items == nil {
		items = []models.CatalogItem{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Items: items, Page: page})
}

// ListCategory serves GET /api/catalog/{category}.
func (h *CatalogHandler) ListCategory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	params := h.listParams(r)
	items, err := h.Service.ListByCategory(r.Context(), category, params)
	h.writeList(w, items, params.Page, err)
}

// Search serves GET /api/search. A blank keyword yields an empty result
// without touching the upstream.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	params := h.listParams(r)
	items, err := h.Service.Search(r.Context(), keyword, params)
	h.writeList(w, items, params.Page, err)
}

// Detail serves GET /api/movies/{id}.
func (h *CatalogHandler) Detail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Service.GetDetail(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// NewlyUpdated serves GET /api/new.
func (h *CatalogHandler) NewlyUpdated(w http.ResponseWriter, r *http.Request) {
	page := 1
	if parsed, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && parsed >= 1 {
		page = parsed
	}
	items, err := h.Service.NewlyUpdated(r.Context(), page)
	h.writeList(w, items, page, err)
}

// Genres serves GET /api/genres.
func (h *CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Service.Genres(r.Context())
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if genres == nil {
		genres = []models.Genre{}
	}
	writeJSON(w, http.StatusOK, genres)
}

// ListGenre serves GET /api/genres/{slug}.
func (h *CatalogHandler) ListGenre(w http.ResponseWriter, r *http.Request) {
	params := h.listParams(r)
	items, err := h.Service.ListByGenre(r.Context(), mux.Vars(r)["slug"], params)
	h.writeList(w, items, params.Page, err)
}

// Countries serves GET /api/countries.
func (h *CatalogHandler) Countries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.Service.Countries(r.Context())
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	if countries == nil {
		countries = []models.Country{}
	}
	writeJSON(w, http.StatusOK, countries)
}

// ListCountry serves GET /api/countries/{slug}.
func (h *CatalogHandler) ListCountry(w http.ResponseWriter, r *http.Request) {
	params := h.listParams(r)
	items, err := h.Service.ListByCountry(r.Context(), mux.Vars(r)["slug"], params)
	h.writeList(w, items, params.Page, err)
}

// ListYear serves GET /api/years/{year}.
func (h *CatalogHandler) ListYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	params := h.listParams(r)
	items, err := h.Service.ListByYear(r.Context(), year, params)
	h.writeList(w, items, params.Page, err)
}
