package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/sourcegraph/conc"

	"phimtoc/models"
	"phimtoc/services/catalog"
)

type shelfLister interface {
	NewlyUpdated(ctx context.Context, page int) ([]models.CatalogItem, error)
	ListByCategory(ctx context.Context, category string, params catalog.ListParams) ([]models.CatalogItem, error)
}

// Shelf is one homepage row. Failed shelves carry an error message and an
// empty item list; one upstream hiccup never blanks the whole page.
type Shelf struct {
	Key   string               `json:"key"`
	Title string               `json:"title"`
	Items []models.CatalogItem `json:"items"`
	Error string               `json:"error,omitempty"`
}

type shelfSpec struct {
	key      string
	title    string
	category string // empty means the newly-updated feed
}

var homeShelves = []shelfSpec{
	{key: "new", title: "Mới Cập Nhật"},
	{key: "phim-le", title: "Phim Lẻ", category: "phim-le"},
	{key: "phim-bo", title: "Phim Bộ", category: "phim-bo"},
	{key: "hoat-hinh", title: "Hoạt Hình", category: "hoat-hinh"},
	{key: "tv-shows", title: "TV Shows", category: "tv-shows"},
}

type HomeHandler struct {
	Service   shelfLister
	ShelfSize int
}

func NewHomeHandler(s shelfLister, shelfSize int) *HomeHandler {
	if shelfSize <= 0 {
		shelfSize = 12
	}
	return &HomeHandler{Service: s, ShelfSize: shelfSize}
}

// Shelves serves GET /api/home: all homepage rows fetched fan-out, with
// failures isolated per shelf.
func (h *HomeHandler) Shelves(w http.ResponseWriter, r *http.Request) {
	shelves := make([]Shelf, len(homeShelves))

	var wg conc.WaitGroup
	for i, spec := range homeShelves {
		i, spec := i, spec
		wg.Go(func() {
			shelves[i] = h.fetchShelf(r.Context(), spec)
		})
	}
	wg.Wait()

	writeJSON(w, http.StatusOK, map[string]any{"shelves": shelves})
}

func (h *HomeHandler) fetchShelf(ctx context.Context, spec shelfSpec) Shelf {
	shelf := Shelf{Key: spec.key, Title: spec.title, Items: []models.CatalogItem{}}

	var (
		items []models.CatalogItem
		err   error
	)
	if spec.category == "" {
		items, err = h.Service.NewlyUpdated(ctx, 1)
	} else {
		items, err = h.Service.ListByCategory(ctx, spec.category, catalog.ListParams{
			Page:          1,
			PageSize:      h.ShelfSize,
			SortField:     "modified.time",
			SortDirection: "desc",
		})
	}
	if err != nil {
		log.Printf("[home] shelf %s: %v", spec.key, err)
		shelf.Error = "unavailable"
		return shelf
	}

	if len(items) > h.ShelfSize {
		items = items[:h.ShelfSize]
	}
	if items != nil {
		shelf.Items = items
	}
	return shelf
}
