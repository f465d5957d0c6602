package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phimtoc/models"
	"phimtoc/services/catalog"
)

// fakeShelfLister fails selected categories and records concurrency.
type fakeShelfLister struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	failing  map[string]bool
}

func (f *fakeShelfLister) enter() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()
}

func (f *fakeShelfLister) leave() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeShelfLister) NewlyUpdated(_ context.Context, _ int) ([]models.CatalogItem, error) {
	f.enter()
	defer f.leave()
	time.Sleep(10 * time.Millisecond)
	return []models.CatalogItem{{ID: "new-1"}}, nil
}

func (f *fakeShelfLister) ListByCategory(_ context.Context, category string, _ catalog.ListParams) ([]models.CatalogItem, error) {
	f.enter()
	defer f.leave()
	time.Sleep(10 * time.Millisecond)
	if f.failing[category] {
		return nil, &catalog.NetworkError{URL: "https://phimapi.com", Status: 503}
	}
	return []models.CatalogItem{{ID: category + "-1"}, {ID: category + "-2"}}, nil
}

func TestShelvesIsolatePerShelfFailures(t *testing.T) {
	fake := &fakeShelfLister{failing: map[string]bool{"phim-bo": true}}
	h := NewHomeHandler(fake, 12)

	rec := httptest.NewRecorder()
	h.Shelves(rec, httptest.NewRequest(http.MethodGet, "/api/home", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Shelves []Shelf `json:"shelves"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Shelves, 5)

	byKey := map[string]Shelf{}
	for _, s := range resp.Shelves {
		byKey[s.Key] = s
	}

	// The broken shelf reports an error with an empty item list; the others
	// are unaffected.
	assert.Equal(t, "unavailable", byKey["phim-bo"].Error)
	assert.Empty(t, byKey["phim-bo"].Items)
	assert.Len(t, byKey["phim-le"].Items, 2)
	assert.Len(t, byKey["new"].Items, 1)
	assert.Empty(t, byKey["phim-le"].Error)
}

func TestShelvesFetchConcurrently(t *testing.T) {
	fake := &fakeShelfLister{}
	h := NewHomeHandler(fake, 12)

	rec := httptest.NewRecorder()
	h.Shelves(rec, httptest.NewRequest(http.MethodGet, "/api/home", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, fake.peak, 1, "shelves should fan out, not run serially")
}

func TestShelvesTruncateToShelfSize(t *testing.T) {
	fake := &fakeShelfLister{}
	h := NewHomeHandler(fake, 1)

	rec := httptest.NewRecorder()
	h.Shelves(rec, httptest.NewRequest(http.MethodGet, "/api/home", nil))

	var resp struct {
		Shelves []Shelf `json:"shelves"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	for _, s := range resp.Shelves {
		assert.LessOrEqual(t, len(s.Items), 1, "shelf %s", s.Key)
	}
}
