package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"phimtoc/services/favorites"
)

type favoritesService interface {
	Add(id string) error
	Remove(id string) error
	Toggle(id string) (bool, error)
	Has(id string) bool
	List() []string
}

var _ favoritesService = (*favorites.Service)(nil)

type FavoritesHandler struct {
	Service favoritesService
}

func NewFavoritesHandler(s favoritesService) *FavoritesHandler {
	return &FavoritesHandler{Service: s}
}

// List serves GET /api/favorites.
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	ids := h.Service.List()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

// Add serves PUT /api/favorites/{id}.
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Service.Add(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "favorite": true})
}

// Remove serves DELETE /api/favorites/{id}.
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Service.Remove(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "favorite": false})
}

// Toggle serves POST /api/favorites/{id}/toggle.
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	on, err := h.Service.Toggle(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "favorite": on})
}

// Status serves GET /api/favorites/{id}.
func (h *FavoritesHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "favorite": h.Service.Has(id)})
}
