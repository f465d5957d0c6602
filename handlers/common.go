package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"phimtoc/services/catalog"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeCatalogError maps the catalog error taxonomy onto HTTP statuses:
// missing items are 404, upstream transport failures are 502.
func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		var netErr *catalog.NetworkError
		if errors.As(err, &netErr) {
			writeError(w, http.StatusBadGateway, "catalog upstream unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
