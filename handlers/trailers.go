package handlers

import (
	"net/http"
	"strings"

	"phimtoc/services/trailers"
)

type trailersService interface {
	Lookup(title, year string) (string, bool)
	EmbedURL(videoID string) string
	WatchURL(videoID string) string
}

var _ trailersService = (*trailers.Service)(nil)

type TrailersHandler struct {
	Service trailersService
}

func NewTrailersHandler(s trailersService) *TrailersHandler {
	return &TrailersHandler{Service: s}
}

type trailerResponse struct {
	VideoID  string `json:"videoId"`
	EmbedURL string `json:"embedUrl"`
	WatchURL string `json:"watchUrl"`
}

// Lookup serves GET /api/trailers?title=...&year=...
func (h *TrailersHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	year := strings.TrimSpace(r.URL.Query().Get("year"))

	videoID, ok := h.Service.Lookup(title, year)
	if !ok {
		writeError(w, http.StatusNotFound, "no trailer found")
		return
	}
	writeJSON(w, http.StatusOK, trailerResponse{
		VideoID:  videoID,
		EmbedURL: h.Service.EmbedURL(videoID),
		WatchURL: h.Service.WatchURL(videoID),
	})
}
