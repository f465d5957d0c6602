package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"phimtoc/models"
	"phimtoc/services/playback"
)

// detailFetcher is the slice of the catalog client playback needs.
type detailFetcher interface {
	GetDetail(ctx context.Context, id string) (*models.CatalogDetail, error)
}

// PlaybackHandler owns one resolver per playback session. Sessions are
// created when a detail view starts playback and must be deleted when the
// view closes so loaders are not leaked.
type PlaybackHandler struct {
	catalog      detailFetcher
	loaders      playback.LoaderFactory
	nativeHLS    bool
	embedTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*playback.Resolver
}

func NewPlaybackHandler(catalog detailFetcher, loaders playback.LoaderFactory, nativeHLS bool, embedTimeout time.Duration) *PlaybackHandler {
	return &PlaybackHandler{
		catalog:      catalog,
		loaders:      loaders,
		nativeHLS:    nativeHLS,
		embedTimeout: embedTimeout,
		sessions:     make(map[string]*playback.Resolver),
	}
}

type createSessionRequest struct {
	ItemID       string `json:"itemId"`
	ServerIndex  int    `json:"serverIndex"`
	EpisodeIndex int    `json:"episodeIndex"`
}

type sessionResponse struct {
	SessionID string            `json:"sessionId"`
	Snapshot  playback.Snapshot `json:"snapshot"`
}

// Create serves POST /api/playback/sessions: fetches the item detail, builds
// a resolver, selects the requested pair and attempts to start it.
func (h *PlaybackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "itemId is required")
		return
	}

	detail, err := h.catalog.GetDetail(r.Context(), req.ItemID)
	if err != nil {
		writeCatalogError(w, err)
		return
	}

	resolver := playback.NewResolver(*detail, playback.Options{
		Loaders:      h.loaders,
		NativeHLS:    h.nativeHLS,
		EmbedTimeout: h.embedTimeout,
	})
	if err := resolver.Select(req.ServerIndex, req.EpisodeIndex); err != nil {
		log.Printf("[playback] session for %s: %v", req.ItemID, err)
	}
	if resolver.State() == playback.StateSourceChosen {
		if err := resolver.Start(r.Context()); err != nil {
			log.Printf("[playback] start %s: %v", req.ItemID, err)
		}
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.sessions[id] = resolver
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id, Snapshot: resolver.Snapshot()})
}

// Get serves GET /api/playback/sessions/{sessionID}.
func (h *PlaybackHandler) Get(w http.ResponseWriter, r *http.Request) {
	resolver, ok := h.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, h.respond(r, resolver))
}

type selectRequest struct {
	ServerIndex  int `json:"serverIndex"`
	EpisodeIndex int `json:"episodeIndex"`
}

// Select serves POST /api/playback/sessions/{sessionID}/select: switches the
// session to another (server, episode) pair and restarts playback.
func (h *PlaybackHandler) Select(w http.ResponseWriter, r *http.Request) {
	resolver, ok := h.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := resolver.Select(req.ServerIndex, req.EpisodeIndex); err != nil {
		log.Printf("[playback] select: %v", err)
	}
	if resolver.State() == playback.StateSourceChosen {
		if err := resolver.Start(r.Context()); err != nil {
			log.Printf("[playback] restart after select: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, h.respond(r, resolver))
}

// SwitchKind serves POST /api/playback/sessions/{sessionID}/switch: flips
// the episode between embed and HLS and restarts.
func (h *PlaybackHandler) SwitchKind(w http.ResponseWriter, r *http.Request) {
	resolver, ok := h.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	if err := resolver.SwitchKind(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err := resolver.Start(r.Context()); err != nil {
		log.Printf("[playback] restart after switch: %v", err)
	}
	writeJSON(w, http.StatusOK, h.respond(r, resolver))
}

// Retry serves POST /api/playback/sessions/{sessionID}/retry.
func (h *PlaybackHandler) Retry(w http.ResponseWriter, r *http.Request) {
	resolver, ok := h.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	if err := resolver.Retry(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err := resolver.Start(r.Context()); err != nil {
		log.Printf("[playback] retry: %v", err)
	}
	writeJSON(w, http.StatusOK, h.respond(r, resolver))
}

type playerEventRequest struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Event serves POST /api/playback/sessions/{sessionID}/events: the player
// surface reports embed/iframe and fatal player events here.
func (h *PlaybackHandler) Event(w http.ResponseWriter, r *http.Request) {
	resolver, ok := h.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	var req playerEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	switch req.Type {
	case "embed_loaded":
		resolver.EmbedLoaded()
	case "embed_failed":
		resolver.EmbedFailed()
	case "fatal_error":
		resolver.OnFatalError(errorFromMessage(req.Message))
	default:
		writeError(w, http.StatusBadRequest, "unknown event type")
		return
	}
	writeJSON(w, http.StatusOK, h.respond(r, resolver))
}

type levelRequest struct {
	Level int `json:"level"`
}

// SetLevel serves POST /api/playback/sessions/{sessionID}/level.
func (h *PlaybackHandler) SetLevel(w http.ResponseWriter, r *http.Request) {
	resolver, ok := h.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	var req levelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resolver.SetLevel(req.Level)
	writeJSON(w, http.StatusOK, h.respond(r, resolver))
}

// Delete serves DELETE /api/playback/sessions/{sessionID}: closes the
// resolver and drops the session.
func (h *PlaybackHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionID"]
	h.mu.Lock()
	resolver, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if ok {
		resolver.Close()
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloseAll tears down every live session; called on shutdown.
func (h *PlaybackHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, resolver := range h.sessions {
		resolver.Close()
		delete(h.sessions, id)
	}
}

func (h *PlaybackHandler) lookup(r *http.Request) (*playback.Resolver, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	resolver, ok := h.sessions[mux.Vars(r)["sessionID"]]
	return resolver, ok
}

func (h *PlaybackHandler) respond(r *http.Request, resolver *playback.Resolver) sessionResponse {
	return sessionResponse{SessionID: mux.Vars(r)["sessionID"], Snapshot: resolver.Snapshot()}
}

type playerError string

func (e playerError) Error() string { return string(e) }

func errorFromMessage(msg string) error {
	if msg == "" {
		msg = "fatal player error"
	}
	return playerError(msg)
}
