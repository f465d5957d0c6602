package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"phimtoc/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	catalogHandler *handlers.CatalogHandler,
	homeHandler *handlers.HomeHandler,
	playbackHandler *handlers.PlaybackHandler,
	favoritesHandler *handlers.FavoritesHandler,
	reviewsHandler *handlers.ReviewsHandler,
	usersHandler *handlers.UsersHandler,
	trailersHandler *handlers.TrailersHandler,
) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	// Browsing and search
	api.HandleFunc("/home", homeHandler.Shelves).Methods(http.MethodGet)
	api.HandleFunc("/new", catalogHandler.NewlyUpdated).Methods(http.MethodGet)
	api.HandleFunc("/search", catalogHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/catalog/{category}", catalogHandler.ListCategory).Methods(http.MethodGet)
	api.HandleFunc("/genres", catalogHandler.Genres).Methods(http.MethodGet)
	api.HandleFunc("/genres/{slug}", catalogHandler.ListGenre).Methods(http.MethodGet)
	api.HandleFunc("/countries", catalogHandler.Countries).Methods(http.MethodGet)
	api.HandleFunc("/countries/{slug}", catalogHandler.ListCountry).Methods(http.MethodGet)
	api.HandleFunc("/years/{year}", catalogHandler.ListYear).Methods(http.MethodGet)

	// Item detail and reviews
	api.HandleFunc("/movies/{id}", catalogHandler.Detail).Methods(http.MethodGet)
	api.HandleFunc("/movies/{id}/reviews", reviewsHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/movies/{id}/reviews", reviewsHandler.Add).Methods(http.MethodPost)
	api.HandleFunc("/movies/{id}/reviews/{reviewID}", reviewsHandler.Delete).Methods(http.MethodDelete)

	// Playback sessions
	api.HandleFunc("/playback/sessions", playbackHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}", playbackHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/playback/sessions/{sessionID}", playbackHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/playback/sessions/{sessionID}/select", playbackHandler.Select).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/switch", playbackHandler.SwitchKind).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/retry", playbackHandler.Retry).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/events", playbackHandler.Event).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/level", playbackHandler.SetLevel).Methods(http.MethodPost)

	// Favorites
	api.HandleFunc("/favorites", favoritesHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/favorites/{id}", favoritesHandler.Status).Methods(http.MethodGet)
	api.HandleFunc("/favorites/{id}", favoritesHandler.Add).Methods(http.MethodPut)
	api.HandleFunc("/favorites/{id}", favoritesHandler.Remove).Methods(http.MethodDelete)
	api.HandleFunc("/favorites/{id}/toggle", favoritesHandler.Toggle).Methods(http.MethodPost)

	// Auth
	api.HandleFunc("/auth/register", usersHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", usersHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", usersHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", usersHandler.Me).Methods(http.MethodGet)

	// Trailers
	api.HandleFunc("/trailers", trailersHandler.Lookup).Methods(http.MethodGet)
}
