package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"phimtoc/models"
	"phimtoc/services/reviews"
	"phimtoc/services/users"
)

type reviewsService interface {
	Add(itemID string, user models.User, rating int, comment string) (models.Review, error)
	List(itemID string) []models.Review
	Delete(itemID, reviewID string, user models.User) error
	AverageRating(itemID string) float64
	Score(itemID string) models.SentimentScore
}

var _ reviewsService = (*reviews.Service)(nil)

type currentUserProvider interface {
	Current() (models.User, error)
}

var _ currentUserProvider = (*users.Service)(nil)

type ReviewsHandler struct {
	Service reviewsService
	Users   currentUserProvider
}

func NewReviewsHandler(s reviewsService, u currentUserProvider) *ReviewsHandler {
	return &ReviewsHandler{Service: s, Users: u}
}

type reviewListResponse struct {
	Reviews       []models.Review       `json:"reviews"`
	AverageRating float64               `json:"averageRating"`
	Sentiment     models.SentimentScore `json:"sentiment"`
}

// List serves GET /api/movies/{id}/reviews.
func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]
	list := h.Service.List(itemID)
	if list == nil {
		list = []models.Review{}
	}
	writeJSON(w, http.StatusOK, reviewListResponse{
		Reviews:       list,
		AverageRating: h.Service.AverageRating(itemID),
		Sentiment:     h.Service.Score(itemID),
	})
}

type addReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Add serves POST /api/movies/{id}/reviews. Requires a signed-in user.
func (h *ReviewsHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.Current()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "sign in to review")
		return
	}

	var req addReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	review, err := h.Service.Add(mux.Vars(r)["id"], user, req.Rating, req.Comment)
	if err != nil {
		if errors.Is(err, reviews.ErrRatingOutOfRange) || errors.Is(err, reviews.ErrEmptyComment) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// Delete serves DELETE /api/movies/{id}/reviews/{reviewID}.
func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.Current()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "sign in required")
		return
	}

	vars := mux.Vars(r)
	if err := h.Service.Delete(vars["id"], vars["reviewID"], user); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
