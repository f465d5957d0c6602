package handlers

import (
	"errors"
	"net/http"

	"phimtoc/models"
	"phimtoc/services/users"
)

type usersService interface {
	Register(email, password, name string) (models.User, error)
	Login(email, password string) (models.User, error)
	Logout() error
	Current() (models.User, error)
}

var _ usersService = (*users.Service)(nil)

type UsersHandler struct {
	Service usersService
}

func NewUsersHandler(s usersService) *UsersHandler {
	return &UsersHandler{Service: s}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Register serves POST /api/auth/register.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.Service.Register(req.Email, req.Password, req.Name)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login serves POST /api/auth/login.
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.Service.Login(req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout serves POST /api/auth/logout.
func (h *UsersHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me serves GET /api/auth/me.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.Current()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, users.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, users.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, users.ErrEmailRequired), errors.Is(err, users.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
