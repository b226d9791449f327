package handlers

import (
	"errors"
	"net/http"

	"yt-analytics/internal/auth"
	"yt-analytics/internal/db"
	"yt-analytics/internal/models"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		serverError(w, err, "Error hashing password")
		return
	}

	user, err := db.CreateUser(r.Context(), req.Email, req.Name, hash)
	if errors.Is(err, db.ErrEmailTaken) {
		WriteError(w, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		serverError(w, err, "Error registering user")
		return
	}

	h.respondWithToken(w, http.StatusCreated, user)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := db.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, db.ErrUserNotFound) {
		WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		serverError(w, err, "Error looking up user")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.respondWithToken(w, http.StatusOK, user)
}

func (h *Handlers) respondWithToken(w http.ResponseWriter, status int, user *models.User) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		serverError(w, err, "Error issuing token")
		return
	}
	writeJSON(w, status, authResponse{
		Token: token,
		User:  userResponse{ID: user.ID, Email: user.Email, Name: user.Name},
	})
}
