package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Jimix91/ticketflow/internal/middleware"
	"github.com/Jimix91/ticketflow/internal/models"
	"github.com/Jimix91/ticketflow/internal/repository"
	"github.com/Jimix91/ticketflow/internal/service"
	"github.com/Jimix91/ticketflow/internal/utils"
)

type AuthHTTP struct {
	svc   *service.AuthService
	users repository.UserRepository
}

func NewAuthHTTP(s *service.AuthService, users repository.UserRepository) *AuthHTTP {
	return &AuthHTTP{svc: s, users: users}
}

// authBody is the {token, user} envelope the frontend stores and replays.
func authBody(token string, u *models.User) map[string]any {
	return map[string]any{"token": token, "user": u}
}

// POST /api/auth/register
func (h *AuthHTTP) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Name     string      `json:"name"`
			Email    string      `json:"email"`
			Password string      `json:"password"`
			Role     models.Role `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		tok, u, err := h.svc.Register(r.Context(), in.Name, in.Email, in.Password, in.Role)
		if err != nil {
			if errors.Is(err, service.ErrInvalidInput) {
				utils.Error(w, http.StatusBadRequest, err.Error())
				return
			}
			utils.Error(w, http.StatusConflict, "could not register user")
			return
		}
		utils.JSON(w, http.StatusCreated, authBody(tok, u))
	}
}

// POST /api/auth/login
func (h *AuthHTTP) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		tok, u, err := h.svc.Login(r.Context(), in.Email, in.Password)
		if err != nil {
			utils.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		utils.JSON(w, http.StatusOK, authBody(tok, u))
	}
}

// GET /api/auth/me
func (h *AuthHTTP) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := utils.GetInt64(r.Context(), middleware.CtxUserID)
		if !ok || uid == 0 {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		u, err := h.users.GetByID(r.Context(), uid)
		if err != nil || u == nil {
			utils.Error(w, http.StatusNotFound, "user not found")
			return
		}
		utils.JSON(w, http.StatusOK, u)
	}
}
