package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Jimix91/ticketflow/internal/middleware"
	"github.com/Jimix91/ticketflow/internal/models"
	"github.com/Jimix91/ticketflow/internal/repository"
	"github.com/Jimix91/ticketflow/internal/utils"
)

type UserHTTP struct {
	repo repository.UserRepository
}

func NewUserHTTP(r repository.UserRepository) *UserHTTP {
	return &UserHTTP{repo: r}
}

// GET /api/users: the directory the board resolves names against.
func (h *UserHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.repo.List(r.Context())
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if users == nil {
			users = []models.User{}
		}
		utils.JSON(w, http.StatusOK, users)
	}
}

// PATCH /api/users/me: the only partial user update the system allows.
func (h *UserHTTP) UpdateMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := utils.GetInt64(r.Context(), middleware.CtxUserID)
		if !ok || uid == 0 {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		// Raw decode so "profileImageUrl": null (clear) is distinguishable
		// from the field being absent (keep).
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		var name *string
		if v, ok := raw["name"]; ok {
			var s string
			if err := json.Unmarshal(v, &s); err != nil || strings.TrimSpace(s) == "" {
				utils.Error(w, http.StatusBadRequest, "invalid name")
				return
			}
			s = strings.TrimSpace(s)
			name = &s
		}

		var imageURL *string
		setImage := false
		if v, ok := raw["profileImageUrl"]; ok {
			setImage = true
			if err := json.Unmarshal(v, &imageURL); err != nil {
				utils.Error(w, http.StatusBadRequest, "invalid profile image")
				return
			}
		}

		if name == nil && !setImage {
			utils.Error(w, http.StatusBadRequest, "nothing to update")
			return
		}

		u, err := h.repo.UpdateProfile(r.Context(), uid, name, setImage, imageURL)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if u == nil {
			utils.Error(w, http.StatusNotFound, "user not found")
			return
		}
		utils.JSON(w, http.StatusOK, u)
	}
}
