package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Jimix91/ticketflow/internal/middleware"
	"github.com/Jimix91/ticketflow/internal/models"
	"github.com/Jimix91/ticketflow/internal/repository"
	"github.com/Jimix91/ticketflow/internal/utils"
)

// TicketHTTP wires ticket endpoints to the repositories. The server
// enforces the same role/ownership rules the client board applies, so a
// tampered client cannot widen its scope.
type TicketHTTP struct {
	tickets repository.TicketRepository
}

func NewTicketHTTP(tickets repository.TicketRepository) *TicketHTTP {
	return &TicketHTTP{tickets: tickets}
}

func requestIdentity(r *http.Request) (int64, models.Role, bool) {
	uid, ok := utils.GetInt64(r.Context(), middleware.CtxUserID)
	if !ok || uid == 0 {
		return 0, "", false
	}
	role, _ := utils.GetRole(r.Context(), middleware.CtxRole)
	return uid, role, true
}

// visible mirrors the board's scope rule: admins see everything, agents
// their assignments, employees their own reports.
func visible(uid int64, role models.Role, t models.Ticket) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleAgent:
		return t.Assigned(uid)
	case models.RoleEmployee:
		return t.CreatedByID == uid
	default:
		return false
	}
}

func manageable(uid int64, role models.Role, t models.Ticket) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleAgent:
		return t.Assigned(uid)
	case models.RoleEmployee:
		return t.CreatedByID == uid
	default:
		return false
	}
}

func ticketID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// GET /api/tickets
func (h *TicketHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, role, ok := requestIdentity(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		items, err := h.tickets.List(r.Context())
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		scoped := make([]models.Ticket, 0, len(items))
		for _, t := range items {
			if visible(uid, role, t) {
				scoped = append(scoped, t)
			}
		}
		utils.JSON(w, http.StatusOK, scoped)
	}
}

// GET /api/tickets/{id}
func (h *TicketHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, role, ok := requestIdentity(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		id, ok := ticketID(r)
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid ticket id")
			return
		}
		t, err := h.tickets.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if t == nil {
			utils.Error(w, http.StatusNotFound, "ticket not found")
			return
		}
		if !visible(uid, role, *t) {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		utils.JSON(w, http.StatusOK, t)
	}
}

// POST /api/tickets
func (h *TicketHTTP) Create() http.HandlerFunc {
	type inDTO struct {
		Title        string           `json:"title"`
		Description  string           `json:"description"`
		ImageURL     *string          `json:"imageUrl"`
		Status       *models.Status   `json:"status"`
		Priority     *models.Priority `json:"priority"`
		AssignedToID *int64           `json:"assignedToId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uid, role, ok := requestIdentity(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		in.Title = strings.TrimSpace(in.Title)
		if in.Title == "" {
			utils.Error(w, http.StatusBadRequest, "title is required")
			return
		}

		status := models.StatusOpen
		if in.Status != nil && role != models.RoleEmployee {
			if !in.Status.Valid() {
				utils.Error(w, http.StatusBadRequest, "invalid status")
				return
			}
			status = *in.Status
		}
		priority := models.PriorityMedium
		if in.Priority != nil {
			if !in.Priority.Valid() {
				utils.Error(w, http.StatusBadRequest, "invalid priority")
				return
			}
			priority = *in.Priority
		}

		t := &models.Ticket{
			Title:        in.Title,
			Description:  strings.TrimSpace(in.Description),
			ImageURL:     in.ImageURL,
			Status:       status,
			Priority:     priority,
			CreatedByID:  uid,
			AssignedToID: in.AssignedToID,
		}
		if err := h.tickets.Create(r.Context(), t); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		// Re-read with the creator/assignee snapshots joined in.
		created, err := h.tickets.Get(r.Context(), t.ID)
		if err != nil || created == nil {
			utils.Error(w, http.StatusInternalServerError, "ticket not found after create")
			return
		}
		utils.JSON(w, http.StatusCreated, created)
	}
}

// PUT /api/tickets/{id}
func (h *TicketHTTP) Update() http.HandlerFunc {
	type inDTO struct {
		Title       *string          `json:"title"`
		Description *string          `json:"description"`
		ImageURL    *string          `json:"imageUrl"`
		Status      *models.Status   `json:"status"`
		Priority    *models.Priority `json:"priority"`
		// Raw so an explicit null (clear the assignment) is
		// distinguishable from the field being absent (keep).
		AssignedToID json.RawMessage `json:"assignedToId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uid, role, ok := requestIdentity(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		id, ok := ticketID(r)
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid ticket id")
			return
		}

		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		t, err := h.tickets.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if t == nil {
			utils.Error(w, http.StatusNotFound, "ticket not found")
			return
		}
		if !manageable(uid, role, *t) {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				utils.Error(w, http.StatusBadRequest, "title cannot be empty")
				return
			}
			t.Title = title
		}
		if in.Description != nil {
			t.Description = strings.TrimSpace(*in.Description)
		}
		if in.ImageURL != nil {
			t.ImageURL = in.ImageURL
		}
		if in.Status != nil {
			if !in.Status.Valid() {
				utils.Error(w, http.StatusBadRequest, "invalid status")
				return
			}
			// Employees cannot move tickets; their edits keep the current
			// status no matter what the form sent.
			if role != models.RoleEmployee {
				t.Status = *in.Status
			}
		}
		if in.Priority != nil {
			if !in.Priority.Valid() {
				utils.Error(w, http.StatusBadRequest, "invalid priority")
				return
			}
			t.Priority = *in.Priority
		}
		if len(in.AssignedToID) > 0 {
			var assignee *int64
			if err := json.Unmarshal(in.AssignedToID, &assignee); err != nil {
				utils.Error(w, http.StatusBadRequest, "invalid assignee")
				return
			}
			t.AssignedToID = assignee
		}

		if err := h.tickets.Update(r.Context(), t); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		updated, err := h.tickets.Get(r.Context(), id)
		if err != nil || updated == nil {
			utils.Error(w, http.StatusInternalServerError, "ticket not found after update")
			return
		}
		utils.JSON(w, http.StatusOK, updated)
	}
}

// DELETE /api/tickets/{id}
func (h *TicketHTTP) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, role, ok := requestIdentity(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		id, ok := ticketID(r)
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid ticket id")
			return
		}
		t, err := h.tickets.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if t == nil {
			utils.Error(w, http.StatusNotFound, "ticket not found")
			return
		}
		if !manageable(uid, role, *t) {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		if _, err := h.tickets.Delete(r.Context(), id); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/tickets/{id}/comments
func (h *TicketHTTP) ListComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, role, ok := requestIdentity(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		id, ok := ticketID(r)
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid ticket id")
			return
		}
		t, err := h.tickets.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if t == nil {
			utils.Error(w, http.StatusNotFound, "ticket not found")
			return
		}
		if !visible(uid, role, *t) {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		comments, err := h.tickets.ListComments(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if comments == nil {
			comments = []models.Comment{}
		}
		utils.JSON(w, http.StatusOK, comments)
	}
}

// POST /api/tickets/{id}/comments
func (h *TicketHTTP) AddComment() http.HandlerFunc {
	type inDTO struct {
		Content  string  `json:"content"`
		ImageURL *string `json:"imageUrl"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uid, role, ok := requestIdentity(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		id, ok := ticketID(r)
		if !ok {
			utils.Error(w, http.StatusBadRequest, "invalid ticket id")
			return
		}
		var in inDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		in.Content = strings.TrimSpace(in.Content)
		if in.Content == "" && in.ImageURL == nil {
			utils.Error(w, http.StatusBadRequest, "content is required")
			return
		}

		t, err := h.tickets.Get(r.Context(), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if t == nil {
			utils.Error(w, http.StatusNotFound, "ticket not found")
			return
		}
		if !manageable(uid, role, *t) {
			utils.Error(w, http.StatusForbidden, "forbidden")
			return
		}

		c := &models.Comment{TicketID: id, AuthorID: uid, Content: in.Content, ImageURL: in.ImageURL}
		if err := h.tickets.AddComment(r.Context(), c); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		created, err := h.tickets.ListComments(r.Context(), id)
		if err == nil {
			for _, cc := range created {
				if cc.ID == c.ID {
					utils.JSON(w, http.StatusCreated, cc)
					return
				}
			}
		}
		utils.JSON(w, http.StatusCreated, c)
	}
}
