package handlers

import (
	"net/http"

	"github.com/Jimix91/ticketflow/internal/models"
	"github.com/Jimix91/ticketflow/internal/repository"
	"github.com/Jimix91/ticketflow/internal/utils"
)

type ReportsHTTP struct {
	repo repository.TicketRepository
}

func NewReportsHTTP(r repository.TicketRepository) *ReportsHTTP { return &ReportsHTTP{repo: r} }

// GET /api/reports/summary
// Returns {open, inProgress, closed} across all tickets; admin only.
func (h *ReportsHTTP) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := h.repo.CountByStatus(r.Context())
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, map[string]int{
			"open":       counts[models.StatusOpen],
			"inProgress": counts[models.StatusInProgress],
			"closed":     counts[models.StatusClosed],
		})
	}
}
