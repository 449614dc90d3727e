package board

import "github.com/Jimix91/ticketflow/internal/models"

// Scope computes the subset of tickets the identity may see: admins see
// everything, agents their assignments, employees their own reports. A nil
// identity sees nothing. Pure and idempotent; the result is always a fresh
// slice.
func Scope(identity *models.User, tickets []models.Ticket) []models.Ticket {
	out := make([]models.Ticket, 0, len(tickets))
	if identity == nil {
		return out
	}
	for _, t := range tickets {
		switch identity.Role {
		case models.RoleAdmin:
			out = append(out, t)
		case models.RoleAgent:
			if t.Assigned(identity.ID) {
				out = append(out, t)
			}
		case models.RoleEmployee:
			if t.CreatedByID == identity.ID {
				out = append(out, t)
			}
		default:
			// unknown role sees nothing
		}
	}
	return out
}

// Summary counts tickets per status column.
type Summary struct {
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Closed     int `json:"closed"`
}

func Summarize(tickets []models.Ticket) Summary {
	var sum Summary
	for _, t := range tickets {
		switch t.Status {
		case models.StatusOpen:
			sum.Open++
		case models.StatusInProgress:
			sum.InProgress++
		case models.StatusClosed:
			sum.Closed++
		}
	}
	return sum
}
