package models

import "time"

type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusClosed     Status = "CLOSED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// Statuses lists every status in board-column order.
func Statuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusClosed}
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Ticket is the canonical record. CreatedBy/AssignedTo are denormalized
// snapshots filled in by the server's list join; CreatedByID/AssignedToID
// are the authoritative references. UpdatedAt strictly advances on every
// change, status moves included.
type Ticket struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ImageURL     *string   `json:"imageUrl,omitempty"`
	Status       Status    `json:"status"`
	Priority     Priority  `json:"priority"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	CreatedByID  int64     `json:"createdById"`
	AssignedToID *int64    `json:"assignedToId"`
	CreatedBy    *User     `json:"createdBy,omitempty"`
	AssignedTo   *User     `json:"assignedTo,omitempty"`
}

// Assigned reports whether the ticket is assigned to the given user.
func (t Ticket) Assigned(userID int64) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}

type Comment struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticketId"`
	AuthorID  int64     `json:"authorId"`
	Content   string    `json:"content"`
	ImageURL  *string   `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Author    *User     `json:"author,omitempty"`
}
