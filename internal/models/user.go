package models

import "time"

// Role is a closed set; dispatch on it with an exhaustive switch so a new
// role cannot fall through silently.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleAgent    Role = "AGENT"
	RoleEmployee Role = "EMPLOYEE"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            Role      `json:"role"`
	ProfileImageURL *string   `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
