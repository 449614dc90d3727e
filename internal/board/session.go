package board

import (
	"sync"

	"github.com/Jimix91/ticketflow/internal/models"
)

// Session holds the authenticated identity and the auth token handed to the
// request layer. The identity is replaced wholesale on login/logout/profile
// edit, never patched field by field. Every capability predicate fails
// closed when no identity is established.
type Session struct {
	mu    sync.RWMutex
	user  *models.User
	token string
}

func NewSession() *Session { return &Session{} }

func (s *Session) Establish(u models.User, token string) {
	s.mu.Lock()
	s.user = &u
	s.token = token
	s.mu.Unlock()
}

func (s *Session) Clear() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
}

// Identity returns a copy of the current user, or nil when logged out.
func (s *Session) Identity() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) IsAdmin() bool    { return s.hasRole(models.RoleAdmin) }
func (s *Session) IsAgent() bool    { return s.hasRole(models.RoleAgent) }
func (s *Session) IsEmployee() bool { return s.hasRole(models.RoleEmployee) }

func (s *Session) hasRole(r models.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.Role == r
}

// CanManage reports whether the current identity may edit, delete, or
// comment on the ticket: admins always, employees on tickets they created,
// agents on tickets assigned to them.
func (s *Session) CanManage(t models.Ticket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return false
	}
	switch s.user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleAgent:
		return t.Assigned(s.user.ID)
	case models.RoleEmployee:
		return t.CreatedByID == s.user.ID
	default:
		return false
	}
}

// CanDrag reports whether the current identity may move the ticket between
// board columns. Employees never drag, even on their own tickets.
func (s *Session) CanDrag(t models.Ticket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return false
	}
	switch s.user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleAgent:
		return t.Assigned(s.user.ID)
	case models.RoleEmployee:
		return false
	default:
		return false
	}
}

func (s *Session) CanComment(t models.Ticket) bool {
	return s.CanManage(t)
}
