package board

import (
	"sync"

	"github.com/Jimix91/ticketflow/internal/models"
)

// Store is the single source of truth for tickets and the user directory.
// Tickets are kept newest-first, the display convention inherited from the
// server's list ordering. All views receive copies; nothing outside this
// package mutates the canonical slices.
type Store struct {
	mu      sync.RWMutex
	tickets []models.Ticket
	users   map[int64]models.User
}

func NewStore() *Store {
	return &Store{users: make(map[int64]models.User)}
}

// ReplaceAll reconciles a server snapshot against the current list and
// reports whether a remote change was detected: the id sets differ, or any
// shared id differs in UpdatedAt or Status. The incoming list then
// replaces the current one, except that a locally held ticket with a
// strictly newer UpdatedAt survives the merge; a slow poll response must
// not roll back an edit that already completed.
func (s *Store) ReplaceAll(incoming []models.Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[int64]models.Ticket, len(s.tickets))
	for _, t := range s.tickets {
		current[t.ID] = t
	}

	changed := len(incoming) != len(s.tickets)
	merged := make([]models.Ticket, 0, len(incoming))
	for _, in := range incoming {
		cur, ok := current[in.ID]
		if !ok {
			// same length but a different id set is still a remote change
			changed = true
		} else {
			if !cur.UpdatedAt.Equal(in.UpdatedAt) || cur.Status != in.Status {
				changed = true
			}
			if cur.UpdatedAt.After(in.UpdatedAt) {
				in = cur
			}
		}
		merged = append(merged, in)
	}
	s.tickets = merged
	return changed
}

// Upsert inserts an absent ticket at the front or replaces a present one in
// place, preserving its position.
func (s *Store) Upsert(t models.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets {
		if s.tickets[i].ID == t.ID {
			s.tickets[i] = t
			return
		}
	}
	s.tickets = append([]models.Ticket{t}, s.tickets...)
}

// Remove deletes the ticket; an absent id is a no-op.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets {
		if s.tickets[i].ID == id {
			s.tickets = append(s.tickets[:i], s.tickets[i+1:]...)
			return
		}
	}
}

// Snapshot returns a copy of the ticket list in display order.
func (s *Store) Snapshot() []models.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out
}

func (s *Store) Get(id int64) (models.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tickets {
		if t.ID == id {
			return t, true
		}
	}
	return models.Ticket{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tickets)
}

// ReplaceUsers refreshes the whole user directory from a server snapshot.
func (s *Store) ReplaceUsers(users []models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[int64]models.User, len(users))
	for _, u := range users {
		s.users[u.ID] = u
	}
}

// UpsertUser patches a single directory entry; used only when the current
// session's own profile changes between polls.
func (s *Store) UpsertUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) User(id int64) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out
}
