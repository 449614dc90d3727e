package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jimix91/ticketflow/internal/client"
	"github.com/Jimix91/ticketflow/internal/models"
)

var (
	// ErrNotAllowed signals a capability rejection; no request was made.
	ErrNotAllowed = errors.New("not allowed")
	// ErrNotFound signals a stale reference: the target ticket is no longer
	// in the store (deleted by another session, most likely).
	ErrNotFound = errors.New("ticket not found")
)

// MoveIntent distinguishes how a status move was requested. Drag moves are
// gated by CanDrag and rejected silently; form moves are gated by CanManage
// and rejection surfaces the user-visible error.
type MoveIntent int

const (
	MoveByDrag MoveIntent = iota
	MoveByForm
)

// MoveStatus executes a move-intent: a request to put the ticket in the
// target column. Any status is reachable from any other; the only gate is
// capability. Moving to the current status is a no-op with no request and
// no notice.
func (b *Board) MoveStatus(ctx context.Context, ticketID int64, target models.Status, intent MoveIntent) error {
	if !target.Valid() {
		return fmt.Errorf("invalid status %q", target)
	}

	t, ok := b.store.Get(ticketID)
	if !ok {
		return ErrNotFound
	}

	allowed := false
	switch intent {
	case MoveByDrag:
		allowed = b.session.CanDrag(t)
	case MoveByForm:
		allowed = b.session.CanManage(t)
	}
	if !allowed {
		if intent == MoveByForm {
			b.setError(fmt.Errorf("you are not allowed to change the status of ticket #%d", ticketID))
		} else {
			b.log.Debug().Int64("ticket", ticketID).Msg("drag rejected")
		}
		return ErrNotAllowed
	}

	if t.Status == target {
		return nil
	}

	status := target
	updated, err := b.api.UpdateTicket(ctx, ticketID, client.UpdateTicketInput{Status: &status})
	if err != nil {
		b.setError(err)
		return err
	}
	// The server owns UpdatedAt; trust its copy.
	b.store.Upsert(*updated)
	b.setNotice(fmt.Sprintf("Ticket #%d moved to %s", ticketID, target))
	b.log.Info().Int64("ticket", ticketID).Str("to", string(target)).Msg("ticket moved")
	return nil
}

// CreateTicket files a new ticket and prepends the server's copy.
func (b *Board) CreateTicket(ctx context.Context, in client.CreateTicketInput) (*models.Ticket, error) {
	if !b.session.Active() {
		return nil, ErrNotAllowed
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		err := errors.New("title is required")
		b.setError(err)
		return nil, err
	}
	t, err := b.api.CreateTicket(ctx, in)
	if err != nil {
		b.setError(err)
		return nil, err
	}
	b.store.Upsert(*t)
	return t, nil
}

// UpdateTicket edits ticket fields, gated by CanManage. Employees cannot
// change status through the edit form; any status they submit is replaced
// with the ticket's current one before the request goes out.
func (b *Board) UpdateTicket(ctx context.Context, ticketID int64, in client.UpdateTicketInput) (*models.Ticket, error) {
	t, ok := b.store.Get(ticketID)
	if !ok {
		return nil, ErrNotFound
	}
	if !b.session.CanManage(t) {
		b.setError(fmt.Errorf("you are not allowed to edit ticket #%d", ticketID))
		return nil, ErrNotAllowed
	}
	if b.session.IsEmployee() && in.Status != nil {
		current := t.Status
		in.Status = &current
	}

	updated, err := b.api.UpdateTicket(ctx, ticketID, in)
	if err != nil {
		b.setError(err)
		return nil, err
	}
	b.store.Upsert(*updated)
	return updated, nil
}

// DeleteTicket removes the ticket everywhere. Confirmation is the caller's
// concern; by the time this runs the user already said yes.
func (b *Board) DeleteTicket(ctx context.Context, ticketID int64) error {
	t, ok := b.store.Get(ticketID)
	if !ok {
		return ErrNotFound
	}
	if !b.session.CanManage(t) {
		b.setError(fmt.Errorf("you are not allowed to delete ticket #%d", ticketID))
		return ErrNotAllowed
	}
	if err := b.api.DeleteTicket(ctx, ticketID); err != nil {
		b.setError(err)
		return err
	}
	b.store.Remove(ticketID)
	return nil
}

// ViewTicket re-fetches a single ticket so detail views always show server
// truth, then refreshes the stored copy. A 404 degrades to ErrNotFound and
// drops the stale entry.
func (b *Board) ViewTicket(ctx context.Context, ticketID int64) (*models.Ticket, error) {
	t, err := b.api.GetTicketByID(ctx, ticketID)
	if err != nil {
		if strings.Contains(err.Error(), "status 404") {
			b.store.Remove(ticketID)
			return nil, ErrNotFound
		}
		b.setError(err)
		return nil, err
	}
	b.store.Upsert(*t)
	return t, nil
}

// Comments lists a ticket's comment thread in creation order.
func (b *Board) Comments(ctx context.Context, ticketID int64) ([]models.Comment, error) {
	cs, err := b.api.GetTicketComments(ctx, ticketID)
	if err != nil {
		b.setError(err)
		return nil, err
	}
	return cs, nil
}

// AddComment appends to a ticket's thread, gated by CanComment.
func (b *Board) AddComment(ctx context.Context, ticketID int64, in client.CreateCommentInput) (*models.Comment, error) {
	t, ok := b.store.Get(ticketID)
	if !ok {
		return nil, ErrNotFound
	}
	if !b.session.CanComment(t) {
		b.setError(fmt.Errorf("you are not allowed to comment on ticket #%d", ticketID))
		return nil, ErrNotAllowed
	}
	c, err := b.api.CreateTicketComment(ctx, ticketID, in)
	if err != nil {
		b.setError(err)
		return nil, err
	}
	return c, nil
}
