package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jimix91/ticketflow/internal/models"
)

type TicketRepo struct{ db *pgxpool.Pool }

func NewTicketRepo(db *pgxpool.Pool) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `
	t.id, t.title, t.description, t.image_url, t.status, t.priority,
	t.created_at, t.updated_at, t.created_by, t.assigned_to,
	cb.id, cb.name, cb.email, cb.role,
	a.id, a.name, a.email, a.role`

const ticketJoins = `
	FROM tickets t
	JOIN users cb ON cb.id = t.created_by
	LEFT JOIN users a ON a.id = t.assigned_to`

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var (
		t      models.Ticket
		cb     models.User
		aID    *int64
		aName  *string
		aEmail *string
		aRole  *models.Role
	)
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.ImageURL, &t.Status, &t.Priority,
		&t.CreatedAt, &t.UpdatedAt, &t.CreatedByID, &t.AssignedToID,
		&cb.ID, &cb.Name, &cb.Email, &cb.Role,
		&aID, &aName, &aEmail, &aRole,
	); err != nil {
		return nil, err
	}
	t.CreatedBy = &cb
	if aID != nil {
		t.AssignedTo = &models.User{ID: *aID, Name: *aName, Email: *aEmail, Role: *aRole}
	}
	return &t, nil
}

// List returns every ticket newest-first with creator/assignee snapshots
// joined in; role scoping happens in the handler.
func (r *TicketRepo) List(ctx context.Context) ([]models.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+ticketJoins+` ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *TicketRepo) Get(ctx context.Context, id int64) (*models.Ticket, error) {
	t, err := scanTicket(r.db.QueryRow(ctx, `SELECT `+ticketColumns+ticketJoins+` WHERE t.id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (r *TicketRepo) Create(ctx context.Context, t *models.Ticket) error {
	now := time.Now()
	return r.db.QueryRow(ctx, `
		INSERT INTO tickets (title, description, image_url, status, priority, created_by, assigned_to, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at, updated_at
	`,
		t.Title, t.Description, t.ImageURL, t.Status, t.Priority, t.CreatedByID, t.AssignedToID, now, now,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// Update persists every mutable field and advances updated_at.
func (r *TicketRepo) Update(ctx context.Context, t *models.Ticket) error {
	err := r.db.QueryRow(ctx, `
		UPDATE tickets SET
			title=$1, description=$2, image_url=$3, status=$4, priority=$5, assigned_to=$6, updated_at=NOW()
		WHERE id=$7
		RETURNING updated_at
	`,
		t.Title, t.Description, t.ImageURL, t.Status, t.Priority, t.AssignedToID, t.ID,
	).Scan(&t.UpdatedAt)
	if err == pgx.ErrNoRows {
		return pgx.ErrNoRows
	}
	return err
}

// Delete removes the ticket and its comments; reports whether a row existed.
func (r *TicketRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *TicketRepo) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[models.Status]int)
	for rows.Next() {
		var s models.Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

func (r *TicketRepo) ListComments(ctx context.Context, ticketID int64) ([]models.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.ticket_id, c.author_id, c.content, c.image_url, c.created_at,
			u.id, u.name, u.email, u.role
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.ticket_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		var c models.Comment
		var u models.User
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Content, &c.ImageURL, &c.CreatedAt,
			&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
			return nil, err
		}
		c.Author = &u
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddComment appends to the ticket's thread and bumps the ticket's
// updated_at so pollers see the activity.
func (r *TicketRepo) AddComment(ctx context.Context, c *models.Comment) error {
	if err := r.db.QueryRow(ctx, `
		INSERT INTO comments (ticket_id, author_id, content, image_url)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at
	`, c.TicketID, c.AuthorID, c.Content, c.ImageURL).Scan(&c.ID, &c.CreatedAt); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `UPDATE tickets SET updated_at = NOW() WHERE id = $1`, c.TicketID)
	return err
}
