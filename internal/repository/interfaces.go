package repository

import (
	"context"

	"github.com/Jimix91/ticketflow/internal/models"
)

type TicketRepository interface {
	List(ctx context.Context) ([]models.Ticket, error)
	Get(ctx context.Context, id int64) (*models.Ticket, error)
	Create(ctx context.Context, t *models.Ticket) error
	Update(ctx context.Context, t *models.Ticket) error
	Delete(ctx context.Context, id int64) (bool, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	ListComments(ctx context.Context, ticketID int64) ([]models.Comment, error)
	AddComment(ctx context.Context, c *models.Comment) error
}

type UserRepository interface {
	Create(ctx context.Context, email, name string, role models.Role, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, string /*passwordHash*/, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id int64, name *string, setImage bool, imageURL *string) (*models.User, error)
}
