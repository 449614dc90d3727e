package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Jimix91/ticketflow/internal/models"
)

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type CreateTicketInput struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	ImageURL     *string          `json:"imageUrl,omitempty"`
	Status       *models.Status   `json:"status,omitempty"`
	Priority     *models.Priority `json:"priority,omitempty"`
	AssignedToID *int64           `json:"assignedToId,omitempty"`
}

// UpdateTicketInput patches individual fields; nil means "leave as is".
// AssignedToID uses a double pointer so an explicit null (clear the
// assignment) survives JSON round-tripping.
type UpdateTicketInput struct {
	Title        *string          `json:"title,omitempty"`
	Description  *string          `json:"description,omitempty"`
	ImageURL     *string          `json:"imageUrl,omitempty"`
	Status       *models.Status   `json:"status,omitempty"`
	Priority     *models.Priority `json:"priority,omitempty"`
	AssignedToID **int64          `json:"assignedToId,omitempty"`
}

type CreateCommentInput struct {
	Content  string  `json:"content"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

type UpdateProfileInput struct {
	Name            *string `json:"name,omitempty"`
	ProfileImageURL *string `json:"profileImageUrl,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	in := map[string]string{"email": email, "password": password}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string, role models.Role) (*AuthResponse, error) {
	in := map[string]any{"name": name, "email": email, "password": password, "role": role}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateMyProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPatch, "/users/me", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTickets(ctx context.Context) ([]models.Ticket, error) {
	var out []models.Ticket
	if err := c.do(ctx, http.MethodGet, "/tickets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var out models.Ticket
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tickets/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTicket(ctx context.Context, in CreateTicketInput) (*models.Ticket, error) {
	var out models.Ticket
	if err := c.do(ctx, http.MethodPost, "/tickets", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTicket(ctx context.Context, id int64, in UpdateTicketInput) (*models.Ticket, error) {
	var out models.Ticket
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tickets/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTicket(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tickets/%d", id), nil, nil)
}

func (c *Client) GetTicketComments(ctx context.Context, ticketID int64) ([]models.Comment, error) {
	var out []models.Comment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tickets/%d/comments", ticketID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTicketComment(ctx context.Context, ticketID int64, in CreateCommentInput) (*models.Comment, error) {
	var out models.Comment
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/tickets/%d/comments", ticketID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
