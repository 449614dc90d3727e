package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Jimix91/ticketflow/internal/models"
	"github.com/Jimix91/ticketflow/internal/repository"
	"github.com/Jimix91/ticketflow/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

const tokenTTL = 24 * time.Hour

type AuthService struct {
	users         repository.UserRepository
	sessionSecret string
}

func NewAuthService(users repository.UserRepository, sessionSecret string) *AuthService {
	return &AuthService{users: users, sessionSecret: sessionSecret}
}

// Register creates an account and signs it in. The role defaults to
// EMPLOYEE when absent or invalid; admins are seeded out of band.
func (a *AuthService) Register(ctx context.Context, name, email, password string, role models.Role) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" || len(password) < 6 {
		return "", nil, ErrInvalidInput
	}
	if !role.Valid() {
		role = models.RoleEmployee
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return "", nil, err
	}
	u, err := a.users.Create(ctx, email, name, role, hash)
	if err != nil {
		return "", nil, err
	}
	tok, err := utils.SignJWT(a.sessionSecret, u.ID, u.Role, tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

func (a *AuthService) Login(ctx context.Context, email, password string) (token string, user *models.User, err error) {
	u, hash, err := a.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		return "", nil, ErrInvalidCredentials
	}
	if !utils.CheckPassword(hash, password) {
		return "", nil, ErrInvalidCredentials
	}
	tok, err := utils.SignJWT(a.sessionSecret, u.ID, u.Role, tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}
