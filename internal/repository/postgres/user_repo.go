package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jimix91/ticketflow/internal/models"
	"github.com/Jimix91/ticketflow/internal/repository"
)

type UserRepo struct{ db *pgxpool.Pool }

func NewUserRepo(db *pgxpool.Pool) repository.UserRepository { return &UserRepo{db: db} }

const userColumns = `id, email, name, role, profile_image_url, created_at, updated_at`

// Create stores the bcrypt hash alongside the profile.
func (r *UserRepo) Create(ctx context.Context, email, name string, role models.Role, passwordHash string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (email, name, role, password_hash)
		VALUES ($1,$2,$3,$4)
		RETURNING `+userColumns,
		email, name, role, passwordHash).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.ProfileImageURL, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, string, error) {
	var u models.User
	var hash string
	err := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`, password_hash
		FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.ProfileImageURL, &u.CreatedAt, &u.UpdatedAt, &hash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", nil
		}
		return nil, "", err
	}
	return &u, hash, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.ProfileImageURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// List returns the whole directory; the board resolves display names from
// it, so no paging.
func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.ProfileImageURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateProfile patches name and/or profile image for the given user. A nil
// name is left untouched; setImage distinguishes "leave the image alone"
// from an explicit null that clears it.
func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, name *string, setImage bool, imageURL *string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE($1, name),
			profile_image_url = CASE WHEN $2::bool THEN $3 ELSE profile_image_url END,
			updated_at = NOW()
		WHERE id = $4
		RETURNING `+userColumns,
		name, setImage, imageURL, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.ProfileImageURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
