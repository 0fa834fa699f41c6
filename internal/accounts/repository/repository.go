// Package repository provides read-side access to user accounts. Account
// creation and authentication are handled outside this service; leads and
// quotes only need to resolve roles and contact details.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"homepro_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is the database model for an account.
type User struct {
	ID        uuid.UUID `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Phone     *string   `db:"phone"`
	Company   *string   `db:"company"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Repository provides database operations for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new accounts repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, first_name, last_name, email, phone, company, role, created_at`

// GetByID returns the user with the given id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Company, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetContractor returns the user with the given id only if they hold the
// contractor role.
func (r *Repository) GetContractor(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != "contractor" {
		return nil, apperr.NotFound("contractor not found")
	}
	return u, nil
}
