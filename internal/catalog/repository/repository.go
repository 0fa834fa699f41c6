// Package repository provides database operations for the service catalog.
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

// Service is the database model for a catalog entry.
type Service struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// CreateParams contains the fields for a new catalog entry.
type CreateParams struct {
	Name        string
	Description string
	Category    string
}

// UpdateParams contains the mutable fields of a catalog entry. Nil fields are
// left unchanged.
type UpdateParams struct {
	Name        *string
	Description *string
	Category    *string
	IsActive    *bool
}

const serviceNotFoundMsg = "service not found"

// Repository provides database operations for catalog services.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const serviceColumns = `id, name, description, category, is_active, created_at, updated_at`

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Category, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(serviceNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan service: %w", err)
	}
	return &s, nil
}

// Create inserts a new catalog entry.
func (r *Repository) Create(ctx context.Context, params CreateParams) (*Service, error) {
	query := `
		INSERT INTO services (name, description, category)
		VALUES ($1, $2, $3)
		RETURNING ` + serviceColumns

	return scanService(r.pool.QueryRow(ctx, query, params.Name, params.Description, params.Category))
}

// GetByID returns the catalog entry with the given id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	return scanService(r.pool.QueryRow(ctx, query, id))
}

// ExistsActive reports whether an active catalog entry with the given id exists.
func (r *Repository) ExistsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM services WHERE id = $1 AND is_active)`
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check service existence: %w", err)
	}
	return exists, nil
}

// List returns catalog entries, optionally restricted to active ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY category, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var items []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Category, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// Update applies the non-nil fields of params to a catalog entry.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Service, error) {
	query := `
		UPDATE services SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			category    = COALESCE($4, category),
			is_active   = COALESCE($5, is_active),
			updated_at  = now()
		WHERE id = $1
		RETURNING ` + serviceColumns

	return scanService(r.pool.QueryRow(ctx, query, id, params.Name, params.Description, params.Category, params.IsActive))
}
