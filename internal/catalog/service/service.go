// Package service implements catalog business logic.
package service

import (
	"context"

	"homepro_backend/internal/catalog/repository"
	"homepro_backend/platform/apperr"

	"github.com/google/uuid"
)

// Store is the persistence surface the catalog service needs.
type Store interface {
	Create(ctx context.Context, params repository.CreateParams) (*repository.Service, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Service, error)
	ExistsActive(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, activeOnly bool) ([]repository.Service, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateParams) (*repository.Service, error)
}

// Service provides catalog operations.
type Service struct {
	store Store
}

// New creates a new catalog service.
func New(store Store) *Service {
	return &Service{store: store}
}

// Create adds a catalog entry.
func (s *Service) Create(ctx context.Context, params repository.CreateParams) (*repository.Service, error) {
	if params.Name == "" {
		return nil, apperr.Validation("service name is required")
	}
	return s.store.Create(ctx, params)
}

// Get returns one catalog entry.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Service, error) {
	return s.store.GetByID(ctx, id)
}

// List returns catalog entries. Non-admin callers only see active ones.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]repository.Service, error) {
	return s.store.List(ctx, !includeInactive)
}

// Update modifies a catalog entry.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params repository.UpdateParams) (*repository.Service, error) {
	return s.store.Update(ctx, id, params)
}

// ResolveActive confirms the id refers to an active catalog entry. Lead
// creation uses this before accepting a service reference.
func (s *Service) ResolveActive(ctx context.Context, id uuid.UUID) error {
	exists, err := s.store.ExistsActive(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("service not found")
	}
	return nil
}
