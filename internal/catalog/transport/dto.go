// Package transport defines the catalog module's request and response shapes.
package transport

import (
	"time"

	"homepro_backend/internal/catalog/repository"

	"github.com/google/uuid"
)

// CreateServiceRequest is the payload for creating a catalog entry.
type CreateServiceRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=120"`
}

// UpdateServiceRequest is the payload for updating a catalog entry.
type UpdateServiceRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Category    *string `json:"category" validate:"omitempty,max=120"`
	IsActive    *bool   `json:"isActive"`
}

// ServiceResponse is the API representation of a catalog entry.
type ServiceResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ToServiceResponse maps a database model to its API shape.
func ToServiceResponse(s *repository.Service) ServiceResponse {
	return ServiceResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Category:    s.Category,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ToServiceResponses maps a slice of database models.
func ToServiceResponses(items []repository.Service) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(items))
	for i := range items {
		out = append(out, ToServiceResponse(&items[i]))
	}
	return out
}
