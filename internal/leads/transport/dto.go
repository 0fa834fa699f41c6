// Package transport defines the leads module's request and response shapes.
package transport

import (
	"time"

	"homepro_backend/internal/leads/domain"
	"homepro_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// CreateLeadRequest is the payload for submitting a lead. Guest contact fields
// are required when the caller is not authenticated.
type CreateLeadRequest struct {
	FirstName string `json:"firstName" validate:"omitempty,max=80"`
	LastName  string `json:"lastName" validate:"omitempty,max=80"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`

	ServiceID   uuid.UUID `json:"serviceId" validate:"required"`
	Description string    `json:"description" validate:"max=5000"`

	Address string `json:"address" validate:"required,max=200"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,max=100"`
	ZipCode string `json:"zipCode" validate:"required,max=20"`
	Country string `json:"country" validate:"omitempty,max=100"`

	PropertyType    string `json:"propertyType" validate:"required"`
	ProjectTimeline string `json:"projectTimeline" validate:"required"`
	BudgetRange     string `json:"budgetRange" validate:"omitempty,max=100"`
	IsHomeowner     bool   `json:"isHomeowner"`

	MonthlyUtilityBill *int64            `json:"monthlyUtilityBill" validate:"omitempty,min=0"`
	RoofAge            *int              `json:"roofAge" validate:"omitempty,min=0,max=200"`
	SquareFootage      *int              `json:"squareFootage" validate:"omitempty,min=1"`
	CustomFields       map[string]string `json:"customFields"`
}

// UpdateLeadStatusRequest changes a lead's status.
type UpdateLeadStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// VerifyLeadRequest appends a verification ledger entry.
type VerifyLeadRequest struct {
	Method     string `json:"method" validate:"required"`
	Notes      string `json:"notes" validate:"max=2000"`
	IsVerified *bool  `json:"isVerified" validate:"required"`
}

// AssignLeadRequest attaches a contractor to a lead.
type AssignLeadRequest struct {
	ContractorID  uuid.UUID `json:"contractorId" validate:"required"`
	IsExclusive   bool      `json:"isExclusive"`
	LeadCostCents int64     `json:"leadCostCents" validate:"min=0"`
	Notes         string    `json:"notes" validate:"max=2000"`
}

// UpdateAssignmentRequest records contractor progress on an assignment.
type UpdateAssignmentRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}

// ListLeadsQuery filters a lead listing.
type ListLeadsQuery struct {
	Status    string `form:"status"`
	ServiceID string `form:"serviceId"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// LeadResponse is the API representation of a lead.
type LeadResponse struct {
	ID             uuid.UUID  `json:"id"`
	HomeownerID    *uuid.UUID `json:"homeownerId,omitempty"`
	GuestFirstName *string    `json:"guestFirstName,omitempty"`
	GuestLastName  *string    `json:"guestLastName,omitempty"`
	GuestEmail     *string    `json:"guestEmail,omitempty"`
	GuestPhone     *string    `json:"guestPhone,omitempty"`

	ServiceID   uuid.UUID `json:"serviceId"`
	Description string    `json:"description,omitempty"`

	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`

	PropertyType    string  `json:"propertyType"`
	ProjectTimeline string  `json:"projectTimeline"`
	BudgetRange     *string `json:"budgetRange,omitempty"`
	IsHomeowner     bool    `json:"isHomeowner"`

	MonthlyUtilityBill *int64            `json:"monthlyUtilityBill,omitempty"`
	RoofAge            *int              `json:"roofAge,omitempty"`
	SquareFootage      *int              `json:"squareFootage,omitempty"`
	CustomFields       map[string]string `json:"customFields,omitempty"`

	Status    string    `json:"status"`
	LeadScore int       `json:"leadScore"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AssignmentResponse is the API representation of an assignment.
type AssignmentResponse struct {
	ID            uuid.UUID `json:"id"`
	LeadID        uuid.UUID `json:"leadId"`
	ContractorID  uuid.UUID `json:"contractorId"`
	Status        string    `json:"status"`
	IsExclusive   bool      `json:"isExclusive"`
	AssignedAt    time.Time `json:"assignedAt"`
	LeadCostCents int64     `json:"leadCostCents"`
	Notes         *string   `json:"notes,omitempty"`
}

// VerificationResponse is the API representation of a ledger entry.
type VerificationResponse struct {
	ID         uuid.UUID `json:"id"`
	VerifiedBy uuid.UUID `json:"verifiedBy"`
	Method     string    `json:"method"`
	Notes      string    `json:"notes,omitempty"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LeadDetailResponse is a lead with its sub-records.
type LeadDetailResponse struct {
	LeadResponse
	Assignments   []AssignmentResponse   `json:"assignments"`
	Verifications []VerificationResponse `json:"verifications"`
}

// ListLeadsResponse is a paginated lead listing.
type ListLeadsResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// ToLeadResponse maps a domain lead to its API shape.
func ToLeadResponse(l *domain.Lead) LeadResponse {
	return LeadResponse{
		ID:                 l.ID,
		HomeownerID:        l.HomeownerID,
		GuestFirstName:     l.GuestFirstName,
		GuestLastName:      l.GuestLastName,
		GuestEmail:         l.GuestEmail,
		GuestPhone:         l.GuestPhone,
		ServiceID:          l.ServiceID,
		Description:        l.Description,
		Address:            l.Address,
		City:               l.City,
		State:              l.State,
		ZipCode:            l.ZipCode,
		Country:            l.Country,
		PropertyType:       string(l.PropertyType),
		ProjectTimeline:    string(l.ProjectTimeline),
		BudgetRange:        l.BudgetRange,
		IsHomeowner:        l.IsHomeowner,
		MonthlyUtilityBill: l.MonthlyUtilityBill,
		RoofAge:            l.RoofAge,
		SquareFootage:      l.SquareFootage,
		CustomFields:       l.CustomFields,
		Status:             string(l.Status),
		LeadScore:          l.LeadScore,
		ExpiresAt:          l.ExpiresAt,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

// ToAssignmentResponse maps a domain assignment to its API shape.
func ToAssignmentResponse(a *domain.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:            a.ID,
		LeadID:        a.LeadID,
		ContractorID:  a.ContractorID,
		Status:        string(a.Status),
		IsExclusive:   a.IsExclusive,
		AssignedAt:    a.AssignedAt,
		LeadCostCents: a.LeadCost,
		Notes:         a.Notes,
	}
}

// ToVerificationResponse maps a domain verification to its API shape.
func ToVerificationResponse(v *domain.Verification) VerificationResponse {
	return VerificationResponse{
		ID:         v.ID,
		VerifiedBy: v.VerifiedBy,
		Method:     string(v.Method),
		Notes:      v.Notes,
		IsVerified: v.IsVerified,
		CreatedAt:  v.CreatedAt,
	}
}

// ToListLeadsResponse maps a repository page to its API shape.
func ToListLeadsResponse(result *repository.ListResult) ListLeadsResponse {
	items := make([]LeadResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, ToLeadResponse(&result.Items[i]))
	}
	return ListLeadsResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}
}
