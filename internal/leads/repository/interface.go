package repository

import (
	"context"
	"time"

	"homepro_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// ListParams contains parameters for listing leads.
type ListParams struct {
	// HomeownerID restricts results to leads owned by this homeowner.
	HomeownerID *uuid.UUID
	// ContractorID restricts results to leads assigned to this contractor.
	ContractorID *uuid.UUID
	Status       *domain.Status
	ServiceID    *uuid.UUID
	// IncludeExpired disables the expiration visibility predicate (admin use).
	IncludeExpired bool
	SortBy         string
	SortOrder      string
	Page           int
	PageSize       int
}

// ListResult contains the paginated result of listing leads.
type ListResult struct {
	Items      []domain.Lead
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// UpdateStatusParams performs a compare-and-set status transition. The update
// only applies while the stored status still equals Expected.
type UpdateStatusParams struct {
	LeadID   uuid.UUID
	Expected domain.Status
	Next     domain.Status
}

// UpdateAssignmentParams updates one contractor's assignment record.
type UpdateAssignmentParams struct {
	LeadID       uuid.UUID
	ContractorID uuid.UUID
	Status       domain.AssignmentStatus
	Notes        *string
}

// Store is the persistence surface of the leads module. The pgx implementation
// lives in this package; tests substitute an in-memory fake.
type Store interface {
	CreateLead(ctx context.Context, lead *domain.Lead) error
	GetLead(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	ListLeads(ctx context.Context, params ListParams) (*ListResult, error)
	// UpdateLeadStatus applies a CAS transition and returns the updated lead.
	// It fails with Conflict when the stored status no longer matches Expected.
	UpdateLeadStatus(ctx context.Context, params UpdateStatusParams) (*domain.Lead, error)

	// AddVerification appends a ledger entry and, for successful verifications,
	// advances the lead from new to verified in the same transaction. The
	// returned flag reports whether the status actually advanced.
	AddVerification(ctx context.Context, v *domain.Verification) (advanced bool, err error)
	ListVerifications(ctx context.Context, leadID uuid.UUID) ([]domain.Verification, error)

	// AddAssignment attaches a contractor inside one transaction and advances
	// the lead from verified to distributed when applicable. The returned flag
	// reports whether the lead was distributed by this call.
	AddAssignment(ctx context.Context, a *domain.Assignment) (distributed bool, err error)
	GetAssignment(ctx context.Context, leadID, contractorID uuid.UUID) (*domain.Assignment, error)
	ListAssignments(ctx context.Context, leadID uuid.UUID) ([]domain.Assignment, error)
	// UpdateAssignment changes an assignment's status and, when the new status
	// is won, forces the lead to completed in the same transaction.
	UpdateAssignment(ctx context.Context, params UpdateAssignmentParams) (*domain.Assignment, error)

	// ExpireLeads stamps the expired status on every non-terminal lead past its
	// deadline and returns the number of rows affected.
	ExpireLeads(ctx context.Context, now time.Time) (int64, error)
}
