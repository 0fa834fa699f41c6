// Package repository provides database operations for the leads module.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"homepro_backend/internal/leads/domain"
	"homepro_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	leadNotFoundMsg       = "lead not found"
	assignmentNotFoundMsg = "assignment not found"

	pgUniqueViolation = "23505"
)

// Repository provides database operations for leads.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

const leadColumns = `
	id, homeowner_id, guest_first_name, guest_last_name, guest_email, guest_phone,
	service_id, description, address, city, state, zip_code, country,
	property_type, project_timeline, budget_range, is_homeowner,
	monthly_utility_bill, roof_age, square_footage, custom_fields,
	status, lead_score, expires_at, version, created_at, updated_at`

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var l domain.Lead
	var customFields []byte
	err := row.Scan(
		&l.ID, &l.HomeownerID, &l.GuestFirstName, &l.GuestLastName, &l.GuestEmail, &l.GuestPhone,
		&l.ServiceID, &l.Description, &l.Address, &l.City, &l.State, &l.ZipCode, &l.Country,
		&l.PropertyType, &l.ProjectTimeline, &l.BudgetRange, &l.IsHomeowner,
		&l.MonthlyUtilityBill, &l.RoofAge, &l.SquareFootage, &customFields,
		&l.Status, &l.LeadScore, &l.ExpiresAt, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(leadNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lead: %w", err)
	}
	if len(customFields) > 0 {
		if err := json.Unmarshal(customFields, &l.CustomFields); err != nil {
			return nil, fmt.Errorf("failed to decode custom fields: %w", err)
		}
	}
	return &l, nil
}

// CreateLead inserts a new lead.
func (r *Repository) CreateLead(ctx context.Context, lead *domain.Lead) error {
	var customFields []byte
	if len(lead.CustomFields) > 0 {
		encoded, err := json.Marshal(lead.CustomFields)
		if err != nil {
			return fmt.Errorf("failed to encode custom fields: %w", err)
		}
		customFields = encoded
	}

	query := `
		INSERT INTO leads (
			id, homeowner_id, guest_first_name, guest_last_name, guest_email, guest_phone,
			service_id, description, address, city, state, zip_code, country,
			property_type, project_timeline, budget_range, is_homeowner,
			monthly_utility_bill, roof_age, square_footage, custom_fields,
			status, lead_score, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
		)
		RETURNING version, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		lead.ID, lead.HomeownerID, lead.GuestFirstName, lead.GuestLastName, lead.GuestEmail, lead.GuestPhone,
		lead.ServiceID, lead.Description, lead.Address, lead.City, lead.State, lead.ZipCode, lead.Country,
		lead.PropertyType, lead.ProjectTimeline, lead.BudgetRange, lead.IsHomeowner,
		lead.MonthlyUtilityBill, lead.RoofAge, lead.SquareFootage, customFields,
		lead.Status, lead.LeadScore, lead.ExpiresAt,
	).Scan(&lead.Version, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// GetLead returns the lead with the given id, regardless of expiration. The
// service layer projects expiration onto direct reads; only list queries apply
// the visibility predicate.
func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return scanLead(r.pool.QueryRow(ctx, query, id))
}

// ListLeads returns a filtered, paginated page of leads. Unless
// IncludeExpired is set, leads past their deadline are invisible.
func (r *Repository) ListLeads(ctx context.Context, params ListParams) (*ListResult, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !params.IncludeExpired {
		where += " AND expires_at > now()"
	}
	if params.HomeownerID != nil {
		where += " AND homeowner_id = " + arg(*params.HomeownerID)
	}
	if params.ContractorID != nil {
		where += " AND id IN (SELECT lead_id FROM lead_assignments WHERE contractor_id = " + arg(*params.ContractorID) + ")"
	}
	if params.Status != nil {
		where += " AND status = " + arg(*params.Status)
	}
	if params.ServiceID != nil {
		where += " AND service_id = " + arg(*params.ServiceID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	sortBy := "created_at"
	switch params.SortBy {
	case "lead_score", "expires_at", "updated_at", "created_at":
		sortBy = params.SortBy
	}
	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := "SELECT " + leadColumns + " FROM leads" + where +
		fmt.Sprintf(" ORDER BY %s %s LIMIT %s OFFSET %s", sortBy, sortOrder, arg(pageSize), arg((page-1)*pageSize))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Lead, 0, pageSize)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leads: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return &ListResult{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}, nil
}

// UpdateLeadStatus applies a compare-and-set transition. A mismatch between
// Expected and the stored status yields Conflict so callers can refetch.
func (r *Repository) UpdateLeadStatus(ctx context.Context, params UpdateStatusParams) (*domain.Lead, error) {
	query := `
		UPDATE leads
		SET status = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query, params.LeadID, params.Expected, params.Next))
	if err == nil {
		return lead, nil
	}
	if apperr.Is(err, apperr.KindNotFound) {
		// Row missing or status moved under us; refetch to tell which.
		if _, getErr := r.GetLead(ctx, params.LeadID); getErr != nil {
			return nil, getErr
		}
		return nil, apperr.Conflict("lead status changed concurrently")
	}
	return nil, err
}

// AddVerification appends a ledger entry. Successful verifications are only
// accepted while the lead is new or verified; the new to verified advance
// happens in the same transaction as the insert.
func (r *Repository) AddVerification(ctx context.Context, v *domain.Verification) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status domain.Status
	err = tx.QueryRow(ctx, `SELECT status FROM leads WHERE id = $1 FOR UPDATE`, v.LeadID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, apperr.NotFound(leadNotFoundMsg)
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock lead: %w", err)
	}

	if v.IsVerified && status != domain.StatusNew && status != domain.StatusVerified {
		return false, apperr.Conflict(fmt.Sprintf("lead in status %q cannot be verified", status))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lead_verifications (id, lead_id, verified_by, verification_method, notes, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.LeadID, v.VerifiedBy, v.Method, v.Notes, v.IsVerified,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert verification: %w", err)
	}

	advanced := false
	if v.IsVerified && status == domain.StatusNew {
		_, err = tx.Exec(ctx, `
			UPDATE leads SET status = $2, version = version + 1, updated_at = now()
			WHERE id = $1`,
			v.LeadID, domain.StatusVerified,
		)
		if err != nil {
			return false, fmt.Errorf("failed to advance lead to verified: %w", err)
		}
		advanced = true
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit verification: %w", err)
	}
	return advanced, nil
}

// ListVerifications returns the lead's ledger, oldest first.
func (r *Repository) ListVerifications(ctx context.Context, leadID uuid.UUID) ([]domain.Verification, error) {
	query := `
		SELECT id, lead_id, verified_by, verification_method, notes, is_verified, created_at
		FROM lead_verifications
		WHERE lead_id = $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}
	defer rows.Close()

	var items []domain.Verification
	for rows.Next() {
		var v domain.Verification
		if err := rows.Scan(&v.ID, &v.LeadID, &v.VerifiedBy, &v.Method, &v.Notes, &v.IsVerified, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verification: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// AddAssignment attaches a contractor to a lead. The unique constraint on
// (lead_id, contractor_id) turns duplicate assignments into Conflict. When the
// lead is exactly verified it advances to distributed in the same transaction.
func (r *Repository) AddAssignment(ctx context.Context, a *domain.Assignment) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status domain.Status
	err = tx.QueryRow(ctx, `SELECT status FROM leads WHERE id = $1 FOR UPDATE`, a.LeadID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, apperr.NotFound(leadNotFoundMsg)
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock lead: %w", err)
	}

	if domain.IsTerminal(status) {
		return false, apperr.Conflict(fmt.Sprintf("lead in status %q cannot be assigned", status))
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO lead_assignments (id, lead_id, contractor_id, status, is_exclusive, assigned_at, lead_cost_cents, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING updated_at`,
		a.ID, a.LeadID, a.ContractorID, a.Status, a.IsExclusive, a.AssignedAt, a.LeadCost, a.Notes,
	).Scan(&a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return false, apperr.Conflict("contractor already assigned to this lead")
		}
		return false, fmt.Errorf("failed to insert assignment: %w", err)
	}

	// Distribution happens only from exactly verified. A lead still at new
	// keeps its status even though a contractor is now attached.
	distributed := false
	if status == domain.StatusVerified {
		_, err = tx.Exec(ctx, `
			UPDATE leads SET status = $2, version = version + 1, updated_at = now()
			WHERE id = $1`,
			a.LeadID, domain.StatusDistributed,
		)
		if err != nil {
			return false, fmt.Errorf("failed to distribute lead: %w", err)
		}
		distributed = true
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit assignment: %w", err)
	}
	return distributed, nil
}

const assignmentColumns = `id, lead_id, contractor_id, status, is_exclusive, assigned_at, lead_cost_cents, notes, updated_at`

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var a domain.Assignment
	err := row.Scan(&a.ID, &a.LeadID, &a.ContractorID, &a.Status, &a.IsExclusive, &a.AssignedAt, &a.LeadCost, &a.Notes, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(assignmentNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}
	return &a, nil
}

// GetAssignment returns one contractor's assignment on a lead.
func (r *Repository) GetAssignment(ctx context.Context, leadID, contractorID uuid.UUID) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM lead_assignments WHERE lead_id = $1 AND contractor_id = $2`
	return scanAssignment(r.pool.QueryRow(ctx, query, leadID, contractorID))
}

// ListAssignments returns a lead's assignments in assignment order.
func (r *Repository) ListAssignments(ctx context.Context, leadID uuid.UUID) ([]domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM lead_assignments WHERE lead_id = $1 ORDER BY assigned_at`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var items []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// UpdateAssignment changes an assignment's status. A won assignment forces the
// lead to completed in the same transaction so the pair is never observed
// half-updated.
func (r *Repository) UpdateAssignment(ctx context.Context, params UpdateAssignmentParams) (*domain.Assignment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE lead_assignments
		SET status = $3, notes = COALESCE($4, notes), updated_at = now()
		WHERE lead_id = $1 AND contractor_id = $2
		RETURNING ` + assignmentColumns

	a, err := scanAssignment(tx.QueryRow(ctx, query, params.LeadID, params.ContractorID, params.Status, params.Notes))
	if err != nil {
		return nil, err
	}

	if params.Status == domain.AssignmentWon {
		if err := forceCompleteLead(ctx, tx, params.LeadID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit assignment update: %w", err)
	}
	return a, nil
}

// forceCompleteLead marks the lead completed outside the normal transition
// table. Invalid and expired leads refuse; an already completed lead is a
// no-op.
func forceCompleteLead(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `
		UPDATE leads SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND status NOT IN ($2, $3, $4)`,
		leadID, domain.StatusCompleted, domain.StatusInvalid, domain.StatusExpired,
	)
	if err != nil {
		return fmt.Errorf("failed to complete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var status domain.Status
		err := tx.QueryRow(ctx, `SELECT status FROM leads WHERE id = $1`, leadID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(leadNotFoundMsg)
		}
		if err != nil {
			return fmt.Errorf("failed to read lead status: %w", err)
		}
		if status != domain.StatusCompleted {
			return apperr.Conflict(fmt.Sprintf("lead in status %q cannot be completed", status))
		}
	}
	return nil
}

// ExpireLeads stamps the expired status on non-terminal leads past their
// deadline. Visibility does not depend on this sweep; it exists so stored
// status eventually matches what readers observe.
func (r *Repository) ExpireLeads(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET status = $2, version = version + 1, updated_at = now()
		WHERE expires_at < $1 AND status NOT IN ($2, $3, $4)`,
		now, domain.StatusExpired, domain.StatusCompleted, domain.StatusInvalid,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire leads: %w", err)
	}
	return tag.RowsAffected(), nil
}
