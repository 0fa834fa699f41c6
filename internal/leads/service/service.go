// Package service implements the lead lifecycle: creation and scoring,
// status transitions, the verification ledger, and contractor assignments.
package service

import (
	"context"
	"fmt"
	"time"

	"homepro_backend/internal/authz"
	"homepro_backend/internal/events"
	"homepro_backend/internal/leads/domain"
	"homepro_backend/internal/leads/repository"
	"homepro_backend/platform/apperr"
	"homepro_backend/platform/httpkit"
	"homepro_backend/platform/logger"
	"homepro_backend/platform/phone"

	"github.com/google/uuid"
)

// CatalogResolver confirms a service reference exists before a lead may use it.
type CatalogResolver interface {
	ResolveActive(ctx context.Context, id uuid.UUID) error
}

// ContractorDirectory resolves contractor accounts for assignment.
type ContractorDirectory interface {
	ResolveContractor(ctx context.Context, id uuid.UUID) error
}

// Service provides lead operations.
type Service struct {
	store       repository.Store
	catalog     CatalogResolver
	contractors ContractorDirectory
	bus         events.Bus
	log         *logger.Logger
	ttl         time.Duration
	now         func() time.Time
}

// New creates a new leads service.
func New(store repository.Store, catalog CatalogResolver, contractors ContractorDirectory, log *logger.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = domain.DefaultTTL
	}
	return &Service{
		store:       store,
		catalog:     catalog,
		contractors: contractors,
		log:         log,
		ttl:         ttl,
		now:         time.Now,
	}
}

// SetEventBus wires the domain event bus. Without one, events are dropped.
func (s *Service) SetEventBus(bus events.Bus) {
	s.bus = bus
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

// CreateLeadParams contains the input for a new lead. HomeownerID is set from
// the authenticated identity, never from the request body.
type CreateLeadParams struct {
	HomeownerID    *uuid.UUID
	GuestFirstName string
	GuestLastName  string
	GuestEmail     string
	GuestPhone     string

	ServiceID   uuid.UUID
	Description string

	Address string
	City    string
	State   string
	ZipCode string
	Country string

	PropertyType    domain.PropertyType
	ProjectTimeline domain.ProjectTimeline
	BudgetRange     string
	IsHomeowner     bool

	MonthlyUtilityBill *int64
	RoofAge            *int
	SquareFootage      *int
	CustomFields       map[string]string
}

func (p *CreateLeadParams) validate() error {
	missing := []string{}
	if p.ServiceID == uuid.Nil {
		missing = append(missing, "serviceId")
	}
	if p.Address == "" {
		missing = append(missing, "address")
	}
	if p.City == "" {
		missing = append(missing, "city")
	}
	if p.State == "" {
		missing = append(missing, "state")
	}
	if p.ZipCode == "" {
		missing = append(missing, "zipCode")
	}
	if p.PropertyType == "" {
		missing = append(missing, "propertyType")
	}
	if p.ProjectTimeline == "" {
		missing = append(missing, "projectTimeline")
	}
	if p.HomeownerID == nil {
		if p.GuestFirstName == "" {
			missing = append(missing, "firstName")
		}
		if p.GuestLastName == "" {
			missing = append(missing, "lastName")
		}
		if p.GuestEmail == "" {
			missing = append(missing, "email")
		}
		if p.GuestPhone == "" {
			missing = append(missing, "phone")
		}
	}
	if len(missing) > 0 {
		return apperr.Validation("missing required fields").WithDetails(missing)
	}

	if !domain.ValidPropertyType(p.PropertyType) {
		return apperr.Validation(fmt.Sprintf("unknown property type %q", p.PropertyType))
	}
	if !domain.ValidProjectTimeline(p.ProjectTimeline) {
		return apperr.Validation(fmt.Sprintf("unknown project timeline %q", p.ProjectTimeline))
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create validates, scores, and stores a new lead at status new.
func (s *Service) Create(ctx context.Context, params CreateLeadParams) (*domain.Lead, error) {
	const op = "leads.Create"

	if err := params.validate(); err != nil {
		return nil, err
	}
	if err := s.catalog.ResolveActive(ctx, params.ServiceID); err != nil {
		return nil, err
	}

	if params.HomeownerID == nil {
		params.GuestPhone = phone.NormalizeE164(params.GuestPhone)
	}

	country := params.Country
	if country == "" {
		country = "USA"
	}

	now := s.now()
	lead := &domain.Lead{
		ID:                 uuid.New(),
		HomeownerID:        params.HomeownerID,
		GuestFirstName:     optional(params.GuestFirstName),
		GuestLastName:      optional(params.GuestLastName),
		GuestEmail:         optional(params.GuestEmail),
		GuestPhone:         optional(params.GuestPhone),
		ServiceID:          params.ServiceID,
		Description:        params.Description,
		Address:            params.Address,
		City:               params.City,
		State:              params.State,
		ZipCode:            params.ZipCode,
		Country:            country,
		PropertyType:       params.PropertyType,
		ProjectTimeline:    params.ProjectTimeline,
		BudgetRange:        optional(params.BudgetRange),
		IsHomeowner:        params.IsHomeowner,
		MonthlyUtilityBill: params.MonthlyUtilityBill,
		RoofAge:            params.RoofAge,
		SquareFootage:      params.SquareFootage,
		CustomFields:       params.CustomFields,
		Status:             domain.StatusNew,
		ExpiresAt:          now.Add(s.ttl),
	}
	if params.HomeownerID != nil {
		lead.IsHomeowner = true
	}

	lead.LeadScore = domain.Score(lead)
	if !domain.ValidScore(lead.LeadScore) {
		s.log.InvariantViolation(op, fmt.Errorf("score %d out of range", lead.LeadScore))
		return nil, apperr.Invariant("lead score out of range").WithOp(op)
	}

	if err := s.store.CreateLead(ctx, lead); err != nil {
		return nil, err
	}

	s.log.LeadEvent("lead created", lead.ID.String(), string(lead.Status))
	guestEmail := ""
	if lead.GuestEmail != nil {
		guestEmail = *lead.GuestEmail
	}
	s.publish(ctx, events.LeadCreated{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		ServiceID:   lead.ServiceID,
		HomeownerID: lead.HomeownerID,
		GuestEmail:  guestEmail,
		LeadScore:   lead.LeadScore,
	})
	return lead, nil
}

// relationTo computes the caller's relation to a lead for authorization.
func (s *Service) relationTo(ctx context.Context, caller httpkit.Identity, lead *domain.Lead) authz.Relation {
	if lead.HomeownerID != nil && *lead.HomeownerID == caller.UserID() {
		return authz.RelationLeadOwner
	}
	if caller.HasRole(string(authz.RoleContractor)) {
		if _, err := s.store.GetAssignment(ctx, lead.ID, caller.UserID()); err == nil {
			return authz.RelationAssignedContractor
		}
	}
	return authz.RelationNone
}

// Get returns one lead with its assignments and verifications, applying the
// access rules and projecting expiration onto the returned status.
func (s *Service) Get(ctx context.Context, caller httpkit.Identity, id uuid.UUID) (*LeadDetail, error) {
	lead, err := s.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}

	relation := s.relationTo(ctx, caller, lead)
	if !authz.Allowed(caller.Roles(), relation, authz.OpLeadView) {
		return nil, apperr.Forbidden("not allowed to view this lead")
	}

	assignments, err := s.store.ListAssignments(ctx, id)
	if err != nil {
		return nil, err
	}
	verifications, err := s.store.ListVerifications(ctx, id)
	if err != nil {
		return nil, err
	}

	lead.Status = lead.EffectiveStatus(s.now())
	return &LeadDetail{Lead: *lead, Assignments: assignments, Verifications: verifications}, nil
}

// LeadDetail is a lead with its sub-records.
type LeadDetail struct {
	Lead          domain.Lead
	Assignments   []domain.Assignment
	Verifications []domain.Verification
}

// ListFilters narrows a lead listing.
type ListFilters struct {
	Status    *domain.Status
	ServiceID *uuid.UUID
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// List returns leads visible to the caller: homeowners see their own,
// contractors see leads assigned to them, admins see everything.
func (s *Service) List(ctx context.Context, caller httpkit.Identity, filters ListFilters) (*repository.ListResult, error) {
	if !authz.Allowed(caller.Roles(), authz.RelationNone, authz.OpLeadList) {
		return nil, apperr.Forbidden("not allowed to list leads")
	}

	params := repository.ListParams{
		Status:    filters.Status,
		ServiceID: filters.ServiceID,
		SortBy:    filters.SortBy,
		SortOrder: filters.SortOrder,
		Page:      filters.Page,
		PageSize:  filters.PageSize,
	}

	switch {
	case caller.HasRole(string(authz.RoleAdmin)):
		params.IncludeExpired = true
	case caller.HasRole(string(authz.RoleContractor)):
		id := caller.UserID()
		params.ContractorID = &id
	default:
		id := caller.UserID()
		params.HomeownerID = &id
	}

	result, err := s.store.ListLeads(ctx, params)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range result.Items {
		result.Items[i].Status = result.Items[i].EffectiveStatus(now)
	}
	return result, nil
}

// UpdateStatus applies an explicit status transition, checked against the
// state table and applied with compare-and-set semantics.
func (s *Service) UpdateStatus(ctx context.Context, caller httpkit.Identity, id uuid.UUID, next domain.Status) (*domain.Lead, error) {
	if !domain.ValidStatus(next) {
		return nil, apperr.Validation(fmt.Sprintf("unknown lead status %q", next))
	}

	lead, err := s.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}

	relation := s.relationTo(ctx, caller, lead)
	op := authz.OpLeadUpdateStatus
	if next == domain.StatusInvalid {
		op = authz.OpLeadInvalidate
	}
	if !authz.Allowed(caller.Roles(), relation, op) {
		return nil, apperr.Forbidden("not allowed to change this lead's status")
	}
	// Contractors record work progress only; administrative transitions stay
	// with admins.
	if !caller.HasRole(string(authz.RoleAdmin)) && next != domain.StatusInProgress && next != domain.StatusCompleted {
		return nil, apperr.Forbidden(fmt.Sprintf("contractors cannot set lead status %q", next))
	}

	current := lead.EffectiveStatus(s.now())
	if !domain.CanTransition(current, next) {
		return nil, apperr.Conflict(fmt.Sprintf("cannot transition lead from %q to %q", current, next))
	}
	if current == next {
		return lead, nil
	}

	updated, err := s.store.UpdateLeadStatus(ctx, repository.UpdateStatusParams{
		LeadID:   id,
		Expected: lead.Status,
		Next:     next,
	})
	if err != nil {
		return nil, err
	}

	s.log.LeadEvent("lead status changed", id.String(), string(next))
	s.publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
		OldStatus: string(current),
		NewStatus: string(next),
	})
	return updated, nil
}

// Verify appends a verification ledger entry. A successful entry advances the
// lead from new to verified; re-verifying an already verified lead appends a
// record without touching status.
func (s *Service) Verify(ctx context.Context, caller httpkit.Identity, id uuid.UUID, method domain.VerificationMethod, notes string, isVerified bool) (*domain.Verification, error) {
	if !authz.Allowed(caller.Roles(), authz.RelationNone, authz.OpLeadVerify) {
		return nil, apperr.Forbidden("not allowed to verify leads")
	}
	if !domain.ValidVerificationMethod(method) {
		return nil, apperr.Validation(fmt.Sprintf("unknown verification method %q", method))
	}

	v := &domain.Verification{
		ID:         uuid.New(),
		LeadID:     id,
		VerifiedBy: caller.UserID(),
		Method:     method,
		Notes:      notes,
		IsVerified: isVerified,
		CreatedAt:  s.now(),
	}

	advanced, err := s.store.AddVerification(ctx, v)
	if err != nil {
		return nil, err
	}

	if advanced {
		s.log.LeadEvent("lead verified", id.String(), string(domain.StatusVerified))
		s.publish(ctx, events.LeadVerified{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     id,
			VerifierID: caller.UserID(),
			Method:     string(method),
		})
	}
	return v, nil
}

// AssignParams is the input for attaching a contractor to a lead.
type AssignParams struct {
	LeadID       uuid.UUID
	ContractorID uuid.UUID
	IsExclusive  bool
	LeadCost     int64
	Notes        string
}

// Assign attaches a contractor to a lead. The first assignment on a verified
// lead distributes it; any further assignment leaves status alone. Assigning
// the same contractor twice fails with Conflict.
func (s *Service) Assign(ctx context.Context, caller httpkit.Identity, params AssignParams) (*domain.Assignment, error) {
	if !authz.Allowed(caller.Roles(), authz.RelationNone, authz.OpLeadAssign) {
		return nil, apperr.Forbidden("not allowed to assign leads")
	}
	if params.LeadCost < 0 {
		return nil, apperr.Validation("lead cost cannot be negative")
	}
	if err := s.contractors.ResolveContractor(ctx, params.ContractorID); err != nil {
		return nil, err
	}

	a := &domain.Assignment{
		ID:           uuid.New(),
		LeadID:       params.LeadID,
		ContractorID: params.ContractorID,
		Status:       domain.AssignmentNew,
		IsExclusive:  params.IsExclusive,
		AssignedAt:   s.now(),
		LeadCost:     params.LeadCost,
		Notes:        optional(params.Notes),
	}

	distributed, err := s.store.AddAssignment(ctx, a)
	if err != nil {
		return nil, err
	}

	s.log.LeadEvent("lead assigned", params.LeadID.String(), "")
	s.publish(ctx, events.LeadAssigned{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       params.LeadID,
		ContractorID: params.ContractorID,
		IsExclusive:  params.IsExclusive,
		Distributed:  distributed,
	})
	return a, nil
}

// UpdateAssignmentStatus lets the assigned contractor record progress on a
// lead. Reaching won forces the lead to completed.
func (s *Service) UpdateAssignmentStatus(ctx context.Context, caller httpkit.Identity, leadID uuid.UUID, status domain.AssignmentStatus, notes *string) (*domain.Assignment, error) {
	if !domain.ValidAssignmentStatus(status) {
		return nil, apperr.Validation(fmt.Sprintf("unknown assignment status %q", status))
	}

	relation := authz.RelationNone
	if caller.HasRole(string(authz.RoleContractor)) {
		if _, err := s.store.GetAssignment(ctx, leadID, caller.UserID()); err == nil {
			relation = authz.RelationAssignedContractor
		}
	}
	if !authz.Allowed(caller.Roles(), relation, authz.OpAssignmentUpdate) {
		return nil, apperr.Forbidden("not allowed to update this assignment")
	}

	a, err := s.store.UpdateAssignment(ctx, repository.UpdateAssignmentParams{
		LeadID:       leadID,
		ContractorID: caller.UserID(),
		Status:       status,
		Notes:        notes,
	})
	if err != nil {
		return nil, err
	}

	if status == domain.AssignmentWon {
		s.log.LeadEvent("lead completed via won assignment", leadID.String(), string(domain.StatusCompleted))
		s.publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    leadID,
			NewStatus: string(domain.StatusCompleted),
		})
	}
	return a, nil
}

// ExpireSweep stamps the terminal expired status on leads past their deadline.
// Called by the background scheduler.
func (s *Service) ExpireSweep(ctx context.Context) (int64, error) {
	count, err := s.store.ExpireLeads(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info("expired leads swept", "count", count)
	}
	return count, nil
}
