// Package service implements the quote lifecycle: creation against an
// assignment, the send/view/accept/reject machine, and the acceptance cascade
// into the owning lead.
package service

import (
	"context"
	"fmt"
	"time"

	"homepro_backend/internal/authz"
	"homepro_backend/internal/events"
	leadsdomain "homepro_backend/internal/leads/domain"
	"homepro_backend/internal/quotes/repository"
	"homepro_backend/platform/apperr"
	"homepro_backend/platform/httpkit"
	"homepro_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadAccess resolves leads and assignments for authorization decisions.
// Satisfied by the leads repository.
type LeadAccess interface {
	GetLead(ctx context.Context, id uuid.UUID) (*leadsdomain.Lead, error)
	GetAssignment(ctx context.Context, leadID, contractorID uuid.UUID) (*leadsdomain.Assignment, error)
}

// Service provides quote operations.
type Service struct {
	store repository.Store
	leads LeadAccess
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

// New creates a new quotes service.
func New(store repository.Store, leads LeadAccess, log *logger.Logger) *Service {
	return &Service{
		store: store,
		leads: leads,
		log:   log,
		now:   time.Now,
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

// QuoteDetail is a quote with its line items.
type QuoteDetail struct {
	Quote repository.Quote
	Items []repository.QuoteItem
}

// ItemParams is one line item of a new quote.
type ItemParams struct {
	Description     string
	Quantity        int
	UnitPriceCents  int64
	TotalPriceCents int64
	SortOrder       int
}

// CreateParams is the input for drafting a quote.
type CreateParams struct {
	LeadID               uuid.UUID
	TotalAmountCents     int64
	TaxAmountCents       int64
	DiscountAmountCents  int64
	AfterIncentivesCents *int64
	CustomFields         map[string]string
	IsFinancingAvailable bool
	FinancingDetails     *string
	TermsAndConditions   *string
	Notes                *string
	ExpirationDate       *time.Time
	Items                []ItemParams
}

func (p *CreateParams) validate() error {
	if p.LeadID == uuid.Nil {
		return apperr.Validation("leadId is required")
	}
	if p.TotalAmountCents <= 0 {
		return apperr.Validation("totalAmount must be positive")
	}
	if len(p.Items) == 0 {
		return apperr.Validation("a quote needs at least one line item")
	}
	for i := range p.Items {
		if p.Items[i].Description == "" {
			return apperr.Validation(fmt.Sprintf("item %d is missing a description", i+1))
		}
		if p.Items[i].Quantity < 0 {
			return apperr.Validation(fmt.Sprintf("item %d has a negative quantity", i+1))
		}
		if p.Items[i].UnitPriceCents < 0 {
			return apperr.Validation(fmt.Sprintf("item %d has a negative unit price", i+1))
		}
	}
	return nil
}

// Create drafts a quote. The caller must hold an assignment on the lead; the
// assignment moves to quoted as part of the same transaction.
func (s *Service) Create(ctx context.Context, caller httpkit.Identity, params CreateParams) (*QuoteDetail, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	if _, err := s.leads.GetLead(ctx, params.LeadID); err != nil {
		return nil, err
	}

	relation := authz.RelationNone
	if _, err := s.leads.GetAssignment(ctx, params.LeadID, caller.UserID()); err == nil {
		relation = authz.RelationAssignedContractor
	}
	if !authz.Allowed(caller.Roles(), relation, authz.OpQuoteCreate) {
		return nil, apperr.Forbidden("only a contractor assigned to the lead may quote it")
	}

	number, err := s.store.NextQuoteNumber(ctx)
	if err != nil {
		return nil, err
	}

	quote := &repository.Quote{
		ID:                   uuid.New(),
		LeadID:               params.LeadID,
		ContractorID:         caller.UserID(),
		QuoteNumber:          number,
		TotalAmountCents:     params.TotalAmountCents,
		TaxAmountCents:       params.TaxAmountCents,
		DiscountAmountCents:  params.DiscountAmountCents,
		AfterIncentivesCents: params.AfterIncentivesCents,
		CustomFields:         params.CustomFields,
		IsFinancingAvailable: params.IsFinancingAvailable,
		FinancingDetails:     params.FinancingDetails,
		TermsAndConditions:   params.TermsAndConditions,
		Notes:                params.Notes,
		Status:               repository.StatusDraft,
		ExpirationDate:       params.ExpirationDate,
	}

	items := make([]repository.QuoteItem, 0, len(params.Items))
	for i, p := range params.Items {
		quantity := p.Quantity
		if quantity == 0 {
			quantity = 1
		}
		total := p.TotalPriceCents
		if total == 0 {
			total = int64(quantity) * p.UnitPriceCents
		}
		sortOrder := p.SortOrder
		if sortOrder == 0 {
			sortOrder = i
		}
		items = append(items, repository.QuoteItem{
			ID:              uuid.New(),
			QuoteID:         quote.ID,
			Description:     p.Description,
			Quantity:        quantity,
			UnitPriceCents:  p.UnitPriceCents,
			TotalPriceCents: total,
			SortOrder:       sortOrder,
		})
	}

	if err := s.store.CreateWithItems(ctx, quote, items); err != nil {
		return nil, err
	}

	s.log.QuoteEvent("quote created", quote.ID.String(), quote.QuoteNumber, quote.Status)
	s.publish(ctx, events.QuoteCreated{
		BaseEvent:    events.NewBaseEvent(),
		QuoteID:      quote.ID,
		LeadID:       quote.LeadID,
		ContractorID: quote.ContractorID,
		QuoteNumber:  quote.QuoteNumber,
	})
	return &QuoteDetail{Quote: *quote, Items: items}, nil
}

// relationToQuote computes the caller's relation to a quote.
func (s *Service) relationToQuote(ctx context.Context, caller httpkit.Identity, quote *repository.Quote) authz.Relation {
	if quote.ContractorID == caller.UserID() {
		return authz.RelationQuoteIssuer
	}
	lead, err := s.leads.GetLead(ctx, quote.LeadID)
	if err == nil && lead.HomeownerID != nil && *lead.HomeownerID == caller.UserID() {
		return authz.RelationQuoteRecipient
	}
	return authz.RelationNone
}

// projectExpiration maps an undecided quote past its deadline to expired for
// readers; the stored row is only stamped by the sweep.
func (s *Service) projectExpiration(q *repository.Quote) {
	if !q.Terminal() && q.ExpiredAt(s.now()) {
		q.Status = repository.StatusExpired
	}
}

// Get returns one quote with items. The homeowner's first read of a sent
// quote flips it to viewed; repeated reads leave it alone.
func (s *Service) Get(ctx context.Context, caller httpkit.Identity, id uuid.UUID) (*QuoteDetail, error) {
	quote, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	relation := s.relationToQuote(ctx, caller, quote)
	if !authz.Allowed(caller.Roles(), relation, authz.OpQuoteView) {
		return nil, apperr.Forbidden("not allowed to view this quote")
	}

	if relation == authz.RelationQuoteRecipient && quote.Status == repository.StatusSent && !quote.ExpiredAt(s.now()) {
		flipped, didFlip, err := s.store.MarkViewed(ctx, id)
		if err != nil {
			return nil, err
		}
		quote = flipped
		if didFlip {
			s.log.QuoteEvent("quote viewed", quote.ID.String(), quote.QuoteNumber, quote.Status)
			s.publish(ctx, events.QuoteStatusChanged{
				BaseEvent:    events.NewBaseEvent(),
				QuoteID:      quote.ID,
				LeadID:       quote.LeadID,
				ContractorID: quote.ContractorID,
				QuoteNumber:  quote.QuoteNumber,
				OldStatus:    repository.StatusSent,
				NewStatus:    repository.StatusViewed,
			})
		}
	}

	items, err := s.store.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}

	s.projectExpiration(quote)
	return &QuoteDetail{Quote: *quote, Items: items}, nil
}

// ListFilters narrows a quote listing.
type ListFilters struct {
	LeadID   *uuid.UUID
	Status   *string
	Page     int
	PageSize int
}

// List returns the caller's quotes: contractors see what they issued, admins
// see everything.
func (s *Service) List(ctx context.Context, caller httpkit.Identity, filters ListFilters) (*repository.ListResult, error) {
	if !authz.Allowed(caller.Roles(), authz.RelationNone, authz.OpQuoteList) {
		return nil, apperr.Forbidden("not allowed to list quotes")
	}
	if filters.Status != nil && !repository.ValidStatus(*filters.Status) {
		return nil, apperr.Validation(fmt.Sprintf("unknown quote status %q", *filters.Status))
	}

	params := repository.ListParams{
		LeadID:   filters.LeadID,
		Status:   filters.Status,
		Page:     filters.Page,
		PageSize: filters.PageSize,
	}
	if !caller.HasRole(string(authz.RoleAdmin)) {
		id := caller.UserID()
		params.ContractorID = &id
	}

	result, err := s.store.List(ctx, params)
	if err != nil {
		return nil, err
	}
	for i := range result.Items {
		s.projectExpiration(&result.Items[i])
	}
	return result, nil
}

// ListByLead returns every quote against a lead, for callers allowed to view
// that lead.
func (s *Service) ListByLead(ctx context.Context, caller httpkit.Identity, leadID uuid.UUID) ([]repository.Quote, error) {
	lead, err := s.leads.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	relation := authz.RelationNone
	if lead.HomeownerID != nil && *lead.HomeownerID == caller.UserID() {
		relation = authz.RelationLeadOwner
	} else if caller.HasRole(string(authz.RoleContractor)) {
		if _, err := s.leads.GetAssignment(ctx, leadID, caller.UserID()); err == nil {
			relation = authz.RelationAssignedContractor
		}
	}
	if !authz.Allowed(caller.Roles(), relation, authz.OpLeadView) {
		return nil, apperr.Forbidden("not allowed to view this lead's quotes")
	}

	quotes, err := s.store.ListByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	for i := range quotes {
		s.projectExpiration(&quotes[i])
	}
	return quotes, nil
}

// Send moves a draft quote to sent. Only the issuing contractor may send.
func (s *Service) Send(ctx context.Context, caller httpkit.Identity, id uuid.UUID) (*repository.Quote, error) {
	quote, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	relation := s.relationToQuote(ctx, caller, quote)
	if !authz.Allowed(caller.Roles(), relation, authz.OpQuoteSend) {
		return nil, apperr.Forbidden("only the issuing contractor may send this quote")
	}

	sent, err := s.store.MarkSent(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.QuoteEvent("quote sent", sent.ID.String(), sent.QuoteNumber, sent.Status)
	s.publish(ctx, events.QuoteSent{
		BaseEvent:   events.NewBaseEvent(),
		QuoteID:     sent.ID,
		LeadID:      sent.LeadID,
		QuoteNumber: sent.QuoteNumber,
	})
	return sent, nil
}

// Accept records the homeowner's decision and cascades atomically: quote
// accepted, assignment won, lead completed.
func (s *Service) Accept(ctx context.Context, caller httpkit.Identity, id uuid.UUID) (*repository.Quote, error) {
	quote, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	relation := s.relationToQuote(ctx, caller, quote)
	if !authz.Allowed(caller.Roles(), relation, authz.OpQuoteAccept) {
		return nil, apperr.Forbidden("only the lead's homeowner may accept this quote")
	}

	accepted, err := s.store.Accept(ctx, id, s.now())
	if err != nil {
		return nil, err
	}

	s.log.QuoteEvent("quote accepted", accepted.ID.String(), accepted.QuoteNumber, accepted.Status)
	s.publish(ctx, events.QuoteStatusChanged{
		BaseEvent:    events.NewBaseEvent(),
		QuoteID:      accepted.ID,
		LeadID:       accepted.LeadID,
		ContractorID: accepted.ContractorID,
		QuoteNumber:  accepted.QuoteNumber,
		OldStatus:    quote.Status,
		NewStatus:    repository.StatusAccepted,
	})
	return accepted, nil
}

// Reject records the homeowner's decision with a mandatory reason. Lead and
// assignment are unaffected.
func (s *Service) Reject(ctx context.Context, caller httpkit.Identity, id uuid.UUID, reason string) (*repository.Quote, error) {
	if reason == "" {
		return nil, apperr.Validation("rejection reason is required")
	}

	quote, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	relation := s.relationToQuote(ctx, caller, quote)
	if !authz.Allowed(caller.Roles(), relation, authz.OpQuoteReject) {
		return nil, apperr.Forbidden("only the lead's homeowner may reject this quote")
	}

	rejected, err := s.store.Reject(ctx, id, reason)
	if err != nil {
		return nil, err
	}

	s.log.QuoteEvent("quote rejected", rejected.ID.String(), rejected.QuoteNumber, rejected.Status)
	s.publish(ctx, events.QuoteStatusChanged{
		BaseEvent:       events.NewBaseEvent(),
		QuoteID:         rejected.ID,
		LeadID:          rejected.LeadID,
		ContractorID:    rejected.ContractorID,
		QuoteNumber:     rejected.QuoteNumber,
		OldStatus:       quote.Status,
		NewStatus:       repository.StatusRejected,
		RejectionReason: reason,
	})
	return rejected, nil
}

// CorrectStatus is the issuing contractor's administrative escape hatch. The
// decision statuses stay with their dedicated operations so the acceptance
// cascade cannot be bypassed.
func (s *Service) CorrectStatus(ctx context.Context, caller httpkit.Identity, id uuid.UUID, status string) (*repository.Quote, error) {
	if !repository.ValidStatus(status) {
		return nil, apperr.Validation(fmt.Sprintf("unknown quote status %q", status))
	}
	if status == repository.StatusAccepted || status == repository.StatusRejected {
		return nil, apperr.Validation("accepted and rejected are set through the decision operations")
	}

	quote, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	relation := s.relationToQuote(ctx, caller, quote)
	if !authz.Allowed(caller.Roles(), relation, authz.OpQuoteCorrect) {
		return nil, apperr.Forbidden("only the issuing contractor may correct this quote")
	}
	if quote.Terminal() {
		return nil, apperr.Conflict(fmt.Sprintf("quote in status %q cannot be corrected", quote.Status))
	}

	corrected, err := s.store.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.log.QuoteEvent("quote status corrected", corrected.ID.String(), corrected.QuoteNumber, corrected.Status)
	s.publish(ctx, events.QuoteStatusChanged{
		BaseEvent:    events.NewBaseEvent(),
		QuoteID:      corrected.ID,
		LeadID:       corrected.LeadID,
		ContractorID: corrected.ContractorID,
		QuoteNumber:  corrected.QuoteNumber,
		OldStatus:    quote.Status,
		NewStatus:    status,
	})
	return corrected, nil
}

// ExpireSweep stamps the expired status on undecided quotes past their
// deadline. Called by the background scheduler.
func (s *Service) ExpireSweep(ctx context.Context) (int64, error) {
	count, err := s.store.ExpireQuotes(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info("expired quotes swept", "count", count)
	}
	return count, nil
}
