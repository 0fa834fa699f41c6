package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"homepro_backend/internal/events"
	leadsdomain "homepro_backend/internal/leads/domain"
	"homepro_backend/internal/quotes/repository"
	"homepro_backend/platform/apperr"
	"homepro_backend/platform/httpkit"
	"homepro_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// fakeStore is an in-memory repository.Store mirroring the transactional
// semantics of the pgx implementation, including the serialized quote
// counter and the acceptance cascade.
type fakeStore struct {
	mu      sync.Mutex
	counter int
	quotes  map[uuid.UUID]*repository.Quote
	items   map[uuid.UUID][]repository.QuoteItem
	leads   *fakeLeads
}

func newFakeStore(leads *fakeLeads) *fakeStore {
	return &fakeStore{
		quotes: make(map[uuid.UUID]*repository.Quote),
		items:  make(map[uuid.UUID][]repository.QuoteItem),
		leads:  leads,
	}
}

func (f *fakeStore) NextQuoteNumber(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter++
	return fmt.Sprintf("Q-%04d", f.counter), nil
}

func (f *fakeStore) CreateWithItems(_ context.Context, quote *repository.Quote, items []repository.QuoteItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.leads.assignment(quote.LeadID, quote.ContractorID)
	if a == nil {
		return apperr.Forbidden("contractor is not assigned to this lead")
	}
	now := time.Now()
	quote.CreatedAt = now
	quote.UpdatedAt = now
	copied := *quote
	f.quotes[quote.ID] = &copied
	stored := make([]repository.QuoteItem, len(items))
	copy(stored, items)
	for i := range stored {
		stored[i].QuoteID = quote.ID
	}
	f.items[quote.ID] = stored
	if a.Status != leadsdomain.AssignmentWon && a.Status != leadsdomain.AssignmentLost {
		a.Status = leadsdomain.AssignmentQuoted
	}
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	quote, ok := f.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote not found")
	}
	copied := *quote
	return &copied, nil
}

func (f *fakeStore) GetItems(_ context.Context, quoteID uuid.UUID) ([]repository.QuoteItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.QuoteItem(nil), f.items[quoteID]...), nil
}

func (f *fakeStore) List(_ context.Context, params repository.ListParams) (*repository.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []repository.Quote
	for _, q := range f.quotes {
		if params.ContractorID != nil && q.ContractorID != *params.ContractorID {
			continue
		}
		if params.LeadID != nil && q.LeadID != *params.LeadID {
			continue
		}
		if params.Status != nil && q.Status != *params.Status {
			continue
		}
		matched = append(matched, *q)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	return &repository.ListResult{
		Items:      matched[start:end],
		Total:      len(matched),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (len(matched) + pageSize - 1) / pageSize,
	}, nil
}

func (f *fakeStore) ListByLead(_ context.Context, leadID uuid.UUID) ([]repository.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var quotes []repository.Quote
	for _, q := range f.quotes {
		if q.LeadID == leadID {
			quotes = append(quotes, *q)
		}
	}
	return quotes, nil
}

func (f *fakeStore) MarkSent(_ context.Context, id uuid.UUID) (*repository.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	quote, ok := f.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote not found")
	}
	if quote.Status != repository.StatusDraft {
		return nil, apperr.Conflict(fmt.Sprintf("quote in status %q cannot be sent", quote.Status))
	}
	now := time.Now()
	quote.Status = repository.StatusSent
	quote.SentDate = &now
	copied := *quote
	return &copied, nil
}

func (f *fakeStore) MarkViewed(_ context.Context, id uuid.UUID) (*repository.Quote, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	quote, ok := f.quotes[id]
	if !ok {
		return nil, false, apperr.NotFound("quote not found")
	}
	if quote.Status != repository.StatusSent {
		copied := *quote
		return &copied, false, nil
	}
	now := time.Now()
	quote.Status = repository.StatusViewed
	quote.ViewedDate = &now
	copied := *quote
	return &copied, true, nil
}

func (f *fakeStore) Accept(_ context.Context, id uuid.UUID, now time.Time) (*repository.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	quote, ok := f.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote not found")
	}
	if quote.Terminal() {
		return nil, apperr.Conflict(fmt.Sprintf("quote in status %q cannot be accepted", quote.Status))
	}
	if quote.ExpiredAt(now) {
		return nil, apperr.Conflict("quote has expired")
	}
	lead := f.leads.leads[quote.LeadID]
	if lead != nil && lead.Status != leadsdomain.StatusCompleted &&
		(lead.Status == leadsdomain.StatusInvalid || lead.Status == leadsdomain.StatusExpired) {
		return nil, apperr.Conflict(fmt.Sprintf("lead in status %q cannot be completed", lead.Status))
	}
	quote.Status = repository.StatusAccepted
	quote.AcceptedDate = &now
	if a := f.leads.assignment(quote.LeadID, quote.ContractorID); a != nil {
		a.Status = leadsdomain.AssignmentWon
	}
	if lead != nil && lead.Status != leadsdomain.StatusCompleted {
		lead.Status = leadsdomain.StatusCompleted
		lead.Version++
	}
	copied := *quote
	return &copied, nil
}

func (f *fakeStore) Reject(_ context.Context, id uuid.UUID, reason string) (*repository.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	quote, ok := f.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote not found")
	}
	if quote.Status == repository.StatusAccepted || quote.Status == repository.StatusRejected || quote.Status == repository.StatusExpired {
		return nil, apperr.Conflict(fmt.Sprintf("quote in status %q cannot be rejected", quote.Status))
	}
	now := time.Now()
	quote.Status = repository.StatusRejected
	quote.RejectedDate = &now
	quote.RejectionReason = &reason
	copied := *quote
	return &copied, nil
}

func (f *fakeStore) SetStatus(_ context.Context, id uuid.UUID, status string) (*repository.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	quote, ok := f.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote not found")
	}
	quote.Status = status
	copied := *quote
	return &copied, nil
}

func (f *fakeStore) ExpireQuotes(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, q := range f.quotes {
		if !q.Terminal() && q.ExpiredAt(now) {
			q.Status = repository.StatusExpired
			count++
		}
	}
	return count, nil
}

// fakeLeads is an in-memory LeadAccess.
type fakeLeads struct {
	leads       map[uuid.UUID]*leadsdomain.Lead
	assignments []*leadsdomain.Assignment
}

func newFakeLeads() *fakeLeads {
	return &fakeLeads{leads: make(map[uuid.UUID]*leadsdomain.Lead)}
}

func (f *fakeLeads) assignment(leadID, contractorID uuid.UUID) *leadsdomain.Assignment {
	for _, a := range f.assignments {
		if a.LeadID == leadID && a.ContractorID == contractorID {
			return a
		}
	}
	return nil
}

func (f *fakeLeads) GetLead(_ context.Context, id uuid.UUID) (*leadsdomain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, apperr.NotFound("lead not found")
	}
	copied := *lead
	return &copied, nil
}

func (f *fakeLeads) GetAssignment(_ context.Context, leadID, contractorID uuid.UUID) (*leadsdomain.Assignment, error) {
	if a := f.assignment(leadID, contractorID); a != nil {
		copied := *a
		return &copied, nil
	}
	return nil, apperr.NotFound("assignment not found")
}

// busFunc adapts a function to the events.Bus interface for test capture.
type busFunc func(ctx context.Context, event events.Event)

func (f busFunc) Publish(ctx context.Context, event events.Event) { f(ctx, event) }
func (f busFunc) PublishSync(ctx context.Context, event events.Event) error {
	f(ctx, event)
	return nil
}
func (f busFunc) Subscribe(string, events.Handler) {}

type fixture struct {
	svc        *Service
	store      *fakeStore
	leads      *fakeLeads
	admin      httpkit.Identity
	homeowner  httpkit.Identity
	contractor httpkit.Identity
	leadID     uuid.UUID
}

// newFixture sets up a distributed lead owned by a homeowner with one
// assigned contractor.
func newFixture() *fixture {
	leads := newFakeLeads()
	store := newFakeStore(leads)

	homeownerID := uuid.New()
	contractorID := uuid.New()
	leadID := uuid.New()

	leads.leads[leadID] = &leadsdomain.Lead{
		ID:          leadID,
		HomeownerID: &homeownerID,
		Status:      leadsdomain.StatusDistributed,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
		Version:     2,
	}
	leads.assignments = append(leads.assignments, &leadsdomain.Assignment{
		ID:           uuid.New(),
		LeadID:       leadID,
		ContractorID: contractorID,
		Status:       leadsdomain.AssignmentNew,
	})

	return &fixture{
		svc:        New(store, leads, logger.New("development")),
		store:      store,
		leads:      leads,
		admin:      httpkit.NewIdentity(uuid.New(), "admin"),
		homeowner:  httpkit.NewIdentity(homeownerID, "homeowner"),
		contractor: httpkit.NewIdentity(contractorID, "contractor"),
		leadID:     leadID,
	}
}

func validCreateParams(leadID uuid.UUID) CreateParams {
	return CreateParams{
		LeadID:           leadID,
		TotalAmountCents: 250_000,
		Items: []ItemParams{
			{Description: "Panel installation", Quantity: 1, UnitPriceCents: 250_000},
		},
	}
}

func (fx *fixture) mustCreate(t *testing.T) *QuoteDetail {
	t.Helper()
	detail, err := fx.svc.Create(context.Background(), fx.contractor, validCreateParams(fx.leadID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return detail
}

func (fx *fixture) mustSend(t *testing.T, id uuid.UUID) {
	t.Helper()
	if _, err := fx.svc.Send(context.Background(), fx.contractor, id); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateParams)
	}{
		{"zero total", func(p *CreateParams) { p.TotalAmountCents = 0 }},
		{"negative total", func(p *CreateParams) { p.TotalAmountCents = -100 }},
		{"no items", func(p *CreateParams) { p.Items = nil }},
		{"item without description", func(p *CreateParams) { p.Items[0].Description = "" }},
		{"negative quantity", func(p *CreateParams) { p.Items[0].Quantity = -1 }},
		{"negative unit price", func(p *CreateParams) { p.Items[0].UnitPriceCents = -50 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validCreateParams(fx.leadID)
			tt.mutate(&params)
			_, err := fx.svc.Create(ctx, fx.contractor, params)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("got %v, want validation error", err)
			}
		})
	}
}

func TestCreateComputesItemDefaults(t *testing.T) {
	fx := newFixture()
	params := validCreateParams(fx.leadID)
	params.Items = []ItemParams{
		{Description: "Panels", Quantity: 3, UnitPriceCents: 50_000},
		{Description: "Permit fee", UnitPriceCents: 10_000},
	}
	params.TotalAmountCents = 160_000

	detail, err := fx.svc.Create(context.Background(), fx.contractor, params)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := detail.Items[0].TotalPriceCents; got != 150_000 {
		t.Errorf("item 0 total = %d, want 150000", got)
	}
	if got := detail.Items[1].Quantity; got != 1 {
		t.Errorf("item 1 quantity = %d, want 1", got)
	}
	if got := detail.Items[1].TotalPriceCents; got != 10_000 {
		t.Errorf("item 1 total = %d, want 10000", got)
	}
	if detail.Quote.Status != repository.StatusDraft {
		t.Errorf("status = %q, want draft", detail.Quote.Status)
	}
}

func TestCreateRequiresAssignment(t *testing.T) {
	fx := newFixture()
	stranger := httpkit.NewIdentity(uuid.New(), "contractor")

	_, err := fx.svc.Create(context.Background(), stranger, validCreateParams(fx.leadID))
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("got %v, want forbidden", err)
	}
}

func TestCreateMarksAssignmentQuoted(t *testing.T) {
	fx := newFixture()
	fx.mustCreate(t)

	a := fx.leads.assignment(fx.leadID, fx.contractor.UserID())
	if a.Status != leadsdomain.AssignmentQuoted {
		t.Fatalf("assignment status = %q, want quoted", a.Status)
	}
}

func TestConcurrentQuoteNumbersDistinct(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	const n = 20
	var g errgroup.Group
	numbers := make([]string, n)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			num, err := fx.store.NextQuoteNumber(ctx)
			if err != nil {
				return err
			}
			numbers[i] = num
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("NextQuoteNumber: %v", err)
	}

	seen := make(map[string]bool, n)
	for _, num := range numbers {
		if seen[num] {
			t.Fatalf("duplicate quote number %q", num)
		}
		seen[num] = true
	}
	for i := 1; i <= n; i++ {
		if !seen[fmt.Sprintf("Q-%04d", i)] {
			t.Fatalf("missing quote number Q-%04d, numbering has gaps", i)
		}
	}
}

func TestSendOnlyFromDraft(t *testing.T) {
	fx := newFixture()
	detail := fx.mustCreate(t)
	fx.mustSend(t, detail.Quote.ID)

	_, err := fx.svc.Send(context.Background(), fx.contractor, detail.Quote.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second send: got %v, want conflict", err)
	}
}

func TestSendForbiddenForRecipient(t *testing.T) {
	fx := newFixture()
	detail := fx.mustCreate(t)

	_, err := fx.svc.Send(context.Background(), fx.homeowner, detail.Quote.ID)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("got %v, want forbidden", err)
	}
}

func TestRecipientReadFlipsToViewedOnce(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	detail := fx.mustCreate(t)
	fx.mustSend(t, detail.Quote.ID)

	var published []string
	fx.svc.SetEventBus(busFunc(func(_ context.Context, e events.Event) {
		published = append(published, e.EventName())
	}))

	first, err := fx.svc.Get(ctx, fx.homeowner, detail.Quote.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first.Quote.Status != repository.StatusViewed {
		t.Fatalf("status after first read = %q, want viewed", first.Quote.Status)
	}
	if first.Quote.ViewedDate == nil {
		t.Fatal("viewed date not stamped")
	}

	second, err := fx.svc.Get(ctx, fx.homeowner, detail.Quote.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if second.Quote.Status != repository.StatusViewed {
		t.Fatalf("status after second read = %q, want viewed", second.Quote.Status)
	}

	if len(published) != 1 || published[0] != "quotes.status.changed" {
		t.Fatalf("published events = %v, want exactly one quotes.status.changed", published)
	}
}

func TestIssuerReadDoesNotFlip(t *testing.T) {
	fx := newFixture()
	detail := fx.mustCreate(t)
	fx.mustSend(t, detail.Quote.ID)

	got, err := fx.svc.Get(context.Background(), fx.contractor, detail.Quote.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Quote.Status != repository.StatusSent {
		t.Fatalf("status = %q, want sent", got.Quote.Status)
	}
}

func TestGetForbiddenForStranger(t *testing.T) {
	fx := newFixture()
	detail := fx.mustCreate(t)
	stranger := httpkit.NewIdentity(uuid.New(), "homeowner")

	_, err := fx.svc.Get(context.Background(), stranger, detail.Quote.ID)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("got %v, want forbidden", err)
	}
}

func TestAcceptCascade(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	detail := fx.mustCreate(t)
	fx.mustSend(t, detail.Quote.ID)

	accepted, err := fx.svc.Accept(ctx, fx.homeowner, detail.Quote.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != repository.StatusAccepted {
		t.Errorf("quote status = %q, want accepted", accepted.Status)
	}
	if accepted.AcceptedDate == nil {
		t.Error("accepted date not stamped")
	}
	if a := fx.leads.assignment(fx.leadID, fx.contractor.UserID()); a.Status != leadsdomain.AssignmentWon {
		t.Errorf("assignment status = %q, want won", a.Status)
	}
	if lead := fx.leads.leads[fx.leadID]; lead.Status != leadsdomain.StatusCompleted {
		t.Errorf("lead status = %q, want completed", lead.Status)
	}
}

func TestAcceptForbiddenForIssuer(t *testing.T) {
	fx := newFixture()
	detail := fx.mustCreate(t)
	fx.mustSend(t, detail.Quote.ID)

	_, err := fx.svc.Accept(context.Background(), fx.contractor, detail.Quote.ID)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("got %v, want forbidden", err)
	}
}

func TestAcceptTerminalConflicts(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	detail := fx.mustCreate(t)
	fx.mustSend(t, detail.Quote.ID)

	if _, err := fx.svc.Accept(ctx, fx.homeowner, detail.Quote.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	_, err := fx.svc.Accept(ctx, fx.homeowner, detail.Quote.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second accept: got %v, want conflict", err)
	}
}

func TestAcceptExpiredQuoteConflicts(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	params := validCreateParams(fx.leadID)
	past := time.Now().Add(-time.Hour)
	params.ExpirationDate = &past

	detail, err := fx.svc.Create(ctx, fx.contractor, params)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	fx.store.quotes[detail.Quote.ID].Status = repository.StatusSent

	_, err = fx.svc.Accept(ctx, fx.homeowner, detail.Quote.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("got %v, want conflict", err)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	fx := newFixture()
	detail := fx.mustCreate(t)
	fx.mustSend(t, detail.Quote.ID)

	_, err := fx.svc.Reject(context.Background(), fx.homeowner, detail.Quote.ID, "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestRejectLeavesLeadAlone(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	detail := fx.mustCreate(t)
	fx.mustSend(t, detail.Quote.ID)

	rejected, err := fx.svc.Reject(ctx, fx.homeowner, detail.Quote.ID, "price too high")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != repository.StatusRejected {
		t.Errorf("quote status = %q, want rejected", rejected.Status)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "price too high" {
		t.Error("rejection reason not recorded")
	}
	if lead := fx.leads.leads[fx.leadID]; lead.Status != leadsdomain.StatusDistributed {
		t.Errorf("lead status = %q, want distributed", lead.Status)
	}
	if a := fx.leads.assignment(fx.leadID, fx.contractor.UserID()); a.Status != leadsdomain.AssignmentQuoted {
		t.Errorf("assignment status = %q, want quoted", a.Status)
	}
}

func TestCorrectStatusBlocksDecisions(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	detail := fx.mustCreate(t)

	for _, status := range []string{repository.StatusAccepted, repository.StatusRejected} {
		_, err := fx.svc.CorrectStatus(ctx, fx.contractor, detail.Quote.ID, status)
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("correct to %q: got %v, want validation error", status, err)
		}
	}
}

func TestCorrectStatusByIssuer(t *testing.T) {
	fx := newFixture()
	detail := fx.mustCreate(t)

	corrected, err := fx.svc.CorrectStatus(context.Background(), fx.contractor, detail.Quote.ID, repository.StatusSent)
	if err != nil {
		t.Fatalf("CorrectStatus: %v", err)
	}
	if corrected.Status != repository.StatusSent {
		t.Fatalf("status = %q, want sent", corrected.Status)
	}
}

func TestListScopedToContractor(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	fx.mustCreate(t)

	other := httpkit.NewIdentity(uuid.New(), "contractor")
	fx.leads.assignments = append(fx.leads.assignments, &leadsdomain.Assignment{
		ID:           uuid.New(),
		LeadID:       fx.leadID,
		ContractorID: other.UserID(),
		Status:       leadsdomain.AssignmentNew,
	})
	if _, err := fx.svc.Create(ctx, other, validCreateParams(fx.leadID)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	mine, err := fx.svc.List(ctx, fx.contractor, ListFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if mine.Total != 1 {
		t.Errorf("contractor sees %d quotes, want 1", mine.Total)
	}

	all, err := fx.svc.List(ctx, fx.admin, ListFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if all.Total != 2 {
		t.Errorf("admin sees %d quotes, want 2", all.Total)
	}
}

func TestListByLeadForOwner(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	fx.mustCreate(t)

	quotes, err := fx.svc.ListByLead(ctx, fx.homeowner, fx.leadID)
	if err != nil {
		t.Fatalf("ListByLead: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1", len(quotes))
	}

	stranger := httpkit.NewIdentity(uuid.New(), "homeowner")
	if _, err := fx.svc.ListByLead(ctx, stranger, fx.leadID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("stranger: got %v, want forbidden", err)
	}
}

func TestListByLeadIsComplete(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	// Well past any listing page size; per-lead reads must not paginate.
	const n = 120
	for i := 0; i < n; i++ {
		id := uuid.New()
		fx.store.quotes[id] = &repository.Quote{
			ID:           id,
			LeadID:       fx.leadID,
			ContractorID: fx.contractor.UserID(),
			QuoteNumber:  fmt.Sprintf("Q-%04d", i+1),
			Status:       repository.StatusDraft,
		}
	}

	quotes, err := fx.svc.ListByLead(ctx, fx.homeowner, fx.leadID)
	if err != nil {
		t.Fatalf("ListByLead: %v", err)
	}
	if len(quotes) != n {
		t.Fatalf("got %d quotes, want %d", len(quotes), n)
	}
}

func TestGetProjectsExpiration(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	params := validCreateParams(fx.leadID)
	past := time.Now().Add(-time.Hour)
	params.ExpirationDate = &past

	detail, err := fx.svc.Create(ctx, fx.contractor, params)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := fx.svc.Get(ctx, fx.contractor, detail.Quote.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Quote.Status != repository.StatusExpired {
		t.Errorf("projected status = %q, want expired", got.Quote.Status)
	}
	if stored := fx.store.quotes[detail.Quote.ID]; stored.Status != repository.StatusDraft {
		t.Errorf("stored status = %q, want draft", stored.Status)
	}
}

func TestExpireSweep(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	params := validCreateParams(fx.leadID)
	past := time.Now().Add(-time.Hour)
	params.ExpirationDate = &past

	detail, err := fx.svc.Create(ctx, fx.contractor, params)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	fx.mustCreate(t)

	count, err := fx.svc.ExpireSweep(ctx)
	if err != nil {
		t.Fatalf("ExpireSweep: %v", err)
	}
	if count != 1 {
		t.Fatalf("swept %d quotes, want 1", count)
	}
	if stored := fx.store.quotes[detail.Quote.ID]; stored.Status != repository.StatusExpired {
		t.Fatalf("stored status = %q, want expired", stored.Status)
	}
}
