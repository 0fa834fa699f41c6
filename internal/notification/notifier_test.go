package notification

import (
	"context"
	"strings"
	"testing"

	accounts "homepro_backend/internal/accounts/repository"
	"homepro_backend/internal/events"
	leadsdomain "homepro_backend/internal/leads/domain"
	"homepro_backend/internal/quotes/repository"
	"homepro_backend/platform/apperr"
	"homepro_backend/platform/logger"

	"github.com/google/uuid"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeSender struct {
	mails []sentMail
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	f.mails = append(f.mails, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fakeUsers struct {
	users map[uuid.UUID]*accounts.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*accounts.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

type fakeLeadReader struct {
	leads map[uuid.UUID]*leadsdomain.Lead
}

func (f *fakeLeadReader) GetLead(_ context.Context, id uuid.UUID) (*leadsdomain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func strPtr(s string) *string { return &s }

func TestQuoteSentEmailsHomeownerAccount(t *testing.T) {
	homeownerID := uuid.New()
	leadID := uuid.New()

	sender := &fakeSender{}
	n := New(sender,
		&fakeUsers{users: map[uuid.UUID]*accounts.User{
			homeownerID: {ID: homeownerID, FirstName: "Ada", LastName: "Stone", Email: "ada@example.com"},
		}},
		&fakeLeadReader{leads: map[uuid.UUID]*leadsdomain.Lead{
			leadID: {ID: leadID, HomeownerID: &homeownerID},
		}},
		logger.New("development"),
	)

	err := n.handleQuoteSent(context.Background(), events.QuoteSent{
		BaseEvent:   events.NewBaseEvent(),
		QuoteID:     uuid.New(),
		LeadID:      leadID,
		QuoteNumber: "Q-0007",
	})
	if err != nil {
		t.Fatalf("handleQuoteSent: %v", err)
	}
	if len(sender.mails) != 1 {
		t.Fatalf("sent %d mails, want 1", len(sender.mails))
	}
	mail := sender.mails[0]
	if mail.to != "ada@example.com" {
		t.Errorf("to = %q, want ada@example.com", mail.to)
	}
	if !strings.Contains(mail.subject, "Q-0007") {
		t.Errorf("subject %q does not mention quote number", mail.subject)
	}
}

func TestQuoteSentEmailsGuest(t *testing.T) {
	leadID := uuid.New()

	sender := &fakeSender{}
	n := New(sender,
		&fakeUsers{users: map[uuid.UUID]*accounts.User{}},
		&fakeLeadReader{leads: map[uuid.UUID]*leadsdomain.Lead{
			leadID: {ID: leadID, GuestFirstName: strPtr("Sam"), GuestEmail: strPtr("sam@example.com")},
		}},
		logger.New("development"),
	)

	err := n.handleQuoteSent(context.Background(), events.QuoteSent{
		BaseEvent:   events.NewBaseEvent(),
		QuoteID:     uuid.New(),
		LeadID:      leadID,
		QuoteNumber: "Q-0008",
	})
	if err != nil {
		t.Fatalf("handleQuoteSent: %v", err)
	}
	if len(sender.mails) != 1 || sender.mails[0].to != "sam@example.com" {
		t.Fatalf("mails = %+v, want one to sam@example.com", sender.mails)
	}
}

func TestDecisionEmailsContractor(t *testing.T) {
	contractorID := uuid.New()

	sender := &fakeSender{}
	n := New(sender,
		&fakeUsers{users: map[uuid.UUID]*accounts.User{
			contractorID: {ID: contractorID, FirstName: "Ray", LastName: "Volt", Email: "ray@example.com", Role: "contractor"},
		}},
		&fakeLeadReader{leads: map[uuid.UUID]*leadsdomain.Lead{}},
		logger.New("development"),
	)

	err := n.handleQuoteStatusChanged(context.Background(), events.QuoteStatusChanged{
		BaseEvent:       events.NewBaseEvent(),
		QuoteID:         uuid.New(),
		LeadID:          uuid.New(),
		ContractorID:    contractorID,
		QuoteNumber:     "Q-0009",
		OldStatus:       repository.StatusSent,
		NewStatus:       repository.StatusRejected,
		RejectionReason: "chose another bid",
	})
	if err != nil {
		t.Fatalf("handleQuoteStatusChanged: %v", err)
	}
	if len(sender.mails) != 1 {
		t.Fatalf("sent %d mails, want 1", len(sender.mails))
	}
	mail := sender.mails[0]
	if mail.to != "ray@example.com" {
		t.Errorf("to = %q, want ray@example.com", mail.to)
	}
	if !strings.Contains(mail.body, "chose another bid") {
		t.Errorf("body %q does not carry the rejection reason", mail.body)
	}
}

func TestNonDecisionStatusChangeIsIgnored(t *testing.T) {
	sender := &fakeSender{}
	n := New(sender, &fakeUsers{}, &fakeLeadReader{}, logger.New("development"))

	err := n.handleQuoteStatusChanged(context.Background(), events.QuoteStatusChanged{
		BaseEvent:   events.NewBaseEvent(),
		QuoteID:     uuid.New(),
		QuoteNumber: "Q-0010",
		OldStatus:   repository.StatusSent,
		NewStatus:   repository.StatusViewed,
	})
	if err != nil {
		t.Fatalf("handleQuoteStatusChanged: %v", err)
	}
	if len(sender.mails) != 0 {
		t.Fatalf("sent %d mails, want 0", len(sender.mails))
	}
}
