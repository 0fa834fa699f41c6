package notification

import (
	"context"
	"fmt"

	accounts "homepro_backend/internal/accounts/repository"
	"homepro_backend/internal/events"
	leadsdomain "homepro_backend/internal/leads/domain"
	"homepro_backend/internal/quotes/repository"
	"homepro_backend/platform/logger"

	"github.com/google/uuid"
)

// UserDirectory resolves user contact details. Satisfied by the accounts
// repository.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*accounts.User, error)
}

// LeadReader resolves leads for recipient lookup. Satisfied by the leads
// repository.
type LeadReader interface {
	GetLead(ctx context.Context, id uuid.UUID) (*leadsdomain.Lead, error)
}

// Notifier turns quote lifecycle events into emails. Delivery failures are
// logged and dropped; notification never blocks or fails an operation.
type Notifier struct {
	sender Sender
	users  UserDirectory
	leads  LeadReader
	log    *logger.Logger
}

// New creates a notifier.
func New(sender Sender, users UserDirectory, leads LeadReader, log *logger.Logger) *Notifier {
	return &Notifier{sender: sender, users: users, leads: leads, log: log}
}

// RegisterHandlers subscribes the notifier to the quote events it emails for.
func (n *Notifier) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.QuoteSent{}.EventName(), events.HandlerFunc(n.handleQuoteSent))
	bus.Subscribe(events.QuoteStatusChanged{}.EventName(), events.HandlerFunc(n.handleQuoteStatusChanged))
}

// homeownerEmail resolves where to reach the lead's requester: the account
// email for registered homeowners, the submitted contact email for guests.
func (n *Notifier) homeownerEmail(ctx context.Context, lead *leadsdomain.Lead) (email, name string, err error) {
	if lead.HomeownerID != nil {
		user, err := n.users.GetByID(ctx, *lead.HomeownerID)
		if err != nil {
			return "", "", err
		}
		return user.Email, user.FullName(), nil
	}
	if lead.GuestEmail == nil || *lead.GuestEmail == "" {
		return "", "", fmt.Errorf("lead %s has no requester email", lead.ID)
	}
	name = ""
	if lead.GuestFirstName != nil {
		name = *lead.GuestFirstName
	}
	return *lead.GuestEmail, name, nil
}

func (n *Notifier) handleQuoteSent(ctx context.Context, event events.Event) error {
	sent, ok := event.(events.QuoteSent)
	if !ok {
		return nil
	}

	lead, err := n.leads.GetLead(ctx, sent.LeadID)
	if err != nil {
		return fmt.Errorf("notify quote sent: %w", err)
	}
	email, name, err := n.homeownerEmail(ctx, lead)
	if err != nil {
		n.log.Warn("quote sent notification skipped", "quote_number", sent.QuoteNumber, "error", err.Error())
		return nil
	}

	subject := fmt.Sprintf("You received quote %s", sent.QuoteNumber)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>A contractor sent you quote <strong>%s</strong> for your project. Log in to review, accept, or decline it.</p>",
		name, sent.QuoteNumber,
	)
	if err := n.sender.Send(ctx, email, subject, body); err != nil {
		return fmt.Errorf("notify quote sent: %w", err)
	}
	return nil
}

func (n *Notifier) handleQuoteStatusChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(events.QuoteStatusChanged)
	if !ok {
		return nil
	}

	// The issuing contractor only hears about the homeowner's decision.
	var subject, body string
	switch changed.NewStatus {
	case repository.StatusAccepted:
		subject = fmt.Sprintf("Quote %s was accepted", changed.QuoteNumber)
		body = fmt.Sprintf(
			"<p>Your quote <strong>%s</strong> was accepted. The lead is now marked completed and the job is yours.</p>",
			changed.QuoteNumber,
		)
	case repository.StatusRejected:
		subject = fmt.Sprintf("Quote %s was declined", changed.QuoteNumber)
		body = fmt.Sprintf(
			"<p>Your quote <strong>%s</strong> was declined.</p><p>Reason: %s</p>",
			changed.QuoteNumber, changed.RejectionReason,
		)
	default:
		return nil
	}

	contractor, err := n.users.GetByID(ctx, changed.ContractorID)
	if err != nil {
		return fmt.Errorf("notify quote decision: %w", err)
	}
	if err := n.sender.Send(ctx, contractor.Email, subject, body); err != nil {
		return fmt.Errorf("notify quote decision: %w", err)
	}
	return nil
}
