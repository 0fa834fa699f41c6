// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"homepro_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is submitted.
type LeadCreated struct {
	BaseEvent
	LeadID      uuid.UUID  `json:"leadId"`
	ServiceID   uuid.UUID  `json:"serviceId"`
	HomeownerID *uuid.UUID `json:"homeownerId,omitempty"`
	GuestEmail  string     `json:"guestEmail,omitempty"`
	LeadScore   int        `json:"leadScore"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadVerified is published when a verification entry advances a lead to verified.
type LeadVerified struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	VerifierID uuid.UUID `json:"verifierId"`
	Method     string    `json:"method"`
}

func (e LeadVerified) EventName() string { return "leads.verified" }

// LeadAssigned is published when a contractor is attached to a lead.
type LeadAssigned struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	ContractorID uuid.UUID `json:"contractorId"`
	IsExclusive  bool      `json:"isExclusive"`
	Distributed  bool      `json:"distributed"`
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// LeadStatusChanged is published after any lead status transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// =============================================================================
// Quotes Domain Events
// =============================================================================

// QuoteCreated is published when a contractor drafts a quote against a lead.
type QuoteCreated struct {
	BaseEvent
	QuoteID      uuid.UUID `json:"quoteId"`
	LeadID       uuid.UUID `json:"leadId"`
	ContractorID uuid.UUID `json:"contractorId"`
	QuoteNumber  string    `json:"quoteNumber"`
}

func (e QuoteCreated) EventName() string { return "quotes.created" }

// QuoteSent is published when a quote leaves draft.
type QuoteSent struct {
	BaseEvent
	QuoteID     uuid.UUID `json:"quoteId"`
	LeadID      uuid.UUID `json:"leadId"`
	QuoteNumber string    `json:"quoteNumber"`
}

func (e QuoteSent) EventName() string { return "quotes.sent" }

// QuoteStatusChanged is published on every quote status transition, including
// the accept and reject decisions notification cares about.
type QuoteStatusChanged struct {
	BaseEvent
	QuoteID         uuid.UUID `json:"quoteId"`
	LeadID          uuid.UUID `json:"leadId"`
	ContractorID    uuid.UUID `json:"contractorId"`
	QuoteNumber     string    `json:"quoteNumber"`
	OldStatus       string    `json:"oldStatus"`
	NewStatus       string    `json:"newStatus"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
}

func (e QuoteStatusChanged) EventName() string { return "quotes.status.changed" }
