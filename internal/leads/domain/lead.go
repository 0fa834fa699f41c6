// Package domain holds the lead aggregate's types and state rules.
// It is pure: no storage, no transport, no logging.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is a lead's lifecycle state.
type Status string

const (
	StatusNew         Status = "new"
	StatusVerified    Status = "verified"
	StatusDistributed Status = "distributed"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusExpired     Status = "expired"
	StatusInvalid     Status = "invalid"
)

// AssignmentStatus tracks one contractor's engagement with a lead.
type AssignmentStatus string

const (
	AssignmentNew       AssignmentStatus = "new"
	AssignmentViewed    AssignmentStatus = "viewed"
	AssignmentContacted AssignmentStatus = "contacted"
	AssignmentQuoted    AssignmentStatus = "quoted"
	AssignmentWon       AssignmentStatus = "won"
	AssignmentLost      AssignmentStatus = "lost"
)

// ValidAssignmentStatus reports whether s is a known assignment status.
func ValidAssignmentStatus(s AssignmentStatus) bool {
	switch s {
	case AssignmentNew, AssignmentViewed, AssignmentContacted, AssignmentQuoted, AssignmentWon, AssignmentLost:
		return true
	}
	return false
}

// PropertyType classifies the property a lead concerns.
type PropertyType string

const (
	PropertySingleFamily PropertyType = "single_family"
	PropertyMultiFamily  PropertyType = "multi_family"
	PropertyCommercial   PropertyType = "commercial"
	PropertyOther        PropertyType = "other"
)

// ValidPropertyType reports whether p is a known property type.
func ValidPropertyType(p PropertyType) bool {
	switch p {
	case PropertySingleFamily, PropertyMultiFamily, PropertyCommercial, PropertyOther:
		return true
	}
	return false
}

// ProjectTimeline is the homeowner's stated urgency.
type ProjectTimeline string

const (
	TimelineImmediate         ProjectTimeline = "immediate"
	TimelineWithinMonth       ProjectTimeline = "within_month"
	TimelineWithinThreeMonths ProjectTimeline = "within_three_months"
	TimelineFuture            ProjectTimeline = "future"
	TimelineResearching       ProjectTimeline = "researching"
)

// ValidProjectTimeline reports whether t is a known timeline.
func ValidProjectTimeline(t ProjectTimeline) bool {
	switch t {
	case TimelineImmediate, TimelineWithinMonth, TimelineWithinThreeMonths, TimelineFuture, TimelineResearching:
		return true
	}
	return false
}

// VerificationMethod is how a lead's legitimacy was checked.
type VerificationMethod string

const (
	VerifyPhone        VerificationMethod = "phone"
	VerifyEmail        VerificationMethod = "email"
	VerifyAddressCheck VerificationMethod = "address_check"
	VerifyManual       VerificationMethod = "manual"
)

// ValidVerificationMethod reports whether m is a known method.
func ValidVerificationMethod(m VerificationMethod) bool {
	switch m {
	case VerifyPhone, VerifyEmail, VerifyAddressCheck, VerifyManual:
		return true
	}
	return false
}

// DefaultTTL is how long a lead stays visible after creation.
const DefaultTTL = 30 * 24 * time.Hour

// Lead is the aggregate root. Exactly one of HomeownerID or the guest contact
// bundle (GuestName, GuestEmail, GuestPhone) is populated.
type Lead struct {
	ID             uuid.UUID
	HomeownerID    *uuid.UUID
	GuestFirstName *string
	GuestLastName  *string
	GuestEmail     *string
	GuestPhone     *string

	ServiceID   uuid.UUID
	Description string

	Address string
	City    string
	State   string
	ZipCode string
	Country string

	PropertyType    PropertyType
	ProjectTimeline ProjectTimeline
	BudgetRange     *string
	IsHomeowner     bool

	MonthlyUtilityBill *int64
	RoofAge            *int
	SquareFootage      *int
	CustomFields       map[string]string

	Status    Status
	LeadScore int
	ExpiresAt time.Time
	Version   int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsGuest reports whether the lead was submitted without an account.
func (l *Lead) IsGuest() bool { return l.HomeownerID == nil }

// ExpiredAt reports whether the lead is past its visibility deadline at t.
// Stored status is not consulted: expiration is a computed projection.
func (l *Lead) ExpiredAt(t time.Time) bool { return t.After(l.ExpiresAt) }

// EffectiveStatus returns the status a reader should observe at t, projecting
// non-terminal leads past their deadline to expired.
func (l *Lead) EffectiveStatus(t time.Time) Status {
	if !IsTerminal(l.Status) && l.ExpiredAt(t) {
		return StatusExpired
	}
	return l.Status
}

// Assignment is one contractor's record on a lead. A contractor holds at most
// one assignment per lead.
type Assignment struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	ContractorID uuid.UUID
	Status       AssignmentStatus
	IsExclusive  bool
	AssignedAt   time.Time
	LeadCost     int64
	Notes        *string
	UpdatedAt    time.Time
}

// Verification is one append-only ledger entry. Entries are never edited or
// removed after insertion.
type Verification struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	VerifiedBy uuid.UUID
	Method     VerificationMethod
	Notes      string
	IsVerified bool
	CreatedAt  time.Time
}
