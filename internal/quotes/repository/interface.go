package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence surface of the quotes module. The pgx
// implementation lives in this package; tests substitute an in-memory fake.
type Store interface {
	// NextQuoteNumber allocates the next number from the serialized counter.
	NextQuoteNumber(ctx context.Context) (string, error)
	// CreateWithItems inserts a quote with its items and marks the issuing
	// contractor's assignment as quoted, all in one transaction.
	CreateWithItems(ctx context.Context, quote *Quote, items []QuoteItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	GetItems(ctx context.Context, quoteID uuid.UUID) ([]QuoteItem, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]Quote, error)
	// MarkSent applies draft to sent with the sent date stamped.
	MarkSent(ctx context.Context, id uuid.UUID) (*Quote, error)
	// MarkViewed applies sent to viewed exactly once; the flag reports whether
	// this call performed the flip.
	MarkViewed(ctx context.Context, id uuid.UUID) (*Quote, bool, error)
	// Accept applies the full acceptance cascade atomically: quote accepted,
	// assignment won, lead completed.
	Accept(ctx context.Context, id uuid.UUID, now time.Time) (*Quote, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*Quote, error)
	// SetStatus is the administrative correction path.
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*Quote, error)
	ExpireQuotes(ctx context.Context, now time.Time) (int64, error)
}

var _ Store = (*Repository)(nil)
