// Package repository provides database operations for quotes.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"homepro_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Quote status values. The machine itself is enforced in the service; the
// repository enforces it a second time through compare-and-set updates.
const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusViewed   = "viewed"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
)

// ValidStatus reports whether s is a known quote status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusSent, StatusViewed, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Quote is the database model for a quote header.
type Quote struct {
	ID                   uuid.UUID  `db:"id"`
	LeadID               uuid.UUID  `db:"lead_id"`
	ContractorID         uuid.UUID  `db:"contractor_id"`
	QuoteNumber          string     `db:"quote_number"`
	TotalAmountCents     int64      `db:"total_amount_cents"`
	TaxAmountCents       int64      `db:"tax_amount_cents"`
	DiscountAmountCents  int64      `db:"discount_amount_cents"`
	AfterIncentivesCents *int64     `db:"after_incentives_amount_cents"`
	CustomFields         map[string]string
	IsFinancingAvailable bool       `db:"is_financing_available"`
	FinancingDetails     *string    `db:"financing_details"`
	TermsAndConditions   *string    `db:"terms_and_conditions"`
	Notes                *string    `db:"notes"`
	Status               string     `db:"status"`
	ExpirationDate       *time.Time `db:"expiration_date"`
	SentDate             *time.Time `db:"sent_date"`
	ViewedDate           *time.Time `db:"viewed_date"`
	AcceptedDate         *time.Time `db:"accepted_date"`
	RejectedDate         *time.Time `db:"rejected_date"`
	RejectionReason      *string    `db:"rejection_reason"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}

// ExpiredAt reports whether the quote is past its expiration date at t.
func (q *Quote) ExpiredAt(t time.Time) bool {
	return q.ExpirationDate != nil && t.After(*q.ExpirationDate)
}

// Terminal reports whether no transition leaves the quote's status.
func (q *Quote) Terminal() bool {
	return q.Status == StatusAccepted || q.Status == StatusRejected || q.Status == StatusExpired
}

// QuoteItem is the database model for a quote line item.
type QuoteItem struct {
	ID              uuid.UUID `db:"id"`
	QuoteID         uuid.UUID `db:"quote_id"`
	Description     string    `db:"description"`
	Quantity        int       `db:"quantity"`
	UnitPriceCents  int64     `db:"unit_price_cents"`
	TotalPriceCents int64     `db:"total_price_cents"`
	SortOrder       int       `db:"sort_order"`
}

// ListParams contains parameters for listing quotes.
type ListParams struct {
	ContractorID *uuid.UUID
	LeadID       *uuid.UUID
	Status       *string
	Page         int
	PageSize     int
}

// ListResult contains the paginated result of listing quotes.
type ListResult struct {
	Items      []Quote
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

const quoteNotFoundMsg = "quote not found"

// Repository provides database operations for quotes.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NextQuoteNumber atomically allocates the next quote number. The single
// counter row serializes concurrent creations so numbers are distinct and
// gap-free.
func (r *Repository) NextQuoteNumber(ctx context.Context) (string, error) {
	var nextNum int
	query := `
		INSERT INTO quote_counters (id, last_number)
		VALUES (1, 1)
		ON CONFLICT (id) DO UPDATE SET last_number = quote_counters.last_number + 1
		RETURNING last_number`

	if err := r.pool.QueryRow(ctx, query).Scan(&nextNum); err != nil {
		return "", fmt.Errorf("failed to generate quote number: %w", err)
	}
	return fmt.Sprintf("Q-%04d", nextNum), nil
}

const quoteColumns = `
	id, lead_id, contractor_id, quote_number,
	total_amount_cents, tax_amount_cents, discount_amount_cents, after_incentives_amount_cents,
	custom_fields, is_financing_available, financing_details, terms_and_conditions, notes,
	status, expiration_date, sent_date, viewed_date, accepted_date, rejected_date, rejection_reason,
	created_at, updated_at`

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	var customFields []byte
	err := row.Scan(
		&q.ID, &q.LeadID, &q.ContractorID, &q.QuoteNumber,
		&q.TotalAmountCents, &q.TaxAmountCents, &q.DiscountAmountCents, &q.AfterIncentivesCents,
		&customFields, &q.IsFinancingAvailable, &q.FinancingDetails, &q.TermsAndConditions, &q.Notes,
		&q.Status, &q.ExpirationDate, &q.SentDate, &q.ViewedDate, &q.AcceptedDate, &q.RejectedDate, &q.RejectionReason,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(quoteNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan quote: %w", err)
	}
	if len(customFields) > 0 {
		if err := json.Unmarshal(customFields, &q.CustomFields); err != nil {
			return nil, fmt.Errorf("failed to decode custom fields: %w", err)
		}
	}
	return &q, nil
}

// CreateWithItems inserts a quote and its line items in one transaction and
// marks the contractor's assignment as quoted. The assignment row is locked
// so a concurrent assignment update cannot interleave.
func (r *Repository) CreateWithItems(ctx context.Context, quote *Quote, items []QuoteItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var assignmentStatus string
	err = tx.QueryRow(ctx, `
		SELECT status FROM lead_assignments
		WHERE lead_id = $1 AND contractor_id = $2
		FOR UPDATE`,
		quote.LeadID, quote.ContractorID,
	).Scan(&assignmentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Forbidden("contractor is not assigned to this lead")
	}
	if err != nil {
		return fmt.Errorf("failed to lock assignment: %w", err)
	}

	var customFields []byte
	if len(quote.CustomFields) > 0 {
		encoded, err := json.Marshal(quote.CustomFields)
		if err != nil {
			return fmt.Errorf("failed to encode custom fields: %w", err)
		}
		customFields = encoded
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO quotes (
			id, lead_id, contractor_id, quote_number,
			total_amount_cents, tax_amount_cents, discount_amount_cents, after_incentives_amount_cents,
			custom_fields, is_financing_available, financing_details, terms_and_conditions, notes,
			status, expiration_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`,
		quote.ID, quote.LeadID, quote.ContractorID, quote.QuoteNumber,
		quote.TotalAmountCents, quote.TaxAmountCents, quote.DiscountAmountCents, quote.AfterIncentivesCents,
		customFields, quote.IsFinancingAvailable, quote.FinancingDetails, quote.TermsAndConditions, quote.Notes,
		quote.Status, quote.ExpirationDate,
	).Scan(&quote.CreatedAt, &quote.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}

	for i := range items {
		items[i].QuoteID = quote.ID
		_, err := tx.Exec(ctx, `
			INSERT INTO quote_items (id, quote_id, description, quantity, unit_price_cents, total_price_cents, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			items[i].ID, items[i].QuoteID, items[i].Description, items[i].Quantity,
			items[i].UnitPriceCents, items[i].TotalPriceCents, items[i].SortOrder,
		)
		if err != nil {
			return fmt.Errorf("failed to insert quote item: %w", err)
		}
	}

	// A decided assignment keeps its outcome; everything else becomes quoted.
	if assignmentStatus != "won" && assignmentStatus != "lost" {
		_, err = tx.Exec(ctx, `
			UPDATE lead_assignments SET status = 'quoted', updated_at = now()
			WHERE lead_id = $1 AND contractor_id = $2`,
			quote.LeadID, quote.ContractorID,
		)
		if err != nil {
			return fmt.Errorf("failed to mark assignment quoted: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit quote: %w", err)
	}
	return nil
}

// GetByID returns the quote with the given id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`
	return scanQuote(r.pool.QueryRow(ctx, query, id))
}

// GetItems returns a quote's line items in sort order.
func (r *Repository) GetItems(ctx context.Context, quoteID uuid.UUID) ([]QuoteItem, error) {
	query := `
		SELECT id, quote_id, description, quantity, unit_price_cents, total_price_cents, sort_order
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY sort_order, id`

	rows, err := r.pool.Query(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quote items: %w", err)
	}
	defer rows.Close()

	var items []QuoteItem
	for rows.Next() {
		var item QuoteItem
		if err := rows.Scan(&item.ID, &item.QuoteID, &item.Description, &item.Quantity,
			&item.UnitPriceCents, &item.TotalPriceCents, &item.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan quote item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// List returns a filtered, paginated page of quotes.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.ContractorID != nil {
		where += " AND contractor_id = " + arg(*params.ContractorID)
	}
	if params.LeadID != nil {
		where += " AND lead_id = " + arg(*params.LeadID)
	}
	if params.Status != nil {
		where += " AND status = " + arg(*params.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quotes"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count quotes: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := "SELECT " + quoteColumns + " FROM quotes" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %s OFFSET %s", arg(pageSize), arg((page-1)*pageSize))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	items := make([]Quote, 0, pageSize)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read quotes: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return &ListResult{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}, nil
}

// ListByLead returns every quote issued against a lead. Callers treat the
// result as the complete set, so no pagination applies.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE lead_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lead quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lead quotes: %w", err)
	}
	return quotes, nil
}

// MarkSent moves a draft quote to sent and stamps the sent date. A quote no
// longer in draft yields Conflict.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) (*Quote, error) {
	query := `
		UPDATE quotes
		SET status = $2, sent_date = now(), updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING ` + quoteColumns

	q, err := scanQuote(r.pool.QueryRow(ctx, query, id, StatusSent, StatusDraft))
	if err == nil {
		return q, nil
	}
	return nil, r.explainMissedUpdate(ctx, id, err, "quote is not in draft")
}

// MarkViewed flips a sent quote to viewed and stamps the viewed date exactly
// once. Quotes in any other status are returned unchanged.
func (r *Repository) MarkViewed(ctx context.Context, id uuid.UUID) (*Quote, bool, error) {
	query := `
		UPDATE quotes
		SET status = $2, viewed_date = now(), updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING ` + quoteColumns

	q, err := scanQuote(r.pool.QueryRow(ctx, query, id, StatusViewed, StatusSent))
	if err == nil {
		return q, true, nil
	}
	if apperr.Is(err, apperr.KindNotFound) {
		q, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, false, getErr
		}
		return q, false, nil
	}
	return nil, false, err
}

// Accept moves a quote to accepted and applies the full cascade in one
// transaction: assignment to won, lead to completed. Any failure leaves all
// three rows untouched.
func (r *Repository) Accept(ctx context.Context, id uuid.UUID, now time.Time) (*Quote, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := scanQuote(tx.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if current.Terminal() {
		return nil, apperr.Conflict(fmt.Sprintf("quote in status %q cannot be accepted", current.Status))
	}
	if current.ExpiredAt(now) {
		return nil, apperr.Conflict("quote has expired")
	}

	q, err := scanQuote(tx.QueryRow(ctx, `
		UPDATE quotes
		SET status = $2, accepted_date = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+quoteColumns,
		id, StatusAccepted,
	))
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE lead_assignments SET status = 'won', updated_at = now()
		WHERE lead_id = $1 AND contractor_id = $2`,
		q.LeadID, q.ContractorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark assignment won: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE leads SET status = 'completed', version = version + 1, updated_at = now()
		WHERE id = $1 AND status NOT IN ('completed', 'invalid', 'expired')`,
		q.LeadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var leadStatus string
		if err := tx.QueryRow(ctx, `SELECT status FROM leads WHERE id = $1`, q.LeadID).Scan(&leadStatus); err != nil {
			return nil, fmt.Errorf("failed to read lead status: %w", err)
		}
		if leadStatus != "completed" {
			return nil, apperr.Conflict(fmt.Sprintf("lead in status %q cannot be completed", leadStatus))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit acceptance: %w", err)
	}
	return q, nil
}

// Reject moves a quote to rejected with the stored reason. Lead and
// assignment are untouched.
func (r *Repository) Reject(ctx context.Context, id uuid.UUID, reason string) (*Quote, error) {
	query := `
		UPDATE quotes
		SET status = $2, rejected_date = now(), rejection_reason = $3, updated_at = now()
		WHERE id = $1 AND status NOT IN ($2, $4, $5)
		RETURNING ` + quoteColumns

	q, err := scanQuote(r.pool.QueryRow(ctx, query, id, StatusRejected, reason, StatusAccepted, StatusExpired))
	if err == nil {
		return q, nil
	}
	return nil, r.explainMissedUpdate(ctx, id, err, "quote can no longer be rejected")
}

// SetStatus applies an administrative status correction, stamping the
// corresponding date the first time each status is reached. Earlier dates are
// never cleared.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) (*Quote, error) {
	query := `
		UPDATE quotes
		SET status = $2,
			sent_date     = CASE WHEN $2 = 'sent'     THEN COALESCE(sent_date, now())     ELSE sent_date END,
			viewed_date   = CASE WHEN $2 = 'viewed'   THEN COALESCE(viewed_date, now())   ELSE viewed_date END,
			accepted_date = CASE WHEN $2 = 'accepted' THEN COALESCE(accepted_date, now()) ELSE accepted_date END,
			rejected_date = CASE WHEN $2 = 'rejected' THEN COALESCE(rejected_date, now()) ELSE rejected_date END,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + quoteColumns

	return scanQuote(r.pool.QueryRow(ctx, query, id, status))
}

// ExpireQuotes stamps the expired status on undecided quotes past their
// expiration date and returns the number of rows affected.
func (r *Repository) ExpireQuotes(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotes SET status = $2, updated_at = now()
		WHERE expiration_date < $1 AND status NOT IN ($2, $3, $4)`,
		now, StatusExpired, StatusAccepted, StatusRejected,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire quotes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// explainMissedUpdate turns a zero-row CAS update into NotFound or Conflict.
func (r *Repository) explainMissedUpdate(ctx context.Context, id uuid.UUID, err error, conflictMsg string) error {
	if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return getErr
	}
	return apperr.Conflict(conflictMsg)
}
