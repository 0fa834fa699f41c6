// Package transport defines the quotes module's request and response shapes.
package transport

import (
	"time"

	"homepro_backend/internal/quotes/repository"
	"homepro_backend/internal/quotes/service"

	"github.com/google/uuid"
)

// QuoteItemRequest is one line item of a new quote. TotalPrice is computed
// from quantity and unit price when omitted.
type QuoteItemRequest struct {
	Description     string `json:"description" validate:"required,max=500"`
	Quantity        int    `json:"quantity" validate:"omitempty,min=1"`
	UnitPriceCents  int64  `json:"unitPriceCents" validate:"min=0"`
	TotalPriceCents int64  `json:"totalPriceCents" validate:"omitempty,min=0"`
	SortOrder       int    `json:"sortOrder" validate:"omitempty,min=0"`
}

// CreateQuoteRequest drafts a quote against a lead.
type CreateQuoteRequest struct {
	LeadID               uuid.UUID          `json:"leadId" validate:"required"`
	TotalAmountCents     int64              `json:"totalAmountCents" validate:"required,gt=0"`
	TaxAmountCents       int64              `json:"taxAmountCents" validate:"min=0"`
	DiscountAmountCents  int64              `json:"discountAmountCents" validate:"min=0"`
	AfterIncentivesCents *int64             `json:"afterIncentivesCents" validate:"omitempty,min=0"`
	CustomFields         map[string]string  `json:"customFields"`
	IsFinancingAvailable bool               `json:"isFinancingAvailable"`
	FinancingDetails     *string            `json:"financingDetails" validate:"omitempty,max=2000"`
	TermsAndConditions   *string            `json:"termsAndConditions" validate:"omitempty,max=10000"`
	Notes                *string            `json:"notes" validate:"omitempty,max=5000"`
	ExpirationDate       *time.Time         `json:"expirationDate"`
	Items                []QuoteItemRequest `json:"items" validate:"required,min=1,dive"`
}

// RejectQuoteRequest records the homeowner's rejection with its reason.
type RejectQuoteRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// CorrectQuoteStatusRequest is the issuer's administrative correction.
type CorrectQuoteStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListQuotesQuery filters a quote listing.
type ListQuotesQuery struct {
	LeadID   *uuid.UUID `form:"leadId"`
	Status   *string    `form:"status"`
	Page     int        `form:"page"`
	PageSize int        `form:"pageSize"`
}

// QuoteItemResponse is the API shape of a quote line item.
type QuoteItemResponse struct {
	ID              uuid.UUID `json:"id"`
	Description     string    `json:"description"`
	Quantity        int       `json:"quantity"`
	UnitPriceCents  int64     `json:"unitPriceCents"`
	TotalPriceCents int64     `json:"totalPriceCents"`
	SortOrder       int       `json:"sortOrder"`
}

// QuoteResponse is the API shape of a quote header.
type QuoteResponse struct {
	ID                   uuid.UUID         `json:"id"`
	LeadID               uuid.UUID         `json:"leadId"`
	ContractorID         uuid.UUID         `json:"contractorId"`
	QuoteNumber          string            `json:"quoteNumber"`
	TotalAmountCents     int64             `json:"totalAmountCents"`
	TaxAmountCents       int64             `json:"taxAmountCents"`
	DiscountAmountCents  int64             `json:"discountAmountCents"`
	AfterIncentivesCents *int64            `json:"afterIncentivesCents,omitempty"`
	CustomFields         map[string]string `json:"customFields,omitempty"`
	IsFinancingAvailable bool              `json:"isFinancingAvailable"`
	FinancingDetails     *string           `json:"financingDetails,omitempty"`
	TermsAndConditions   *string           `json:"termsAndConditions,omitempty"`
	Notes                *string           `json:"notes,omitempty"`
	Status               string            `json:"status"`
	ExpirationDate       *time.Time        `json:"expirationDate,omitempty"`
	SentDate             *time.Time        `json:"sentDate,omitempty"`
	ViewedDate           *time.Time        `json:"viewedDate,omitempty"`
	AcceptedDate         *time.Time        `json:"acceptedDate,omitempty"`
	RejectedDate         *time.Time        `json:"rejectedDate,omitempty"`
	RejectionReason      *string           `json:"rejectionReason,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
}

// QuoteDetailResponse is a quote with its line items.
type QuoteDetailResponse struct {
	QuoteResponse
	Items []QuoteItemResponse `json:"items"`
}

// ListQuotesResponse is a paginated quote listing.
type ListQuotesResponse struct {
	Items      []QuoteResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// ToQuoteResponse maps a repository quote to its API shape.
func ToQuoteResponse(q *repository.Quote) QuoteResponse {
	return QuoteResponse{
		ID:                   q.ID,
		LeadID:               q.LeadID,
		ContractorID:         q.ContractorID,
		QuoteNumber:          q.QuoteNumber,
		TotalAmountCents:     q.TotalAmountCents,
		TaxAmountCents:       q.TaxAmountCents,
		DiscountAmountCents:  q.DiscountAmountCents,
		AfterIncentivesCents: q.AfterIncentivesCents,
		CustomFields:         q.CustomFields,
		IsFinancingAvailable: q.IsFinancingAvailable,
		FinancingDetails:     q.FinancingDetails,
		TermsAndConditions:   q.TermsAndConditions,
		Notes:                q.Notes,
		Status:               q.Status,
		ExpirationDate:       q.ExpirationDate,
		SentDate:             q.SentDate,
		ViewedDate:           q.ViewedDate,
		AcceptedDate:         q.AcceptedDate,
		RejectedDate:         q.RejectedDate,
		RejectionReason:      q.RejectionReason,
		CreatedAt:            q.CreatedAt,
		UpdatedAt:            q.UpdatedAt,
	}
}

// ToQuoteItemResponse maps a repository quote item to its API shape.
func ToQuoteItemResponse(item *repository.QuoteItem) QuoteItemResponse {
	return QuoteItemResponse{
		ID:              item.ID,
		Description:     item.Description,
		Quantity:        item.Quantity,
		UnitPriceCents:  item.UnitPriceCents,
		TotalPriceCents: item.TotalPriceCents,
		SortOrder:       item.SortOrder,
	}
}

// ToQuoteDetailResponse maps a quote with items to its API shape.
func ToQuoteDetailResponse(detail *service.QuoteDetail) QuoteDetailResponse {
	items := make([]QuoteItemResponse, 0, len(detail.Items))
	for i := range detail.Items {
		items = append(items, ToQuoteItemResponse(&detail.Items[i]))
	}
	return QuoteDetailResponse{
		QuoteResponse: ToQuoteResponse(&detail.Quote),
		Items:         items,
	}
}

// ToListQuotesResponse maps a paginated listing to its API shape.
func ToListQuotesResponse(result *repository.ListResult) ListQuotesResponse {
	items := make([]QuoteResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, ToQuoteResponse(&result.Items[i]))
	}
	return ListQuotesResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}
}
