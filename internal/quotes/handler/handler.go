// Package handler exposes the quotes module over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homepro_backend/internal/quotes/service"
	"homepro_backend/internal/quotes/transport"
	"homepro_backend/platform/httpkit"
	"homepro_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid quote ID"
)

// Handler handles HTTP requests for quotes.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotes handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterProtectedRoutes mounts the quote routes. All of them require
// authentication; per-quote authorization lives in the service.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/lead/:leadId", h.ListByLead)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/send", h.Send)
	rg.POST("/:id/accept", h.Accept)
	rg.POST("/:id/reject", h.Reject)
	rg.PATCH("/:id/status", h.CorrectStatus)
}

func quoteID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

// Create drafts a quote against a lead.
// POST /api/v1/quotes
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := service.CreateParams{
		LeadID:               req.LeadID,
		TotalAmountCents:     req.TotalAmountCents,
		TaxAmountCents:       req.TaxAmountCents,
		DiscountAmountCents:  req.DiscountAmountCents,
		AfterIncentivesCents: req.AfterIncentivesCents,
		CustomFields:         req.CustomFields,
		IsFinancingAvailable: req.IsFinancingAvailable,
		FinancingDetails:     req.FinancingDetails,
		TermsAndConditions:   req.TermsAndConditions,
		Notes:                req.Notes,
		ExpirationDate:       req.ExpirationDate,
	}
	for _, item := range req.Items {
		params.Items = append(params.Items, service.ItemParams{
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalPriceCents: item.TotalPriceCents,
			SortOrder:       item.SortOrder,
		})
	}

	detail, err := h.svc.Create(c.Request.Context(), httpkit.IdentityFromContext(c), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToQuoteDetailResponse(detail))
}

// List returns the caller's quotes.
// GET /api/v1/quotes
func (h *Handler) List(c *gin.Context) {
	var query transport.ListQuotesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.List(c.Request.Context(), httpkit.IdentityFromContext(c), service.ListFilters{
		LeadID:   query.LeadID,
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToListQuotesResponse(result))
}

// ListByLead returns every quote against one lead.
// GET /api/v1/quotes/lead/:leadId
func (h *Handler) ListByLead(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead ID", nil)
		return
	}

	quotes, err := h.svc.ListByLead(c.Request.Context(), httpkit.IdentityFromContext(c), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	items := make([]transport.QuoteResponse, 0, len(quotes))
	for i := range quotes {
		items = append(items, transport.ToQuoteResponse(&quotes[i]))
	}
	httpkit.OK(c, items)
}

// GetByID returns one quote with items.
// GET /api/v1/quotes/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}

	detail, err := h.svc.Get(c.Request.Context(), httpkit.IdentityFromContext(c), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToQuoteDetailResponse(detail))
}

// Send moves a draft quote to sent.
// POST /api/v1/quotes/:id/send
func (h *Handler) Send(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}

	quote, err := h.svc.Send(c.Request.Context(), httpkit.IdentityFromContext(c), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToQuoteResponse(quote))
}

// Accept records the homeowner's acceptance.
// POST /api/v1/quotes/:id/accept
func (h *Handler) Accept(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}

	quote, err := h.svc.Accept(c.Request.Context(), httpkit.IdentityFromContext(c), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToQuoteResponse(quote))
}

// Reject records the homeowner's rejection.
// POST /api/v1/quotes/:id/reject
func (h *Handler) Reject(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}

	var req transport.RejectQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	quote, err := h.svc.Reject(c.Request.Context(), httpkit.IdentityFromContext(c), id, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToQuoteResponse(quote))
}

// CorrectStatus is the issuing contractor's administrative correction.
// PATCH /api/v1/quotes/:id/status
func (h *Handler) CorrectStatus(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}

	var req transport.CorrectQuoteStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	quote, err := h.svc.CorrectStatus(c.Request.Context(), httpkit.IdentityFromContext(c), id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToQuoteResponse(quote))
}
