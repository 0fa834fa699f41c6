// Package handler exposes the leads module over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homepro_backend/internal/authz"
	"homepro_backend/internal/leads/domain"
	"homepro_backend/internal/leads/service"
	"homepro_backend/internal/leads/transport"
	"homepro_backend/platform/httpkit"
	"homepro_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid lead ID"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes mounts the unauthenticated submission route. The
// optional auth middleware lets account holders submit under their identity.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
}

// RegisterProtectedRoutes mounts the authenticated lead routes.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.PATCH("/:id/contractor-status", h.UpdateAssignment)
}

// RegisterAdminRoutes mounts the admin-only lead routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/assign", h.Assign)
	rg.POST("/:id/verify", h.Verify)
}

func leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

// Create submits a new lead.
// POST /api/v1/leads
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := service.CreateLeadParams{
		GuestFirstName:     req.FirstName,
		GuestLastName:      req.LastName,
		GuestEmail:         req.Email,
		GuestPhone:         req.Phone,
		ServiceID:          req.ServiceID,
		Description:        req.Description,
		Address:            req.Address,
		City:               req.City,
		State:              req.State,
		ZipCode:            req.ZipCode,
		Country:            req.Country,
		PropertyType:       domain.PropertyType(req.PropertyType),
		ProjectTimeline:    domain.ProjectTimeline(req.ProjectTimeline),
		BudgetRange:        req.BudgetRange,
		IsHomeowner:        req.IsHomeowner,
		MonthlyUtilityBill: req.MonthlyUtilityBill,
		RoofAge:            req.RoofAge,
		SquareFootage:      req.SquareFootage,
		CustomFields:       req.CustomFields,
	}

	identity := httpkit.IdentityFromContext(c)
	if identity.IsAuthenticated() && identity.HasRole(string(authz.RoleHomeowner)) {
		id := identity.UserID()
		params.HomeownerID = &id
	}

	lead, err := h.svc.Create(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToLeadResponse(lead))
}

// List returns leads visible to the caller.
// GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	var query transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	filters := service.ListFilters{
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.Status != "" {
		status := domain.Status(query.Status)
		if !domain.ValidStatus(status) {
			httpkit.Error(c, http.StatusBadRequest, "unknown status filter", nil)
			return
		}
		filters.Status = &status
	}
	if query.ServiceID != "" {
		serviceID, err := uuid.Parse(query.ServiceID)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid service filter", nil)
			return
		}
		filters.ServiceID = &serviceID
	}

	result, err := h.svc.List(c.Request.Context(), httpkit.IdentityFromContext(c), filters)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToListLeadsResponse(result))
}

// GetByID returns one lead with assignments and verification history.
// GET /api/v1/leads/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	detail, err := h.svc.Get(c.Request.Context(), httpkit.IdentityFromContext(c), id)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.LeadDetailResponse{LeadResponse: transport.ToLeadResponse(&detail.Lead)}
	resp.Assignments = make([]transport.AssignmentResponse, 0, len(detail.Assignments))
	for i := range detail.Assignments {
		resp.Assignments = append(resp.Assignments, transport.ToAssignmentResponse(&detail.Assignments[i]))
	}
	resp.Verifications = make([]transport.VerificationResponse, 0, len(detail.Verifications))
	for i := range detail.Verifications {
		resp.Verifications = append(resp.Verifications, transport.ToVerificationResponse(&detail.Verifications[i]))
	}
	httpkit.OK(c, resp)
}

// UpdateStatus applies a lead status transition.
// PATCH /api/v1/leads/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), httpkit.IdentityFromContext(c), id, domain.Status(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// Verify appends a verification ledger entry.
// POST /api/v1/admin/leads/:id/verify
func (h *Handler) Verify(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.VerifyLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	v, err := h.svc.Verify(c.Request.Context(), httpkit.IdentityFromContext(c), id,
		domain.VerificationMethod(req.Method), req.Notes, *req.IsVerified)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToVerificationResponse(v))
}

// Assign attaches a contractor to a lead.
// POST /api/v1/admin/leads/:id/assign
func (h *Handler) Assign(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	a, err := h.svc.Assign(c.Request.Context(), httpkit.IdentityFromContext(c), service.AssignParams{
		LeadID:       id,
		ContractorID: req.ContractorID,
		IsExclusive:  req.IsExclusive,
		LeadCost:     req.LeadCostCents,
		Notes:        req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToAssignmentResponse(a))
}

// UpdateAssignment records the calling contractor's progress on a lead.
// PATCH /api/v1/leads/:id/contractor-status
func (h *Handler) UpdateAssignment(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	a, err := h.svc.UpdateAssignmentStatus(c.Request.Context(), httpkit.IdentityFromContext(c), id,
		domain.AssignmentStatus(req.Status), req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAssignmentResponse(a))
}
