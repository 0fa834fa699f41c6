// Package catalog provides the service catalog domain module.
package catalog

import (
	apphttp "homepro_backend/internal/http"
	"homepro_backend/internal/catalog/handler"
	"homepro_backend/internal/catalog/repository"
	"homepro_backend/internal/catalog/service"
	"homepro_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the catalog domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new catalog module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPublicRoutes(ctx.V1.Group("/services"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/services"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
