// Package leads provides the lead lifecycle domain module.
package leads

import (
	"context"

	accounts "homepro_backend/internal/accounts/repository"
	apphttp "homepro_backend/internal/http"
	"homepro_backend/internal/leads/handler"
	"homepro_backend/internal/leads/repository"
	"homepro_backend/internal/leads/service"
	"homepro_backend/platform/config"
	"homepro_backend/platform/events"
	"homepro_backend/platform/logger"
	"homepro_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogResolver is satisfied by the catalog module's service.
type CatalogResolver = service.CatalogResolver

// contractorDirectory adapts the accounts repository to the leads service's
// narrow resolution interface.
type contractorDirectory struct {
	accounts *accounts.Repository
}

func (d contractorDirectory) ResolveContractor(ctx context.Context, id uuid.UUID) error {
	_, err := d.accounts.GetContractor(ctx, id)
	return err
}

// Module represents the leads domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new leads module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, catalog CatalogResolver, bus events.Bus, val *validator.Validator, log *logger.Logger, cfg config.LeadConfig) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, catalog, contractorDirectory{accounts: accounts.New(pool)}, log, cfg.GetLeadTTL())
	svc.SetEventBus(bus)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/leads")
	public.Use(ctx.OptionalAuthMiddleware)
	public.Use(ctx.SubmitRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)

	m.handler.RegisterProtectedRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
