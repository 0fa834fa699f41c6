// Package quotes provides the quote lifecycle domain module.
package quotes

import (
	apphttp "homepro_backend/internal/http"
	leadsrepo "homepro_backend/internal/leads/repository"
	"homepro_backend/internal/quotes/handler"
	"homepro_backend/internal/quotes/repository"
	"homepro_backend/internal/quotes/service"
	"homepro_backend/platform/events"
	"homepro_backend/platform/logger"
	"homepro_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotes domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotes module with all dependencies wired. Lead and
// assignment lookups go through the leads repository directly; the quotes
// service only reads them.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leadsrepo.New(pool), log)
	svc.SetEventBus(bus)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterProtectedRoutes(ctx.Protected.Group("/quotes"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
