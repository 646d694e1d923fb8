// Package proposals provides the proposal bounded context module: provider
// offers on jobs and the acceptance flow.
package proposals

import (
	"serviceconnect_backend/internal/events"
	apphttp "serviceconnect_backend/internal/http"
	"serviceconnect_backend/internal/proposals/handler"
	"serviceconnect_backend/internal/proposals/repository"
	"serviceconnect_backend/internal/proposals/service"
	"serviceconnect_backend/platform/logger"
	"serviceconnect_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the proposals bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the proposals module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "proposals"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts proposal routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	proposals := ctx.Protected.Group("/proposals")
	proposals.POST("", m.handler.Submit)
	proposals.GET("/me", m.handler.ListMine)
	proposals.POST("/:id/accept", m.handler.Accept)
	proposals.POST("/:id/reject", m.handler.Reject)
	proposals.POST("/:id/withdraw", m.handler.Withdraw)

	ctx.Protected.GET("/jobs/:id/proposals", m.handler.ListForJob)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
