// Package jobs provides the job bounded context module: client and guest
// postings, listing, assignment, and the completion flow.
package jobs

import (
	"serviceconnect_backend/internal/events"
	apphttp "serviceconnect_backend/internal/http"
	"serviceconnect_backend/internal/jobs/handler"
	"serviceconnect_backend/internal/jobs/repository"
	"serviceconnect_backend/internal/jobs/service"
	"serviceconnect_backend/platform/logger"
	"serviceconnect_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the jobs bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the jobs module with all its dependencies.
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
	return "jobs"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts job routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public endpoints (identity optional on Get)
	ctx.V1.GET("/jobs", m.handler.List)
	ctx.V1.GET("/jobs/:id", m.handler.Get)
	ctx.V1.POST("/jobs/guest", m.handler.CreateGuest)

	jobs := ctx.Protected.Group("/jobs")
	jobs.POST("", m.handler.Create)
	jobs.GET("/me", m.handler.MyJobs)
	jobs.PUT("/:id", m.handler.Update)
	jobs.DELETE("/:id", m.handler.Delete)
	jobs.POST("/:id/cancel", m.handler.Cancel)
	jobs.POST("/:id/assign", m.handler.AssignProvider)
	jobs.POST("/:id/complete", m.handler.Complete)

	adminJobs := ctx.Admin.Group("/jobs")
	adminJobs.PUT("/:id/status", m.handler.ForceStatus)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
