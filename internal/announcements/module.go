// Package announcements provides the announcements bounded context module:
// admin broadcasts delivered through the audience system rooms.
package announcements

import (
	"serviceconnect_backend/internal/announcements/handler"
	"serviceconnect_backend/internal/announcements/repository"
	"serviceconnect_backend/internal/announcements/service"
	"serviceconnect_backend/internal/events"
	apphttp "serviceconnect_backend/internal/http"
	"serviceconnect_backend/platform/logger"
	"serviceconnect_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the announcements bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the announcements module with all its dependencies.
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
	return "announcements"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts announcement routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/announcements", m.handler.List)

	admin := ctx.Admin.Group("/announcements")
	admin.POST("", m.handler.Create)
	admin.GET("", m.handler.ListAll)
	admin.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
