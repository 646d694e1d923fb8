// Package chat provides the chat bounded context module: direct rooms
// between clients and providers, audience-wide system rooms, and unread
// tracking.
package chat

import (
	"serviceconnect_backend/internal/chat/handler"
	"serviceconnect_backend/internal/chat/repository"
	"serviceconnect_backend/internal/chat/service"
	"serviceconnect_backend/internal/events"
	apphttp "serviceconnect_backend/internal/http"
	"serviceconnect_backend/platform/logger"
	"serviceconnect_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the chat bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the chat module with all its dependencies.
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
	return "chat"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts chat routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	rooms := ctx.Protected.Group("/chat/rooms")
	rooms.POST("", m.handler.OpenRoom)
	rooms.GET("", m.handler.ListRooms)
	rooms.POST("/:id/messages", m.handler.SendMessage)
	rooms.GET("/:id/messages", m.handler.History)
	rooms.POST("/:id/read", m.handler.MarkRead)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
