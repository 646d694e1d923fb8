// Package providers provides the provider bounded context module: profiles,
// the per-service subscription lifecycle, past-job history, and ratings.
package providers

import (
	"context"

	"serviceconnect_backend/internal/events"
	apphttp "serviceconnect_backend/internal/http"
	"serviceconnect_backend/internal/providers/handler"
	"serviceconnect_backend/internal/providers/repository"
	"serviceconnect_backend/internal/providers/service"
	"serviceconnect_backend/platform/logger"
	"serviceconnect_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the providers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the providers module with all its dependencies.
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
	return "providers"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts provider routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public browsing endpoints (identity optional)
	ctx.V1.GET("/providers", m.handler.List)
	ctx.V1.GET("/providers/:id/stats", m.handler.Stats)

	providers := ctx.Protected.Group("/providers")
	providers.POST("", m.handler.CreateProfile)
	providers.GET("/me", m.handler.MyProfile)
	providers.PUT("/me", m.handler.UpdateProfile)
	providers.DELETE("/me", m.handler.DeleteProfile)
	providers.POST("/me/services", m.handler.AddService)
	providers.DELETE("/me/services/:serviceId", m.handler.RemoveService)
	providers.GET("/:id", m.handler.Get)

	adminProviders := ctx.Admin.Group("/providers")
	adminProviders.PUT("/:id/moderation", m.handler.SetModeration)
	adminProviders.POST("/:id/services/:serviceId/approve", m.handler.ApproveService)
	adminProviders.POST("/:id/services/:serviceId/reject", m.handler.RejectService)
	adminProviders.POST("/:id/services/:serviceId/suspend", m.handler.SuspendService)
	adminProviders.POST("/:id/services/:serviceId/reinstate", m.handler.ReinstateService)
}

// RegisterHandlers subscribes to domain events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ServicePaymentCompleted{}.EventName(), m)
	bus.Subscribe(events.JobCompleted{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ServicePaymentCompleted:
		return m.service.ActivateOnPayment(ctx, e.ProviderProfileID, e.ServiceID)
	case events.JobCompleted:
		if e.ProviderID != nil {
			return m.service.AddPastJob(ctx, *e.ProviderID, e.JobID)
		}
		return nil
	default:
		return nil
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
