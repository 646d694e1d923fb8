// Package payments provides the payments bounded context module:
// subscription charges for provider services and the settlement webhook.
package payments

import (
	"serviceconnect_backend/internal/events"
	apphttp "serviceconnect_backend/internal/http"
	"serviceconnect_backend/internal/payments/handler"
	"serviceconnect_backend/internal/payments/repository"
	"serviceconnect_backend/internal/payments/service"
	"serviceconnect_backend/platform/logger"
	"serviceconnect_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the payments bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the payments module with all its dependencies.
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
	return "payments"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts payment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Settlement callback from the payment provider
	ctx.V1.POST("/payments/webhook", m.handler.Webhook)

	payments := ctx.Protected.Group("/payments")
	payments.POST("", m.handler.Create)
	payments.GET("/me", m.handler.ListMine)
	payments.GET("/earnings", m.handler.Earnings)
	payments.GET("/:id", m.handler.Get)

	ctx.Admin.GET("/payments", m.handler.ListAll)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
