// Package reviews provides the reviews bounded context module: two-sided
// reviews on completed jobs and the rating aggregation trigger.
package reviews

import (
	"serviceconnect_backend/internal/events"
	apphttp "serviceconnect_backend/internal/http"
	"serviceconnect_backend/internal/reviews/handler"
	"serviceconnect_backend/internal/reviews/repository"
	"serviceconnect_backend/internal/reviews/service"
	"serviceconnect_backend/platform/logger"
	"serviceconnect_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the reviews bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the reviews module with all its dependencies.
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
	return "reviews"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts review routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public listing of a provider's reviews
	ctx.V1.GET("/providers/:id/reviews", m.handler.ListForProvider)

	reviews := ctx.Protected.Group("/reviews")
	reviews.POST("", m.handler.Create)
	reviews.GET("/me", m.handler.ListMine)
	reviews.GET("/about-me", m.handler.ListAboutMe)

	ctx.Admin.DELETE("/reviews/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
