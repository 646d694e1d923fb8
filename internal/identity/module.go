// Package identity provides the identity bounded context module:
// registration, login, roles, password reset, bans, and admin user ops.
package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"serviceconnect_backend/internal/events"
	apphttp "serviceconnect_backend/internal/http"
	"serviceconnect_backend/internal/identity/handler"
	"serviceconnect_backend/internal/identity/repository"
	"serviceconnect_backend/internal/identity/service"
	"serviceconnect_backend/platform/config"
	"serviceconnect_backend/platform/httpkit"
	"serviceconnect_backend/platform/logger"
	"serviceconnect_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the identity bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the identity module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "identity"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// BanGuard returns middleware that rejects banned users with 403.
// Mounted after authentication on the protected group.
func (m *Module) BanGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := httpkit.GetIdentity(c)
		if !identity.IsAuthenticated() {
			c.Next()
			return
		}
		banned, err := m.service.IsBanned(c.Request.Context(), identity.UserID())
		if err != nil {
			c.Next()
			return
		}
		if banned {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is banned"})
			return
		}
		c.Next()
	}
}

// RegisterRoutes mounts identity routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	auth := ctx.V1.Group("/auth")
	auth.Use(ctx.AuthRateLimiter.RateLimit())
	auth.POST("/register", m.handler.Register)
	auth.POST("/login", m.handler.Login)
	auth.POST("/forgot-password", m.handler.ForgotPassword)
	auth.POST("/reset-password", m.handler.ResetPassword)

	ctx.Protected.GET("/me", m.handler.Me)
	ctx.Protected.PUT("/me", m.handler.UpdateMe)
	ctx.Protected.POST("/me/roles", m.handler.AddRole)

	adminUsers := ctx.Admin.Group("/users")
	adminUsers.GET("", m.handler.ListUsers)
	adminUsers.PUT("/:id/roles", m.handler.UpdateRoles)
	adminUsers.PUT("/:id/ban", m.handler.SetBan)
	ctx.Admin.GET("/stats", m.handler.Stats)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
