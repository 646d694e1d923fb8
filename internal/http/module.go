// Package http hosts the server wiring: the Module interface every bounded
// context implements, the router, and the application assembly.
package http

import (
	"serviceconnect_backend/platform/config"
	"serviceconnect_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own HTTP routes. The router
// never knows individual endpoints, only modules.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// RegisterRoutes mounts the module's routes using the shared groups and
	// middleware in the RouterContext.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext bundles the shared route groups and middleware handed to
// each module at registration time.
type RouterContext struct {
	// Engine is the root Gin engine, for modules needing engine-level access.
	Engine *gin.Engine
	// V1 is the public /api/v1 group.
	V1 *gin.RouterGroup
	// Protected is the authenticated group under /api/v1.
	Protected *gin.RouterGroup
	// Admin is the admin-only group under /api/v1/admin.
	Admin *gin.RouterGroup
	// Config exposes the JWT settings for modules that build their own
	// auth variants.
	Config config.JWTConfig
	// AuthMiddleware is the standard access-token check.
	AuthMiddleware gin.HandlerFunc
	// AuthRateLimiter is the tighter limiter for credential endpoints.
	AuthRateLimiter *httpkit.AuthRateLimiter
}
