// Package http provides HTTP server infrastructure including the Module interface
// that all HTTP-facing modules implement for route registration.
package http

import (
	"github.com/mityademon-rgb/matveypt-bot/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
// Each module implements this interface to encapsulate its own route setup,
// keeping the main router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine for routes outside /api.
	Engine *gin.Engine
	// API is the /api route group.
	API *gin.RouterGroup
	// QuoteRateLimiter is the stricter per-IP limiter for quote submissions.
	QuoteRateLimiter *httpkit.IPRateLimiter
}
