// Package quotes provides the calculator quote module: pricing for the
// mini-app and quote submissions forwarded to the operator.
package quotes

import (
	apphttp "github.com/mityademon-rgb/matveypt-bot/internal/http"
	"github.com/mityademon-rgb/matveypt-bot/internal/quotes/handler"
	"github.com/mityademon-rgb/matveypt-bot/internal/quotes/service"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
	"github.com/mityademon-rgb/matveypt-bot/platform/validator"
)

// Module represents the quotes domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotes module with all dependencies wired
func NewModule(submitter service.QuoteSubmitter, tokens service.TokenVerifier, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(submitter, tokens, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	quote := ctx.Engine.Group("/quote")
	if ctx.QuoteRateLimiter != nil {
		quote.Use(ctx.QuoteRateLimiter.RateLimit())
	}
	quote.POST("", m.handler.SubmitQuote)

	ctx.API.POST("/calculate", m.handler.Calculate)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
