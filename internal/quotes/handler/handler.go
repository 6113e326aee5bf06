package handler

import (
	"net/http"

	"github.com/mityademon-rgb/matveypt-bot/internal/quotes/service"
	"github.com/mityademon-rgb/matveypt-bot/internal/quotes/transport"
	"github.com/mityademon-rgb/matveypt-bot/platform/httpkit"
	"github.com/mityademon-rgb/matveypt-bot/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles the calculator mini-app endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotes handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SubmitQuote handles POST /quote
func (h *Handler) SubmitQuote(c *gin.Context) {
	var req transport.SubmitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if httpkit.HandleError(c, h.svc.Submit(c.Request.Context(), req)) {
		return
	}
	httpkit.Success(c)
}

// Calculate handles POST /api/calculate
func (h *Handler) Calculate(c *gin.Context) {
	var req transport.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	httpkit.OK(c, h.svc.Calculate(req))
}
