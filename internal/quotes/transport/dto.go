package transport

import "github.com/mityademon-rgb/matveypt-bot/internal/pricing"

// ── Requests ──────────────────────────────────────────────────────────────────

// LineItemRequest is one row of a calculator quote.
type LineItemRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Price    float64 `json:"price" validate:"min=0"`
	Quantity int     `json:"quantity" validate:"min=0"`
}

// SubmitQuoteRequest is the body of POST /quote. The conversation is named
// either directly or through a signed calculator link token.
type SubmitQuoteRequest struct {
	ConversationID string            `json:"conversationId" validate:"omitempty,conversation_id"`
	Token          string            `json:"token" validate:"omitempty,max=2048"`
	Category       string            `json:"category" validate:"max=100"`
	Options        map[string]any    `json:"options"`
	Total          *float64          `json:"total" validate:"required,min=0"`
	LineItems      []LineItemRequest `json:"lineItems" validate:"max=50,dive"`
}

// CalculateRequest is the body of POST /api/calculate.
type CalculateRequest struct {
	Intent      string   `json:"intent" validate:"required,max=50"`
	Platforms   []string `json:"platforms" validate:"max=10,dive,max=50"`
	Duration    string   `json:"duration" validate:"omitempty,oneof=1m 3m 6m"`
	VideoLength *int     `json:"videoLength" validate:"omitempty,min=0,max=600"`
	HasCreative *bool    `json:"hasCreative"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// CalculateResponse carries the priced tiers and the chat rendering.
type CalculateResponse struct {
	pricing.Result
	Text string `json:"text"`
}
