// Package service holds the calculator quote use cases: pricing requests
// and quote submissions forwarded to the operator.
package service

import (
	"context"

	"github.com/mityademon-rgb/matveypt-bot/internal/escalation"
	"github.com/mityademon-rgb/matveypt-bot/internal/pricing"
	"github.com/mityademon-rgb/matveypt-bot/internal/quotes/transport"
	"github.com/mityademon-rgb/matveypt-bot/platform/apperr"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
	"github.com/mityademon-rgb/matveypt-bot/platform/sanitize"
)

// QuoteSubmitter forwards a quote to the operator and acknowledges it to the
// lead when the conversation is live.
type QuoteSubmitter interface {
	HandleQuoteSubmission(ctx context.Context, q escalation.QuoteSubmission) error
}

// TokenVerifier resolves a calculator link token to a conversation.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type Service struct {
	submitter QuoteSubmitter
	tokens    TokenVerifier
	log       *logger.Logger
}

func New(submitter QuoteSubmitter, tokens TokenVerifier, log *logger.Logger) *Service {
	return &Service{submitter: submitter, tokens: tokens, log: log}
}

// Submit forwards a calculator quote. Free-text fields are sanitized before
// they reach the operator chat.
func (s *Service) Submit(ctx context.Context, req transport.SubmitQuoteRequest) error {
	conversationID, err := s.resolveConversation(req)
	if err != nil {
		return err
	}

	q := escalation.QuoteSubmission{
		ConversationID: conversationID,
		Category:       sanitize.Text(req.Category),
		Options:        req.Options,
	}
	if req.Total != nil {
		q.Total = *req.Total
	}
	for _, item := range req.LineItems {
		q.LineItems = append(q.LineItems, escalation.LineItem{Name: sanitize.Text(item.Name), Price: item.Price, Quantity: item.Quantity})
	}

	if err := s.submitter.HandleQuoteSubmission(ctx, q); err != nil {
		s.log.Error("quote submission failed", "conversationId", conversationID, "error", err)
		return err
	}
	s.log.Info("quote submitted", "conversationId", conversationID, "total", q.Total)
	return nil
}

func (s *Service) resolveConversation(req transport.SubmitQuoteRequest) (string, error) {
	if req.Token == "" {
		return req.ConversationID, nil
	}
	if s.tokens == nil {
		return "", apperr.BadRequest("calculator link tokens are not accepted")
	}
	id, err := s.tokens.Verify(req.Token)
	if err != nil {
		return "", apperr.Wrap(apperr.KindBadRequest, "invalid calculator link token", err)
	}
	if req.ConversationID != "" && req.ConversationID != id {
		return "", apperr.BadRequest("token does not match conversation")
	}
	return id, nil
}

// Calculate prices the package tiers. Production intents assume the lead
// needs creative unless told otherwise.
func (s *Service) Calculate(req transport.CalculateRequest) transport.CalculateResponse {
	intent := pricing.ParseIntent(req.Intent)
	hasCreative := intent == pricing.IntentProduction || intent == pricing.IntentCombo
	if req.HasCreative != nil {
		hasCreative = *req.HasCreative
	}

	result := pricing.CalculatePackages(intent, pricing.Options{
		Duration:    req.Duration,
		Platforms:   req.Platforms,
		HasCreative: hasCreative,
		VideoLength: req.VideoLength,
	})
	return transport.CalculateResponse{Result: result, Text: pricing.FormatPackages(result)}
}
