package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mityademon-rgb/matveypt-bot/internal/escalation"
	"github.com/mityademon-rgb/matveypt-bot/internal/messaging"
	"github.com/mityademon-rgb/matveypt-bot/internal/session"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
)

// miniAppPayload is the data the calculator and task mini-apps send back.
type miniAppPayload struct {
	Type           string                `json:"type"`
	Intent         string                `json:"intent"`
	Title          string                `json:"title"`
	ConversationID string                `json:"conversationId"`
	Category       string                `json:"category"`
	Options        map[string]any        `json:"options"`
	Total          *float64              `json:"total"`
	LineItems      []escalation.LineItem `json:"lineItems"`
}

func (p miniAppPayload) isQuote() bool {
	return p.Type == "quote" || p.Total != nil || len(p.LineItems) > 0
}

func (e *Engine) handlePayload(t *turn) {
	var p miniAppPayload
	if err := json.Unmarshal(t.ev.Payload, &p); err != nil {
		e.log.Warn("malformed mini-app payload", "conversationId", t.s.ConversationID, "error", err)
		e.send(t, messaging.Outbound{Text: e.copy.PayloadError})
		return
	}

	switch {
	case p.isQuote():
		q := escalation.QuoteSubmission{
			ConversationID: t.s.ConversationID,
			Category:       p.Category,
			Options:        p.Options,
			LineItems:      p.LineItems,
		}
		if p.Total != nil {
			q.Total = *p.Total
		}
		if err := e.escalator.NotifyQuoteSubmission(t.ctx, t.s, q); err != nil {
			e.log.Error("failed to forward quote", "conversationId", t.s.ConversationID, "error", err)
			e.send(t, messaging.Outbound{Text: e.copy.PayloadError})
			return
		}
		e.send(t, messaging.Outbound{Text: e.copy.QuoteReceived})
	case p.Intent != "" || p.Title != "":
		e.selectTask(t, p)
	default:
		e.send(t, messaging.Outbound{Text: e.copy.PayloadError})
	}
}

func (e *Engine) selectTask(t *turn, p miniAppPayload) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = strings.TrimSpace(p.Intent)
	}
	if task, ok := session.ParseTask(p.Intent); ok {
		t.s.Profile.Task = task
	} else if task, ok := session.ParseTask(title); ok {
		t.s.Profile.Task = task
	} else {
		t.s.Profile.TaskNote = title
	}
	e.send(t, messaging.Outbound{Text: fill(e.copy.TaskSelected, title)})
	e.escalator.NotifyTaskSelected(t.ctx, t.s, title)
}

// HandleQuoteSubmission forwards a quote that arrived over HTTP. Quotes
// without a live session are still forwarded, without lead details.
func (e *Engine) HandleQuoteSubmission(ctx context.Context, q escalation.QuoteSubmission) error {
	if q.ConversationID == "" {
		return e.escalator.NotifyQuoteSubmission(ctx, nil, q)
	}
	ctx = logger.ContextWithConversation(ctx, q.ConversationID)

	unlock := e.locks.Lock(q.ConversationID)
	defer unlock()

	s, err := e.repo.Get(ctx, q.ConversationID)
	if errors.Is(err, session.ErrNotFound) {
		return e.escalator.NotifyQuoteSubmission(ctx, nil, q)
	}
	if err != nil {
		return err
	}
	if err := e.escalator.NotifyQuoteSubmission(ctx, s, q); err != nil {
		return err
	}

	t := &turn{ctx: ctx, s: s}
	e.send(t, messaging.Outbound{Text: e.copy.QuoteReceived})
	return e.repo.Save(ctx, s)
}
