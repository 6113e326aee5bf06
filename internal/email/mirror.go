package email

import (
	"context"
	"fmt"

	"github.com/mityademon-rgb/matveypt-bot/internal/events"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
)

// Mirror copies operator notifications to e-mail. Failures are logged and
// never reach the chat flow.
type Mirror struct {
	sender Sender
	to     string
	log    *logger.Logger
}

func NewMirror(sender Sender, to string, log *logger.Logger) *Mirror {
	return &Mirror{sender: sender, to: to, log: log}
}

// RegisterHandlers subscribes the mirror to operator notifications and to
// closed deals, whose brief is mailed as an archive copy.
func (m *Mirror) RegisterHandlers(bus events.Subscriber) {
	bus.Subscribe(events.OperatorNotified{}.EventName(), events.HandlerFunc(m.handle))
	bus.Subscribe(events.SessionClosed{}.EventName(), events.HandlerFunc(m.handleClosed))
}

func (m *Mirror) handleClosed(ctx context.Context, event events.Event) error {
	e, ok := event.(events.SessionClosed)
	if !ok {
		return fmt.Errorf("email mirror: unexpected event %T", event)
	}
	if m.sender == nil || m.to == "" {
		return nil
	}

	if err := m.sender.SendOperatorNotification(ctx, m.to, subjectClosed, e.Summary); err != nil {
		m.log.Warn("closed deal e-mail failed", "conversationId", e.ConversationID, "error", err)
		return err
	}
	return nil
}

func (m *Mirror) handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.OperatorNotified)
	if !ok {
		return fmt.Errorf("email mirror: unexpected event %T", event)
	}
	if m.sender == nil || m.to == "" {
		return nil
	}

	subject := subjectFor(e.Trigger, e.Subject)
	if err := m.sender.SendOperatorNotification(ctx, m.to, subject, e.Text); err != nil {
		m.log.Warn("operator e-mail mirror failed", "conversationId", e.ConversationID, "trigger", e.Trigger, "error", err)
		return err
	}
	m.log.Info("operator notification mirrored to e-mail", "conversationId", e.ConversationID, "trigger", e.Trigger)
	return nil
}
