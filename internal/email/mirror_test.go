package email

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mityademon-rgb/matveypt-bot/internal/events"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
)

type fakeSender struct {
	to, subject, text string
	calls             int
	err               error
}

func (f *fakeSender) SendOperatorNotification(_ context.Context, to, subject, text string) error {
	f.calls++
	f.to, f.subject, f.text = to, subject, text
	return f.err
}

func TestMirror_ForwardsOperatorNotification(t *testing.T) {
	log := logger.NewWithWriter("test", io.Discard)
	bus := events.NewInMemoryBus(log)
	sender := &fakeSender{}
	NewMirror(sender, "ops@example.com", log).RegisterHandlers(bus)

	err := bus.PublishSync(context.Background(), events.OperatorNotified{
		ConversationID: "42",
		Trigger:        events.TriggerHotLead,
		Text:           "🔥 ГОРЯЧИЙ ЛИД\nИмя: Анна",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sender.calls != 1 || sender.to != "ops@example.com" {
		t.Fatalf("expected one mail to ops@example.com, got %d to %q", sender.calls, sender.to)
	}
	if sender.subject != "Горячий лид" {
		t.Fatalf("expected hot lead subject, got %q", sender.subject)
	}
}

func TestMirror_ReportsSendFailure(t *testing.T) {
	log := logger.NewWithWriter("test", io.Discard)
	bus := events.NewInMemoryBus(log)
	sender := &fakeSender{err: errors.New("smtp down")}
	NewMirror(sender, "ops@example.com", log).RegisterHandlers(bus)

	err := bus.PublishSync(context.Background(), events.OperatorNotified{Trigger: events.TriggerTest, Subject: "Проверка", Text: "x"})
	if err == nil {
		t.Fatalf("expected send failure to be reported")
	}
	if sender.subject != "Проверка" {
		t.Fatalf("expected explicit subject to win, got %q", sender.subject)
	}
}

func TestRenderNotificationEscapesText(t *testing.T) {
	html, err := renderEmailTemplate("notification.html", notificationEmailData{
		baseEmailData: baseEmailData{Title: "Горячий лид", Heading: "Горячий лид"},
		Lines:         splitLines("Имя: <b>Анна</b>\n\nГород: Казань"),
	})
	if err != nil {
		t.Fatalf("expected template to render, got %v", err)
	}
	if strings.Contains(html, "<b>Анна</b>") {
		t.Fatalf("expected lead text to be escaped")
	}
	if !strings.Contains(html, "Город: Казань") || !strings.Contains(html, "&nbsp;") {
		t.Fatalf("expected all lines rendered, got %s", html)
	}
}

func TestMirror_MailsClosedDealBrief(t *testing.T) {
	log := logger.NewWithWriter("test", io.Discard)
	bus := events.NewInMemoryBus(log)
	sender := &fakeSender{}
	NewMirror(sender, "ops@example.com", log).RegisterHandlers(bus)

	err := bus.PublishSync(context.Background(), events.SessionClosed{ConversationID: "42", Summary: "Анна, отель, Казань"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sender.subject != "Сделка закрыта" || sender.text != "Анна, отель, Казань" {
		t.Fatalf("unexpected closed-deal mail: subject=%q text=%q", sender.subject, sender.text)
	}
}
