package conversation

import (
	"fmt"
	"strings"

	"github.com/mityademon-rgb/matveypt-bot/internal/messaging"
	"github.com/mityademon-rgb/matveypt-bot/internal/session"
)

// handleMenu answers the main reply keyboard. It reports whether text was a
// menu label.
func (e *Engine) handleMenu(t *turn, text string) bool {
	switch text {
	case labelAbout:
		e.sendLink(t, e.copy.About)
	case labelOpportunities:
		e.sendLink(t, e.copy.Opportunities)
	case labelCalculator:
		e.openCalculator(t)
	case labelManager:
		e.send(t, messaging.Outbound{Text: e.copy.Manager.Text, Keyboard: e.managerKeyboard()})
	case labelRestart:
		e.reset(t)
	default:
		return false
	}
	return true
}

func (e *Engine) handleCommand(t *turn, text string) {
	switch commandName(text) {
	case "/start":
		e.start(t)
	case "/menu":
		e.send(t, messaging.Outbound{Text: e.copy.MenuOpened, Keyboard: mainKeyboard()})
	case "/app":
		e.openTaskMenu(t)
	case "/myid":
		e.send(t, messaging.Outbound{Text: fill(e.copy.MyID, t.s.ConversationID), Plain: true})
	case "/brief":
		e.brief(t)
	case "/reset":
		e.reset(t)
	case "/clients":
		e.listClients(t)
	case "/test":
		e.sendTest(t)
	default:
		e.log.Debug("ignored unknown command", "conversationId", t.s.ConversationID, "command", text)
	}
}

// commandName lowercases the command and strips a trailing @botname.
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd := fields[0]
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

// start replaces the session with a fresh one. Dedupe fields carry over.
func (e *Engine) start(t *turn) {
	prev := t.s
	s := session.New(prev.ConversationID, e.now())
	s.CarryDedupe(prev)
	s.Profile.Username = t.ev.Sender.Username
	s.Profile.DisplayName = t.ev.Sender.DisplayName()
	s.Stage = session.StageAwaitingContact
	t.s = s

	e.send(t, messaging.Outbound{Text: e.copy.Greeting, Keyboard: mainKeyboard()})
	e.send(t, messaging.Outbound{Text: e.copy.ContactRequest, Keyboard: e.contactKeyboard()})
}

func (e *Engine) reset(t *turn) {
	if _, err := e.repo.Delete(t.ctx, t.s.ConversationID); err != nil {
		e.log.Error("failed to delete session", "conversationId", t.s.ConversationID, "error", err)
		return
	}
	t.discard = true
	e.send(t, messaging.Outbound{Text: e.copy.ResetDone, Keyboard: &messaging.Keyboard{Remove: true}})
}

func (e *Engine) sendLink(t *turn, link LinkCopy) {
	var kb *messaging.Keyboard
	if link.URL != "" {
		kb = inline(messaging.Row(urlButton(link.Button, link.URL)))
	}
	e.send(t, messaging.Outbound{Text: link.Text, Keyboard: kb})
}

func (e *Engine) openCalculator(t *turn) {
	if !t.s.Profile.ContactCaptured {
		e.send(t, messaging.Outbound{Text: e.copy.CalculatorLocked})
		return
	}
	url := e.calculatorURL(t.s.ConversationID)
	if url == "" {
		e.send(t, messaging.Outbound{Text: e.copy.CalculatorUnavailable, Keyboard: e.managerKeyboard()})
		return
	}
	e.send(t, messaging.Outbound{
		Text:     e.copy.Calculator.Text,
		Keyboard: inline(messaging.Row(messaging.Button{Kind: messaging.ButtonWebApp, Label: e.copy.Calculator.Button, Data: url})),
	})
}

func (e *Engine) openTaskMenu(t *turn) {
	url := e.webAppURL(taskMenuPath)
	if url == "" {
		e.send(t, messaging.Outbound{Text: e.copy.CalculatorUnavailable, Keyboard: e.managerKeyboard()})
		return
	}
	e.send(t, messaging.Outbound{
		Text:     e.copy.TaskMenu.Text,
		Keyboard: inline(messaging.Row(messaging.Button{Kind: messaging.ButtonWebApp, Label: e.copy.TaskMenu.Button, Data: url})),
	})
}

func (e *Engine) listClients(t *turn) {
	if !e.escalator.IsOperator(t.s.ConversationID) {
		e.send(t, messaging.Outbound{Text: e.copy.OperatorOnly})
		return
	}
	sessions, err := e.repo.List(t.ctx)
	if err != nil {
		e.log.Error("failed to list sessions", "error", err)
		return
	}

	var b strings.Builder
	n := 0
	for _, s := range sessions {
		if s.ConversationID == t.s.ConversationID {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d. %s | %s | %s | %s\n", n,
			orDash(s.Profile.DisplayName), orDash(s.Profile.Contact()), orDash(string(s.Profile.Category)), s.Stage)
	}
	if n == 0 {
		e.send(t, messaging.Outbound{Text: e.copy.NoClients})
		return
	}
	e.send(t, messaging.Outbound{Text: fmt.Sprintf("👥 Активные клиенты (%d):\n\n%s", n, b.String()), Plain: true})
}

func (e *Engine) sendTest(t *turn) {
	if !e.escalator.IsOperator(t.s.ConversationID) {
		e.send(t, messaging.Outbound{Text: e.copy.OperatorOnly})
		return
	}
	if err := e.escalator.SendTest(t.ctx, t.s); err != nil {
		e.send(t, messaging.Outbound{Text: e.copy.TestFailed})
		return
	}
	e.send(t, messaging.Outbound{Text: e.copy.TestSent})
}

func formatBrief(s *session.Session) string {
	p := s.Profile
	task := string(p.Task)
	if task == "" {
		task = p.TaskNote
	}
	lines := []string{
		"📋 Бриф",
		"Имя: " + orDash(p.DisplayName),
		"Контакт: " + orDash(p.Contact()),
		"Категория: " + orDash(string(p.Category)),
		"Город: " + orDash(p.City),
		"Задача: " + orDash(task),
		"Сезон: " + orDash(p.Season),
	}
	return strings.Join(lines, "\n")
}

// brief does not create a session: a lead without one is sent to /start.
func (e *Engine) brief(t *turn) {
	if t.fresh {
		t.discard = true
		e.send(t, messaging.Outbound{Text: e.copy.NoSession, Plain: true})
		return
	}
	e.send(t, messaging.Outbound{Text: formatBrief(t.s), Plain: true})
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
