// Package escalation notifies the human operator about leads that need
// attention, schedules the hot-lead reminder and applies the operator's
// "called" and "closed" actions.
package escalation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mityademon-rgb/matveypt-bot/internal/events"
	"github.com/mityademon-rgb/matveypt-bot/internal/messaging"
	"github.com/mityademon-rgb/matveypt-bot/internal/pricing"
	"github.com/mityademon-rgb/matveypt-bot/internal/scheduler"
	"github.com/mityademon-rgb/matveypt-bot/internal/session"
	"github.com/mityademon-rgb/matveypt-bot/platform/apperr"
	"github.com/mityademon-rgb/matveypt-bot/platform/config"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
	"github.com/mityademon-rgb/matveypt-bot/platform/metrics"

	"github.com/google/uuid"
)

const (
	// ExcerptTurns is how many trailing transcript turns an escalation shows.
	ExcerptTurns = 10
	// ExcerptRunes caps each excerpt line.
	ExcerptRunes = 180

	defaultReminderDelay = 15 * time.Minute

	// Callback data prefixes for operator action buttons.
	CalledPrefix = "called:"
	ClosedPrefix = "closed:"

	leadAckText = "Наш менеджер скоро свяжется с вами 😊"
)

// Config is what the controller needs from the process configuration.
type Config interface {
	config.OperatorConfig
	GetReminderDelay() time.Duration
}

// LineItem is one row of a calculator quote.
type LineItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity,omitempty"`
}

// QuoteSubmission is a quote sent from the calculator, over HTTP or the
// mini-app payload.
type QuoteSubmission struct {
	ConversationID string
	Category       string
	Options        map[string]any
	Total          float64
	LineItems      []LineItem
}

// Controller sends operator notifications. Notify methods are called with
// the caller holding the conversation lock and mutate the given session;
// the caller saves it.
type Controller struct {
	repo      session.Repository
	locks     *session.Locks
	messenger messaging.Messenger
	cfg       Config
	log       *logger.Logger

	scheduler scheduler.ReminderScheduler
	bus       events.Publisher
	metrics   *metrics.Recorder
	now       func() time.Time
}

func New(repo session.Repository, locks *session.Locks, messenger messaging.Messenger, cfg Config, log *logger.Logger) *Controller {
	return &Controller{
		repo:      repo,
		locks:     locks,
		messenger: messenger,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// SetScheduler wires the reminder scheduler. Without one no reminders are sent.
func (c *Controller) SetScheduler(s scheduler.ReminderScheduler) { c.scheduler = s }

// SetBus wires the event bus used for mirrors and closed-deal events.
func (c *Controller) SetBus(bus events.Publisher) { c.bus = bus }

func (c *Controller) SetMetrics(m *metrics.Recorder) { c.metrics = m }

// SetClock overrides time.Now.
func (c *Controller) SetClock(now func() time.Time) { c.now = now }

// RegisterHandlers subscribes to reminder events.
func (c *Controller) RegisterHandlers(bus events.Subscriber) {
	bus.Subscribe(events.ReminderDue{}.EventName(), events.HandlerFunc(c.HandleReminderDue))
}

// OperatorChatID returns the configured operator conversation.
func (c *Controller) OperatorChatID() string {
	if c.cfg == nil {
		return ""
	}
	return c.cfg.GetOperatorChatID()
}

// IsOperator reports whether conversationID is the operator's chat.
func (c *Controller) IsOperator(conversationID string) bool {
	id := c.OperatorChatID()
	return id != "" && id == conversationID
}

// NotifyContact reports a newly captured contact.
func (c *Controller) NotifyContact(ctx context.Context, s *session.Session) {
	v := c.viewOf(s)
	v.Header = "📞 НОВЫЙ КОНТАКТ"
	c.deliver(ctx, events.TriggerContactCaptured, s.ConversationID, v, render(contactTpl, v), nil)
}

// NotifyLowConfidence escalates a conversation the classifier could not handle.
func (c *Controller) NotifyLowConfidence(ctx context.Context, s *session.Session) {
	v := c.viewOf(s)
	v.Header = "🔔 ЭСКАЛАЦИЯ"
	v.Dialog = excerpt(s.Transcript)
	msgID, ok := c.deliver(ctx, events.TriggerLowConfidence, s.ConversationID, v, render(escalationTpl, v), actionKeyboard(s.ConversationID, v.Link))
	c.markNotified(s, msgID, ok)
}

// NotifyHotLead reports a lead that was offered the calculator and schedules
// the follow-up reminder.
func (c *Controller) NotifyHotLead(ctx context.Context, s *session.Session) {
	v := c.viewOf(s)
	v.Header = "🔥 ГОРЯЧИЙ ЛИД — открыл калькулятор"
	v.Dialog = excerpt(s.Transcript)
	msgID, ok := c.deliver(ctx, events.TriggerHotLead, s.ConversationID, v, render(escalationTpl, v), actionKeyboard(s.ConversationID, v.Link))
	c.markNotified(s, msgID, ok)
	if !ok {
		return
	}
	c.scheduleReminder(ctx, s)
}

// NotifyTaskSelected tells the operator which task the lead picked in the
// mini-app.
func (c *Controller) NotifyTaskSelected(ctx context.Context, s *session.Session, title string) {
	v := c.viewOf(s)
	v.Header = "🎯 Клиент выбрал"
	v.TaskTitle = title
	c.deliver(ctx, events.TriggerTaskSelected, s.ConversationID, v, render(taskTpl, v), nil)
}

// NotifyQuoteSubmission forwards a calculator quote. s may be nil when the
// quote cannot be tied to a live session.
func (c *Controller) NotifyQuoteSubmission(ctx context.Context, s *session.Session, q QuoteSubmission) error {
	if !c.operatorConfigured() {
		return apperr.NotConfigured("operator chat is not configured")
	}
	if s == nil {
		s = session.New(q.ConversationID, c.now())
	}
	v := c.viewOf(s)
	v.Header = "💰 ЗАЯВКА ИЗ КАЛЬКУЛЯТОРА"
	v.QuoteCategory = q.Category
	v.Total = pricing.FormatRUB(int64(math.Round(q.Total)))
	v.LineItems = formatLineItems(q.LineItems)
	v.Options = formatOptions(q.Options)

	var kb *messaging.Keyboard
	if s.ConversationID != "" {
		kb = actionKeyboard(s.ConversationID, v.Link)
	}
	msgID, ok := c.deliver(ctx, events.TriggerQuoteSubmitted, s.ConversationID, v, render(quoteTpl, v), kb)
	if !ok {
		return apperr.Unavailable("operator notification failed", nil)
	}
	if s.ConversationID != "" {
		c.markNotified(s, msgID, ok)
		now := c.now()
		s.QuoteSubmittedAt = &now
	}
	c.metrics.QuoteSubmitted()
	return nil
}

// SendTest sends a test notification on behalf of s.
func (c *Controller) SendTest(ctx context.Context, s *session.Session) error {
	if !c.operatorConfigured() {
		return apperr.NotConfigured("operator chat is not configured")
	}
	v := c.viewOf(s)
	v.Header = "🧪 ТЕСТОВОЕ УВЕДОМЛЕНИЕ"
	if _, ok := c.deliver(ctx, events.TriggerTest, s.ConversationID, v, render(testTpl, v), nil); !ok {
		return apperr.Unavailable("operator notification failed", nil)
	}
	return nil
}

// HandleReminderDue sends the hot-lead reminder unless the operator already
// reacted, the session is gone or the reminder was superseded.
func (c *Controller) HandleReminderDue(ctx context.Context, event events.Event) error {
	due, ok := event.(events.ReminderDue)
	if !ok {
		return nil
	}
	unlock := c.locks.Lock(due.ConversationID)
	defer unlock()

	s, err := c.repo.Get(ctx, due.ConversationID)
	if errors.Is(err, session.ErrNotFound) {
		c.metrics.Reminder("session_gone")
		return nil
	}
	if err != nil {
		return err
	}
	switch {
	case s.ReminderID == "" || s.ReminderID != due.ReminderID:
		c.metrics.Reminder("stale")
		return nil
	case s.Profile.OperatorAcknowledged:
		c.metrics.Reminder("acknowledged")
		return nil
	}

	v := c.viewOf(s)
	v.Header = "⏰ НАПОМИНАНИЕ!"
	v.Minutes = int(math.Round(c.reminderDelay().Minutes()))
	msgID, sent := c.deliver(ctx, events.TriggerReminder, s.ConversationID, v, render(reminderTpl, v), actionKeyboard(s.ConversationID, v.Link))
	if sent && msgID != 0 {
		s.OperatorMessageID = msgID
	}
	s.ReminderID = ""
	c.metrics.Reminder("sent")
	return c.repo.Save(ctx, s)
}

// HandleOperatorAction applies an operator button press. It takes the lock
// of the target conversation, not of the operator chat.
func (c *Controller) HandleOperatorAction(ctx context.Context, ev messaging.Event) {
	target := ev.Action.Target
	unlock := c.locks.Lock(target)
	defer unlock()

	switch ev.Action.Kind {
	case messaging.ActionCalled:
		c.markCalled(ctx, ev, target)
	case messaging.ActionClosed:
		c.markClosed(ctx, ev, target)
	default:
		c.answer(ctx, ev.CallbackID, "")
	}
}

func (c *Controller) markCalled(ctx context.Context, ev messaging.Event, target string) {
	s, err := c.repo.Get(ctx, target)
	if err != nil {
		c.answer(ctx, ev.CallbackID, "❌ Сессия не найдена")
		return
	}
	if s.Profile.OperatorAcknowledged {
		c.answer(ctx, ev.CallbackID, "Уже отмечено")
		return
	}

	s.Profile.OperatorAcknowledged = true
	c.cancelReminder(ctx, s)
	if err := c.repo.Save(ctx, s); err != nil {
		c.log.Error("failed to save acknowledged session", "conversationId", target, "error", err)
	}

	c.answer(ctx, ev.CallbackID, "✅ Отмечено!")
	c.editOperatorMessage(ctx, ev, "✅ МЕНЕДЖЕР ПОЗВОНИЛ")
	if _, err := c.messenger.SendText(ctx, target, messaging.Outbound{Text: leadAckText}); err != nil {
		c.log.TransportError("send_text", target, err)
	}
	c.log.Info("operator marked lead as called", "conversationId", target)
}

func (c *Controller) markClosed(ctx context.Context, ev messaging.Event, target string) {
	s, err := c.repo.Get(ctx, target)
	if err != nil {
		c.answer(ctx, ev.CallbackID, "❌ Сессия не найдена")
		return
	}
	c.cancelReminder(ctx, s)
	if _, err := c.repo.Delete(ctx, target); err != nil {
		c.log.Error("failed to delete closed session", "conversationId", target, "error", err)
	}

	summary := Summary(s)
	c.log.Info("deal closed", "conversationId", target, "brief", summary)
	if c.bus != nil {
		c.bus.Publish(ctx, events.SessionClosed{
			BaseEvent:      events.NewBaseEventAt(c.now()),
			ConversationID: target,
			Summary:        summary,
		})
	}

	c.answer(ctx, ev.CallbackID, "🎉 Сделка закрыта!")
	c.editOperatorMessage(ctx, ev, "🎉 СДЕЛКА ЗАКРЫТА!")
}

// Summary renders the brief for logs and the /clients listing.
func Summary(s *session.Session) string {
	p := s.Profile
	parts := []string{
		"name=" + p.DisplayName,
		"contact=" + p.Contact(),
		"category=" + string(p.Category),
		"city=" + p.City,
		"task=" + string(p.Task),
		"season=" + p.Season,
		fmt.Sprintf("quoteShown=%t", p.QuoteShown),
	}
	return strings.Join(parts, " ")
}

func (c *Controller) editOperatorMessage(ctx context.Context, ev messaging.Event, mark string) {
	if ev.MessageID == 0 {
		return
	}
	text := strings.TrimSpace(ev.Text + "\n\n" + mark + "\n⏰ " + c.now().Format("15:04:05"))
	if err := c.messenger.EditText(ctx, ev.ConversationID, ev.MessageID, text); err != nil {
		c.log.TransportError("edit_text", ev.ConversationID, err)
	}
}

func (c *Controller) answer(ctx context.Context, callbackID, text string) {
	if callbackID == "" {
		return
	}
	if err := c.messenger.AnswerCallback(ctx, callbackID, text); err != nil {
		c.log.TransportError("answer_callback", "", err)
	}
}

func (c *Controller) scheduleReminder(ctx context.Context, s *session.Session) {
	if c.scheduler == nil || s.NotifiedAt == nil {
		return
	}
	c.cancelReminder(ctx, s)

	reminderID := uuid.NewString()
	runAt := s.NotifiedAt.Add(c.reminderDelay())
	payload := scheduler.ReminderPayload{ConversationID: s.ConversationID, ReminderID: reminderID}
	if err := c.scheduler.ScheduleReminder(ctx, payload, runAt); err != nil {
		c.log.Error("failed to schedule operator reminder", "conversationId", s.ConversationID, "error", err)
		return
	}
	s.ReminderID = reminderID
}

func (c *Controller) cancelReminder(ctx context.Context, s *session.Session) {
	if s.ReminderID == "" {
		return
	}
	if c.scheduler != nil {
		if err := c.scheduler.CancelReminder(ctx, s.ReminderID); err != nil {
			c.log.Warn("failed to cancel operator reminder", "conversationId", s.ConversationID, "error", err)
		}
	}
	s.ReminderID = ""
}

func (c *Controller) reminderDelay() time.Duration {
	if c.cfg != nil && c.cfg.GetReminderDelay() > 0 {
		return c.cfg.GetReminderDelay()
	}
	return defaultReminderDelay
}

func (c *Controller) operatorConfigured() bool {
	return c.cfg != nil && c.cfg.IsOperatorConfigured()
}

func (c *Controller) markNotified(s *session.Session, msgID int64, ok bool) {
	if !ok {
		return
	}
	now := c.now()
	s.NotifiedAt = &now
	if msgID != 0 {
		s.OperatorMessageID = msgID
	}
}

// deliver sends text to the operator. On failure it makes one plain attempt
// without a keyboard and gives up after that.
func (c *Controller) deliver(ctx context.Context, trigger events.Trigger, conversationID string, v view, text string, kb *messaging.Keyboard) (int64, bool) {
	if !c.operatorConfigured() {
		c.log.Warn("operator not configured, notification dropped", "trigger", trigger, "conversationId", conversationID)
		return 0, false
	}
	chatID := c.cfg.GetOperatorChatID()

	msgID, err := c.messenger.SendText(ctx, chatID, messaging.Outbound{Text: text, Keyboard: kb, Plain: true})
	if err != nil {
		c.log.TransportError("operator_notify", chatID, err)
		msgID, err = c.messenger.SendText(ctx, chatID, messaging.Outbound{Text: render(fallbackTpl, v), Plain: true})
		if err != nil {
			c.log.TransportError("operator_notify_fallback", chatID, err)
			c.metrics.Notification(string(trigger), false)
			return 0, false
		}
	}
	c.metrics.Notification(string(trigger), true)

	if c.bus != nil {
		c.bus.Publish(ctx, events.OperatorNotified{
			BaseEvent:      events.NewBaseEventAt(c.now()),
			ConversationID: conversationID,
			Trigger:        trigger,
			Subject:        v.Header,
			Text:           text,
		})
	}
	return msgID, true
}

// view is the template data for every operator message.
type view struct {
	Header         string
	ConversationID string
	Name           string
	Phone          string
	Email          string
	Username       string
	Category       string
	City           string
	Task           string
	Season         string
	Link           string
	Dialog         []dialogLine
	Minutes        int
	Time           string
	TaskTitle      string
	QuoteCategory  string
	LineItems      []string
	Options        []string
	Total          string
}

type dialogLine struct {
	Icon string
	Text string
}

func (c *Controller) viewOf(s *session.Session) view {
	p := s.Profile
	task := string(p.Task)
	if task == "" {
		task = p.TaskNote
	}
	return view{
		ConversationID: s.ConversationID,
		Name:           p.DisplayName,
		Phone:          p.Phone,
		Email:          p.Email,
		Username:       p.Username,
		Category:       string(p.Category),
		City:           p.City,
		Task:           task,
		Season:         p.Season,
		Link:           ClientLink(s.ConversationID, p.Username),
		Time:           c.now().Format("15:04:05"),
	}
}

// ClientLink is a deep link that opens a chat with the lead.
func ClientLink(conversationID, username string) string {
	switch {
	case username != "":
		return "https://t.me/" + username
	case conversationID != "":
		return "tg://user?id=" + conversationID
	default:
		return "—"
	}
}

func actionKeyboard(conversationID, link string) *messaging.Keyboard {
	return &messaging.Keyboard{
		Inline: true,
		Rows: [][]messaging.Button{
			messaging.Row(messaging.Button{Kind: messaging.ButtonURL, Label: "💬 Написать клиенту", Data: link}),
			messaging.Row(
				messaging.Button{Kind: messaging.ButtonCallback, Label: "✅ Позвонил", Data: CalledPrefix + conversationID},
				messaging.Button{Kind: messaging.ButtonCallback, Label: "🎉 Сделка закрыта", Data: ClosedPrefix + conversationID},
			),
		},
	}
}

// ParseAction decodes operator callback data such as "called:123".
func ParseAction(data string) (messaging.OperatorAction, bool) {
	switch {
	case strings.HasPrefix(data, CalledPrefix) && len(data) > len(CalledPrefix):
		return messaging.OperatorAction{Kind: messaging.ActionCalled, Target: strings.TrimPrefix(data, CalledPrefix)}, true
	case strings.HasPrefix(data, ClosedPrefix) && len(data) > len(ClosedPrefix):
		return messaging.OperatorAction{Kind: messaging.ActionClosed, Target: strings.TrimPrefix(data, ClosedPrefix)}, true
	default:
		return messaging.OperatorAction{}, false
	}
}

func excerpt(turns []session.Turn) []dialogLine {
	if len(turns) > ExcerptTurns {
		turns = turns[len(turns)-ExcerptTurns:]
	}
	lines := make([]dialogLine, 0, len(turns))
	for _, t := range turns {
		icon := "👤"
		if t.Role == session.RoleAssistant {
			icon = "🤖"
		}
		lines = append(lines, dialogLine{Icon: icon, Text: truncate(t.Text, ExcerptRunes)})
	}
	return lines
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

func formatLineItems(items []LineItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		line := name
		if item.Quantity > 1 {
			line += fmt.Sprintf(" ×%d", item.Quantity)
		}
		if item.Price > 0 {
			line += " — " + pricing.FormatRUB(int64(math.Round(item.Price)))
		}
		out = append(out, line)
	}
	return out
}

func formatOptions(opts map[string]any) []string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s: %v", k, opts[k]))
	}
	return out
}
