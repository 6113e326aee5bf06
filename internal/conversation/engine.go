// Package conversation is the per-conversation state machine: it maps each
// inbound event to outbound messages, a new session state and, when needed,
// an operator escalation.
package conversation

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/mityademon-rgb/matveypt-bot/internal/classifier"
	"github.com/mityademon-rgb/matveypt-bot/internal/escalation"
	"github.com/mityademon-rgb/matveypt-bot/internal/messaging"
	"github.com/mityademon-rgb/matveypt-bot/internal/session"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
	"github.com/mityademon-rgb/matveypt-bot/platform/metrics"
)

const (
	// MaxTurns is how many classifier exchanges a conversation gets before
	// the lead is pushed to a fixed choice.
	MaxTurns = 6
	// LowConfidence is the score under which a reply is handed to the operator.
	LowConfidence = 0.3
	// DedupeWindow collapses identical inbound text arriving this close together.
	DedupeWindow = 12 * time.Second
	// VisualCooldown is the minimum gap between two illustrations.
	VisualCooldown = 90 * time.Second
)

// Classifier produces the structured reply for a chat turn. It never fails.
type Classifier interface {
	Classify(ctx context.Context, req classifier.Request) classifier.Reply
}

// Escalator notifies the operator. Notify methods mutate the session they
// are given; the engine saves it afterwards.
type Escalator interface {
	NotifyContact(ctx context.Context, s *session.Session)
	NotifyLowConfidence(ctx context.Context, s *session.Session)
	NotifyHotLead(ctx context.Context, s *session.Session)
	NotifyTaskSelected(ctx context.Context, s *session.Session, title string)
	NotifyQuoteSubmission(ctx context.Context, s *session.Session, q escalation.QuoteSubmission) error
	SendTest(ctx context.Context, s *session.Session) error
	HandleOperatorAction(ctx context.Context, ev messaging.Event)
	IsOperator(conversationID string) bool
}

// CalculatorLinker builds the calculator mini-app URL for a conversation.
type CalculatorLinker interface {
	CalculatorURL(conversationID string) string
}

// Config is the configuration the engine reads.
type Config interface {
	GetOperatorUsername() string
	GetWebAppURL() string
}

type Engine struct {
	repo       session.Repository
	locks      *session.Locks
	messenger  messaging.Messenger
	classifier Classifier
	escalator  Escalator
	cfg        Config
	log        *logger.Logger

	linker  CalculatorLinker
	metrics *metrics.Recorder
	copy    *Copy
	now     func() time.Time
}

func New(repo session.Repository, locks *session.Locks, messenger messaging.Messenger, cls Classifier, esc Escalator, cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		repo:       repo,
		locks:      locks,
		messenger:  messenger,
		classifier: cls,
		escalator:  esc,
		cfg:        cfg,
		log:        log,
		copy:       DefaultCopy(),
		now:        time.Now,
	}
}

func (e *Engine) SetLinker(l CalculatorLinker)    { e.linker = l }
func (e *Engine) SetMetrics(m *metrics.Recorder) { e.metrics = m }
func (e *Engine) SetClock(now func() time.Time)   { e.now = now }

// SetCopy replaces the embedded copy catalog.
func (e *Engine) SetCopy(c *Copy) {
	if c != nil {
		e.copy = c
	}
}

// turn is the working state of one inbound event.
type turn struct {
	ctx context.Context
	ev  messaging.Event
	s   *session.Session
	// fresh is set when the session was created for this event.
	fresh bool
	// discard skips the final save.
	discard bool
}

// Handle processes one inbound event. It never panics and never returns an
// error: failures are logged and the lead gets an apology.
func (e *Engine) Handle(ctx context.Context, ev messaging.Event) {
	if ev.ConversationID == "" {
		return
	}
	e.metrics.Inbound(string(ev.Kind))
	ctx = logger.ContextWithConversation(ctx, ev.ConversationID)

	if ev.Kind == messaging.KindOperatorAction {
		e.handleOperatorAction(ctx, ev)
		return
	}

	unlock := e.locks.Lock(ev.ConversationID)
	defer unlock()
	defer e.recoverPanic(ctx, ev)

	t, err := e.load(ctx, ev)
	if err != nil {
		e.log.Error("failed to load session", "conversationId", ev.ConversationID, "error", err)
		return
	}
	if reason := duplicateReason(t.s, ev, e.now()); reason != "" {
		e.metrics.Duplicate(reason)
		e.log.Debug("dropped duplicate inbound event", "conversationId", ev.ConversationID, "reason", reason)
		return
	}
	recordInbound(t.s, ev, e.now())

	e.dispatch(t)

	if t.discard {
		return
	}
	if err := e.repo.Save(ctx, t.s); err != nil {
		e.log.Error("failed to save session", "conversationId", ev.ConversationID, "error", err)
	}
}

// recoverPanic leaves the stored session as it was before the event.
func (e *Engine) recoverPanic(ctx context.Context, ev messaging.Event) {
	r := recover()
	if r == nil {
		return
	}
	e.log.Error("panic while handling event",
		"conversationId", ev.ConversationID,
		"kind", ev.Kind,
		"panic", r,
		"stack", string(debug.Stack()),
	)
	msg := messaging.Outbound{Text: e.copy.Apology, Keyboard: e.managerKeyboard()}
	if _, err := e.messenger.SendText(ctx, ev.ConversationID, msg); err != nil {
		e.log.TransportError("send_text", ev.ConversationID, err)
	}
}

func (e *Engine) load(ctx context.Context, ev messaging.Event) (*turn, error) {
	s, err := e.repo.Get(ctx, ev.ConversationID)
	fresh := false
	if errors.Is(err, session.ErrNotFound) {
		s = session.New(ev.ConversationID, e.now())
		fresh, err = true, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Profile.Username == "" {
		s.Profile.Username = ev.Sender.Username
	}
	if s.Profile.DisplayName == "" {
		s.Profile.DisplayName = ev.Sender.DisplayName()
	}
	return &turn{ctx: ctx, ev: ev, s: s, fresh: fresh}, nil
}

func (e *Engine) dispatch(t *turn) {
	switch t.ev.Kind {
	case messaging.KindContact:
		e.handleContact(t)
	case messaging.KindPayload:
		e.handlePayload(t)
	case messaging.KindButton:
		e.answerCallback(t.ctx, t.ev.CallbackID, "")
		e.handleButton(t)
	case messaging.KindText:
		text := strings.TrimSpace(t.ev.Text)
		if text == "" {
			return
		}
		if strings.HasPrefix(text, "/") {
			e.handleCommand(t, text)
			return
		}
		if e.handleMenu(t, text) {
			return
		}
		e.handleStage(t, textInput(text))
	}
}

func (e *Engine) handleOperatorAction(ctx context.Context, ev messaging.Event) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("panic while handling operator action", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	if !e.escalator.IsOperator(ev.ConversationID) {
		e.answerCallback(ctx, ev.CallbackID, e.copy.OperatorOnly)
		return
	}
	e.escalator.HandleOperatorAction(ctx, ev)
}

func (e *Engine) handleButton(t *turn) {
	data := t.ev.Data
	if c, ok := categoryFromCallback(data); ok {
		e.handleStage(t, input{category: c, hasCategory: true})
		return
	}
	if tok := tokenFromCallback(data); tok != TokenNone {
		e.handleStage(t, input{token: tok})
		return
	}
	e.log.Debug("ignored unknown callback", "conversationId", t.s.ConversationID, "data", data)
}

// send delivers a message to the lead and records it for the opener
// rewrite. Failures are logged and not retried.
func (e *Engine) send(t *turn, msg messaging.Outbound) {
	if _, err := e.messenger.SendText(t.ctx, t.s.ConversationID, msg); err != nil {
		e.log.TransportError("send_text", t.s.ConversationID, err)
		return
	}
	t.s.LastOutboundText = msg.Text
	t.s.LastOutboundAt = e.now()
}

func (e *Engine) answerCallback(ctx context.Context, callbackID, text string) {
	if callbackID == "" {
		return
	}
	if err := e.messenger.AnswerCallback(ctx, callbackID, text); err != nil {
		e.log.TransportError("answer_callback", "", err)
	}
}

// duplicateReason returns why ev should be dropped, or "".
func duplicateReason(s *session.Session, ev messaging.Event, now time.Time) string {
	if ev.ID != "" && ev.ID == s.LastInboundEventID {
		return "event_id"
	}
	key := dedupeKey(ev)
	if key == "" || key != s.LastInboundText || s.LastInboundAt.IsZero() {
		return ""
	}
	if now.Sub(s.LastInboundAt) < DedupeWindow {
		return "repeated_text"
	}
	return ""
}

func recordInbound(s *session.Session, ev messaging.Event, now time.Time) {
	if ev.ID != "" {
		s.LastInboundEventID = ev.ID
	}
	s.LastInboundText = dedupeKey(ev)
	s.LastInboundAt = now
}

func dedupeKey(ev messaging.Event) string {
	switch ev.Kind {
	case messaging.KindText:
		return Normalize(ev.Text)
	case messaging.KindButton:
		return "button:" + ev.Data
	default:
		return ""
	}
}
