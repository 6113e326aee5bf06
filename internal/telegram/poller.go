package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/mityademon-rgb/matveypt-bot/internal/escalation"
	"github.com/mityademon-rgb/matveypt-bot/internal/messaging"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// UpdateSource is the long-poll side of the Bot API.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Handler consumes one inbound event. It must not return before the event
// is fully processed; the poller relies on that for ordering.
type Handler func(ctx context.Context, ev messaging.Event)

// Poller feeds updates to a Handler one at a time, in order.
type Poller struct {
	source  UpdateSource
	handle  Handler
	timeout time.Duration
	log     *logger.Logger
	offset  int64
}

func NewPoller(source UpdateSource, handle Handler, timeout time.Duration, log *logger.Logger) *Poller {
	return &Poller{source: source, handle: handle, timeout: timeout, log: log}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("telegram poller started", "timeout", p.timeout.String())
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			p.log.Info("telegram poller stopped")
			return nil
		}

		updates, err := p.source.GetUpdates(ctx, p.offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			wait := backoff
			if ra := retryAfter(err); ra > 0 {
				wait = ra
			}
			p.log.Warn("getUpdates failed", "error", err, "retryIn", wait.String())
			if !sleep(ctx, wait) {
				continue
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff

		for _, u := range updates {
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			ev, ok := ToEvent(u)
			if !ok {
				continue
			}
			p.handle(ctx, ev)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// ToEvent maps an update to an inbound event. Updates the bot does not act
// on are reported as not ok.
func ToEvent(u Update) (messaging.Event, bool) {
	id := strconv.FormatInt(u.UpdateID, 10)

	if cq := u.CallbackQuery; cq != nil {
		ev := messaging.Event{
			ID:         id,
			Sender:     senderOf(&cq.From),
			CallbackID: cq.ID,
			Data:       cq.Data,
		}
		ev.ConversationID = strconv.FormatInt(cq.From.ID, 10)
		if cq.Message != nil {
			ev.ConversationID = strconv.FormatInt(cq.Message.Chat.ID, 10)
			ev.MessageID = cq.Message.MessageID
			ev.Text = cq.Message.Text
			ev.ReceivedAt = time.Unix(cq.Message.Date, 0)
		}
		if action, ok := escalation.ParseAction(cq.Data); ok {
			ev.Kind = messaging.KindOperatorAction
			ev.Action = action
		} else {
			ev.Kind = messaging.KindButton
		}
		return ev, true
	}

	m := u.Message
	if m == nil {
		return messaging.Event{}, false
	}
	ev := messaging.Event{
		ID:             id,
		ConversationID: strconv.FormatInt(m.Chat.ID, 10),
		Sender:         senderOf(m.From),
		MessageID:      m.MessageID,
		ReceivedAt:     time.Unix(m.Date, 0),
	}
	switch {
	case m.WebAppData != nil:
		ev.Kind = messaging.KindPayload
		ev.Payload = []byte(m.WebAppData.Data)
	case m.Contact != nil:
		ev.Kind = messaging.KindContact
		ev.Contact = messaging.Contact{
			Phone:       m.Contact.PhoneNumber,
			DisplayName: strings.TrimSpace(m.Contact.FirstName + " " + m.Contact.LastName),
		}
		if m.Contact.UserID != 0 {
			ev.Contact.UserID = strconv.FormatInt(m.Contact.UserID, 10)
		}
	case m.Text != "":
		ev.Kind = messaging.KindText
		ev.Text = m.Text
	default:
		return messaging.Event{}, false
	}
	return ev, true
}

func senderOf(u *User) messaging.Sender {
	if u == nil {
		return messaging.Sender{}
	}
	return messaging.Sender{
		UserID:    strconv.FormatInt(u.ID, 10),
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
