package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/mityademon-rgb/matveypt-bot/internal/events"
)

// Local schedules reminders with in-process timers. Pending reminders are
// lost on restart, like the sessions they refer to.
type Local struct {
	bus events.Publisher
	now func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewLocal(bus events.Publisher, now func() time.Time) *Local {
	if now == nil {
		now = time.Now
	}
	return &Local{bus: bus, now: now, timers: make(map[string]*time.Timer)}
}

func (l *Local) ScheduleReminder(_ context.Context, payload ReminderPayload, runAt time.Time) error {
	delay := runAt.Sub(l.now())
	if delay < 0 {
		delay = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.timers[payload.ReminderID]; ok {
		old.Stop()
	}
	l.timers[payload.ReminderID] = time.AfterFunc(delay, func() {
		l.fire(payload)
	})
	return nil
}

func (l *Local) CancelReminder(_ context.Context, reminderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.timers[reminderID]; ok {
		t.Stop()
		delete(l.timers, reminderID)
	}
	return nil
}

// Pending reports how many reminders are waiting.
func (l *Local) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// Stop cancels every pending reminder.
func (l *Local) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, t := range l.timers {
		t.Stop()
		delete(l.timers, id)
	}
}

func (l *Local) fire(payload ReminderPayload) {
	l.mu.Lock()
	_, pending := l.timers[payload.ReminderID]
	delete(l.timers, payload.ReminderID)
	l.mu.Unlock()
	if !pending || l.bus == nil {
		return
	}

	l.bus.Publish(context.Background(), events.ReminderDue{
		BaseEvent:      events.NewBaseEventAt(l.now()),
		ConversationID: payload.ConversationID,
		ReminderID:     payload.ReminderID,
	})
}
