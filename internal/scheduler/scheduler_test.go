package scheduler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/mityademon-rgb/matveypt-bot/internal/events"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type schedulerConfig struct {
	redisURL string
	queue    string
}

func (c schedulerConfig) GetRedisURL() string              { return c.redisURL }
func (c schedulerConfig) GetRedisTLSInsecure() bool        { return false }
func (c schedulerConfig) GetAsynqQueueName() string        { return c.queue }
func (c schedulerConfig) GetAsynqConcurrency() int         { return 1 }
func (c schedulerConfig) GetReminderDelay() time.Duration { return 15 * time.Minute }

func subscribeReminders(bus *events.InMemoryBus) <-chan events.ReminderDue {
	ch := make(chan events.ReminderDue, 4)
	bus.Subscribe(events.ReminderDue{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		ch <- e.(events.ReminderDue)
		return nil
	}))
	return ch
}

func TestLocal_FiresReminder(t *testing.T) {
	bus := events.NewInMemoryBus(logger.NewWithWriter("test", io.Discard))
	due := subscribeReminders(bus)
	local := NewLocal(bus, nil)

	err := local.ScheduleReminder(context.Background(), ReminderPayload{ConversationID: "42", ReminderID: "r1"}, time.Now().Add(10*time.Millisecond))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	select {
	case e := <-due:
		if e.ConversationID != "42" || e.ReminderID != "r1" {
			t.Fatalf("unexpected reminder %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected reminder to fire")
	}
	if local.Pending() != 0 {
		t.Fatalf("expected no pending reminders, got %d", local.Pending())
	}
}

func TestLocal_CancelledReminderDoesNotFire(t *testing.T) {
	bus := events.NewInMemoryBus(logger.NewWithWriter("test", io.Discard))
	due := subscribeReminders(bus)
	local := NewLocal(bus, nil)

	ctx := context.Background()
	_ = local.ScheduleReminder(ctx, ReminderPayload{ConversationID: "42", ReminderID: "r1"}, time.Now().Add(30*time.Millisecond))
	if err := local.CancelReminder(ctx, "r1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	select {
	case e := <-due:
		t.Fatalf("expected no reminder, got %+v", e)
	case <-time.After(120 * time.Millisecond):
	}
}

func TestLocal_CancelUnknownIsNoop(t *testing.T) {
	local := NewLocal(nil, nil)
	if err := local.CancelReminder(context.Background(), "missing"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestClient_EnqueuesAndCancelsReminder(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(schedulerConfig{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("expected client, got %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	runAt := time.Now().Add(15 * time.Minute)
	if err := client.ScheduleReminder(ctx, ReminderPayload{ConversationID: "42", ReminderID: "rem-1"}, runAt); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}

	members, err := mr.ZMembers("asynq:{default}:scheduled")
	if err != nil {
		t.Fatalf("expected scheduled set, got %v", err)
	}
	if len(members) != 1 || members[0] != "rem-1" {
		t.Fatalf("expected scheduled task rem-1, got %v", members)
	}

	if err := client.CancelReminder(ctx, "rem-1"); err != nil {
		t.Fatalf("expected cancel to succeed, got %v", err)
	}
	if err := client.CancelReminder(ctx, "rem-1"); err != nil {
		t.Fatalf("expected second cancel to be a no-op, got %v", err)
	}
}

func TestNewClient_RequiresRedisURL(t *testing.T) {
	if _, err := NewClient(schedulerConfig{}); err == nil {
		t.Fatalf("expected error without redis url")
	}
}

func TestWorker_PublishesReminderDue(t *testing.T) {
	bus := events.NewInMemoryBus(logger.NewWithWriter("test", io.Discard))
	due := subscribeReminders(bus)
	w := &Worker{bus: bus, log: logger.NewWithWriter("test", io.Discard)}

	task, err := NewReminderTask(ReminderPayload{ConversationID: "7", ReminderID: "r7"})
	if err != nil {
		t.Fatalf("expected task, got %v", err)
	}
	if err := w.handleReminder(context.Background(), task); err != nil {
		t.Fatalf("expected handler to succeed, got %v", err)
	}

	select {
	case e := <-due:
		if e.ReminderID != "r7" {
			t.Fatalf("expected r7, got %q", e.ReminderID)
		}
	default:
		t.Fatalf("expected ReminderDue to be published synchronously")
	}
}

func TestWorker_RejectsMalformedPayload(t *testing.T) {
	w := &Worker{log: logger.NewWithWriter("test", io.Discard)}
	if err := w.handleReminder(context.Background(), asynq.NewTask(TaskEscalationReminder, []byte("{"))); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
