// Package events defines the bot's domain events. The bus itself lives in
// platform/events; the aliases below let modules import one package.
package events

import (
	"github.com/mityademon-rgb/matveypt-bot/platform/events"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Publisher   = events.Publisher
	Subscriber  = events.Subscriber
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEventAt = events.NewBaseEventAt

// NewInMemoryBus returns the process-local bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Escalation Domain Events
// =============================================================================

// Trigger names why the operator is being notified.
type Trigger string

const (
	TriggerContactCaptured Trigger = "contact_captured"
	TriggerLowConfidence   Trigger = "low_confidence"
	TriggerHotLead         Trigger = "hot_lead"
	TriggerQuoteSubmitted  Trigger = "quote_submitted"
	TriggerTaskSelected    Trigger = "task_selected"
	TriggerReminder        Trigger = "reminder"
	TriggerTest            Trigger = "test"
)

// OperatorNotified is published after a notification reached the operator
// chat. Mirrors (WhatsApp, e-mail) subscribe to it.
type OperatorNotified struct {
	BaseEvent
	ConversationID string  `json:"conversationId"`
	Trigger        Trigger `json:"trigger"`
	Subject        string  `json:"subject"`
	Text           string  `json:"text"`
}

func (e OperatorNotified) EventName() string { return "escalation.operator.notified" }

// ReminderDue is published by the scheduler when a hot-lead reminder fires.
type ReminderDue struct {
	BaseEvent
	ConversationID string `json:"conversationId"`
	ReminderID     string `json:"reminderId"`
}

func (e ReminderDue) EventName() string { return "escalation.reminder.due" }

// SessionClosed is published when the operator closes a deal.
type SessionClosed struct {
	BaseEvent
	ConversationID string `json:"conversationId"`
	Summary        string `json:"summary"`
}

func (e SessionClosed) EventName() string { return "escalation.session.closed" }
