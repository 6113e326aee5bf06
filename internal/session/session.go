// Package session holds per-conversation qualification state and the
// repository it lives in. State is process-lifetime only.
package session

import (
	"strings"
	"time"
)

// Stage is the position of a conversation in the qualification script.
type Stage string

const (
	StageGreeting              Stage = "greeting"
	StageAwaitingContact       Stage = "awaiting_contact"
	StageAwaitingUnderstanding Stage = "awaiting_understanding"
	StageAwaitingExplainChoice Stage = "awaiting_explain_choice"
	StageAwaitingBusinessType  Stage = "awaiting_business_type"
	StageChat                  Stage = "chat"
)

// Category is the closed set of lead business categories.
type Category string

const (
	CategoryUnknown Category = ""
	CategoryHotel   Category = "отель"
	CategoryObject  Category = "объект"
	CategoryRegion  Category = "регион"
	CategoryBrand   Category = "бренд/сервис"
)

// ParseCategory coerces free-form classifier output into a Category.
func ParseCategory(value string) (Category, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "":
		return CategoryUnknown, false
	case v == string(CategoryHotel) || v == "hotel" || v == "гостиница":
		return CategoryHotel, true
	case v == string(CategoryObject) || v == "object" || v == "туробъект":
		return CategoryObject, true
	case v == string(CategoryRegion) || v == "region":
		return CategoryRegion, true
	case v == string(CategoryBrand) || v == "бренд" || v == "сервис" || v == "brand" || v == "service":
		return CategoryBrand, true
	default:
		return CategoryUnknown, false
	}
}

// Task is the closed set of advertising goals.
type Task string

const (
	TaskAwareness Task = "узнаваемость"
	TaskBookings  Task = "бронирования"
	TaskLeads     Task = "лиды"
	TaskSales     Task = "продажи"
	TaskTraffic   Task = "трафик"
)

// ParseTask coerces classifier output into a Task.
func ParseTask(value string) (Task, bool) {
	switch t := Task(strings.ToLower(strings.TrimSpace(value))); t {
	case TaskAwareness, TaskBookings, TaskLeads, TaskSales, TaskTraffic:
		return t, true
	default:
		return "", false
	}
}

// Role marks who produced a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript entry.
type Turn struct {
	Role Role
	Text string
}

// Profile is what the bot has learned about the lead.
type Profile struct {
	Phone       string
	Email       string
	DisplayName string
	Username    string
	Category    Category
	City        string
	Task        Task
	// TaskNote keeps a free-text goal picked in the calculator mini-app.
	TaskNote string
	Season   string

	ContactCaptured      bool
	QuoteShown           bool
	OperatorAcknowledged bool
}

// Contact returns the best known way to reach the lead.
func (p Profile) Contact() string {
	if p.Phone != "" {
		return p.Phone
	}
	return p.Email
}

// Session is the state of one conversation.
type Session struct {
	ConversationID string
	Stage          Stage
	Profile        Profile
	Transcript     []Turn

	TurnCounter     int
	LoopStrikes     int
	LastReplyPrefix string
	HardStop        bool

	LastInboundText    string
	LastInboundAt      time.Time
	LastInboundEventID string
	LastOutboundText   string
	LastOutboundAt     time.Time

	LastVisualKey string
	LastVisualAt  time.Time

	NotifiedAt *time.Time
	// ReminderID identifies the pending operator reminder; a reminder whose
	// ID no longer matches is stale.
	ReminderID string
	// OperatorMessageID is the last operator notification with action buttons.
	OperatorMessageID int64

	QuoteSubmittedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New returns a session in the Greeting stage.
func New(conversationID string, now time.Time) *Session {
	return &Session{
		ConversationID: conversationID,
		Stage:          StageGreeting,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Transcript != nil {
		c.Transcript = make([]Turn, len(s.Transcript))
		copy(c.Transcript, s.Transcript)
	}
	if s.NotifiedAt != nil {
		t := *s.NotifiedAt
		c.NotifiedAt = &t
	}
	if s.QuoteSubmittedAt != nil {
		t := *s.QuoteSubmittedAt
		c.QuoteSubmittedAt = &t
	}
	return &c
}

// Append adds a turn to the transcript.
func (s *Session) Append(role Role, text string) {
	s.Transcript = append(s.Transcript, Turn{Role: role, Text: text})
}

// RecentTurns returns at most n trailing transcript entries.
func (s *Session) RecentTurns(n int) []Turn {
	if n <= 0 || len(s.Transcript) == 0 {
		return nil
	}
	start := len(s.Transcript) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.Transcript)-start)
	copy(out, s.Transcript[start:])
	return out
}

// CarryDedupe copies the inbound dedupe fields from prev so that a reset
// does not let a redelivered event through.
func (s *Session) CarryDedupe(prev *Session) {
	if prev == nil {
		return
	}
	s.LastInboundEventID = prev.LastInboundEventID
	s.LastInboundText = prev.LastInboundText
	s.LastInboundAt = prev.LastInboundAt
}
