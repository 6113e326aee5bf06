// Package messaging defines the transport-neutral contract between the
// conversation engine and a chat platform: inbound events, outbound
// messages with keyboards, and the Messenger that delivers them.
package messaging

import (
	"context"
	"time"
)

// EventKind discriminates inbound events.
type EventKind string

const (
	KindText           EventKind = "text"
	KindContact        EventKind = "contact"
	KindPayload        EventKind = "payload"
	KindButton         EventKind = "button"
	KindOperatorAction EventKind = "operator_action"
)

// OperatorActionKind is what the operator pressed on a notification.
type OperatorActionKind string

const (
	ActionCalled OperatorActionKind = "called"
	ActionClosed OperatorActionKind = "closed"
)

// Sender describes the platform user behind an event.
type Sender struct {
	UserID    string
	Username  string
	FirstName string
	LastName  string
}

// DisplayName joins first and last name.
func (s Sender) DisplayName() string {
	switch {
	case s.FirstName != "" && s.LastName != "":
		return s.FirstName + " " + s.LastName
	case s.FirstName != "":
		return s.FirstName
	default:
		return s.LastName
	}
}

// Event is one inbound occurrence. Exactly one of the kind-specific fields
// is meaningful, selected by Kind.
type Event struct {
	Kind           EventKind
	ID             string
	ConversationID string
	Sender         Sender
	ReceivedAt     time.Time

	// KindText
	Text string
	// KindContact
	Contact Contact
	// KindPayload
	Payload []byte
	// KindButton and KindOperatorAction
	CallbackID string
	Data       string
	MessageID  int64
	// KindOperatorAction
	Action OperatorAction
}

// Contact is a phone contact shared through the platform's native control.
type Contact struct {
	Phone       string
	DisplayName string
	UserID      string
}

// OperatorAction targets the conversation an operator notification is about.
type OperatorAction struct {
	Kind   OperatorActionKind
	Target string
}

// ButtonKind selects how a keyboard button behaves.
type ButtonKind string

const (
	ButtonCallback       ButtonKind = "callback"
	ButtonURL            ButtonKind = "url"
	ButtonWebApp         ButtonKind = "web_app"
	ButtonText           ButtonKind = "text"
	ButtonRequestContact ButtonKind = "request_contact"
)

// Button is one keyboard key.
type Button struct {
	Kind  ButtonKind
	Label string
	// Data is the callback payload, URL or web app URL depending on Kind.
	Data string
}

// Keyboard is a grid of buttons. Inline keyboards hang under a message;
// reply keyboards replace the user's input keyboard.
type Keyboard struct {
	Inline  bool
	Rows    [][]Button
	OneTime bool
	Remove  bool
}

// Row is a convenience constructor.
func Row(buttons ...Button) []Button {
	return buttons
}

// Outbound is a text message.
type Outbound struct {
	Text     string
	Keyboard *Keyboard
	// Plain disables rich formatting. Fallback operator messages use it.
	Plain bool
}

// MediaKind selects the media endpoint.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaAudio MediaKind = "audio"
)

// Media is a photo or audio file referenced by URL.
type Media struct {
	Kind    MediaKind
	URL     string
	Caption string
}

// Messenger delivers outbound traffic. Errors are for logging; callers do
// not retry.
type Messenger interface {
	SendText(ctx context.Context, chatID string, msg Outbound) (messageID int64, err error)
	SendMedia(ctx context.Context, chatID string, media Media) error
	EditText(ctx context.Context, chatID string, messageID int64, text string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
