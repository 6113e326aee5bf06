// Package messagingtest provides a recording Messenger for tests.
package messagingtest

import (
	"context"
	"errors"
	"sync"

	"github.com/mityademon-rgb/matveypt-bot/internal/messaging"
)

// Sent is one recorded outbound call.
type Sent struct {
	ChatID    string
	Msg       messaging.Outbound
	Media     *messaging.Media
	MessageID int64
}

// Edit is one recorded EditText call.
type Edit struct {
	ChatID    string
	MessageID int64
	Text      string
}

// Recorder implements messaging.Messenger in memory.
type Recorder struct {
	mu      sync.Mutex
	nextID  int64
	Sent    []Sent
	Edits   []Edit
	Answers []string

	// FailText makes SendText fail for the given chat while it returns true.
	FailText func(chatID string, msg messaging.Outbound) bool
}

// ErrInjected is returned by injected failures.
var ErrInjected = errors.New("injected send failure")

func (r *Recorder) SendText(_ context.Context, chatID string, msg messaging.Outbound) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailText != nil && r.FailText(chatID, msg) {
		return 0, ErrInjected
	}
	r.nextID++
	r.Sent = append(r.Sent, Sent{ChatID: chatID, Msg: msg, MessageID: r.nextID})
	return r.nextID, nil
}

func (r *Recorder) SendMedia(_ context.Context, chatID string, media messaging.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m := media
	r.Sent = append(r.Sent, Sent{ChatID: chatID, Media: &m, MessageID: r.nextID})
	return nil
}

func (r *Recorder) EditText(_ context.Context, chatID string, messageID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Edits = append(r.Edits, Edit{ChatID: chatID, MessageID: messageID, Text: text})
	return nil
}

func (r *Recorder) AnswerCallback(_ context.Context, _ string, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Answers = append(r.Answers, text)
	return nil
}

// To returns the messages (text and media) sent to chatID.
func (r *Recorder) To(chatID string) []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sent
	for _, s := range r.Sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// Texts returns the text bodies sent to chatID.
func (r *Recorder) Texts(chatID string) []string {
	var out []string
	for _, s := range r.To(chatID) {
		if s.Media == nil {
			out = append(out, s.Msg.Text)
		}
	}
	return out
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = nil
	r.Edits = nil
	r.Answers = nil
}

var _ messaging.Messenger = (*Recorder)(nil)
