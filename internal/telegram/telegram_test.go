package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mityademon-rgb/matveypt-bot/internal/messaging"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
)

type testConfig struct {
	url string
}

func (c testConfig) GetTelegramBotToken() string            { return "TOKEN" }
func (c testConfig) GetTelegramAPIURL() string              { return c.url }
func (c testConfig) GetTelegramPollTimeout() time.Duration { return time.Second }

type recordedCall struct {
	Path string
	Body map[string]any
}

type botServer struct {
	mu    sync.Mutex
	calls []recordedCall
	reply func(path string, body map[string]any) string
}

func (b *botServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	b.mu.Lock()
	b.calls = append(b.calls, recordedCall{Path: r.URL.Path, Body: body})
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if b.reply != nil {
		_, _ = io.WriteString(w, b.reply(r.URL.Path, body))
		return
	}
	_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7,"chat":{"id":42}}}`)
}

func newTestClient(t *testing.T, srv *botServer) *Client {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return NewClient(testConfig{url: ts.URL}, logger.NewWithWriter("test", io.Discard))
}

func TestSendText_MarkdownWithInlineKeyboard(t *testing.T) {
	srv := &botServer{}
	client := newTestClient(t, srv)

	id, err := client.SendText(context.Background(), "42", messaging.Outbound{
		Text: "*Привет*",
		Keyboard: &messaging.Keyboard{Inline: true, Rows: [][]messaging.Button{{
			{Kind: messaging.ButtonCallback, Label: "Да", Data: "u:yes"},
			{Kind: messaging.ButtonURL, Label: "Написать", Data: "https://t.me/manager"},
		}}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id != 7 {
		t.Fatalf("expected message id 7, got %d", id)
	}

	call := srv.calls[0]
	if call.Path != "/botTOKEN/sendMessage" {
		t.Fatalf("expected sendMessage path, got %s", call.Path)
	}
	if call.Body["parse_mode"] != "Markdown" {
		t.Fatalf("expected Markdown parse mode, got %v", call.Body["parse_mode"])
	}
	markup, _ := call.Body["reply_markup"].(map[string]any)
	rows, _ := markup["inline_keyboard"].([]any)
	if len(rows) != 1 {
		t.Fatalf("expected 1 inline row, got %v", markup)
	}
	buttons := rows[0].([]any)
	first := buttons[0].(map[string]any)
	second := buttons[1].(map[string]any)
	if first["callback_data"] != "u:yes" || second["url"] != "https://t.me/manager" {
		t.Fatalf("unexpected buttons: %v", buttons)
	}
}

func TestSendText_ParseErrorFallsBackToPlain(t *testing.T) {
	srv := &botServer{}
	srv.reply = func(_ string, body map[string]any) string {
		if body["parse_mode"] == "Markdown" {
			return `{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities: unmatched"}`
		}
		return `{"ok":true,"result":{"message_id":8,"chat":{"id":42}}}`
	}
	client := newTestClient(t, srv)

	id, err := client.SendText(context.Background(), "42", messaging.Outbound{Text: "a_b*c"})
	if err != nil {
		t.Fatalf("expected fallback to succeed, got %v", err)
	}
	if id != 8 || len(srv.calls) != 2 {
		t.Fatalf("expected 2 calls and id 8, got %d calls id %d", len(srv.calls), id)
	}
	if _, ok := srv.calls[1].Body["parse_mode"]; ok {
		t.Fatalf("expected plain resend without parse mode")
	}
}

func TestSendText_PlainAndRemoveKeyboard(t *testing.T) {
	srv := &botServer{}
	client := newTestClient(t, srv)

	_, err := client.SendText(context.Background(), "42", messaging.Outbound{
		Text: "plain", Plain: true, Keyboard: &messaging.Keyboard{Remove: true},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	body := srv.calls[0].Body
	if _, ok := body["parse_mode"]; ok {
		t.Fatalf("expected no parse mode for plain message")
	}
	markup := body["reply_markup"].(map[string]any)
	if markup["remove_keyboard"] != true {
		t.Fatalf("expected keyboard removal, got %v", markup)
	}
}

func TestAPIErrorIsReturned(t *testing.T) {
	srv := &botServer{reply: func(string, map[string]any) string {
		return `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":3}}`
	}}
	client := newTestClient(t, srv)

	err := client.EditText(context.Background(), "42", 7, "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 429 {
		t.Fatalf("expected 429 API error, got %v", err)
	}
	if retryAfter(err) != 3*time.Second {
		t.Fatalf("expected retry after 3s, got %v", retryAfter(err))
	}
}

func TestSendMedia_SelectsEndpoint(t *testing.T) {
	srv := &botServer{}
	client := newTestClient(t, srv)

	_ = client.SendMedia(context.Background(), "42", messaging.Media{Kind: messaging.MediaAudio, URL: "https://x/a.mp3", Caption: "Слушайте"})
	_ = client.SendMedia(context.Background(), "42", messaging.Media{Kind: messaging.MediaPhoto, URL: "https://x/p.jpg"})

	if srv.calls[0].Path != "/botTOKEN/sendAudio" || srv.calls[0].Body["audio"] != "https://x/a.mp3" {
		t.Fatalf("unexpected audio call: %+v", srv.calls[0])
	}
	if srv.calls[1].Path != "/botTOKEN/sendPhoto" || srv.calls[1].Body["photo"] != "https://x/p.jpg" {
		t.Fatalf("unexpected photo call: %+v", srv.calls[1])
	}
}

func TestToEvent(t *testing.T) {
	text := Update{UpdateID: 10, Message: &Message{MessageID: 1, Chat: Chat{ID: 42}, From: &User{ID: 42, Username: "anna", FirstName: "Анна"}, Text: "привет"}}
	ev, ok := ToEvent(text)
	if !ok || ev.Kind != messaging.KindText || ev.ConversationID != "42" || ev.ID != "10" || ev.Sender.Username != "anna" {
		t.Fatalf("unexpected text event: %+v", ev)
	}

	contact := Update{UpdateID: 11, Message: &Message{Chat: Chat{ID: 42}, Contact: &Contact{PhoneNumber: "79991234567", FirstName: "Анна", LastName: "Петрова"}}}
	ev, ok = ToEvent(contact)
	if !ok || ev.Kind != messaging.KindContact || ev.Contact.Phone != "79991234567" || ev.Contact.DisplayName != "Анна Петрова" {
		t.Fatalf("unexpected contact event: %+v", ev)
	}

	payload := Update{UpdateID: 12, Message: &Message{Chat: Chat{ID: 42}, WebAppData: &WebAppData{Data: `{"type":"quote"}`}}}
	ev, ok = ToEvent(payload)
	if !ok || ev.Kind != messaging.KindPayload || string(ev.Payload) != `{"type":"quote"}` {
		t.Fatalf("unexpected payload event: %+v", ev)
	}

	button := Update{UpdateID: 13, CallbackQuery: &CallbackQuery{ID: "cb1", From: User{ID: 42}, Data: "u:yes", Message: &Message{MessageID: 5, Chat: Chat{ID: 42}}}}
	ev, ok = ToEvent(button)
	if !ok || ev.Kind != messaging.KindButton || ev.CallbackID != "cb1" || ev.Data != "u:yes" {
		t.Fatalf("unexpected button event: %+v", ev)
	}

	action := Update{UpdateID: 14, CallbackQuery: &CallbackQuery{ID: "cb2", From: User{ID: 999}, Data: "called:42", Message: &Message{MessageID: 6, Chat: Chat{ID: 999}, Text: "🔥 ГОРЯЧИЙ ЛИД"}}}
	ev, ok = ToEvent(action)
	if !ok || ev.Kind != messaging.KindOperatorAction || ev.ConversationID != "999" || ev.Action.Target != "42" || ev.Action.Kind != messaging.ActionCalled {
		t.Fatalf("unexpected operator action: %+v", ev)
	}
	if ev.MessageID != 6 || ev.Text != "🔥 ГОРЯЧИЙ ЛИД" {
		t.Fatalf("expected operator message details, got %d %q", ev.MessageID, ev.Text)
	}

	if _, ok := ToEvent(Update{UpdateID: 15, Message: &Message{Chat: Chat{ID: 42}}}); ok {
		t.Fatalf("expected empty message to be skipped")
	}
}

type scriptedSource struct {
	mu      sync.Mutex
	batches [][]Update
	offsets []int64
	cancel  context.CancelFunc
}

func (s *scriptedSource) GetUpdates(_ context.Context, offset int64, _ time.Duration) ([]Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets = append(s.offsets, offset)
	if len(s.batches) == 0 {
		s.cancel()
		return nil, nil
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func TestPoller_DeliversInOrderAndAdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &scriptedSource{
		cancel: cancel,
		batches: [][]Update{
			{
				{UpdateID: 100, Message: &Message{Chat: Chat{ID: 1}, Text: "a"}},
				{UpdateID: 101, Message: &Message{Chat: Chat{ID: 1}}},
				{UpdateID: 102, Message: &Message{Chat: Chat{ID: 2}, Text: "b"}},
			},
			{
				{UpdateID: 103, Message: &Message{Chat: Chat{ID: 1}, Text: "c"}},
			},
		},
	}

	var got []string
	handle := func(_ context.Context, ev messaging.Event) {
		got = append(got, ev.Text)
	}
	poller := NewPoller(source, handle, time.Second, logger.NewWithWriter("test", io.Discard))
	if err := poller.Run(ctx); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}

	if strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("expected a,b,c in order, got %v", got)
	}
	if len(source.offsets) < 3 || source.offsets[0] != 0 || source.offsets[1] != 103 || source.offsets[2] != 104 {
		t.Fatalf("unexpected offsets: %v", source.offsets)
	}
}
