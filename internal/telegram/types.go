package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mityademon-rgb/matveypt-bot/internal/messaging"
)

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// APIError is a Bot API call that came back with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed (%d): %s", e.Method, e.Code, e.Description)
}

// isParseError reports a rejected Markdown message.
func isParseError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Description), "can't parse entities")
}

type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type Contact struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	UserID      int64  `json:"user_id"`
}

type WebAppData struct {
	Data       string `json:"data"`
	ButtonText string `json:"button_text"`
}

type Message struct {
	MessageID  int64       `json:"message_id"`
	From       *User       `json:"from"`
	Chat       Chat        `json:"chat"`
	Date       int64       `json:"date"`
	Text       string      `json:"text"`
	Contact    *Contact    `json:"contact"`
	WebAppData *WebAppData `json:"web_app_data"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

type webAppInfo struct {
	URL string `json:"url"`
}

type inlineButton struct {
	Text         string      `json:"text"`
	CallbackData string      `json:"callback_data,omitempty"`
	URL          string      `json:"url,omitempty"`
	WebApp       *webAppInfo `json:"web_app,omitempty"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type keyboardButton struct {
	Text           string      `json:"text"`
	RequestContact bool        `json:"request_contact,omitempty"`
	WebApp         *webAppInfo `json:"web_app,omitempty"`
}

type replyKeyboardMarkup struct {
	Keyboard        [][]keyboardButton `json:"keyboard"`
	ResizeKeyboard  bool               `json:"resize_keyboard"`
	OneTimeKeyboard bool               `json:"one_time_keyboard,omitempty"`
}

type replyKeyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

// replyMarkup converts a transport-neutral keyboard. A nil keyboard yields nil.
func replyMarkup(kb *messaging.Keyboard) any {
	switch {
	case kb == nil:
		return nil
	case kb.Remove:
		return replyKeyboardRemove{RemoveKeyboard: true}
	case kb.Inline:
		rows := make([][]inlineButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			out := make([]inlineButton, 0, len(row))
			for _, b := range row {
				ib := inlineButton{Text: b.Label}
				switch b.Kind {
				case messaging.ButtonURL:
					ib.URL = b.Data
				case messaging.ButtonWebApp:
					ib.WebApp = &webAppInfo{URL: b.Data}
				default:
					ib.CallbackData = b.Data
				}
				out = append(out, ib)
			}
			rows = append(rows, out)
		}
		return inlineKeyboardMarkup{InlineKeyboard: rows}
	default:
		rows := make([][]keyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			out := make([]keyboardButton, 0, len(row))
			for _, b := range row {
				kbb := keyboardButton{Text: b.Label}
				switch b.Kind {
				case messaging.ButtonRequestContact:
					kbb.RequestContact = true
				case messaging.ButtonWebApp:
					kbb.WebApp = &webAppInfo{URL: b.Data}
				}
				out = append(out, kbb)
			}
			rows = append(rows, out)
		}
		return replyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true, OneTimeKeyboard: kb.OneTime}
	}
}
