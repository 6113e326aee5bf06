// Package telegram is the Bot API transport: a rate-limited client that
// implements messaging.Messenger and a long-poll Poller that turns updates
// into messaging events.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mityademon-rgb/matveypt-bot/internal/messaging"
	"github.com/mityademon-rgb/matveypt-bot/platform/config"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"

	"golang.org/x/time/rate"
)

const (
	// sendRate stays under the Bot API global limit of 30 messages per second.
	sendRate  = 25
	sendBurst = 5

	parseModeMarkdown = "Markdown"
)

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

func NewClient(cfg config.TelegramConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: fmt.Sprintf("%s/bot%s", strings.TrimRight(cfg.GetTelegramAPIURL(), "/"), cfg.GetTelegramBotToken()),
		http:    &http.Client{Timeout: cfg.GetTelegramPollTimeout() + 15*time.Second},
		limiter: rate.NewLimiter(rate.Limit(sendRate), sendBurst),
		log:     log,
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	ReplyMarkup           any    `json:"reply_markup,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

// SendText sends a Markdown message. A message Telegram cannot parse is
// resent once as plain text.
func (c *Client) SendText(ctx context.Context, chatID string, msg messaging.Outbound) (int64, error) {
	req := sendMessageRequest{
		ChatID:                chatID,
		Text:                  msg.Text,
		ReplyMarkup:           replyMarkup(msg.Keyboard),
		DisableWebPagePreview: true,
	}
	if !msg.Plain {
		req.ParseMode = parseModeMarkdown
	}

	var sent Message
	err := c.call(ctx, "sendMessage", req, &sent)
	if err != nil && req.ParseMode != "" && isParseError(err) {
		c.log.Warn("markdown rejected, resending as plain text", "chatId", chatID)
		req.ParseMode = ""
		err = c.call(ctx, "sendMessage", req, &sent)
	}
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *Client) SendMedia(ctx context.Context, chatID string, media messaging.Media) error {
	params := map[string]any{"chat_id": chatID}
	if media.Caption != "" {
		params["caption"] = media.Caption
	}

	method := "sendPhoto"
	switch media.Kind {
	case messaging.MediaAudio:
		method = "sendAudio"
		params["audio"] = media.URL
	default:
		params["photo"] = media.URL
	}
	return c.call(ctx, method, params, nil)
}

func (c *Client) EditText(ctx context.Context, chatID string, messageID int64, text string) error {
	return c.call(ctx, "editMessageText", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}, nil)
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	params := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		params["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", params, nil)
}

// GetUpdates long-polls for updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	var updates []Update
	err := c.do(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query"},
	}, &updates)
	if err != nil {
		return nil, err
	}
	return updates, nil
}

// call is a rate-limited outbound request.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	return c.do(ctx, method, params, out)
}

func (c *Client) do(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal telegram %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s request failed: %w", method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read telegram %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("telegram %s returned %d: %s", method, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if !envelope.OK {
		apiErr := &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
		if envelope.Parameters != nil {
			apiErr.RetryAfter = envelope.Parameters.RetryAfter
		}
		return apiErr
	}
	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode telegram %s result: %w", method, err)
	}
	return nil
}

// retryAfter extracts the flood-control wait from an API error.
func retryAfter(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return 0
}

var _ messaging.Messenger = (*Client)(nil)
