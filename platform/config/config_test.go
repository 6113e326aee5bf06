package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("OPERATOR_CHAT_ID", "")
	t.Setenv("MANAGER_CHAT_ID", "42")
	t.Setenv("MANAGER_USERNAME", "@matvey")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.GetOperatorChatID() != "" {
		t.Fatalf("expected explicit empty OPERATOR_CHAT_ID to win, got %q", cfg.GetOperatorChatID())
	}
	if cfg.GetOperatorUsername() != "matvey" {
		t.Fatalf("expected username without @, got %q", cfg.GetOperatorUsername())
	}
	if cfg.GetClassifierTimeout() != 15*time.Second {
		t.Fatalf("expected 15s classifier timeout, got %s", cfg.GetClassifierTimeout())
	}
	if cfg.GetReminderDelay() != 15*time.Minute {
		t.Fatalf("expected 15m reminder delay, got %s", cfg.GetReminderDelay())
	}
	if cfg.GetOpenAIModel() != "gpt-4o-mini" {
		t.Fatalf("expected gpt-4o-mini default model, got %q", cfg.GetOpenAIModel())
	}
}

func TestValidateRejectsMissingToken(t *testing.T) {
	cfg := &Config{ClassifierProvider: "openai", ClassifierTimeout: time.Second, ReminderDelay: time.Minute, TelegramPollTimeout: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing bot token")
	}
}

func TestValidateRejectsNonNumericOperator(t *testing.T) {
	cfg := &Config{
		TelegramBotToken:    "t",
		OperatorChatID:      "@manager",
		ClassifierProvider:  "openai",
		ClassifierTimeout:   time.Second,
		ReminderDelay:       time.Minute,
		TelegramPollTimeout: time.Second,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for non-numeric operator chat id")
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := &Config{
		TelegramBotToken:    "t",
		ClassifierProvider:  "llama",
		ClassifierTimeout:   time.Second,
		ReminderDelay:       time.Minute,
		TelegramPollTimeout: time.Second,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown classifier provider")
	}
}
