// Package config loads the bot configuration from the environment.
// Each consumer depends on a narrow interface instead of the whole Config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-specific configuration interfaces
// =============================================================================

// TelegramConfig is used by the Bot API client and poller.
type TelegramConfig interface {
	GetTelegramBotToken() string
	GetTelegramAPIURL() string
	GetTelegramPollTimeout() time.Duration
}

// OperatorConfig identifies the single human operator.
type OperatorConfig interface {
	GetOperatorChatID() string
	GetOperatorUsername() string
	IsOperatorConfigured() bool
}

// WebAppConfig locates the calculator mini-app and static media.
type WebAppConfig interface {
	GetWebAppURL() string
}

// ClassifierConfig selects and configures the reply classifier backend.
type ClassifierConfig interface {
	GetClassifierProvider() string
	GetClassifierTimeout() time.Duration
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetOpenAIModel() string
	GetGeminiAPIKey() string
	GetGeminiModel() string
}

// SchedulerConfig configures reminder scheduling. An empty Redis URL selects
// the in-process scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetReminderDelay() time.Duration
}

// HTTPConfig is used by the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// QuoteLinkConfig signs calculator links.
type QuoteLinkConfig interface {
	GetQuoteLinkSecret() string
	GetQuoteLinkTTL() time.Duration
}

// WhatsAppConfig configures the operator WhatsApp mirror.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
	GetOperatorWhatsAppPhone() string
}

// SMTPConfig configures the operator e-mail mirror.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFrom() string
	GetOperatorEmail() string
	IsSMTPEnabled() bool
}

// Config holds every setting. Most code should take one of the interfaces above.
type Config struct {
	Env string

	TelegramBotToken    string
	TelegramAPIURL      string
	TelegramPollTimeout time.Duration

	OperatorChatID   string
	OperatorUsername string
	WebAppURL        string

	ClassifierProvider string
	ClassifierTimeout  time.Duration
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	GeminiAPIKey       string
	GeminiModel        string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	ReminderDelay    time.Duration

	HTTPAddr     string
	CORSAllowAll bool
	CORSOrigins  []string

	QuoteLinkSecret string
	QuoteLinkTTL    time.Duration

	WhatsAppURL           string
	WhatsAppKey           string
	WhatsAppDeviceID      string
	OperatorWhatsAppPhone string

	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFrom      string
	OperatorEmail string
}

// Telegram
func (c *Config) GetTelegramBotToken() string            { return c.TelegramBotToken }
func (c *Config) GetTelegramAPIURL() string              { return c.TelegramAPIURL }
func (c *Config) GetTelegramPollTimeout() time.Duration { return c.TelegramPollTimeout }

// Operator
func (c *Config) GetOperatorChatID() string   { return c.OperatorChatID }
func (c *Config) GetOperatorUsername() string { return c.OperatorUsername }
func (c *Config) IsOperatorConfigured() bool  { return c.OperatorChatID != "" }

// Web app
func (c *Config) GetWebAppURL() string { return c.WebAppURL }

// Classifier
func (c *Config) GetClassifierProvider() string         { return c.ClassifierProvider }
func (c *Config) GetClassifierTimeout() time.Duration { return c.ClassifierTimeout }
func (c *Config) GetOpenAIAPIKey() string               { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIBaseURL() string              { return c.OpenAIBaseURL }
func (c *Config) GetOpenAIModel() string                { return c.OpenAIModel }
func (c *Config) GetGeminiAPIKey() string               { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string                { return c.GeminiModel }

// Scheduler
func (c *Config) GetRedisURL() string              { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool        { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string        { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int         { return c.AsynqConcurrency }
func (c *Config) GetReminderDelay() time.Duration { return c.ReminderDelay }

// HTTP
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// Quote links
func (c *Config) GetQuoteLinkSecret() string       { return c.QuoteLinkSecret }
func (c *Config) GetQuoteLinkTTL() time.Duration { return c.QuoteLinkTTL }

// WhatsApp
func (c *Config) GetWhatsAppURL() string           { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string           { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string      { return c.WhatsAppDeviceID }
func (c *Config) GetOperatorWhatsAppPhone() string { return c.OperatorWhatsAppPhone }

// SMTP
func (c *Config) GetSMTPHost() string      { return c.SMTPHost }
func (c *Config) GetSMTPPort() int         { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string  { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string  { return c.SMTPPassword }
func (c *Config) GetSMTPFrom() string      { return c.SMTPFrom }
func (c *Config) GetOperatorEmail() string { return c.OperatorEmail }
func (c *Config) IsSMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != "" && c.OperatorEmail != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "*"))

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIURL:        strings.TrimRight(getEnv("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
		TelegramPollTimeout:   mustDuration(getEnv("TELEGRAM_POLL_TIMEOUT", "30s")),
		OperatorChatID:        strings.TrimSpace(getEnv("OPERATOR_CHAT_ID", getEnv("MANAGER_CHAT_ID", ""))),
		OperatorUsername:      strings.TrimPrefix(strings.TrimSpace(getEnv("OPERATOR_USERNAME", getEnv("MANAGER_USERNAME", ""))), "@"),
		WebAppURL:             strings.TrimRight(getEnv("WEB_APP_URL", ""), "/"),
		ClassifierProvider:    strings.ToLower(getEnv("CLASSIFIER_PROVIDER", "openai")),
		ClassifierTimeout:     mustDuration(getEnv("CLASSIFIER_TIMEOUT", "15s")),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:         strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		ReminderDelay:         mustDuration(getEnv("REMINDER_DELAY", "15m")),
		HTTPAddr:              getEnv("HTTP_ADDR", ":"+getEnv("PORT", "3000")),
		CORSAllowAll:          containsWildcard(corsOrigins),
		CORSOrigins:           corsOrigins,
		QuoteLinkSecret:       getEnv("QUOTE_LINK_SECRET", ""),
		QuoteLinkTTL:          mustDuration(getEnv("QUOTE_LINK_TTL", "168h")),
		WhatsAppURL:           getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:           getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID:      getEnv("WHATSAPP_DEVICE_ID", ""),
		OperatorWhatsAppPhone: getEnv("OPERATOR_WHATSAPP_PHONE", ""),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:              getEnv("SMTP_FROM", ""),
		OperatorEmail:         getEnv("OPERATOR_EMAIL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.OperatorChatID != "" {
		if _, err := strconv.ParseInt(c.OperatorChatID, 10, 64); err != nil {
			return fmt.Errorf("OPERATOR_CHAT_ID must be a numeric chat id: %w", err)
		}
	}
	switch c.ClassifierProvider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("CLASSIFIER_PROVIDER must be openai or gemini, got %q", c.ClassifierProvider)
	}
	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("CLASSIFIER_TIMEOUT must be a positive duration")
	}
	if c.ReminderDelay <= 0 {
		return fmt.Errorf("REMINDER_DELAY must be a positive duration")
	}
	if c.TelegramPollTimeout <= 0 {
		return fmt.Errorf("TELEGRAM_POLL_TIMEOUT must be a positive duration")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
