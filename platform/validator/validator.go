// Package validator provides validation infrastructure for the bot's HTTP DTOs.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// conversationIDPattern matches Telegram chat IDs (negative for groups).
var conversationIDPattern = regexp.MustCompile(`^-?[0-9]{1,20}$`)

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator with the bot's custom tags registered:
//
//	conversation_id  a chat identifier as issued by the messaging platform
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("conversation_id", func(fl validator.FieldLevel) bool {
		return conversationIDPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
