package conversation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mityademon-rgb/matveypt-bot/internal/session"

	"golang.org/x/text/cases"
)

// Token is the closed-vocabulary meaning of a lead's reply in the scripted
// stages.
type Token string

const (
	TokenNone        Token = ""
	TokenAffirmative Token = "yes"
	TokenNegative    Token = "no"
	TokenAudio       Token = "audio"
	TokenShort       Token = "short"
)

// Callback data carried by the scripted inline buttons.
const (
	callbackYes      = "u:yes"
	callbackNo       = "u:no"
	callbackAudio    = "x:audio"
	callbackShort    = "x:short"
	callbackCategory = "cat:"
)

var (
	affirmativePhrases = []string{
		"да", "ага", "угу", "конечно", "понятно", "понял", "поняла", "ясно",
		"хорошо", "ок", "окей", "ok", "okay", "yes", "давай", "давайте", "верно",
		"именно", "+", "👍",
	}
	negativePhrases = []string{
		"нет", "неа", "не", "не понял", "не поняла", "непонятно", "не ясно",
		"не совсем", "не очень", "no", "объясните", "поясните", "расскажите",
	}
	audioPhrases = []string{
		"аудио", "голос", "голосом", "голосовое", "послушать", "послушаю",
		"audio", "voice", "🎧",
	}
	shortPhrases = []string{
		"коротко", "кратко", "текст", "текстом", "короче", "прочитать",
		"прочитаю", "short", "text", "📝",
	}

	categoryStems = []struct {
		category session.Category
		stems    []string
	}{
		{session.CategoryHotel, []string{"отел", "гостиниц", "хостел", "санатори", "hotel", "апартамент", "глэмпинг"}},
		{session.CategoryObject, []string{"объект", "туробъект", "музе", "парк", "достопримечательн", "экскурси", "база отдыха"}},
		{session.CategoryRegion, []string{"регион", "област", "край", "республик", "город", "region"}},
		{session.CategoryBrand, []string{"бренд", "сервис", "компани", "brand", "service", "приложени"}},
	}

	phonePattern = regexp.MustCompile(`^[\+]?[(]?[0-9]{1,4}[)]?[-\s\.]?[(]?[0-9]{1,4}[)]?[-\s\.]?[0-9]{1,9}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	folder = cases.Fold()
)

// minPhoneDigits rejects short numbers the permissive pattern would accept.
const minPhoneDigits = 7

// Normalize case-folds text, drops punctuation and collapses whitespace.
func Normalize(text string) string {
	folded := folder.String(strings.TrimSpace(text))
	folded = strings.ReplaceAll(folded, "ё", "е")
	folded = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) && r != '/' {
			return ' '
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// ClassifyToken maps free text to a Token. Affirmative wins over negative,
// negative over audio, audio over short.
func ClassifyToken(text string) Token {
	t := Normalize(text)
	switch {
	case t == "":
		return TokenNone
	case matchesAny(t, affirmativePhrases):
		return TokenAffirmative
	case matchesAny(t, negativePhrases):
		return TokenNegative
	case matchesAny(t, audioPhrases) || containsAny(t, audioPhrases):
		return TokenAudio
	case matchesAny(t, shortPhrases):
		return TokenShort
	default:
		return TokenNone
	}
}

// IsAffirmative reports an affirmative reply.
func IsAffirmative(text string) bool { return ClassifyToken(text) == TokenAffirmative }

// IsNegative reports a negative reply.
func IsNegative(text string) bool { return ClassifyToken(text) == TokenNegative }

// WantsAudio reports a request for the audio explainer.
func WantsAudio(text string) bool { return ClassifyToken(text) == TokenAudio }

// WantsShort reports a request for the short text explainer.
func WantsShort(text string) bool { return ClassifyToken(text) == TokenShort }

// IsPhone reports whether text looks like a phone number.
func IsPhone(text string) bool {
	compact := stripSpaces(text)
	if !phonePattern.MatchString(compact) {
		return false
	}
	digits := 0
	for _, r := range compact {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

// IsEmail reports whether text looks like an e-mail address.
func IsEmail(text string) bool {
	return emailPattern.MatchString(strings.TrimSpace(text))
}

// MatchCategory finds a business category named in text.
func MatchCategory(text string) (session.Category, bool) {
	t := Normalize(text)
	if t == "" {
		return session.CategoryUnknown, false
	}
	if c, ok := session.ParseCategory(t); ok {
		return c, true
	}
	for _, group := range categoryStems {
		for _, stem := range group.stems {
			if strings.HasPrefix(t, stem) || strings.Contains(t, " "+stem) {
				return group.category, true
			}
		}
	}
	return session.CategoryUnknown, false
}

// tokenFromCallback maps scripted button data to a Token.
func tokenFromCallback(data string) Token {
	switch data {
	case callbackYes:
		return TokenAffirmative
	case callbackNo:
		return TokenNegative
	case callbackAudio:
		return TokenAudio
	case callbackShort:
		return TokenShort
	default:
		return TokenNone
	}
}

func categoryFromCallback(data string) (session.Category, bool) {
	if !strings.HasPrefix(data, callbackCategory) {
		return session.CategoryUnknown, false
	}
	switch strings.TrimPrefix(data, callbackCategory) {
	case "hotel":
		return session.CategoryHotel, true
	case "object":
		return session.CategoryObject, true
	case "region":
		return session.CategoryRegion, true
	case "brand":
		return session.CategoryBrand, true
	default:
		return session.CategoryUnknown, false
	}
}

// matchesAny is true when t is one of the phrases or starts with one
// followed by a space.
func matchesAny(t string, phrases []string) bool {
	for _, p := range phrases {
		if t == p || strings.HasPrefix(t, p+" ") {
			return true
		}
	}
	return false
}

func containsAny(t string, phrases []string) bool {
	padded := " " + t + " "
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
