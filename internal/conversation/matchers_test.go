package conversation

import (
	"testing"

	"github.com/mityademon-rgb/matveypt-bot/internal/session"
)

func TestClassifyToken(t *testing.T) {
	cases := []struct {
		text string
		want Token
	}{
		{"Да", TokenAffirmative},
		{"  ДА, понятно ", TokenAffirmative},
		{"ок", TokenAffirmative},
		{"нет", TokenNegative},
		{"Не понял", TokenNegative},
		{"не совсем", TokenNegative},
		{"аудио", TokenAudio},
		{"хочу послушать голосовое", TokenAudio},
		{"коротко", TokenShort},
		{"текстом", TokenShort},
		{"может быть", TokenNone},
		{"", TokenNone},
		{"данные", TokenNone},
	}
	for _, tc := range cases {
		if got := ClassifyToken(tc.text); got != tc.want {
			t.Fatalf("ClassifyToken(%q): expected %q, got %q", tc.text, tc.want, got)
		}
	}
}

func TestIsPhone(t *testing.T) {
	valid := []string{"+7 999 123 45 67", "89991234567", "+7(999)1234567", "8 (999) 123 45 67"}
	for _, v := range valid {
		if !IsPhone(v) {
			t.Fatalf("expected %q to be a phone", v)
		}
	}
	invalid := []string{"123", "12-34", "позвоните мне", "anna@hotel.ru"}
	for _, v := range invalid {
		if IsPhone(v) {
			t.Fatalf("expected %q not to be a phone", v)
		}
	}
}

func TestIsEmail(t *testing.T) {
	if !IsEmail(" anna@hotel.ru ") {
		t.Fatalf("expected trimmed address to match")
	}
	if IsEmail("anna@hotel") || IsEmail("anna hotel.ru") {
		t.Fatalf("expected malformed addresses to be rejected")
	}
}

func TestMatchCategory(t *testing.T) {
	cases := []struct {
		text string
		want session.Category
		ok   bool
	}{
		{"Отель", session.CategoryHotel, true},
		{"у нас гостиница", session.CategoryHotel, true},
		{"музей под открытым небом", session.CategoryObject, true},
		{"Регион", session.CategoryRegion, true},
		{"Бренд/сервис", session.CategoryBrand, true},
		{"кофейня", session.CategoryUnknown, false},
	}
	for _, tc := range cases {
		got, ok := MatchCategory(tc.text)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("MatchCategory(%q): expected %q/%v, got %q/%v", tc.text, tc.want, tc.ok, got, ok)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  Ещё   РАЗ!!! "); got != "еще раз" {
		t.Fatalf("expected %q, got %q", "еще раз", got)
	}
}

func TestCallbacks(t *testing.T) {
	if tokenFromCallback(callbackYes) != TokenAffirmative || tokenFromCallback(callbackShort) != TokenShort {
		t.Fatalf("expected callbacks to map to tokens")
	}
	if tokenFromCallback("other") != TokenNone {
		t.Fatalf("expected unknown callback to map to none")
	}
	if c, ok := categoryFromCallback("cat:brand"); !ok || c != session.CategoryBrand {
		t.Fatalf("expected brand category, got %q/%v", c, ok)
	}
	if _, ok := categoryFromCallback("cat:spa"); ok {
		t.Fatalf("expected unknown category callback to be rejected")
	}
}
