package conversation

import (
	"strings"
	"testing"
)

const noRepeat = "Не буду повторяться"

func TestRewrite_RepeatedOpener(t *testing.T) {
	got := Rewrite("смотрите, это второй пример", "Смотрите, это первый пример", noRepeat)
	if got != "Кстати, это второй пример" {
		t.Fatalf("expected opener replaced, got %q", got)
	}
}

func TestRewrite_OpenerOnlyOnCandidate(t *testing.T) {
	got := Rewrite("Смотрите, пример", "Добрый день", noRepeat)
	if got != "Смотрите, пример" {
		t.Fatalf("expected candidate unchanged, got %q", got)
	}
}

func TestRewrite_IdenticalReply(t *testing.T) {
	if got := Rewrite("Где вы находитесь?", "Где вы находитесь?", noRepeat); got != noRepeat {
		t.Fatalf("expected no-repeat message, got %q", got)
	}
	if got := Rewrite("Где вы находитесь?", "где вы находитесь?", noRepeat); got != "Где вы находитесь?" {
		t.Fatalf("expected case difference to pass through, got %q", got)
	}
	if got := Rewrite("", "", noRepeat); got != "" {
		t.Fatalf("expected empty candidate unchanged, got %q", got)
	}
}

func TestReplyPrefix(t *testing.T) {
	a := ReplyPrefix("Расскажите   о ВАШЕМ\nотеле")
	b := ReplyPrefix("расскажите о вашем отеле")
	if a != b {
		t.Fatalf("expected equal fingerprints, got %q and %q", a, b)
	}

	long := strings.Repeat("я", 200)
	if got := []rune(ReplyPrefix(long)); len(got) != 140 {
		t.Fatalf("expected 140 runes, got %d", len(got))
	}
	if ReplyPrefix(long+"а") != ReplyPrefix(long+"б") {
		t.Fatalf("expected only the first 140 runes to count")
	}
}
