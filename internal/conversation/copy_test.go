package conversation

import (
	"strings"
	"testing"
)

func TestDefaultCopyParses(t *testing.T) {
	c, err := ParseCopy(defaultCopyYAML)
	if err != nil {
		t.Fatalf("expected embedded catalog to parse, got %v", err)
	}
	if !strings.Contains(c.HardStop, "следующий шаг: калькулятор") {
		t.Fatalf("expected hard stop text with colon intact, got %q", c.HardStop)
	}
	if !strings.Contains(c.NoRepeat, "Уточню одно: где") {
		t.Fatalf("expected no-repeat text with colon intact, got %q", c.NoRepeat)
	}
	if !strings.HasPrefix(c.ShortExplainer, "Если коротко: турист") {
		t.Fatalf("expected block scalar unchanged, got %q", c.ShortExplainer)
	}
	if len(c.CategoryFollowups) != 4 {
		t.Fatalf("expected 4 category follow-ups, got %d", len(c.CategoryFollowups))
	}
}

func TestParseCopyRejectsBrokenCatalog(t *testing.T) {
	if _, err := ParseCopy([]byte("hard_stop: шаг: калькулятор\n")); err == nil {
		t.Fatalf("expected parse error for unquoted colon")
	}
	if _, err := ParseCopy([]byte("greeting: hi\n")); err == nil {
		t.Fatalf("expected error for missing required texts")
	}
}
