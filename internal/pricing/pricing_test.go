package pricing

import (
	"strings"
	"testing"
)

func TestCalculatePackages_PlacementWithoutDiscounts(t *testing.T) {
	result := CalculatePackages(IntentPlacement, Options{})

	if result.Discount != 0 {
		t.Fatalf("expected no discount, got %d", result.Discount)
	}
	if len(result.Packages) != 3 {
		t.Fatalf("expected 3 packages, got %d", len(result.Packages))
	}
	want := []int64{100000, 170000, 240000}
	for i, pkg := range result.Packages {
		if pkg.Price != want[i] || pkg.FinalPrice != want[i] {
			t.Fatalf("package %s: expected %d, got price %d final %d", pkg.Level, want[i], pkg.Price, pkg.FinalPrice)
		}
		if pkg.Savings != 0 {
			t.Fatalf("package %s: expected no savings, got %d", pkg.Level, pkg.Savings)
		}
	}
}

func TestCalculatePackages_ComboDiscount(t *testing.T) {
	result := CalculatePackages(IntentCombo, Options{VideoLength: intPtr(30)})

	if result.Discount != 5 {
		t.Fatalf("expected 5%% discount, got %d", result.Discount)
	}
	s := result.Packages[0]
	if s.Price != 450000 || s.FinalPrice != 427500 || s.Savings != 22500 {
		t.Fatalf("expected S 450000 -> 427500, got %d -> %d (savings %d)", s.Price, s.FinalPrice, s.Savings)
	}
	m := result.Packages[1]
	if m.Price != 765000 || m.FinalPrice != 726750 {
		t.Fatalf("expected M 765000 -> 726750, got %d -> %d", m.Price, m.FinalPrice)
	}
}

func TestCalculatePackages_DiscountIsCapped(t *testing.T) {
	result := CalculatePackages(IntentCombo, Options{
		Duration:  DurationSixMonths,
		Platforms: []string{"air", "web", "social"},
	})

	if result.Discount != 15 {
		t.Fatalf("expected discount capped at 15, got %d", result.Discount)
	}
	if len(result.DiscountReasons) != 3 {
		t.Fatalf("expected 3 discount reasons, got %d", len(result.DiscountReasons))
	}
}

func TestCalculatePackages_CreativePlacementCountsAsCombo(t *testing.T) {
	result := CalculatePackages(IntentPlacement, Options{HasCreative: true})
	if result.Discount != 5 {
		t.Fatalf("expected 5%% discount, got %d", result.Discount)
	}
}

func TestBasePrices(t *testing.T) {
	cases := []struct {
		intent Intent
		length int
		want   int64
	}{
		{IntentProduction, 30, 350000},
		{IntentProduction, 45, 500000},
		{IntentProduction, 90, 800000},
		{IntentFilm, 5, 800000},
		{IntentFilm, 12, 1200000},
		{IntentCombo, 60, 600000},
		{Intent("unknown"), 30, 450000},
	}
	for _, tc := range cases {
		got := CalculatePackages(tc.intent, Options{VideoLength: intPtr(tc.length)}).Packages[0].Price
		if got != tc.want {
			t.Fatalf("%s/%d: expected base %d, got %d", tc.intent, tc.length, tc.want, got)
		}
	}
}

func TestFormatPackages(t *testing.T) {
	text := FormatPackages(CalculatePackages(IntentCombo, Options{}))

	if !strings.HasPrefix(text, "🥉 *Старт* (S)") {
		t.Fatalf("expected bronze tier first, got %q", text)
	}
	if !strings.Contains(text, "🎁 *Скидки применены:*") {
		t.Fatalf("expected discount block")
	}
	if !strings.Contains(digitsOnly(text), "427500") {
		t.Fatalf("expected discounted S price in output, got %q", text)
	}
}

func TestFormatRUBGroupsDigits(t *testing.T) {
	got := FormatRUB(1200000)
	if !strings.HasSuffix(got, "₽") {
		t.Fatalf("expected ruble sign, got %q", got)
	}
	if digitsOnly(got) != "1200000" {
		t.Fatalf("expected digits 1200000, got %q", got)
	}
	if got == "1200000₽" {
		t.Fatalf("expected grouping separators, got %q", got)
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func TestVideoLengthDefaultsOnlyWhenAbsent(t *testing.T) {
	absent := CalculatePackages(IntentFilm, Options{}).Packages[0].Price
	if absent != 1200000 {
		t.Fatalf("expected 30-minute default to price film at 1200000, got %d", absent)
	}

	zero := CalculatePackages(IntentFilm, Options{VideoLength: intPtr(0)}).Packages[0].Price
	if zero != 800000 {
		t.Fatalf("expected explicit zero to price film at 800000, got %d", zero)
	}
}

func intPtr(v int) *int { return &v }
