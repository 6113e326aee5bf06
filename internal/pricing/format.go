package pricing

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var medals = []string{"🥉", "🥈", "🥇"}

// FormatRUB renders an amount with Russian digit grouping, e.g. "450 000₽".
func FormatRUB(amount int64) string {
	p := message.NewPrinter(language.Russian)
	return p.Sprintf("%d", amount) + "₽"
}

// FormatPackages renders a Result as a chat message in Markdown.
func FormatPackages(r Result) string {
	var b strings.Builder
	for i, pkg := range r.Packages {
		icon := ""
		if i < len(medals) {
			icon = medals[i] + " "
		}
		b.WriteString(icon + "*" + pkg.Name + "* (" + pkg.Level + ")\n")
		b.WriteString(pkg.Description + "\n")
		if r.Discount > 0 {
			b.WriteString("~" + FormatRUB(pkg.Price) + "~ → *" + FormatRUB(pkg.FinalPrice) + "*\n")
			b.WriteString("💰 Экономия: " + FormatRUB(pkg.Savings) + "\n")
		} else {
			b.WriteString("💰 *" + FormatRUB(pkg.FinalPrice) + "*\n")
		}
		b.WriteString("\n")
	}
	if r.Discount > 0 && len(r.DiscountReasons) > 0 {
		b.WriteString("🎁 *Скидки применены:*\n")
		for _, reason := range r.DiscountReasons {
			b.WriteString("• " + reason + "\n")
		}
	}
	return strings.TrimSpace(b.String())
}
