// Package sanitize cleans free text that arrives from the web app before it
// is forwarded into operator chats.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
	entities   = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ")
)

// StripHTML removes tags, decodes the common entities and strips again so
// encoded tags do not survive.
func StripHTML(s string) string {
	s = htmlTag.ReplaceAllString(s, "")
	s = entities.Replace(s)
	return htmlTag.ReplaceAllString(s, "")
}

// Text strips HTML, drops control characters and collapses whitespace to
// single spaces.
func Text(s string) string {
	s = StripHTML(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
