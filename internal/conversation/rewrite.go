package conversation

import (
	"strings"
	"unicode/utf8"
)

const (
	repeatedOpener    = "Смотрите,"
	alternateOpener   = "Кстати,"
	replyPrefixLength = 140
)

// Rewrite patches stock openers and verbatim repeats in a classifier reply.
// noRepeat replaces a reply identical to the previous outbound message.
func Rewrite(candidate, lastOutbound, noRepeat string) string {
	if hasOpener(candidate) && hasOpener(lastOutbound) {
		return alternateOpener + candidate[len(openerOf(candidate)):]
	}
	if candidate == lastOutbound && candidate != "" {
		return noRepeat
	}
	return candidate
}

func hasOpener(text string) bool {
	return openerOf(text) != ""
}

// openerOf returns the leading marker as written, or "" if absent.
func openerOf(text string) string {
	n := len(repeatedOpener)
	if len(text) < n {
		return ""
	}
	if !utf8.ValidString(text[:n]) {
		return ""
	}
	if strings.EqualFold(text[:n], repeatedOpener) {
		return text[:n]
	}
	return ""
}

// ReplyPrefix is the loop-guard fingerprint of a reply: the first 140 runes,
// case-folded with whitespace collapsed.
func ReplyPrefix(reply string) string {
	folded := strings.Join(strings.Fields(folder.String(reply)), " ")
	if utf8.RuneCountInString(folded) <= replyPrefixLength {
		return folded
	}
	return string([]rune(folded)[:replyPrefixLength])
}
