package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := map[string]string{
		"<b>Эфир</b>  30 сек":                   "Эфир 30 сек",
		"&lt;script&gt;alert(1)&lt;/script&gt;": "alert(1)",
		"строка\nвторая\x00":                    "строка вторая",
		"  plain  ":                             "plain",
	}
	for in, want := range cases {
		if got := Text(in); got != want {
			t.Fatalf("Text(%q): expected %q, got %q", in, want, got)
		}
	}
}
