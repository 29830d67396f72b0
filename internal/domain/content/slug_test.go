package content

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"14 January 2026 Current Affairs", "14-january-2026-current-affairs"},
		{"  Polity: Fundamental Rights!  ", "polity-fundamental-rights"},
		{"GS-Paper  --  II", "gs-paper-ii"},
		{"Art & Culture", "art-culture"},
		{"snake_case stays", "snake_case-stays"},
		{"14\u00a0January 2026", "14-january-2026"},
		{"a\vb", "a-b"},
		{"a\u2003b", "a-b"},
		{"\ufeffModern\u3000History\u00a0", "modern-history"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q): want=%q got=%q", tc.in, tc.want, got)
		}
	}
}

func TestNormalizeDocID(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Indian  Polity Notes", "Indian-Polity-Notes"},
		{" UPSC -- 2023 ", "UPSC-2023"},
		{"already-normal", "already-normal"},
		{"Indian\u00a0Polity\u202fNotes", "Indian-Polity-Notes"},
		{"\u2009UPSC\v2023\u2009", "UPSC-2023"},
	}
	for _, tc := range cases {
		if got := NormalizeDocID(tc.in); got != tc.want {
			t.Fatalf("NormalizeDocID(%q): want=%q got=%q", tc.in, tc.want, got)
		}
	}
}
