package preview

import (
	"testing"
	"time"
)

func TestNewValueIsURLSafeAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		v, err := NewValue()
		if err != nil {
			t.Fatalf("NewValue: %v", err)
		}
		if len(v) != 43 {
			t.Fatalf("length: want=43 got=%d", len(v))
		}
		if seen[v] {
			t.Fatalf("duplicate token %q", v)
		}
		seen[v] = true
	}
}

func TestExpiredIsInclusive(t *testing.T) {
	issued := time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)
	tok := Token{CreatedAt: issued, ExpiresAt: issued.Add(TTL)}
	if tok.Expired(issued.Add(14 * time.Minute)) {
		t.Fatalf("token should be live at +14m")
	}
	if !tok.Expired(issued.Add(TTL)) {
		t.Fatalf("token should be expired exactly at expiresAt")
	}
}

func TestCheckOrder(t *testing.T) {
	tok := Token{Type: "daily", Slug: "s", DocID: "d"}
	cases := []struct {
		want Expectation
		out  string
	}{
		{Expectation{Type: "daily", Slug: "s", DocID: "d"}, ""},
		{Expectation{Type: "notes", Slug: "x"}, ReasonTypeMismatch},
		{Expectation{Type: "daily", Slug: "x"}, ReasonSlugMismatch},
		{Expectation{DocID: "other"}, ReasonDocIDMismatch},
		{Expectation{}, ""},
	}
	for _, tc := range cases {
		if got := tok.Check(tc.want); got != tc.out {
			t.Fatalf("Check(%+v): want=%q got=%q", tc.want, tc.out, got)
		}
	}
}
