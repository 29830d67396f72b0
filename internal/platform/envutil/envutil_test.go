package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("EP_TEST_INT", "nope")
	if got := Int("EP_TEST_INT", 7); got != 7 {
		t.Fatalf("Int: want=7 got=%d", got)
	}
	t.Setenv("EP_TEST_INT", " 3 ")
	if got := Int("EP_TEST_INT", 7); got != 3 {
		t.Fatalf("Int: want=3 got=%d", got)
	}
}

func TestFloat(t *testing.T) {
	t.Setenv("EP_TEST_FLOAT", "0.25")
	if got := Float("EP_TEST_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float: want=0.25 got=%v", got)
	}
	t.Setenv("EP_TEST_FLOAT", "x")
	if got := Float("EP_TEST_FLOAT", 1); got != 1 {
		t.Fatalf("Float: want=1 got=%v", got)
	}
}

func TestDurationAcceptsSecondsAndSyntax(t *testing.T) {
	t.Setenv("EP_TEST_DUR", "45")
	if got := Duration("EP_TEST_DUR", time.Second); got != 45*time.Second {
		t.Fatalf("Duration: want=45s got=%s", got)
	}
	t.Setenv("EP_TEST_DUR", "2m")
	if got := Duration("EP_TEST_DUR", time.Second); got != 2*time.Minute {
		t.Fatalf("Duration: want=2m got=%s", got)
	}
}

func TestListAndBool(t *testing.T) {
	t.Setenv("EP_TEST_LIST", "a, ,b,")
	got := List("EP_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: got=%v", got)
	}
	t.Setenv("EP_TEST_BOOL", "off")
	if Bool("EP_TEST_BOOL", true) {
		t.Fatalf("Bool: want=false")
	}
}
