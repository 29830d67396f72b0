package ctxutil

import (
	"context"
	"testing"
)

func TestLogFieldsEmptyContext(t *testing.T) {
	if got := LogFields(context.Background()); len(got) != 0 {
		t.Fatalf("want no fields, got %v", got)
	}
	if GetTraceData(context.Background()) != nil || GetRequestData(context.Background()) != nil {
		t.Fatalf("bare context should carry nothing")
	}
}

func TestLogFieldsCarriesTraceAndCaller(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t-1", RequestID: "r-1"})
	ctx = WithRequestData(ctx, &RequestData{UID: "ed-1", SessionID: "s-1", Role: "editor"})

	got := LogFields(ctx)
	want := []interface{}{"trace_id", "t-1", "request_id", "r-1", "uid", "ed-1", "session_id", "s-1", "role", "editor"}
	if len(got) != len(want) {
		t.Fatalf("len: want=%d got=%d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field %d: want=%v got=%v", i, want[i], got[i])
		}
	}
}
