package observability

import (
	"context"
	"testing"

	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders([]string{"api-key=abc", "broken", " x = y ", "empty="})
	if len(got) != 2 || got["api-key"] != "abc" || got["x"] != "y" {
		t.Fatalf("unexpected headers: %v", got)
	}
	if ParseHeaders(nil) != nil {
		t.Fatalf("no parts should yield nil")
	}
}

func TestSampleRatioBounds(t *testing.T) {
	cases := map[float64]float64{0: 0.1, -1: 0.1, 0.5: 0.5, 3: 1}
	for in, want := range cases {
		if got := sampleRatio(OtelConfig{SampleRatio: in}); got != want {
			t.Fatalf("ratio %v: want=%v got=%v", in, want, got)
		}
	}
}

func TestInitOTelDisabledReturnsNil(t *testing.T) {
	if shutdown := InitOTel(context.Background(), logger.Nop(), OtelConfig{}); shutdown != nil {
		t.Fatalf("disabled tracing should not return a shutdown func")
	}
	if Tracer("sweep") == nil {
		t.Fatalf("tracer must never be nil")
	}
}
