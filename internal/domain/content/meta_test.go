package content

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMetaColumnCarriesKind(t *testing.T) {
	col := MetaColumn{Meta: QuizMeta{QuizDate: "2026-01-14", Category: QuizCategoryDailyCA, QuestionCount: 10}}
	raw, err := json.Marshal(col)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"kind":"quiz"`) {
		t.Fatalf("kind missing: %s", raw)
	}
	var back MetaColumn
	if err := back.Scan(raw); err != nil {
		t.Fatalf("scan: %v", err)
	}
	q, ok := back.Meta.(QuizMeta)
	if !ok {
		t.Fatalf("variant: want QuizMeta got=%T", back.Meta)
	}
	if q.Category != QuizCategoryDailyCA || q.QuestionCount != 10 {
		t.Fatalf("decoded quiz meta: %+v", q)
	}
}

func TestProjectCoversEveryType(t *testing.T) {
	for _, typ := range AllTypes {
		m := EmptyMeta(typ)
		if m == nil || m.Kind() != typ {
			t.Fatalf("EmptyMeta(%s) = %T", typ, m)
		}
		_ = Project(m)
		if typ.Collection() == "" {
			t.Fatalf("%s has no collection", typ)
		}
	}
	if TypeDaily.Collection() != TypeMonthly.Collection() {
		t.Fatalf("daily and monthly must share a slug scope")
	}
}
