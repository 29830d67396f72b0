package preview

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/examprep-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/examprep-backend/internal/domain/preview"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
)

func TestTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewTokenRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(context.Background())
	issued := time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)

	for _, v := range []string{"live", "stale"} {
		created := issued
		if v == "stale" {
			created = issued.Add(-time.Hour)
		}
		tok := &domain.Token{Token: v, DocID: "2026-01-14", Slug: "s", Type: "daily", CreatedAt: created, ExpiresAt: created.Add(domain.TTL)}
		if err := repo.Create(dbc, tok); err != nil {
			t.Fatalf("Create %s: %v", v, err)
		}
	}

	got, err := repo.Get(dbc, "live")
	if err != nil || got == nil || got.DocID != "2026-01-14" {
		t.Fatalf("Get: tok=%v err=%v", got, err)
	}

	n, err := repo.DeleteExpired(dbc, issued.Add(time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired: want=1 got=%d err=%v", n, err)
	}
	if err := repo.Delete(dbc, "live"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	gone, err := repo.Get(dbc, "live")
	if err != nil || gone != nil {
		t.Fatalf("after delete: tok=%v err=%v", gone, err)
	}
}
