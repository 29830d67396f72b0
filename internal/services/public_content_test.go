package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/examprep-backend/internal/data/repos"
	"github.com/yungbote/examprep-backend/internal/data/repos/testutil"
	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
)

func TestPublicPageHidesUnpublishedWithoutPreview(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	clock := newTestClock(time.Date(2026, 1, 14, 6, 0, 0, 0, time.UTC))
	at := clock.Now()

	testutil.SeedDocument(t, ctx, db,
		content.Draft{Type: content.TypeNotes, ID: "polity", Slug: "indian-polity", Title: "Indian Polity"},
		content.StatusReview, nil, editor, at)
	testutil.SeedDocument(t, ctx, db,
		content.Draft{Type: content.TypeNotes, ID: "economy", Slug: "economy", Title: "Economy"},
		content.StatusPublished, &at, admin, at)

	docs := repos.NewDocumentRepo(db, log)
	previews := NewPreviewService(log, repos.NewPreviewTokenRepo(db, log), docs, nil, clock.Now)
	related := NewRelatedService(log, docs, nil, nil, RelatedServiceConfig{Now: clock.Now})
	svc := NewPublicContentService(log, docs, previews, related)

	page, err := svc.Page(ctx, content.TypeNotes, "economy", "", false)
	require.NoError(t, err)
	require.False(t, page.Preview)
	require.Equal(t, "economy", page.Document.ID)

	_, err = svc.Page(ctx, content.TypeNotes, "indian-polity", "", false)
	requireCode(t, err, apierr.CodeDocumentNotFound)

	_, err = svc.Page(ctx, content.TypeNotes, "indian-polity", "forged", false)
	requireCode(t, err, apierr.CodeDocumentNotFound)

	tok, err := previews.Issue(ctx, editor, content.TypeNotes, "polity", "")
	require.NoError(t, err)
	page, err = svc.Page(ctx, content.TypeNotes, "indian-polity", tok.Token, true)
	require.NoError(t, err)
	require.True(t, page.Preview)

	clock.Tick(16 * time.Minute)
	_, err = svc.Page(ctx, content.TypeNotes, "indian-polity", tok.Token, false)
	requireCode(t, err, apierr.CodeDocumentNotFound)

	_, err = svc.Page(ctx, content.TypeNotes, "missing", "", false)
	requireCode(t, err, apierr.CodeDocumentNotFound)
}

func TestPublicPageOmitsStaffData(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 14, 6, 0, 0, 0, time.UTC)

	testutil.SeedDocument(t, ctx, db,
		content.Draft{Type: content.TypeNotes, ID: "geography", Slug: "geography", Title: "Geography"},
		content.StatusPublished, &at, editor, at)

	docs := repos.NewDocumentRepo(db, log)
	svc := NewPublicContentService(log, docs, nil, nil)

	page, err := svc.Page(ctx, content.TypeNotes, "geography", "", false)
	require.NoError(t, err)
	require.Equal(t, "Geography", page.Document.Title)

	raw, err := json.Marshal(page)
	require.NoError(t, err)
	body := string(raw)
	for _, key := range []string{"email", "review", "ownerUid", "createdBy", "updatedBy", "ed-1"} {
		require.NotContains(t, body, key)
	}
}
