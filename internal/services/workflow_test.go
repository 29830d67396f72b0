package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/examprep-backend/internal/data/repos"
	"github.com/yungbote/examprep-backend/internal/data/repos/testutil"
	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/events"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
	"github.com/yungbote/examprep-backend/internal/realtime"
)

var (
	editor      = identity.Actor{UID: "ed-1", Email: "ed-1@example.com", Role: identity.RoleEditor}
	otherEditor = identity.Actor{UID: "ed-2", Email: "ed-2@example.com", Role: identity.RoleEditor}
	admin       = identity.Actor{UID: "ad-1", Email: "ad-1@example.com", Role: identity.RoleAdmin}
)

type contentFixture struct {
	db        *gorm.DB
	docs      repos.DocumentRepo
	workflow  WorkflowService
	identity  DocumentIdentityService
	publisher *recordingPublisher
	emitter   *recordingEmitter
	clock     *testClock
}

func newContentFixture(t *testing.T) *contentFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	f := &contentFixture{
		db:        db,
		publisher: &recordingPublisher{},
		emitter:   &recordingEmitter{},
		clock:     newTestClock(time.Date(2026, 1, 14, 6, 0, 0, 0, time.UTC)),
	}
	f.docs = repos.NewDocumentRepo(db, log)
	notifier := NewContentNotifier(log, f.publisher, f.emitter, nil)
	f.workflow = NewWorkflowService(log, f.docs, notifier, nil, f.clock.Now)
	f.identity = NewDocumentIdentityService(log, f.docs, f.workflow, notifier, f.clock.Now)
	return f
}

func (f *contentFixture) createDaily(t *testing.T, actor identity.Actor, day time.Time) *content.Document {
	t.Helper()
	sug, err := f.identity.Suggest(content.TypeDaily, day, "")
	require.NoError(t, err)
	doc, err := f.identity.Create(context.Background(), actor, content.Draft{
		Type: content.TypeDaily, ID: sug.DocID, Slug: sug.Slug, Title: sug.Title,
	})
	require.NoError(t, err)
	return doc
}

func (f *contentFixture) stored(t *testing.T, doc *content.Document) *content.Document {
	t.Helper()
	out, err := f.docs.Get(dbctx.Of(context.Background()), doc.Collection, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, out)
	return out
}

func TestCreateDailyRejectsDuplicates(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	day := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)

	doc := f.createDaily(t, editor, day)
	require.Equal(t, "2026-01-14", doc.ID)
	require.Equal(t, "14-january-2026-current-affairs", doc.Slug)
	require.Equal(t, "14 January 2026 Current Affairs", doc.Title)
	require.Equal(t, content.StatusDraft, doc.Status)
	require.Equal(t, "2026-01-14", doc.AnchorDay)

	// same docId from a second create flow
	_, err := f.identity.Create(ctx, otherEditor, content.Draft{
		Type: content.TypeDaily, ID: "2026-01-14", Slug: "another-slug", Title: "dup",
	})
	requireCode(t, err, apierr.CodeDocIDExists)
	require.Equal(t, apierr.KindConflict, apierr.KindOf(err))

	// same slug under another id, monthly shares the namespace
	_, err = f.identity.Create(ctx, otherEditor, content.Draft{
		Type: content.TypeMonthly, ID: "Jan-2026-Monthly-CA", Slug: doc.Slug, Title: "dup",
	})
	requireCode(t, err, apierr.CodeSlugTaken)

	// notes have their own namespace
	_, err = f.identity.Create(ctx, otherEditor, content.Draft{
		Type: content.TypeNotes, ID: "polity", Slug: doc.Slug, Title: "Polity",
	})
	require.NoError(t, err)

	require.Equal(t, []events.Kind{events.KindCreated, events.KindCreated}, f.publisher.kinds())
}

func TestCheckUniqueAndValidateSlug(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	doc := f.createDaily(t, editor, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))

	free, err := f.identity.CheckUnique(ctx, content.TypeDaily, "2026-01-14")
	require.NoError(t, err)
	require.False(t, free)
	free, err = f.identity.CheckUnique(ctx, content.TypeDaily, "2026-01-15")
	require.NoError(t, err)
	require.True(t, free)

	_, err = f.identity.ValidateSlug(ctx, content.TypeDaily, "  !!  ", "")
	requireCode(t, err, apierr.CodeSlugRequired)

	_, err = f.identity.ValidateSlug(ctx, content.TypeMonthly, "14 January 2026 Current Affairs", "")
	requireCode(t, err, apierr.CodeSlugTaken)

	slug, err := f.identity.ValidateSlug(ctx, content.TypeDaily, doc.Slug, doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc.Slug, slug)

	slug, err = f.identity.ValidateSlug(ctx, content.TypeQuiz, doc.Slug, "")
	require.NoError(t, err)
	require.Equal(t, doc.Slug, slug)
}

func TestUpdateSlugCollision(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	a := f.createDaily(t, editor, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))
	b := f.createDaily(t, editor, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	_, err := f.identity.UpdateSlug(ctx, editor, content.TypeDaily, b.ID, a.Slug)
	requireCode(t, err, apierr.CodeSlugTaken)
	require.Equal(t, b.Slug, f.stored(t, b).Slug)

	out, err := f.identity.UpdateSlug(ctx, editor, content.TypeDaily, b.ID, "Fifteenth of January")
	require.NoError(t, err)
	require.Equal(t, "fifteenth-of-january", out.Slug)
}

func TestRejectRequiresFeedbackForEditorDocuments(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	doc := f.createDaily(t, editor, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))

	_, err := f.workflow.Transition(ctx, editor, content.TypeDaily, doc.ID, content.Command{To: content.StatusReview, EditorMessage: "Ready"})
	require.NoError(t, err)
	before := f.stored(t, doc)

	_, err = f.workflow.Transition(ctx, admin, content.TypeDaily, doc.ID, content.Command{To: content.StatusRejected})
	requireCode(t, err, apierr.CodeFeedbackRequired)
	after := f.stored(t, doc)
	require.Equal(t, content.StatusReview, after.Status)
	require.True(t, before.UpdatedAt.Equal(after.UpdatedAt))

	f.clock.Tick(time.Minute)
	out, err := f.workflow.Transition(ctx, admin, content.TypeDaily, doc.ID, content.Command{To: content.StatusRejected, Feedback: "Add sources"})
	require.NoError(t, err)
	require.Equal(t, content.StatusRejected, out.Status)

	reloaded := f.stored(t, doc)
	review := reloaded.ReviewState()
	require.NotNil(t, review.ReviewedAt)
	require.Equal(t, "ad-1", review.ReviewedByUID)
	require.Equal(t, "Add sources", review.Feedback)

	view, err := f.workflow.Thread(ctx, editor, content.TypeDaily, doc.ID)
	require.NoError(t, err)
	require.Len(t, view.Messages, 2)
	last := view.Messages[len(view.Messages)-1]
	require.Equal(t, content.PartyAdmin, last.By)
	require.Equal(t, "Add sources", last.Text)
}

func TestAdminAuthoredRejectWithoutFeedback(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	doc := f.createDaily(t, admin, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))
	_, err := f.workflow.Transition(ctx, admin, content.TypeDaily, doc.ID, content.Command{To: content.StatusReview})
	require.NoError(t, err)
	_, err = f.workflow.Transition(ctx, admin, content.TypeDaily, doc.ID, content.Command{To: content.StatusRejected})
	require.NoError(t, err)
}

func TestPublishLocksAgainstEditors(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	doc := f.createDaily(t, editor, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))

	_, err := f.workflow.Transition(ctx, editor, content.TypeDaily, doc.ID, content.Command{To: content.StatusPublished})
	requireCode(t, err, apierr.CodeIllegalTransition)

	_, err = f.workflow.Transition(ctx, editor, content.TypeDaily, doc.ID, content.Command{To: content.StatusReview})
	require.NoError(t, err)
	pub, err := f.workflow.Transition(ctx, admin, content.TypeDaily, doc.ID, content.Command{To: content.StatusPublished})
	require.NoError(t, err)
	require.True(t, pub.IsLocked)
	require.NotNil(t, pub.PublishedAt)

	title := "Edited"
	_, err = f.workflow.Edit(ctx, editor, content.TypeDaily, doc.ID, content.Patch{Title: &title})
	requireCode(t, err, apierr.CodeDocumentLocked)
	_, err = f.workflow.PostMessage(ctx, editor, content.TypeDaily, doc.ID, "please unlock")
	requireCode(t, err, apierr.CodeDocumentLocked)

	out, err := f.workflow.Edit(ctx, admin, content.TypeDaily, doc.ID, content.Patch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Edited", out.Title)
	require.True(t, out.IsLocked, "admin edits must not clear the lock")

	unlocked, err := f.workflow.SetLock(ctx, admin, content.TypeDaily, doc.ID, false)
	require.NoError(t, err)
	require.False(t, unlocked.IsLocked)

	_, err = f.workflow.SetLock(ctx, editor, content.TypeDaily, doc.ID, true)
	requireCode(t, err, apierr.CodeForbidden)

	ref := realtime.DocChannel(content.Ref{Type: content.TypeDaily, ID: doc.ID}.String())
	require.GreaterOrEqual(t, f.emitter.on(ref, realtime.SSEEventContentChanged), 4)
}

func TestScheduleRequiresFutureTime(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	doc := f.createDaily(t, editor, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))
	_, err := f.workflow.Transition(ctx, editor, content.TypeDaily, doc.ID, content.Command{To: content.StatusReview})
	require.NoError(t, err)

	past := f.clock.Now().Add(-time.Minute)
	_, err = f.workflow.Transition(ctx, admin, content.TypeDaily, doc.ID, content.Command{To: content.StatusScheduled, PublishAt: &past})
	requireCode(t, err, apierr.CodeScheduleInPast)

	future := f.clock.Now().Add(time.Hour)
	out, err := f.workflow.Transition(ctx, admin, content.TypeDaily, doc.ID, content.Command{To: content.StatusScheduled, PublishAt: &future})
	require.NoError(t, err)
	require.Equal(t, content.StatusScheduled, out.Status)
	require.True(t, out.PublishedAt.Equal(future))
}

func TestEditorsCannotTouchOthersDocuments(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	doc := f.createDaily(t, editor, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))

	_, err := f.workflow.Get(ctx, otherEditor, content.TypeDaily, doc.ID)
	requireCode(t, err, apierr.CodeNotOwner)
	_, err = f.workflow.Transition(ctx, otherEditor, content.TypeDaily, doc.ID, content.Command{To: content.StatusReview})
	requireCode(t, err, apierr.CodeNotOwner)

	list, err := f.workflow.List(ctx, otherEditor, repos.DocumentListFilter{Type: content.TypeDaily})
	require.NoError(t, err)
	require.Empty(t, list)
	list, err = f.workflow.List(ctx, admin, repos.DocumentListFilter{Type: content.TypeDaily})
	require.NoError(t, err)
	require.Len(t, list, 1)

	// a monthly lookup never returns a daily document from the shared collection
	_, err = f.workflow.Get(ctx, admin, content.TypeMonthly, doc.ID)
	requireCode(t, err, apierr.CodeDocumentNotFound)
}

func TestAutosaveOnlyTouchesDrafts(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	doc := f.createDaily(t, editor, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))

	body := []byte(`[{"type":"paragraph","text":"hello"}]`)
	out, err := f.workflow.Autosave(ctx, editor, content.TypeDaily, doc.ID, content.Patch{Body: body})
	require.NoError(t, err)
	require.JSONEq(t, string(body), string(out.Body))

	_, err = f.workflow.Transition(ctx, editor, content.TypeDaily, doc.ID, content.Command{To: content.StatusReview})
	require.NoError(t, err)
	_, err = f.workflow.Autosave(ctx, admin, content.TypeDaily, doc.ID, content.Patch{Body: body})
	requireCode(t, err, apierr.CodeIllegalTransition)
}

// racingRepo changes the stored status between the read and the write.
type racingRepo struct {
	repos.DocumentRepo
	db *gorm.DB
}

func (r *racingRepo) Get(dbc dbctx.Context, c content.Collection, id string) (*content.Document, error) {
	doc, err := r.DocumentRepo.Get(dbc, c, id)
	if err != nil || doc == nil {
		return doc, err
	}
	if err := r.db.Model(&content.Document{}).
		Where("collection = ? AND id = ?", c, id).
		Update("status", content.StatusHidden).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func TestConcurrentChangeIsStaleWrite(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	doc := f.createDaily(t, editor, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))

	racing := NewWorkflowService(testutil.Logger(t), &racingRepo{DocumentRepo: f.docs, db: f.db}, nil, nil, f.clock.Now)
	_, err := racing.Transition(ctx, editor, content.TypeDaily, doc.ID, content.Command{To: content.StatusReview})
	requireCode(t, err, apierr.CodeStaleWrite)
	require.Equal(t, content.StatusHidden, f.stored(t, doc).Status)
}

func TestOlderMessagesPaging(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	doc := f.createDaily(t, editor, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		f.clock.Tick(time.Minute)
		_, err := f.workflow.PostMessage(ctx, editor, content.TypeDaily, doc.ID, "editor note")
		require.NoError(t, err)
		f.clock.Tick(time.Minute)
		_, err = f.workflow.PostMessage(ctx, admin, content.TypeDaily, doc.ID, "admin note")
		require.NoError(t, err)
	}

	view, err := f.workflow.Thread(ctx, editor, content.TypeDaily, doc.ID)
	require.NoError(t, err)
	require.Len(t, view.Messages, 4)
	require.True(t, view.HasOlder)
	require.Equal(t, 6, view.OlderCount)

	older, more, err := f.workflow.OlderMessages(ctx, editor, content.TypeDaily, doc.ID, 0, 4)
	require.NoError(t, err)
	require.Len(t, older, 4)
	require.True(t, more)
	older, more, err = f.workflow.OlderMessages(ctx, editor, content.TypeDaily, doc.ID, 1, 4)
	require.NoError(t, err)
	require.Len(t, older, 2)
	require.False(t, more)

	stored := f.stored(t, doc).ReviewState()
	require.Equal(t, "editor note", stored.EditorMessage)
	require.Equal(t, "admin note", stored.Feedback)
}

func TestCanWatchFollowsReadAccess(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()
	doc := f.createDaily(t, editor, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))
	ref := doc.Ref().String()

	require.NoError(t, f.workflow.CanWatch(ctx, editor, ref))
	require.NoError(t, f.workflow.CanWatch(ctx, admin, ref))
	requireCode(t, f.workflow.CanWatch(ctx, otherEditor, ref), apierr.CodeNotOwner)
	requireCode(t, f.workflow.CanWatch(ctx, admin, "current_affairs/2030-01-01"), apierr.CodeDocumentNotFound)
	requireCode(t, f.workflow.CanWatch(ctx, admin, "current_affairs"), apierr.CodeInvalidInput)
}
