package content

import (
	"reflect"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
)

var (
	testNow = time.Date(2026, 1, 14, 9, 30, 0, 0, time.UTC)
	editor  = identity.Actor{UID: "editor-1", Email: "ed@example.com", Role: identity.RoleEditor}
	other   = identity.Actor{UID: "editor-2", Role: identity.RoleEditor}
	admin   = identity.Actor{UID: "admin-1", Email: "ad@example.com", Role: identity.RoleAdmin}
	super   = identity.Actor{UID: "super-1", Role: identity.RoleSuperAdmin}
)

func newDailyDraft(t *testing.T, owner identity.Actor) Document {
	t.Helper()
	doc, err := NewDocument(Draft{
		Type:  TypeDaily,
		ID:    "2026-01-14",
		Slug:  "14 January 2026 Current Affairs",
		Title: "14 January 2026 Current Affairs",
	}, owner, testNow.Add(-time.Hour))
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

func withStatus(doc Document, s Status) Document {
	doc.Status = s
	return doc
}

func TestNewDocumentDerivesProjection(t *testing.T) {
	doc := newDailyDraft(t, editor)
	if doc.Collection != CollectionCurrentAffairs {
		t.Fatalf("collection: got=%s", doc.Collection)
	}
	if doc.AnchorDay != "2026-01-14" {
		t.Fatalf("anchor: got=%q", doc.AnchorDay)
	}
	if doc.Slug != "14-january-2026-current-affairs" {
		t.Fatalf("slug: got=%q", doc.Slug)
	}
	if doc.Status != StatusDraft || doc.OwnerUID != editor.UID {
		t.Fatalf("status/owner: %s %s", doc.Status, doc.OwnerUID)
	}
	if doc.Creator().Role != identity.RoleEditor {
		t.Fatalf("creator stamp role: got=%s", doc.Creator().Role)
	}
}

func TestNewDocumentRequiresSlug(t *testing.T) {
	_, err := NewDocument(Draft{Type: TypeNotes, ID: "x", Slug: " !! "}, editor, testNow)
	if !apierr.IsCode(err, apierr.CodeSlugRequired) {
		t.Fatalf("want slug_required got=%v", err)
	}
}

func TestTransitionTable(t *testing.T) {
	statuses := []Status{StatusDraft, StatusReview, StatusScheduled, StatusPublished, StatusRejected, StatusHidden}
	want := map[[2]Status][]identity.Role{
		{StatusDraft, StatusReview}:        {identity.RoleEditor, identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusReview, StatusPublished}:    {identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusReview, StatusScheduled}:    {identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusReview, StatusRejected}:     {identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusRejected, StatusDraft}:      {identity.RoleEditor, identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusScheduled, StatusPublished}: {identity.RoleSystem},
		{StatusScheduled, StatusDraft}:     {identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusScheduled, StatusRejected}:  {identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusHidden, StatusPublished}:    {identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusHidden, StatusDraft}:        {identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusDraft, StatusHidden}:        {identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusReview, StatusHidden}:       {identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusScheduled, StatusHidden}:    {identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusPublished, StatusHidden}:    {identity.RoleAdmin, identity.RoleSuperAdmin},
		{StatusRejected, StatusHidden}:     {identity.RoleAdmin, identity.RoleSuperAdmin},
	}
	roles := []identity.Role{identity.RoleEditor, identity.RoleAdmin, identity.RoleSuperAdmin, identity.RoleSystem}
	for _, from := range statuses {
		for _, to := range statuses {
			allowed := map[identity.Role]bool{}
			for _, r := range want[[2]Status{from, to}] {
				allowed[r] = true
			}
			for _, r := range roles {
				if got := Allowed(from, to, r); got != allowed[r] {
					t.Fatalf("Allowed(%s, %s, %s): want=%v got=%v", from, to, r, allowed[r], got)
				}
			}
		}
	}
}

func TestEditorCannotReachAdminStates(t *testing.T) {
	doc := withStatus(newDailyDraft(t, editor), StatusReview)
	future := testNow.Add(time.Hour)
	for _, to := range []Status{StatusPublished, StatusScheduled, StatusHidden, StatusRejected} {
		_, err := Apply(doc, Command{To: to, PublishAt: &future, Feedback: "x"}, editor, testNow)
		if !apierr.IsCode(err, apierr.CodeIllegalTransition) {
			t.Fatalf("editor review -> %s: want illegal_transition got=%v", to, err)
		}
	}
}

func TestIllegalTransitionLeavesDocumentUntouched(t *testing.T) {
	doc := newDailyDraft(t, editor)
	before := doc
	out, err := Apply(doc, Command{To: StatusPublished}, admin, testNow)
	if !apierr.IsCode(err, apierr.CodeIllegalTransition) {
		t.Fatalf("draft -> published: want illegal_transition got=%v", err)
	}
	if apierr.KindOf(err) != apierr.KindConflict {
		t.Fatalf("kind: want conflict got=%s", apierr.KindOf(err))
	}
	if !reflect.DeepEqual(out, before) || !reflect.DeepEqual(doc, before) {
		t.Fatalf("document mutated by failed transition")
	}
}

func TestSubmitForReviewStampsAndRecordsMessage(t *testing.T) {
	doc := newDailyDraft(t, editor)
	out, err := Apply(doc, Command{To: StatusReview, EditorMessage: "Please check the economy section"}, editor, testNow)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Status != StatusReview || out.SubmittedAt == nil || !out.SubmittedAt.Equal(testNow) {
		t.Fatalf("submit: status=%s submittedAt=%v", out.Status, out.SubmittedAt)
	}
	r := out.ReviewState()
	if r.EditorMessage != "Please check the economy section" || len(r.MessageThread) != 1 || r.MessageThread[0].By != PartyEditor {
		t.Fatalf("review after submit: %+v", r)
	}
	if len(doc.ReviewState().MessageThread) != 0 {
		t.Fatalf("input document thread mutated")
	}
	if out.UpdatedBy.Data().UID != editor.UID {
		t.Fatalf("updatedBy: got=%s", out.UpdatedBy.Data().UID)
	}
}

func TestPublishLocks(t *testing.T) {
	doc := withStatus(newDailyDraft(t, editor), StatusReview)
	out, err := Apply(doc, Command{To: StatusPublished}, admin, testNow)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !out.IsLocked || out.PublishedAt == nil || !out.PublishedAt.Equal(testNow) {
		t.Fatalf("publish side effects: locked=%v publishedAt=%v", out.IsLocked, out.PublishedAt)
	}
}

func TestScheduleRequiresFutureTime(t *testing.T) {
	doc := withStatus(newDailyDraft(t, editor), StatusReview)
	past := testNow.Add(-time.Minute)
	if _, err := Apply(doc, Command{To: StatusScheduled, PublishAt: &past}, admin, testNow); !apierr.IsCode(err, apierr.CodeScheduleInPast) {
		t.Fatalf("past schedule: want schedule_in_past got=%v", err)
	}
	if _, err := Apply(doc, Command{To: StatusScheduled, PublishAt: &testNow}, admin, testNow); !apierr.IsCode(err, apierr.CodeScheduleInPast) {
		t.Fatalf("schedule at now: want schedule_in_past got=%v", err)
	}
	if _, err := Apply(doc, Command{To: StatusScheduled}, admin, testNow); !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("missing publishAt: want validation got=%v", err)
	}
	future := testNow.Add(2 * time.Hour)
	out, err := Apply(doc, Command{To: StatusScheduled, PublishAt: &future}, admin, testNow)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if out.Status != StatusScheduled || out.PublishedAt == nil || !out.PublishedAt.After(testNow) {
		t.Fatalf("scheduled invariant broken: %v", out.PublishedAt)
	}
}

// Scenario B: rejecting an editor's document needs feedback.
func TestRejectRequiresFeedbackForEditorDocuments(t *testing.T) {
	doc := withStatus(newDailyDraft(t, editor), StatusReview)
	if _, err := Apply(doc, Command{To: StatusRejected, Feedback: "   "}, admin, testNow); !apierr.IsCode(err, apierr.CodeFeedbackRequired) {
		t.Fatalf("empty feedback: want feedback_required got=%v", err)
	}
	out, err := Apply(doc, Command{To: StatusRejected, Feedback: "Add sources"}, admin, testNow)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	r := out.ReviewState()
	if r.ReviewedAt == nil || r.ReviewedByUID != admin.UID || r.Feedback != "Add sources" {
		t.Fatalf("review stamps: %+v", r)
	}
	view := InlineThread(r.MessageThread, InlinePerParty)
	if len(view.Messages) != 1 || view.Messages[0].Text != "Add sources" || view.Messages[0].By != PartyAdmin {
		t.Fatalf("thread after reject: %+v", view)
	}
}

func TestRejectAdminDocumentWithoutFeedback(t *testing.T) {
	doc := withStatus(newDailyDraft(t, admin), StatusReview)
	out, err := Apply(doc, Command{To: StatusRejected}, super, testNow)
	if err != nil {
		t.Fatalf("reject admin-authored doc without feedback: %v", err)
	}
	if out.Status != StatusRejected {
		t.Fatalf("status: got=%s", out.Status)
	}
}

func TestRevisingRejectedClearsReviewStamps(t *testing.T) {
	doc := withStatus(newDailyDraft(t, editor), StatusReview)
	rejected, err := Apply(doc, Command{To: StatusRejected, Feedback: "Add sources"}, admin, testNow)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	draft, err := Apply(rejected, Command{To: StatusDraft}, editor, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	r := draft.ReviewState()
	if r.Feedback != "" || r.ReviewedAt != nil || r.ReviewedByUID != "" {
		t.Fatalf("rejected stamps not cleared: %+v", r)
	}
	if len(r.MessageThread) != 1 {
		t.Fatalf("thread should be preserved, got %d entries", len(r.MessageThread))
	}
}

func TestSweepOnlyPromotesScheduled(t *testing.T) {
	future := testNow.Add(time.Hour)
	doc := withStatus(newDailyDraft(t, editor), StatusReview)
	scheduled, err := Apply(doc, Command{To: StatusScheduled, PublishAt: &future}, admin, testNow)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := Apply(scheduled, Command{To: StatusPublished}, admin, testNow); !apierr.IsCode(err, apierr.CodeIllegalTransition) {
		t.Fatalf("admin scheduled -> published: want illegal_transition got=%v", err)
	}
	out, err := Apply(scheduled, Command{To: StatusPublished}, identity.SystemActor, future.Add(time.Second))
	if err != nil {
		t.Fatalf("system promote: %v", err)
	}
	if !out.IsLocked || out.Status != StatusPublished {
		t.Fatalf("promotion side effects: %+v", out)
	}
}

func TestLockBlocksEditorsButNotAdmins(t *testing.T) {
	doc := newDailyDraft(t, editor)
	locked, err := SetLock(doc, true, admin, testNow)
	if err != nil {
		t.Fatalf("SetLock: %v", err)
	}
	title := "new title"
	if _, err := ApplyEdit(locked, Patch{Title: &title}, editor, testNow); !apierr.IsCode(err, apierr.CodeDocumentLocked) {
		t.Fatalf("editor edit on locked: want document_locked got=%v", err)
	}
	if _, err := Apply(locked, Command{To: StatusReview}, editor, testNow); !apierr.IsCode(err, apierr.CodeDocumentLocked) {
		t.Fatalf("editor transition on locked: want document_locked got=%v", err)
	}
	if _, err := PostMessage(locked, editor, "hello", testNow); !apierr.IsCode(err, apierr.CodeDocumentLocked) {
		t.Fatalf("editor message on locked: want document_locked got=%v", err)
	}
	for _, a := range []identity.Actor{admin, super} {
		out, err := ApplyEdit(locked, Patch{Title: &title}, a, testNow)
		if err != nil {
			t.Fatalf("%s edit on locked: %v", a.Role, err)
		}
		if !out.IsLocked {
			t.Fatalf("edit must not clear the lock")
		}
	}
	if _, err := SetLock(locked, false, editor, testNow); !apierr.IsKind(err, apierr.KindAuthorization) {
		t.Fatalf("editor unlock: want authorization got=%v", err)
	}
}

func TestEditorOwnership(t *testing.T) {
	doc := newDailyDraft(t, editor)
	title := "hijack"
	if _, err := ApplyEdit(doc, Patch{Title: &title}, other, testNow); !apierr.IsCode(err, apierr.CodeNotOwner) {
		t.Fatalf("other editor: want not_owner got=%v", err)
	}
}

func TestEditorEditsOnlyDrafts(t *testing.T) {
	doc := withStatus(newDailyDraft(t, editor), StatusReview)
	title := "late change"
	if _, err := ApplyEdit(doc, Patch{Title: &title}, editor, testNow); !apierr.IsCode(err, apierr.CodeIllegalTransition) {
		t.Fatalf("editor edit in review: want illegal_transition got=%v", err)
	}
}

func TestApplyEditMetaMustMatchType(t *testing.T) {
	doc := newDailyDraft(t, editor)
	out, err := ApplyEdit(doc, Patch{Meta: []byte(`{"caDate":"2026-01-15"}`)}, editor, testNow)
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	if out.AnchorDay != "2026-01-15" {
		t.Fatalf("anchor: got=%q", out.AnchorDay)
	}
	if _, err := ApplyEdit(doc, Patch{Meta: []byte(`{"caDate":"not-a-date"}`)}, editor, testNow); !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("bad meta: want validation got=%v", err)
	}
}

func TestSetMetaRejectsWrongVariant(t *testing.T) {
	doc := newDailyDraft(t, editor)
	if err := doc.SetMeta(QuizMeta{Category: QuizCategoryDailyCA}); err == nil {
		t.Fatalf("quiz meta on daily document should fail")
	}
	monthly := Document{Type: TypeMonthly, Review: datatypes.NewJSONType(Review{})}
	if err := monthly.SetMeta(MonthlyMeta{CADate: "2026-03-17"}); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if monthly.AnchorDay != "2026-03-01" {
		t.Fatalf("monthly anchor must snap to first of month, got=%q", monthly.AnchorDay)
	}
}
