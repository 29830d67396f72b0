package content

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
)

type roleSet map[identity.Role]bool

var (
	anyAuthor = roleSet{identity.RoleEditor: true, identity.RoleAdmin: true, identity.RoleSuperAdmin: true}
	adminOnly = roleSet{identity.RoleAdmin: true, identity.RoleSuperAdmin: true}
	sweepOnly = roleSet{identity.RoleSystem: true}
)

// transitions[from][to] lists the roles allowed to move a document.
var transitions = map[Status]map[Status]roleSet{
	StatusDraft: {
		StatusReview: anyAuthor,
		StatusHidden: adminOnly,
	},
	StatusReview: {
		StatusPublished: adminOnly,
		StatusScheduled: adminOnly,
		StatusRejected:  adminOnly,
		StatusHidden:    adminOnly,
	},
	StatusScheduled: {
		StatusPublished: sweepOnly,
		StatusDraft:     adminOnly,
		StatusRejected:  adminOnly,
		StatusHidden:    adminOnly,
	},
	StatusPublished: {
		StatusHidden: adminOnly,
	},
	StatusRejected: {
		StatusDraft:  anyAuthor,
		StatusHidden: adminOnly,
	},
	StatusHidden: {
		StatusPublished: adminOnly,
		StatusDraft:     adminOnly,
	},
}

// Allowed reports whether role may move a document from one status to another.
func Allowed(from, to Status, role identity.Role) bool {
	return transitions[from][to][role]
}

// Targets lists the statuses role can reach from `from`.
func Targets(from Status, role identity.Role) []Status {
	out := []Status{}
	for _, to := range []Status{StatusDraft, StatusReview, StatusScheduled, StatusPublished, StatusRejected, StatusHidden} {
		if Allowed(from, to, role) {
			out = append(out, to)
		}
	}
	return out
}

// Command asks for a status change.
type Command struct {
	To            Status     `json:"to"`
	Feedback      string     `json:"feedback,omitempty"`
	EditorMessage string     `json:"editorMessage,omitempty"`
	PublishAt     *time.Time `json:"publishAt,omitempty"`
}

func stamp(actor identity.Actor, now time.Time) datatypes.JSONType[identity.ActorStamp] {
	return datatypes.NewJSONType(actor.Stamp(now))
}

// checkEditorAccess enforces ownership and the lock for the editor role.
func checkEditorAccess(doc Document, actor identity.Actor, op string) error {
	switch {
	case actor.Role == identity.RoleSystem, actor.Role.Privileged():
		return nil
	case actor.Role != identity.RoleEditor:
		return apierr.Authorization(apierr.CodeForbidden, op, "role may not modify content")
	case doc.OwnerUID != actor.UID:
		return apierr.Authorization(apierr.CodeNotOwner, op, "editors may only modify their own documents")
	case doc.IsLocked:
		return apierr.Authorization(apierr.CodeDocumentLocked, op, "document is locked")
	}
	return nil
}

// Apply performs one status transition. On any error the input document is
// returned untouched.
func Apply(doc Document, cmd Command, actor identity.Actor, now time.Time) (Document, error) {
	const op = "content.Apply"
	from, to := doc.Status, cmd.To
	if err := checkEditorAccess(doc, actor, op); err != nil {
		return doc, err
	}
	if !Allowed(from, to, actor.Role) {
		return doc, apierr.Conflict(apierr.CodeIllegalTransition, op,
			fmt.Sprintf("%s -> %s is not permitted for role %s", from, to, actor.Role))
	}

	now = now.UTC()
	next := doc
	r := next.ReviewState()

	switch to {
	case StatusReview:
		next.SubmittedAt = &now
		if msg := strings.TrimSpace(cmd.EditorMessage); msg != "" {
			r.EditorMessage = msg
			r.MessageThread = appendMessage(r.MessageThread, Message{By: partyOf(actor.Role), UID: actor.UID, Text: msg, At: now})
		}
	case StatusPublished:
		next.PublishedAt = &now
		next.IsLocked = true
	case StatusScheduled:
		if cmd.PublishAt == nil {
			return doc, apierr.Validation(apierr.CodeScheduleInPast, op, "publishAt is required to schedule")
		}
		at := cmd.PublishAt.UTC()
		if !at.After(now) {
			return doc, apierr.Validation(apierr.CodeScheduleInPast, op, "publishAt must be in the future")
		}
		next.PublishedAt = &at
	case StatusRejected:
		feedback := strings.TrimSpace(cmd.Feedback)
		if feedback == "" && doc.Creator().Role == identity.RoleEditor {
			return doc, apierr.Validation(apierr.CodeFeedbackRequired, op, "feedback is required when rejecting an editor's document")
		}
		r.ReviewedAt = &now
		r.ReviewedByUID = actor.UID
		r.ReviewedByEmail = actor.Email
		if feedback != "" {
			r.Feedback = feedback
			r.MessageThread = appendMessage(r.MessageThread, Message{By: PartyAdmin, UID: actor.UID, Text: feedback, At: now})
		}
		next.PublishedAt = nil
	case StatusDraft:
		if from == StatusRejected {
			r.Feedback = ""
			r.ReviewedAt = nil
			r.ReviewedByUID = ""
			r.ReviewedByEmail = ""
		}
		next.PublishedAt = nil
	case StatusHidden:
	}

	next.Status = to
	next.setReview(r)
	next.UpdatedBy = stamp(actor, now)
	next.UpdatedAt = now
	return next, nil
}

// Patch is a content edit. Nil fields are left unchanged.
type Patch struct {
	Title          *string         `json:"title,omitempty"`
	Slug           *string         `json:"slug,omitempty"`
	Body           json.RawMessage `json:"body,omitempty"`
	Meta           json.RawMessage `json:"meta,omitempty"`
	Tags           *[]string       `json:"tags,omitempty"`
	RelatedContent *[]RelatedRef   `json:"relatedContent,omitempty"`
}

// Empty reports a patch with nothing to write.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Slug == nil && len(p.Body) == 0 && len(p.Meta) == 0 && p.Tags == nil && p.RelatedContent == nil
}

// ApplyEdit applies a content edit (including draft autosave). Editors may
// only edit their own unlocked drafts; admins may edit in any status,
// including locked documents.
func ApplyEdit(doc Document, patch Patch, actor identity.Actor, now time.Time) (Document, error) {
	const op = "content.ApplyEdit"
	if actor.Role == identity.RoleSystem {
		return doc, apierr.Authorization(apierr.CodeForbidden, op, "system actor does not edit content")
	}
	if err := checkEditorAccess(doc, actor, op); err != nil {
		return doc, err
	}
	if actor.Role == identity.RoleEditor && doc.Status != StatusDraft {
		return doc, apierr.Conflict(apierr.CodeIllegalTransition, op,
			fmt.Sprintf("editors may only edit drafts (status is %s)", doc.Status))
	}

	now = now.UTC()
	next := doc
	if patch.Title != nil {
		next.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Slug != nil {
		slug := Slugify(*patch.Slug)
		if slug == "" {
			return doc, apierr.Validation(apierr.CodeSlugRequired, op, "slug is required")
		}
		next.Slug = slug
	}
	if len(patch.Body) > 0 {
		next.Body = datatypes.JSON(append([]byte(nil), patch.Body...))
	}
	if len(patch.Meta) > 0 {
		m, err := DecodeMeta(doc.Type, patch.Meta)
		if err != nil {
			return doc, apierr.Validation(apierr.CodeInvalidInput, op, err.Error())
		}
		if err := next.SetMeta(m); err != nil {
			return doc, apierr.Validation(apierr.CodeInvalidInput, op, err.Error())
		}
	}
	if patch.Tags != nil {
		next.Tags = append([]string{}, (*patch.Tags)...)
	}
	if patch.RelatedContent != nil {
		next.RelatedContent = append([]RelatedRef{}, (*patch.RelatedContent)...)
	}
	next.UpdatedBy = stamp(actor, now)
	next.UpdatedAt = now
	return next, nil
}

// SetLock sets or clears the lock. Only admins may do this, and it is the
// only way a lock is ever cleared.
func SetLock(doc Document, locked bool, actor identity.Actor, now time.Time) (Document, error) {
	const op = "content.SetLock"
	if !actor.Role.Privileged() {
		return doc, apierr.Authorization(apierr.CodeForbidden, op, "only admins may change the lock")
	}
	now = now.UTC()
	next := doc
	next.IsLocked = locked
	next.UpdatedBy = stamp(actor, now)
	next.UpdatedAt = now
	return next, nil
}

// Draft is the input for creating a document.
type Draft struct {
	Type           Type            `json:"type"`
	ID             string          `json:"docId"`
	Slug           string          `json:"slug"`
	Title          string          `json:"title"`
	Meta           json.RawMessage `json:"meta,omitempty"`
	Body           json.RawMessage `json:"body,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	RelatedContent []RelatedRef    `json:"relatedContent,omitempty"`
}

// NewDocument builds a draft document owned by actor.
func NewDocument(d Draft, actor identity.Actor, now time.Time) (Document, error) {
	const op = "content.NewDocument"
	if actor.Role != identity.RoleEditor && !actor.Role.Privileged() {
		return Document{}, apierr.Authorization(apierr.CodeForbidden, op, "role may not create content")
	}
	if d.Type.Collection() == "" {
		return Document{}, apierr.Validation(apierr.CodeInvalidInput, op, fmt.Sprintf("unknown content type %q", d.Type))
	}
	id := strings.TrimSpace(d.ID)
	if id == "" {
		return Document{}, apierr.Validation(apierr.CodeInvalidInput, op, "docId is required")
	}
	slug := Slugify(d.Slug)
	if slug == "" {
		return Document{}, apierr.Validation(apierr.CodeSlugRequired, op, "slug is required")
	}
	meta, err := DecodeMeta(d.Type, d.Meta)
	if err != nil {
		return Document{}, apierr.Validation(apierr.CodeInvalidInput, op, err.Error())
	}
	meta = inferAnchor(meta, id)

	now = now.UTC()
	doc := Document{
		Collection:     d.Type.Collection(),
		ID:             id,
		Type:           d.Type,
		Slug:           slug,
		Title:          strings.TrimSpace(d.Title),
		Status:         StatusDraft,
		Tags:           append([]string{}, d.Tags...),
		RelatedContent: append([]RelatedRef{}, d.RelatedContent...),
		OwnerUID:       actor.UID,
		CreatedBy:      stamp(actor, now),
		UpdatedBy:      stamp(actor, now),
		Review:         datatypes.NewJSONType(Review{}),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if len(d.Body) > 0 {
		doc.Body = datatypes.JSON(append([]byte(nil), d.Body...))
	}
	if err := doc.SetMeta(meta); err != nil {
		return Document{}, apierr.Validation(apierr.CodeInvalidInput, op, err.Error())
	}
	return doc, nil
}

// inferAnchor fills a missing current-affairs date from the natural id.
func inferAnchor(m Meta, id string) Meta {
	switch v := m.(type) {
	case DailyMeta:
		if v.CADate == "" {
			if d, err := ParseDay(id); err == nil {
				v.CADate = d.Format(DayLayout)
			}
		}
		return v
	case MonthlyMeta:
		if v.CADate == "" {
			if d, err := time.Parse("Jan-2006", strings.TrimSuffix(id, "-Monthly-CA")); err == nil {
				v.CADate = d.Format(DayLayout)
			}
		}
		return v
	default:
		return m
	}
}
