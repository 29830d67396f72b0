package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/examprep-backend/internal/data/repos"
	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/events"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

// DocumentIdentityService derives and checks document identifiers before a
// document exists, and creates documents under them.
type DocumentIdentityService interface {
	Suggest(t content.Type, date time.Time, freeText string) (content.Suggestion, error)
	CheckUnique(ctx context.Context, t content.Type, docID string) (bool, error)
	// ValidateSlug returns the normalized slug when it is free in t's scope.
	ValidateSlug(ctx context.Context, t content.Type, slug, currentID string) (string, error)
	Create(ctx context.Context, actor identity.Actor, draft content.Draft) (*content.Document, error)
	UpdateSlug(ctx context.Context, actor identity.Actor, t content.Type, id, slug string) (*content.Document, error)
}

type documentIdentityService struct {
	log      *logger.Logger
	docs     repos.DocumentRepo
	workflow WorkflowService
	notifier *ContentNotifier
	now      func() time.Time
	newID    content.IDGenerator
}

func NewDocumentIdentityService(
	baseLog *logger.Logger,
	docs repos.DocumentRepo,
	workflow WorkflowService,
	notifier *ContentNotifier,
	now func() time.Time,
) DocumentIdentityService {
	if now == nil {
		now = time.Now
	}
	return &documentIdentityService{
		log:      baseLog.With("service", "DocumentIdentityService"),
		docs:     docs,
		workflow: workflow,
		notifier: notifier,
		now:      now,
		newID:    content.UUIDGenerator,
	}
}

func (s *documentIdentityService) Suggest(t content.Type, date time.Time, freeText string) (content.Suggestion, error) {
	return content.SuggestIdentity(t, date, freeText, s.newID)
}

func collectionOf(t content.Type, op string) (content.Collection, error) {
	c := t.Collection()
	if c == "" {
		return "", apierr.Validation(apierr.CodeInvalidInput, op, fmt.Sprintf("unknown content type %q", t))
	}
	return c, nil
}

func (s *documentIdentityService) CheckUnique(ctx context.Context, t content.Type, docID string) (bool, error) {
	const op = "identity.CheckUnique"
	c, err := collectionOf(t, op)
	if err != nil {
		return false, err
	}
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return false, apierr.Validation(apierr.CodeInvalidInput, op, "docId is required")
	}
	exists, err := s.docs.Exists(dbctx.Of(ctx), c, docID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *documentIdentityService) ValidateSlug(ctx context.Context, t content.Type, slug, currentID string) (string, error) {
	const op = "identity.ValidateSlug"
	c, err := collectionOf(t, op)
	if err != nil {
		return "", err
	}
	slug = content.Slugify(slug)
	if slug == "" {
		return "", apierr.Validation(apierr.CodeSlugRequired, op, "slug is required")
	}
	holder, found, err := s.docs.SlugHolder(dbctx.Of(ctx), c, slug)
	if err != nil {
		return "", err
	}
	if found && holder != strings.TrimSpace(currentID) {
		return "", apierr.Conflict(apierr.CodeSlugTaken, op, fmt.Sprintf("slug %q is already used by %s", slug, holder))
	}
	return slug, nil
}

// Create checks the slug and id, then inserts only if (collection, id) is
// still absent. The final insert closes the race between two creators that
// both passed the checks.
func (s *documentIdentityService) Create(ctx context.Context, actor identity.Actor, draft content.Draft) (*content.Document, error) {
	const op = "identity.Create"
	doc, err := content.NewDocument(draft, actor, s.now())
	if err != nil {
		return nil, err
	}
	if _, err := s.ValidateSlug(ctx, doc.Type, doc.Slug, ""); err != nil {
		return nil, err
	}
	free, err := s.CheckUnique(ctx, doc.Type, doc.ID)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, apierr.Conflict(apierr.CodeDocIDExists, op, fmt.Sprintf("document %s already exists", doc.Ref()))
	}
	if err := s.docs.CreateIfAbsent(dbctx.Of(ctx), &doc); err != nil {
		return nil, err
	}

	s.log.Info("document created", "collection", doc.Collection, "doc_id", doc.ID, "uid", actor.UID)
	s.notifier.notify(ctx, events.NewContentEvent(events.KindCreated, &doc, "", actor.UID, doc.CreatedAt))
	return &doc, nil
}

// UpdateSlug renames a document through the normal edit path, so ownership,
// lock and status rules apply.
func (s *documentIdentityService) UpdateSlug(ctx context.Context, actor identity.Actor, t content.Type, id, slug string) (*content.Document, error) {
	return s.workflow.Edit(ctx, actor, t, id, content.Patch{Slug: &slug})
}
