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
	"github.com/yungbote/examprep-backend/internal/observability"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

// WorkflowService moves documents through the editorial workflow and persists
// every change with a compare-and-set on the status it was read with.
type WorkflowService interface {
	Get(ctx context.Context, actor identity.Actor, t content.Type, id string) (*content.Document, error)
	List(ctx context.Context, actor identity.Actor, f repos.DocumentListFilter) ([]*content.Document, error)

	Transition(ctx context.Context, actor identity.Actor, t content.Type, id string, cmd content.Command) (*content.Document, error)
	Edit(ctx context.Context, actor identity.Actor, t content.Type, id string, patch content.Patch) (*content.Document, error)
	// Autosave is Edit restricted to drafts.
	Autosave(ctx context.Context, actor identity.Actor, t content.Type, id string, patch content.Patch) (*content.Document, error)
	SetLock(ctx context.Context, actor identity.Actor, t content.Type, id string, locked bool) (*content.Document, error)

	PostMessage(ctx context.Context, actor identity.Actor, t content.Type, id, text string) (*content.Document, error)
	Thread(ctx context.Context, actor identity.Actor, t content.Type, id string) (content.ThreadView, error)
	OlderMessages(ctx context.Context, actor identity.Actor, t content.Type, id string, page, pageSize int) ([]content.Message, bool, error)

	// CanWatch checks read access to the document behind a doc channel
	// ref of the form "<collection>/<id>".
	CanWatch(ctx context.Context, actor identity.Actor, ref string) error
}

type workflowService struct {
	log      *logger.Logger
	docs     repos.DocumentRepo
	notifier *ContentNotifier
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewWorkflowService(
	baseLog *logger.Logger,
	docs repos.DocumentRepo,
	notifier *ContentNotifier,
	metrics *observability.Metrics,
	now func() time.Time,
) WorkflowService {
	if now == nil {
		now = time.Now
	}
	return &workflowService{
		log:      baseLog.With("service", "WorkflowService"),
		docs:     docs,
		notifier: notifier,
		metrics:  metrics,
		now:      now,
	}
}

// load fetches a live document of type t. Daily and monthly share a
// collection, so the stored type is checked too.
func (w *workflowService) load(ctx context.Context, t content.Type, id, op string) (*content.Document, error) {
	c, err := collectionOf(t, op)
	if err != nil {
		return nil, err
	}
	doc, err := w.docs.Get(dbctx.Of(ctx), c, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Type != t {
		return nil, apierr.NotFound(apierr.CodeDocumentNotFound, op, fmt.Sprintf("%s/%s not found", c, id))
	}
	return doc, nil
}

func canRead(doc *content.Document, actor identity.Actor, op string) error {
	switch {
	case actor.Role.Privileged():
		return nil
	case actor.Role == identity.RoleEditor && doc.OwnerUID == actor.UID:
		return nil
	case actor.Role == identity.RoleEditor:
		return apierr.Authorization(apierr.CodeNotOwner, op, "editors may only open their own documents")
	default:
		return apierr.Authorization(apierr.CodeForbidden, op, "role may not read content")
	}
}

func (w *workflowService) Get(ctx context.Context, actor identity.Actor, t content.Type, id string) (*content.Document, error) {
	const op = "workflow.Get"
	doc, err := w.load(ctx, t, id, op)
	if err != nil {
		return nil, err
	}
	if err := canRead(doc, actor, op); err != nil {
		return nil, err
	}
	return doc, nil
}

func (w *workflowService) CanWatch(ctx context.Context, actor identity.Actor, ref string) error {
	const op = "workflow.CanWatch"
	coll, id, ok := strings.Cut(strings.TrimSpace(ref), "/")
	if !ok || coll == "" || id == "" {
		return apierr.Validation(apierr.CodeInvalidInput, op, "channel must name <collection>/<id>")
	}
	doc, err := w.docs.Get(dbctx.Of(ctx), content.Collection(coll), id)
	if err != nil {
		return err
	}
	if doc == nil {
		return apierr.NotFound(apierr.CodeDocumentNotFound, op, fmt.Sprintf("%s not found", ref))
	}
	return canRead(doc, actor, op)
}

func (w *workflowService) List(ctx context.Context, actor identity.Actor, f repos.DocumentListFilter) ([]*content.Document, error) {
	const op = "workflow.List"
	switch {
	case actor.Role.Privileged():
	case actor.Role == identity.RoleEditor:
		f.OwnerUID = actor.UID
	default:
		return nil, apierr.Authorization(apierr.CodeForbidden, op, "role may not list content")
	}
	return w.docs.List(dbctx.Of(ctx), f)
}

// mutate runs a pure change against the stored document and writes it back
// only if the status is still the one that was read.
func (w *workflowService) mutate(
	ctx context.Context,
	actor identity.Actor,
	t content.Type,
	id string,
	op string,
	kind events.Kind,
	change func(doc content.Document, now time.Time) (content.Document, error),
) (*content.Document, content.Status, error) {
	doc, err := w.load(ctx, t, id, op)
	if err != nil {
		return nil, "", err
	}
	now := w.now().UTC()
	next, err := change(*doc, now)
	if err != nil {
		return nil, doc.Status, err
	}

	if next.Slug != doc.Slug {
		holder, found, err := w.docs.SlugHolder(dbctx.Of(ctx), next.Collection, next.Slug)
		if err != nil {
			return nil, doc.Status, err
		}
		if found && holder != next.ID {
			return nil, doc.Status, apierr.Conflict(apierr.CodeSlugTaken, op, fmt.Sprintf("slug %q is already used by %s", next.Slug, holder))
		}
	}

	ok, err := w.docs.UpdateIfStatus(dbctx.Of(ctx), &next, doc.Status)
	if err != nil {
		return nil, doc.Status, err
	}
	if !ok {
		return nil, doc.Status, apierr.Conflict(apierr.CodeStaleWrite, op, "document changed since it was read; reload and retry")
	}

	w.notifier.notifyOwner(ctx, events.NewContentEvent(kind, &next, doc.Status, actor.UID, now), next.OwnerUID)
	return &next, doc.Status, nil
}

func (w *workflowService) Transition(ctx context.Context, actor identity.Actor, t content.Type, id string, cmd content.Command) (*content.Document, error) {
	const op = "workflow.Transition"
	to, ok := content.ParseStatus(string(cmd.To))
	if !ok {
		return nil, apierr.Validation(apierr.CodeInvalidInput, op, fmt.Sprintf("unknown status %q", cmd.To))
	}
	cmd.To = to

	doc, from, err := w.mutate(ctx, actor, t, id, op, events.KindTransitioned, func(d content.Document, now time.Time) (content.Document, error) {
		return content.Apply(d, cmd, actor, now)
	})
	result := "ok"
	if err != nil {
		result = apierr.CodeOf(err)
	}
	if from != "" {
		w.metrics.IncTransition(string(from), string(to), result)
	}
	if err != nil {
		return nil, err
	}
	w.log.Info("document transitioned", "doc_id", doc.ID, "from", from, "to", doc.Status, "uid", actor.UID, "role", actor.Role)
	return doc, nil
}

func (w *workflowService) Edit(ctx context.Context, actor identity.Actor, t content.Type, id string, patch content.Patch) (*content.Document, error) {
	const op = "workflow.Edit"
	if patch.Empty() {
		return w.Get(ctx, actor, t, id)
	}
	doc, _, err := w.mutate(ctx, actor, t, id, op, events.KindEdited, func(d content.Document, now time.Time) (content.Document, error) {
		return content.ApplyEdit(d, patch, actor, now)
	})
	return doc, err
}

func (w *workflowService) Autosave(ctx context.Context, actor identity.Actor, t content.Type, id string, patch content.Patch) (*content.Document, error) {
	const op = "workflow.Autosave"
	doc, _, err := w.mutate(ctx, actor, t, id, op, events.KindEdited, func(d content.Document, now time.Time) (content.Document, error) {
		if d.Status != content.StatusDraft {
			return d, apierr.Conflict(apierr.CodeIllegalTransition, op, fmt.Sprintf("autosave only applies to drafts (status is %s)", d.Status))
		}
		if d.IsLocked {
			return d, apierr.Authorization(apierr.CodeDocumentLocked, op, "document is locked")
		}
		return content.ApplyEdit(d, patch, actor, now)
	})
	return doc, err
}

func (w *workflowService) SetLock(ctx context.Context, actor identity.Actor, t content.Type, id string, locked bool) (*content.Document, error) {
	const op = "workflow.SetLock"
	doc, _, err := w.mutate(ctx, actor, t, id, op, events.KindLocked, func(d content.Document, now time.Time) (content.Document, error) {
		return content.SetLock(d, locked, actor, now)
	})
	return doc, err
}

func (w *workflowService) PostMessage(ctx context.Context, actor identity.Actor, t content.Type, id, text string) (*content.Document, error) {
	const op = "workflow.PostMessage"
	doc, _, err := w.mutate(ctx, actor, t, id, op, events.KindEdited, func(d content.Document, now time.Time) (content.Document, error) {
		return content.PostMessage(d, actor, text, now)
	})
	return doc, err
}

func (w *workflowService) Thread(ctx context.Context, actor identity.Actor, t content.Type, id string) (content.ThreadView, error) {
	doc, err := w.Get(ctx, actor, t, id)
	if err != nil {
		return content.ThreadView{}, err
	}
	return content.InlineThread(doc.ReviewState().MessageThread, content.InlinePerParty), nil
}

func (w *workflowService) OlderMessages(ctx context.Context, actor identity.Actor, t content.Type, id string, page, pageSize int) ([]content.Message, bool, error) {
	doc, err := w.Get(ctx, actor, t, id)
	if err != nil {
		return nil, false, err
	}
	msgs, more := content.OlderMessages(doc.ReviewState().MessageThread, content.InlinePerParty, page, pageSize)
	return msgs, more, nil
}
