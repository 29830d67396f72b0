package services

import (
	"context"

	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/events"
	"github.com/yungbote/examprep-backend/internal/observability"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
	"github.com/yungbote/examprep-backend/internal/realtime"
)

// ContentNotifier fans a stored document change out to the event stream and
// to realtime subscribers of the document and its owner.
type ContentNotifier struct {
	log     *logger.Logger
	events  events.Publisher
	emitter SSEEmitter
	metrics *observability.Metrics
}

func NewContentNotifier(log *logger.Logger, pub events.Publisher, emitter SSEEmitter, metrics *observability.Metrics) *ContentNotifier {
	if pub == nil {
		pub = events.NopPublisher()
	}
	return &ContentNotifier{log: log.With("service", "ContentNotifier"), events: pub, emitter: emitterOrNop(emitter), metrics: metrics}
}

func (n *ContentNotifier) notify(ctx context.Context, ev events.ContentEvent) {
	if n == nil {
		return
	}
	err := n.events.Publish(ctx, ev)
	n.metrics.IncEventPublished(string(ev.Kind), err)
	if err != nil {
		n.log.Ctx(ctx).Warn("publish content event failed", "kind", ev.Kind, "doc_id", ev.DocID, "error", err)
	}

	data := map[string]any{
		"kind":       ev.Kind,
		"type":       ev.Type,
		"collection": ev.Collection,
		"docId":      ev.DocID,
		"slug":       ev.Slug,
		"status":     ev.To,
		"at":         ev.At,
	}
	ref := content.Ref{Type: ev.Type, ID: ev.DocID}.String()
	n.emitter.Emit(ctx, realtime.SSEMessage{Channel: realtime.DocChannel(ref), Event: realtime.SSEEventContentChanged, Data: data})
}

// notifyOwner also tells the document's owner, whose dashboard lists it.
func (n *ContentNotifier) notifyOwner(ctx context.Context, ev events.ContentEvent, ownerUID string) {
	n.notify(ctx, ev)
	if n == nil || ownerUID == "" || ownerUID == ev.ActorUID {
		return
	}
	n.emitter.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.UserChannel(ownerUID),
		Event:   realtime.SSEEventContentChanged,
		Data:    map[string]any{"kind": ev.Kind, "type": ev.Type, "docId": ev.DocID, "status": ev.To},
	})
}
