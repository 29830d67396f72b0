package services

import (
	"context"

	"github.com/yungbote/examprep-backend/internal/events"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

// RelatedInvalidator drops cached related bundles whenever an event changes
// what the public site can see. Other events are ignored.
func RelatedInvalidator(baseLog *logger.Logger, related RelatedService) events.HandlerFunc {
	log := baseLog.With("component", "RelatedInvalidator")
	return func(ctx context.Context, ev events.ContentEvent) error {
		if related == nil || !ev.AffectsPublicView() {
			return nil
		}
		related.Invalidate(ctx)
		log.Debug("related cache invalidated", "kind", ev.Kind, "collection", ev.Collection, "doc_id", ev.DocID)
		return nil
	}
}
