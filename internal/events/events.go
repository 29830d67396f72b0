package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/examprep-backend/internal/domain/content"
)

type Kind string

const (
	KindCreated      Kind = "content.created"
	KindEdited       Kind = "content.edited"
	KindTransitioned Kind = "content.transitioned"
	KindLocked       Kind = "content.locked"
	KindSwept        Kind = "content.swept"
)

// SubjectPrefix roots every content event subject.
const SubjectPrefix = "examprep.content"

// ContentEvent is the payload published for every stored document change.
type ContentEvent struct {
	ID         string             `json:"id"`
	Kind       Kind               `json:"kind"`
	Type       content.Type       `json:"type"`
	Collection content.Collection `json:"collection"`
	DocID      string             `json:"docId"`
	Slug       string             `json:"slug"`
	From       content.Status     `json:"from,omitempty"`
	To         content.Status     `json:"to,omitempty"`
	ActorUID   string             `json:"actorUid"`
	At         time.Time          `json:"at"`
}

// NewContentEvent describes doc after a change made by actorUID.
func NewContentEvent(kind Kind, doc *content.Document, from content.Status, actorUID string, at time.Time) ContentEvent {
	return ContentEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		Type:       doc.Type,
		Collection: doc.Collection,
		DocID:      doc.ID,
		Slug:       doc.Slug,
		From:       from,
		To:         doc.Status,
		ActorUID:   actorUID,
		At:         at.UTC(),
	}
}

// Subject is "<prefix>.<kind suffix>.<collection>", e.g. examprep.content.transitioned.notes.
func (e ContentEvent) Subject() string {
	kind := strings.TrimPrefix(string(e.Kind), "content.")
	return SubjectPrefix + "." + kind + "." + string(e.Collection)
}

// AffectsPublicView reports whether readers of published pages can see the change.
func (e ContentEvent) AffectsPublicView() bool {
	switch e.Kind {
	case KindSwept:
		return true
	case KindTransitioned:
		return e.From == content.StatusPublished || e.To == content.StatusPublished
	case KindEdited, KindLocked:
		return e.To == content.StatusPublished
	default:
		return false
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev ContentEvent) error
	Close() error
}

type nopPublisher struct{}

// NopPublisher discards events; used when NATS is not configured.
func NopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, ContentEvent) error { return nil }
func (nopPublisher) Close() error                                { return nil }
