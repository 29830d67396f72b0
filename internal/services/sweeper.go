package services

import (
	"context"
	"time"

	"github.com/yungbote/examprep-backend/internal/data/aggregates"
	"github.com/yungbote/examprep-backend/internal/data/repos"
	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/events"
	"github.com/yungbote/examprep-backend/internal/observability"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

// SweepService publishes scheduled documents whose time has come.
type SweepService interface {
	Sweep(ctx context.Context) (int, error)
}

type sweepService struct {
	log      *logger.Logger
	docs     repos.DocumentRepo
	tx       aggregates.TxRunner
	notifier *ContentNotifier
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewSweepService(
	baseLog *logger.Logger,
	docs repos.DocumentRepo,
	tx aggregates.TxRunner,
	notifier *ContentNotifier,
	metrics *observability.Metrics,
	now func() time.Time,
) SweepService {
	if now == nil {
		now = time.Now
	}
	return &sweepService{
		log:      baseLog.With("service", "SweepService"),
		docs:     docs,
		tx:       tx,
		notifier: notifier,
		metrics:  metrics,
		now:      now,
	}
}

// Sweep promotes every due document in one transaction. Either all of them
// are published or none are and the error is returned for the next tick.
func (s *sweepService) Sweep(ctx context.Context) (int, error) {
	now := s.now().UTC()
	var (
		due      []*content.Document
		promoted int64
	)
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		due, err = s.docs.DueScheduled(dbc, now)
		if err != nil || len(due) == 0 {
			return err
		}
		promoted, err = s.docs.PromoteDue(dbc, now, identity.SystemActor.Stamp(now))
		return err
	})
	s.metrics.ObserveSweep(int(promoted), err)
	if err != nil {
		s.log.Ctx(ctx).Error("sweep failed", "error", err)
		return 0, err
	}

	for _, d := range due {
		d.Status = content.StatusPublished
		d.PublishedAt = &now
		d.IsLocked = true
		s.notifier.notifyOwner(ctx, events.NewContentEvent(events.KindSwept, d, content.StatusScheduled, identity.SystemActor.UID, now), d.OwnerUID)
	}
	if promoted > 0 {
		s.log.Info("sweep promoted scheduled documents", "count", promoted)
	}
	return int(promoted), nil
}
