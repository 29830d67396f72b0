package sweep

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

// Sweeper and Cleaner are the slices of the content services the worker needs.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type Cleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

type Handlers struct {
	log     *logger.Logger
	sweeper Sweeper
	cleaner Cleaner
}

func NewHandlers(baseLog *logger.Logger, sweeper Sweeper, cleaner Cleaner) *Handlers {
	return &Handlers{
		log:     baseLog.With("component", "SweepWorker"),
		sweeper: sweeper,
		cleaner: cleaner,
	}
}

// Mux routes both task types. A nil cleaner leaves preview cleanup unhandled.
func (h *Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSweep, h.HandleSweep)
	if h.cleaner != nil {
		mux.HandleFunc(TypePreviewCleanup, h.HandlePreviewCleanup)
	}
	return mux
}

// HandleSweep returns the store error so asynq retries; the sweep itself is
// idempotent, so a retry after a partial network failure is harmless.
func (h *Handlers) HandleSweep(ctx context.Context, _ *asynq.Task) error {
	if h.sweeper == nil {
		return fmt.Errorf("sweeper not configured: %w", asynq.SkipRetry)
	}
	n, err := h.sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	h.log.Info("sweep task done", "promoted", n)
	return nil
}

func (h *Handlers) HandlePreviewCleanup(ctx context.Context, _ *asynq.Task) error {
	n, err := h.cleaner.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("preview cleanup: %w", err)
	}
	h.log.Debug("preview cleanup task done", "deleted", n)
	return nil
}
