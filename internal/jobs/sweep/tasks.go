package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeSweep          = "content:sweep"
	TypePreviewCleanup = "preview:cleanup"
)

// Unique windows keep a slow worker from piling up duplicate ticks.
const (
	sweepUnique   = 50 * time.Second
	cleanupUnique = 10 * time.Minute
)

func NewSweepTask() *asynq.Task {
	return asynq.NewTask(
		TypeSweep,
		nil,
		asynq.MaxRetry(2),
		asynq.Timeout(time.Minute),
		asynq.Unique(sweepUnique),
		asynq.Retention(time.Hour),
	)
}

func NewPreviewCleanupTask() *asynq.Task {
	return asynq.NewTask(
		TypePreviewCleanup,
		nil,
		asynq.MaxRetry(1),
		asynq.Timeout(time.Minute),
		asynq.Unique(cleanupUnique),
	)
}

// Enqueue pushes a one-off sweep, used by the ops CLI when a worker is running.
func Enqueue(ctx context.Context, client *asynq.Client) (string, error) {
	info, err := client.EnqueueContext(ctx, NewSweepTask())
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TypeSweep, err)
	}
	return info.ID, nil
}
