package sweep

import (
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

type ScheduleConfig struct {
	// SweepSpec is a cron spec or "@every <duration>".
	SweepSpec   string
	CleanupSpec string
	Location    *time.Location
}

// NewScheduler registers the periodic sweep (and preview cleanup when a spec
// is set) and returns the scheduler unstarted.
func NewScheduler(baseLog *logger.Logger, redisOpt asynq.RedisConnOpt, cfg ScheduleConfig) (*asynq.Scheduler, error) {
	log := baseLog.With("component", "AsynqScheduler")
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	spec := strings.TrimSpace(cfg.SweepSpec)
	if spec == "" {
		spec = "@every 1m"
	}

	s := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: loc,
		LogLevel: asynq.InfoLevel,
		Logger:   asynqLogger{log: log},
	})
	id, err := s.Register(spec, NewSweepTask())
	if err != nil {
		return nil, fmt.Errorf("register sweep schedule %q: %w", spec, err)
	}
	log.Info("sweep schedule registered", "spec", spec, "entry_id", id)

	if c := strings.TrimSpace(cfg.CleanupSpec); c != "" {
		id, err := s.Register(c, NewPreviewCleanupTask())
		if err != nil {
			return nil, fmt.Errorf("register preview cleanup schedule %q: %w", c, err)
		}
		log.Info("preview cleanup schedule registered", "spec", c, "entry_id", id)
	}
	return s, nil
}
