package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

// asynqLogger adapts logger.Logger to asynq.Logger.
type asynqLogger struct {
	log *logger.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.log.Debug(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.log.Info(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.log.Warn(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.log.Error(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.log.Fatal(fmt.Sprint(args...)) }

func RedisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}

// NewServer builds the worker server. Sweeps are cheap and serialized by the
// unique window, so a small concurrency is enough.
func NewServer(baseLog *logger.Logger, redisOpt asynq.RedisConnOpt, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 2
	}
	log := baseLog.With("component", "AsynqServer")
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     concurrency,
		ShutdownTimeout: 30 * time.Second,
		Logger:          asynqLogger{log: log},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.Error("task failed",
				"task_type", task.Type(),
				"error", err,
				"retry_count", retried,
				"max_retry", maxRetry,
			)
		}),
	})
}
