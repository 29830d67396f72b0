package main

import (
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/yungbote/examprep-backend/internal/app"
	"github.com/yungbote/examprep-backend/internal/jobs/sweep"
	"github.com/yungbote/examprep-backend/internal/platform/envutil"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

func loadConfig() (*logger.Logger, app.Config, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, app.Config{}, fmt.Errorf("init logger: %w", err)
	}
	cfg, err := app.LoadConfig(log)
	if err != nil {
		return nil, app.Config{}, err
	}
	return log, cfg, nil
}

func redisOpt(cfg app.Config) (asynq.RedisClientOpt, error) {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("REDIS_ADDR is required")
	}
	return sweep.RedisOpt(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
}

func newSweepCmd() *cobra.Command {
	var enqueue bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Publish every scheduled document whose time has come",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if enqueue {
				log, cfg, err := loadConfig()
				if err != nil {
					return err
				}
				defer log.Sync()
				opt, err := redisOpt(cfg)
				if err != nil {
					return err
				}
				client := asynq.NewClient(opt)
				defer client.Close()
				id, err := sweep.Enqueue(ctx, client)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s\n", id)
				return nil
			}

			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()
			n, err := a.Services.Sweep.Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "promoted %d\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Hand the sweep to the asynq worker instead of running it here")
	return cmd
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the asynq scheduler that enqueues the periodic sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()
			opt, err := redisOpt(cfg)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			s, err := sweep.NewScheduler(log, opt, sweep.ScheduleConfig{
				SweepSpec:   cfg.SweepSchedule,
				CleanupSpec: cfg.PreviewCleanupSchedule,
				Location:    loc,
			})
			if err != nil {
				return err
			}
			if err := s.Start(); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}
			<-cmd.Context().Done()
			s.Shutdown()
			return nil
		},
	}
}

func newWorkerCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process sweep and preview-cleanup tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return err
			}
			defer a.Close()
			opt, err := redisOpt(a.Cfg)
			if err != nil {
				return err
			}
			if concurrency <= 0 {
				concurrency = a.Cfg.WorkerConcurrency
			}
			srv := sweep.NewServer(a.Log, opt, concurrency)
			handlers := sweep.NewHandlers(a.Log, a.Services.Sweep, a.Services.Preview)
			if err := srv.Start(handlers.Mux()); err != nil {
				return fmt.Errorf("start worker: %w", err)
			}
			<-cmd.Context().Done()
			srv.Shutdown()
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Worker goroutines (defaults to WORKER_CONCURRENCY)")
	return cmd
}
