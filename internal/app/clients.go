package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/examprep-backend/internal/data/db"
	"github.com/yungbote/examprep-backend/internal/events"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
	"github.com/yungbote/examprep-backend/internal/realtime/bus"
)

// Clients holds the connections to external systems. Redis and NATS are
// optional; a nil field means the in-process fallback is used.
type Clients struct {
	Postgres    *db.PostgresService
	Redis       goredis.UniversalClient
	RealtimeBus bus.Bus
	NATS        *events.NATSBus
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	pg, err := db.NewPostgresService(log, cfg.Postgres.toDB())
	if err != nil {
		return Clients{}, fmt.Errorf("init postgres: %w", err)
	}
	if err := db.AutoMigrateAll(pg.DB()); err != nil {
		_ = pg.Close()
		return Clients{}, fmt.Errorf("postgres automigrate: %w", err)
	}
	out := Clients{Postgres: pg}

	// Redis
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:        addr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			DialTimeout: 5 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			out.Close(log)
			return Clients{}, fmt.Errorf("redis ping: %w", err)
		}
		out.Redis = rdb
		out.RealtimeBus = bus.NewRedisBus(log, rdb, cfg.RedisChannel)
	} else {
		log.Warn("REDIS_ADDR not set; related cache and realtime fan-out stay in-process")
	}

	// NATS
	if url := strings.TrimSpace(cfg.NATSURL); url != "" {
		nb, err := events.NewNATSBus(log, url)
		if err != nil {
			out.Close(log)
			return Clients{}, fmt.Errorf("init nats: %w", err)
		}
		out.NATS = nb
	} else {
		log.Warn("NATS_URL not set; content events are delivered in-process")
	}

	return out, nil
}

// Close releases every client that was opened, newest first.
func (c Clients) Close(log *logger.Logger) {
	if c.NATS != nil {
		if err := c.NATS.Close(); err != nil {
			log.Warn("nats close failed", "error", err)
		}
	}
	if c.RealtimeBus != nil {
		_ = c.RealtimeBus.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			log.Warn("postgres close failed", "error", err)
		}
	}
}
