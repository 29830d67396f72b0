package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/examprep-backend/internal/http"
	"github.com/yungbote/examprep-backend/internal/observability"
	"github.com/yungbote/examprep-backend/internal/platform/envutil"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
	"github.com/yungbote/examprep-backend/internal/realtime"
)

const serviceName = "examprep-backend"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics

	server       *http.Server
	otelShutdown func(context.Context) error
	ctx          context.Context
	cancel       context.CancelFunc
}

func New() (*App, error) {
	log, err := logger.New(logMode())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	otelShutdown := observability.InitOTel(ctx, log, cfg.otel())
	metrics := observability.Init(log)

	clients, err := wireClients(log, cfg)
	if err != nil {
		cancel()
		log.Sync()
		return nil, err
	}
	theDB := clients.Postgres.DB()

	hub := realtime.NewSSEHub(log)
	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(ctx, theDB, log, cfg, clients, reposet, hub, metrics)
	if err != nil {
		cancel()
		clients.Close(log)
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, cfg, clients.Postgres, serviceset, hub)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, metrics, otelShutdown != nil, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       server.Engine,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		SSEHub:       hub,
		Metrics:      metrics,
		server:       server,
		otelShutdown: otelShutdown,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// logMode is read before the config so config loading itself is logged.
func logMode() string {
	return envutil.String("LOG_MODE", defaultConfig().LogMode)
}

// Start runs the background pieces of the API process: the realtime
// forwarder that feeds bus messages into this instance's hub.
func (a *App) Start() error {
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Clients.RealtimeBus == nil {
		return nil
	}
	if err := a.Clients.RealtimeBus.StartForwarder(a.ctx, a.SSEHub.Broadcast); err != nil {
		return fmt.Errorf("start realtime forwarder: %w", err)
	}
	a.Log.Info("realtime forwarder started", "channel", a.Cfg.RedisChannel)
	return nil
}

func (a *App) Run() error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("listening", "addr", addr)
	return a.server.Run(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Services.Close(a.Log)
	a.Clients.Close(a.Log)
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
