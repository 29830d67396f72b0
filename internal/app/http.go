package app

import (
	"context"

	"github.com/yungbote/examprep-backend/internal/data/db"
	"github.com/yungbote/examprep-backend/internal/http"
	httpH "github.com/yungbote/examprep-backend/internal/http/handlers"
	httpMW "github.com/yungbote/examprep-backend/internal/http/middleware"
	"github.com/yungbote/examprep-backend/internal/observability"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
	"github.com/yungbote/examprep-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Session  *httpH.SessionHandler
	Realtime *httpH.RealtimeHandler
	Content  *httpH.ContentHandler
	Preview  *httpH.PreviewHandler
	Public   *httpH.PublicHandler
	Sweep    *httpH.SweepHandler
	Admin    *httpH.AdminHandler
}

func wireHandlers(log *logger.Logger, cfg Config, pg *db.PostgresService, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	ping := func(ctx context.Context) error { return pg.DB().WithContext(ctx).Exec("SELECT 1").Error }
	// LoadConfig already rejected an unknown zone.
	loc, _ := cfg.Location()
	return Handlers{
		Health:   httpH.NewHealthHandler(cfg.IdentityConfigured(), ping),
		Session:  httpH.NewSessionHandler(services.Session),
		Realtime: httpH.NewRealtimeHandler(log, hub, services.Workflow),
		Content:  httpH.NewContentHandler(services.DocIdentity, services.Workflow, loc),
		Preview:  httpH.NewPreviewHandler(services.Preview),
		Public:   httpH.NewPublicHandler(services.PublicContent, services.Related),
		Sweep:    httpH.NewSweepHandler(log, services.Sweep, cfg.SweepSecret),
		Admin:    httpH.NewAdminHandler(services.Session),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Session),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, tracing bool, handlers Handlers, middleware Middleware) *http.Server {
	log.Info("Wiring router...")
	return http.NewServer(http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		ServiceName:     serviceName,
		CORSOrigins:     cfg.CORSOrigins,
		Tracing:         tracing,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		SessionHandler:  handlers.Session,
		RealtimeHandler: handlers.Realtime,
		ContentHandler:  handlers.Content,
		PreviewHandler:  handlers.Preview,
		PublicHandler:   handlers.Public,
		SweepHandler:    handlers.Sweep,
		AdminHandler:    handlers.Admin,
	})
}
