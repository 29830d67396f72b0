package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/examprep-backend/internal/http/handlers"
	httpMW "github.com/yungbote/examprep-backend/internal/http/middleware"
	"github.com/yungbote/examprep-backend/internal/observability"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string
	Tracing     bool

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	SessionHandler  *httpH.SessionHandler
	RealtimeHandler *httpH.RealtimeHandler
	ContentHandler  *httpH.ContentHandler
	PreviewHandler  *httpH.PreviewHandler
	PublicHandler   *httpH.PublicHandler
	SweepHandler    *httpH.SweepHandler
	AdminHandler    *httpH.AdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Scheduled publication trigger
	if cfg.SweepHandler != nil {
		r.GET("/sweep", cfg.SweepHandler.Run)
	}

	// Public site
	public := r.Group("/public")
	if cfg.PublicHandler != nil {
		public.GET("/content/:type/:slug", cfg.PublicHandler.Page)
		public.GET("/related", cfg.PublicHandler.Related)
	}

	api := r.Group("/api")
	if cfg.SessionHandler != nil {
		api.POST("/session/start", cfg.SessionHandler.Start)
	}

	if cfg.AuthMiddleware == nil {
		return r
	}
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireSession())
	{
		// Session
		if cfg.SessionHandler != nil {
			protected.POST("/session/heartbeat", cfg.SessionHandler.Heartbeat)
			protected.POST("/session/logout", cfg.SessionHandler.Logout)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/session/stream", cfg.RealtimeHandler.Stream)
			protected.POST("/session/stream/subscribe", cfg.RealtimeHandler.Subscribe)
			protected.POST("/session/stream/unsubscribe", cfg.RealtimeHandler.Unsubscribe)
		}

		// Content
		if cfg.ContentHandler != nil {
			protected.POST("/content/suggest", cfg.ContentHandler.Suggest)
			protected.GET("/content/:type/exists/:id", cfg.ContentHandler.Exists)
			protected.POST("/content/:type/validate-slug", cfg.ContentHandler.ValidateSlug)
			protected.POST("/content/:type", cfg.ContentHandler.Create)
			protected.GET("/content/:type", cfg.ContentHandler.List)
			protected.GET("/content/:type/:id", cfg.ContentHandler.Get)
			protected.PATCH("/content/:type/:id", cfg.ContentHandler.Patch)
			protected.PUT("/content/:type/:id/slug", cfg.ContentHandler.UpdateSlug)
			protected.POST("/content/:type/:id/transition", cfg.ContentHandler.Transition)
			protected.POST("/content/:type/:id/messages", cfg.ContentHandler.PostMessage)
			protected.GET("/content/:type/:id/messages", cfg.ContentHandler.Messages)
			protected.POST("/content/:type/:id/lock", cfg.AuthMiddleware.RequireAdmin(), cfg.ContentHandler.Lock)
			protected.DELETE("/content/:type/:id/lock", cfg.AuthMiddleware.RequireAdmin(), cfg.ContentHandler.Unlock)
		}

		// Preview links
		if cfg.PreviewHandler != nil {
			protected.POST("/preview-token", cfg.PreviewHandler.Issue)
		}

		// Admin
		if cfg.AdminHandler != nil {
			admin := protected.Group("/admin", cfg.AuthMiddleware.RequireAdmin())
			admin.PUT("/users/:uid/status", cfg.AdminHandler.SetStatus)
			admin.PUT("/users/:uid/devices", cfg.AdminHandler.SetDevices)
			admin.POST("/users/:uid/sessions/revoke", cfg.AdminHandler.RevokeSessions)
		}
	}

	return r
}
