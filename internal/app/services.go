package app

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/yungbote/examprep-backend/internal/data/aggregates"
	"github.com/yungbote/examprep-backend/internal/events"
	"github.com/yungbote/examprep-backend/internal/observability"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
	"github.com/yungbote/examprep-backend/internal/realtime"
	"github.com/yungbote/examprep-backend/internal/services"
)

type Services struct {
	Verifier services.IdentityVerifier
	Emitter  services.SSEEmitter
	Notifier *services.ContentNotifier

	Session       services.SessionService
	Workflow      services.WorkflowService
	DocIdentity   services.DocumentIdentityService
	Related       services.RelatedService
	Sweep         services.SweepService
	Preview       services.PreviewService
	PublicContent services.PublicContentService

	// closers run on shutdown (event subscriptions).
	closers []io.Closer
}

func wireServices(
	ctx context.Context,
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	clients Clients,
	reposet Repos,
	hub *realtime.SSEHub,
	metrics *observability.Metrics,
) (Services, error) {
	log.Info("Wiring services...")

	loc, err := cfg.Location()
	if err != nil {
		return Services{}, err
	}

	verifier, err := wireVerifier(log, cfg)
	if err != nil {
		return Services{}, err
	}

	// Realtime delivery goes through the bus when one is configured so every
	// API instance's hub sees the message.
	var emitter services.SSEEmitter = &services.HubEmitter{Hub: hub}
	if clients.RealtimeBus != nil {
		emitter = &services.RedisEmitter{Bus: clients.RealtimeBus}
	}

	var relatedCache services.RelatedCache
	if clients.Redis != nil {
		relatedCache = services.NewRedisRelatedCache(log, clients.Redis, "examprep:related")
	}
	related := services.NewRelatedService(log, reposet.Document, relatedCache, metrics, services.RelatedServiceConfig{
		Location: loc,
		TTL:      cfg.RelatedCacheTTL,
	})
	invalidate := services.RelatedInvalidator(log, related)

	out := Services{Verifier: verifier, Emitter: emitter, Related: related}

	var publisher events.Publisher
	if clients.NATS != nil {
		sub, err := clients.NATS.Subscribe(ctx, "related-cache", invalidate)
		if err != nil {
			return Services{}, fmt.Errorf("subscribe related-cache: %w", err)
		}
		out.closers = append(out.closers, sub)
		publisher = clients.NATS
	} else {
		publisher = events.NewLocalPublisher(invalidate)
	}
	out.Notifier = services.NewContentNotifier(log, publisher, emitter, metrics)

	out.Session = services.NewSessionService(log, verifier, reposet.Profile, reposet.Session, emitter, metrics, services.SessionServiceConfig{
		MaxCeiling:        cfg.SessionMaxCeiling,
		HeartbeatInterval: cfg.HeartbeatInterval,
	})
	out.Workflow = services.NewWorkflowService(log, reposet.Document, out.Notifier, metrics, nil)
	out.DocIdentity = services.NewDocumentIdentityService(log, reposet.Document, out.Workflow, out.Notifier, nil)
	out.Sweep = services.NewSweepService(log, reposet.Document, aggregates.NewGormTxRunner(db), out.Notifier, metrics, nil)
	out.Preview = services.NewPreviewService(log, reposet.PreviewToken, reposet.Document, metrics, nil)
	out.PublicContent = services.NewPublicContentService(log, reposet.Document, out.Preview, related)

	return out, nil
}

func wireVerifier(log *logger.Logger, cfg Config) (services.IdentityVerifier, error) {
	if !cfg.IdentityConfigured() {
		log.Warn("IDENTITY_PROJECT_ID not set; session start will report identity_unavailable")
		return unconfiguredVerifier{}, nil
	}
	v, err := services.NewIdentityVerifier(services.IdentityVerifierConfig{
		ProjectID: cfg.IdentityProjectID,
		Issuer:    cfg.IdentityIssuer,
		JWKSURL:   cfg.IdentityJWKSURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init identity verifier: %w", err)
	}
	return v, nil
}

type unconfiguredVerifier struct{}

func (unconfiguredVerifier) Verify(context.Context, string) (*services.VerifiedIdentity, error) {
	return nil, apierr.Unavailable(apierr.CodeIdentityUnavail, "identity.verify", fmt.Errorf("identity provider not configured"))
}

func (s Services) Close(log *logger.Logger) {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Warn("service close failed", "error", err)
		}
	}
}
