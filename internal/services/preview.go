package services

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/examprep-backend/internal/data/repos"
	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/domain/preview"
	"github.com/yungbote/examprep-backend/internal/observability"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

type VerifyResult struct {
	OK     bool
	Reason string
	Token  *preview.Token
}

// PreviewService issues short-lived links that let a page render an
// unpublished document.
type PreviewService interface {
	Issue(ctx context.Context, actor identity.Actor, t content.Type, docID, slug string) (*preview.Token, error)
	// Verify fails closed; callers must treat every failure as "not found".
	Verify(ctx context.Context, token string, want preview.Expectation) VerifyResult
	Cleanup(ctx context.Context) (int64, error)
}

type previewService struct {
	log     *logger.Logger
	tokens  repos.PreviewTokenRepo
	docs    repos.DocumentRepo
	metrics *observability.Metrics
	now     func() time.Time
}

func NewPreviewService(
	baseLog *logger.Logger,
	tokens repos.PreviewTokenRepo,
	docs repos.DocumentRepo,
	metrics *observability.Metrics,
	now func() time.Time,
) PreviewService {
	if now == nil {
		now = time.Now
	}
	return &previewService{
		log:     baseLog.With("service", "PreviewService"),
		tokens:  tokens,
		docs:    docs,
		metrics: metrics,
		now:     now,
	}
}

func (s *previewService) Issue(ctx context.Context, actor identity.Actor, t content.Type, docID, slug string) (*preview.Token, error) {
	const op = "preview.Issue"
	if actor.Role != identity.RoleEditor && !actor.Role.Privileged() {
		return nil, apierr.Authorization(apierr.CodeForbidden, op, "role may not issue preview links")
	}
	c, err := collectionOf(t, op)
	if err != nil {
		return nil, err
	}
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, apierr.Validation(apierr.CodeInvalidInput, op, "docId is required")
	}
	doc, err := s.docs.Get(dbctx.Of(ctx), c, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Type != t {
		return nil, apierr.NotFound(apierr.CodeDocumentNotFound, op, "document not found")
	}
	if err := canRead(doc, actor, op); err != nil {
		return nil, err
	}
	if slug = strings.TrimSpace(slug); slug == "" {
		slug = doc.Slug
	}

	value, err := preview.NewValue()
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, apierr.CodeInternal, op, err)
	}
	now := s.now().UTC()
	tok := &preview.Token{
		Token:        value,
		DocID:        doc.ID,
		Slug:         slug,
		Type:         string(doc.Type),
		CreatedByUID: actor.UID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(preview.TTL),
	}
	if err := s.tokens.Create(dbctx.Of(ctx), tok); err != nil {
		return nil, err
	}
	s.log.Info("preview token issued", "doc_id", doc.ID, "type", doc.Type, "uid", actor.UID)
	return tok, nil
}

func (s *previewService) Verify(ctx context.Context, token string, want preview.Expectation) VerifyResult {
	res := s.verify(ctx, token, want)
	if res.OK {
		s.metrics.IncPreviewVerify("ok")
	} else {
		s.metrics.IncPreviewVerify(res.Reason)
	}
	return res
}

func (s *previewService) verify(ctx context.Context, token string, want preview.Expectation) VerifyResult {
	token = strings.TrimSpace(token)
	if token == "" {
		return VerifyResult{Reason: preview.ReasonMissingToken}
	}
	tok, err := s.tokens.Get(dbctx.Of(ctx), token)
	if err != nil {
		s.log.Ctx(ctx).Warn("preview token lookup failed", "error", err)
		return VerifyResult{Reason: preview.ReasonTokenNotFound}
	}
	if tok == nil {
		return VerifyResult{Reason: preview.ReasonTokenNotFound}
	}
	if tok.Expired(s.now()) {
		if err := s.tokens.Delete(dbctx.Of(ctx), token); err != nil {
			s.log.Ctx(ctx).Warn("delete expired preview token failed", "error", err)
		}
		return VerifyResult{Reason: preview.ReasonTokenExpired}
	}
	if reason := tok.Check(want); reason != "" {
		return VerifyResult{Reason: reason}
	}
	return VerifyResult{OK: true, Token: tok}
}

// Cleanup removes tokens that expired without ever being verified again.
func (s *previewService) Cleanup(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(dbctx.Of(ctx), s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired preview tokens removed", "count", n)
	}
	return n, nil
}
