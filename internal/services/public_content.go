package services

import (
	"context"
	"strings"

	"github.com/yungbote/examprep-backend/internal/data/repos"
	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/domain/preview"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

type PublicPage struct {
	Document content.PublicView `json:"document"`
	Related  content.Bundle     `json:"related"`
	Preview  bool               `json:"preview"`
}

// PublicContentService is the read side used by the public site.
type PublicContentService interface {
	// Page returns a published document, or any document when previewToken
	// verifies against it. Every miss is reported as document_not_found.
	Page(ctx context.Context, t content.Type, slug, previewToken string, mobile bool) (*PublicPage, error)
}

type publicContentService struct {
	log      *logger.Logger
	docs     repos.DocumentRepo
	previews PreviewService
	related  RelatedService
}

func NewPublicContentService(baseLog *logger.Logger, docs repos.DocumentRepo, previews PreviewService, related RelatedService) PublicContentService {
	return &publicContentService{
		log:      baseLog.With("service", "PublicContentService"),
		docs:     docs,
		previews: previews,
		related:  related,
	}
}

func (s *publicContentService) Page(ctx context.Context, t content.Type, slug, previewToken string, mobile bool) (*PublicPage, error) {
	const op = "public.Page"
	notFound := apierr.NotFound(apierr.CodeDocumentNotFound, op, "page not found")
	if _, ok := content.ParseType(string(t)); !ok {
		return nil, notFound
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, notFound
	}

	doc, err := s.docs.GetBySlug(dbctx.Of(ctx), t, slug)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound
	}

	page := &PublicPage{Document: doc.Public()}
	if doc.Status != content.StatusPublished {
		if s.previews == nil || strings.TrimSpace(previewToken) == "" {
			return nil, notFound
		}
		res := s.previews.Verify(ctx, previewToken, preview.Expectation{
			Type:  string(doc.Type),
			Slug:  doc.Slug,
			DocID: doc.ID,
		})
		if !res.OK {
			s.log.Debug("preview rejected", "reason", res.Reason, "doc_id", doc.ID)
			return nil, notFound
		}
		page.Preview = true
	}

	if s.related != nil {
		ca, notes := content.SplitManual(doc.RelatedContent)
		page.Related = s.related.Resolve(ctx, RelatedRequest{
			PageType:    doc.Type,
			PageDate:    doc.AnchorDay,
			Subject:     doc.Subject,
			Tags:        doc.Tags,
			ManualCA:    ca,
			ManualNotes: notes,
			Mobile:      mobile,
		})
	} else {
		page.Related = content.EmptyBundle()
	}
	return page, nil
}
