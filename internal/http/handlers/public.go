package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/http/response"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/services"
)

type PublicHandler struct {
	pages   services.PublicContentService
	related services.RelatedService
}

func NewPublicHandler(pages services.PublicContentService, related services.RelatedService) *PublicHandler {
	return &PublicHandler{pages: pages, related: related}
}

// GET /public/content/:type/:slug[?preview=&mobile=]
func (h *PublicHandler) Page(c *gin.Context) {
	t, ok := content.ParseType(c.Param("type"))
	if !ok {
		response.RespondStatus(c, http.StatusNotFound, apierr.CodeDocumentNotFound, "page not found")
		return
	}
	page, err := h.pages.Page(c.Request.Context(), t, c.Param("slug"), c.Query("preview"), queryBool(c, "mobile"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if page.Preview {
		c.Header("Cache-Control", "no-store")
		c.Header("X-Robots-Tag", "noindex")
	}
	response.RespondOK(c, page)
}

// GET /public/related?pageType=&date=&subject=&mobile=
func (h *PublicHandler) Related(c *gin.Context) {
	req := services.ParseRelatedRequest(c.Query("pageType"), c.Query("date"), c.Query("subject"), c.Query("mobile"))
	response.RespondOK(c, h.related.Resolve(c.Request.Context(), req))
}
