package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/http/response"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/services"
)

type PreviewHandler struct {
	previews services.PreviewService
}

func NewPreviewHandler(previews services.PreviewService) *PreviewHandler {
	return &PreviewHandler{previews: previews}
}

// POST /api/preview-token
func (h *PreviewHandler) Issue(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req struct {
		DocID string `json:"docId"`
		Slug  string `json:"slug"`
		Type  string `json:"type"`
	}
	if !bindJSON(c, &req) {
		return
	}
	t, ok := content.ParseType(req.Type)
	if !ok {
		response.RespondStatus(c, http.StatusBadRequest, apierr.CodeInvalidInput, "unknown content type")
		return
	}
	tok, err := h.previews.Issue(c.Request.Context(), actor, t, req.DocID, req.Slug)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"token": tok.Token, "expiresAt": tok.ExpiresAt})
}
