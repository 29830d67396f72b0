package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/http/response"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/services"
)

type AdminHandler struct {
	sessions services.SessionService
}

func NewAdminHandler(sessions services.SessionService) *AdminHandler {
	return &AdminHandler{sessions: sessions}
}

// PUT /api/admin/users/:uid/status
func (h *AdminHandler) SetStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	status, ok := identity.ParseAccountStatus(req.Status)
	if !ok {
		response.RespondStatus(c, http.StatusBadRequest, apierr.CodeInvalidInput, "unknown account status")
		return
	}
	if err := h.sessions.SetAccountStatus(c.Request.Context(), actor, c.Param("uid"), status); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"uid": c.Param("uid"), "status": status})
}

// PUT /api/admin/users/:uid/devices
func (h *AdminHandler) SetDevices(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req struct {
		DeviceIDs []string `json:"deviceIds"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.sessions.SetAllowedDevices(c.Request.Context(), actor, c.Param("uid"), req.DeviceIDs); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"uid": c.Param("uid"), "deviceIds": req.DeviceIDs})
}

// POST /api/admin/users/:uid/sessions/revoke
func (h *AdminHandler) RevokeSessions(c *gin.Context) {
	n, err := h.sessions.RevokeAll(c.Request.Context(), c.Param("uid"), identity.RevokeAdmin)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"revoked": n})
}
