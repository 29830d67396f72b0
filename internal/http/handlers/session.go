package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/http/middleware"
	"github.com/yungbote/examprep-backend/internal/http/response"
	"github.com/yungbote/examprep-backend/internal/services"
)

type SessionHandler struct {
	sessions services.SessionService
}

func NewSessionHandler(sessions services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// POST /api/session/start
func (h *SessionHandler) Start(c *gin.Context) {
	var req struct {
		DeviceID  string `json:"deviceId"`
		UserAgent string `json:"userAgent"`
	}
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Request.UserAgent()
	}
	start, err := h.sessions.StartSession(c.Request.Context(), middleware.BearerToken(c), req.DeviceID, req.UserAgent)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"sessionId":                start.SessionID.String(),
		"deviceId":                 start.DeviceID,
		"heartbeatIntervalSeconds": int(start.HeartbeatInterval.Seconds()),
	})
}

// POST /api/session/heartbeat
func (h *SessionHandler) Heartbeat(c *gin.Context) {
	rd, ok := requireRequestData(c)
	if !ok {
		return
	}
	h.sessions.Heartbeat(c.Request.Context(), rd.UID, rd.SessionID)
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	rd, ok := requireRequestData(c)
	if !ok {
		return
	}
	if err := h.sessions.EndSession(c.Request.Context(), rd.UID, rd.SessionID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
