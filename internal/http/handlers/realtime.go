package handlers

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/http/response"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
	"github.com/yungbote/examprep-backend/internal/realtime"
	"github.com/yungbote/examprep-backend/internal/services"
)

type RealtimeHandler struct {
	log      *logger.Logger
	hub      *realtime.SSEHub
	workflow services.WorkflowService

	mu      sync.RWMutex
	clients map[string]*realtime.SSEClient // key: session id
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, workflow services.WorkflowService) *RealtimeHandler {
	return &RealtimeHandler{
		log:      log.With("handler", "RealtimeHandler"),
		hub:      hub,
		workflow: workflow,
		clients:  make(map[string]*realtime.SSEClient),
	}
}

// GET /api/session/stream
//
// Every stream listens on its session and user channels; revocations and
// profile changes arrive there without polling.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	rd, ok := requireRequestData(c)
	if !ok {
		return
	}

	h.mu.Lock()
	if existing, ok := h.clients[rd.SessionID]; ok {
		h.hub.CloseClient(existing)
		delete(h.clients, rd.SessionID)
	}
	client := h.hub.NewSSEClient(rd.UID, rd.SessionID)
	h.clients[rd.SessionID] = client
	h.mu.Unlock()

	h.hub.AddChannel(client, realtime.SessionChannel(rd.SessionID))
	h.hub.AddChannel(client, realtime.UserChannel(rd.UID))
	h.log.Debug("stream open", "uid", rd.UID, "session_id", rd.SessionID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.mu.Lock()
	if h.clients[rd.SessionID] == client {
		delete(h.clients, rd.SessionID)
		h.hub.CloseClient(client)
	}
	h.mu.Unlock()
}

// POST /api/session/stream/subscribe
//
// The caller must be able to read the document the channel belongs to.
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	channel, ok := docChannelParam(c)
	if !ok {
		return
	}
	ref := strings.TrimPrefix(channel, realtime.DocChannel(""))
	if err := h.workflow.CanWatch(c.Request.Context(), actor, ref); err != nil {
		response.RespondError(c, err)
		return
	}
	client, ok := h.openStream(c)
	if !ok {
		return
	}
	h.hub.AddChannel(client, channel)
	response.RespondOK(c, gin.H{"subscribed": channel})
}

// POST /api/session/stream/unsubscribe
func (h *RealtimeHandler) Unsubscribe(c *gin.Context) {
	channel, ok := docChannelParam(c)
	if !ok {
		return
	}
	client, ok := h.openStream(c)
	if !ok {
		return
	}
	h.hub.RemoveChannel(client, channel)
	response.RespondOK(c, gin.H{"unsubscribed": channel})
}

// docChannelParam reads the channel from the body. Only document channels
// can be joined explicitly.
func docChannelParam(c *gin.Context) (string, bool) {
	var req struct {
		Channel string `json:"channel"`
	}
	if !bindJSON(c, &req) {
		return "", false
	}
	channel := strings.TrimSpace(req.Channel)
	if !strings.HasPrefix(channel, realtime.DocChannel("")) || channel == realtime.DocChannel("") {
		response.RespondStatus(c, http.StatusBadRequest, apierr.CodeInvalidInput, "only doc channels can be subscribed")
		return "", false
	}
	return channel, true
}

// openStream finds the caller's open stream.
func (h *RealtimeHandler) openStream(c *gin.Context) (*realtime.SSEClient, bool) {
	rd, ok := requireRequestData(c)
	if !ok {
		return nil, false
	}
	h.mu.RLock()
	client, exists := h.clients[rd.SessionID]
	h.mu.RUnlock()
	if !exists {
		response.RespondStatus(c, http.StatusConflict, "no_stream", "no open stream for this session")
		return nil, false
	}
	return client, true
}
