package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/data/repos"
	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/http/response"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/services"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type ContentHandler struct {
	identity services.DocumentIdentityService
	workflow services.WorkflowService
	loc      *time.Location
	now      func() time.Time
}

// NewContentHandler counts "today" in loc, the editorial time zone.
func NewContentHandler(identity services.DocumentIdentityService, workflow services.WorkflowService, loc *time.Location) *ContentHandler {
	return &ContentHandler{identity: identity, workflow: workflow, loc: loc, now: time.Now}
}

// POST /api/content/suggest
func (h *ContentHandler) Suggest(c *gin.Context) {
	var req struct {
		Type string `json:"type"`
		Date string `json:"date"`
		Text string `json:"text"`
	}
	if !bindJSON(c, &req) {
		return
	}
	t, ok := content.ParseType(req.Type)
	if !ok {
		response.RespondStatus(c, http.StatusBadRequest, apierr.CodeInvalidInput, "unknown content type")
		return
	}
	date := content.Day(h.now(), h.loc)
	if strings.TrimSpace(req.Date) != "" {
		d, err := content.ParseDay(req.Date)
		if err != nil {
			response.RespondStatus(c, http.StatusBadRequest, apierr.CodeInvalidInput, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}
	s, err := h.identity.Suggest(t, date, req.Text)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, s)
}

// GET /api/content/:type/exists/:id
func (h *ContentHandler) Exists(c *gin.Context) {
	t, ok := typeParam(c)
	if !ok {
		return
	}
	free, err := h.identity.CheckUnique(c.Request.Context(), t, c.Param("id"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"exists": !free})
}

// POST /api/content/:type/validate-slug
func (h *ContentHandler) ValidateSlug(c *gin.Context) {
	t, ok := typeParam(c)
	if !ok {
		return
	}
	var req struct {
		Slug      string `json:"slug"`
		CurrentID string `json:"currentId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	slug, err := h.identity.ValidateSlug(c.Request.Context(), t, req.Slug, req.CurrentID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"slug": slug, "available": true})
}

// POST /api/content/:type
func (h *ContentHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	t, ok := typeParam(c)
	if !ok {
		return
	}
	var draft content.Draft
	if !bindJSON(c, &draft) {
		return
	}
	draft.Type = t
	doc, err := h.identity.Create(c.Request.Context(), actor, draft)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"document": doc})
}

// GET /api/content/:type?status=&limit=&cursor=
func (h *ContentHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	t, ok := typeParam(c)
	if !ok {
		return
	}
	f := repos.DocumentListFilter{Type: t, Limit: queryInt(c, "limit", defaultListLimit)}
	if f.Limit <= 0 || f.Limit > maxListLimit {
		f.Limit = defaultListLimit
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		st, ok := content.ParseStatus(raw)
		if !ok {
			response.RespondStatus(c, http.StatusBadRequest, apierr.CodeInvalidInput, "unknown status")
			return
		}
		f.Status = st
	}
	if raw := strings.TrimSpace(c.Query("cursor")); raw != "" {
		at, id, ok := decodeCursor(raw)
		if !ok {
			response.RespondStatus(c, http.StatusBadRequest, apierr.CodeInvalidInput, "bad cursor")
			return
		}
		f.AfterUpdated, f.AfterID = &at, id
	}

	docs, err := h.workflow.List(c.Request.Context(), actor, f)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	out := gin.H{"documents": docs}
	if len(docs) == f.Limit {
		last := docs[len(docs)-1]
		out["nextCursor"] = encodeCursor(last.UpdatedAt, last.ID)
	}
	response.RespondOK(c, out)
}

// GET /api/content/:type/:id
func (h *ContentHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	t, ok := typeParam(c)
	if !ok {
		return
	}
	doc, err := h.workflow.Get(c.Request.Context(), actor, t, c.Param("id"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"document": doc,
		"thread":   content.InlineThread(doc.ReviewState().MessageThread, content.InlinePerParty),
	})
}

// PATCH /api/content/:type/:id[?autosave=true]
func (h *ContentHandler) Patch(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	t, ok := typeParam(c)
	if !ok {
		return
	}
	var patch content.Patch
	if !bindJSON(c, &patch) {
		return
	}
	var (
		doc *content.Document
		err error
	)
	if queryBool(c, "autosave") {
		doc, err = h.workflow.Autosave(c.Request.Context(), actor, t, c.Param("id"), patch)
	} else {
		doc, err = h.workflow.Edit(c.Request.Context(), actor, t, c.Param("id"), patch)
	}
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": doc})
}

// PUT /api/content/:type/:id/slug
func (h *ContentHandler) UpdateSlug(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	t, ok := typeParam(c)
	if !ok {
		return
	}
	var req struct {
		Slug string `json:"slug"`
	}
	if !bindJSON(c, &req) {
		return
	}
	doc, err := h.identity.UpdateSlug(c.Request.Context(), actor, t, c.Param("id"), req.Slug)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": doc})
}

// POST /api/content/:type/:id/transition
func (h *ContentHandler) Transition(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	t, ok := typeParam(c)
	if !ok {
		return
	}
	var cmd content.Command
	if !bindJSON(c, &cmd) {
		return
	}
	doc, err := h.workflow.Transition(c.Request.Context(), actor, t, c.Param("id"), cmd)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": doc})
}

// POST /api/content/:type/:id/messages
func (h *ContentHandler) PostMessage(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	t, ok := typeParam(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !bindJSON(c, &req) {
		return
	}
	doc, err := h.workflow.PostMessage(c.Request.Context(), actor, t, c.Param("id"), req.Text)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": doc})
}

// GET /api/content/:type/:id/messages[?page=&pageSize=]
//
// Without page the inline view is returned; page >= 1 walks older messages.
func (h *ContentHandler) Messages(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	t, ok := typeParam(c)
	if !ok {
		return
	}
	page := queryInt(c, "page", 0)
	if page <= 0 {
		view, err := h.workflow.Thread(c.Request.Context(), actor, t, c.Param("id"))
		if err != nil {
			response.RespondError(c, err)
			return
		}
		response.RespondOK(c, view)
		return
	}
	msgs, more, err := h.workflow.OlderMessages(c.Request.Context(), actor, t, c.Param("id"), page, queryInt(c, "pageSize", 10))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs, "hasMore": more})
}

// POST /api/content/:type/:id/lock
func (h *ContentHandler) Lock(c *gin.Context) { h.setLock(c, true) }

// DELETE /api/content/:type/:id/lock
func (h *ContentHandler) Unlock(c *gin.Context) { h.setLock(c, false) }

func (h *ContentHandler) setLock(c *gin.Context, locked bool) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	t, ok := typeParam(c)
	if !ok {
		return
	}
	doc, err := h.workflow.SetLock(c.Request.Context(), actor, t, c.Param("id"), locked)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"document": doc})
}

func encodeCursor(at time.Time, id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(at.UTC().Format(time.RFC3339Nano) + "|" + id))
}

func decodeCursor(raw string) (time.Time, string, bool) {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return time.Time{}, "", false
	}
	ts, id, ok := strings.Cut(string(b), "|")
	if !ok || id == "" {
		return time.Time{}, "", false
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, "", false
	}
	return at, id, true
}
