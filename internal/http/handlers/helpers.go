package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/http/middleware"
	"github.com/yungbote/examprep-backend/internal/http/response"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/ctxutil"
)

func requireActor(c *gin.Context) (identity.Actor, bool) {
	actor, ok := middleware.ActorFrom(c.Request.Context())
	if !ok {
		response.RespondStatus(c, http.StatusUnauthorized, apierr.CodeInvalidToken, "not authenticated")
		return identity.Actor{}, false
	}
	return actor, true
}

func requireRequestData(c *gin.Context) (*ctxutil.RequestData, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UID == "" || rd.SessionID == "" {
		response.RespondStatus(c, http.StatusUnauthorized, apierr.CodeSessionNotFound, "missing session")
		return nil, false
	}
	return rd, true
}

func typeParam(c *gin.Context) (content.Type, bool) {
	t, ok := content.ParseType(c.Param("type"))
	if !ok {
		response.RespondStatus(c, http.StatusBadRequest, apierr.CodeInvalidInput, "unknown content type")
		return "", false
	}
	return t, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondStatus(c, http.StatusBadRequest, apierr.CodeInvalidInput, "invalid request body")
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return b
}
