package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/http/response"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/ctxutil"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
	"github.com/yungbote/examprep-backend/internal/services"
)

const (
	HeaderSessionID = "X-Session-Id"
	HeaderDeviceID  = "X-Device-Id"
)

type AuthMiddleware struct {
	log      *logger.Logger
	sessions services.SessionService
}

func NewAuthMiddleware(log *logger.Logger, sessions services.SessionService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), sessions: sessions}
}

// RequireSession verifies the identity token and the session it is bound to
// on every request. EventSource cannot set headers, so the stream endpoint
// passes token, sid and did as query parameters instead.
func (am *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			token = strings.TrimSpace(c.Query("token"))
		}
		if token == "" {
			response.RespondStatus(c, http.StatusUnauthorized, apierr.CodeInvalidToken, "missing identity token")
			return
		}
		sid := firstNonEmpty(c.GetHeader(HeaderSessionID), c.Query("sid"))
		did := firstNonEmpty(c.GetHeader(HeaderDeviceID), c.Query("did"))

		p, err := am.sessions.Authenticate(c.Request.Context(), token, sid, did)
		if err != nil {
			am.log.Debug("request rejected", "code", apierr.CodeOf(err), "path", c.FullPath())
			response.RespondError(c, err)
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			UID:         p.Actor.UID,
			Email:       p.Actor.Email,
			DisplayName: p.Actor.DisplayName,
			Role:        string(p.Actor.Role),
			SessionID:   p.SessionID.String(),
			DeviceID:    p.DeviceID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin must run after RequireSession.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c.Request.Context())
		if !ok || !actor.Role.Privileged() {
			response.RespondStatus(c, http.StatusForbidden, apierr.CodeForbidden, "admin role required")
			return
		}
		c.Next()
	}
}

// ActorFrom rebuilds the authenticated actor from request data.
func ActorFrom(ctx context.Context) (identity.Actor, bool) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UID == "" {
		return identity.Actor{}, false
	}
	return identity.Actor{
		UID:         rd.UID,
		Email:       rd.Email,
		DisplayName: rd.DisplayName,
		Role:        identity.Role(rd.Role),
	}, true
}

func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
