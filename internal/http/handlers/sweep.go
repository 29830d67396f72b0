package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/http/middleware"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
	"github.com/yungbote/examprep-backend/internal/services"
)

type SweepHandler struct {
	log     *logger.Logger
	sweeper services.SweepService
	secret  string
}

// NewSweepHandler guards the trigger with secret when it is non-empty.
func NewSweepHandler(log *logger.Logger, sweeper services.SweepService, secret string) *SweepHandler {
	return &SweepHandler{log: log.With("handler", "SweepHandler"), sweeper: sweeper, secret: secret}
}

// GET /sweep
func (h *SweepHandler) Run(c *gin.Context) {
	if h.secret != "" {
		got := middleware.BearerToken(c)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
			return
		}
	}
	n, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		h.log.Error("sweep failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "promotedCount": n})
}
