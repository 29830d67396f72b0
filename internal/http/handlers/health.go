package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	configured bool
	ping       func(ctx context.Context) error
}

// NewHealthHandler reports configured when the identity provider and store
// settings were present at boot; ping checks the store on each call.
func NewHealthHandler(configured bool, ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{configured: configured, ping: ping}
}

// GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	initialized := h.ping != nil
	if initialized {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		initialized = h.ping(ctx) == nil
	}
	status := http.StatusOK
	if !initialized {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ok":          initialized && h.configured,
		"configured":  h.configured,
		"initialized": initialized,
	})
}
