package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supplier-chat/internal/middleware"
	"supplier-chat/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router gin.IRouter, emitter *telemetry.AuditEmitter, auth gin.HandlerFunc, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", auth, func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), telemetry.LevelInfo, "audit test", requestIDFromContext(c), middleware.UserID(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
