package relay

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"supplier-chat/internal/auth"
	"supplier-chat/internal/handlers"
	"supplier-chat/internal/middleware"
	"supplier-chat/internal/observability"
	"supplier-chat/internal/presence"
	"supplier-chat/internal/repositories"
	"supplier-chat/internal/telemetry"
)

// Deps are the collaborators of the relay router.
type Deps struct {
	Issuer   *auth.Issuer
	Threads  repositories.ThreadRepository
	Messages repositories.MessageRepository
	Presence presence.Set
	Hub      *Hub
	Audit    *telemetry.AuditEmitter
	Logger   *zap.Logger
	Debug    bool
}

// NewRouter wires the relay HTTP and websocket routes.
func NewRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := deps.Hub
	if hub == nil {
		hub = NewHub(logger)
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(otelgin.Middleware("supplier-chat-relay"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(deps.Issuer)

	loginHandler := handlers.NewLoginHandler(deps.Issuer, deps.Threads, deps.Audit)
	threadHandler := handlers.NewThreadHandler(deps.Threads, deps.Messages)
	wsHandler := NewWebSocketHandler(hub, deps.Issuer, deps.Threads, deps.Messages, deps.Presence, deps.Audit, logger)

	router.POST("/login", loginHandler.Login)
	router.GET("/threads", authMiddleware, threadHandler.ListThreads)
	router.POST("/threads", authMiddleware, threadHandler.StartThread)
	router.GET("/threads/:thread_id", authMiddleware, threadHandler.GetThreadMessages)
	router.GET("/ws", wsHandler.Handle)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, deps.Audit, authMiddleware, deps.Debug)

	return router
}
