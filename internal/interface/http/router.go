package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/flowdash/internal/infra/config"
	"github.com/yanqian/flowdash/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, recorder *metrics.Recorder, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.With("component", "http")

	router := gin.New()
	router.Use(
		gin.Recovery(),
		tracingMiddleware(),
		metricsMiddleware(recorder),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, logger),
	)

	router.GET("/healthz", handler.Health)
	router.GET("/metrics", gin.WrapH(recorder.Handler()))
	router.GET("/client/:subdomain", handler.DeployedDashboard)

	api := router.Group("/api/v1")
	{
		api.POST("/webhooks/:clientId", handler.IngestWebhook)
		api.GET("/webhooks/:clientId", handler.RecentWebhooks)
		api.GET("/webhooks-status/:clientId", handler.WebhookStatus)

		api.POST("/preview/generate", handler.GeneratePreview)
		api.GET("/previews", handler.ListPreviews)
		api.GET("/previews/:id", handler.GetPreview)
		api.DELETE("/previews/:id", handler.DeletePreview)

		api.GET("/tools", handler.ListTools)
		api.POST("/tools/:name", handler.ExecuteTool)

		api.POST("/clients", handler.CreateClient)
		api.GET("/clients/:clientId/deployments", handler.ListDeployments)
		api.POST("/deploy/:clientId", handler.Deploy)

		api.POST("/chat", handler.Chat)
		api.GET("/chat/:threadId", handler.ChatHistory)
	}

	var root http.Handler = router
	root = withRetry(root, cfg.HTTP.Retry, recorder, logger)
	root = withSubdomainRewrite(root, cfg.HTTP.RootDomain)

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        root,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
