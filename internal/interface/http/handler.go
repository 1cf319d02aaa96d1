package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/flowdash/internal/domain/chat"
	"github.com/yanqian/flowdash/internal/domain/deploy"
	"github.com/yanqian/flowdash/internal/domain/preview"
	"github.com/yanqian/flowdash/internal/domain/toolkit"
)

// ToolCatalog exposes the dashboard tools over HTTP.
type ToolCatalog interface {
	Descriptors() []toolkit.Descriptor
	Execute(ctx context.Context, name string, args []byte) (toolkit.Outcome, error)
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	previews preview.Service
	deploys  deploy.Service
	tools    ToolCatalog
	chats    chat.Service
	logger   *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(previews preview.Service, deploys deploy.Service, tools ToolCatalog, chats chat.Service, logger *slog.Logger) *Handler {
	return &Handler{
		previews: previews,
		deploys:  deploys,
		tools:    tools,
		chats:    chats,
		logger:   logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
