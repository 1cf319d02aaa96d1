package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/flowdash/internal/domain/preview"
)

const (
	maxWebhookBytes     = 1 << 20
	codePayloadTooLarge = "payload_too_large"
)

// readBody reads at most maxWebhookBytes; larger bodies answer 413 instead of being truncated.
func readBody(c *gin.Context, what string) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, NewHTTPError(http.StatusRequestEntityTooLarge, codePayloadTooLarge, what+" exceeds 1 MiB", err))
			return nil, false
		}
		invalidRequest(c, err)
		return nil, false
	}
	return body, true
}

// IngestWebhook stores a webhook payload and queues preview generation.
func (h *Handler) IngestWebhook(c *gin.Context) {
	body, ok := readBody(c, "webhook payload")
	if !ok {
		return
	}

	resp, err := h.previews.IngestWebhook(c.Request.Context(), c.Param("clientId"), body)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecentWebhooks lists the latest events received for a client.
func (h *Handler) RecentWebhooks(c *gin.Context) {
	resp, err := h.previews.RecentEvents(c.Request.Context(), c.Param("clientId"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// WebhookStatus reports whether a client has data and a ready preview.
func (h *Handler) WebhookStatus(c *gin.Context) {
	resp, err := h.previews.Status(c.Request.Context(), c.Param("clientId"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GeneratePreview builds and stores a preview from pasted JSON.
func (h *Handler) GeneratePreview(c *gin.Context) {
	var req preview.PasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	resp, err := h.previews.GenerateFromPaste(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListPreviews returns every stored preview, newest first.
func (h *Handler) ListPreviews(c *gin.Context) {
	specs, err := h.previews.List(c.Request.Context())
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"previews": specs})
}

// GetPreview returns one stored preview.
func (h *Handler) GetPreview(c *gin.Context) {
	resp, err := h.previews.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeletePreview removes a stored preview.
func (h *Handler) DeletePreview(c *gin.Context) {
	if err := h.previews.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.Status(http.StatusNoContent)
}
