package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/flowdash/internal/domain/chat"
)

// Chat runs one conversation turn with tool access.
func (h *Handler) Chat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	resp, err := h.chats.Send(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChatHistory returns the stored messages of a thread.
func (h *Handler) ChatHistory(c *gin.Context) {
	resp, err := h.chats.History(c.Request.Context(), c.Param("threadId"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}
