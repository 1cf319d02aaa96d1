package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListTools returns the tool definitions offered to the model.
func (h *Handler) ListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": h.tools.Descriptors()})
}

// ExecuteTool runs a tool with the request body as its arguments.
// Tool level failures are part of the result, so they answer 200.
func (h *Handler) ExecuteTool(c *gin.Context) {
	args, ok := readBody(c, "tool arguments")
	if !ok {
		return
	}
	outcome, err := h.tools.Execute(c.Request.Context(), c.Param("name"), args)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, outcome.Result)
}
