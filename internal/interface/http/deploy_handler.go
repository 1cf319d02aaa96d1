package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/flowdash/internal/domain/deploy"
)

// CreateClient registers a client and reserves its subdomain.
func (h *Handler) CreateClient(c *gin.Context) {
	var req deploy.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	resp, err := h.deploys.CreateClient(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListDeployments returns a client's deployments, newest first.
func (h *Handler) ListDeployments(c *gin.Context) {
	deployments, err := h.deploys.ListDeployments(c.Request.Context(), c.Param("clientId"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	if deployments == nil {
		deployments = []deploy.Deployment{}
	}
	c.JSON(http.StatusOK, gin.H{"deployments": deployments})
}

// Deploy promotes the client's preview to a new deployment version.
func (h *Handler) Deploy(c *gin.Context) {
	resp, err := h.deploys.Deploy(c.Request.Context(), c.Param("clientId"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeployedDashboard serves the deployed specification for a client subdomain.
func (h *Handler) DeployedDashboard(c *gin.Context) {
	resp, err := h.deploys.ResolveDeployed(c.Request.Context(), c.Param("subdomain"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"client": gin.H{
			"id":        resp.Client.ID,
			"name":      resp.Client.Name,
			"subdomain": resp.Client.Subdomain,
		},
		"dashboard": resp.Deployment,
	})
}
