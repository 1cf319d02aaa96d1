package deploy

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/flowdash/internal/domain/dashboard"
)

// Client statuses.
const (
	StatusNotConnected = "not-connected"
	StatusDeployed     = "deployed"
)

const defaultClientName = "Untitled Client"

// Client is an end customer whose dashboard lives under its own subdomain.
type Client struct {
	ID                  uuid.UUID  `json:"id"`
	AgencyID            string     `json:"agencyId"`
	Name                string     `json:"name"`
	Subdomain           string     `json:"subdomain"`
	Status              string     `json:"status"`
	DeployedDashboardID *uuid.UUID `json:"deployedDashboardId,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// Deployment is a permanent, versioned copy of a preview specification.
type Deployment struct {
	ID            uuid.UUID               `json:"id"`
	ClientID      uuid.UUID               `json:"clientId"`
	AgencyID      string                  `json:"agencyId"`
	Name          string                  `json:"name"`
	Version       int                     `json:"version"`
	Status        string                  `json:"status"`
	Specification dashboard.Specification `json:"spec"`
	DeployedAt    time.Time               `json:"deployedAt"`
}

// DeploymentDraft is a deployment before the repository assigns its version.
type DeploymentDraft struct {
	ID            uuid.UUID
	ClientID      uuid.UUID
	AgencyID      string
	Name          string
	Specification dashboard.Specification
	DeployedAt    time.Time
}

// DeploymentName returns name, or "Dashboard v{version}" when name is empty.
func DeploymentName(name string, version int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("Dashboard v%d", version)
}

// CreateClientRequest is the input of CreateClient.
type CreateClientRequest struct {
	AgencyID  string `json:"agencyId"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
}

// CreateClientResponse is returned after a client was created.
type CreateClientResponse struct {
	ClientID  uuid.UUID `json:"clientId"`
	Subdomain string    `json:"subdomain"`
}

// DeployResponse is returned after a successful deploy.
type DeployResponse struct {
	Success             bool      `json:"success"`
	DeployedDashboardID uuid.UUID `json:"deployedDashboardId"`
	Version             int       `json:"version"`
	DeployedURL         string    `json:"deployedUrl"`
}

// DeployedDashboard is what a client subdomain renders.
type DeployedDashboard struct {
	Client     Client     `json:"client"`
	Deployment Deployment `json:"deployment"`
}
