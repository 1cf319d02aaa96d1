package deploy

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists clients and their deployments.
type Repository interface {
	CreateClient(ctx context.Context, client Client) error
	SubdomainTaken(ctx context.Context, subdomain string) (bool, error)
	GetClient(ctx context.Context, id uuid.UUID) (Client, bool, error)
	FindClientBySubdomain(ctx context.Context, subdomain string) (Client, bool, error)
	// CreateDeployment assigns version = max(version for the client) + 1, stores the
	// deployment and points the client at it, all or nothing.
	CreateDeployment(ctx context.Context, draft DeploymentDraft) (Deployment, error)
	GetDeployment(ctx context.Context, id uuid.UUID) (Deployment, bool, error)
	ListDeployments(ctx context.Context, clientID uuid.UUID) ([]Deployment, error)
}

// SnapshotArchive keeps an immutable copy of every deployed specification.
type SnapshotArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
