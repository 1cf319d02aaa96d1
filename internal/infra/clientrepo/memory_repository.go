package clientrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yanqian/flowdash/internal/domain/deploy"
	apperrors "github.com/yanqian/flowdash/pkg/errors"
)

// MemoryRepository is an in-memory deploy.Repository used for tests/dev.
type MemoryRepository struct {
	mu sync.RWMutex

	clients     map[uuid.UUID]deploy.Client
	bySubdomain map[string]uuid.UUID
	deployments map[uuid.UUID]deploy.Deployment
	byClient    map[uuid.UUID][]uuid.UUID
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		clients:     make(map[uuid.UUID]deploy.Client),
		bySubdomain: make(map[string]uuid.UUID),
		deployments: make(map[uuid.UUID]deploy.Deployment),
		byClient:    make(map[uuid.UUID][]uuid.UUID),
	}
}

// CreateClient implements deploy.Repository.
func (r *MemoryRepository) CreateClient(_ context.Context, client deploy.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySubdomain[client.Subdomain]; ok {
		return apperrors.Wrap(apperrors.CodeConflict, "subdomain already taken", nil)
	}
	r.clients[client.ID] = client
	r.bySubdomain[client.Subdomain] = client.ID
	return nil
}

// SubdomainTaken implements deploy.Repository.
func (r *MemoryRepository) SubdomainTaken(_ context.Context, subdomain string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySubdomain[subdomain]
	return ok, nil
}

// GetClient implements deploy.Repository.
func (r *MemoryRepository) GetClient(_ context.Context, id uuid.UUID) (deploy.Client, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	return client, ok, nil
}

// FindClientBySubdomain implements deploy.Repository.
func (r *MemoryRepository) FindClientBySubdomain(_ context.Context, subdomain string) (deploy.Client, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySubdomain[subdomain]
	if !ok {
		return deploy.Client{}, false, nil
	}
	return r.clients[id], true, nil
}

// CreateDeployment implements deploy.Repository.
func (r *MemoryRepository) CreateDeployment(_ context.Context, draft deploy.DeploymentDraft) (deploy.Deployment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[draft.ClientID]
	if !ok {
		return deploy.Deployment{}, apperrors.Wrap(apperrors.CodeNotFound, "Client not found", nil)
	}

	version := 1
	for _, id := range r.byClient[draft.ClientID] {
		if v := r.deployments[id].Version; v >= version {
			version = v + 1
		}
	}
	d := deploy.Deployment{
		ID:            draft.ID,
		ClientID:      draft.ClientID,
		AgencyID:      draft.AgencyID,
		Name:          deploy.DeploymentName(draft.Name, version),
		Version:       version,
		Status:        deploy.StatusDeployed,
		Specification: draft.Specification,
		DeployedAt:    draft.DeployedAt,
	}
	r.deployments[d.ID] = d
	r.byClient[d.ClientID] = append(r.byClient[d.ClientID], d.ID)

	pointer := d.ID
	client.DeployedDashboardID = &pointer
	client.Status = deploy.StatusDeployed
	r.clients[client.ID] = client
	return d, nil
}

// GetDeployment implements deploy.Repository.
func (r *MemoryRepository) GetDeployment(_ context.Context, id uuid.UUID) (deploy.Deployment, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.deployments[id]
	return d, ok, nil
}

// ListDeployments implements deploy.Repository, newest version first.
func (r *MemoryRepository) ListDeployments(_ context.Context, clientID uuid.UUID) ([]deploy.Deployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byClient[clientID]
	out := make([]deploy.Deployment, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.deployments[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

var _ deploy.Repository = (*MemoryRepository)(nil)
