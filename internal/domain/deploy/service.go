package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/flowdash/internal/domain/dashboard"
	apperrors "github.com/yanqian/flowdash/pkg/errors"
	"github.com/yanqian/flowdash/pkg/util"
)

const subdomainAttempts = 5

// Service manages clients and promotes preview specifications to deployments.
type Service interface {
	CreateClient(ctx context.Context, req CreateClientRequest) (CreateClientResponse, error)
	GetClient(ctx context.Context, clientID string) (Client, error)
	Deploy(ctx context.Context, clientID string) (DeployResponse, error)
	ListDeployments(ctx context.Context, clientID string) ([]Deployment, error)
	ResolveDeployed(ctx context.Context, subdomain string) (DeployedDashboard, error)
}

type service struct {
	cfg     Config
	repo    Repository
	specs   dashboard.SpecStore
	archive SnapshotArchive
	logger  *slog.Logger
	now     func() time.Time
	suffix  func() string
}

// NewService wires up the deploy domain.
func NewService(cfg Config, repo Repository, specs dashboard.SpecStore, archive SnapshotArchive, logger *slog.Logger) Service {
	if cfg.ArchivePrefix == "" {
		cfg.ArchivePrefix = "deployments"
	}
	return &service{
		cfg:     cfg,
		repo:    repo,
		specs:   specs,
		archive: archive,
		logger:  logger.With("component", "deploy.service"),
		now:     util.NowUTC,
		suffix:  randomSuffix,
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
}

func (s *service) CreateClient(ctx context.Context, req CreateClientRequest) (CreateClientResponse, error) {
	agencyID := strings.TrimSpace(req.AgencyID)
	if agencyID == "" {
		return CreateClientResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "agencyId is required", nil)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultClientName
	}
	subdomain := Slugify(name)
	if strings.TrimSpace(req.Subdomain) != "" {
		subdomain = Slugify(req.Subdomain)
	}
	now := s.now()
	if subdomain == "" {
		subdomain = fmt.Sprintf("client-%d", now.UnixMilli())
	}

	for i := 0; i < subdomainAttempts; i++ {
		taken, err := s.repo.SubdomainTaken(ctx, subdomain)
		if err != nil {
			return CreateClientResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to create client", err)
		}
		if !taken {
			break
		}
		subdomain = subdomain + "-" + s.suffix()
	}

	client := Client{
		ID:        uuid.New(),
		AgencyID:  agencyID,
		Name:      name,
		Subdomain: subdomain,
		Status:    StatusNotConnected,
		CreatedAt: now,
	}
	if err := s.repo.CreateClient(ctx, client); err != nil {
		if apperrors.IsCode(err, apperrors.CodeConflict) {
			return CreateClientResponse{}, err
		}
		return CreateClientResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to create client", err)
	}
	s.logger.Info("client created", "clientId", client.ID, "subdomain", subdomain)
	return CreateClientResponse{ClientID: client.ID, Subdomain: subdomain}, nil
}

func (s *service) GetClient(ctx context.Context, clientID string) (Client, error) {
	id, err := parseClientID(clientID)
	if err != nil {
		return Client{}, err
	}
	client, ok, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return Client{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load client", err)
	}
	if !ok {
		return Client{}, apperrors.Wrap(apperrors.CodeNotFound, "Client not found", nil)
	}
	return client, nil
}

func (s *service) Deploy(ctx context.Context, clientID string) (DeployResponse, error) {
	spec, ok, err := s.specs.Get(ctx, clientID)
	if err != nil {
		return DeployResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load preview spec", err)
	}
	if !ok {
		return DeployResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "No preview spec found to deploy", nil)
	}
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return DeployResponse{}, err
	}

	deployment, err := s.repo.CreateDeployment(ctx, DeploymentDraft{
		ID:            uuid.New(),
		ClientID:      client.ID,
		AgencyID:      client.AgencyID,
		Name:          spec.TemplateName,
		Specification: spec,
		DeployedAt:    s.now(),
	})
	if err != nil {
		return DeployResponse{}, apperrors.Wrap(apperrors.CodeStorage, "Failed to deploy dashboard", err)
	}

	s.archiveSnapshot(ctx, deployment)
	s.logger.Info("dashboard deployed",
		"clientId", client.ID,
		"deploymentId", deployment.ID,
		"version", deployment.Version,
	)
	return DeployResponse{
		Success:             true,
		DeployedDashboardID: deployment.ID,
		Version:             deployment.Version,
		DeployedURL:         s.deployedURL(client.Subdomain),
	}, nil
}

// archiveSnapshot is best effort; the deployment row is the source of truth.
func (s *service) archiveSnapshot(ctx context.Context, d Deployment) {
	if s.archive == nil {
		return
	}
	data, err := json.Marshal(d)
	if err != nil {
		s.logger.Warn("encode deployment snapshot failed", "deploymentId", d.ID, "error", err)
		return
	}
	key := fmt.Sprintf("%s/%s/v%d.json", s.cfg.ArchivePrefix, d.ClientID, d.Version)
	if err := s.archive.Put(ctx, key, data, "application/json"); err != nil {
		s.logger.Warn("archive deployment snapshot failed", "key", key, "error", err)
	}
}

func (s *service) deployedURL(subdomain string) string {
	return fmt.Sprintf("https://%s.%s", subdomain, s.cfg.BaseDomain)
}

func (s *service) ListDeployments(ctx context.Context, clientID string) ([]Deployment, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	deployments, err := s.repo.ListDeployments(ctx, client.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list deployments", err)
	}
	return deployments, nil
}

func (s *service) ResolveDeployed(ctx context.Context, subdomain string) (DeployedDashboard, error) {
	sub := strings.ToLower(strings.TrimSpace(subdomain))
	if sub == "" {
		return DeployedDashboard{}, apperrors.Wrap(apperrors.CodeInvalidInput, "subdomain is required", nil)
	}
	client, ok, err := s.repo.FindClientBySubdomain(ctx, sub)
	if err != nil {
		return DeployedDashboard{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load client", err)
	}
	if !ok {
		return DeployedDashboard{}, apperrors.Wrap(apperrors.CodeNotFound, "Client not found", nil)
	}
	if client.DeployedDashboardID == nil {
		return DeployedDashboard{}, apperrors.Wrap(apperrors.CodeNotFound, "no dashboard deployed for "+sub, nil)
	}
	deployment, ok, err := s.repo.GetDeployment(ctx, *client.DeployedDashboardID)
	if err != nil {
		return DeployedDashboard{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load deployment", err)
	}
	if !ok {
		return DeployedDashboard{}, apperrors.Wrap(apperrors.CodeNotFound, "deployed dashboard missing", nil)
	}
	return DeployedDashboard{Client: client, Deployment: deployment}, nil
}

func parseClientID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.UUID{}, apperrors.Wrap(apperrors.CodeNotFound, "Client not found", err)
	}
	return id, nil
}
