package clientrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/flowdash/internal/domain/deploy"
	apperrors "github.com/yanqian/flowdash/pkg/errors"
)

const uniqueViolation = "23505"

// PostgresRepository implements deploy.Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const clientColumns = `id, agency_id, name, subdomain, status, deployed_dashboard_id, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (deploy.Client, error) {
	var c deploy.Client
	err := row.Scan(&c.ID, &c.AgencyID, &c.Name, &c.Subdomain, &c.Status, &c.DeployedDashboardID, &c.CreatedAt)
	return c, err
}

// CreateClient inserts a client; a duplicate subdomain is a conflict.
func (r *PostgresRepository) CreateClient(ctx context.Context, c deploy.Client) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clients (id, agency_id, name, subdomain, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.AgencyID, c.Name, c.Subdomain, c.Status, c.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperrors.Wrap(apperrors.CodeConflict, "subdomain already taken", err)
	}
	return err
}

// SubdomainTaken reports whether a client already uses subdomain.
func (r *PostgresRepository) SubdomainTaken(ctx context.Context, subdomain string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE subdomain = $1)`, subdomain).Scan(&exists)
	return exists, err
}

// GetClient loads a client by id.
func (r *PostgresRepository) GetClient(ctx context.Context, id uuid.UUID) (deploy.Client, bool, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return deploy.Client{}, false, nil
		}
		return deploy.Client{}, false, err
	}
	return c, true, nil
}

// FindClientBySubdomain loads a client by subdomain.
func (r *PostgresRepository) FindClientBySubdomain(ctx context.Context, subdomain string) (deploy.Client, bool, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE subdomain = $1`, subdomain))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return deploy.Client{}, false, nil
		}
		return deploy.Client{}, false, err
	}
	return c, true, nil
}

// CreateDeployment locks the client row so concurrent deploys serialize on the version.
func (r *PostgresRepository) CreateDeployment(ctx context.Context, draft deploy.DeploymentDraft) (deploy.Deployment, error) {
	spec, err := json.Marshal(draft.Specification)
	if err != nil {
		return deploy.Deployment{}, fmt.Errorf("encode spec: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return deploy.Deployment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM clients WHERE id = $1 FOR UPDATE`, draft.ClientID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return deploy.Deployment{}, apperrors.Wrap(apperrors.CodeNotFound, "Client not found", nil)
		}
		return deploy.Deployment{}, err
	}

	var version int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) + 1 FROM dashboards WHERE client_id = $1`, draft.ClientID).Scan(&version); err != nil {
		return deploy.Deployment{}, fmt.Errorf("determine next version: %w", err)
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
	if _, err := tx.Exec(ctx, `
		INSERT INTO dashboards (id, client_id, agency_id, name, spec, status, version, deployed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, d.ID, d.ClientID, d.AgencyID, d.Name, spec, d.Status, d.Version, d.DeployedAt); err != nil {
		return deploy.Deployment{}, fmt.Errorf("insert deployment: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE clients SET deployed_dashboard_id = $1, status = $2 WHERE id = $3
	`, d.ID, deploy.StatusDeployed, d.ClientID); err != nil {
		return deploy.Deployment{}, fmt.Errorf("set deployed dashboard pointer: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return deploy.Deployment{}, err
	}
	return d, nil
}

const deploymentColumns = `id, client_id, agency_id, name, version, status, spec, deployed_at`

func scanDeployment(row rowScanner) (deploy.Deployment, error) {
	var (
		d    deploy.Deployment
		spec []byte
	)
	if err := row.Scan(&d.ID, &d.ClientID, &d.AgencyID, &d.Name, &d.Version, &d.Status, &spec, &d.DeployedAt); err != nil {
		return deploy.Deployment{}, err
	}
	if err := json.Unmarshal(spec, &d.Specification); err != nil {
		return deploy.Deployment{}, fmt.Errorf("decode spec for deployment %s: %w", d.ID, err)
	}
	return d, nil
}

// GetDeployment loads one deployment.
func (r *PostgresRepository) GetDeployment(ctx context.Context, id uuid.UUID) (deploy.Deployment, bool, error) {
	d, err := scanDeployment(r.pool.QueryRow(ctx, `SELECT `+deploymentColumns+` FROM dashboards WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return deploy.Deployment{}, false, nil
		}
		return deploy.Deployment{}, false, err
	}
	return d, true, nil
}

// ListDeployments returns a client's deployments, newest version first.
func (r *PostgresRepository) ListDeployments(ctx context.Context, clientID uuid.UUID) ([]deploy.Deployment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+deploymentColumns+`
		FROM dashboards
		WHERE client_id = $1
		ORDER BY version DESC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []deploy.Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

var _ deploy.Repository = (*PostgresRepository)(nil)
