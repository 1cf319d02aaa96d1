package eventrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/flowdash/internal/domain/payload"
	"github.com/yanqian/flowdash/internal/domain/preview"
)

// PostgresRepository stores webhook events in the interactions table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (preview.WebhookEvent, error) {
	var (
		event preview.WebhookEvent
		raw   []byte
	)
	if err := row.Scan(&event.ID, &event.ClientID, &raw, &event.ReceivedAt); err != nil {
		return preview.WebhookEvent{}, err
	}
	data, err := payload.Parse(raw)
	if err != nil {
		return preview.WebhookEvent{}, fmt.Errorf("decode event %s: %w", event.ID, err)
	}
	event.Payload = data
	return event, nil
}

// Append implements preview.EventRepository.
func (r *PostgresRepository) Append(ctx context.Context, event preview.WebhookEvent) error {
	raw, err := event.Payload.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO interactions (id, client_id, payload, received_at)
		VALUES ($1, $2, $3, $4)
	`, event.ID, event.ClientID, raw, event.ReceivedAt)
	return err
}

// Get implements preview.EventRepository.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (preview.WebhookEvent, bool, error) {
	event, err := scanEvent(r.pool.QueryRow(ctx, `
		SELECT id, client_id, payload::text, received_at FROM interactions WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return preview.WebhookEvent{}, false, nil
		}
		return preview.WebhookEvent{}, false, err
	}
	return event, true, nil
}

// ListRecent implements preview.EventRepository.
func (r *PostgresRepository) ListRecent(ctx context.Context, clientID string, limit int) ([]preview.WebhookEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, payload::text, received_at
		FROM interactions
		WHERE client_id = $1
		ORDER BY received_at DESC
		LIMIT $2
	`, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []preview.WebhookEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// Stats implements preview.EventRepository.
func (r *PostgresRepository) Stats(ctx context.Context, clientID string) (preview.EventStats, error) {
	var (
		stats preview.EventStats
		last  *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), MAX(received_at) FROM interactions WHERE client_id = $1
	`, clientID).Scan(&stats.Count, &last)
	if err != nil {
		return preview.EventStats{}, err
	}
	stats.LastReceivedAt = last
	return stats, nil
}

var _ preview.EventRepository = (*PostgresRepository)(nil)
