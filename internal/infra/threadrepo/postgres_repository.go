package threadrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/flowdash/internal/domain/chat"
	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
)

// PostgresRepository stores threads and messages in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// CreateThread implements chat.ThreadRepository.
func (r *PostgresRepository) CreateThread(ctx context.Context, thread chat.Thread) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO threads (id, name, created_at)
		VALUES ($1, $2, $3)
	`, thread.ID, thread.Name, thread.CreatedAt)
	return err
}

// GetThread implements chat.ThreadRepository.
func (r *PostgresRepository) GetThread(ctx context.Context, id uuid.UUID) (chat.Thread, bool, error) {
	var t chat.Thread
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM threads WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return chat.Thread{}, false, nil
		}
		return chat.Thread{}, false, err
	}
	return t, true, nil
}

// AppendMessages writes the messages of one turn in a single batch, keeping their order.
func (r *PostgresRepository) AppendMessages(ctx context.Context, threadID uuid.UUID, messages []chatgpt.Message, at time.Time) error {
	if len(messages) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, msg := range messages {
		toolCalls, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return fmt.Errorf("encode tool calls: %w", err)
		}
		batch.Queue(`
			INSERT INTO messages (id, thread_id, role, content, name, tool_calls, tool_call_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New(), threadID, msg.Role, msg.Content, msg.Name, toolCalls, msg.ToolCallID, at)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// ListMessages implements chat.ThreadRepository.
func (r *PostgresRepository) ListMessages(ctx context.Context, threadID uuid.UUID) ([]chat.StoredMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT role, content, name, tool_calls, tool_call_id, created_at
		FROM messages
		WHERE thread_id = $1
		ORDER BY seq ASC
	`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chat.StoredMessage
	for rows.Next() {
		var (
			m         chat.StoredMessage
			toolCalls []byte
		)
		m.ThreadID = threadID
		if err := rows.Scan(&m.Message.Role, &m.Message.Content, &m.Message.Name, &toolCalls, &m.Message.ToolCallID, &m.CreatedAt); err != nil {
			return nil, err
		}
		if len(toolCalls) > 0 {
			if err := json.Unmarshal(toolCalls, &m.Message.ToolCalls); err != nil {
				return nil, fmt.Errorf("decode tool calls: %w", err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
