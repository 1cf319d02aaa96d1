package pgschema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Payload and spec columns are json, not jsonb, so stored documents keep their key order.
const ddl = `
CREATE TABLE IF NOT EXISTS clients (
  id UUID PRIMARY KEY,
  agency_id TEXT NOT NULL,
  name TEXT NOT NULL,
  subdomain TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'not-connected',
  deployed_dashboard_id UUID,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS dashboards (
  id UUID PRIMARY KEY,
  client_id UUID NOT NULL REFERENCES clients (id) ON DELETE CASCADE,
  agency_id TEXT NOT NULL,
  name TEXT NOT NULL,
  spec JSON NOT NULL,
  status TEXT NOT NULL,
  version INTEGER NOT NULL,
  deployed_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (client_id, version)
);

CREATE TABLE IF NOT EXISTS interactions (
  id UUID PRIMARY KEY,
  client_id TEXT NOT NULL,
  payload JSON NOT NULL,
  received_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_client_received ON interactions (client_id, received_at DESC);

CREATE TABLE IF NOT EXISTS threads (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
  seq BIGSERIAL PRIMARY KEY,
  id UUID NOT NULL UNIQUE,
  thread_id UUID NOT NULL REFERENCES threads (id) ON DELETE CASCADE,
  role TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL DEFAULT '',
  tool_calls JSONB,
  tool_call_id TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages (thread_id, seq);
`

// Ensure creates the tables used by the Postgres repositories when missing.
func Ensure(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return nil
	}
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
