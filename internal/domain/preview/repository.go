package preview

import (
	"context"

	"github.com/google/uuid"

	"github.com/yanqian/flowdash/internal/domain/deploy"
)

// EventRepository stores received webhook payloads.
type EventRepository interface {
	Append(ctx context.Context, event WebhookEvent) error
	Get(ctx context.Context, id uuid.UUID) (WebhookEvent, bool, error)
	// ListRecent returns at most limit events for the client, newest first.
	ListRecent(ctx context.Context, clientID string, limit int) ([]WebhookEvent, error)
	Stats(ctx context.Context, clientID string) (EventStats, error)
}

// JobQueue schedules background work.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload map[string]any) error
}

// TokenCounter estimates the model tokens of a text.
type TokenCounter interface {
	Count(text string) int
}

// ClientDirectory resolves clients by id.
type ClientDirectory interface {
	GetClient(ctx context.Context, clientID string) (deploy.Client, error)
}
