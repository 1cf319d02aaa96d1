package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
)

// ThreadRepository persists threads and their messages in order.
type ThreadRepository interface {
	CreateThread(ctx context.Context, thread Thread) error
	GetThread(ctx context.Context, id uuid.UUID) (Thread, bool, error)
	AppendMessages(ctx context.Context, threadID uuid.UUID, messages []chatgpt.Message, at time.Time) error
	ListMessages(ctx context.Context, threadID uuid.UUID) ([]StoredMessage, error)
}
