package threadrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/flowdash/internal/domain/chat"
	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/flowdash/pkg/errors"
)

// MemoryRepository keeps threads in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	threads  map[uuid.UUID]chat.Thread
	messages map[uuid.UUID][]chat.StoredMessage
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		threads:  make(map[uuid.UUID]chat.Thread),
		messages: make(map[uuid.UUID][]chat.StoredMessage),
	}
}

// CreateThread implements chat.ThreadRepository.
func (r *MemoryRepository) CreateThread(_ context.Context, thread chat.Thread) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.threads[thread.ID]; ok {
		return apperrors.Wrap(apperrors.CodeConflict, "thread already exists", nil)
	}
	r.threads[thread.ID] = thread
	return nil
}

// GetThread implements chat.ThreadRepository.
func (r *MemoryRepository) GetThread(_ context.Context, id uuid.UUID) (chat.Thread, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	thread, ok := r.threads[id]
	return thread, ok, nil
}

// AppendMessages implements chat.ThreadRepository.
func (r *MemoryRepository) AppendMessages(_ context.Context, threadID uuid.UUID, messages []chatgpt.Message, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.threads[threadID]; !ok {
		return apperrors.Wrap(apperrors.CodeNotFound, "thread not found", nil)
	}
	for _, msg := range messages {
		r.messages[threadID] = append(r.messages[threadID], chat.StoredMessage{ThreadID: threadID, Message: msg, CreatedAt: at})
	}
	return nil
}

// ListMessages implements chat.ThreadRepository.
func (r *MemoryRepository) ListMessages(_ context.Context, threadID uuid.UUID) ([]chat.StoredMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.messages[threadID]
	out := make([]chat.StoredMessage, len(stored))
	copy(out, stored)
	return out, nil
}
