package eventrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yanqian/flowdash/internal/domain/preview"
)

// MemoryRepository keeps webhook events in memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]preview.WebhookEvent
	byClient map[string][]uuid.UUID
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:     make(map[uuid.UUID]preview.WebhookEvent),
		byClient: make(map[string][]uuid.UUID),
	}
}

// Append implements preview.EventRepository.
func (r *MemoryRepository) Append(_ context.Context, event preview.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[event.ID] = event
	r.byClient[event.ClientID] = append(r.byClient[event.ClientID], event.ID)
	return nil
}

// Get implements preview.EventRepository.
func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (preview.WebhookEvent, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	event, ok := r.byID[id]
	return event, ok, nil
}

// ListRecent implements preview.EventRepository.
func (r *MemoryRepository) ListRecent(_ context.Context, clientID string, limit int) ([]preview.WebhookEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byClient[clientID]
	out := make([]preview.WebhookEvent, 0, min(limit, len(ids)))
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.byID[ids[i]])
	}
	return out, nil
}

// Stats implements preview.EventRepository.
func (r *MemoryRepository) Stats(_ context.Context, clientID string) (preview.EventStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byClient[clientID]
	stats := preview.EventStats{Count: int64(len(ids))}
	if len(ids) > 0 {
		last := r.byID[ids[len(ids)-1]].ReceivedAt
		stats.LastReceivedAt = &last
	}
	return stats, nil
}

var _ preview.EventRepository = (*MemoryRepository)(nil)
