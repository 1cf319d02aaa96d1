package specstore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yanqian/flowdash/internal/domain/dashboard"
)

const defaultMaxEntries = 10000

// MemoryStore keeps encoded specifications in an expiring LRU for tests/dev.
// Entries are stored encoded so callers never share mutable state.
type MemoryStore struct {
	cache *expirable.LRU[string, []byte]
}

// NewMemoryStore constructs a store whose entries expire ttl after each save.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if ttl <= 0 {
		ttl = dashboard.PreviewTTL
	}
	return &MemoryStore{cache: expirable.NewLRU[string, []byte](maxEntries, nil, ttl)}
}

// Save implements dashboard.SpecStore. Re-saving an id resets its expiry.
func (s *MemoryStore) Save(_ context.Context, id string, spec dashboard.Specification) error {
	data, err := encodeSpec(spec)
	if err != nil {
		return err
	}
	s.cache.Remove(id)
	s.cache.Add(id, data)
	return nil
}

// Get implements dashboard.SpecStore.
func (s *MemoryStore) Get(_ context.Context, id string) (dashboard.Specification, bool, error) {
	data, ok := s.cache.Get(id)
	if !ok {
		return dashboard.Specification{}, false, nil
	}
	spec, err := decodeSpec(data)
	if err != nil {
		return dashboard.Specification{}, false, err
	}
	return spec, true, nil
}

// Delete implements dashboard.SpecStore.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Remove(id)
	return nil
}

// List implements dashboard.SpecStore.
func (s *MemoryStore) List(_ context.Context) ([]dashboard.StoredSpec, error) {
	keys := s.cache.Keys()
	out := make([]dashboard.StoredSpec, 0, len(keys))
	for _, id := range keys {
		data, ok := s.cache.Peek(id)
		if !ok {
			continue
		}
		spec, err := decodeSpec(data)
		if err != nil {
			return nil, err
		}
		out = append(out, dashboard.StoredSpec{ID: id, Specification: spec})
	}
	sortNewestFirst(out)
	return out, nil
}

var _ dashboard.SpecStore = (*MemoryStore)(nil)
