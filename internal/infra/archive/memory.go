package archive

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/flowdash/internal/domain/deploy"
)

// MemoryArchive keeps snapshots in memory for local runs and tests.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArchive constructs an empty archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: make(map[string][]byte)}
}

// Put implements deploy.SnapshotArchive.
func (a *MemoryArchive) Put(_ context.Context, key string, data []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = append([]byte(nil), data...)
	return nil
}

// Object returns a copy of the stored object.
func (a *MemoryArchive) Object(key string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.objects[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Keys lists stored keys in lexical order.
func (a *MemoryArchive) Keys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make([]string, 0, len(a.objects))
	for k := range a.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ deploy.SnapshotArchive = (*MemoryArchive)(nil)
