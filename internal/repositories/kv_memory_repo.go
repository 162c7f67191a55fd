package repositories

import (
	"context"
	"sync"

	"github.com/BradenHooton/calcvault/internal/models"
)

// MemoryKVRepository keeps vault state in process memory. State is lost on
// restart. FailGet and FailApply, when set, are returned instead of touching
// the map, which lets callers exercise storage failure paths.
type MemoryKVRepository struct {
	mu     sync.RWMutex
	values map[string]string

	FailGet   error
	FailApply error
}

// NewMemoryKVRepository creates an empty in-memory store
func NewMemoryKVRepository() *MemoryKVRepository {
	return &MemoryKVRepository{values: make(map[string]string)}
}

func (r *MemoryKVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.FailGet != nil {
		return "", false, r.FailGet
	}
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *MemoryKVRepository) Apply(ctx context.Context, m *models.Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailApply != nil {
		return r.FailApply
	}
	if m == nil {
		return nil
	}
	for k, v := range m.Set {
		r.values[k] = v
	}
	for _, k := range m.Delete {
		delete(r.values, k)
	}
	return nil
}

func (r *MemoryKVRepository) Ping(ctx context.Context) error {
	return nil
}

// Snapshot copies the current contents
func (r *MemoryKVRepository) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
