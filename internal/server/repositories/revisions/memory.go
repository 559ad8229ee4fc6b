package revisions

import (
	"context"
	"sync"
)

// MemoryRepository is an in-process sequencer for tests. The mutex makes the
// read-increment-return a single critical section, matching the atomicity of
// the database counter.
type MemoryRepository struct {
	mu    sync.Mutex
	value int64
}

// NewMemoryRepository constructs a sequencer starting at 0.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Next draws the next revision.
func (r *MemoryRepository) Next(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value++
	return r.value, nil
}

// Latest returns the highest revision issued so far.
func (r *MemoryRepository) Latest(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, nil
}
