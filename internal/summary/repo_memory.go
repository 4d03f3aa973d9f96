package summary

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repository used by tests.
type MemoryRepo struct {
	mu        sync.Mutex
	summaries map[string]Summary
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{summaries: make(map[string]Summary)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, s Summary) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.summaries[s.SessionID]; ok {
		s.CreatedAt = prev.CreatedAt
	}
	r.summaries[s.SessionID] = s
	return s, nil
}

func (r *MemoryRepo) Get(ctx context.Context, sessionID string) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.summaries[sessionID]
	if !ok {
		return Summary{}, ErrNotFound
	}
	return s, nil
}
