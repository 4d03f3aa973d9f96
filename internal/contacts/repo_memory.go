package contacts

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory contact store useful for tests.
// It mirrors the merge semantics of the Postgres upsert.
type MemoryRepo struct {
	mu       sync.Mutex
	contacts map[string]Contact
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{contacts: map[string]Contact{}}
}

func (r *MemoryRepo) Upsert(ctx context.Context, c Contact) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.contacts[c.ContactNumber]
	if !ok {
		r.contacts[c.ContactNumber] = c
		return c, nil
	}

	if c.Name != "" {
		existing.Name = c.Name
	}
	if len(c.Metadata) > 0 {
		existing.Metadata = c.Metadata
	}
	existing.UpdatedAt = c.UpdatedAt
	existing.LastSeenAt = c.LastSeenAt
	r.contacts[c.ContactNumber] = existing
	return existing, nil
}

func (r *MemoryRepo) Get(ctx context.Context, contactNumber string) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.contacts[contactNumber]
	if !ok {
		return Contact{}, ErrNotFound
	}
	return c, nil
}
