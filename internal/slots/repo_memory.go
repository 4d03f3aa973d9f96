package slots

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory slot calendar useful for tests.
// It enforces start_at uniqueness the way the Postgres UNIQUE constraint does.
type MemoryRepo struct {
	mu      sync.Mutex
	byID    map[string]Slot
	byStart map[int64]string // unix nano start -> slot id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    map[string]Slot{},
		byStart: map[int64]string{},
	}
}

func (r *MemoryRepo) InsertMissing(ctx context.Context, in []Slot) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, sl := range in {
		key := sl.StartAt.UnixNano()
		if _, taken := r.byStart[key]; taken {
			continue
		}
		r.byID[sl.ID] = sl
		r.byStart[key] = sl.ID
		inserted++
	}
	return inserted, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sl, ok := r.byID[id]
	if !ok {
		return Slot{}, ErrNotFound
	}
	return sl, nil
}

func (r *MemoryRepo) SetEnabled(ctx context.Context, id string, enabled bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sl, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	sl.Enabled = enabled
	sl.UpdatedAt = at
	r.byID[id] = sl
	return nil
}

func (r *MemoryRepo) ListWindow(ctx context.Context, from, to time.Time) ([]Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Slot
	for _, sl := range r.byID {
		if !sl.Enabled {
			continue
		}
		if sl.StartAt.Before(from) || !sl.StartAt.Before(to) {
			continue
		}
		out = append(out, sl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}
