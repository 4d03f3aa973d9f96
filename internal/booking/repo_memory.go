package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"booking-platform/internal/slots"
)

// MemoryRepo is an in-memory appointment store useful for tests.
// It enforces the booked-slot exclusivity invariant atomically under its
// mutex, mirroring the partial unique index in Postgres.
type MemoryRepo struct {
	mu           sync.Mutex
	appointments map[string]Appointment
	bookedBySlot map[string]string // slot id -> appointment id holding the booking
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		appointments: map[string]Appointment{},
		bookedBySlot: map[string]string{},
	}
}

func (r *MemoryRepo) Insert(ctx context.Context, a Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.Status == StatusBooked {
		if _, taken := r.bookedBySlot[a.SlotID]; taken {
			return ErrSlotAlreadyBooked
		}
		r.bookedBySlot[a.SlotID] = a.ID
	}
	r.appointments[a.ID] = a
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) Cancel(ctx context.Context, id string, at time.Time) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if a.Status == StatusCancelled {
		return a, nil
	}

	a.Status = StatusCancelled
	cancelledAt := at
	a.CancelledAt = &cancelledAt
	a.UpdatedAt = at
	r.appointments[id] = a
	delete(r.bookedBySlot, a.SlotID)
	return a, nil
}

func (r *MemoryRepo) Reassign(ctx context.Context, id string, sl slots.Slot, at time.Time) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if a.Status != StatusBooked {
		return Appointment{}, ErrInvalidInput
	}
	if holder, taken := r.bookedBySlot[sl.ID]; taken && holder != id {
		return Appointment{}, ErrSlotAlreadyBooked
	}

	delete(r.bookedBySlot, a.SlotID)
	a.SlotID = sl.ID
	a.StartAt = sl.StartAt
	a.EndAt = sl.EndAt
	a.UpdatedAt = at
	r.appointments[id] = a
	r.bookedBySlot[sl.ID] = id
	return a, nil
}

func (r *MemoryRepo) ListByContact(ctx context.Context, q ContactQuery) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Appointment
	for _, a := range r.appointments {
		if a.ContactNumber != q.ContactNumber {
			continue
		}
		if !q.IncludeCancelled && a.Status != StatusBooked {
			continue
		}
		if !q.From.IsZero() && a.StartAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !a.StartAt.Before(q.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.After(out[j].StartAt) })
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Appointment
	for _, a := range r.appointments {
		if a.SourceSessionID != sessionID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) BookedSlotIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for slotID, apptID := range r.bookedBySlot {
		a := r.appointments[apptID]
		if a.StartAt.Before(from) || !a.StartAt.Before(to) {
			continue
		}
		out = append(out, slotID)
	}
	return out, nil
}
