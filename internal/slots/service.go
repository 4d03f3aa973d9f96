package slots

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("slots: not found")
	ErrInvalidInput = errors.New("slots: invalid input")
)

// Repository is the persistence contract for the slot calendar.
type Repository interface {
	// InsertMissing inserts only slots whose start_at does not already exist
	// and returns the number actually inserted.
	InsertMissing(ctx context.Context, slots []Slot) (int, error)
	Get(ctx context.Context, id string) (Slot, error)
	SetEnabled(ctx context.Context, id string, enabled bool, at time.Time) error
	// ListWindow returns enabled slots with start_at in [from, to),
	// ordered by start_at.
	ListWindow(ctx context.Context, from, to time.Time) ([]Slot, error)
}

// BookedLookup reports which slots carry a booked appointment. It is
// implemented by the booking engine; the slot calendar itself stays ignorant
// of appointment rows.
type BookedLookup interface {
	BookedSlotIDs(ctx context.Context, from, to time.Time) ([]string, error)
}

type Service struct {
	repo   Repository
	booked BookedLookup
	clock  func() time.Time
}

func NewService(repo Repository, booked BookedLookup) *Service {
	return &Service{repo: repo, booked: booked, clock: time.Now}
}

// Generate produces evenly spaced slots of SlotDuration from OpenTime to
// CloseTime for each day in [StartDate, StartDate+Days), excluding a trailing
// partial slot. Re-running with overlapping ranges is idempotent: only slots
// whose start_at is new are inserted, and the count of those is returned.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (int, error) {
	if req.Days < 1 {
		return 0, ErrInvalidInput
	}
	if req.SlotDuration <= 0 {
		return 0, ErrInvalidInput
	}
	if req.Location == nil {
		return 0, ErrInvalidInput
	}
	if req.CloseTime.minutes() <= req.OpenTime.minutes() {
		return 0, ErrInvalidInput
	}
	if req.StartDate.IsZero() {
		return 0, ErrInvalidInput
	}

	now := s.clock().UTC()
	var out []Slot
	for day := 0; day < req.Days; day++ {
		y, m, d := req.StartDate.In(req.Location).AddDate(0, 0, day).Date()
		openAt := time.Date(y, m, d, req.OpenTime.Hour, req.OpenTime.Minute, 0, 0, req.Location)
		closeAt := time.Date(y, m, d, req.CloseTime.Hour, req.CloseTime.Minute, 0, 0, req.Location)

		for at := openAt; !at.Add(req.SlotDuration).After(closeAt); at = at.Add(req.SlotDuration) {
			out = append(out, Slot{
				ID:        uuid.NewString(),
				StartAt:   at.UTC(),
				EndAt:     at.Add(req.SlotDuration).UTC(),
				Enabled:   true,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
	}

	return s.repo.InsertMissing(ctx, out)
}

func (s *Service) Get(ctx context.Context, id string) (Slot, error) {
	if id == "" {
		return Slot{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

// ListWindow returns enabled slots in [from, to) regardless of booking state.
func (s *Service) ListWindow(ctx context.Context, from, to time.Time) ([]Slot, error) {
	if from.IsZero() || to.IsZero() || !to.After(from) {
		return nil, ErrInvalidInput
	}
	return s.repo.ListWindow(ctx, from, to)
}

// ListAvailable returns enabled slots in [from, to) with no concurrently
// booked appointment, ordered by start_at.
func (s *Service) ListAvailable(ctx context.Context, from, to time.Time) ([]Slot, error) {
	all, err := s.ListWindow(ctx, from, to)
	if err != nil {
		return nil, err
	}

	bookedIDs, err := s.booked.BookedSlotIDs(ctx, from, to)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(bookedIDs))
	for _, id := range bookedIDs {
		taken[id] = struct{}{}
	}

	out := all[:0]
	for _, sl := range all {
		if _, ok := taken[sl.ID]; !ok {
			out = append(out, sl)
		}
	}
	return out, nil
}

// Enable makes a slot bookable again. Existing appointments are unaffected.
func (s *Service) Enable(ctx context.Context, id string) error {
	return s.setEnabled(ctx, id, true)
}

// Disable removes a slot from availability without deleting it. Existing
// appointments are unaffected.
func (s *Service) Disable(ctx context.Context, id string) error {
	return s.setEnabled(ctx, id, false)
}

func (s *Service) setEnabled(ctx context.Context, id string, enabled bool) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.SetEnabled(ctx, id, enabled, s.clock().UTC())
}
