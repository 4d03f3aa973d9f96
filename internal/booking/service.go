package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booking-platform/internal/slots"
	"booking-platform/pkg/utils"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the referenced appointment id does not exist.
	ErrNotFound = errors.New("booking: appointment not found")
	// ErrInvalidInput covers malformed arguments, including modifying an
	// already-cancelled appointment.
	ErrInvalidInput = errors.New("booking: invalid input")
	// ErrInvalidSlot means the referenced slot does not exist.
	ErrInvalidSlot = errors.New("booking: slot not found")
	// ErrSlotDisabled means the slot exists but is not currently bookable.
	ErrSlotDisabled = errors.New("booking: slot disabled")
	// ErrSlotAlreadyBooked is the exclusivity conflict: another booked
	// appointment holds the slot. Expected under concurrent load; callers
	// should pick a different slot rather than retry blindly.
	ErrSlotAlreadyBooked = errors.New("booking: slot already booked")
)

// Repository is the persistence contract for appointments.
//
// Implementations must surface the exclusivity conflict as
// ErrSlotAlreadyBooked from Insert and Reassign, derived from the storage
// constraint at commit time.
type Repository interface {
	Insert(ctx context.Context, a Appointment) error
	Get(ctx context.Context, id string) (Appointment, error)

	// Cancel flips a booked appointment to cancelled. If the appointment is
	// already cancelled it returns the current row unchanged.
	Cancel(ctx context.Context, id string, at time.Time) (Appointment, error)

	// Reassign atomically moves a booked appointment onto a new slot,
	// re-copying the slot times. The update and the exclusivity check are one
	// unit: on conflict nothing changes and ErrSlotAlreadyBooked is returned.
	Reassign(ctx context.Context, id string, sl slots.Slot, at time.Time) (Appointment, error)

	ListByContact(ctx context.Context, q ContactQuery) ([]Appointment, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]Appointment, error)
	BookedSlotIDs(ctx context.Context, from, to time.Time) ([]string, error)
}

// SlotSource provides slot lookups; implemented by slots.Service.
type SlotSource interface {
	Get(ctx context.Context, id string) (slots.Slot, error)
}

type Service struct {
	repo  Repository
	slots SlotSource
	clock func() time.Time
}

func NewService(repo Repository, slotSource SlotSource) *Service {
	return &Service{repo: repo, slots: slotSource, clock: time.Now}
}

type BookRequest struct {
	ContactNumber string
	SlotID        string
	Title         string
	Notes         string

	// SessionID optionally names the originating conversation.
	SessionID string
}

// Book reserves a slot for a contact. The slot must exist and be enabled; its
// times are snapshotted onto the appointment before commit. If a concurrent
// booking wins the race for the same slot the storage constraint rejects this
// one with ErrSlotAlreadyBooked and nothing is written.
func (s *Service) Book(ctx context.Context, req BookRequest) (Appointment, error) {
	cn := utils.NormalizePhone(req.ContactNumber)
	if cn == "" || req.SlotID == "" {
		return Appointment{}, ErrInvalidInput
	}

	sl, err := s.slots.Get(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, slots.ErrNotFound) {
			return Appointment{}, ErrInvalidSlot
		}
		return Appointment{}, fmt.Errorf("booking: load slot: %w", err)
	}
	if !sl.Enabled {
		return Appointment{}, ErrSlotDisabled
	}

	now := s.clock().UTC()
	appt := Appointment{
		ID:              uuid.NewString(),
		ContactNumber:   cn,
		SlotID:          sl.ID,
		Status:          StatusBooked,
		StartAt:         sl.StartAt,
		EndAt:           sl.EndAt,
		Title:           req.Title,
		Notes:           req.Notes,
		SourceSessionID: req.SessionID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, appt); err != nil {
		return Appointment{}, err
	}
	return appt, nil
}

// Cancel flips an appointment to cancelled and stamps the time. Cancelling an
// already-cancelled appointment is a no-op, not an error; only an unknown id
// fails, with ErrNotFound.
func (s *Service) Cancel(ctx context.Context, id string) (Appointment, error) {
	if id == "" {
		return Appointment{}, ErrInvalidInput
	}
	return s.repo.Cancel(ctx, id, s.clock().UTC())
}

// Modify re-books an existing appointment onto a new slot as one atomic
// operation. If the new slot is missing, disabled, or already booked, the
// whole operation fails and the original booking stays intact.
func (s *Service) Modify(ctx context.Context, id, newSlotID string) (Appointment, error) {
	if id == "" || newSlotID == "" {
		return Appointment{}, ErrInvalidInput
	}

	sl, err := s.slots.Get(ctx, newSlotID)
	if err != nil {
		if errors.Is(err, slots.ErrNotFound) {
			return Appointment{}, ErrInvalidSlot
		}
		return Appointment{}, fmt.Errorf("booking: load slot: %w", err)
	}
	if !sl.Enabled {
		return Appointment{}, ErrSlotDisabled
	}

	return s.repo.Reassign(ctx, id, sl, s.clock().UTC())
}

type ContactQuery struct {
	ContactNumber    string
	IncludeCancelled bool

	// From/To optionally bound start_at; zero values mean unbounded.
	From time.Time
	To   time.Time

	// Limit is clamped to [1, 20]; zero means the default of 5.
	Limit int
}

const (
	defaultRetrieveLimit = 5
	maxRetrieveLimit     = 20
)

// RetrieveByContact returns a contact's appointments, most recent start first.
func (s *Service) RetrieveByContact(ctx context.Context, q ContactQuery) ([]Appointment, error) {
	q.ContactNumber = utils.NormalizePhone(q.ContactNumber)
	if q.ContactNumber == "" {
		return nil, ErrInvalidInput
	}
	if !q.From.IsZero() && !q.To.IsZero() && !q.To.After(q.From) {
		return nil, ErrInvalidInput
	}
	if q.Limit <= 0 {
		q.Limit = defaultRetrieveLimit
	}
	if q.Limit > maxRetrieveLimit {
		q.Limit = maxRetrieveLimit
	}
	return s.repo.ListByContact(ctx, q)
}

// ListBySession returns appointments originated by a conversation, ordered by
// start_at ascending. Used for end-of-call summaries and reconciliation.
func (s *Service) ListBySession(ctx context.Context, sessionID string, limit int) ([]Appointment, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListBySession(ctx, sessionID, limit)
}

// BookedSlotIDs implements slots.BookedLookup.
func (s *Service) BookedSlotIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	return s.repo.BookedSlotIDs(ctx, from, to)
}
