package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"booking-platform/internal/slots"

	"github.com/google/uuid"
)

type fixture struct {
	booking *Service
	slots   *slots.Service
	repo    *MemoryRepo
	slotsMem *slots.MemoryRepo
}

func newFixture() *fixture {
	bookingRepo := NewMemoryRepo()
	slotsMem := slots.NewMemoryRepo()
	slotsSvc := slots.NewService(slotsMem, bookingRepo)
	bookingSvc := NewService(bookingRepo, slotsSvc)
	return &fixture{booking: bookingSvc, slots: slotsSvc, repo: bookingRepo, slotsMem: slotsMem}
}

func (f *fixture) addSlot(t *testing.T, start time.Time, enabled bool) slots.Slot {
	t.Helper()
	sl := slots.Slot{
		ID:      uuid.NewString(),
		StartAt: start,
		EndAt:   start.Add(30 * time.Minute),
		Enabled: enabled,
	}
	if _, err := f.slotsMem.InsertMissing(context.Background(), []slots.Slot{sl}); err != nil {
		t.Fatalf("insert slot: %v", err)
	}
	return sl
}

var slotStart = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestBook_SnapshotsSlotTimes(t *testing.T) {
	f := newFixture()
	sl := f.addSlot(t, slotStart, true)

	appt, err := f.booking.Book(context.Background(), BookRequest{
		ContactNumber: "+91 98765 43210",
		SlotID:        sl.ID,
		Title:         "Checkup",
		SessionID:     "sess-1",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if appt.Status != StatusBooked {
		t.Fatalf("expected booked, got %q", appt.Status)
	}
	if !appt.StartAt.Equal(sl.StartAt) || !appt.EndAt.Equal(sl.EndAt) {
		t.Fatalf("expected slot times copied, got %v-%v", appt.StartAt, appt.EndAt)
	}
	if appt.ContactNumber != "9876543210" {
		t.Fatalf("expected normalized contact, got %q", appt.ContactNumber)
	}
}

func TestBook_RejectsMissingAndDisabledSlots(t *testing.T) {
	f := newFixture()

	if _, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "9876543210", SlotID: "nope"}); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}

	sl := f.addSlot(t, slotStart, false)
	if _, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "9876543210", SlotID: sl.ID}); !errors.Is(err, ErrSlotDisabled) {
		t.Fatalf("expected ErrSlotDisabled, got %v", err)
	}
}

func TestBook_SecondCallerObservesConflict(t *testing.T) {
	f := newFixture()
	sl := f.addSlot(t, slotStart, true)

	first, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "+15550001111", SlotID: sl.ID})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	_, err = f.booking.Book(context.Background(), BookRequest{ContactNumber: "+15550002222", SlotID: sl.ID})
	if !errors.Is(err, ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}

	got, err := f.repo.Get(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Status != StatusBooked || !got.StartAt.Equal(slotStart) {
		t.Fatalf("winner's appointment disturbed: %+v", got)
	}
}

func TestBook_ConcurrentCallersExactlyOneWins(t *testing.T) {
	f := newFixture()
	sl := f.addSlot(t, slotStart, true)

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.booking.Book(context.Background(), BookRequest{
				ContactNumber: "9876543210",
				SlotID:        sl.ID,
			})
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotAlreadyBooked):
			conflicts++
		default:
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if wins != 1 || conflicts != callers-1 {
		t.Fatalf("expected exactly one winner, got wins=%d conflicts=%d", wins, conflicts)
	}
}

func TestCancel_IdempotentAndNotFound(t *testing.T) {
	f := newFixture()
	sl := f.addSlot(t, slotStart, true)

	if _, err := f.booking.Cancel(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	appt, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "9876543210", SlotID: sl.ID})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	first, err := f.booking.Cancel(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if first.Status != StatusCancelled || first.CancelledAt == nil {
		t.Fatalf("expected cancelled with timestamp, got %+v", first)
	}

	second, err := f.booking.Cancel(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("repeat cancel should be a no-op, got %v", err)
	}
	if !second.CancelledAt.Equal(*first.CancelledAt) {
		t.Fatalf("repeat cancel must not restamp cancellation time")
	}
}

func TestBook_AfterCancelCreatesNewRow(t *testing.T) {
	f := newFixture()
	sl := f.addSlot(t, slotStart, true)

	first, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "9876543210", SlotID: sl.ID})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := f.booking.Cancel(context.Background(), first.ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	second, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "9876543210", SlotID: sl.ID})
	if err != nil {
		t.Fatalf("expected re-booking to succeed, got %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("re-booking must create a new appointment row")
	}

	rows, err := f.booking.RetrieveByContact(context.Background(), ContactQuery{ContactNumber: "9876543210", IncludeCancelled: true, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected two rows (one cancelled, one booked), got %d", len(rows))
	}
	statuses := map[Status]int{}
	for _, a := range rows {
		statuses[a.Status]++
	}
	if statuses[StatusBooked] != 1 || statuses[StatusCancelled] != 1 {
		t.Fatalf("unexpected statuses: %v", statuses)
	}
}

func TestModify_MovesBookingAndRecopiesTimes(t *testing.T) {
	f := newFixture()
	oldSlot := f.addSlot(t, slotStart, true)
	newSlot := f.addSlot(t, slotStart.Add(time.Hour), true)

	appt, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "9876543210", SlotID: oldSlot.ID})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	moved, err := f.booking.Modify(context.Background(), appt.ID, newSlot.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if moved.SlotID != newSlot.ID {
		t.Fatalf("expected slot reassigned, got %q", moved.SlotID)
	}
	if !moved.StartAt.Equal(newSlot.StartAt) || !moved.EndAt.Equal(newSlot.EndAt) {
		t.Fatalf("expected times re-copied from new slot")
	}

	// Old slot is free again.
	if _, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "+15550001111", SlotID: oldSlot.ID}); err != nil {
		t.Fatalf("expected old slot bookable after modify, got %v", err)
	}
}

func TestModify_ConflictLeavesOriginalIntact(t *testing.T) {
	f := newFixture()
	mySlot := f.addSlot(t, slotStart, true)
	theirSlot := f.addSlot(t, slotStart.Add(time.Hour), true)

	mine, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "9876543210", SlotID: mySlot.ID})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "+15550001111", SlotID: theirSlot.ID}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	_, err = f.booking.Modify(context.Background(), mine.ID, theirSlot.ID)
	if !errors.Is(err, ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}

	got, err := f.repo.Get(context.Background(), mine.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.SlotID != mySlot.ID || got.Status != StatusBooked {
		t.Fatalf("original booking must stay intact, got %+v", got)
	}
}

func TestModify_RejectsCancelledAppointment(t *testing.T) {
	f := newFixture()
	sl := f.addSlot(t, slotStart, true)
	target := f.addSlot(t, slotStart.Add(time.Hour), true)

	appt, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "9876543210", SlotID: sl.ID})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := f.booking.Cancel(context.Background(), appt.ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if _, err := f.booking.Modify(context.Background(), appt.ID, target.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRetrieveByContact_FiltersAndClampsLimit(t *testing.T) {
	f := newFixture()
	cn := "9876543210"

	for i := 0; i < 8; i++ {
		sl := f.addSlot(t, slotStart.Add(time.Duration(i)*time.Hour), true)
		if _, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: cn, SlotID: sl.ID}); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	// Default limit is 5, most recent start first.
	rows, err := f.booking.RetrieveByContact(context.Background(), ContactQuery{ContactNumber: cn})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected default limit 5, got %d", len(rows))
	}
	if !rows[0].StartAt.After(rows[1].StartAt) {
		t.Fatalf("expected newest-first ordering")
	}

	// Time-range filter.
	rows, err = f.booking.RetrieveByContact(context.Background(), ContactQuery{
		ContactNumber: cn,
		From:          slotStart.Add(2 * time.Hour),
		To:            slotStart.Add(4 * time.Hour),
		Limit:         20,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows in range, got %d", len(rows))
	}

	// Inverted range is invalid.
	if _, err := f.booking.RetrieveByContact(context.Background(), ContactQuery{
		ContactNumber: cn,
		From:          slotStart.Add(4 * time.Hour),
		To:            slotStart.Add(2 * time.Hour),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListBySession(t *testing.T) {
	f := newFixture()
	s1 := f.addSlot(t, slotStart, true)
	s2 := f.addSlot(t, slotStart.Add(time.Hour), true)

	if _, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "9876543210", SlotID: s1.ID, SessionID: "sess-1"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := f.booking.Book(context.Background(), BookRequest{ContactNumber: "9876543210", SlotID: s2.ID, SessionID: "sess-2"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	rows, err := f.booking.ListBySession(context.Background(), "sess-1", 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rows) != 1 || rows[0].SlotID != s1.ID {
		t.Fatalf("unexpected session appointments: %+v", rows)
	}
}
