package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"booking-platform/internal/audit"
	"booking-platform/internal/booking"
)

type stubSessions struct{ known map[string]bool }

func (s stubSessions) Exists(ctx context.Context, id string) (bool, error) {
	return s.known[id], nil
}

type stubEvents struct{ events []audit.Event }

func (s stubEvents) ListBySession(ctx context.Context, id string) ([]audit.Event, error) {
	return s.events, nil
}

type stubAppointments struct{ appts []booking.Appointment }

func (s stubAppointments) ListBySession(ctx context.Context, id string, limit int) ([]booking.Appointment, error) {
	return s.appts, nil
}

func TestReport_UnknownSession(t *testing.T) {
	svc := NewService(stubSessions{known: map[string]bool{}}, stubEvents{}, stubAppointments{})
	if _, err := svc.Report(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Report(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReport_ConsistentSession(t *testing.T) {
	events := []audit.Event{
		{Tool: audit.ToolIdentifyUser, OK: true},
		{Tool: audit.ToolFetchSlots, OK: true},
		{Tool: audit.ToolBookAppointment, OK: false},
		{Tool: audit.ToolBookAppointment, OK: true},
		{Tool: audit.ToolCancelAppointment, OK: true},
		{Tool: audit.ToolEndConversation, OK: true},
	}
	appts := []booking.Appointment{{ID: "a1", Status: booking.StatusCancelled}}

	svc := NewService(
		stubSessions{known: map[string]bool{"sess-1": true}},
		stubEvents{events: events},
		stubAppointments{appts: appts},
	)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0) }

	rep, err := svc.Report(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rep.BookAttempts != 2 || rep.BookSuccesses != 1 {
		t.Fatalf("unexpected book counts: %+v", rep)
	}
	if rep.CancelsOK != 1 || rep.ToolFailures != 1 {
		t.Fatalf("unexpected counts: %+v", rep)
	}
	if !rep.Consistent {
		t.Fatalf("expected consistent session, got %+v", rep)
	}
}

func TestReport_DriftDetected(t *testing.T) {
	// Two successful book events but only one appointment row on record.
	events := []audit.Event{
		{Tool: audit.ToolBookAppointment, OK: true},
		{Tool: audit.ToolBookAppointment, OK: true},
	}
	appts := []booking.Appointment{{ID: "a1", Status: booking.StatusBooked}}

	svc := NewService(
		stubSessions{known: map[string]bool{"sess-1": true}},
		stubEvents{events: events},
		stubAppointments{appts: appts},
	)

	rep, err := svc.Report(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rep.Consistent {
		t.Fatalf("expected drift to be flagged, got %+v", rep)
	}
}
