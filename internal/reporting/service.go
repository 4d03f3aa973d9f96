package reporting

import (
	"context"
	"errors"
	"time"

	"booking-platform/internal/audit"
	"booking-platform/internal/booking"
)

var (
	ErrNotFound     = errors.New("reporting: session not found")
	ErrInvalidInput = errors.New("reporting: invalid input")
)

// SessionReport reconciles the tool event ledger against the appointment rows
// a session produced. A drift between the two usually means an audit write was
// dropped, worth alerting on but never blocking.
type SessionReport struct {
	SessionID string `json:"session_id"`

	BookAttempts         int `json:"book_attempts"`
	BookSuccesses        int `json:"book_successes"`
	CancelsOK            int `json:"cancels_ok"`
	ModifiesOK           int `json:"modifies_ok"`
	ToolFailures         int `json:"tool_failures"`
	AppointmentsOnRecord int `json:"appointments_on_record"`

	// Consistent is true when every successful booking left an appointment
	// row attributed to this session.
	Consistent bool `json:"consistent"`

	GeneratedAt time.Time `json:"generated_at"`
}

type SessionSource interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
}

type EventSource interface {
	ListBySession(ctx context.Context, sessionID string) ([]audit.Event, error)
}

type AppointmentSource interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]booking.Appointment, error)
}

type Service struct {
	sessions     SessionSource
	events       EventSource
	appointments AppointmentSource
	clock        func() time.Time
}

func NewService(sessions SessionSource, events EventSource, appointments AppointmentSource) *Service {
	return &Service{sessions: sessions, events: events, appointments: appointments, clock: time.Now}
}

// Report builds the reconciliation view for one session.
func (s *Service) Report(ctx context.Context, sessionID string) (SessionReport, error) {
	if sessionID == "" {
		return SessionReport{}, ErrInvalidInput
	}
	ok, err := s.sessions.Exists(ctx, sessionID)
	if err != nil {
		return SessionReport{}, err
	}
	if !ok {
		return SessionReport{}, ErrNotFound
	}

	events, err := s.events.ListBySession(ctx, sessionID)
	if err != nil {
		return SessionReport{}, err
	}
	appts, err := s.appointments.ListBySession(ctx, sessionID, 100)
	if err != nil {
		return SessionReport{}, err
	}

	rep := SessionReport{
		SessionID:            sessionID,
		AppointmentsOnRecord: len(appts),
		GeneratedAt:          s.clock().UTC(),
	}
	for _, e := range events {
		if !e.OK {
			rep.ToolFailures++
		}
		switch e.Tool {
		case audit.ToolBookAppointment:
			rep.BookAttempts++
			if e.OK {
				rep.BookSuccesses++
			}
		case audit.ToolCancelAppointment:
			if e.OK {
				rep.CancelsOK++
			}
		case audit.ToolModifyAppointment:
			if e.OK {
				rep.ModifiesOK++
			}
		}
	}

	rep.Consistent = rep.BookSuccesses == rep.AppointmentsOnRecord
	return rep, nil
}
