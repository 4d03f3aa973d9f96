package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"booking-platform/internal/audit"
	"booking-platform/internal/booking"
	"booking-platform/internal/contacts"
	"booking-platform/internal/sessions"
	"booking-platform/internal/slots"
)

// Gateway is the tool surface exposed to the conversational agent runtime.
// Every call is recorded in the tool event ledger, success or failure; a
// failed audit write is logged but never fails the underlying operation.
type Gateway struct {
	contacts *contacts.Service
	slots    *slots.Service
	booking  *booking.Service
	sessions *sessions.Service
	audit    *audit.Service
	log      *slog.Logger
	loc      *time.Location
	clock    func() time.Time
}

func NewGateway(
	contactsSvc *contacts.Service,
	slotsSvc *slots.Service,
	bookingSvc *booking.Service,
	sessionsSvc *sessions.Service,
	auditSvc *audit.Service,
	loc *time.Location,
	log *slog.Logger,
) *Gateway {
	return &Gateway{
		contacts: contactsSvc,
		slots:    slotsSvc,
		booking:  bookingSvc,
		sessions: sessionsSvc,
		audit:    auditSvc,
		log:      log,
		loc:      loc,
		clock:    time.Now,
	}
}

func (g *Gateway) record(ctx context.Context, sessionID string, tool audit.Tool, input, output any, opErr error) {
	req := audit.RecordRequest{
		SessionID: sessionID,
		Tool:      tool,
		OK:        opErr == nil,
	}
	if opErr != nil {
		req.ErrorMessage = opErr.Error()
	}
	if input != nil {
		if b, err := json.Marshal(input); err == nil {
			req.Input = b
		}
	}
	if output != nil && opErr == nil {
		if b, err := json.Marshal(output); err == nil {
			req.Output = b
		}
	}
	if _, err := g.audit.Record(ctx, req); err != nil {
		g.log.WarnContext(ctx, "tool event not recorded",
			"tool", string(tool), "session_id", sessionID, "error", err)
	}
}

// IdentifyResult is what the agent reads back to the caller after
// identification: who they are and what they already have booked.
type IdentifyResult struct {
	Contact      contacts.Contact      `json:"contact"`
	Appointments []booking.Appointment `json:"appointments"`
}

// IdentifyCaller upserts the caller's contact record, attaches it to the
// session, and returns their upcoming context.
func (g *Gateway) IdentifyCaller(ctx context.Context, sessionID, contactNumber, name string) (IdentifyResult, error) {
	input := struct {
		ContactNumber string `json:"contact_number"`
		Name          string `json:"name,omitempty"`
	}{contactNumber, name}

	res, err := g.identifyCaller(ctx, sessionID, contactNumber, name)
	g.record(ctx, sessionID, audit.ToolIdentifyUser, input, res, err)
	return res, err
}

func (g *Gateway) identifyCaller(ctx context.Context, sessionID, contactNumber, name string) (IdentifyResult, error) {
	contact, err := g.contacts.Upsert(ctx, contactNumber, name, nil)
	if err != nil {
		return IdentifyResult{}, err
	}
	if _, err := g.sessions.SetContact(ctx, sessionID, contact.ContactNumber); err != nil {
		return IdentifyResult{}, err
	}

	appts, err := g.booking.RetrieveByContact(ctx, booking.ContactQuery{ContactNumber: contact.ContactNumber})
	if err != nil {
		return IdentifyResult{}, err
	}
	return IdentifyResult{Contact: contact, Appointments: appts}, nil
}

const (
	defaultFetchDays = 7
	maxFetchDays     = 14
)

// SlotOffer is a calendar slot annotated with its booking state, so the agent
// can read out taken times without offering them.
type SlotOffer struct {
	slots.Slot
	Available bool `json:"available"`
}

// FetchSlots returns the slot calendar from now through the requested number
// of days. Days defaults to 7 and is clamped to [1, 14].
func (g *Gateway) FetchSlots(ctx context.Context, sessionID string, days int) ([]SlotOffer, error) {
	if days <= 0 {
		days = defaultFetchDays
	}
	if days > maxFetchDays {
		days = maxFetchDays
	}

	input := struct {
		Days int `json:"days"`
	}{days}

	offers, err := g.fetchSlots(ctx, days)
	g.record(ctx, sessionID, audit.ToolFetchSlots, input, offers, err)
	return offers, err
}

func (g *Gateway) fetchSlots(ctx context.Context, days int) ([]SlotOffer, error) {
	from := g.clock().In(g.loc)
	to := from.AddDate(0, 0, days)

	all, err := g.slots.ListWindow(ctx, from, to)
	if err != nil {
		return nil, err
	}
	bookedIDs, err := g.booking.BookedSlotIDs(ctx, from, to)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(bookedIDs))
	for _, id := range bookedIDs {
		taken[id] = struct{}{}
	}

	offers := make([]SlotOffer, 0, len(all))
	for _, sl := range all {
		_, booked := taken[sl.ID]
		offers = append(offers, SlotOffer{Slot: sl, Available: !booked})
	}
	return offers, nil
}

type BookParams struct {
	ContactNumber string `json:"contact_number"`
	Name          string `json:"name,omitempty"`
	SlotID        string `json:"slot_id"`
	Title         string `json:"title,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// BookAppointment books a slot for the caller. The contact record is upserted
// first so a booking never dangles on an unknown number.
func (g *Gateway) BookAppointment(ctx context.Context, sessionID string, p BookParams) (booking.Appointment, error) {
	appt, err := g.bookAppointment(ctx, sessionID, p)
	g.record(ctx, sessionID, audit.ToolBookAppointment, p, appt, err)
	return appt, err
}

func (g *Gateway) bookAppointment(ctx context.Context, sessionID string, p BookParams) (booking.Appointment, error) {
	contact, err := g.contacts.Upsert(ctx, p.ContactNumber, p.Name, nil)
	if err != nil {
		return booking.Appointment{}, err
	}
	return g.booking.Book(ctx, booking.BookRequest{
		ContactNumber: contact.ContactNumber,
		SlotID:        p.SlotID,
		Title:         p.Title,
		Notes:         p.Notes,
		SessionID:     sessionID,
	})
}

type RetrieveParams struct {
	ContactNumber    string `json:"contact_number"`
	IncludeCancelled bool   `json:"include_cancelled,omitempty"`
	Limit            int    `json:"limit,omitempty"`
}

// RetrieveAppointments returns the caller's appointments, most recent first.
func (g *Gateway) RetrieveAppointments(ctx context.Context, sessionID string, p RetrieveParams) ([]booking.Appointment, error) {
	appts, err := g.booking.RetrieveByContact(ctx, booking.ContactQuery{
		ContactNumber:    p.ContactNumber,
		IncludeCancelled: p.IncludeCancelled,
		Limit:            p.Limit,
	})
	g.record(ctx, sessionID, audit.ToolRetrieveAppointments, p, appts, err)
	return appts, err
}

// CancelAppointment cancels an existing appointment.
func (g *Gateway) CancelAppointment(ctx context.Context, sessionID, appointmentID string) (booking.Appointment, error) {
	input := struct {
		AppointmentID string `json:"appointment_id"`
	}{appointmentID}

	appt, err := g.booking.Cancel(ctx, appointmentID)
	g.record(ctx, sessionID, audit.ToolCancelAppointment, input, appt, err)
	return appt, err
}

// ModifyAppointment moves an appointment to a new slot atomically.
func (g *Gateway) ModifyAppointment(ctx context.Context, sessionID, appointmentID, newSlotID string) (booking.Appointment, error) {
	input := struct {
		AppointmentID string `json:"appointment_id"`
		NewSlotID     string `json:"new_slot_id"`
	}{appointmentID, newSlotID}

	appt, err := g.booking.Modify(ctx, appointmentID, newSlotID)
	g.record(ctx, sessionID, audit.ToolModifyAppointment, input, appt, err)
	return appt, err
}

// EndConversation closes the session. Repeat calls are no-ops.
func (g *Gateway) EndConversation(ctx context.Context, sessionID string) (sessions.Session, error) {
	sess, err := g.sessions.Close(ctx, sessionID)
	g.record(ctx, sessionID, audit.ToolEndConversation, nil, sess, err)
	return sess, err
}
