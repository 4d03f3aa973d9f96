package booking

import "time"

// Appointment is a reservation binding one contact to one slot.
//
// Invariants:
// - At most one booked appointment references a given slot at any time. This
//   is enforced by a storage-level partial unique index evaluated at commit,
//   not by a read-then-write check; see appointments_slot_booked_uniq.
// - StartAt/EndAt are copied from the slot at creation or reassignment time
//   and never rewritten afterwards, so history stays stable even if slot
//   metadata changes later.
// - Rows are never physically deleted; cancellation is a soft status flip.
type Appointment struct {
	ID            string `json:"id" db:"id"`
	ContactNumber string `json:"contact_number" db:"contact_number"`
	SlotID        string `json:"slot_id" db:"slot_id"`

	Status Status `json:"status" db:"status"`

	StartAt time.Time `json:"start_at" db:"start_at"`
	EndAt   time.Time `json:"end_at" db:"end_at"`

	Title string `json:"title,omitempty" db:"title"`
	Notes string `json:"notes,omitempty" db:"notes"`

	// SourceSessionID links the appointment to the conversation that
	// produced it, when there was one.
	SourceSessionID string `json:"source_session_id,omitempty" db:"source_session_id"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
}

// Status is the appointment lifecycle state.
// The only transition is booked -> cancelled, and it is terminal; re-booking
// after cancellation creates a new appointment row.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusCancelled Status = "cancelled"
)
