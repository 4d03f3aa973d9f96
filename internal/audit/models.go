package audit

import (
	"encoding/json"
	"time"
)

// Tool identifies which agent tool produced an event. The set is closed; the
// database enforces the same list with a CHECK constraint.
type Tool string

const (
	ToolIdentifyUser         Tool = "identify_user"
	ToolFetchSlots           Tool = "fetch_slots"
	ToolBookAppointment      Tool = "book_appointment"
	ToolRetrieveAppointments Tool = "retrieve_appointments"
	ToolCancelAppointment    Tool = "cancel_appointment"
	ToolModifyAppointment    Tool = "modify_appointment"
	ToolEndConversation      Tool = "end_conversation"
)

func (t Tool) Valid() bool {
	switch t {
	case ToolIdentifyUser, ToolFetchSlots, ToolBookAppointment,
		ToolRetrieveAppointments, ToolCancelAppointment,
		ToolModifyAppointment, ToolEndConversation:
		return true
	}
	return false
}

// Event is one recorded tool invocation. Events are append-only and are
// written for failures as well as successes.
type Event struct {
	ID           string          `json:"id"`
	SessionID    string          `json:"session_id"`
	Tool         Tool            `json:"tool"`
	Input        json.RawMessage `json:"input,omitempty"`
	Output       json.RawMessage `json:"output,omitempty"`
	OK           bool            `json:"ok"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
